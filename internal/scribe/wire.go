package scribe

import (
	"encoding/json"
	"strings"

	"github.com/nao1215/compliancescribe/internal/model"
)

// response mirrors the service's JSON body. Entities are reported either
// with a category and start time or with an entity_type and character
// offsets into text, depending on the API version.
type response struct {
	LanguageCode        string   `json:"language_code"`
	LanguageProbability float64  `json:"language_probability"`
	Text                string   `json:"text"`
	Words               []word   `json:"words"`
	Entities            []entity `json:"entities"`
}

type word struct {
	Text      string  `json:"text"`
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	Type      string  `json:"type"`
	SpeakerID string  `json:"speaker_id"`
}

type entity struct {
	Category   string   `json:"category"`
	EntityType string   `json:"entity_type"`
	Text       string   `json:"text"`
	Start      *float64 `json:"start"`
	End        *float64 `json:"end"`
	StartChar  *int     `json:"start_char"`
	EndChar    *int     `json:"end_char"`
}

// errorBody covers the two detail shapes the service uses for errors.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

func (b errorBody) message() string {
	if len(b.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(b.Detail, &s); err == nil {
		return s
	}
	var d struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(b.Detail, &d); err == nil {
		if d.Message != "" {
			return d.Message
		}
		return d.Status
	}
	return strings.TrimSpace(string(b.Detail))
}

// toModel converts the wire response and fills entity times from character
// offsets when the service did not send them.
func (r *response) toModel() *model.TranscriptionResult {
	result := model.NewTranscriptionResult(r.Text)
	result.LanguageCode = r.LanguageCode
	result.LanguageProbability = r.LanguageProbability

	for _, w := range r.Words {
		result.Words = append(result.Words, model.WordToken(w))
	}

	runes := []rune(r.Text)
	for _, e := range r.Entities {
		m := model.Entity{
			Category: e.Category,
			Text:     e.Text,
		}
		if m.Category == "" {
			m.Category = e.EntityType
		}
		if m.Text == "" && e.StartChar != nil && e.EndChar != nil {
			m.Text = sliceRunes(runes, *e.StartChar, *e.EndChar)
		}
		switch {
		case e.Start != nil:
			m.Start = *e.Start
		case e.StartChar != nil:
			m.Start = timeAtChar(result.Words, *e.StartChar, false)
		}
		switch {
		case e.End != nil:
			m.End = *e.End
		case e.EndChar != nil:
			m.End = timeAtChar(result.Words, *e.EndChar-1, true)
		}
		result.Entities = append(result.Entities, m)
	}

	return result
}

func sliceRunes(runes []rune, start, end int) string {
	if start < 0 || end > len(runes) || start >= end {
		return ""
	}
	return string(runes[start:end])
}

// timeAtChar returns the start (or end) time of the token covering the
// character offset idx. Tokens concatenate to the transcript text.
func timeAtChar(words []model.WordToken, idx int, end bool) float64 {
	offset := 0
	for _, w := range words {
		n := len([]rune(w.Text))
		if idx < offset+n {
			if end {
				return w.End
			}
			return w.Start
		}
		offset += n
	}
	if len(words) > 0 {
		return words[len(words)-1].End
	}
	return 0
}
