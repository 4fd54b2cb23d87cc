package model

import "encoding/json"

// TranscriptionResult is the response of the speech-to-text service.
// It is produced wholesale by one transcription call and is not modified
// afterwards; redaction and reporting work on copies.
//
// The JSON tags follow the service's response schema so that the result can
// be exported as-is.
type TranscriptionResult struct {
	// LanguageCode is the detected language (e.g. "eng").
	LanguageCode string `json:"language_code,omitempty"`

	// LanguageProbability is the service's confidence in LanguageCode.
	LanguageProbability float64 `json:"language_probability,omitempty"`

	// Text is the full transcript.
	Text string `json:"text"`

	// Words contains the word-level tokens in spoken order.
	// Never nil after Normalize.
	Words []WordToken `json:"words"`

	// Entities contains detected sensitive-information spans in the order
	// the service returned them. Never nil after Normalize.
	Entities []Entity `json:"entities"`

	// Raw is the response body exactly as the service sent it. The JSON
	// export prefers it so fields this package does not model survive.
	// Empty for results built locally.
	Raw json.RawMessage `json:"-"`
}

// WordToken is a single timestamped token of the transcript.
type WordToken struct {
	// Text is the token text.
	Text string `json:"text"`

	// Start is the token start time in seconds.
	Start float64 `json:"start"`

	// End is the token end time in seconds.
	End float64 `json:"end"`

	// Type is "word", "spacing" or "audio_event". Empty when not reported.
	Type string `json:"type,omitempty"`

	// SpeakerID is the diarization label. Empty when the service did not
	// assign a speaker.
	SpeakerID string `json:"speaker_id,omitempty"`
}

// HasSpeaker reports whether the token carries a speaker label.
func (w WordToken) HasSpeaker() bool {
	return w.SpeakerID != ""
}

// Entity is a detected sensitive-information span.
// Categories are not a closed set; see GetCategoryInfo for the known ones.
type Entity struct {
	// Category is the entity label, for example "SSN" or "NAME".
	Category string `json:"category"`

	// Text is the matched substring of the transcript.
	Text string `json:"text"`

	// Start is the approximate start time of the span in seconds.
	Start float64 `json:"start"`

	// End is the end time of the span in seconds, when reported.
	End float64 `json:"end,omitempty"`
}

// NewTranscriptionResult creates a result with empty word and entity lists.
func NewTranscriptionResult(text string) *TranscriptionResult {
	return &TranscriptionResult{
		Text:     text,
		Words:    make([]WordToken, 0),
		Entities: make([]Entity, 0),
	}
}

// Normalize replaces absent word and entity lists with empty ones.
// Decoded responses may omit either field; callers rely on both being
// iterable and on the JSON export rendering them as [] instead of null.
func (t *TranscriptionResult) Normalize() {
	if t.Words == nil {
		t.Words = make([]WordToken, 0)
	}
	if t.Entities == nil {
		t.Entities = make([]Entity, 0)
	}
}

// WordCount returns the number of tokens of type "word".
// Tokens without a type are counted as words.
func (t *TranscriptionResult) WordCount() int {
	count := 0
	for _, w := range t.Words {
		if w.Type == "" || w.Type == "word" {
			count++
		}
	}
	return count
}

// Speakers returns the distinct speaker ids in order of first appearance.
func (t *TranscriptionResult) Speakers() []string {
	seen := make(map[string]bool)
	speakers := make([]string, 0)
	for _, w := range t.Words {
		if !w.HasSpeaker() || seen[w.SpeakerID] {
			continue
		}
		seen[w.SpeakerID] = true
		speakers = append(speakers, w.SpeakerID)
	}
	return speakers
}

// Duration returns the end time of the last token in seconds.
func (t *TranscriptionResult) Duration() float64 {
	var end float64
	for _, w := range t.Words {
		if w.End > end {
			end = w.End
		}
	}
	return end
}
