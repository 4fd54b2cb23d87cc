package report

import (
	"fmt"

	"github.com/nao1215/compliancescribe/internal/model"
)

// NoRisksMessage is the single line returned by ListRisks for an empty
// entity list.
const NoRisksMessage = "No PII risks found – compliant & safe!"

// UnknownSpeaker is shown for tokens without a speaker label.
const UnknownSpeaker = "Unknown"

// DefaultSampleLimit is the number of tokens shown by SampleDiarization
// when no limit is configured.
const DefaultSampleLimit = 15

// ListRisks returns one line per entity in input order, formatted as
// "CATEGORY: 'text' (at ~S.Ss)". An empty list yields NoRisksMessage.
func ListRisks(entities []model.Entity) []string {
	if len(entities) == 0 {
		return []string{NoRisksMessage}
	}
	lines := make([]string, len(entities))
	for i, e := range entities {
		lines[i] = fmt.Sprintf("%s: '%s' (at ~%.1fs)", e.Category, e.Text, e.Start)
	}
	return lines
}

// SampleDiarization returns the first min(limit, len(words)) tokens in
// order, formatted as "Speaker ID: 'text' (S.Ss – E.Es)". A non-positive
// limit yields no lines.
func SampleDiarization(words []model.WordToken, limit int) []string {
	if limit <= 0 {
		return []string{}
	}
	n := min(limit, len(words))
	lines := make([]string, n)
	for i, w := range words[:n] {
		speaker := w.SpeakerID
		if speaker == "" {
			speaker = UnknownSpeaker
		}
		lines[i] = fmt.Sprintf("Speaker %s: '%s' (%.1fs – %.1fs)", speaker, w.Text, w.Start, w.End)
	}
	return lines
}
