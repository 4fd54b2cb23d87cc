package report

import (
	"fmt"
	"testing"

	"github.com/nao1215/compliancescribe/internal/model"
)

func TestListRisks(t *testing.T) {
	t.Parallel()

	t.Run("empty input yields single no risk line", func(t *testing.T) {
		t.Parallel()
		got := ListRisks(nil)
		if len(got) != 1 || got[0] != "No PII risks found – compliant & safe!" {
			t.Errorf("unexpected lines %q", got)
		}
	})

	t.Run("one line per entity in order", func(t *testing.T) {
		t.Parallel()
		got := ListRisks([]model.Entity{
			{Category: "NAME", Text: "John", Start: 0.54},
			{Category: "PHONE", Text: "555-1234", Start: 12.25},
			{Category: "NAME", Text: "John", Start: 20},
		})
		want := []string{
			"NAME: 'John' (at ~0.5s)",
			"PHONE: '555-1234' (at ~12.2s)",
			"NAME: 'John' (at ~20.0s)",
		}
		if len(got) != len(want) {
			t.Fatalf("expected %d lines, got %d", len(want), len(got))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("line %d = %q, want %q", i, got[i], want[i])
			}
		}
	})
}

func TestSampleDiarization(t *testing.T) {
	t.Parallel()

	makeWords := func(n int) []model.WordToken {
		ws := make([]model.WordToken, n)
		for i := range ws {
			ws[i] = model.WordToken{
				Text:      fmt.Sprintf("w%d", i),
				Start:     float64(i),
				End:       float64(i) + 0.5,
				SpeakerID: "speaker_0",
			}
		}
		return ws
	}

	t.Run("20 words with limit 15 returns first 15", func(t *testing.T) {
		t.Parallel()
		got := SampleDiarization(makeWords(20), 15)
		if len(got) != 15 {
			t.Fatalf("expected 15 lines, got %d", len(got))
		}
		for i, line := range got {
			want := fmt.Sprintf("Speaker speaker_0: 'w%d' (%d.0s – %d.5s)", i, i, i)
			if line != want {
				t.Errorf("line %d = %q, want %q", i, line, want)
			}
		}
	})

	t.Run("fewer words than limit", func(t *testing.T) {
		t.Parallel()
		if got := SampleDiarization(makeWords(3), 15); len(got) != 3 {
			t.Errorf("expected 3 lines, got %d", len(got))
		}
	})

	t.Run("missing speaker renders Unknown", func(t *testing.T) {
		t.Parallel()
		got := SampleDiarization([]model.WordToken{{Text: "hi", Start: 1.25, End: 1.5}}, 15)
		if got[0] != "Speaker Unknown: 'hi' (1.2s – 1.5s)" {
			t.Errorf("unexpected line %q", got[0])
		}
	})

	t.Run("non-positive limit yields no lines", func(t *testing.T) {
		t.Parallel()
		for _, limit := range []int{0, -1} {
			if got := SampleDiarization(makeWords(5), limit); len(got) != 0 {
				t.Errorf("limit %d: expected no lines, got %d", limit, len(got))
			}
		}
	})

	t.Run("empty words", func(t *testing.T) {
		t.Parallel()
		if got := SampleDiarization(nil, 15); len(got) != 0 {
			t.Errorf("expected no lines, got %d", len(got))
		}
	})
}
