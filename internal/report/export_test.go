package report

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/compliancescribe/internal/model"
)

func TestExportJSON(t *testing.T) {
	t.Parallel()

	t.Run("indents with two spaces", func(t *testing.T) {
		t.Parallel()
		result := model.NewTranscriptionResult("Call John")
		result.Entities = append(result.Entities, model.Entity{Category: "NAME", Text: "John", Start: 0.5})

		data, err := ExportJSON(result)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(string(data), "\n  \"text\": \"Call John\"") {
			t.Errorf("expected two-space indentation, got:\n%s", data)
		}

		var parsed model.TranscriptionResult
		if err := json.Unmarshal(data, &parsed); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(parsed.Entities) != 1 || parsed.Entities[0].Text != "John" {
			t.Errorf("entities not preserved: %+v", parsed.Entities)
		}
	})

	t.Run("absent lists render as empty arrays", func(t *testing.T) {
		t.Parallel()
		result := &model.TranscriptionResult{Text: "x"}
		data, err := ExportJSON(result)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), `"words": []`) || !strings.Contains(string(data), `"entities": []`) {
			t.Errorf("expected empty arrays, got:\n%s", data)
		}
		if result.Words != nil || result.Entities != nil {
			t.Error("expected the caller's result to be left unmodified")
		}
	})

	t.Run("service fields survive the export", func(t *testing.T) {
		t.Parallel()
		result := model.NewTranscriptionResult("Call John")
		result.Raw = json.RawMessage(`{"transcription_id":"tr_1","text":"Call John",` +
			`"words":[{"text":"Call","start":0,"end":0.4,"logprob":-0.2}],` +
			`"entities":[{"entity_type":"name","text":"John","start_char":5,"end_char":9}]}`)

		data, err := ExportJSON(result)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, field := range []string{"transcription_id", "logprob", "entity_type", "start_char", "end_char"} {
			if !strings.Contains(string(data), `"`+field+`"`) {
				t.Errorf("export lost field %q:\n%s", field, data)
			}
		}
		if strings.Contains(string(data), `"category"`) {
			t.Errorf("export rewrote entities:\n%s", data)
		}
		if !strings.Contains(string(data), "\n  \"transcription_id\": \"tr_1\"") {
			t.Errorf("expected two-space indentation, got:\n%s", data)
		}
	})

	t.Run("invalid raw body falls back to the decoded result", func(t *testing.T) {
		t.Parallel()
		result := model.NewTranscriptionResult("Call John")
		result.Raw = json.RawMessage(`{"text":`)

		data, err := ExportJSON(result)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(string(data), `"text": "Call John"`) {
			t.Errorf("expected decoded result, got:\n%s", data)
		}
	})

	t.Run("nil result is an error", func(t *testing.T) {
		t.Parallel()
		if _, err := ExportJSON(nil); !errors.Is(err, ErrNoTranscription) {
			t.Errorf("expected ErrNoTranscription, got %v", err)
		}
	})
}

func TestExportText(t *testing.T) {
	t.Parallel()

	if got := string(ExportText("Call [NAME]")); got != "Call [NAME]" {
		t.Errorf("unexpected content %q", got)
	}
}

func TestExportFileNames(t *testing.T) {
	t.Parallel()

	text, report := ExportFileNames("")
	if text != "redacted_call.txt" || report != "compliance_report.json" {
		t.Errorf("unexpected static names %q %q", text, report)
	}

	text, report = ExportFileNames(PrefixFor("/calls/support-01.mp3"))
	if text != "support-01_redacted_call.txt" || report != "support-01_compliance_report.json" {
		t.Errorf("unexpected prefixed names %q %q", text, report)
	}
}

func TestExportPrefixes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		paths []string
		want  map[string]string
	}{
		{
			name:  "unique base names drop the extension",
			paths: []string{"/calls/a.mp3", "/calls/b.wav"},
			want:  map[string]string{"/calls/a.mp3": "a", "/calls/b.wav": "b"},
		},
		{
			name:  "same stem keeps the extension",
			paths: []string{"call.mp3", "call.wav"},
			want:  map[string]string{"call.mp3": "call.mp3", "call.wav": "call.wav"},
		},
		{
			name:  "same file name in different directories",
			paths: []string{"mon/call.mp3", "tue/call.mp3", "call.wav"},
			want: map[string]string{
				"mon/call.mp3": "call.mp3_1",
				"tue/call.mp3": "call.mp3_2",
				"call.wav":     "call.wav",
			},
		},
		{
			name:  "repeated path shares a prefix",
			paths: []string{"a.mp3", "a.mp3"},
			want:  map[string]string{"a.mp3": "a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ExportPrefixes(tt.paths)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for path, want := range tt.want {
				if got[path] != want {
					t.Errorf("prefix for %q = %q, want %q", path, got[path], want)
				}
			}
		})
	}

	t.Run("prefixes never collide", func(t *testing.T) {
		t.Parallel()
		paths := []string{"a/call.mp3", "b/call.mp3", "call.mp3_1.ogg", "call.wav", "c/call.wav"}
		seen := make(map[string]string)
		for path, prefix := range ExportPrefixes(paths) {
			if other, ok := seen[prefix]; ok {
				t.Errorf("%q and %q share prefix %q", path, other, prefix)
			}
			seen[prefix] = path
		}
	})
}

func TestWriteExports(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "out")
	result := model.NewTranscriptionResult("Call John")

	paths, err := WriteExports(dir, "", result, "Call [NAME]")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text, err := os.ReadFile(paths.Text)
	if err != nil {
		t.Fatal(err)
	}
	if string(text) != "Call [NAME]" {
		t.Errorf("unexpected redacted export %q", text)
	}
	if filepath.Base(paths.JSON) != ReportFileName {
		t.Errorf("unexpected json export name %q", paths.JSON)
	}
	if _, err := os.Stat(paths.JSON); err != nil {
		t.Errorf("json export missing: %v", err)
	}
}
