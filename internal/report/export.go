package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nao1215/compliancescribe/internal/model"
)

const (
	// RedactedFileName is the export name of the redacted transcript.
	RedactedFileName = "redacted_call.txt"

	// ReportFileName is the export name of the full JSON transcription.
	ReportFileName = "compliance_report.json"
)

// ErrNoTranscription is returned when there is no transcription to export.
var ErrNoTranscription = errors.New("no transcription to export")

// ExportJSON returns the full transcription as JSON indented with two spaces.
// The service's raw response is exported when present so that fields not
// modelled in TranscriptionResult are kept; result is not modified.
func ExportJSON(result *model.TranscriptionResult) ([]byte, error) {
	if result == nil {
		return nil, ErrNoTranscription
	}
	if len(result.Raw) > 0 {
		var buf bytes.Buffer
		if err := json.Indent(&buf, bytes.TrimSpace(result.Raw), "", "  "); err == nil {
			return buf.Bytes(), nil
		}
	}
	normalized := *result
	normalized.Raw = nil
	normalized.Normalize()
	return json.MarshalIndent(&normalized, "", "  ")
}

// ExportText returns the redacted transcript as file content.
func ExportText(redacted string) []byte {
	return []byte(redacted)
}

// ExportPaths holds the files written by WriteExports.
type ExportPaths struct {
	Text string
	JSON string
}

// ExportFileNames returns the export names. A non-empty prefix (the audio
// base name without extension) keeps exports of several recordings apart.
func ExportFileNames(prefix string) (text, report string) {
	if prefix == "" {
		return RedactedFileName, ReportFileName
	}
	return prefix + "_" + RedactedFileName, prefix + "_" + ReportFileName
}

// PrefixFor returns the export prefix for an audio path.
func PrefixFor(audioPath string) string {
	base := filepath.Base(audioPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ExportPrefixes returns a distinct export prefix for every path, keyed by
// the path as given. The base name without extension is used when it is
// unique; clashing names keep their extension, and names that still clash
// get the 1-based position of the path appended. Repeated paths share one
// prefix.
func ExportPrefixes(paths []string) map[string]string {
	unique := make([]string, 0, len(paths))
	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		if !seen[p] {
			seen[p] = true
			unique = append(unique, p)
		}
	}

	stems := make(map[string]int, len(unique))
	bases := make(map[string]int, len(unique))
	for _, p := range unique {
		stems[PrefixFor(p)]++
		bases[filepath.Base(p)]++
	}

	prefixes := make(map[string]string, len(unique))
	taken := make(map[string]bool, len(unique))
	for i, p := range unique {
		prefix := PrefixFor(p)
		if stems[prefix] > 1 {
			prefix = filepath.Base(p)
			if bases[prefix] > 1 {
				prefix = fmt.Sprintf("%s_%d", prefix, i+1)
			}
		}
		for n := 2; taken[prefix]; n++ {
			prefix = fmt.Sprintf("%s_%d", PrefixFor(p), n)
		}
		taken[prefix] = true
		prefixes[p] = prefix
	}
	return prefixes
}

// WriteExports writes the redacted transcript and the JSON transcription
// into dir, creating it if needed.
func WriteExports(dir, prefix string, result *model.TranscriptionResult, redacted string) (ExportPaths, error) {
	data, err := ExportJSON(result)
	if err != nil {
		return ExportPaths{}, err
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return ExportPaths{}, fmt.Errorf("failed to create export directory: %w", err)
	}

	textName, jsonName := ExportFileNames(prefix)
	paths := ExportPaths{
		Text: filepath.Join(dir, textName),
		JSON: filepath.Join(dir, jsonName),
	}

	if err := os.WriteFile(paths.Text, ExportText(redacted), 0o600); err != nil {
		return ExportPaths{}, fmt.Errorf("failed to write %s: %w", paths.Text, err)
	}
	if err := os.WriteFile(paths.JSON, append(data, '\n'), 0o600); err != nil {
		return ExportPaths{}, fmt.Errorf("failed to write %s: %w", paths.JSON, err)
	}

	return paths, nil
}
