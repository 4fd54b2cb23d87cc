package report

import (
	"io"

	"github.com/nao1215/compliancescribe/internal/model"
)

// Writer defines the interface for report output.
// Implementations render one scan result in a specific format.
type Writer interface {
	// Write outputs the report for result to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(result *model.ScanResult) (int, error)
}

// MultiWriter writes to multiple Writers in order.
// Our Writer renders reports rather than bytes, so io.MultiWriter does not apply.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(result *model.ScanResult) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(result)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output      io.Writer
	sampleLimit int
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output, sampleLimit: DefaultSampleLimit}
}

// entities returns the entities of result, or nil if transcription did not run.
func entities(result *model.ScanResult) []model.Entity {
	if result.Transcription == nil {
		return nil
	}
	return result.Transcription.Entities
}

// words returns the word tokens of result, or nil if transcription did not run.
func words(result *model.ScanResult) []model.WordToken {
	if result.Transcription == nil {
		return nil
	}
	return result.Transcription.Words
}

// statusText describes how the scan ended.
func statusText(report *model.ComplianceReport) string {
	switch {
	case report.TimedOut:
		return "TIMED OUT"
	case report.Error != "":
		return "ERROR - " + report.Error
	default:
		return "Complete"
	}
}

// severityOrder lists severities from most to least severe.
var severityOrder = []model.Severity{
	model.SeverityCritical,
	model.SeverityHigh,
	model.SeverityMedium,
	model.SeverityLow,
	model.SeverityInfo,
}

// truncateString truncates s to maxLen runes with an ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
