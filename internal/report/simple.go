package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/compliancescribe/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
// Plain ASCII sections keep the output readable when piped to a file.
type SimpleWriter struct {
	baseWriter

	// verbose adds impact and recommendation text to each finding.
	verbose bool

	// showTranscript prints the unredacted transcript. Off by default
	// because terminal scrollback is not a compliant store.
	showTranscript bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// WithTranscript includes the full, unredacted transcript.
func WithTranscript(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showTranscript = show
	}
}

// WithSampleLimit sets how many tokens the diarization sample shows.
func WithSampleLimit(limit int) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.sampleLimit = limit
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(result *model.ScanResult) (int, error) {
	report := result.EnsureReport()

	var sb strings.Builder
	w.writeHeader(&sb, report)
	w.writeSummary(&sb, report)
	w.writeRisks(&sb, result)
	if w.verbose {
		w.writeFindings(&sb, report)
	}
	w.writeTranscripts(&sb, result)
	w.writeDiarization(&sb, result)
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

func section(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.ComplianceReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                   COMPLIANCESCRIBE CALL REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Recording:  %s\n", report.Source)
	fmt.Fprintf(sb, "Scan ID:    %s\n", report.ScanID)
	fmt.Fprintf(sb, "Scan Date:  %s\n", report.DateScanned.Format("2006-01-02 15:04:05 MST"))
	if report.Model != "" {
		fmt.Fprintf(sb, "Model:      %s\n", report.Model)
	}
	if report.Language != "" {
		fmt.Fprintf(sb, "Language:   %s\n", report.Language)
	}
	fmt.Fprintf(sb, "Duration:   %.1fs\n", report.DurationSeconds)
	fmt.Fprintf(sb, "Words:      %d\n", report.WordCount)
	fmt.Fprintf(sb, "Speakers:   %d\n", len(report.Speakers))
	fmt.Fprintf(sb, "Status:     %s\n", statusText(report))
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.ComplianceReport) {
	section(sb, "SEVERITY SUMMARY")

	fmt.Fprintf(sb, "  CRITICAL: %d\n", report.CriticalCount)
	fmt.Fprintf(sb, "  HIGH:     %d\n", report.HighCount)
	fmt.Fprintf(sb, "  MEDIUM:   %d\n", report.MediumCount)
	fmt.Fprintf(sb, "  LOW:      %d\n", report.LowCount)
	fmt.Fprintf(sb, "  INFO:     %d\n", report.InfoCount)
	sb.WriteString("\n")
	fmt.Fprintf(sb, "  TOTAL:    %d findings\n", report.TotalFindings())
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeRisks(sb *strings.Builder, result *model.ScanResult) {
	if result.Transcription == nil {
		return
	}
	section(sb, "DETECTED PII & COMPLIANCE RISKS")
	for _, line := range ListRisks(entities(result)) {
		fmt.Fprintf(sb, "  - %s\n", line)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFindings(sb *strings.Builder, report *model.ComplianceReport) {
	if !report.HasFindings() {
		return
	}
	section(sb, "FINDINGS")

	for _, severity := range severityOrder {
		findings := report.GetFindingsBySeverity(severity)
		if len(findings) == 0 {
			continue
		}
		fmt.Fprintf(sb, "[%s] %s\n", severityIndicator(severity), severity)
		for _, f := range findings {
			fmt.Fprintf(sb, "  * %s: %s %s\n", f.Title, f.Value, f.Timestamp())
			if f.Impact != "" {
				fmt.Fprintf(sb, "    Impact: %s\n", f.Impact)
			}
			if f.Recommendation != "" {
				fmt.Fprintf(sb, "    Recommendation: %s\n", f.Recommendation)
			}
		}
		sb.WriteString("\n")
	}
}

func (w *SimpleWriter) writeTranscripts(sb *strings.Builder, result *model.ScanResult) {
	if result.Transcription == nil {
		return
	}
	if w.showTranscript {
		section(sb, "FULL TRANSCRIPT")
		sb.WriteString(result.Transcription.Text)
		sb.WriteString("\n\n")
	}
	section(sb, "REDACTED (SAFE) VERSION")
	sb.WriteString(result.RedactedText)
	sb.WriteString("\n\n")
}

func (w *SimpleWriter) writeDiarization(sb *strings.Builder, result *model.ScanResult) {
	lines := SampleDiarization(words(result), w.sampleLimit)
	if len(lines) == 0 {
		return
	}
	section(sb, "SPEAKER DIARIZATION + WORD TIMESTAMPS (SAMPLE)")
	for _, line := range lines {
		fmt.Fprintf(sb, "  %s\n", line)
	}
	sb.WriteString("\n")
}

// severityIndicator returns a visual indicator for the severity level.
func severityIndicator(severity model.Severity) string {
	switch severity {
	case model.SeverityCritical:
		return "!!!"
	case model.SeverityHigh:
		return "!!"
	case model.SeverityMedium:
		return "!"
	case model.SeverityLow:
		return "-"
	case model.SeverityInfo:
		return "i"
	default:
		return "?"
	}
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by ComplianceScribe\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
