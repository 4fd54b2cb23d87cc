package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/compliancescribe/internal/model"
)

// MarkdownWriter outputs reports in Markdown format for sharing with a
// compliance team, for example as a ticket attachment.
type MarkdownWriter struct {
	baseWriter
}

// MarkdownWriterOption configures a MarkdownWriter.
type MarkdownWriterOption func(*MarkdownWriter)

// WithMarkdownSampleLimit sets how many tokens the diarization sample shows.
func WithMarkdownSampleLimit(limit int) MarkdownWriterOption {
	return func(w *MarkdownWriter) {
		w.sampleLimit = limit
	}
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, opts ...MarkdownWriterOption) *MarkdownWriter {
	w := &MarkdownWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(result *model.ScanResult) (int, error) {
	report := result.EnsureReport()
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeRisks(md, result)
	w.writeFindings(md, report)
	w.writeRedacted(md, result)
	w.writeDiarization(md, result)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.ComplianceReport) {
	md.H1("Call Compliance Report")
	md.PlainText("")

	rows := [][]string{
		{"Recording", "`" + report.Source + "`"},
		{"Scan ID", "`" + report.ScanID + "`"},
		{"Scan Date", report.DateScanned.Format("2006-01-02 15:04:05 MST")},
	}
	if report.Model != "" {
		rows = append(rows, []string{"Model", report.Model})
	}
	if report.Language != "" {
		rows = append(rows, []string{"Language", report.Language})
	}
	rows = append(rows,
		[]string{"Duration", fmt.Sprintf("%.1fs", report.DurationSeconds)},
		[]string{"Words", strconv.Itoa(report.WordCount)},
		[]string{"Speakers", strings.Join(report.Speakers, ", ")},
	)
	if report.AudioHash != "" {
		rows = append(rows, []string{"Fingerprint (BLAKE2b)", "`" + truncateString(report.AudioHash, 16) + "`"})
	}
	rows = append(rows, []string{"Status", markdownStatus(report)})

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

func markdownStatus(report *model.ComplianceReport) string {
	if report.TimedOut {
		return "⚠️ Timed Out"
	}
	if report.Error != "" {
		return "❌ Error - " + report.Error
	}
	return "✅ Complete"
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.ComplianceReport) {
	md.H2("Severity Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Severity", "Count"},
		Rows: [][]string{
			{"🔴 Critical", strconv.Itoa(report.CriticalCount)},
			{"🟠 High", strconv.Itoa(report.HighCount)},
			{"🟡 Medium", strconv.Itoa(report.MediumCount)},
			{"🔵 Low", strconv.Itoa(report.LowCount)},
			{"⚪ Info", strconv.Itoa(report.InfoCount)},
			{"**Total**", "**" + strconv.Itoa(report.TotalFindings()) + "**"},
		},
	})
	md.PlainText("")

	if report.HasFindings() {
		w.writePieChart(md, report)
	}
	w.writeAlert(md, report)
}

// writePieChart writes a mermaid pie chart for severity distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, report *model.ComplianceReport) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("PII Severity Distribution"),
		piechart.WithShowData(true),
	)

	counts := []struct {
		label string
		n     int
	}{
		{"Critical", report.CriticalCount},
		{"High", report.HighCount},
		{"Medium", report.MediumCount},
		{"Low", report.LowCount},
		{"Info", report.InfoCount},
	}
	for _, c := range counts {
		if c.n > 0 {
			chart.LabelAndIntValue(c.label, uint64(c.n)) //nolint:gosec // counts are non-negative
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.ComplianceReport) {
	switch {
	case report.CriticalCount > 0:
		md.Cautionf(
			"%d critical finding(s): this recording holds payment, government ID or health data and must not be retained as-is.",
			report.CriticalCount,
		)
	case report.HighCount > 0:
		md.Warningf(
			"%d high severity finding(s): contact details were spoken. Share only the redacted transcript.",
			report.HighCount,
		)
	case report.MediumCount > 0:
		md.Importantf(
			"%d medium severity finding(s): names or identifiers were spoken.",
			report.MediumCount,
		)
	case report.HasFindings():
		md.Note("Only low severity and informational findings detected.")
	default:
		md.Tip(NoRisksMessage)
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeRisks(md *markdown.Markdown, result *model.ScanResult) {
	if result.Transcription == nil {
		return
	}
	md.H2("Detected PII & Compliance Risks")
	md.PlainText("")
	md.BulletList(ListRisks(entities(result))...)
	md.PlainText("")
}

func (w *MarkdownWriter) writeFindings(md *markdown.Markdown, report *model.ComplianceReport) {
	if !report.HasFindings() {
		return
	}

	md.H2("Findings")
	md.PlainText("")

	headers := map[model.Severity]string{
		model.SeverityCritical: "🔴 Critical",
		model.SeverityHigh:     "🟠 High",
		model.SeverityMedium:   "🟡 Medium",
		model.SeverityLow:      "🔵 Low",
		model.SeverityInfo:     "⚪ Info",
	}

	for _, severity := range severityOrder {
		findings := report.GetFindingsBySeverity(severity)
		if len(findings) == 0 {
			continue
		}
		md.H3(headers[severity])
		md.PlainText("")
		w.writeFindingsTable(md, findings)
	}
}

func (w *MarkdownWriter) writeFindingsTable(md *markdown.Markdown, findings []model.Finding) {
	rows := make([][]string, len(findings))
	for i, f := range findings {
		rec := f.Recommendation
		if rec == "" {
			rec = "-"
		}
		rows[i] = []string{
			f.Title,
			"`" + truncateString(f.Value, 40) + "`",
			f.Timestamp(),
			truncateString(rec, 80),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Category", "Value", "Time", "Recommendation"},
		Rows:   rows,
	})
	md.PlainText("")

	seen := make(map[string]bool)
	for _, f := range findings {
		if f.Impact == "" || seen[f.Title] {
			continue
		}
		seen[f.Title] = true
		md.Details(f.Title, f.Impact)
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeRedacted(md *markdown.Markdown, result *model.ScanResult) {
	if result.Transcription == nil {
		return
	}
	md.H2("Redacted Transcript")
	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightText, result.RedactedText)
	md.PlainText("")
}

func (w *MarkdownWriter) writeDiarization(md *markdown.Markdown, result *model.ScanResult) {
	lines := SampleDiarization(words(result), w.sampleLimit)
	if len(lines) == 0 {
		return
	}
	md.H2("Speaker Diarization + Word Timestamps (Sample)")
	md.PlainText("")
	md.BulletList(lines...)
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by ComplianceScribe*")
}
