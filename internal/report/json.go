package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/compliancescribe/internal/model"
)

// JSONWriter outputs reports in JSON format for tool integration.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string

	// version is written into the document when set.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with two-space indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion records the tool version in the document.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// WithJSONSampleLimit sets how many tokens the diarization sample contains.
func WithJSONSampleLimit(limit int) JSONWriterOption {
	return func(w *JSONWriter) {
		w.sampleLimit = limit
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// JSONReport is the document written by JSONWriter. It wraps the compliance
// report with the rendered risk and diarization lines so consumers see the
// same text as the terminal output.
type JSONReport struct {
	// Version is the tool version that generated this report.
	Version string `json:"version,omitempty"`

	// Report is the compliance report.
	Report *model.ComplianceReport `json:"report"`

	// Risks are the ListRisks lines.
	Risks []string `json:"risks"`

	// DiarizationSample are the SampleDiarization lines.
	DiarizationSample []string `json:"diarization_sample"`
}

// NewJSONReport builds the JSON document for result.
func NewJSONReport(result *model.ScanResult, version string, sampleLimit int) *JSONReport {
	doc := &JSONReport{
		Version:           version,
		Report:            result.EnsureReport(),
		Risks:             []string{},
		DiarizationSample: SampleDiarization(words(result), sampleLimit),
	}
	if result.Transcription != nil {
		doc.Risks = ListRisks(entities(result))
	}
	return doc
}

// Write outputs the report in JSON format.
func (w *JSONWriter) Write(result *model.ScanResult) (int, error) {
	return w.writeJSON(NewJSONReport(result, w.version, w.sampleLimit))
}

// writeJSON marshals v and writes it followed by a newline.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}
