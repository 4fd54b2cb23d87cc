package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nao1215/compliancescribe/internal/audio"
	"github.com/nao1215/compliancescribe/internal/model"
	"github.com/nao1215/compliancescribe/internal/redact"
	"github.com/nao1215/compliancescribe/internal/report"
	"github.com/nao1215/compliancescribe/internal/scribe"
)

// ErrNoTranscription is returned by steps that need a transcription when
// the transcribe step did not produce one.
var ErrNoTranscription = errors.New("no transcription available")

// Transcriber uploads audio and returns the transcription.
// *scribe.Client implements it.
type Transcriber interface {
	Transcribe(ctx context.Context, req scribe.Request) (*model.TranscriptionResult, error)
}

// ValidateStep checks the upload before any network traffic and records
// the audio fingerprint.
type ValidateStep struct {
	maxFileSize int64
}

// NewValidateStep creates a validation step. A non-positive maxFileSize
// disables the size limit.
func NewValidateStep(maxFileSize int64) *ValidateStep {
	return &ValidateStep{maxFileSize: maxFileSize}
}

// Name returns the step name.
func (s *ValidateStep) Name() string {
	return "validate"
}

// Do validates the audio file and fingerprints it.
func (s *ValidateStep) Do(_ context.Context, result *model.ScanResult) error {
	if _, err := audio.Validate(result.Source, s.maxFileSize); err != nil {
		return err
	}
	hash, err := audio.FingerprintFile(result.Source)
	if err != nil {
		return fmt.Errorf("failed to fingerprint audio: %w", err)
	}
	result.AudioHash = hash
	return nil
}

// TranscribeStep sends the recording to the speech-to-text service.
// Exactly one request is made per recording.
type TranscribeStep struct {
	client Transcriber
	model  string
	logger *slog.Logger
}

// TranscribeStepOption configures a TranscribeStep.
type TranscribeStepOption func(*TranscribeStep)

// WithTranscribeModel overrides the client's model.
func WithTranscribeModel(m string) TranscribeStepOption {
	return func(s *TranscribeStep) {
		s.model = m
	}
}

// WithTranscribeLogger sets a custom logger for the transcribe step.
func WithTranscribeLogger(logger *slog.Logger) TranscribeStepOption {
	return func(s *TranscribeStep) {
		s.logger = logger
	}
}

// NewTranscribeStep creates a transcription step using client.
func NewTranscribeStep(client Transcriber, opts ...TranscribeStepOption) *TranscribeStep {
	s := &TranscribeStep{
		client: client,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *TranscribeStep) Name() string {
	return "transcribe"
}

// Do uploads the recording and stores the transcription.
func (s *TranscribeStep) Do(ctx context.Context, result *model.ScanResult) error {
	tr, err := s.client.Transcribe(ctx, scribe.Request{
		Path:  result.Source,
		Model: s.model,
	})
	if err != nil {
		return err
	}
	tr.Normalize()

	result.Transcription = tr
	if s.model != "" {
		result.Model = s.model
	}

	s.logger.Info("transcription complete",
		"file", result.SourceName(),
		"words", tr.WordCount(),
		"speakers", len(tr.Speakers()),
		"entities", len(tr.Entities),
	)
	return nil
}

// RedactStep replaces detected entities in the transcript with tags.
type RedactStep struct {
	redactor *redact.Redactor
}

// NewRedactStep creates a redaction step. A nil redactor uses the defaults.
func NewRedactStep(redactor *redact.Redactor) *RedactStep {
	if redactor == nil {
		redactor = redact.New()
	}
	return &RedactStep{redactor: redactor}
}

// Name returns the step name.
func (s *RedactStep) Name() string {
	return "redact"
}

// Do redacts the transcript text.
func (s *RedactStep) Do(_ context.Context, result *model.ScanResult) error {
	if result.Transcription == nil {
		return ErrNoTranscription
	}
	result.RedactedText = s.redactor.Redact(result.Transcription.Text, result.Transcription.Entities)
	return nil
}

// AnalyzeStep ranks detected entities into a compliance report.
type AnalyzeStep struct {
	overrides model.SeverityOverrides
}

// NewAnalyzeStep creates an analysis step. overrides may be nil.
func NewAnalyzeStep(overrides model.SeverityOverrides) *AnalyzeStep {
	return &AnalyzeStep{overrides: overrides}
}

// Name returns the step name.
func (s *AnalyzeStep) Name() string {
	return "analyze"
}

// Do builds the compliance report.
func (s *AnalyzeStep) Do(_ context.Context, result *model.ScanResult) error {
	if result.Transcription == nil {
		return ErrNoTranscription
	}

	r := model.NewComplianceReport(result.SourceName())
	r.ScanID = result.ID
	r.AudioHash = result.AudioHash
	r.Model = result.Model
	r.DateScanned = result.DateScanned
	r.AddTranscription(result.Transcription, s.overrides)
	r.RedactedText = result.RedactedText

	result.Report = r
	return nil
}

// ExportStep writes the redacted transcript and the JSON transcription.
type ExportStep struct {
	dir       string
	usePrefix bool
	prefixes  map[string]string
}

// ExportOption configures an ExportStep.
type ExportOption func(*ExportStep)

// WithExportPrefixes sets the export prefix per audio path, as computed by
// report.ExportPrefixes. Paths missing from the map use their base name.
func WithExportPrefixes(prefixes map[string]string) ExportOption {
	return func(s *ExportStep) {
		s.prefixes = prefixes
	}
}

// NewExportStep creates an export step writing into dir. With usePrefix the
// file names start with the audio base name, so several recordings can
// share one directory.
func NewExportStep(dir string, usePrefix bool, opts ...ExportOption) *ExportStep {
	s := &ExportStep{dir: dir, usePrefix: usePrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *ExportStep) Name() string {
	return "export"
}

// Do writes the export files.
func (s *ExportStep) Do(_ context.Context, result *model.ScanResult) error {
	if result.Transcription == nil {
		return ErrNoTranscription
	}
	prefix := ""
	if s.usePrefix {
		var ok bool
		if prefix, ok = s.prefixes[result.Source]; !ok {
			prefix = report.PrefixFor(result.Source)
		}
	}
	paths, err := report.WriteExports(s.dir, prefix, result.Transcription, result.RedactedText)
	if err != nil {
		return err
	}
	result.ExportedFiles = append(result.ExportedFiles, paths.Text, paths.JSON)
	return nil
}

// ScanConfig holds configuration for the default scan pipeline.
type ScanConfig struct {
	// Model is the transcription model.
	Model string

	// MaxFileSize is the upload limit in bytes.
	MaxFileSize int64

	// Policy is the redaction policy.
	Policy redact.Policy

	// IgnoreCase enables case-insensitive redaction.
	IgnoreCase bool

	// Overrides changes category severities.
	Overrides model.SeverityOverrides

	// ExportDir receives the export files. Empty disables exports.
	ExportDir string

	// PrefixExports prefixes export names with the audio base name.
	PrefixExports bool

	// ExportPrefixes maps audio paths to distinct export prefixes so that
	// recordings sharing a base name do not overwrite each other's exports.
	ExportPrefixes map[string]string
}

// DefaultPipeline creates the standard scan pipeline:
// validate, transcribe, redact, analyze and, when configured, export.
func DefaultPipeline(client Transcriber, cfg ScanConfig, opts ...Option) *Pipeline {
	p := New(opts...)

	p.AddSteps(
		NewValidateStep(cfg.MaxFileSize),
		NewTranscribeStep(client,
			WithTranscribeModel(cfg.Model),
			WithTranscribeLogger(p.logger),
		),
		NewRedactStep(redact.New(
			redact.WithPolicy(cfg.Policy),
			redact.WithIgnoreCase(cfg.IgnoreCase),
		)),
		NewAnalyzeStep(cfg.Overrides),
	)
	if cfg.ExportDir != "" {
		p.AddStep(NewExportStep(cfg.ExportDir, cfg.PrefixExports,
			WithExportPrefixes(cfg.ExportPrefixes),
		))
	}

	return p
}
