package model

import (
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ScanResult carries the state of one upload through the pipeline.
// Each step reads what earlier steps produced and adds its own output.
type ScanResult struct {
	// ID uniquely identifies the scan.
	ID string `json:"id"`

	// Source is the path of the uploaded audio file.
	Source string `json:"source"`

	// AudioHash is the BLAKE2b-256 fingerprint of the audio file.
	AudioHash string `json:"audio_hash,omitempty"`

	// Model is the transcription model requested.
	Model string `json:"model,omitempty"`

	// DateScanned is when the scan started.
	DateScanned time.Time `json:"date_scanned"`

	// Transcription is the service response. Nil until the transcribe step ran.
	Transcription *TranscriptionResult `json:"transcription,omitempty"`

	// RedactedText is the redacted transcript.
	RedactedText string `json:"redacted_text,omitempty"`

	// Report is the compliance report. Nil until the analyze step ran.
	Report *ComplianceReport `json:"report,omitempty"`

	// ExportedFiles lists the export files written for this scan.
	ExportedFiles []string `json:"exported_files,omitempty"`

	// PerformedSteps lists the pipeline steps that completed.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// TimedOut is true if the scan was cancelled.
	TimedOut bool `json:"timed_out"`

	// Error contains any error that stopped the scan.
	Error error `json:"-"`

	// ErrorMessage is the string representation of Error for serialization.
	ErrorMessage string `json:"error,omitempty"` //nolint:tagliatelle // error is conventional
}

// NewScanResult creates a new scan result for the given audio file.
func NewScanResult(source string) *ScanResult {
	return &ScanResult{
		ID:          uuid.NewString(),
		Source:      source,
		DateScanned: time.Now(),
	}
}

// SourceName returns the base name of the source file.
func (s *ScanResult) SourceName() string {
	return filepath.Base(s.Source)
}

// SetError records err on the result and on its report if one exists.
func (s *ScanResult) SetError(err error) {
	if err == nil {
		return
	}
	s.Error = err
	s.ErrorMessage = err.Error()
	if s.Report != nil {
		s.Report.Error = s.ErrorMessage
	}
}

// EnsureReport returns the compliance report, creating an empty one if the
// analyze step did not run (for example because transcription failed).
func (s *ScanResult) EnsureReport() *ComplianceReport {
	if s.Report != nil {
		return s.Report
	}
	r := NewComplianceReport(s.SourceName())
	r.ScanID = s.ID
	r.AudioHash = s.AudioHash
	r.Model = s.Model
	r.DateScanned = s.DateScanned
	r.TimedOut = s.TimedOut
	r.Error = s.ErrorMessage
	s.Report = r
	return r
}
