package model

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ComplianceReport is the summarized, human-readable result of one upload.
// It turns the entity list of a transcription into ranked findings.
//
// Design decision: We keep the report separate from TranscriptionResult so
// the raw service response can be exported untouched while the report
// carries our own risk assessment.
type ComplianceReport struct {
	// ScanID uniquely identifies this scan.
	ScanID string `json:"scan_id"`

	// Source is the uploaded audio file name.
	Source string `json:"source"`

	// AudioHash is the BLAKE2b-256 fingerprint of the audio file.
	AudioHash string `json:"audio_hash,omitempty"`

	// DateScanned is when the scan was performed.
	DateScanned time.Time `json:"date_scanned"`

	// Model is the transcription model used.
	Model string `json:"model,omitempty"`

	// Language is the language detected by the service.
	Language string `json:"language,omitempty"`

	// === Transcript Statistics ===

	// WordCount is the number of spoken words.
	WordCount int `json:"word_count"`

	// Speakers lists distinct speaker ids in order of appearance.
	Speakers []string `json:"speakers,omitempty"`

	// DurationSeconds is the end time of the last word.
	DurationSeconds float64 `json:"duration_seconds"`

	// === Severity Summary ===

	CriticalCount int `json:"critical_count"`
	HighCount     int `json:"high_count"`
	MediumCount   int `json:"medium_count"`
	LowCount      int `json:"low_count"`
	InfoCount     int `json:"info_count"`

	// === Findings ===

	// Findings contains one entry per detected entity, in input order.
	Findings []Finding `json:"findings,omitempty"`

	// RedactedText is the transcript with entities replaced by tags.
	RedactedText string `json:"redacted_text,omitempty"`

	// TimedOut indicates the scan was cancelled before completion.
	TimedOut bool `json:"timed_out"`

	// Error contains the error message if the scan failed.
	Error string `json:"error,omitempty"`
}

// Finding represents a single detected entity in the compliance report.
type Finding struct {
	// Category is the entity label as reported by the service.
	Category string `json:"category"`

	// Severity is the risk level.
	Severity Severity `json:"severity"`

	// SeverityText is the human-readable severity.
	SeverityText string `json:"severity_text"`

	// Title is a display name derived from the category.
	Title string `json:"title"`

	// Impact explains the compliance implications of this finding.
	Impact string `json:"impact,omitempty"`

	// Recommendation provides guidance on how to address this finding.
	Recommendation string `json:"recommendation,omitempty"`

	// Value is the matched text.
	Value string `json:"value"`

	// Start is the approximate position in the recording in seconds.
	Start float64 `json:"start"`
}

// Timestamp returns the finding position formatted with one decimal place.
func (f Finding) Timestamp() string {
	return fmt.Sprintf("~%.1fs", f.Start)
}

// NewComplianceReport creates an empty report for the given source.
func NewComplianceReport(source string) *ComplianceReport {
	return &ComplianceReport{
		Source:      source,
		DateScanned: time.Now(),
		Findings:    make([]Finding, 0),
	}
}

// AddTranscription fills statistics and findings from a transcription.
// Findings keep the entity order; overrides may be nil.
func (r *ComplianceReport) AddTranscription(t *TranscriptionResult, overrides SeverityOverrides) {
	r.Language = t.LanguageCode
	r.WordCount = t.WordCount()
	r.Speakers = t.Speakers()
	r.DurationSeconds = t.Duration()

	for _, e := range t.Entities {
		r.AddFinding(e, overrides.Lookup(e.Category))
	}
}

// AddFinding appends a finding for the entity and updates the counts.
func (r *ComplianceReport) AddFinding(e Entity, info CategoryInfo) {
	r.Findings = append(r.Findings, Finding{
		Category:       e.Category,
		Severity:       info.Severity,
		SeverityText:   info.Severity.String(),
		Title:          CategoryTitle(e.Category),
		Impact:         info.Impact,
		Recommendation: info.Recommendation,
		Value:          e.Text,
		Start:          e.Start,
	})

	switch info.Severity {
	case SeverityCritical:
		r.CriticalCount++
	case SeverityHigh:
		r.HighCount++
	case SeverityMedium:
		r.MediumCount++
	case SeverityLow:
		r.LowCount++
	case SeverityInfo:
		r.InfoCount++
	}
}

// TotalFindings returns the total number of findings.
func (r *ComplianceReport) TotalFindings() int {
	return len(r.Findings)
}

// HasFindings returns true if there are any findings.
func (r *ComplianceReport) HasFindings() bool {
	return len(r.Findings) > 0
}

// GetFindingsBySeverity returns findings filtered by severity.
func (r *ComplianceReport) GetFindingsBySeverity(severity Severity) []Finding {
	var result []Finding
	for _, f := range r.Findings {
		if f.Severity == severity {
			result = append(result, f)
		}
	}
	return result
}

// HighestSeverity returns the most severe finding level, or SeverityInfo
// if there are no findings.
func (r *ComplianceReport) HighestSeverity() Severity {
	highest := SeverityInfo
	for _, f := range r.Findings {
		if f.Severity > highest {
			highest = f.Severity
		}
	}
	return highest
}

// RiskSummary returns finding counts keyed by lower-case severity name.
func (r *ComplianceReport) RiskSummary() map[string]int {
	return map[string]int{
		"critical": r.CriticalCount,
		"high":     r.HighCount,
		"medium":   r.MediumCount,
		"low":      r.LowCount,
		"info":     r.InfoCount,
	}
}

// categoryTitles holds display names that title casing gets wrong.
var categoryTitles = map[string]string{
	"ssn":           "SSN",
	"cvv":           "CVV",
	"ip_address":    "IP Address",
	"date_of_birth": "Date of Birth",
}

// CategoryTitle returns a display name for an entity category,
// e.g. "credit_card" becomes "Credit Card".
func CategoryTitle(category string) string {
	normalized := NormalizeCategory(category)
	if title, ok := categoryTitles[normalized]; ok {
		return title
	}
	return cases.Title(language.English).String(strings.ReplaceAll(normalized, "_", " "))
}
