// Package model defines the core data structures used throughout ComplianceScribe.
//
// This package contains the following main types:
//   - TranscriptionResult: The speech-to-text response (text, words, entities)
//   - ComplianceReport: Ranked findings for one uploaded recording
//   - ScanResult: The state carried through the scan pipeline
//   - Severity: The risk level assigned to an entity category
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. The scribe client, redactor, pipeline and report writers all
// use these types.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
