// Package report turns a scan result into the artifacts a reviewer reads:
// the risk list, the speaker diarization sample, terminal/Markdown/JSON
// reports, and the two export files (redacted transcript and full JSON
// transcription).
//
// The line builders (ListRisks, SampleDiarization) are pure functions so the
// same text appears in every output format. Writers implement the Writer
// interface and can be combined with MultiWriter.
package report
