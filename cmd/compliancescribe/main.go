// Package main provides the entry point for the ComplianceScribe CLI.
//
// ComplianceScribe uploads call recordings to a speech-to-text service with
// entity detection, then reports the PII found in each call and writes a
// redacted transcript that is safe to share.
//
// Usage:
//
//	compliancescribe scan call.mp3
//	compliancescribe scan --batch 4 calls/*.wav
//	compliancescribe history call.mp3
//
// See --help for all available options.
package main

// main is the entry point for ComplianceScribe.
func main() {
	Execute()
}
