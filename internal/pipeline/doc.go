// Package pipeline runs the stages of a call scan in sequence.
//
// A scan of one recording is: validate the upload, transcribe it (one
// synchronous request to the speech-to-text service), redact the
// transcript, analyze entities into a compliance report, and optionally
// write the export files. Each stage is a Step that reads and extends a
// model.ScanResult.
//
// The pipeline checks for cancellation between steps and stops on the
// first failure. BatchProcessor runs one pipeline per recording with a
// bounded number of concurrent uploads using errgroup.
package pipeline
