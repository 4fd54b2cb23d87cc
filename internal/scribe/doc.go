// Package scribe implements the client for the speech-to-text service that
// transcribes a call recording, assigns speakers, timestamps every word and
// detects sensitive entities in a single request.
//
// The client is constructed explicitly with its credential; there is no
// package-level state. All failures are reported as *Error so the CLI can
// print one set of troubleshooting hints. The client never retries: a failed
// upload is reported and the next recording is processed.
//
// # Usage
//
//	client, err := scribe.NewClient(apiKey,
//	    scribe.WithModel("scribe_v2"),
//	    scribe.WithTimeout(10*time.Minute),
//	)
//	result, err := client.Transcribe(ctx, scribe.Request{Path: "call.mp3"})
package scribe
