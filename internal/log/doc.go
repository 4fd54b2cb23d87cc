// Package log provides structured logging for ComplianceScribe on top of
// log/slog, with automatic masking of credentials and customer data.
//
// A compliance tool must not leak what it is looking for. The SecureHandler
// therefore masks two kinds of attribute before they reach the output:
//   - Credentials such as the speech-to-text API key (xi-api-key), bearer
//     tokens and proxy passwords
//   - Transcript content: raw transcript text, entity values, and any string
//     that looks like a social security or payment card number
//
// Masking applies in verbose mode as well, so debug logs can be attached to
// bug reports.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Debug("uploading audio",
//	    "file", "call.mp3",
//	    "xi-api-key", key, // logged as ***REDACTED***
//	)
package log
