package scribe

import (
	"context"
	"errors"
	"fmt"
)

// Hint is the troubleshooting text shown for every failed transcription.
const Hint = "Common fixes: Check API key, file size (< few minutes for free tier), or try shorter audio."

// ErrNoAudio is returned when a Request has neither a path nor a reader.
var ErrNoAudio = errors.New("no audio provided")

// Error is the single error type returned by Client.Transcribe.
// Transport failures, non-2xx responses and undecodable bodies all map to it.
type Error struct {
	// Op is the failed stage: "open", "upload", "status" or "decode".
	Op string
	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int
	// Message is the service's error detail when one was returned.
	Message string
	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.StatusCode > 0 && e.Message != "":
		return fmt.Sprintf("transcription failed (HTTP %d): %s", e.StatusCode, e.Message)
	case e.StatusCode > 0 && e.Err != nil:
		return fmt.Sprintf("transcription failed (HTTP %d): reading error body: %v", e.StatusCode, e.Err)
	case e.StatusCode > 0:
		return fmt.Sprintf("transcription failed (HTTP %d)", e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("transcription %s failed: %v", e.Op, e.Err)
	default:
		return "transcription " + e.Op + " failed"
	}
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Hint returns static troubleshooting guidance.
func (e *Error) Hint() string {
	return Hint
}

// Timeout reports whether the request was cut short by a deadline.
func (e *Error) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// Unauthorized reports whether the service rejected the credential.
func (e *Error) Unauthorized() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}

// AsError returns the *Error in err's chain, if any.
func AsError(err error) (*Error, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
