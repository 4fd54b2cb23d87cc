package scribe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"status with message", &Error{Op: "status", StatusCode: 422, Message: "bad model"}, "transcription failed (HTTP 422): bad model"},
		{"status only", &Error{Op: "status", StatusCode: 500}, "transcription failed (HTTP 500)"},
		{"status with read error", &Error{Op: "status", StatusCode: 502, Err: errors.New("unexpected EOF")}, "transcription failed (HTTP 502): reading error body: unexpected EOF"},
		{"wrapped", &Error{Op: "upload", Err: errors.New("connection refused")}, "transcription upload failed: connection refused"},
		{"bare", &Error{Op: "decode"}, "transcription decode failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
			if !strings.HasPrefix(tt.err.Hint(), "Common fixes:") {
				t.Errorf("unexpected hint %q", tt.err.Hint())
			}
		})
	}
}

func TestErrorTimeout(t *testing.T) {
	t.Parallel()

	e := &Error{Op: "upload", Err: fmt.Errorf("post: %w", context.DeadlineExceeded)}
	if !e.Timeout() {
		t.Error("expected Timeout() to be true")
	}
	if (&Error{Op: "status", StatusCode: 500}).Timeout() {
		t.Error("expected Timeout() to be false")
	}
}

func TestAsError(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("scan call.mp3: %w", &Error{Op: "status", StatusCode: 429})
	se, ok := AsError(wrapped)
	if !ok || se.StatusCode != 429 {
		t.Errorf("expected to find *Error, got %v %v", se, ok)
	}
	if _, ok := AsError(errors.New("other")); ok {
		t.Error("expected no *Error")
	}
}
