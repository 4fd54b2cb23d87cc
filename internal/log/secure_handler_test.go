package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

// TestSecureHandler_SanitizesSensitiveKeys tests that sensitive keys are masked.
func TestSecureHandler_SanitizesSensitiveKeys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		key      string
		value    string
		wantMask bool
	}{
		{name: "xi-api-key is masked", key: "xi-api-key", value: "abc", wantMask: true},
		{name: "XI-API-KEY (uppercase) is masked", key: "XI-API-KEY", value: "abc", wantMask: true},
		{name: "api_key is masked", key: "api_key", value: "k", wantMask: true},
		{name: "authorization is masked", key: "authorization", value: "Basic x", wantMask: true},
		{name: "proxy password is masked", key: "proxy_password", value: "hunter2", wantMask: true},
		{name: "transcript is masked", key: "transcript", value: "My name is John", wantMask: true},
		{name: "raw_transcript is masked", key: "raw_transcript", value: "My name is John", wantMask: true},
		{name: "entity_text is masked", key: "entity_text", value: "John", wantMask: true},
		{name: "file is not masked", key: "file", value: "call.mp3", wantMask: false},
		{name: "model is not masked", key: "model", value: "scribe_v2", wantMask: false},
		{name: "category is not masked", key: "category", value: "phone_number", wantMask: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := NewSecureLogger(&buf, true)
			logger.Info("test", tt.key, tt.value)

			output := buf.String()
			masked := strings.Contains(output, MaskValue)
			if masked != tt.wantMask {
				t.Errorf("key %q: masked = %v, want %v (output: %s)", tt.key, masked, tt.wantMask, output)
			}
			if tt.wantMask && strings.Contains(output, tt.value) {
				t.Errorf("expected value %q to be hidden, output: %s", tt.value, output)
			}
		})
	}
}

// TestIsSensitiveValue tests value pattern detection.
func TestIsSensitiveValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		value    string
		expected bool
	}{
		{name: "service API key", value: "sk_0123456789abcdef0123456789abcdef0123456789abcdef", expected: true},
		{name: "Bearer token", value: "Bearer abc123xyz", expected: true},
		{name: "long alphanumeric", value: "A1b2C3d4E5f6G7h8I9j0K1l2M3n4O5p6Q7", expected: true},
		{name: "SSN inside a sentence", value: "my ssn is 123-45-6789", expected: true},
		{name: "grouped card number", value: "4111 1111 1111 1111", expected: true},
		{name: "plain card number", value: "4111111111111111", expected: true},
		{name: "file name", value: "call_2024-01-05.mp3", expected: false},
		{name: "short phone", value: "555-1234", expected: false},
		{name: "redacted text", value: "Call [NAME] at [PHONE]", expected: false},
		{name: "URL", value: "https://api.elevenlabs.io/v1/speech-to-text", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := isSensitiveValue(tt.value); got != tt.expected {
				t.Errorf("isSensitiveValue(%q) = %v, want %v", tt.value, got, tt.expected)
			}
		})
	}
}

// TestIsSensitiveKey tests keyword detection, including false positives.
func TestIsSensitiveKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key      string
		expected bool
	}{
		{"user_password", true},
		{"auth_header", true},
		{"openai_api_key", true},
		{"transcript_excerpt", true},
		{"url", false},
		{"source", false},
		{"cache_key", false},
		{"speaker_id", false},
		{"word_count", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Parallel()
			if got := IsSensitiveKey(tt.key); got != tt.expected {
				t.Errorf("IsSensitiveKey(%q) = %v, want %v", tt.key, got, tt.expected)
			}
		})
	}
}

// TestSecureHandler_LogLevels tests verbose and quiet levels.
func TestSecureHandler_LogLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		verbose    bool
		level      slog.Level
		shouldShow bool
	}{
		{"debug shown in verbose mode", true, slog.LevelDebug, true},
		{"debug hidden in quiet mode", false, slog.LevelDebug, false},
		{"info hidden in quiet mode", false, slog.LevelInfo, false},
		{"warn shown in quiet mode", false, slog.LevelWarn, true},
		{"error shown in quiet mode", false, slog.LevelError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := NewSecureLogger(&buf, tt.verbose)

			const msg = "test_unique_message_12345"
			logger.Log(t.Context(), tt.level, msg)

			hasMessage := strings.Contains(buf.String(), msg)
			if hasMessage != tt.shouldShow {
				t.Errorf("shown = %v, want %v (output: %s)", hasMessage, tt.shouldShow, buf.String())
			}
		})
	}
}

// TestSecureHandler_WithAttrs tests that WithAttrs sanitizes attributes.
func TestSecureHandler_WithAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewSecureLogger(&buf, true).With("xi-api-key", "secret123")
	logger.Info("upload")

	output := buf.String()
	if strings.Contains(output, "secret123") {
		t.Errorf("expected api key to be masked, output: %s", output)
	}
	if !strings.Contains(output, MaskValue) {
		t.Errorf("expected mask value in output: %s", output)
	}
}

// TestSecureHandler_WithGroup tests that grouped attributes are sanitized.
func TestSecureHandler_WithGroup(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewSecureLogger(&buf, true).WithGroup("entity")
	logger.Info("detected", "category", "ssn", "entity_text", "123-45-6789")

	output := buf.String()
	if !strings.Contains(output, "ssn") {
		t.Errorf("expected category to be visible, output: %s", output)
	}
	if strings.Contains(output, "123-45-6789") {
		t.Errorf("expected entity text to be masked, output: %s", output)
	}
}

// TestSecureHandler_NestedGroup tests slog.Group values.
func TestSecureHandler_NestedGroup(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewSecureLogger(&buf, true)
	logger.Info("request", slog.Group("headers", "xi-api-key", "k-123", "content-type", "multipart/form-data"))

	output := buf.String()
	if strings.Contains(output, "k-123") {
		t.Errorf("expected nested key to be masked, output: %s", output)
	}
	if !strings.Contains(output, "multipart/form-data") {
		t.Errorf("expected content type to be visible, output: %s", output)
	}
}

// TestNewSecureJSONLogger tests JSON logger creation.
func TestNewSecureJSONLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	NewSecureJSONLogger(&buf, true).Info("test message", "password", "secret")

	output := buf.String()
	if !strings.HasPrefix(strings.TrimSpace(output), "{") {
		t.Errorf("expected JSON format, got: %s", output)
	}
	if strings.Contains(output, `"secret"`) {
		t.Errorf("expected password to be masked, output: %s", output)
	}
}

// TestNewSecureHandler_NilHandler tests that nil handler is handled gracefully.
func TestNewSecureHandler_NilHandler(t *testing.T) {
	t.Parallel()

	handler := NewSecureHandler(nil)
	if handler == nil {
		t.Fatal("expected non-nil handler")
	}
	slog.New(handler).Debug("test message")
}

// TestDiscard tests the no-op logger.
func TestDiscard(t *testing.T) {
	t.Parallel()

	logger := Discard()
	if logger.Enabled(t.Context(), slog.LevelError) {
		t.Error("expected discard logger to be disabled")
	}
}
