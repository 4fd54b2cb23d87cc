package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and allow callers to use
// errors.Is() while still providing human-readable messages.
var (
	// ErrNoTarget is returned when no audio file is specified.
	ErrNoTarget = errors.New("no target specified: provide one or more audio files")

	// ErrNoAPIKey is returned when neither --api-key nor ELEVENLABS_API_KEY is set.
	ErrNoAPIKey = errors.New("no API key: use --api-key or set " + APIKeyEnv)

	// ErrNoModel is returned when the transcription model is empty.
	ErrNoModel = errors.New("no transcription model specified")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidSampleLimit is returned when the diarization sample limit is negative.
	ErrInvalidSampleLimit = errors.New("invalid sample limit: must be non-negative")

	// ErrInvalidMaxFileSize is returned when the maximum file size is not positive.
	ErrInvalidMaxFileSize = errors.New("invalid max file size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidPolicy is returned for an unknown redaction policy.
	ErrInvalidPolicy = errors.New("invalid redaction policy: must be 'longest' or 'sequential'")

	// ErrInvalidProxyAddress is returned when the proxy is not in host:port format.
	ErrInvalidProxyAddress = errors.New("invalid proxy address: must be host:port")

	// ErrInvalidSeverity is returned when the configuration file assigns an
	// unknown severity to a category.
	ErrInvalidSeverity = errors.New("invalid category severity")
)
