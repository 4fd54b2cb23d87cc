package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultBaseURL is the speech-to-text API endpoint root.
	DefaultBaseURL = "https://api.elevenlabs.io"

	// DefaultModel is the transcription model. Scribe v2 is required for
	// entity detection.
	DefaultModel = "scribe_v2"

	// DefaultTimeout bounds a single transcription request. Long calls take
	// several minutes to upload and process.
	DefaultTimeout = 10 * time.Minute

	// DefaultSampleLimit is the number of words shown in the diarization sample.
	DefaultSampleLimit = 15

	// DefaultBatchSize is the number of recordings processed concurrently.
	// Kept low because the service rate-limits concurrent requests per key.
	DefaultBatchSize = 2

	// DefaultMaxFileSize is the largest upload the service accepts.
	DefaultMaxFileSize = 1 << 30 // 1GB

	// DefaultPolicy is the redaction policy name.
	DefaultPolicy = "longest"

	// DefaultRedactedFileName is the static name of the redacted transcript export.
	DefaultRedactedFileName = "redacted_call.txt"

	// DefaultReportFileName is the static name of the JSON report export.
	DefaultReportFileName = "compliance_report.json"

	// APIKeyEnv is the environment variable holding the API key.
	APIKeyEnv = "ELEVENLABS_API_KEY"

	// AppName is the application name used for XDG directory paths.
	AppName = "compliancescribe"
)

// Config holds all configuration options for ComplianceScribe.
// It is populated from CLI flags and the optional configuration file and is
// passed explicitly to every component; no component reads global state.
type Config struct {
	// APIKey is the speech-to-text service credential.
	// It is never logged; see internal/log.
	APIKey string

	// BaseURL is the root URL of the speech-to-text API.
	BaseURL string

	// Model is the transcription model identifier.
	Model string

	// Timeout bounds a single transcription request.
	Timeout time.Duration

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" format
	// used for all requests to the speech-to-text service.
	ProxyAddress string

	// SampleLimit is the number of words shown in the diarization sample.
	// Zero hides the sample.
	SampleLimit int

	// Policy is the redaction policy name ("longest" or "sequential").
	Policy string

	// IgnoreCase enables case-insensitive redaction.
	IgnoreCase bool

	// MaxFileSize is the largest accepted audio file in bytes.
	MaxFileSize int64

	// Verbose enables detailed log output using slog.LevelDebug.
	Verbose bool

	// BatchSize is the number of concurrent uploads when scanning several files.
	BatchSize int

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches the current directory, the home
	// directory and the XDG config directory.
	ConfigFilePath string

	// Settings holds the configuration file contents.
	Settings *File

	// JSONReport selects JSON report output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown report output. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ShowTranscript includes the unredacted transcript in the text report.
	ShowTranscript bool

	// ReportFile is the output file path for the report.
	// When empty, the report is written to stdout.
	ReportFile string

	// ExportDir is the directory receiving redacted_call.txt and
	// compliance_report.json.
	ExportDir string

	// NoExport disables writing the export files.
	NoExport bool

	// Targets is the list of audio files to scan.
	Targets []string

	// DBDir is the directory path for storing the SQLite history database.
	// Defaults to XDG data directory (~/.local/share/compliancescribe on Linux).
	DBDir string

	// SaveToDB indicates whether to save scan results to the database.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		BaseURL:     DefaultBaseURL,
		Model:       DefaultModel,
		Timeout:     DefaultTimeout,
		SampleLimit: DefaultSampleLimit,
		Policy:      DefaultPolicy,
		MaxFileSize: DefaultMaxFileSize,
		BatchSize:   DefaultBatchSize,
		ExportDir:   ".",
	}
}

// XDGDataDir returns the XDG data directory for ComplianceScribe.
// On Linux: ~/.local/share/compliancescribe
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for ComplianceScribe.
// On Linux: ~/.config/compliancescribe
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as a sentinel error.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}

	if c.APIKey == "" {
		return ErrNoAPIKey
	}

	if c.Model == "" {
		return ErrNoModel
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.SampleLimit < 0 {
		return ErrInvalidSampleLimit
	}

	if c.MaxFileSize <= 0 {
		return ErrInvalidMaxFileSize
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.Policy != "longest" && c.Policy != "sequential" {
		return ErrInvalidPolicy
	}

	if c.ProxyAddress != "" && !IsValidProxyAddress(c.ProxyAddress) {
		return ErrInvalidProxyAddress
	}

	return nil
}

// IsValidProxyAddress checks if the address is in "host:port" format with a
// port between 1 and 65535.
func IsValidProxyAddress(address string) bool {
	i := strings.LastIndexByte(address, ':')
	if i <= 0 || i == len(address)-1 {
		return false
	}
	port := address[i+1:]

	portNum := 0
	for _, c := range port {
		if c < '0' || c > '9' {
			return false
		}
		portNum = portNum*10 + int(c-'0')
		if portNum > 65535 {
			return false
		}
	}
	return portNum >= 1
}
