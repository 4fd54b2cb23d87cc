package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nao1215/compliancescribe/internal/model"
)

// TestNewConfig verifies that NewConfig returns a Config with all expected default values.
// Changes to defaults must be intentional, so each one is pinned here.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default BaseURL points at the service", func(t *testing.T) {
		t.Parallel()
		if cfg.BaseURL != "https://api.elevenlabs.io" {
			t.Errorf("expected BaseURL to be 'https://api.elevenlabs.io', got '%s'", cfg.BaseURL)
		}
	})

	t.Run("default Model is scribe_v2", func(t *testing.T) {
		t.Parallel()
		if cfg.Model != "scribe_v2" {
			t.Errorf("expected Model to be 'scribe_v2', got '%s'", cfg.Model)
		}
	})

	t.Run("default Timeout is 10 minutes", func(t *testing.T) {
		t.Parallel()
		if cfg.Timeout != 10*time.Minute {
			t.Errorf("expected Timeout to be 10m, got %v", cfg.Timeout)
		}
	})

	t.Run("default SampleLimit is 15", func(t *testing.T) {
		t.Parallel()
		if cfg.SampleLimit != 15 {
			t.Errorf("expected SampleLimit to be 15, got %d", cfg.SampleLimit)
		}
	})

	t.Run("default Policy is longest", func(t *testing.T) {
		t.Parallel()
		if cfg.Policy != "longest" {
			t.Errorf("expected Policy to be 'longest', got '%s'", cfg.Policy)
		}
	})

	t.Run("default BatchSize is 2", func(t *testing.T) {
		t.Parallel()
		if cfg.BatchSize != 2 {
			t.Errorf("expected BatchSize to be 2, got %d", cfg.BatchSize)
		}
	})

	t.Run("default ExportDir is the working directory", func(t *testing.T) {
		t.Parallel()
		if cfg.ExportDir != "." {
			t.Errorf("expected ExportDir to be '.', got '%s'", cfg.ExportDir)
		}
	})

	t.Run("default APIKey is empty", func(t *testing.T) {
		t.Parallel()
		if cfg.APIKey != "" {
			t.Error("expected APIKey to be empty")
		}
	})
}

// TestConfigValidate tests the Validate method with various configurations.
// Each test case is designed to test one specific validation rule.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	// validConfig returns a minimal valid configuration.
	validConfig := func() *Config {
		cfg := NewConfig()
		cfg.Targets = []string{"call.mp3"}
		cfg.APIKey = "test-key"
		return cfg
	}

	t.Run("valid config returns nil", func(t *testing.T) {
		t.Parallel()
		if err := validConfig().Validate(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("multiple targets is valid", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.Targets = []string{"a.mp3", "b.wav", "c.m4a"}

		if err := cfg.Validate(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"nil targets", func(c *Config) { c.Targets = nil }, ErrNoTarget},
		{"empty api key", func(c *Config) { c.APIKey = "" }, ErrNoAPIKey},
		{"empty model", func(c *Config) { c.Model = "" }, ErrNoModel},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, ErrInvalidTimeout},
		{"negative timeout", func(c *Config) { c.Timeout = -time.Second }, ErrInvalidTimeout},
		{"zero batch size", func(c *Config) { c.BatchSize = 0 }, ErrInvalidBatchSize},
		{"negative sample limit", func(c *Config) { c.SampleLimit = -1 }, ErrInvalidSampleLimit},
		{"zero max file size", func(c *Config) { c.MaxFileSize = 0 }, ErrInvalidMaxFileSize},
		{"json and markdown", func(c *Config) { c.JSONReport, c.MarkdownReport = true, true }, ErrConflictingReportFormats},
		{"unknown policy", func(c *Config) { c.Policy = "greedy" }, ErrInvalidPolicy},
		{"proxy without port", func(c *Config) { c.ProxyAddress = "localhost" }, ErrInvalidProxyAddress},
	}

	for _, tt := range tests {
		t.Run(tt.name+" is rejected", func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.modify(cfg)

			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	t.Run("zero sample limit is valid", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.SampleLimit = 0

		if err := cfg.Validate(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("sequential policy is valid", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.Policy = "sequential"

		if err := cfg.Validate(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})
}

// TestIsValidProxyAddress tests host:port validation.
func TestIsValidProxyAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		address string
		want    bool
	}{
		{"127.0.0.1:1080", true},
		{"proxy.internal:9050", true},
		{"[::1]:1080", true},
		{"127.0.0.1", false},
		{":1080", false},
		{"127.0.0.1:", false},
		{"127.0.0.1:0", false},
		{"127.0.0.1:65536", false},
		{"127.0.0.1:http", false},
	}

	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			t.Parallel()
			if got := IsValidProxyAddress(tt.address); got != tt.want {
				t.Errorf("IsValidProxyAddress(%q) = %v, want %v", tt.address, got, tt.want)
			}
		})
	}
}

// TestLoadConfigFile tests the LoadConfigFile function.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfigFile("/nonexistent/path/.compliancescribe")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
		if cfg != nil {
			t.Error("expected nil config when file not found")
		}
	})

	t.Run("loads valid YAML config", func(t *testing.T) {
		t.Parallel()
		configPath := filepath.Join(t.TempDir(), ".compliancescribe")

		content := `defaults:
  model: scribe_v1
  sample_limit: 30
  policy: sequential
  ignore_case: true
  export_dir: out
categories:
  name: high
  location: info
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Defaults.Model != "scribe_v1" {
			t.Errorf("expected model scribe_v1, got %q", cfg.Defaults.Model)
		}
		if cfg.Defaults.SampleLimit != 30 {
			t.Errorf("expected sample limit 30, got %d", cfg.Defaults.SampleLimit)
		}
		if cfg.Defaults.Policy != "sequential" {
			t.Errorf("expected policy sequential, got %q", cfg.Defaults.Policy)
		}
		if !cfg.Defaults.IgnoreCase {
			t.Error("expected ignore_case to be true")
		}
		if cfg.Defaults.ExportDir != "out" {
			t.Errorf("expected export dir out, got %q", cfg.Defaults.ExportDir)
		}
		if cfg.Categories["name"] != "high" {
			t.Errorf("expected name override high, got %q", cfg.Categories["name"])
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()
		configPath := filepath.Join(t.TempDir(), ".compliancescribe")

		if err := os.WriteFile(configPath, []byte(`invalid: yaml: content: [}`), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfigFile(configPath); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})

	t.Run("initializes nil Categories map", func(t *testing.T) {
		t.Parallel()
		configPath := filepath.Join(t.TempDir(), ".compliancescribe")

		if err := os.WriteFile(configPath, []byte("defaults:\n  sample_limit: 5\n"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Categories == nil {
			t.Error("expected Categories map to be initialized")
		}
	})
}

// TestFileSeverityOverrides tests conversion of the categories table.
func TestFileSeverityOverrides(t *testing.T) {
	t.Parallel()

	t.Run("parses severity names", func(t *testing.T) {
		t.Parallel()
		f := &File{Categories: map[string]string{"name": "HIGH", "date": "critical"}}

		overrides, err := f.SeverityOverrides()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if overrides["name"] != model.SeverityHigh {
			t.Errorf("expected HIGH for name, got %v", overrides["name"])
		}
		if overrides.Lookup("date").Severity != model.SeverityCritical {
			t.Errorf("expected CRITICAL for date")
		}
	})

	t.Run("rejects unknown severity", func(t *testing.T) {
		t.Parallel()
		f := &File{Categories: map[string]string{"name": "urgent"}}

		if _, err := f.SeverityOverrides(); !errors.Is(err, ErrInvalidSeverity) {
			t.Errorf("expected ErrInvalidSeverity, got %v", err)
		}
	})

	t.Run("empty table yields empty overrides", func(t *testing.T) {
		t.Parallel()
		f := &File{}

		overrides, err := f.SeverityOverrides()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(overrides) != 0 {
			t.Errorf("expected no overrides, got %d", len(overrides))
		}
	})
}

// TestFindConfigFile tests the FindConfigFile function.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns explicit path if exists", func(t *testing.T) {
		t.Parallel()
		configPath := filepath.Join(t.TempDir(), "custom.yaml")

		if err := os.WriteFile(configPath, []byte("defaults: {}"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if result := FindConfigFile(configPath); result != configPath {
			t.Errorf("expected %q, got %q", configPath, result)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		t.Parallel()
		if result := FindConfigFile("/nonexistent/path/config.yaml"); result != "" {
			t.Errorf("expected empty string, got %q", result)
		}
	})
}

// TestLoadDotEnv tests dotenv loading. Not parallel: it mutates the environment.
func TestLoadDotEnv(t *testing.T) {
	t.Run("loads key from file", func(t *testing.T) {
		t.Setenv(APIKeyEnv, "")
		os.Unsetenv(APIKeyEnv) //nolint:errcheck // restored by t.Setenv

		envPath := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(envPath, []byte(APIKeyEnv+"=from-file\n"), 0600); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}

		loaded, err := LoadDotEnv(envPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(loaded) != 1 {
			t.Errorf("expected 1 loaded file, got %d", len(loaded))
		}
		if got := APIKeyFromEnv(); got != "from-file" {
			t.Errorf("expected key from file, got %q", got)
		}
	})

	t.Run("does not override existing variable", func(t *testing.T) {
		t.Setenv(APIKeyEnv, "from-env")

		envPath := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(envPath, []byte(APIKeyEnv+"=from-file\n"), 0600); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}

		if _, err := LoadDotEnv(envPath); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := APIKeyFromEnv(); got != "from-env" {
			t.Errorf("expected existing value to win, got %q", got)
		}
	})

	t.Run("skips missing files", func(t *testing.T) {
		loaded, err := LoadDotEnv("", filepath.Join(t.TempDir(), "missing.env"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(loaded) != 0 {
			t.Errorf("expected nothing loaded, got %v", loaded)
		}
	})
}

// TestXDGDirs tests XDG directory functions.
func TestXDGDirs(t *testing.T) {
	t.Parallel()

	if dir := XDGDataDir(); filepath.Base(dir) != AppName {
		t.Errorf("expected XDG data dir to end with %q, got %q", AppName, dir)
	}
	if dir := XDGConfigDir(); filepath.Base(dir) != AppName {
		t.Errorf("expected XDG config dir to end with %q, got %q", AppName, dir)
	}
}
