package config

import (
	"fmt"

	"github.com/nao1215/compliancescribe/internal/model"
)

// Settings holds scan defaults that can be stored in the configuration file.
// Zero values mean "use the built-in default".
type Settings struct {
	// Model overrides the transcription model.
	Model string `yaml:"model,omitempty"`

	// SampleLimit overrides the number of words in the diarization sample.
	SampleLimit int `yaml:"sample_limit,omitempty"`

	// Policy overrides the redaction policy ("longest" or "sequential").
	Policy string `yaml:"policy,omitempty"`

	// IgnoreCase enables case-insensitive redaction.
	IgnoreCase bool `yaml:"ignore_case,omitempty"`

	// ExportDir overrides the directory for export files.
	ExportDir string `yaml:"export_dir,omitempty"`
}

// File represents the structure of the .compliancescribe configuration file.
type File struct {
	// Defaults contains scan settings applied when the matching flag is not set.
	Defaults Settings `yaml:"defaults,omitempty"`

	// Categories maps entity categories to severity names
	// (info, low, medium, high, critical).
	Categories map[string]string `yaml:"categories,omitempty"`
}

// SeverityOverrides converts the category table into model overrides.
// An unknown severity name is reported with ErrInvalidSeverity.
func (f *File) SeverityOverrides() (model.SeverityOverrides, error) {
	overrides := make(model.SeverityOverrides, len(f.Categories))
	for category, name := range f.Categories {
		sev, err := model.ParseSeverity(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %q", ErrInvalidSeverity, category, name)
		}
		overrides[category] = sev
	}
	return overrides, nil
}
