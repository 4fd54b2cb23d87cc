// Package config provides configuration structures and utilities for
// ComplianceScribe. It defines the scan options built from CLI flags, the
// optional YAML configuration file, dotenv credential loading, and the XDG
// directories used for the history database.
package config
