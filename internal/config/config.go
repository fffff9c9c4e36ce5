// Package config holds the settings shared by every viewstore command.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/viewstore/internal/datastore"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ErrInvalidConfig is returned by Validate and Load for unusable settings.
var ErrInvalidConfig = errors.New("invalid config")

// Config is resolved once at startup and passed by value afterwards.
type Config struct {
	// DataDir is the datastore root.
	DataDir string `yaml:"data_dir"`

	// JournalPath is the SQLite import journal. Empty disables it.
	JournalPath string `yaml:"journal"`

	// Format is the output format, "text" or "json".
	Format string `yaml:"format"`

	// Verbose enables debug logging.
	Verbose bool `yaml:"verbose"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		DataDir: datastore.DefaultRoot,
		Format:  FormatText,
	}
}

// Load reads a YAML config file over Default. Keys absent from the file
// keep their default; unknown keys are an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: parse %s: %w", ErrInvalidConfig, path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that every setting is usable.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("%w: data_dir is required", ErrInvalidConfig)
	}
	switch c.Format {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("%w: format must be %q or %q, got %q", ErrInvalidConfig, FormatText, FormatJSON, c.Format)
	}
	return nil
}

// Overrides are command-line values that take precedence over the file.
// Nil fields leave the setting unchanged.
type Overrides struct {
	DataDir     *string
	JournalPath *string
	Format      *string
	Verbose     *bool
}

// Apply returns a copy of c with the non-nil overrides applied.
func (c Config) Apply(o Overrides) Config {
	if o.DataDir != nil {
		c.DataDir = *o.DataDir
	}
	if o.JournalPath != nil {
		c.JournalPath = *o.JournalPath
	}
	if o.Format != nil {
		c.Format = *o.Format
	}
	if o.Verbose != nil {
		c.Verbose = *o.Verbose
	}
	return c
}
