package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is read from the working directory when --config is
// not given. A missing default file is not an error.
const DefaultConfigFile = "codd.yaml"

// Config holds settings read from a codd.yaml file. Command-line flags
// override them.
type Config struct {
	// Sample binds the employee sample relations. Nil keeps each
	// command's default.
	Sample *bool `yaml:"sample,omitempty"`

	// GenKey is the default generated key name for CSV files.
	GenKey string `yaml:"genkey,omitempty"`

	// Load lists files loaded before any given on the command line.
	// Relative paths are resolved against the config file's directory.
	Load []string `yaml:"load,omitempty"`

	// Format is the default output format.
	Format string `yaml:"format,omitempty"`

	// Color forces colored REPL errors on or off.
	Color *bool `yaml:"color,omitempty"`

	// MaxTuples caps intermediate results when positive.
	MaxTuples int `yaml:"max_tuples,omitempty"`
}

// SampleEnabled reports whether sample data should be loaded, falling
// back to def when the config does not say.
func (c *Config) SampleEnabled(def bool) bool {
	if c == nil || c.Sample == nil {
		return def
	}
	return *c.Sample
}

// LoadConfig reads the config file at path, or DefaultConfigFile when
// path is empty.
func LoadConfig(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	base := filepath.Dir(path)
	for i, p := range cfg.Load {
		if !filepath.IsAbs(p) && p != "-" {
			cfg.Load[i] = filepath.Join(base, p)
		}
	}
	return cfg, nil
}

// ParseConfig parses config YAML. Unknown keys are rejected.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.Format != "" && !isValidFormat(cfg.Format) {
		return nil, fmt.Errorf("invalid format %q: must be one of %v", cfg.Format, ValidFormats)
	}
	if cfg.MaxTuples < 0 {
		return nil, fmt.Errorf("max_tuples must be non-negative")
	}
	for i, p := range cfg.Load {
		if p == "" {
			return nil, fmt.Errorf("load[%d]: path is empty", i)
		}
	}
	return &cfg, nil
}
