package config

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/kevin-cantwell/cqlparser/internal/logging"
)

// Config is the CLI configuration file.
type Config struct {
	Log     Log      `yaml:"log"`
	Parser  Parser   `yaml:"parser"`
	Output  Output   `yaml:"output"`
	Sources []Source `yaml:"sources"`
	// Watch is a cron spec. Empty runs the query once.
	Watch string `yaml:"watch"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

type Parser struct {
	RequireEOF    bool `yaml:"require_eof"`
	RequireFields bool `yaml:"require_fields"`
}

type Output struct {
	Format string `yaml:"format"`
}

type Source struct {
	Name string `yaml:"name"`
	URI  string `yaml:"uri"`
}

const (
	FormatJSON  = "json"
	FormatTable = "table"
)

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Log:    Log{Level: string(logging.LevelInfo), Format: "text"},
		Output: Output{Format: FormatJSON},
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result. Unknown keys
// are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "decode config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that YAML decoding cannot.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(err, "log.level")
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return errors.Errorf("log.format: unknown format %q", c.Log.Format)
	}

	switch c.Output.Format {
	case FormatJSON, FormatTable:
	default:
		return errors.Errorf("output.format: unknown format %q", c.Output.Format)
	}

	seen := make(map[string]bool, len(c.Sources))
	for i, s := range c.Sources {
		if s.Name == "" {
			return errors.Errorf("sources[%d]: name is required", i)
		}
		if seen[s.Name] {
			return errors.Errorf("sources[%d]: duplicate name %q", i, s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}

// LoggingConfig converts the log section for logging.Init.
func (c *Config) LoggingConfig() logging.Config {
	level, _ := logging.ParseLevel(c.Log.Level)
	return logging.Config{
		Level:      level,
		OutputPath: c.Log.Output,
		Format:     c.Log.Format,
	}
}
