// Package config handles CLI configuration loading.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/canyon-trail/reportscript-sub000/layout"
)

// Config is the root configuration structure.
type Config struct {
	Page    PageConfig    `yaml:"page"`
	Fonts   FontsConfig   `yaml:"fonts"`
	Images  ImagesConfig  `yaml:"images"`
	Logging LoggingConfig `yaml:"logging"`
}

// PageConfig overrides document page settings when non-empty.
type PageConfig struct {
	Size            string `yaml:"size"`
	Layout          string `yaml:"layout"`
	TimestampFormat string `yaml:"timestamp_format"`
}

// FontsConfig points at TTF/OTF files; empty paths use the embedded Go fonts.
type FontsConfig struct {
	Regular string `yaml:"regular"`
	Bold    string `yaml:"bold"`
}

// ImagesConfig holds image cell settings.
type ImagesConfig struct {
	BaseDir string `yaml:"base_dir"` // relative image sources resolve against this
}

// LoggingConfig holds log settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // auto, text, json
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Images: ImagesConfig{BaseDir: "."},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Load loads configuration from a file on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault loads config from path, or returns the default if path is empty.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	switch layout.PageSize(strings.ToLower(c.Page.Size)) {
	case "", layout.Letter, layout.Legal, layout.A4:
	default:
		errs = append(errs, fmt.Errorf("page.size: unknown size %q", c.Page.Size))
	}
	switch layout.Orientation(strings.ToLower(c.Page.Layout)) {
	case "", layout.Landscape, layout.Portrait:
	default:
		errs = append(errs, fmt.Errorf("page.layout: unknown layout %q", c.Page.Layout))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	switch c.Logging.Format {
	case "", "auto", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format: unknown format %q", c.Logging.Format))
	}
	return errors.Join(errs...)
}

// Level parses the configured log level.
func (c *Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if c.Logging.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("logging.level: %w", err)
	}
	return lvl, nil
}

// Apply overrides the page settings of doc with the configured ones.
func (c *Config) Apply(doc *layout.Document) {
	if c.Page.Size != "" {
		doc.PageSize = layout.PageSize(strings.ToLower(c.Page.Size))
	}
	if c.Page.Layout != "" {
		doc.Layout = layout.Orientation(strings.ToLower(c.Page.Layout))
	}
	if c.Page.TimestampFormat != "" {
		doc.TimestampFormat = c.Page.TimestampFormat
	}
}
