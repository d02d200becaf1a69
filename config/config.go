package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"logsweep/internal/domain"
)

// FileName is the config file looked up in the working directory.
const FileName = "logsweep.yaml"

// Config holds all configuration for logsweep.
type Config struct {
	Sweep    SweepConfig    `yaml:"sweep"`
	Logging  LoggingConfig  `yaml:"logging"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// SweepConfig controls which files are compressed.
type SweepConfig struct {
	Days             int      `yaml:"days"`
	Recursive        bool     `yaml:"recursive"`
	DryRun           bool     `yaml:"dry_run"`
	Suffix           string   `yaml:"suffix"`
	CompressionLevel int      `yaml:"compression_level"`  // 0 = gzip default, else 1-9
	Includes         []string `yaml:"includes,omitempty"` // empty = every file
	Excludes         []string `yaml:"excludes,omitempty"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
	File   string `yaml:"file"`   // appended to in addition to stderr
}

// ScheduleConfig holds periodic run configuration.
type ScheduleConfig struct {
	Cron        string `yaml:"cron"`
	WatchConfig bool   `yaml:"watch_config"`
}

// MetricsConfig holds metrics output configuration.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"` // node_exporter textfile collector path
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Sweep: SweepConfig{
			Days:   5,
			Suffix: ".gz",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// Find returns the config file path for dir, or "" when there is none.
func Find(dir string) string {
	for _, path := range []string{
		filepath.Join(dir, FileName),
		filepath.Join(dir, ".logsweep", "config.yaml"),
	} {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// LoadFromDir loads configuration from a directory (looks for logsweep.yaml).
func LoadFromDir(dir string) (*Config, error) {
	if path := Find(dir); path != "" {
		return Load(path)
	}
	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Sweep.Days < 0 {
		errs = append(errs, fmt.Errorf("sweep.days must not be negative, got %d", c.Sweep.Days))
	}
	if c.Sweep.Days > domain.MaxDays {
		errs = append(errs, fmt.Errorf("sweep.days must be at most %d, got %d", domain.MaxDays, c.Sweep.Days))
	}
	if c.Sweep.Suffix == "" || strings.ContainsAny(c.Sweep.Suffix, `/\`) {
		errs = append(errs, fmt.Errorf("sweep.suffix %q must be a non-empty file name suffix", c.Sweep.Suffix))
	}
	if c.Sweep.CompressionLevel < 0 || c.Sweep.CompressionLevel > 9 {
		errs = append(errs, fmt.Errorf("sweep.compression_level must be 0-9, got %d", c.Sweep.CompressionLevel))
	}
	for _, pattern := range append(append([]string{}, c.Sweep.Includes...), c.Sweep.Excludes...) {
		if !doublestar.ValidatePattern(pattern) {
			errs = append(errs, fmt.Errorf("invalid glob pattern %q", pattern))
		}
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown logging.level %q", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown logging.format %q", c.Logging.Format))
	}

	if c.Schedule.Cron != "" {
		if _, err := cron.ParseStandard(c.Schedule.Cron); err != nil {
			errs = append(errs, fmt.Errorf("invalid schedule.cron %q: %w", c.Schedule.Cron, err))
		}
	}

	return errors.Join(errs...)
}
