// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the nodecfg tool settings: which namespace to
// dispatch in, where the defaults file lives, logging, the run journal,
// metrics and tracing.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tombee/nodecfg/internal/log"
	nodeerrors "github.com/tombee/nodecfg/pkg/errors"
)

// DefaultModule is the namespace of the built-in sections.
const DefaultModule = "nodecfg.defaults"

var (
	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("config: invalid configuration")
)

// Config is the complete nodecfg settings file.
type Config struct {
	// Module is the section namespace targets are resolved in.
	// Environment: NODECFG_MODULE
	Module string `yaml:"module"`

	// ConfigFile is the defaults file handed to sections. Empty means the
	// sections' own default.
	// Environment: NODECFG_CONFIG_FILE
	ConfigFile string `yaml:"config_file,omitempty"`

	// StopOnFailure skips the remaining steps once one fails.
	// Environment: NODECFG_STOP_ON_FAILURE
	StopOnFailure bool `yaml:"stop_on_failure"`

	Log     LogConfig     `yaml:"log"`
	History HistoryConfig `yaml:"history"`
	Metrics MetricsConfig `yaml:"metrics"`
	Trace   TraceConfig   `yaml:"trace"`

	// Warnings lists settings Load had to adjust. Not read from the file.
	Warnings []string `yaml:"-"`
}

// LogConfig configures the slog logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error. Default: warn
	Level string `yaml:"level"`

	// Format is text or json. Default: text
	Format string `yaml:"format"`

	AddSource bool `yaml:"add_source"`
}

// HistoryConfig configures the run journal.
type HistoryConfig struct {
	// Enabled records every non-dry run. Default: true
	// Environment: NODECFG_HISTORY_ENABLED
	Enabled bool `yaml:"enabled"`

	// Path is the SQLite database file.
	// Environment: NODECFG_HISTORY_PATH
	// Default: $XDG_DATA_HOME/nodecfg/history.db
	Path string `yaml:"path,omitempty"`
}

// MetricsConfig configures the prometheus textfile output.
type MetricsConfig struct {
	// Textfile is written after each run when set, for the node_exporter
	// textfile collector.
	// Environment: NODECFG_METRICS_TEXTFILE
	Textfile string `yaml:"textfile,omitempty"`
}

// TraceConfig configures span export.
type TraceConfig struct {
	// Output is a file spans are appended to, or "-" for stderr.
	// Environment: NODECFG_TRACE_OUTPUT
	Output string `yaml:"output,omitempty"`

	PrettyPrint bool `yaml:"pretty_print"`
}

// Default returns the settings used when no file is present.
func Default() *Config {
	return &Config{
		Module: DefaultModule,
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    defaultHistoryPath(),
		},
	}
}

// Load reads settings from path, applies defaults and environment
// overrides, then validates. An empty path means the default location,
// which may be absent.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		var err error
		if path, err = ConfigPath(); err != nil {
			path = ""
		}
	}

	if path != "" {
		if err := cfg.loadFromFile(path); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return nil, &nodeerrors.ConfigError{
					Key:    "config_file",
					Reason: fmt.Sprintf("failed to load from %s", path),
					Cause:  err,
				}
			}
		}
	}

	cfg.applyDefaults()
	cfg.loadFromEnv()

	if cfg.History.Enabled && cfg.History.Path == "" {
		cfg.History.Enabled = false
		cfg.Warnings = append(cfg.Warnings, "run history disabled: no data directory (set HOME, XDG_DATA_HOME or NODECFG_HISTORY_PATH)")
	}

	if err := cfg.Validate(); err != nil {
		return nil, &nodeerrors.ConfigError{
			Key:    "validation",
			Reason: "configuration validation failed",
			Cause:  err,
		}
	}
	return cfg, nil
}

// applyDefaults fills zero values left by a partial file.
func (c *Config) applyDefaults() {
	if c.Module == "" {
		c.Module = DefaultModule
	}
	if c.Log.Level == "" {
		c.Log.Level = "warn"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.History.Path == "" {
		c.History.Path = defaultHistoryPath()
	}
}

func (c *Config) loadFromFile(path string) error {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

func (c *Config) loadFromEnv() {
	if val := os.Getenv("NODECFG_MODULE"); val != "" {
		c.Module = val
	}
	if val := os.Getenv("NODECFG_CONFIG_FILE"); val != "" {
		c.ConfigFile = val
	}
	if val := os.Getenv("NODECFG_STOP_ON_FAILURE"); val != "" {
		c.StopOnFailure = parseBool(val)
	}

	logCfg := c.LoggerConfig()
	logCfg.ApplyEnv()
	c.Log.Level = logCfg.Level
	c.Log.Format = string(logCfg.Format)
	c.Log.AddSource = logCfg.AddSource

	if val := os.Getenv("NODECFG_HISTORY_ENABLED"); val != "" {
		c.History.Enabled = parseBool(val)
	}
	if val := os.Getenv("NODECFG_HISTORY_PATH"); val != "" {
		c.History.Path = val
	}
	if val := os.Getenv("NODECFG_METRICS_TEXTFILE"); val != "" {
		c.Metrics.Textfile = val
	}
	if val := os.Getenv("NODECFG_TRACE_OUTPUT"); val != "" {
		c.Trace.Output = val
	}
}

// Validate checks the settings for consistency.
func (c *Config) Validate() error {
	var errs []string

	if c.Module == "" {
		errs = append(errs, "module is required")
	}
	if !log.ValidLevel(c.Log.Level) {
		errs = append(errs, fmt.Sprintf("log.level must be one of debug, info, warn, error (got %q)", c.Log.Level))
	}
	if c.Log.Format != string(log.FormatText) && c.Log.Format != string(log.FormatJSON) {
		errs = append(errs, fmt.Sprintf("log.format must be text or json (got %q)", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(errs, "; "))
	}
	return nil
}

// LoggerConfig converts the log settings into a logger configuration
// writing to stderr.
func (c *Config) LoggerConfig() *log.Config {
	cfg := log.DefaultConfig()
	cfg.Level = c.Log.Level
	cfg.Format = log.Format(c.Log.Format)
	cfg.AddSource = c.Log.AddSource
	return cfg
}

func parseBool(val string) bool {
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func defaultHistoryPath() string {
	dir, err := DataDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "history.db")
}
