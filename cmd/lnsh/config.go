package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config holds the user settings read from config.yaml.
type Config struct {
	Prompt       string        `yaml:"prompt"`
	HistoryFile  string        `yaml:"history_file"`
	HistorySize  int           `yaml:"history_size"`
	PollInterval time.Duration `yaml:"poll_interval"`
	Async        bool          `yaml:"async"`
	LogLevel     string        `yaml:"log_level"`
}

func defaultConfig() *Config {
	return &Config{
		Prompt:       "$ ",
		HistoryFile:  ".shell_history",
		HistorySize:  1000,
		PollInterval: time.Second,
	}
}

// defaultConfigPath returns $HOME/.config/lnsh/config.yaml, or "" when
// there is no home directory.
func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "lnsh", "config.yaml")
}

// loadConfig reads configuration from a YAML file on top of the
// defaults. A missing file is only an error when required is set.
func loadConfig(path string, required bool) (*Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !required {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Prompt == "" {
		return fmt.Errorf("config field prompt must not be empty")
	}
	if c.HistorySize <= 0 {
		return fmt.Errorf("config field history_size must be positive, got %d", c.HistorySize)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("config field poll_interval must be positive, got %s", c.PollInterval)
	}
	if c.LogLevel != "" {
		if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
			return fmt.Errorf("config field log_level: %w", err)
		}
	}
	return nil
}
