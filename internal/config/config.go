package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents preflight configuration options.
type Config struct {
	// MaxWorkers is the maximum number of concurrent tasks per group.
	MaxWorkers int `yaml:"max_workers"`

	// ConfidenceThreshold is the minimum reflection score at which
	// execution proceeds.
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`

	// ParallelizeThreshold is the task count at which parallel execution
	// is preferred over sequential.
	ParallelizeThreshold int `yaml:"parallelize_threshold"`

	// MemoryDir holds the mistake memory and reflection log.
	MemoryDir string `yaml:"memory_dir"`

	// HistoryDB is the path to the execution-history database.
	HistoryDB string `yaml:"history_db"`

	// LogLevel sets logging verbosity (trace, debug, info, warn, error).
	LogLevel string `yaml:"log_level"`

	// AutoCorrect enables failure learning after execution.
	AutoCorrect bool `yaml:"auto_correct"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		MaxWorkers:           10,
		ConfidenceThreshold:  0.70,
		ParallelizeThreshold: 3,
		MemoryDir:            ".preflight/memory",
		HistoryDB:            ".preflight/history.db",
		LogLevel:             "info",
		AutoCorrect:          true,
	}
}

// LoadConfig loads configuration from the given file path, merging file
// values over defaults. A missing file returns defaults without error; a
// malformed file is an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Decode into a raw map first so absent keys keep their defaults.
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if _, ok := raw["max_workers"]; ok {
		cfg.MaxWorkers = fileCfg.MaxWorkers
	}
	if _, ok := raw["confidence_threshold"]; ok {
		cfg.ConfidenceThreshold = fileCfg.ConfidenceThreshold
	}
	if _, ok := raw["parallelize_threshold"]; ok {
		cfg.ParallelizeThreshold = fileCfg.ParallelizeThreshold
	}
	if _, ok := raw["memory_dir"]; ok {
		cfg.MemoryDir = fileCfg.MemoryDir
	}
	if _, ok := raw["history_db"]; ok {
		cfg.HistoryDB = fileCfg.HistoryDB
	}
	if _, ok := raw["log_level"]; ok {
		cfg.LogLevel = fileCfg.LogLevel
	}
	if _, ok := raw["auto_correct"]; ok {
		cfg.AutoCorrect = fileCfg.AutoCorrect
	}

	return cfg, nil
}

// LoadConfigFromDir loads .preflight/config.yaml from the given directory.
// A missing directory or file returns defaults without error.
func LoadConfigFromDir(dir string) (*Config, error) {
	return LoadConfig(filepath.Join(dir, ".preflight", "config.yaml"))
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	if c.MaxWorkers <= 0 {
		return fmt.Errorf("max_workers must be > 0, got %d", c.MaxWorkers)
	}
	if c.ConfidenceThreshold <= 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence_threshold must be in (0, 1], got %v", c.ConfidenceThreshold)
	}
	if c.ParallelizeThreshold < 1 {
		return fmt.Errorf("parallelize_threshold must be >= 1, got %d", c.ParallelizeThreshold)
	}
	if c.MemoryDir == "" {
		return fmt.Errorf("memory_dir cannot be empty")
	}
	if c.HistoryDB == "" {
		return fmt.Errorf("history_db cannot be empty")
	}

	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	return nil
}
