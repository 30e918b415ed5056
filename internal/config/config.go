// Package config loads symdex project configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	symerrors "github.com/Aman-CERP/symdex/internal/errors"
)

// File names searched in the project root, in precedence order.
const (
	FileName    = ".symdex.yaml"
	AltFileName = ".symdex.yml"
)

// DefaultDatabasePath is relative to the project root.
const DefaultDatabasePath = ".symdex/index.db"

// MemoryDatabase selects an in-memory index.
const MemoryDatabase = ":memory:"

// Config represents the complete symdex configuration.
type Config struct {
	Version  int            `yaml:"version"`
	Paths    PathsConfig    `yaml:"paths"`
	Database DatabaseConfig `yaml:"database"`
	Indexing IndexingConfig `yaml:"indexing"`
	Watch    WatchConfig    `yaml:"watch"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// PathsConfig holds include/exclude patterns (gitignore syntax).
type PathsConfig struct {
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
}

// DatabaseConfig locates the index database.
type DatabaseConfig struct {
	// Path is resolved against the project root unless absolute or ":memory:".
	Path string `yaml:"path"`
}

// IndexingConfig tunes the project indexer.
type IndexingConfig struct {
	Workers          int   `yaml:"workers"`
	MaxFileSize      int64 `yaml:"max_file_size"`
	RespectGitignore bool  `yaml:"respect_gitignore"`
	CacheSize        int   `yaml:"cache_size"`
}

// WatchConfig tunes watch mode.
type WatchConfig struct {
	Debounce string `yaml:"debounce"`
}

// LoggingConfig sets the default log level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// NewConfig returns a Config with defaults applied.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Paths: PathsConfig{
			Include: []string{},
			Exclude: []string{},
		},
		Database: DatabaseConfig{
			Path: DefaultDatabasePath,
		},
		Indexing: IndexingConfig{
			Workers:          runtime.NumCPU(),
			MaxFileSize:      10 * 1024 * 1024,
			RespectGitignore: true,
			CacheSize:        1024,
		},
		Watch: WatchConfig{
			Debounce: "200ms",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration for the project rooted at dir.
// Precedence (lowest to highest):
//  1. Hardcoded defaults
//  2. Project config (.symdex.yaml in project root)
//  3. Environment variables (SYMDEX_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, symerrors.ConfigError(fmt.Sprintf("invalid configuration: %v", err), err).
			WithSuggestion("Fix the value in " + FileName + " or the matching SYMDEX_* variable")
	}

	return cfg, nil
}

// FindConfigFile returns the config file in dir, preferring .symdex.yaml
// over .symdex.yml, or "" when there is none.
func FindConfigFile(dir string) string {
	for _, name := range []string{FileName, AltFileName} {
		path := filepath.Join(dir, name)
		if fileExists(path) {
			return path
		}
	}
	return ""
}

// loadFromFile loads the project config file, if any.
func (c *Config) loadFromFile(dir string) error {
	if path := FindConfigFile(dir); path != "" {
		return c.loadYAML(path)
	}
	return nil
}

// loadYAML decodes the file over the current values, so keys absent from
// the file keep their defaults. Unknown keys are rejected.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return symerrors.ConfigError(fmt.Sprintf("failed to read config file %s", path), err).
			WithDetail("path", path)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return symerrors.ConfigError(fmt.Sprintf("failed to parse config file %s: %v", path, err), err).
			WithDetail("path", path)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SYMDEX_DATABASE"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("SYMDEX_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Indexing.Workers = n
		}
	}
	if v := os.Getenv("SYMDEX_MAX_FILE_SIZE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			c.Indexing.MaxFileSize = n
		}
	}
	if v := os.Getenv("SYMDEX_RESPECT_GITIGNORE"); v != "" {
		c.Indexing.RespectGitignore = strings.ToLower(v) == "true" || v == "1"
	}
	if v := os.Getenv("SYMDEX_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Indexing.CacheSize = n
		}
	}
	if v := os.Getenv("SYMDEX_WATCH_DEBOUNCE"); v != "" {
		c.Watch.Debounce = v
	}
	if v := os.Getenv("SYMDEX_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Indexing.Workers < 1 {
		return fmt.Errorf("indexing.workers must be at least 1, got %d", c.Indexing.Workers)
	}
	if c.Indexing.MaxFileSize <= 0 {
		return fmt.Errorf("indexing.max_file_size must be positive, got %d", c.Indexing.MaxFileSize)
	}
	if c.Indexing.CacheSize < 1 {
		return fmt.Errorf("indexing.cache_size must be at least 1, got %d", c.Indexing.CacheSize)
	}
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return fmt.Errorf("watch.debounce: %w", err)
	}
	if d < 0 {
		return fmt.Errorf("watch.debounce must be non-negative, got %s", c.Watch.Debounce)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}

	return nil
}

// DebounceDuration returns the parsed watch debounce.
// Call after Validate; an unparsable value yields zero.
func (c *Config) DebounceDuration() time.Duration {
	d, _ := time.ParseDuration(c.Watch.Debounce)
	return d
}

// DatabasePath resolves the database location against the project root.
func (c *Config) DatabasePath(root string) string {
	p := c.Database.Path
	if p == MemoryDatabase || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// FindProjectRoot walks up from startDir looking for a .git directory or a
// symdex config file. When neither is found the absolute startDir is returned.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	currentDir := absDir
	for {
		if dirExists(filepath.Join(currentDir, ".git")) {
			return currentDir, nil
		}
		if fileExists(filepath.Join(currentDir, FileName)) ||
			fileExists(filepath.Join(currentDir, AltFileName)) {
			return currentDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return absDir, nil
		}
		currentDir = parentDir
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
