package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dgallion1/schemadoc/internal/render"
)

type Config struct {
	Port string

	// Auth for the HTTP surface; empty disables it
	APIKey string

	// Schema search roots, searched before the embedded library
	SearchPath []string

	// Default output format
	Format string

	// Logging
	LogLevel  string
	LogFormat string

	// Batch builds
	BuildWorkers  int
	WatchDebounce time.Duration
	Targets       []Target

	// HTTP limits
	MaxRequestBytes int64

	// File is the YAML file the configuration was read from, if any.
	// Relative target paths resolve against its directory.
	File string
}

// BaseDir is the directory relative target paths resolve against.
func (c Config) BaseDir() string {
	if c.File == "" {
		return ""
	}
	return filepath.Dir(c.File)
}

// Target is one document produced by a batch build.
type Target struct {
	Package         string   `yaml:"package"`
	File            string   `yaml:"file"`
	Schema          string   `yaml:"schema"`
	Members         []string `yaml:"members"`
	ExcludedMembers []string `yaml:"excluded_members"`
	Format          string   `yaml:"format"`
	Output          string   `yaml:"output"`
}

// Name identifies the target in logs.
func (t Target) Name() string {
	switch {
	case t.Schema != "":
		return t.Schema
	case t.File != "":
		return t.Package + "/" + t.File
	default:
		return t.Package
	}
}

// fileConfig mirrors the YAML configuration file.
type fileConfig struct {
	Port            string   `yaml:"port"`
	APIKey          string   `yaml:"api_key"`
	SearchPath      []string `yaml:"search_path"`
	Format          string   `yaml:"format"`
	LogLevel        string   `yaml:"log_level"`
	LogFormat       string   `yaml:"log_format"`
	BuildWorkers    int      `yaml:"build_workers"`
	WatchDebounce   string   `yaml:"watch_debounce"`
	MaxRequestBytes int64    `yaml:"max_request_bytes"`
	Targets         []Target `yaml:"targets"`
}

// Load builds the configuration from defaults, then the YAML file at path
// (or $SCHEMADOC_CONFIG when path is empty), then environment variables.
func Load(path string) (Config, error) {
	cfg := Config{
		Port:            "8090",
		Format:          string(render.HTML),
		LogLevel:        "info",
		LogFormat:       "json",
		BuildWorkers:    4,
		WatchDebounce:   250 * time.Millisecond,
		MaxRequestBytes: 1 << 20,
	}

	if path == "" {
		path = os.Getenv("SCHEMADOC_CONFIG")
	}
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
		cfg.File = path
	}

	cfg.Port = envOr("PORT", cfg.Port)
	cfg.APIKey = envOr("SCHEMADOC_API_KEY", cfg.APIKey)
	if v := os.Getenv("SCHEMADOC_PATH"); v != "" {
		cfg.SearchPath = filepath.SplitList(v)
	}
	cfg.Format = envOr("SCHEMADOC_FORMAT", cfg.Format)
	cfg.LogLevel = envOr("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = envOr("LOG_FORMAT", cfg.LogFormat)
	cfg.BuildWorkers = envInt("BUILD_WORKERS", cfg.BuildWorkers)
	cfg.WatchDebounce = envDuration("WATCH_DEBOUNCE", cfg.WatchDebounce)
	cfg.MaxRequestBytes = envInt64("MAX_REQUEST_BYTES", cfg.MaxRequestBytes)

	if cfg.BuildWorkers <= 0 {
		cfg.BuildWorkers = 4
	}
	if cfg.WatchDebounce <= 0 {
		cfg.WatchDebounce = 250 * time.Millisecond
	}
	if cfg.MaxRequestBytes <= 0 {
		cfg.MaxRequestBytes = 1 << 20
	}

	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if fc.Port != "" {
		c.Port = fc.Port
	}
	if fc.APIKey != "" {
		c.APIKey = fc.APIKey
	}
	if len(fc.SearchPath) > 0 {
		// Relative roots are resolved against the config file's directory.
		base := filepath.Dir(path)
		c.SearchPath = make([]string, len(fc.SearchPath))
		for i, p := range fc.SearchPath {
			if !filepath.IsAbs(p) {
				p = filepath.Join(base, p)
			}
			c.SearchPath[i] = p
		}
	}
	if fc.Format != "" {
		c.Format = fc.Format
	}
	if fc.LogLevel != "" {
		c.LogLevel = fc.LogLevel
	}
	if fc.LogFormat != "" {
		c.LogFormat = fc.LogFormat
	}
	if fc.BuildWorkers != 0 {
		c.BuildWorkers = fc.BuildWorkers
	}
	if fc.WatchDebounce != "" {
		d, err := time.ParseDuration(fc.WatchDebounce)
		if err != nil {
			return fmt.Errorf("parse config %s: watch_debounce: %w", path, err)
		}
		c.WatchDebounce = d
	}
	if fc.MaxRequestBytes != 0 {
		c.MaxRequestBytes = fc.MaxRequestBytes
	}
	c.Targets = fc.Targets
	return nil
}

func (c Config) Validate() error {
	var errs []error
	if _, err := render.ParseDialect(c.Format); err != nil {
		errs = append(errs, fmt.Errorf("SCHEMADOC_FORMAT: %w", err))
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat))
	}
	// Targets build concurrently; two writing one file would race.
	outputs := make(map[string]int, len(c.Targets))
	for i, t := range c.Targets {
		if err := t.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("targets[%d]: %w", i, err))
			continue
		}
		out := filepath.Clean(t.Output)
		if !filepath.IsAbs(out) {
			out = filepath.Join(c.BaseDir(), out)
		}
		if first, dup := outputs[out]; dup {
			errs = append(errs, fmt.Errorf("targets[%d]: output %s already written by targets[%d]", i, t.Output, first))
			continue
		}
		outputs[out] = i
	}
	return errors.Join(errs...)
}

func (t Target) Validate() error {
	switch {
	case t.Package == "" && t.Schema == "":
		return fmt.Errorf("one of package or schema is required")
	case t.Package != "" && t.Schema != "":
		return fmt.Errorf("package and schema are mutually exclusive")
	case t.File != "" && t.Package == "":
		return fmt.Errorf("file requires package")
	case t.Output == "":
		return fmt.Errorf("output is required")
	}
	if t.Format != "" {
		if _, err := render.ParseDialect(t.Format); err != nil {
			return err
		}
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
