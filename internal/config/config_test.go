package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"SCHEMADOC_CONFIG", "PORT", "SCHEMADOC_API_KEY", "SCHEMADOC_PATH", "SCHEMADOC_FORMAT",
	"LOG_LEVEL", "LOG_FORMAT", "BUILD_WORKERS", "WATCH_DEBOUNCE", "MAX_REQUEST_BYTES",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schemadoc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "8090", cfg.Port)
	assert.Equal(t, "html", cfg.Format)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 4, cfg.BuildWorkers)
	assert.Equal(t, 250*time.Millisecond, cfg.WatchDebounce)
	assert.Empty(t, cfg.SearchPath)
	assert.Empty(t, cfg.Targets)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
port: "9000"
search_path: [schemas, /abs/root]
format: markdown
log_level: debug
build_workers: 2
watch_debounce: 1s
targets:
  - package: logger
    output: out/logger.html
  - package: logger
    file: base-logger.xml
    members: [base-logger]
    excluded_members: [zconfig.logger.handler]
    format: md
    output: out/base.md
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, []string{filepath.Join(filepath.Dir(path), "schemas"), "/abs/root"}, cfg.SearchPath)
	assert.Equal(t, "markdown", cfg.Format)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 2, cfg.BuildWorkers)
	assert.Equal(t, time.Second, cfg.WatchDebounce)

	require.Len(t, cfg.Targets, 2)
	assert.Equal(t, "logger", cfg.Targets[0].Name())
	assert.Equal(t, Target{
		Package:         "logger",
		File:            "base-logger.xml",
		Members:         []string{"base-logger"},
		ExcludedMembers: []string{"zconfig.logger.handler"},
		Format:          "md",
		Output:          "out/base.md",
	}, cfg.Targets[1])
	assert.Equal(t, "logger/base-logger.xml", cfg.Targets[1].Name())
	assert.Equal(t, path, cfg.File)
	assert.Equal(t, filepath.Dir(path), cfg.BaseDir())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "port: \"9000\"\nformat: markdown\nbuild_workers: 2\n")
	t.Setenv("SCHEMADOC_CONFIG", path)
	t.Setenv("PORT", "7000")
	t.Setenv("BUILD_WORKERS", "8")
	t.Setenv("SCHEMADOC_PATH", "/a"+string(os.PathListSeparator)+"/b")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "7000", cfg.Port)
	assert.Equal(t, "markdown", cfg.Format)
	assert.Equal(t, 8, cfg.BuildWorkers)
	assert.Equal(t, []string{"/a", "/b"}, cfg.SearchPath)
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("BUILD_WORKERS", "many")
	t.Setenv("WATCH_DEBOUNCE", "-1s")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.BuildWorkers)
	assert.Equal(t, 250*time.Millisecond, cfg.WatchDebounce)
}

func TestLoad_FileErrors(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeConfig(t, "port: [unclosed"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "watch_debounce: soon"))
	assert.ErrorContains(t, err, "watch_debounce")
}

func TestValidate(t *testing.T) {
	base := Config{Format: "html", LogFormat: "json"}
	require.NoError(t, base.Validate())

	tests := []struct {
		name string
		mod  func(*Config)
		want string
	}{
		{"format", func(c *Config) { c.Format = "pdf" }, "SCHEMADOC_FORMAT"},
		{"log format", func(c *Config) { c.LogFormat = "xml" }, "LOG_FORMAT"},
		{"target source", func(c *Config) { c.Targets = []Target{{Output: "x"}} }, "one of package or schema"},
		{"target both", func(c *Config) { c.Targets = []Target{{Package: "p", Schema: "s", Output: "x"}} }, "mutually exclusive"},
		{"target file", func(c *Config) { c.Targets = []Target{{Schema: "s", File: "f", Output: "x"}} }, "file requires package"},
		{"target output", func(c *Config) { c.Targets = []Target{{Package: "p"}} }, "output is required"},
		{"target format", func(c *Config) { c.Targets = []Target{{Package: "p", Output: "x", Format: "pdf"}} }, "targets[0]"},
		{"duplicate output", func(c *Config) {
			c.Targets = []Target{{Package: "p", Output: "out/p.html"}, {Package: "q", Output: "out/p.html"}}
		}, "targets[1]: output out/p.html already written by targets[0]"},
		{"duplicate output after clean", func(c *Config) {
			c.File = "/etc/schemadoc/schemadoc.yaml"
			c.Targets = []Target{{Package: "p", Output: "/etc/schemadoc/out/p.md"}, {Package: "q", Output: "./out//p.md"}}
		}, "already written by targets[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mod(&c)
			assert.ErrorContains(t, c.Validate(), tt.want)
		})
	}

	distinct := base
	distinct.Targets = []Target{{Package: "p", Output: "p.html"}, {Package: "p", Format: "md", Output: "p.md"}}
	assert.NoError(t, distinct.Validate())
}
