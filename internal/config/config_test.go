package config

import (
	"bytes"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/atinylittleshell/perflog/internal/errors"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "perflog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse("perflog", nil, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.Iterations)
	assert.Equal(t, time.Second, cfg.Interval)
	assert.Equal(t, "performance_data.db", cfg.DBPath)
	assert.Equal(t, "host", cfg.Probe)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.False(t, cfg.Report)
}

func TestParseFlags(t *testing.T) {
	cfg, err := Parse("perflog", []string{
		"-iterations", "5",
		"-interval", "250ms",
		"-db", "/tmp/perf.db",
		"-probe", "procfs",
		"-log-level", "debug",
		"-report",
		"-tail", "3",
	}, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Iterations)
	assert.Equal(t, 250*time.Millisecond, cfg.Interval)
	assert.Equal(t, "/tmp/perf.db", cfg.DBPath)
	assert.Equal(t, "procfs", cfg.Probe)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.Report)
	assert.Equal(t, 3, cfg.Tail)
}

func TestParsePrecedence(t *testing.T) {
	path := writeConfigFile(t, "iterations: 7\ninterval: 2s\ndb: from-file.db\nprobe: procfs\n")

	t.Setenv("PERFLOG_INTERVAL", "3s")
	t.Setenv("PERFLOG_DB", "from-env.db")

	cfg, err := Parse("perflog", []string{"-config", path, "-db", "from-flag.db"}, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Iterations, "file beats default")
	assert.Equal(t, 3*time.Second, cfg.Interval, "env beats file")
	assert.Equal(t, "from-flag.db", cfg.DBPath, "flag beats env")
	assert.Equal(t, "procfs", cfg.Probe)
	assert.Equal(t, "warn", cfg.LogLevel, "absent keys keep defaults")
	assert.Equal(t, path, cfg.ConfigFile)
}

func TestParseConfigFromEnv(t *testing.T) {
	path := writeConfigFile(t, "iterations: 3\n")
	t.Setenv("PERFLOG_CONFIG", path)

	cfg, err := Parse("perflog", nil, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Iterations)
}

func TestParseIgnoresInvalidEnvValues(t *testing.T) {
	t.Setenv("PERFLOG_ITERATIONS", "many")
	t.Setenv("PERFLOG_INTERVAL", "soon")

	cfg, err := Parse("perflog", nil, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, DefaultIterations, cfg.Iterations)
	assert.Equal(t, DefaultInterval, cfg.Interval)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"zero iterations", []string{"-iterations", "0"}},
		{"negative interval", []string{"-interval", "-1s"}},
		{"empty db", []string{"-db", " "}},
		{"unknown probe", []string{"-probe", "wmi"}},
		{"bad log level", []string{"-log-level", "chatty"}},
		{"negative tail", []string{"-tail", "-1"}},
		{"unknown flag", []string{"-frobnicate"}},
		{"positional args", []string{"extra"}},
		{"missing config file", []string{"-config", "/does/not/exist.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("perflog", tt.args, &bytes.Buffer{})
			require.Error(t, err)
			var cfgErr apperrors.ConfigError
			assert.True(t, errors.As(err, &cfgErr), "expected ConfigError, got %T: %v", err, err)
			assert.Equal(t, apperrors.ExitErrorConfig, apperrors.ExitCode(err))
		})
	}
}

func TestParseMalformedConfigFile(t *testing.T) {
	path := writeConfigFile(t, "iterations: [1, 2\n")

	_, err := Parse("perflog", []string{"-config", path}, &bytes.Buffer{})
	var cfgErr apperrors.ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestParseHelp(t *testing.T) {
	var out bytes.Buffer
	_, err := Parse("perflog", []string{"-h"}, &out)
	assert.ErrorIs(t, err, flag.ErrHelp)
	assert.Contains(t, out.String(), "-iterations")
}

func TestParseVersionSkipsValidation(t *testing.T) {
	cfg, err := Parse("perflog", []string{"-ver", "-iterations", "0"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.True(t, cfg.ShowVersion)
}
