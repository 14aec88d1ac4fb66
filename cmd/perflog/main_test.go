package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/atinylittleshell/perflog/internal/errors"
	"github.com/atinylittleshell/perflog/internal/store"
)

func runArgs(t *testing.T, ctx context.Context, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(ctx, append([]string{"perflog"}, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestBuildVersionVariable(t *testing.T) {
	assert.NotEmpty(t, BUILD_VERSION, "BUILD_VERSION should not be empty")
	assert.Equal(t, "dev", BUILD_VERSION, "Default BUILD_VERSION should be 'dev'")
}

func TestVersionFlag(t *testing.T) {
	tests := []struct {
		name         string
		buildVersion string
	}{
		{"default version", "dev"},
		{"release version", "v1.2.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := BUILD_VERSION
			BUILD_VERSION = tt.buildVersion
			defer func() { BUILD_VERSION = original }()

			code, stdout, _ := runArgs(t, context.Background(), "-ver")
			assert.Equal(t, apperrors.ExitSuccess, code)
			assert.Equal(t, tt.buildVersion+"\n", stdout)
		})
	}
}

func TestRunSamplesAndPersists(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), store.DefaultPath)

	code, stdout, _ := runArgs(t, context.Background(), "-iterations", "3", "-interval", "0s", "-db", dbPath)
	require.Equal(t, apperrors.ExitSuccess, code)

	lines := strings.Split(strings.TrimRight(stdout, "\n"), "\n")
	require.Len(t, lines, 4)
	for _, line := range lines[:3] {
		assert.Regexp(t, `^Time: \d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2} \| CPU Usage: -?\d+\.\d{2}% \| RAM Usage: -?\d+\.\d{2}%$`, line)
	}
	assert.Equal(t, "Data saved to database: "+dbPath, lines[3])

	ctx := context.Background()
	s, err := store.Open(ctx, dbPath)
	require.NoError(t, err)
	defer func() {
		_ = s.Close()
	}()
	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestRunUnwritableDatabaseStillCompletes(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "missing", store.DefaultPath)
	logFile := filepath.Join(dir, "perflog.log")

	code, stdout, _ := runArgs(t, context.Background(),
		"-iterations", "2", "-interval", "0s", "-db", dbPath, "-log-file", logFile)
	assert.Equal(t, apperrors.ExitSuccess, code)
	assert.Len(t, strings.Split(strings.TrimRight(stdout, "\n"), "\n"), 3)

	logs, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(logs), dbPath)
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dbPath := filepath.Join(t.TempDir(), store.DefaultPath)
	code, stdout, _ := runArgs(t, ctx, "-db", dbPath)
	assert.Equal(t, apperrors.ExitErrorCanceled, code)
	assert.Equal(t, "Data saved to database: "+dbPath+"\n", stdout)
}

func TestRunReport(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), store.DefaultPath)

	code, stdout, _ := runArgs(t, context.Background(), "-report", "-db", dbPath)
	assert.Equal(t, apperrors.ExitSuccess, code)
	assert.Equal(t, "No samples recorded in "+dbPath+"\n", stdout)

	code, _, _ = runArgs(t, context.Background(), "-iterations", "2", "-interval", "0s", "-db", dbPath)
	require.Equal(t, apperrors.ExitSuccess, code)

	code, stdout, _ = runArgs(t, context.Background(), "-report", "-tail", "1", "-db", dbPath)
	assert.Equal(t, apperrors.ExitSuccess, code)
	assert.Contains(t, stdout, "Samples: 2")
	assert.Contains(t, stdout, "Last 1 samples:")
}

func TestRunConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"help", []string{"-h"}, apperrors.ExitSuccess},
		{"zero iterations", []string{"-iterations", "0"}, apperrors.ExitErrorConfig},
		{"unknown flag", []string{"-bogus"}, apperrors.ExitErrorConfig},
		{"unknown probe", []string{"-probe", "wmi"}, apperrors.ExitErrorConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, _ := runArgs(t, context.Background(), tt.args...)
			assert.Equal(t, tt.want, code)
			assert.Empty(t, stdout, "no sampling should happen")
		})
	}
}
