// Package logging builds the zap logger used throughout perflog.
//
// Per-sample output goes to stdout through plain writes; the logger carries
// diagnostics only and writes to stderr unless a log file is configured.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

// DefaultLevel keeps routine runs quiet while still surfacing store failures.
const DefaultLevel = "warn"

// Options controls how New builds the logger.
type Options struct {
	Level   string // zap level name, e.g. "debug", "warn"
	LogFile string // empty logs to stderr
}

// ParseLevel parses a zap level name. An empty name yields DefaultLevel.
func ParseLevel(level string) (zap.AtomicLevel, error) {
	if level == "" {
		level = DefaultLevel
	}
	return zap.ParseAtomicLevel(level)
}

// New builds a console-encoded production logger.
func New(opts Options) (*zap.Logger, error) {
	logLevel, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	loggerConfig := zap.NewProductionConfig()
	loggerConfig.Level = logLevel
	loggerConfig.Encoding = "console"
	loggerConfig.Sampling = nil
	loggerConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	loggerConfig.OutputPaths = []string{"stderr"}
	loggerConfig.ErrorOutputPaths = []string{"stderr"}

	if opts.LogFile != "" {
		loggerConfig.OutputPaths = []string{opts.LogFile}
	} else if term.IsTerminal(int(os.Stderr.Fd())) {
		loggerConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	logger, err := loggerConfig.Build()
	if err != nil {
		return nil, err
	}

	return logger, nil
}
