package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	apperrors "github.com/atinylittleshell/perflog/internal/errors"
	"github.com/atinylittleshell/perflog/internal/system"
)

// Parse builds the run configuration from args (without the program name).
// Precedence is flags, then PERFLOG_* variables, then the YAML file named by
// -config or PERFLOG_CONFIG, then Default. flag.ErrHelp is returned as is.
func Parse(programName string, args []string, errWriter io.Writer) (Config, error) {
	fv := Default()

	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errWriter)
	fs.StringVar(&fv.ConfigFile, "config", "", "read settings from a YAML file")
	fs.IntVar(&fv.Iterations, "iterations", fv.Iterations, "number of samples to take")
	fs.DurationVar(&fv.Interval, "interval", fv.Interval, "pause after each sample")
	fs.StringVar(&fv.DBPath, "db", fv.DBPath, "SQLite file samples are appended to")
	fs.StringVar(&fv.Probe, "probe", fv.Probe, "counter source: "+strings.Join(system.ProbeKinds, "|"))
	fs.StringVar(&fv.LogLevel, "log-level", fv.LogLevel, "diagnostic log level")
	fs.StringVar(&fv.LogFile, "log-file", "", "write diagnostics to this file instead of stderr")
	fs.BoolVar(&fv.Report, "report", false, "summarize the database instead of sampling")
	fs.IntVar(&fv.Tail, "tail", fv.Tail, "rows listed by -report")
	fs.BoolVar(&fv.ShowVersion, "ver", false, "display build version")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return fv, err
		}
		return fv, apperrors.NewConfigError("%v", err)
	}
	if fs.NArg() > 0 {
		return fv, apperrors.NewConfigError("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	cfg := Default()

	configFile := fv.ConfigFile
	if configFile == "" {
		configFile = os.Getenv(EnvPrefix + "CONFIG")
	}
	if configFile != "" {
		loaded, err := Load(configFile, cfg)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
		cfg.ConfigFile = configFile
	}

	applyEnvOverrides(&cfg, fs)
	applyFlags(&cfg, &fv, fs)
	cfg.Report = fv.Report
	cfg.ShowVersion = fv.ShowVersion

	if cfg.ShowVersion {
		return cfg, nil
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyFlags copies every explicitly set flag from fv into cfg.
func applyFlags(cfg *Config, fv *Config, fs *flag.FlagSet) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "iterations":
			cfg.Iterations = fv.Iterations
		case "interval":
			cfg.Interval = fv.Interval
		case "db":
			cfg.DBPath = fv.DBPath
		case "probe":
			cfg.Probe = fv.Probe
		case "log-level":
			cfg.LogLevel = fv.LogLevel
		case "log-file":
			cfg.LogFile = fv.LogFile
		case "tail":
			cfg.Tail = fv.Tail
		}
	})
}

// String renders the effective settings for debug logging.
func (c Config) String() string {
	return fmt.Sprintf("iterations=%d interval=%s db=%s probe=%s", c.Iterations, c.Interval, c.DBPath, c.Probe)
}
