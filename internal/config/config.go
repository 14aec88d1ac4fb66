package config

import (
	"os"
	"strings"
	"time"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	apperrors "github.com/atinylittleshell/perflog/internal/errors"
	"github.com/atinylittleshell/perflog/internal/logging"
	"github.com/atinylittleshell/perflog/internal/store"
	"github.com/atinylittleshell/perflog/internal/system"
)

// Defaults reproduce a plain, argument-less run.
const (
	DefaultIterations = 20
	DefaultInterval   = time.Second
	DefaultTail       = 10
)

// Config holds everything a run needs.
type Config struct {
	Iterations int           `yaml:"iterations"`
	Interval   time.Duration `yaml:"interval"`
	DBPath     string        `yaml:"db"`
	Probe      string        `yaml:"probe"`
	LogLevel   string        `yaml:"log_level"`
	LogFile    string        `yaml:"log_file"`
	Tail       int           `yaml:"tail"`

	// Command line only.
	ConfigFile  string `yaml:"-"`
	Report      bool   `yaml:"-"`
	ShowVersion bool   `yaml:"-"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Iterations: DefaultIterations,
		Interval:   DefaultInterval,
		DBPath:     store.DefaultPath,
		Probe:      system.ProbeHost,
		LogLevel:   logging.DefaultLevel,
		Tail:       DefaultTail,
	}
}

// Load reads a YAML file on top of base. Keys absent from the file keep
// their value from base.
func Load(path string, base Config) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return base, apperrors.NewConfigError("reading config file: %v", err)
	}

	cfg := base
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return base, apperrors.NewConfigError("parsing config file %s: %v", path, err)
	}
	return cfg, nil
}

// Validate reports the first invalid setting as a ConfigError.
func (c Config) Validate() error {
	if c.Iterations < 1 {
		return apperrors.NewConfigError("iterations must be at least 1, got %d", c.Iterations)
	}
	if c.Interval < 0 {
		return apperrors.NewConfigError("interval must not be negative, got %s", c.Interval)
	}
	if strings.TrimSpace(c.DBPath) == "" {
		return apperrors.NewConfigError("database path must not be empty")
	}
	if !lo.Contains(system.ProbeKinds, c.Probe) {
		return apperrors.NewConfigError("unknown probe %q (want one of %s)", c.Probe, strings.Join(system.ProbeKinds, ", "))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return apperrors.NewConfigError("invalid log level %q", c.LogLevel)
	}
	if c.Tail < 0 {
		return apperrors.NewConfigError("tail must not be negative, got %d", c.Tail)
	}
	return nil
}
