package config

import (
	"flag"
	"os"
	"strconv"
	"time"
)

// EnvPrefix is prepended to every environment override key.
const EnvPrefix = "PERFLOG_"

// envOverride maps an environment key (without EnvPrefix) to the flag it
// shadows and a function that applies the value.
type envOverride struct {
	envKey string
	flag   string
	apply  func(*Config, string)
}

// Unparseable values are ignored and the previous value is kept.
var envOverrides = []envOverride{
	{"ITERATIONS", "iterations", func(c *Config, v string) {
		if parsed, err := strconv.Atoi(v); err == nil {
			c.Iterations = parsed
		}
	}},
	{"INTERVAL", "interval", func(c *Config, v string) {
		if parsed, err := time.ParseDuration(v); err == nil {
			c.Interval = parsed
		}
	}},
	{"TAIL", "tail", func(c *Config, v string) {
		if parsed, err := strconv.Atoi(v); err == nil {
			c.Tail = parsed
		}
	}},
	{"DB", "db", func(c *Config, v string) { c.DBPath = v }},
	{"PROBE", "probe", func(c *Config, v string) { c.Probe = v }},
	{"LOG_LEVEL", "log-level", func(c *Config, v string) { c.LogLevel = v }},
	{"LOG_FILE", "log-file", func(c *Config, v string) { c.LogFile = v }},
}

// applyEnvOverrides applies PERFLOG_* variables for every flag that was not
// set on the command line, so flags win over the environment.
func applyEnvOverrides(cfg *Config, fs *flag.FlagSet) {
	for _, o := range envOverrides {
		if isFlagSet(fs, o.flag) {
			continue
		}
		if val := os.Getenv(EnvPrefix + o.envKey); val != "" {
			o.apply(cfg, val)
		}
	}
}

func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}
