package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dan-solli/qhistory/pkg/qhistory"
)

const envPrefix = "QHISTORY_"

// loadConfigFile reads engine settings from a YAML file.
func loadConfigFile(path string, cfg *qhistory.Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// applyEnv overrides cfg with QHISTORY_* variables found through lookup.
func applyEnv(cfg *qhistory.Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup(envPrefix + "LOG_LEVEL"); ok {
		cfg.LogLevel = v
	}
	if v, ok := lookup(envPrefix + "METRICS"); ok {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parsing %sMETRICS: %w", envPrefix, err)
		}
		cfg.MetricsEnabled = enabled
	}
	if v, ok := lookup(envPrefix + "METRICS_ADDR"); ok {
		cfg.MetricsAddr = v
	}
	if v, ok := lookup(envPrefix + "TRACE"); ok {
		cfg.TracePath = v
	}
	if v, ok := lookup(envPrefix + "JOURNAL"); ok {
		cfg.JournalPath = v
	}
	return nil
}

// parseLevel maps a configured level name to a slog level.
func parseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(name))); err != nil {
		return 0, fmt.Errorf("unknown log level %q", name)
	}
	return level, nil
}
