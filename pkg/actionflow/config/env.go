package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Settings holds process-level configuration read from the environment.
type Settings struct {
	// Name is the registry instance name used in logs and spans.
	Name string `env:"ACTIONFLOW_NAME" envDefault:"actionflow"`

	// LogLevel is the minimum log level: debug, info, warn, or error.
	LogLevel string `env:"ACTIONFLOW_LOG_LEVEL" envDefault:"info"`

	// Metrics enables OpenTelemetry metrics recording.
	Metrics bool `env:"ACTIONFLOW_METRICS" envDefault:"false"`

	// Tracing enables OpenTelemetry span creation.
	Tracing bool `env:"ACTIONFLOW_TRACING" envDefault:"false"`
}

// Level converts the LogLevel string to a slog.Level.
// Unknown values fall back to info.
func (s Settings) Level() slog.Level {
	switch strings.ToLower(s.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// EnvSettings parses Settings from the process environment.
func EnvSettings() (Settings, error) {
	var s Settings
	if err := ParseEnv(&s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// ParseEnv populates target from environment variables using env tags.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
