/*
Package config provides type-safe configuration extraction from map[string]any.

# Overview

config wraps a map[string]any and provides typed accessor methods that handle
missing keys and type mismatches gracefully by returning default values.
This is useful for extracting handler definitions from YAML/JSON structures
without verbose type assertions and nil checks.

# Basic Usage

Create a Config from any map and extract values with defaults:

	cfg := config.New(map[string]any{
	    "debounce_ms": 200,
	    "priority":    3,
	    "blocking":    true,
	})

	debounce := cfg.Millis("debounce_ms", 0)    // 200ms
	priority := cfg.Int("priority", 0)          // 3
	blocking := cfg.Bool("blocking", true)      // true
	missing := cfg.String("missing", "default") // "default"

# Type Coercion

Duration handles multiple input types:
  - string: parsed with time.ParseDuration ("30s", "1h30m")
  - int/float64: interpreted as seconds
  - time.Duration: used directly

Millis is the same but interprets bare numbers as milliseconds, for the
*_ms keys used in handler definitions.

Numeric types handle reasonable conversions:
  - int from whole float64
  - float64 from int

All methods return the default value if:
  - The key is missing
  - The value cannot be converted to the requested type
  - The conversion would lose precision (e.g., float to int with fraction)

# File Loading

Load configuration from YAML or JSON files:

	cfg, err := config.FromFile("handlers.yaml")
	if err != nil {
	    log.Fatal(err)
	}

	// Or load from bytes
	cfg, err = config.FromYAML(yamlBytes)
	cfg, err = config.FromJSON(jsonBytes)

# Environment

Process-level settings come from ACTIONFLOW_* environment variables:

	settings, err := config.EnvSettings()
	if err != nil {
	    log.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
	    Level: settings.Level(),
	}))

# Thread Safety

Config is safe for concurrent read access. The underlying map is not
modified after creation. However, if the original map is modified
externally, behavior is undefined.
*/
package config
