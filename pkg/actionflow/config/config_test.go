package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/randalmurphal/actionflow/pkg/actionflow/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNew verifies Config creation from maps.
func TestNew(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
	}{
		{"nil map", nil},
		{"empty map", map[string]any{}},
		{"with values", map[string]any{"key": "value"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New(tt.data)
			assert.NotNil(t, cfg.Raw())
		})
	}
}

// TestString verifies string extraction with defaults.
func TestString(t *testing.T) {
	tests := []struct {
		name       string
		data       map[string]any
		key        string
		defaultVal string
		want       string
	}{
		{"key exists", map[string]any{"name": "alice"}, "name", "default", "alice"},
		{"key missing", map[string]any{"other": "value"}, "name", "default", "default"},
		{"empty string", map[string]any{"name": ""}, "name", "default", ""},
		{"wrong type int", map[string]any{"name": 123}, "name", "default", "default"},
		{"nil map", nil, "name", "default", "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New(tt.data)
			got := cfg.String(tt.key, tt.defaultVal)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestDuration verifies duration extraction with various input types.
func TestDuration(t *testing.T) {
	tests := []struct {
		name       string
		data       map[string]any
		key        string
		defaultVal time.Duration
		want       time.Duration
	}{
		{"string duration", map[string]any{"d": "30s"}, "d", time.Second, 30 * time.Second},
		{"complex string", map[string]any{"d": "1h30m"}, "d", 0, 90 * time.Minute},
		{"int seconds", map[string]any{"d": 5}, "d", 0, 5 * time.Second},
		{"int64 seconds", map[string]any{"d": int64(7)}, "d", 0, 7 * time.Second},
		{"float seconds", map[string]any{"d": 1.5}, "d", 0, 1500 * time.Millisecond},
		{"duration value", map[string]any{"d": 2 * time.Minute}, "d", 0, 2 * time.Minute},
		{"invalid string", map[string]any{"d": "soon"}, "d", time.Second, time.Second},
		{"missing key", map[string]any{}, "d", time.Second, time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New(tt.data)
			got := cfg.Duration(tt.key, tt.defaultVal)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestMillis verifies millisecond extraction for *_ms keys.
func TestMillis(t *testing.T) {
	tests := []struct {
		name       string
		data       map[string]any
		key        string
		defaultVal time.Duration
		want       time.Duration
	}{
		{"int", map[string]any{"debounce_ms": 200}, "debounce_ms", 0, 200 * time.Millisecond},
		{"int64", map[string]any{"debounce_ms": int64(50)}, "debounce_ms", 0, 50 * time.Millisecond},
		{"whole float", map[string]any{"debounce_ms": float64(100)}, "debounce_ms", 0, 100 * time.Millisecond},
		{"fractional float rejected", map[string]any{"debounce_ms": 12.5}, "debounce_ms", time.Second, time.Second},
		{"duration value", map[string]any{"debounce_ms": 30 * time.Millisecond}, "debounce_ms", 0, 30 * time.Millisecond},
		{"string rejected", map[string]any{"debounce_ms": "200"}, "debounce_ms", time.Second, time.Second},
		{"missing key", map[string]any{}, "debounce_ms", time.Second, time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New(tt.data)
			got := cfg.Millis(tt.key, tt.defaultVal)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestBool verifies boolean extraction.
func TestBool(t *testing.T) {
	cfg := config.New(map[string]any{"on": true, "off": false, "str": "true"})

	assert.True(t, cfg.Bool("on", false))
	assert.False(t, cfg.Bool("off", true))
	assert.True(t, cfg.Bool("str", true), "non-bool falls back to default")
	assert.False(t, cfg.Bool("missing", false))
}

// TestInt verifies integer extraction and fractional rejection.
func TestInt(t *testing.T) {
	tests := []struct {
		name       string
		data       map[string]any
		key        string
		defaultVal int
		want       int
	}{
		{"int", map[string]any{"n": 5}, "n", 0, 5},
		{"int64", map[string]any{"n": int64(9)}, "n", 0, 9},
		{"whole float", map[string]any{"n": float64(3)}, "n", 0, 3},
		{"fractional float rejected", map[string]any{"n": 2.5}, "n", -1, -1},
		{"negative", map[string]any{"n": -4}, "n", 0, -4},
		{"string rejected", map[string]any{"n": "5"}, "n", -1, -1},
		{"missing", map[string]any{}, "n", 7, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New(tt.data)
			assert.Equal(t, tt.want, cfg.Int(tt.key, tt.defaultVal))
		})
	}
}

// TestFloat verifies float extraction.
func TestFloat(t *testing.T) {
	cfg := config.New(map[string]any{"f": 1.25, "i": 3, "i64": int64(4), "s": "x"})

	assert.Equal(t, 1.25, cfg.Float("f", 0))
	assert.Equal(t, 3.0, cfg.Float("i", 0))
	assert.Equal(t, 4.0, cfg.Float("i64", 0))
	assert.Equal(t, 9.9, cfg.Float("s", 9.9))
	assert.Equal(t, 9.9, cfg.Float("missing", 9.9))
}

// TestStringSlice verifies string slice extraction.
func TestStringSlice(t *testing.T) {
	tests := []struct {
		name       string
		data       map[string]any
		key        string
		defaultVal []string
		want       []string
	}{
		{"string slice", map[string]any{"tags": []string{"a", "b"}}, "tags", nil, []string{"a", "b"}},
		{"any slice", map[string]any{"tags": []any{"a", "b"}}, "tags", nil, []string{"a", "b"}},
		{"mixed any slice", map[string]any{"tags": []any{"a", 1}}, "tags", []string{"d"}, []string{"d"}},
		{"missing", map[string]any{}, "tags", []string{"d"}, []string{"d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New(tt.data)
			assert.Equal(t, tt.want, cfg.StringSlice(tt.key, tt.defaultVal))
		})
	}
}

// TestSlice verifies raw slice extraction.
func TestSlice(t *testing.T) {
	cfg := config.New(map[string]any{"items": []any{1, "two"}})

	assert.Equal(t, []any{1, "two"}, cfg.Slice("items", nil))
	assert.Nil(t, cfg.Slice("missing", nil))
	assert.Equal(t, []any{"d"}, cfg.Slice("missing", []any{"d"}))
}

// TestAnyHasRaw verifies the raw accessors.
func TestAnyHasRaw(t *testing.T) {
	data := map[string]any{"k": 42}
	cfg := config.New(data)

	assert.Equal(t, 42, cfg.Any("k", nil))
	assert.Equal(t, "d", cfg.Any("missing", "d"))
	assert.True(t, cfg.Has("k"))
	assert.False(t, cfg.Has("missing"))
	assert.Equal(t, data, cfg.Raw())
}

// TestFromYAML verifies YAML parsing.
func TestFromYAML(t *testing.T) {
	yamlData := []byte(`
handlers:
  - action: file.save
    priority: 2
    debounce_ms: 200
name: editor
`)

	cfg, err := config.FromYAML(yamlData)
	require.NoError(t, err)

	assert.Equal(t, "editor", cfg.String("name", ""))
	handlers := cfg.Slice("handlers", nil)
	require.Len(t, handlers, 1)

	_, err = config.FromYAML([]byte("{not yaml"))
	assert.Error(t, err)
}

// TestFromJSON verifies JSON parsing.
func TestFromJSON(t *testing.T) {
	jsonData := []byte(`{"name": "editor", "priority": 2}`)

	cfg, err := config.FromJSON(jsonData)
	require.NoError(t, err)
	assert.Equal(t, "editor", cfg.String("name", ""))
	assert.Equal(t, 2, cfg.Int("priority", 0))

	_, err = config.FromJSON([]byte("not json"))
	assert.Error(t, err)
}

// TestFromFile verifies file loading with extension detection.
func TestFromFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("name: from-yaml"), 0o644))

	jsonPath := filepath.Join(dir, "cfg.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"name": "from-json"}`), 0o644))

	txtPath := filepath.Join(dir, "cfg.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte("name: x"), 0o644))

	t.Run("yaml", func(t *testing.T) {
		cfg, err := config.FromFile(yamlPath)
		require.NoError(t, err)
		assert.Equal(t, "from-yaml", cfg.String("name", ""))
	})

	t.Run("json", func(t *testing.T) {
		cfg, err := config.FromFile(jsonPath)
		require.NoError(t, err)
		assert.Equal(t, "from-json", cfg.String("name", ""))
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := config.FromFile(txtPath)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported config file extension")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := config.FromFile(filepath.Join(dir, "nope.yaml"))
		assert.Error(t, err)
	})
}

// TestEnvSettings verifies environment parsing.
func TestEnvSettings(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		s, err := config.EnvSettings()
		require.NoError(t, err)
		assert.Equal(t, "actionflow", s.Name)
		assert.Equal(t, "info", s.LogLevel)
		assert.False(t, s.Metrics)
		assert.False(t, s.Tracing)
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("ACTIONFLOW_NAME", "editor")
		t.Setenv("ACTIONFLOW_LOG_LEVEL", "debug")
		t.Setenv("ACTIONFLOW_METRICS", "true")
		t.Setenv("ACTIONFLOW_TRACING", "true")

		s, err := config.EnvSettings()
		require.NoError(t, err)
		assert.Equal(t, "editor", s.Name)
		assert.Equal(t, "debug", s.LogLevel)
		assert.True(t, s.Metrics)
		assert.True(t, s.Tracing)
	})

	t.Run("invalid bool", func(t *testing.T) {
		t.Setenv("ACTIONFLOW_METRICS", "banana")
		_, err := config.EnvSettings()
		assert.Error(t, err)
	})
}

// TestSettingsLevel verifies log level mapping.
func TestSettingsLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"debug", "DEBUG"},
		{"info", "INFO"},
		{"warn", "WARN"},
		{"warning", "WARN"},
		{"error", "ERROR"},
		{"", "INFO"},
		{"garbage", "INFO"},
	}

	for _, tt := range tests {
		s := config.Settings{LogLevel: tt.in}
		assert.Equal(t, tt.want, s.Level().String(), "level %q", tt.in)
	}
}
