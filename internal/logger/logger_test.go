package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		config *Config
	}{
		{
			name:   "default config",
			config: nil,
		},
		{
			name: "custom json config",
			config: &Config{
				Level:  "debug",
				Format: "json",
			},
		},
		{
			name: "console config",
			config: &Config{
				Level:  "info",
				Format: "console",
				Output: io.Discard,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, New(tt.config))
		})
	}
}

func TestLogger_JSONOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(&Config{Level: "info", Format: "json", Output: buf})

	log.Info("creating target database")

	entry := decode(t, buf)
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "creating target database", entry["message"])
	assert.NotEmpty(t, entry["time"])
}

func TestLogger_WithFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(&Config{Level: "info", Format: "json", Output: buf})

	log.With().
		Str("table", "ORDERS").
		Int64("total", 2500).
		Logger().
		Info("exporting table")

	entry := decode(t, buf)
	assert.Equal(t, "ORDERS", entry["table"])
	assert.Equal(t, float64(2500), entry["total"])
}

func TestLogger_Component(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(&Config{Level: "info", Format: "json", Output: buf})

	log.Component("transfer").Info("start")

	assert.Equal(t, "transfer", decode(t, buf)["component"])
}

func TestLogger_Batch(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(&Config{Level: "info", Format: "json", Output: buf})

	log.Batch("ORDERS", 1000, 1000, 2000, 2500, 12*time.Millisecond, 3*time.Millisecond, 40*time.Millisecond)

	entry := decode(t, buf)
	assert.Equal(t, "ORDERS", entry["table"])
	assert.Equal(t, float64(1000), entry["offset"])
	assert.Equal(t, float64(2000), entry["done"])
	assert.Equal(t, float64(2500), entry["total"])
	assert.Equal(t, float64(12), entry["read_ms"])
	assert.Equal(t, float64(3), entry["format_ms"])
	assert.Equal(t, float64(40), entry["write_ms"])
	assert.Equal(t, "2000 out of 2500 rows inserted into ORDERS", entry["message"])
}

func TestLogger_ErrorWithFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(&Config{Level: "error", Format: "json", Output: buf})

	log.ErrorWith("table transfer aborted", errors.New("connection reset"), map[string]interface{}{
		"table":  "ORDERS",
		"offset": 3000,
	})

	entry := decode(t, buf)
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "connection reset", entry["error"])
	assert.Equal(t, "ORDERS", entry["table"])
	assert.Equal(t, float64(3000), entry["offset"])
}

func TestLogger_Context(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(&Config{Level: "info", Format: "json", Output: buf})

	ctx := log.WithContext(context.Background())
	FromContext(ctx).Info("from context")

	assert.Equal(t, "from context", decode(t, buf)["message"])
}

func TestLogger_ContextFallback(t *testing.T) {
	assert.Same(t, Global(), FromContext(context.Background()))

	quiet := Discard()
	assert.Same(t, quiet, FromContext(quiet.WithContext(context.Background())))
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		logFunc  func(*Logger)
		expected bool
	}{
		{
			name:     "debug level logs debug",
			level:    "debug",
			logFunc:  func(l *Logger) { l.Debug("debug message") },
			expected: true,
		},
		{
			name:     "info level skips debug",
			level:    "info",
			logFunc:  func(l *Logger) { l.Debug("debug message") },
			expected: false,
		},
		{
			name:     "error level skips info",
			level:    "error",
			logFunc:  func(l *Logger) { l.Info("info message") },
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			tt.logFunc(New(&Config{Level: tt.level, Format: "json", Output: buf}))

			if tt.expected {
				assert.NotEmpty(t, buf.String(), "expected log output")
			} else {
				assert.Empty(t, buf.String(), "expected no log output")
			}
		})
	}
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() {
		Discard().Batch("T", 0, 1, 1, 1, 0, 0, 0)
	})
}

func BenchmarkLogger_Batch(b *testing.B) {
	log := New(&Config{Level: "info", Format: "json", Output: io.Discard})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		log.Batch("ORDERS", int64(i), 1000, int64(i), int64(b.N), time.Millisecond, time.Millisecond, time.Millisecond)
	}
}
