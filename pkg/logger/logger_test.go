package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"apiscraper/pkg/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{"info level", &config.LoggingConfig{Level: "info"}, false},
		{"debug level", &config.LoggingConfig{Level: "debug"}, false},
		{"invalid level", &config.LoggingConfig{Level: "invalid"}, true},
		{"file output", &config.LoggingConfig{Level: "info", File: filepath.Join(t.TempDir(), "logs", "run.log")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, log)
			if tt.cfg.File != "" {
				_, statErr := os.Stat(tt.cfg.File)
				assert.NoError(t, statErr)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"DEBUG", zerolog.DebugLevel, false},
		{"info", zerolog.InfoLevel, false},
		{"warn", zerolog.WarnLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"invalid", zerolog.InfoLevel, true},
		{"", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseLogLevel() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if level != tt.expected {
				t.Errorf("parseLogLevel() = %v, want %v", level, tt.expected)
			}
		})
	}
}

func TestLevelIsPerInstance(t *testing.T) {
	var quiet, loud bytes.Buffer
	quietLog, err := NewWithWriter(&config.LoggingConfig{Level: "error"}, &quiet)
	require.NoError(t, err)
	loudLog, err := NewWithWriter(&config.LoggingConfig{Level: "debug"}, &loud)
	require.NoError(t, err)

	quietLog.Info("hidden")
	loudLog.Debug("shown")

	assert.Empty(t, quiet.String())
	assert.Contains(t, loud.String(), "shown")
	assert.Equal(t, zerolog.DebugLevel, loudLog.GetZerolog().GetLevel())
}

func TestDefaultFields(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter(&config.LoggingConfig{Level: "info"}, &buf)
	require.NoError(t, err)

	log.Info("started")
	assert.Contains(t, buf.String(), `"app":"apiscraper"`)
	assert.Contains(t, buf.String(), `"version":"`+Version+`"`)
}

func TestFieldChaining(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter(&config.LoggingConfig{Level: "debug"}, &buf)
	require.NoError(t, err)

	log.
		WithField("site", "yelp").
		WithFields(map[string]interface{}{"batch": 2, "structured": true}).
		InfoWithFields("batch fetched", map[string]interface{}{"records": 10})

	out := buf.String()
	assert.Contains(t, out, "batch fetched")
	assert.Contains(t, out, `"site":"yelp"`)
	assert.Contains(t, out, `"batch":2`)
	assert.Contains(t, out, `"structured":true`)
	assert.Contains(t, out, `"records":10`)
}

func TestWithFieldDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter(&config.LoggingConfig{Level: "info"}, &buf)
	require.NoError(t, err)

	_ = log.WithField("child", "only")
	log.Info("parent")

	assert.NotContains(t, buf.String(), "child")
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter(&config.LoggingConfig{Level: "info"}, &buf)
	require.NoError(t, err)

	assert.Same(t, log, log.WithError(nil))

	log.WithError(errors.New("query failed")).Error("search aborted")
	assert.Contains(t, buf.String(), "search aborted")
	assert.Contains(t, buf.String(), "query failed")
}

func TestFieldTypes(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter(&config.LoggingConfig{Level: "info"}, &buf)
	require.NoError(t, err)

	log.InfoWithFields("all types", map[string]interface{}{
		"string":   "test",
		"int64":    int64(456),
		"float":    3.5,
		"time":     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		"duration": 5 * time.Second,
		"strings":  []string{"a", "b"},
		"cause":    errors.New("boom"),
		"custom":   struct{ Name string }{Name: "x"},
	})

	out := buf.String()
	assert.Contains(t, out, `"int64":456`)
	assert.Contains(t, out, `"strings":["a","b"]`)
	assert.Contains(t, out, `"cause":"boom"`)
	assert.Contains(t, out, `"Name":"x"`)
}

func TestLogRequestLevels(t *testing.T) {
	log := NewTestLogger()

	LogRequest(log, "GET", "https://example.test", 200, time.Millisecond)
	LogRequest(log, "GET", "https://example.test", 404, time.Millisecond)
	LogRequest(log, "POST", "https://example.test", 503, time.Millisecond)

	assert.Len(t, log.GetMessagesByLevel("DEBUG"), 1)
	warns := log.GetMessagesByLevel("WARN")
	require.Len(t, warns, 2)
	assert.Equal(t, "HTTP request client error", warns[0].Message)
	assert.Equal(t, "HTTP request server error", warns[1].Message)
}

func TestLogSearchProgress(t *testing.T) {
	log := NewTestLogger()
	LogSearchProgress(log, "indeed", 5, 20)

	msgs := log.GetMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "25.0%", msgs[0].Fields["percentage"])
	assert.Equal(t, "indeed", msgs[0].Fields["site"])
}

func TestTestLoggerSharesCapture(t *testing.T) {
	log := NewTestLogger()
	child := log.WithField("site", "twitter").WithError(errors.New("bad"))
	child.Warn("skipped record")

	msgs := log.GetMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "WARN", msgs[0].Level)
	assert.Equal(t, "twitter", msgs[0].Fields["site"])
	assert.EqualError(t, msgs[0].Error, "bad")
	assert.True(t, log.HasMessage("skipped record"))
	assert.False(t, log.HasError())

	log.Clear()
	assert.Empty(t, log.GetMessages())
}

func TestNopLogger(t *testing.T) {
	log := OrNop(nil)
	assert.NotNil(t, log)
	log.WithField("k", "v").InfoWithFields("ignored", nil)
	assert.NotNil(t, log.GetZerolog())

	tl := NewTestLogger()
	assert.Same(t, tl, OrNop(tl))
}

func TestConsoleWriterColors(t *testing.T) {
	cfg := &config.LoggingConfig{Level: "info"}

	var plain bytes.Buffer
	log, err := NewWithWriter(cfg, consoleWriter(&plain, false))
	require.NoError(t, err)
	log.InfoWithFields("search completed", map[string]interface{}{"site": "yelp"})

	assert.Contains(t, plain.String(), "INFO | search completed")
	assert.Contains(t, plain.String(), "site:yelp")
	assert.NotContains(t, plain.String(), "\033[")

	var colored bytes.Buffer
	log, err = NewWithWriter(cfg, consoleWriter(&colored, true))
	require.NoError(t, err)
	log.InfoWithFields("search completed", map[string]interface{}{"site": "yelp"})

	assert.Contains(t, colored.String(), "\033[32mINFO\033[0m")
	assert.Contains(t, colored.String(), "\033[36msite\033[0m:")
}
