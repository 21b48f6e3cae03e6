package logs

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"rachel/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for input, want := range cases {
		got, err := parseLogLevel(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := parseLogLevel("verbose")
	assert.Error(t, err)
}

func TestNewLoggerJSON(t *testing.T) {
	cfg := &config.Config{}
	cfg.Env.ServiceName = "rachel"
	cfg.Env.Log.Level = "warn"

	var buf bytes.Buffer
	logger, err := newLogger(&buf, cfg)
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("kept", slog.String("subject", "addr:203.0.113.5"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "rachel", entry["service"])
	assert.Equal(t, "addr:203.0.113.5", entry["subject"])
}

func TestNewLoggerPretty(t *testing.T) {
	cfg := &config.Config{}
	cfg.Env.Log.Pretty = true

	var buf bytes.Buffer
	logger, err := newLogger(&buf, cfg)
	require.NoError(t, err)

	logger.Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}
