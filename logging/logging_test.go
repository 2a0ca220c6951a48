package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kopi-store/config"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, config.LogConfig{Level: "debug", Format: "auto"}, false)
	l.Info().Str("order_id", "ORD-1").Msg("order placed")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "ORD-1", line["order_id"])
	assert.Equal(t, "info", line["level"])
}

func TestNewLevel(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{"", zerolog.InfoLevel},
		{"loud", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		l := New(&bytes.Buffer{}, config.LogConfig{Level: tt.level, Format: "json"}, false)
		assert.Equal(t, tt.want, l.GetLevel(), tt.level)
	}
}

func TestNewConsoleOnTerminal(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, config.LogConfig{Format: "auto"}, true)
	l.Info().Msg("hello")
	assert.False(t, json.Valid(buf.Bytes()))
	assert.Contains(t, buf.String(), "hello")
}
