package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"trace", LevelTrace},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"", slog.LevelError},
		{"none", LevelNone},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := ParseLevel(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, level)
		})
	}

	_, err := ParseLevel("loud")
	assert.EqualError(t, err, `unknown log level "loud"`)
}

func TestJSONFormat(t *testing.T) {
	out := &bytes.Buffer{}
	logger, closer, err := New(Options{Level: "debug", Format: "json"}, out)
	require.NoError(t, err)
	defer closer.Close()

	logger.Debug("stage completed", slog.String("run", "r1"))
	logger.Log(context.Background(), LevelTrace, "hidden")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &entry))
	assert.Equal(t, "stage completed", entry["msg"])
	assert.Equal(t, "r1", entry["run"])
	assert.Equal(t, "DEBUG", entry["level"])
}

func TestPrettyFormat(t *testing.T) {
	out := &bytes.Buffer{}
	logger, _, err := New(Options{Level: "info", Format: "pretty", Color: true}, out)
	require.NoError(t, err)

	logger.With(slog.String("run", "r2")).WithGroup("cache").Info("hit", slog.Int("size", 3))
	logger.Debug("dropped")

	line := out.String()
	assert.Equal(t, 1, strings.Count(line, "\n"))
	// a buffer is not a terminal, so no escape codes
	assert.NotContains(t, line, "\x1b[")
	assert.Contains(t, line, "[INFO ] hit run=r2 cache.size=3")
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "hsl.log")
	logger, closer, err := New(Options{Level: "warn", File: path}, os.Stderr)
	require.NoError(t, err)

	logger.Warn("abandoned", slog.String("run", "r3"))
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "msg=abandoned run=r3")
}

func TestUnknownFormat(t *testing.T) {
	_, _, err := New(Options{Format: "xml"}, &bytes.Buffer{})
	assert.Error(t, err)
}
