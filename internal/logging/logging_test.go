package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("", "dev"))
	assert.Equal(t, slog.LevelInfo, parseLevel("", "prod"))
	assert.Equal(t, slog.LevelWarn, parseLevel("WARN", "dev"))
	assert.Equal(t, slog.LevelError, parseLevel("error", "prod"))
	assert.Equal(t, slog.LevelInfo, parseLevel("loud", "prod"))
}

func TestNewLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger := newLogger(&buf, "api-server", "prod", "")
	logger.Debug("hidden")
	logger.Info("visible", "port", "8080")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"service":"api-server"`)
	assert.Contains(t, out, `"port":"8080"`)
}
