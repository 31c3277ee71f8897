package logger_test

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/mirae-labs/go-mirae/pkg/logger"
	"github.com/stretchr/testify/assert"
)

func TestColorHandlerLevels(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "debug", "text")

	log.Error("boom")
	assert.Contains(t, buf.String(), "\033[31m", "errors are red")

	buf.Reset()
	log.Warn("careful")
	assert.Contains(t, buf.String(), "\033[33m", "warnings are yellow")

	buf.Reset()
	log.Info("plain")
	assert.NotContains(t, buf.String(), "\033[", "info is uncolored")
}

func TestColorHandlerSecurityHighlight(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "info", "text")

	log.Warn("suspicious input detected", "security", true, "session_id", "s1")

	out := buf.String()
	assert.Contains(t, out, "\033[35m", "security events are magenta")
	assert.Contains(t, out, "session_id=s1")
}

func TestColorHandlerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "warn", "text")

	log.Info("hidden")
	assert.Empty(t, buf.String())

	log.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestColorHandlerGroupsAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "info", "text")

	log.WithGroup("cache").With("backend", "memory").Info("ready")

	assert.Contains(t, buf.String(), "cache.backend=memory")
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "info", "json")

	log.Info("hello", "k", "v")

	line := buf.String()
	assert.True(t, strings.HasPrefix(line, "{"))
	assert.Contains(t, line, `"k":"v"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, logger.ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, logger.ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, logger.ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, logger.ParseLevel("anything"))
}
