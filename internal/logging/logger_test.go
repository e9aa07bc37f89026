package logging

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitLogger_LevelSelection(t *testing.T) {
	InitLogger("debug", "json")
	assert.True(t, Logger.Enabled(context.Background(), slog.LevelDebug))

	InitLogger("warn", "text")
	assert.False(t, Logger.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, Logger.Enabled(context.Background(), slog.LevelWarn))

	// Unknown levels fall back to info.
	InitLogger("chatty", "text")
	assert.False(t, Logger.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, Logger.Enabled(context.Background(), slog.LevelInfo))
}

func TestWithHelpers_AttachFields(t *testing.T) {
	var buf bytes.Buffer
	Logger = slog.New(slog.NewJSONHandler(&buf, nil))

	WithConnection("conn-123").Info("registered")
	assert.Contains(t, buf.String(), `"connection_id":"conn-123"`)

	buf.Reset()
	WithEventType("hello").Warn("no handler")
	assert.Contains(t, buf.String(), `"event_type":"hello"`)

	buf.Reset()
	WithError(fmt.Errorf("boom")).Error("failed")
	assert.Contains(t, buf.String(), `"error":"boom"`)
}
