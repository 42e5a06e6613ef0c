package log

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetup_ParsesLevel(t *testing.T) {
	Setup("warn", "text")

	ctx := context.Background()
	assert.False(t, slog.Default().Enabled(ctx, slog.LevelInfo))
	assert.True(t, slog.Default().Enabled(ctx, slog.LevelWarn))
}

func TestSetup_UnknownLevelFallsBackToInfo(t *testing.T) {
	Setup("chatty", "json")

	ctx := context.Background()
	assert.False(t, slog.Default().Enabled(ctx, slog.LevelDebug))
	assert.True(t, slog.Default().Enabled(ctx, slog.LevelInfo))
}
