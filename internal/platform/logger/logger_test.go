package logger

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/petaltask/recur/internal/config"
)

func TestSetupLevels(t *testing.T) {
	tests := []struct {
		configured string
		want       slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}

	for _, tc := range tests {
		t.Run(tc.configured, func(t *testing.T) {
			logger := Setup(config.ServerConfig{LogLevel: tc.configured})
			assert.True(t, logger.Enabled(context.Background(), tc.want))
			assert.False(t, logger.Enabled(context.Background(), tc.want-1))
		})
	}
}

func TestContextLoggerRoundTrip(t *testing.T) {
	fallback := slog.New(slog.NewTextHandler(os.Stdout, nil))
	scoped := fallback.With(slog.String("request_id", "req-1"))

	ctx := WithLogger(context.Background(), scoped)
	assert.Same(t, scoped, FromContextOrDefault(ctx, fallback))

	// Without a logger in the context the fallback wins.
	assert.Same(t, fallback, FromContextOrDefault(context.Background(), fallback))
}
