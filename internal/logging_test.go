package internal

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoggerFromString(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	req.True(LoggerFromString("DEBUG").Enabled(ctx, slog.LevelDebug))
	req.False(LoggerFromString("WARN").Enabled(ctx, slog.LevelInfo))
	req.True(LoggerFromString("error").Enabled(ctx, slog.LevelError))

	// Unknown levels default to info
	req.True(LoggerFromString("verbose").Enabled(ctx, slog.LevelInfo))
	req.False(LoggerFromString("verbose").Enabled(ctx, slog.LevelDebug))
}

func TestCharacterRune(t *testing.T) {
	req := require.New(t)

	r, ok := CharacterRune("*")
	req.True(ok)
	req.Equal('*', r)

	r, ok = CharacterRune("█")
	req.True(ok)
	req.Equal('█', r)

	_, ok = CharacterRune("")
	req.False(ok)

	_, ok = CharacterRune("**")
	req.False(ok)
}
