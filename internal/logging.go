package internal

import (
	"log/slog"
	"os"
	"strings"
)

// LoggerFromString builds the process logger at the configured level,
// defaulting to info on unknown values.
func LoggerFromString(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToUpper(level) {
	case "DEBUG":
		lvl = slog.LevelDebug
	case "WARN":
		lvl = slog.LevelWarn
	case "ERROR":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

// CharacterRune validates the single-rune moderation replacement.
func CharacterRune(str string) (rune, bool) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, false
	}
	return r[0], true
}
