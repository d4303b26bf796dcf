package logging

import (
	"log/slog"
	"strings"
)

// DefaultLevel applies when no level is configured or the configured
// value does not parse.
const DefaultLevel = slog.LevelInfo

// ParseLevel maps a configured level name ("debug", "info", "warn",
// "error", any case) to its slog.Level. Unrecognized names report
// ok=false alongside DefaultLevel so callers can warn and continue.
func ParseLevel(s string) (level slog.Level, ok bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return DefaultLevel, false
	}
}

// ParseLevelOrDefault is ParseLevel without the validity report.
func ParseLevelOrDefault(s string) slog.Level {
	level, _ := ParseLevel(s)
	return level
}
