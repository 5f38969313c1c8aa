package configs

import (
	"log/slog"
	"strings"
)

// Logger configures the slog handler built in main. Level is the
// minimum level emitted ("debug", "info", "warn", "error"); Format
// selects the encoding ("text" or "json"). Unknown values fall back to
// info and text rather than failing startup.
type Logger struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"text"`
}

// SlogLevel maps the configured level onto slog's.
func (c Logger) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SlogFormat normalizes the configured encoding to "text" or "json".
func (c Logger) SlogFormat() string {
	if strings.ToLower(c.Format) == "json" {
		return "json"
	}
	return "text"
}
