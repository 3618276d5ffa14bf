// Package logger builds the slog logger used by the command line.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Options configure New.
type Options struct {
	// Level is one of debug, info, warn or error.
	Level string
	// Format is FormatText (colored console) or FormatJSON.
	Format string
	// NoColor disables ANSI colors in text output.
	NoColor bool
}

// New creates a logger writing to w.
func New(w io.Writer, opts Options) (*slog.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	var handler slog.Handler
	switch strings.ToLower(opts.Format) {
	case FormatJSON:
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	case "", FormatText:
		handler = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.TimeOnly,
			NoColor:    opts.NoColor,
		})
	default:
		return nil, fmt.Errorf("unknown log format %q (valid: text, json)", opts.Format)
	}
	return slog.New(handler), nil
}

// ParseLevel parses a level name. An empty name means info.
func ParseLevel(name string) (slog.Level, error) {
	if name == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("unknown log level %q (valid: debug, info, warn, error)", name)
	}
	return level, nil
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
