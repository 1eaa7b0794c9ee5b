// Package logger holds the process-wide structured logger
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// L is the global logger. It discards output until Init is called.
var L = zerolog.Nop()

// Init configures the global logger.
// Call this once at application startup, after loading config.
func Init(levelStr string, pretty bool) {
	L = New(os.Stderr, levelStr, pretty)
}

// New builds a logger writing to w. Pretty output is meant for terminals.
func New(w io.Writer, levelStr string, pretty bool) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(levelStr)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	log := zerolog.New(w).Level(level).With().Timestamp().Logger()
	if err != nil {
		log.Warn().Str("configured_level", levelStr).Msg("Invalid log level, defaulting to info")
	}
	return log
}
