// Package logx configures the process-wide zerolog logger.
package logx

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/howard-nolan/chatrelay/internal/config"
)

// Options selects the output format and minimum level.
type Options struct {
	Environment config.Environment
	Level       string
	Output      io.Writer // defaults to os.Stderr
}

// New builds a logger: JSON lines in production, a human-friendly console
// writer with caller info everywhere else.
func New(opts Options) zerolog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	var logger zerolog.Logger
	if opts.Environment.IsProduction() {
		logger = zerolog.New(out).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: out}).With().Timestamp().Caller().Logger()
	}
	return logger.Level(parseLevel(opts.Level, opts.Environment))
}

// Init builds a logger with New and installs it as the global logger and
// the fallback for zerolog.Ctx.
func Init(opts Options) zerolog.Logger {
	logger := New(opts)
	log.Logger = logger
	zerolog.DefaultContextLogger = &logger
	return logger
}

// parseLevel falls back to info in production and debug elsewhere when
// the configured level is empty or unknown.
func parseLevel(level string, env config.Environment) zerolog.Level {
	if lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level))); err == nil && level != "" {
		return lvl
	}
	if env.IsProduction() {
		return zerolog.InfoLevel
	}
	return zerolog.DebugLevel
}
