// Package logger configures the application's logging.
//
// It uses *ZeroLog* for structured logging and provides the
// adapter used to surface SQL statements from the database
// driver (PGX) through the same logger.
package logger

import (
	"os"

	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
)

// New builds the root application logger.
//
// level is one of debug/info/warn/error; unknown values fall back to
// info rather than failing startup over a typo. console selects the
// human-readable format for development runs; production stays JSON so
// log pipelines can parse it.
func New(level string, console bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if console {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		logger = zerolog.New(os.Stderr)
	}

	return logger.Level(lvl).With().Timestamp().Logger()
}

// NewPgxLogger derives the logger handed to the pgx tracelog adapter.
//
// SQL tracing is chatty, so it gets its own component field and never
// logs below the application's own level.
func NewPgxLogger(level zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().
		Timestamp().
		Str("component", "pgx").
		Logger()
}

// GetPgxTraceLogLevel maps a zerolog level onto pgx's tracelog scale so
// the SQL tracer honors the application's verbosity.
func GetPgxTraceLogLevel(level zerolog.Level) tracelog.LogLevel {
	switch level {
	case zerolog.TraceLevel:
		return tracelog.LogLevelTrace
	case zerolog.DebugLevel:
		return tracelog.LogLevelDebug
	case zerolog.InfoLevel:
		return tracelog.LogLevelInfo
	case zerolog.WarnLevel:
		return tracelog.LogLevelWarn
	case zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel:
		return tracelog.LogLevelError
	default:
		return tracelog.LogLevelNone
	}
}
