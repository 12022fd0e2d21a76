// Package logging defines the leveled logger capability consumed by the SDK.
// Host applications can plug in their own sink; the default writes to
// standard error via log/slog.
package logging

import (
	"log/slog"
	"os"
)

// Level controls logger verbosity. Higher levels are more verbose.
type Level int

const (
	LevelNone Level = iota
	LevelError
	LevelWarning
	LevelInfo
	LevelDebug
)

// String returns the lowercase level name.
func (l Level) String() string {
	switch l {
	case LevelNone:
		return "none"
	case LevelError:
		return "error"
	case LevelWarning:
		return "warning"
	case LevelInfo:
		return "info"
	case LevelDebug:
		return "debug"
	default:
		return "unknown"
	}
}

// ParseLevel maps a level name to a Level. Unknown names default to info.
func ParseLevel(s string) Level {
	switch s {
	case "none":
		return LevelNone
	case "error":
		return LevelError
	case "warning", "warn":
		return LevelWarning
	case "debug":
		return LevelDebug
	default:
		return LevelInfo
	}
}

// Logger is the sink interface the SDK logs through.
// Messages below the implementation's threshold are dropped.
type Logger interface {
	Log(level Level, msg string, args ...any)
}

// slogLogger adapts a *slog.Logger to the Logger interface with
// threshold filtering.
type slogLogger struct {
	logger    *slog.Logger
	threshold Level
}

// NewSlog returns a Logger backed by slog, writing text to stderr.
// Messages above the given threshold are dropped; LevelNone drops everything.
func NewSlog(threshold Level) Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	return &slogLogger{
		logger:    slog.New(handler).With("component", "deferlink"),
		threshold: threshold,
	}
}

// Wrap adapts an existing slog.Logger with threshold filtering.
func Wrap(logger *slog.Logger, threshold Level) Logger {
	return &slogLogger{logger: logger, threshold: threshold}
}

func (s *slogLogger) Log(level Level, msg string, args ...any) {
	if level == LevelNone || level > s.threshold {
		return
	}
	switch level {
	case LevelError:
		s.logger.Error(msg, args...)
	case LevelWarning:
		s.logger.Warn(msg, args...)
	case LevelInfo:
		s.logger.Info(msg, args...)
	case LevelDebug:
		s.logger.Debug(msg, args...)
	}
}

// nopLogger discards everything.
type nopLogger struct{}

// Nop returns a Logger that discards all messages.
func Nop() Logger {
	return nopLogger{}
}

func (nopLogger) Log(Level, string, ...any) {}
