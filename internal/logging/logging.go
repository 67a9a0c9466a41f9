// Package logging provides the structured logger used across synpane.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Level represents the severity level of a log message.
type Level int

const (
	// LevelDebug is for detailed debugging information.
	LevelDebug Level = iota
	// LevelInfo is for general informational messages.
	LevelInfo
	// LevelWarn is for warning messages.
	LevelWarn
	// LevelError is for error messages.
	LevelError
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) zerolog() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// ParseLevel parses a level name. It reports false for unknown names and
// returns LevelInfo in that case.
func ParseLevel(s string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, true
	case "info":
		return LevelInfo, true
	case "warn", "warning":
		return LevelWarn, true
	case "error":
		return LevelError, true
	default:
		return LevelInfo, false
	}
}

// Output formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Config configures a logger.
type Config struct {
	// Level is the minimum level written.
	Level Level
	// Format is FormatConsole or FormatJSON.
	Format string
	// Output is where logs are written. Defaults to os.Stderr.
	Output io.Writer
}

// DefaultConfig returns the default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Format: FormatConsole,
		Output: os.Stderr,
	}
}

// Logger writes leveled, structured log lines. A Logger is immutable;
// the With methods return derived loggers.
type Logger struct {
	zl    zerolog.Logger
	level Level
	nop   bool
}

// New creates a logger.
func New(cfg Config) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Format != FormatJSON {
		out = zerolog.ConsoleWriter{Out: out, NoColor: true, TimeFormat: "2006-01-02T15:04:05.000"}
	}

	zl := zerolog.New(out).Level(cfg.Level.zerolog()).With().Timestamp().Logger()
	return &Logger{zl: zl, level: cfg.Level}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop(), level: LevelError, nop: true}
}

// WithField returns a new logger with the given field added.
func (l *Logger) WithField(key string, value any) *Logger {
	return l.derive(l.zl.With().Interface(key, value).Logger())
}

// WithFields returns a new logger with the given fields added.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	return l.derive(l.zl.With().Fields(fields).Logger())
}

// WithComponent returns a new logger with the component field set.
func (l *Logger) WithComponent(component string) *Logger {
	return l.derive(l.zl.With().Str("component", component).Logger())
}

func (l *Logger) derive(zl zerolog.Logger) *Logger {
	return &Logger{zl: zl, level: l.level, nop: l.nop}
}

// WithLevel returns a copy of the logger with a different minimum level.
func (l *Logger) WithLevel(level Level) *Logger {
	return &Logger{zl: l.zl.Level(level.zerolog()), level: level, nop: l.nop}
}

// Enabled reports whether messages at level are written.
func (l *Logger) Enabled(level Level) bool {
	return !l.nop && level >= l.level
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...any) {
	logf(l.zl.Debug(), msg, args)
}

// Info logs an info message.
func (l *Logger) Info(msg string, args ...any) {
	logf(l.zl.Info(), msg, args)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...any) {
	logf(l.zl.Warn(), msg, args)
}

// Error logs an error message.
func (l *Logger) Error(msg string, args ...any) {
	logf(l.zl.Error(), msg, args)
}

// Event starts a message with typed fields, for hot paths that should not
// format a string.
func (l *Logger) Event(level Level) *zerolog.Event {
	return l.zl.WithLevel(level.zerolog())
}

func logf(e *zerolog.Event, msg string, args []any) {
	if e == nil {
		return
	}
	if len(args) > 0 {
		e.Msgf(msg, args...)
		return
	}
	e.Msg(msg)
}
