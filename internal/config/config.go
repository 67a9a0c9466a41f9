// Package config loads synpane settings from a TOML file and the
// environment.
//
// Settings are layered: built-in defaults, then the file, then SYNPANE_*
// environment variables. A Config is a plain value; callers pass it down
// explicitly.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/dshills/synpane/internal/logging"
)

// Config holds every synpane setting.
type Config struct {
	Document DocumentConfig `toml:"document"`
	Search   SearchConfig   `toml:"search"`
	Lexers   LexersConfig   `toml:"lexers"`
	Logging  LoggingConfig  `toml:"logging"`
	Tracing  TracingConfig  `toml:"tracing"`
}

// DocumentConfig configures documents.
type DocumentConfig struct {
	TabSize        int      `toml:"tab_size"`
	MaxUndo        int      `toml:"max_undo"`
	CoalesceTyping bool     `toml:"coalesce_typing"`
	CoalesceWindow Duration `toml:"coalesce_window"`
}

// SearchConfig configures Find and ReplaceAll.
type SearchConfig struct {
	Wrap       bool     `toml:"wrap"`
	CacheTTL   Duration `toml:"cache_ttl"`
	IgnoreCase bool     `toml:"ignore_case"`
}

// LexersConfig configures the language registry.
type LexersConfig struct {
	// DefaultLanguage is used when a file's language cannot be detected.
	DefaultLanguage string `toml:"default_language"`
	// ScriptDir holds *.lua lexer scripts registered at startup.
	ScriptDir string `toml:"script_dir"`
	// ChromaFallback resolves unknown languages through chroma.
	ChromaFallback bool `toml:"chroma_fallback"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// TracingConfig configures re-lex tracing.
type TracingConfig struct {
	Enabled bool `toml:"enabled"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Document: DocumentConfig{
			TabSize:        4,
			MaxUndo:        1000,
			CoalesceTyping: true,
			CoalesceWindow: Duration(time.Second),
		},
		Search: SearchConfig{
			Wrap:     true,
			CacheTTL: Duration(10 * time.Minute),
		},
		Lexers: LexersConfig{
			ChromaFallback: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: logging.FormatConsole,
		},
	}
}

// Validate checks every setting and returns all problems found.
func (c Config) Validate() error {
	var errs []error
	if c.Document.TabSize < 1 || c.Document.TabSize > 16 {
		errs = append(errs, fieldError("document.tab_size", c.Document.TabSize, "must be between 1 and 16"))
	}
	if c.Document.MaxUndo < 1 {
		errs = append(errs, fieldError("document.max_undo", c.Document.MaxUndo, "must be positive"))
	}
	if c.Document.CoalesceWindow < 0 {
		errs = append(errs, fieldError("document.coalesce_window", c.Document.CoalesceWindow, "must not be negative"))
	}
	if c.Search.CacheTTL <= 0 {
		errs = append(errs, fieldError("search.cache_ttl", c.Search.CacheTTL, "must be positive"))
	}
	if _, ok := logging.ParseLevel(c.Logging.Level); !ok {
		errs = append(errs, fieldError("logging.level", c.Logging.Level, "unknown level"))
	}
	if c.Logging.Format != logging.FormatConsole && c.Logging.Format != logging.FormatJSON {
		errs = append(errs, fieldError("logging.format", c.Logging.Format, "must be console or json"))
	}
	return errors.Join(errs...)
}

// CoalesceWindow returns the typing coalesce window, or zero when
// coalescing is off.
func (c Config) CoalesceWindow() time.Duration {
	if !c.Document.CoalesceTyping {
		return 0
	}
	return c.Document.CoalesceWindow.Duration()
}

// LogLevel returns the configured logging level.
func (c Config) LogLevel() logging.Level {
	level, _ := logging.ParseLevel(c.Logging.Level)
	return level
}

func fieldError(path string, value any, msg string) error {
	return &ValidationError{Path: path, Message: msg, Value: value}
}

// Duration is a time.Duration written as a string such as "1s" or "10m".
type Duration time.Duration

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Duration returns d as a time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}
