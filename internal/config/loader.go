package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SYNPANE_"

// Load reads the configuration file at path on top of the defaults and
// applies environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
		default:
			if err := decode(path, data, &cfg); err != nil {
				return Config{}, err
			}
		}
	}

	if err := ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// LoadFromReader reads configuration from r on top of the defaults. The
// environment is not consulted.
func LoadFromReader(r io.Reader) (Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := decode("<reader>", data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// decode parses TOML data into cfg. Unknown keys are rejected.
func decode(source string, data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		perr := &ParseError{Path: source, Message: err.Error(), Err: err}

		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			perr.Line, perr.Column = derr.Position()
		}
		var serr *toml.StrictMissingError
		if errors.As(err, &serr) {
			perr.Message = "unknown setting: " + strings.TrimSpace(serr.String())
		}
		return perr
	}
	return nil
}

// LookupFunc looks up an environment variable.
type LookupFunc func(key string) (string, bool)

// envSetters maps each supported environment variable to the setting it
// overrides.
var envSetters = map[string]func(cfg *Config, v string) error{
	"LOG_LEVEL": func(cfg *Config, v string) error {
		cfg.Logging.Level = strings.ToLower(v)
		return nil
	},
	"LOG_FORMAT": func(cfg *Config, v string) error {
		cfg.Logging.Format = strings.ToLower(v)
		return nil
	},
	"TAB_SIZE": func(cfg *Config, v string) error {
		return setInt(&cfg.Document.TabSize, v)
	},
	"MAX_UNDO": func(cfg *Config, v string) error {
		return setInt(&cfg.Document.MaxUndo, v)
	},
	"COALESCE_WINDOW": func(cfg *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		cfg.Document.CoalesceWindow = Duration(d)
		return nil
	},
	"SEARCH_WRAP": func(cfg *Config, v string) error {
		return setBool(&cfg.Search.Wrap, v)
	},
	"LEXER_DIR": func(cfg *Config, v string) error {
		cfg.Lexers.ScriptDir = v
		return nil
	},
	"DEFAULT_LANGUAGE": func(cfg *Config, v string) error {
		cfg.Lexers.DefaultLanguage = v
		return nil
	},
	"TRACE": func(cfg *Config, v string) error {
		return setBool(&cfg.Tracing.Enabled, v)
	},
}

// ApplyEnv overrides settings from SYNPANE_* variables found by lookup.
// Empty values are treated as set.
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	var errs []error
	for name, set := range envSetters {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			continue
		}
		if err := set(cfg, v); err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
		}
	}
	return errors.Join(errs...)
}

func setInt(dst *int, v string) error {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return err
	}
	*dst = n
	return nil
}

func setBool(dst *bool, v string) error {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "yes", "on", "1":
		*dst = true
	case "false", "no", "off", "0":
		*dst = false
	default:
		return fmt.Errorf("invalid boolean %q", v)
	}
	return nil
}
