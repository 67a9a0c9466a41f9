package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/synpane/internal/config"
	"github.com/dshills/synpane/internal/document"
	"github.com/dshills/synpane/internal/lexer"
	"github.com/dshills/synpane/internal/logging"
	"github.com/dshills/synpane/internal/search"
	"github.com/dshills/synpane/internal/telemetry"
)

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	configPath string
	language   string
	logLevel   string
	trace      bool
}

// env is what subcommands need to open documents. It is built once per
// invocation from the configuration and flags.
type env struct {
	cfg      config.Config
	log      *logging.Logger
	registry *lexer.Registry
	tracing  *telemetry.Provider
	language string
}

func newRootCmd() *cobra.Command {
	var (
		flags globalFlags
		e     env
	)

	root := &cobra.Command{
		Use:   "synpane",
		Short: "Tokenize, query and edit source files",
		Long: `synpane lexes source files into syntax tokens and answers questions
about them: which token is at an offset, where a bracket's partner is,
and where a pattern matches. It can also apply search-and-replace.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.setup(cmd, flags)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return e.shutdown(cmd.Context())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", defaultConfigPath(), "config file")
	pf.StringVarP(&flags.language, "lang", "l", "", "language (default: detected from the file extension)")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.BoolVar(&flags.trace, "trace", false, "write re-lex trace spans to stderr")

	root.AddCommand(
		newTokensCmd(&e),
		newAtCmd(&e),
		newPairsCmd(&e),
		newFindCmd(&e),
		newReplaceCmd(&e),
		newLangsCmd(&e),
		newWatchCmd(&e),
	)
	return root
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "synpane", "config.toml")
}

func (e *env) setup(cmd *cobra.Command, flags globalFlags) error {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}
	if flags.logLevel != "" {
		if _, ok := logging.ParseLevel(flags.logLevel); !ok {
			return fmt.Errorf("invalid log level %q (must be debug, info, warn, or error)", flags.logLevel)
		}
		cfg.Logging.Level = strings.ToLower(flags.logLevel)
	}
	if flags.trace {
		cfg.Tracing.Enabled = true
	}
	e.cfg = cfg

	e.log = logging.New(logging.Config{
		Level:  cfg.LogLevel(),
		Format: cfg.Logging.Format,
		Output: cmd.ErrOrStderr(),
	})

	e.tracing, err = telemetry.NewProvider(telemetry.Config{
		Enabled:     cfg.Tracing.Enabled,
		Output:      cmd.ErrOrStderr(),
		Pretty:      true,
		ServiceName: "synpane",
	})
	if err != nil {
		return err
	}

	e.registry, err = lexer.Builtin()
	if err != nil {
		return err
	}
	if cfg.Lexers.ScriptDir != "" {
		names, err := e.registry.RegisterScripts(cfg.Lexers.ScriptDir)
		if err != nil {
			return fmt.Errorf("loading lexer scripts: %w", err)
		}
		if len(names) > 0 {
			e.log.Debug("registered lexer scripts: %s", strings.Join(names, ", "))
		}
	}
	if cfg.Lexers.ChromaFallback {
		e.registry.SetFallback(lexer.ChromaFallback)
	}

	e.language = flags.language
	return nil
}

func (e *env) shutdown(ctx context.Context) error {
	if e.tracing == nil {
		return nil
	}
	return e.tracing.Shutdown(ctx)
}

// languageFor picks the language for path: the --lang flag, then the file
// extension, then the configured default.
func (e *env) languageFor(path string) (string, error) {
	if e.language != "" {
		return e.language, nil
	}
	if name, ok := e.registry.ForFile(path); ok {
		return name, nil
	}
	if e.cfg.Lexers.DefaultLanguage != "" {
		return e.cfg.Lexers.DefaultLanguage, nil
	}
	return "", fmt.Errorf("%s: cannot detect language, use --lang", path)
}

// open loads path into a new document lexed with the file's language.
func (e *env) open(path string, opts ...document.Option) (*document.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	lx, err := e.newLexer(path)
	if err != nil {
		return nil, err
	}

	base := []document.Option{
		document.WithLexer(lx),
		document.WithLogger(e.log.WithField("file", path)),
		document.WithTracer(e.tracing.Tracer()),
		document.WithTabSize(e.cfg.Document.TabSize),
		document.WithMaxUndoEntries(e.cfg.Document.MaxUndo),
		document.WithCoalesce(e.cfg.CoalesceWindow()),
		document.WithSearchWrap(e.cfg.Search.Wrap),
		document.WithSearcher(e.searcher()),
	}
	if def, ok := lx.(*lexer.RuleLexer); ok {
		base = append(base, document.WithLineComment(def.Definition().LineComment))
	}
	doc, err := document.NewFromReader(f, append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	e.log.Debug("opened %s as %s (document %s)", path, strings.Join(doc.Languages(), "/"), doc.ID())
	return doc, nil
}

func (e *env) newLexer(path string) (lexer.Lexer, error) {
	name, err := e.languageFor(path)
	if err != nil {
		return nil, err
	}
	return e.registry.New(name)
}

func (e *env) searcher(opts ...search.Option) *search.Searcher {
	base := []search.Option{
		search.WithCacheTTL(e.cfg.Search.CacheTTL.Duration()),
		search.WithIgnoreCase(e.cfg.Search.IgnoreCase),
	}
	return search.New(append(base, opts...)...)
}
