package document

import (
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/dshills/synpane/internal/lexer"
	"github.com/dshills/synpane/internal/logging"
	"github.com/dshills/synpane/internal/search"
)

// Default configuration values.
const (
	DefaultTabSize        = 4
	DefaultMaxUndoEntries = 1000
)

// Option configures a Document during creation.
type Option func(*Document)

// WithContent sets the initial text.
func WithContent(content string) Option {
	return func(d *Document) {
		d.buf.text = content
	}
}

// WithLexer sets the lexer used to tokenize the text. Without one the
// index stays empty.
func WithLexer(lx lexer.Lexer) Option {
	return func(d *Document) {
		d.lexer = lx
	}
}

// WithLogger sets the logger.
func WithLogger(log *logging.Logger) Option {
	return func(d *Document) {
		if log != nil {
			d.log = log
		}
	}
}

// WithTracer sets the tracer used for re-lex spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(d *Document) {
		if tracer != nil {
			d.tracer = tracer
		}
	}
}

// WithMaxUndoEntries sets the maximum number of undo history entries.
func WithMaxUndoEntries(max int) Option {
	return func(d *Document) {
		if max > 0 {
			d.maxUndo = max
		}
	}
}

// WithTabSize sets the indentation width used by Indent and Unindent.
func WithTabSize(size int) Option {
	return func(d *Document) {
		if size > 0 {
			d.tabSize = size
		}
	}
}

// WithCoalesce merges consecutive typed insertions arriving within window
// into one undo unit.
func WithCoalesce(window time.Duration) Option {
	return func(d *Document) {
		d.coalesce = window
	}
}

// WithSearchWrap makes Find wrap around to the start of the text.
func WithSearchWrap(wrap bool) Option {
	return func(d *Document) {
		d.wrap = wrap
	}
}

// WithSearcher sets the searcher used by the search operations.
func WithSearcher(s *search.Searcher) Option {
	return func(d *Document) {
		if s != nil {
			d.searcher = s
		}
	}
}

// WithLineComment sets the default line comment prefix for ToggleComments.
func WithLineComment(prefix string) Option {
	return func(d *Document) {
		d.lineComment = prefix
	}
}

// WithReadOnly creates a read-only document.
// Write operations will return ErrReadOnly.
func WithReadOnly() Option {
	return func(d *Document) {
		d.readOnly = true
	}
}
