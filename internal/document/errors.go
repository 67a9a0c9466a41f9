package document

import (
	"errors"
	"fmt"

	"github.com/dshills/synpane/internal/lexer"
	"github.com/dshills/synpane/internal/search"
)

// Errors returned by document operations.
var (
	// ErrOutOfBounds indicates an offset or length outside the text.
	ErrOutOfBounds = errors.New("offset out of bounds")

	// ErrReadOnly indicates a write to a read-only document.
	ErrReadOnly = errors.New("document is read-only")

	// ErrStaleToken indicates a token that is not in the current index.
	ErrStaleToken = errors.New("token is not in the current index")

	// ErrNoLineComment indicates the document has no line comment prefix.
	ErrNoLineComment = errors.New("no line comment prefix configured")

	// ErrLexerFailure is lexer.ErrLexerFailure, re-exported for callers
	// that only import this package.
	ErrLexerFailure = lexer.ErrLexerFailure

	// ErrPattern is search.ErrPattern, re-exported.
	ErrPattern = search.ErrPattern
)

// BoundsError describes a rejected offset range.
type BoundsError struct {
	Op     string
	Offset int
	Length int
	Len    int

	// Split is set when the range is within the text but cuts a UTF-8
	// sequence.
	Split bool
}

func (e *BoundsError) Error() string {
	if e.Split {
		return fmt.Sprintf("%s [%d,%d): splits a UTF-8 sequence", e.Op, e.Offset, e.Offset+e.Length)
	}
	return fmt.Sprintf("%s [%d,%d): outside text of length %d", e.Op, e.Offset, e.Offset+e.Length, e.Len)
}

// Unwrap returns ErrOutOfBounds.
func (e *BoundsError) Unwrap() error {
	return ErrOutOfBounds
}
