// Package lexer defines the pluggable scanner contract used to tokenize
// document text, along with the lexer implementations and the language
// registry that maps language names to lexer factories.
package lexer

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dshills/synpane/internal/token"
)

// Errors returned by lexers and the registry.
var (
	// ErrLexerFailure indicates a lexer could not scan its input.
	ErrLexerFailure = errors.New("lexer failure")

	// ErrUnknownLanguage indicates no lexer is registered for a language.
	ErrUnknownLanguage = errors.New("unknown language")

	// ErrDuplicateLanguage indicates a language name is already registered.
	ErrDuplicateLanguage = errors.New("language already registered")

	// ErrContract indicates a lexer produced tokens out of order or
	// overlapping a previous token.
	ErrContract = errors.New("lexer produced unordered or overlapping tokens")
)

// Lexer scans text into tokens.
//
// Reset prepares the lexer to scan the text read from r. Next returns the
// following token, or io.EOF once the input is exhausted. Tokens must be
// returned in non-decreasing Start order and must not overlap a previously
// returned token; whitespace gaps are not represented.
//
// A Lexer is stateful and belongs to a single document.
type Lexer interface {
	Reset(r io.Reader) error
	Next() (token.Token, error)
	Languages() []string
}

// Factory creates a fresh lexer instance.
type Factory func() (Lexer, error)

// Error wraps a failure raised while lexing.
type Error struct {
	Language string
	Err      error
}

func (e *Error) Error() string {
	if e.Language == "" {
		return fmt.Sprintf("lexer: %v", e.Err)
	}
	return fmt.Sprintf("lexer %s: %v", e.Language, e.Err)
}

// Unwrap exposes both ErrLexerFailure and the underlying cause.
func (e *Error) Unwrap() []error {
	return []error{ErrLexerFailure, e.Err}
}

// Tokenize resets lx with text and drains it. On failure no partial token
// list is returned.
func Tokenize(lx Lexer, text string) ([]token.Token, error) {
	if err := lx.Reset(strings.NewReader(text)); err != nil {
		return nil, &Error{Language: primaryLanguage(lx), Err: err}
	}

	toks := make([]token.Token, 0, len(text)/10)
	prevEnd := 0
	for {
		tok, err := lx.Next()
		if errors.Is(err, io.EOF) {
			return toks, nil
		}
		if err != nil {
			return nil, &Error{Language: primaryLanguage(lx), Err: err}
		}
		if tok.Start < prevEnd || !tok.Within(len(text)) {
			return nil, &Error{
				Language: primaryLanguage(lx),
				Err:      fmt.Errorf("token %d %s: %w", len(toks), tok, ErrContract),
			}
		}
		prevEnd = tok.End()
		toks = append(toks, tok)
	}
}

func primaryLanguage(lx Lexer) string {
	langs := lx.Languages()
	if len(langs) == 0 {
		return ""
	}
	return langs[0]
}
