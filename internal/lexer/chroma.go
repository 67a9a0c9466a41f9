package lexer

import (
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"

	"github.com/dshills/synpane/internal/token"
)

// chromaPairs assigns pair weights to single-rune brackets.
var chromaPairs = map[rune]int{
	'(': 1, ')': -1,
	'[': 2, ']': -2,
	'{': 3, '}': -3,
}

// ChromaLexer adapts a chroma lexer to the Lexer contract. Chroma emits a
// contiguous stream of typed values; this adapter converts them to offsets,
// drops whitespace and splits bracket runes into paired tokens.
type ChromaLexer struct {
	lexer  chroma.Lexer
	name   string
	tokens []token.Token
	next   int
}

// NewChroma creates a lexer backed by chroma's lexer for name.
func NewChroma(name string) (*ChromaLexer, error) {
	l := lexers.Get(name)
	if l == nil {
		return nil, fmt.Errorf("chroma %q: %w", name, ErrUnknownLanguage)
	}
	return &ChromaLexer{lexer: l, name: strings.ToLower(l.Config().Name)}, nil
}

// ChromaFallback resolves any language chroma knows about. It is meant to
// be installed with Registry.SetFallback.
func ChromaFallback(name string) (Factory, bool) {
	if lexers.Get(name) == nil {
		return nil, false
	}
	return func() (Lexer, error) {
		return NewChroma(name)
	}, true
}

// Reset tokenizes the whole input up front.
func (l *ChromaLexer) Reset(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	// Offsets are counted against the raw input, so line endings stay as is.
	it, err := l.lexer.Tokenise(&chroma.TokeniseOptions{State: "root"}, string(data))
	if err != nil {
		return err
	}

	l.tokens = l.tokens[:0]
	l.next = 0
	offset := 0
	for t := it(); t != chroma.EOF; t = it() {
		l.emit(t, offset)
		offset += len(t.Value)
	}
	return nil
}

// Next returns the next token, or io.EOF.
func (l *ChromaLexer) Next() (token.Token, error) {
	if l.next >= len(l.tokens) {
		return token.Token{}, io.EOF
	}
	tok := l.tokens[l.next]
	l.next++
	return tok, nil
}

// Languages returns the chroma lexer's name and aliases.
func (l *ChromaLexer) Languages() []string {
	return append([]string{l.name}, l.lexer.Config().Aliases...)
}

func (l *ChromaLexer) emit(t chroma.Token, offset int) {
	kind, ok := chromaKind(t.Type)
	if !ok {
		return
	}

	if kind == token.KindOperator || kind == token.KindDelimiter {
		l.emitSplit(kind, t.Value, offset)
		return
	}

	start, end := trimSpan(t.Value)
	if start == end {
		return
	}
	l.tokens = append(l.tokens, token.New(kind, offset+start, end-start))
}

// emitSplit breaks punctuation runs so that each bracket is its own paired
// token and whitespace never lands inside a token.
func (l *ChromaLexer) emitSplit(kind token.Kind, value string, offset int) {
	runStart := -1
	flush := func(end int) {
		if runStart >= 0 {
			l.tokens = append(l.tokens, token.New(kind, offset+runStart, end-runStart))
			runStart = -1
		}
	}

	for i, r := range value {
		switch {
		case unicode.IsSpace(r):
			flush(i)
		case chromaPairs[r] != 0:
			flush(i)
			l.tokens = append(l.tokens, token.NewPaired(kind, offset+i, utf8.RuneLen(r), chromaPairs[r]))
		default:
			if runStart < 0 {
				runStart = i
			}
		}
	}
	flush(len(value))
}

func trimSpan(s string) (int, int) {
	start := len(s) - len(strings.TrimLeftFunc(s, unicode.IsSpace))
	end := len(strings.TrimRightFunc(s, unicode.IsSpace))
	if end < start {
		end = start
	}
	return start, end
}

// chromaKind maps a chroma token type to a kind. It reports false for
// types that carry no highlighting (plain text and whitespace).
func chromaKind(tt chroma.TokenType) (token.Kind, bool) {
	switch {
	case tt == chroma.TextWhitespace || tt == chroma.Text:
		return 0, false
	case tt == chroma.KeywordType:
		return token.KindType, true
	case tt == chroma.KeywordConstant:
		return token.KindKeyword2, true
	case tt.InCategory(chroma.Keyword):
		return token.KindKeyword, true
	case tt == chroma.NameBuiltin || tt == chroma.NameBuiltinPseudo:
		return token.KindType2, true
	case tt == chroma.NameClass || tt == chroma.NameException:
		return token.KindType, true
	case tt == chroma.NameDecorator:
		return token.KindType3, true
	case tt.InCategory(chroma.Name):
		return token.KindIdentifier, true
	case tt == chroma.LiteralStringRegex:
		return token.KindRegex, true
	case tt == chroma.LiteralStringChar || tt == chroma.LiteralStringDoc || tt == chroma.LiteralStringBacktick:
		return token.KindString2, true
	case tt.InSubCategory(chroma.LiteralString):
		return token.KindString, true
	case tt.InSubCategory(chroma.LiteralNumber):
		return token.KindNumber, true
	case tt == chroma.CommentPreproc || tt == chroma.CommentPreprocFile || tt == chroma.CommentSpecial:
		return token.KindComment2, true
	case tt.InCategory(chroma.Comment):
		return token.KindComment, true
	case tt.InCategory(chroma.Operator):
		return token.KindOperator, true
	case tt.InCategory(chroma.Punctuation):
		return token.KindDelimiter, true
	case tt == chroma.Error:
		return token.KindError, true
	default:
		return token.KindDefault, true
	}
}
