package lexer

import (
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dshills/synpane/internal/token"
)

// RuleLexer is a regex-driven lexer configured by a Definition.
//
// At each position it tries the definition's pairs, then its rules in
// order, and emits the first match. Identifier matches are looked up in
// the keyword table. Whitespace and bytes no rule recognizes are skipped.
type RuleLexer struct {
	def *Definition
	src string
	pos int
}

// NewRuleLexer creates a lexer for def.
func NewRuleLexer(def *Definition) *RuleLexer {
	return &RuleLexer{def: def}
}

// Reset reads the text to scan.
func (l *RuleLexer) Reset(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	l.src = string(data)
	l.pos = 0
	return nil
}

// Next returns the next token, or io.EOF.
func (l *RuleLexer) Next() (token.Token, error) {
	for l.pos < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		if unicode.IsSpace(r) {
			l.pos += size
			continue
		}

		if tok, ok := l.match(); ok {
			l.pos = tok.End()
			return tok, nil
		}

		// Unrecognized input is skipped like whitespace.
		l.pos += size
	}
	return token.Token{}, io.EOF
}

// Languages returns the languages this lexer scans.
func (l *RuleLexer) Languages() []string {
	return l.def.Languages()
}

// Definition returns the lexer's language definition.
func (l *RuleLexer) Definition() *Definition {
	return l.def
}

func (l *RuleLexer) match() (token.Token, bool) {
	rest := l.src[l.pos:]

	for _, p := range l.def.Pairs {
		if strings.HasPrefix(rest, p.Open) {
			return token.NewPaired(p.Kind, l.pos, len(p.Open), p.Weight), true
		}
		if strings.HasPrefix(rest, p.Close) {
			return token.NewPaired(p.Kind, l.pos, len(p.Close), -p.Weight), true
		}
	}

	for _, rule := range l.def.Rules {
		if rule.LineStart && !l.atLineStart() {
			continue
		}
		if rule.Follows != "" && !l.follows(rule.Follows) {
			continue
		}

		loc := rule.Pattern.FindStringIndex(rest)
		if loc == nil || loc[1] == 0 {
			continue
		}

		kind := rule.Kind
		if kind == token.KindIdentifier {
			kind = l.classify(rest[:loc[1]])
		}
		return token.New(kind, l.pos, loc[1]), true
	}

	return token.Token{}, false
}

// classify maps an identifier to its keyword kind, if any.
func (l *RuleLexer) classify(word string) token.Kind {
	if l.def.IgnoreCase {
		word = strings.ToLower(word)
	}
	if k, ok := l.def.Keywords[word]; ok {
		return k
	}
	return token.KindIdentifier
}

func (l *RuleLexer) atLineStart() bool {
	for i := l.pos - 1; i >= 0; i-- {
		switch l.src[i] {
		case ' ', '\t':
			continue
		case '\n':
			return true
		default:
			return false
		}
	}
	return true
}

func (l *RuleLexer) follows(set string) bool {
	for i := l.pos - 1; i >= 0; i-- {
		c := l.src[i]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			continue
		}
		return strings.IndexByte(set, c) >= 0
	}
	return true
}
