package document

import (
	"iter"

	"github.com/dshills/synpane/internal/index"
	"github.com/dshills/synpane/internal/token"
)

// TokenAt returns the token covering pos, with both ends inclusive. When
// pos is the boundary of two adjacent tokens, the one starting at pos is
// returned.
func (d *Document) TokenAt(pos int) (token.Token, bool) {
	return d.Index().TokenAt(pos)
}

// Tokens iterates over the tokens overlapping [start, end) in the index
// current at the time of the call.
func (d *Document) Tokens(start, end int) iter.Seq[token.Token] {
	return d.Index().Range(start, end)
}

// TokenIter returns a bidirectional cursor over the tokens overlapping
// [start, end).
func (d *Document) TokenIter(start, end int) *index.Iterator {
	return d.Index().Iter(start, end)
}

// PairOf returns the token matching tok. Tokens from an older index that
// are no longer present report false.
func (d *Document) PairOf(tok token.Token) (token.Token, bool) {
	return d.Index().PairOf(tok)
}

// PairAt returns the paired token at pos and its match. A match is only
// reported when both exist in the current index.
func (d *Document) PairAt(pos int) (tok, pair token.Token, ok bool) {
	idx := d.Index()
	tok, found := idx.TokenAt(pos)
	if !found || !tok.IsPaired() {
		// The cursor may sit right after a closer: "(a)|".
		tok, found = idx.TokenAt(pos - 1)
		if !found || !tok.IsPaired() {
			return token.Token{}, token.Token{}, false
		}
	}
	pair, ok = idx.PairOf(tok)
	if !ok {
		return token.Token{}, token.Token{}, false
	}
	return tok, pair, true
}

// MarkTokens returns every token with the same length and text as tok,
// tok included. A token not in the current index returns nil.
func (d *Document) MarkTokens(tok token.Token) []token.Token {
	s := d.Snapshot()
	if !s.Index.Contains(tok) {
		return nil
	}
	text := tok.Text(s.Text)

	var marks []token.Token
	for t := range s.Index.All() {
		if t.Length == tok.Length && t.Text(s.Text) == text {
			marks = append(marks, t)
		}
	}
	return marks
}

// ReplaceToken replaces the span of tok with text. The token must be
// present in the current index.
func (d *Document) ReplaceToken(tok token.Token, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.snap.Load().Index.Contains(tok) {
		return ErrStaleToken
	}
	return d.replaceLocked(tok.Start, tok.Length, text, true)
}

