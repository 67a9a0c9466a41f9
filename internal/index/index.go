// Package index provides an immutable, position-sorted token index with
// binary-search queries for the token at an offset, the tokens overlapping
// a range, and the partner of a paired token.
//
// An Index is built once per lexer run and never modified afterwards, so it
// can be shared freely between goroutines.
package index

import (
	"iter"
	"slices"

	"github.com/dshills/synpane/internal/token"
)

// Index is a sorted, immutable sequence of tokens for one text snapshot.
type Index struct {
	tokens []token.Token
}

var empty = &Index{}

// Empty returns the index of a document without a lexer.
func Empty() *Index {
	return empty
}

// New builds an index from lexer output. Tokens are kept in (Start, Length)
// order; input already in that order is used as is.
func New(tokens []token.Token) *Index {
	if len(tokens) == 0 {
		return empty
	}
	toks := slices.Clone(tokens)
	if !slices.IsSortedFunc(toks, token.ComparePosition) {
		slices.SortStableFunc(toks, token.ComparePosition)
	}
	return &Index{tokens: toks}
}

// Len returns the number of tokens.
func (x *Index) Len() int {
	return len(x.tokens)
}

// At returns the i'th token in order.
func (x *Index) At(i int) token.Token {
	return x.tokens[i]
}

// Tokens returns a copy of every token in order.
func (x *Index) Tokens() []token.Token {
	return slices.Clone(x.tokens)
}

// All iterates over every token in order.
func (x *Index) All() iter.Seq[token.Token] {
	return slices.Values(x.tokens)
}

// seek binary searches for probe by (Start, Length). It returns the
// insertion index and whether an exact position match was found.
func (x *Index) seek(probe token.Token) (int, bool) {
	return slices.BinarySearchFunc(x.tokens, probe, token.ComparePosition)
}

// backStep returns the index one before a missed seek, clamped to zero.
func backStep(i int) int {
	if i > 0 {
		return i - 1
	}
	return 0
}

// TokenAt returns the token covering pos. Both token boundaries count as
// covered; when one token ends where the next starts, the one starting at
// pos is returned. Gaps between tokens and positions outside the index
// report false.
func (x *Index) TokenAt(pos int) (token.Token, bool) {
	if len(x.tokens) == 0 {
		return token.Token{}, false
	}

	i, found := x.seek(token.New(token.KindDefault, pos, 1))
	if found {
		return x.tokens[i], true
	}
	if i < len(x.tokens) && x.tokens[i].Start == pos {
		return x.tokens[i], true
	}

	i = backStep(i)
	if tok := x.tokens[i]; tok.Contains(pos) {
		return tok, true
	}
	return token.Token{}, false
}

// first returns the position of the first token overlapping [start, end).
func (x *Index) first(start, end int) int {
	i, found := x.seek(token.New(token.KindDefault, start, end-start))
	if found || len(x.tokens) == 0 {
		return i
	}
	i = backStep(i)
	if x.tokens[i].End() <= start {
		i++
	}
	return i
}

// Range iterates, in order, over every token overlapping [start, end). The
// sequence reads the index it was created from and can be iterated more
// than once.
func (x *Index) Range(start, end int) iter.Seq[token.Token] {
	return func(yield func(token.Token) bool) {
		for i := x.first(start, end); i < len(x.tokens) && x.tokens[i].Start < end; i++ {
			if !yield(x.tokens[i]) {
				return
			}
		}
	}
}

// Slice returns the tokens overlapping [start, end) as a new slice.
func (x *Index) Slice(start, end int) []token.Token {
	return slices.Collect(x.Range(start, end))
}

// Iter returns a cursor over the tokens overlapping [start, end).
func (x *Index) Iter(start, end int) *Iterator {
	first := x.first(start, end)
	return &Iterator{idx: x, end: end, first: first, pos: first}
}

// Contains reports whether tok, with the same position and kind, is in the
// index.
func (x *Index) Contains(tok token.Token) bool {
	_, ok := x.find(tok)
	return ok
}

func (x *Index) find(tok token.Token) (int, bool) {
	i, found := x.seek(tok)
	if !found || !x.tokens[i].Equal(tok) {
		return i, false
	}
	return i, true
}

// PairOf returns the token matching tok. Scanning starts at tok and moves
// forward for openers and backward for closers, summing the pair weights of
// tokens in the same pair class; the token that brings the sum to zero is
// the match.
//
// Unpaired tokens, tokens that are not in this index, and unbalanced pairs
// report false.
func (x *Index) PairOf(tok token.Token) (token.Token, bool) {
	i, ok := x.find(tok)
	if !ok {
		return token.Token{}, false
	}
	tok = x.tokens[i]
	if !tok.IsPaired() {
		return token.Token{}, false
	}

	step := 1
	if !tok.Opens() {
		step = -1
	}

	weight := tok.Pair
	for j := i + step; j >= 0 && j < len(x.tokens); j += step {
		t := x.tokens[j]
		if !t.PairsWith(tok) {
			continue
		}
		weight += t.Pair
		if weight == 0 {
			return t, true
		}
	}
	return token.Token{}, false
}
