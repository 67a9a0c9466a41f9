package index

import "github.com/dshills/synpane/internal/token"

// Iterator is a bidirectional cursor over the tokens overlapping a range.
// It reads the index it was created from and is not affected by later
// edits to the document.
type Iterator struct {
	idx   *Index
	end   int
	first int
	pos   int
}

// Next returns the next token in the range.
func (it *Iterator) Next() (token.Token, bool) {
	if !it.HasNext() {
		return token.Token{}, false
	}
	tok := it.idx.tokens[it.pos]
	it.pos++
	return tok, true
}

// HasNext reports whether Next would return a token.
func (it *Iterator) HasNext() bool {
	return it.pos < len(it.idx.tokens) && it.idx.tokens[it.pos].Start < it.end
}

// Prev steps back and returns the token before the cursor.
func (it *Iterator) Prev() (token.Token, bool) {
	if !it.HasPrev() {
		return token.Token{}, false
	}
	it.pos--
	return it.idx.tokens[it.pos], true
}

// HasPrev reports whether Prev would return a token.
func (it *Iterator) HasPrev() bool {
	return it.pos > it.first
}

// Reset moves the cursor back to the first token of the range.
func (it *Iterator) Reset() {
	it.pos = it.first
}
