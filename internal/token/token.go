// Package token defines the positioned, classified spans produced by lexers.
package token

import (
	"cmp"
	"fmt"
)

// Kind represents the syntactic classification of a token.
type Kind uint8

// Token kinds. The numbered variants (Keyword2, Type2, ...) let a language
// split a class into visually distinct groups.
const (
	KindDefault Kind = iota

	KindOperator
	KindDelimiter

	KindKeyword
	KindKeyword2

	KindType
	KindType2
	KindType3

	KindString
	KindString2
	KindNumber
	KindRegex

	KindIdentifier

	KindComment
	KindComment2

	KindWarning
	KindError

	// Sentinel for iteration
	kindCount
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsComment returns true for comment kinds.
func (k Kind) IsComment() bool {
	return k == KindComment || k == KindComment2
}

// IsString returns true for string-like kinds.
func (k Kind) IsString() bool {
	return k == KindString || k == KindString2 || k == KindRegex
}

// IsKeyword returns true for keyword kinds.
func (k Kind) IsKeyword() bool {
	return k == KindKeyword || k == KindKeyword2
}

// IsType returns true for type kinds.
func (k Kind) IsType() bool {
	return k >= KindType && k <= KindType3
}

// Kinds returns every defined kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, kindCount)
	for k := KindDefault; k < kindCount; k++ {
		out = append(out, k)
	}
	return out
}

// ParseKind converts a kind name ("keyword", "type2", ...) to a Kind.
func ParseKind(name string) (Kind, bool) {
	k, ok := nameToKind[name]
	return k, ok
}

var kindNames = []string{
	KindDefault:    "default",
	KindOperator:   "operator",
	KindDelimiter:  "delimiter",
	KindKeyword:    "keyword",
	KindKeyword2:   "keyword2",
	KindType:       "type",
	KindType2:      "type2",
	KindType3:      "type3",
	KindString:     "string",
	KindString2:    "string2",
	KindNumber:     "number",
	KindRegex:      "regex",
	KindIdentifier: "identifier",
	KindComment:    "comment",
	KindComment2:   "comment2",
	KindWarning:    "warning",
	KindError:      "error",
}

var nameToKind = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for i, name := range kindNames {
		m[name] = Kind(i)
	}
	return m
}()

// Token is a classified span of document text.
//
// Start and Length are byte offsets into the text that was lexed. Pair is
// zero for unpaired tokens; tokens whose Pair values share an absolute value
// match each other, positive values open and negative values close.
type Token struct {
	Kind   Kind
	Start  int
	Length int
	Pair   int
}

// New creates an unpaired token.
func New(kind Kind, start, length int) Token {
	return Token{Kind: kind, Start: start, Length: length}
}

// NewPaired creates a token with a pair weight.
func NewPaired(kind Kind, start, length, pair int) Token {
	return Token{Kind: kind, Start: start, Length: length, Pair: pair}
}

// End returns the offset just past the token.
func (t Token) End() int {
	return t.Start + t.Length
}

// Contains reports whether pos lies within the token, counting both
// boundaries as inside.
func (t Token) Contains(pos int) bool {
	return t.Start <= pos && pos <= t.End()
}

// Within reports whether the token lies inside a text of n bytes.
func (t Token) Within(n int) bool {
	return t.Start >= 0 && t.Length >= 0 && t.Start <= n && t.Length <= n-t.Start
}

// Overlaps reports whether the token intersects the half-open range [start, end).
func (t Token) Overlaps(start, end int) bool {
	return t.Start < end && t.End() > start
}

// IsPaired reports whether the token takes part in pair matching.
func (t Token) IsPaired() bool {
	return t.Pair != 0
}

// Opens reports whether the token is the opening half of a pair.
func (t Token) Opens() bool {
	return t.Pair > 0
}

// PairsWith reports whether t and other belong to the same pair class.
func (t Token) PairsWith(other Token) bool {
	return t.Pair != 0 && abs(t.Pair) == abs(other.Pair)
}

// Equal reports whether two tokens have the same start, length and kind.
// The pair weight is derived from the kind and text and is not compared.
func (t Token) Equal(other Token) bool {
	return t.Start == other.Start && t.Length == other.Length && t.Kind == other.Kind
}

// Text returns the token's text within src, or "" if the token lies
// outside src.
func (t Token) Text(src string) string {
	if !t.Within(len(src)) {
		return ""
	}
	return src[t.Start:t.End()]
}

// String returns a debug representation such as "keyword (4, 3)".
func (t Token) String() string {
	if t.Pair != 0 {
		return fmt.Sprintf("%s (%d, %d) pair=%d", t.Kind, t.Start, t.Length, t.Pair)
	}
	return fmt.Sprintf("%s (%d, %d)", t.Kind, t.Start, t.Length)
}

// Compare orders tokens by start, then length, then kind.
func Compare(a, b Token) int {
	if c := cmp.Compare(a.Start, b.Start); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Length, b.Length); c != 0 {
		return c
	}
	return cmp.Compare(a.Kind, b.Kind)
}

// ComparePosition orders tokens by start then length only. It is the key
// the index is sorted and searched by.
func ComparePosition(a, b Token) int {
	if c := cmp.Compare(a.Start, b.Start); c != 0 {
		return c
	}
	return cmp.Compare(a.Length, b.Length)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
