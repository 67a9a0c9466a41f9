// Package search implements regular-expression search and replace over
// document text.
//
// Patterns use the regexp2 dialect (backreferences, lookaround, inline
// options) and replacements use $1 / ${name} group references. Offsets in
// and out of this package are byte offsets; compiled patterns are cached.
package search

import (
	"errors"
	"fmt"
	"slices"
	"time"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
	gocache "github.com/patrickmn/go-cache"
)

// ErrPattern indicates a malformed search pattern.
var ErrPattern = errors.New("invalid pattern")

// DefaultCacheTTL is how long compiled patterns stay cached.
const DefaultCacheTTL = 10 * time.Minute

// PatternError reports a pattern that failed to compile.
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("pattern %q: %v", e.Pattern, e.Err)
}

// Unwrap exposes both ErrPattern and the compiler's error.
func (e *PatternError) Unwrap() []error {
	return []error{ErrPattern, e.Err}
}

// Match is one pattern match. Start and End are byte offsets.
type Match struct {
	Start  int
	End    int
	Text   string
	Groups []string
}

// Len returns the match length in bytes.
func (m Match) Len() int {
	return m.End - m.Start
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithIgnoreCase makes every pattern case-insensitive.
func WithIgnoreCase(ignore bool) Option {
	return func(s *Searcher) {
		s.ignoreCase = ignore
	}
}

// WithCacheTTL sets how long compiled patterns are cached.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Searcher) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithMatchTimeout bounds the time a single match may take.
func WithMatchTimeout(d time.Duration) Option {
	return func(s *Searcher) {
		s.timeout = d
	}
}

// Searcher compiles, caches and runs patterns. It is safe for concurrent use.
type Searcher struct {
	cache      *gocache.Cache
	ttl        time.Duration
	ignoreCase bool
	timeout    time.Duration
}

// New creates a searcher.
func New(opts ...Option) *Searcher {
	s := &Searcher{ttl: DefaultCacheTTL}
	for _, opt := range opts {
		opt(s)
	}
	s.cache = gocache.New(s.ttl, 3*s.ttl)
	return s
}

// Compile returns the compiled form of pattern, from the cache if present.
func (s *Searcher) Compile(pattern string) (*regexp2.Regexp, error) {
	key := pattern
	if s.ignoreCase {
		key = "(?i)" + pattern
	}
	if v, ok := s.cache.Get(key); ok {
		if re, ok := v.(*regexp2.Regexp); ok {
			return re, nil
		}
	}

	opts := regexp2.None
	if s.ignoreCase {
		opts |= regexp2.IgnoreCase
	}
	re, err := regexp2.Compile(pattern, opts)
	if err != nil {
		return nil, &PatternError{Pattern: pattern, Err: err}
	}
	if s.timeout > 0 {
		re.MatchTimeout = s.timeout
	}

	s.cache.Set(key, re, gocache.DefaultExpiration)
	return re, nil
}

// Quote returns a pattern matching literal text.
func Quote(literal string) string {
	return regexp2.Escape(literal)
}

// Find returns the first match of pattern at or after byte offset start.
// With wrap set, a failed search is retried from the beginning of text.
func (s *Searcher) Find(text, pattern string, start int, wrap bool) (Match, bool, error) {
	re, err := s.Compile(pattern)
	if err != nil {
		return Match{}, false, err
	}

	src := newSource(text)
	m, err := re.FindRunesMatchStartingAt(src.runes, src.runeIndex(start))
	if err != nil {
		return Match{}, false, err
	}
	if m == nil && wrap && start > 0 {
		m, err = re.FindRunesMatchStartingAt(src.runes, 0)
		if err != nil {
			return Match{}, false, err
		}
	}
	if m == nil {
		return Match{}, false, nil
	}
	return src.match(m), true, nil
}

// FindLiteral is Find for a literal string.
func (s *Searcher) FindLiteral(text, literal string, start int, wrap bool) (Match, bool, error) {
	return s.Find(text, Quote(literal), start, wrap)
}

// FindAll returns every non-overlapping match of pattern in text.
func (s *Searcher) FindAll(text, pattern string) ([]Match, error) {
	re, err := s.Compile(pattern)
	if err != nil {
		return nil, err
	}

	src := newSource(text)
	var out []Match
	m, err := re.FindRunesMatchStartingAt(src.runes, 0)
	for m != nil && err == nil {
		out = append(out, src.match(m))
		m, err = re.FindNextMatch(m)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReplaceAll substitutes every match of pattern in text in a single pass
// and returns the new text with the number of replacements.
func (s *Searcher) ReplaceAll(text, pattern, replacement string) (string, int, error) {
	re, err := s.Compile(pattern)
	if err != nil {
		return "", 0, err
	}

	matches, err := s.FindAll(text, pattern)
	if err != nil {
		return "", 0, err
	}
	if len(matches) == 0 {
		return text, 0, nil
	}

	out, err := re.Replace(text, replacement, -1, -1)
	if err != nil {
		return "", 0, err
	}
	return out, len(matches), nil
}

// Flush drops every cached pattern.
func (s *Searcher) Flush() {
	s.cache.Flush()
}

// source maps between the rune indices regexp2 works in and byte offsets.
type source struct {
	text    string
	runes   []rune
	offsets []int // byte offset of each rune, plus len(text)
}

func newSource(text string) *source {
	src := &source{
		text:    text,
		runes:   make([]rune, 0, len(text)),
		offsets: make([]int, 0, len(text)+1),
	}
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		src.runes = append(src.runes, r)
		src.offsets = append(src.offsets, i)
		i += size
	}
	src.offsets = append(src.offsets, len(text))
	return src
}

// runeIndex converts a byte offset to the index of the first rune at or
// after it, clamped to the text.
func (src *source) runeIndex(offset int) int {
	i, _ := slices.BinarySearch(src.offsets, offset)
	return min(i, len(src.runes))
}

func (src *source) byteOffset(runeIndex int) int {
	return src.offsets[runeIndex]
}

func (src *source) match(m *regexp2.Match) Match {
	start := src.byteOffset(m.Index)
	end := src.byteOffset(m.Index + m.Length)

	out := Match{Start: start, End: end, Text: src.text[start:end]}
	groups := m.Groups()
	for _, g := range groups[1:] {
		if len(g.Captures) == 0 {
			out.Groups = append(out.Groups, "")
			continue
		}
		out.Groups = append(out.Groups, g.String())
	}
	return out
}
