package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFind(t *testing.T) {
	s := New()
	text := "foo bar foo"

	m, ok, err := s.Find(text, "foo", 0, false)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Match{Start: 0, End: 3, Text: "foo"}, m)

	m, ok, err = s.Find(text, "foo", 1, false)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 8, m.Start)
	assert.Equal(t, 3, m.Len())

	_, ok, err = s.Find(text, "foo", 9, false)
	require.NoError(t, err)
	assert.False(t, ok, "no match after start without wrap")
}

func TestFindWrap(t *testing.T) {
	s := New()
	text := "foo bar"

	m, ok, err := s.Find(text, "foo", 2, true)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0, m.Start)

	_, ok, err = s.Find(text, "baz", 2, true)
	require.NoError(t, err)
	assert.False(t, ok, "full wrap finds nothing")

	m, ok, err = s.Find(text, "bar", 100, true)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 4, m.Start)
}

func TestFindGroups(t *testing.T) {
	s := New()
	m, ok, err := s.Find("key = value", `(\w+)\s*=\s*(\w+)?(x)?`, 0, false)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"key", "value", ""}, m.Groups)
}

func TestFindBackreference(t *testing.T) {
	s := New()
	m, ok, err := s.Find("a bb c dd", `(\w)\1`, 0, false)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "bb", m.Text)
}

func TestFindByteOffsets(t *testing.T) {
	s := New()
	text := "héllo wörld"

	m, ok, err := s.Find(text, "w.rld", 0, false)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, strings.Index(text, "wörld"), m.Start)
	assert.Equal(t, len(text), m.End)
	assert.Equal(t, "wörld", m.Text)

	// A start inside a multibyte rune begins at the next rune.
	m, ok, err = s.Find(text, "l+", 2, false)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ll", m.Text)
	assert.Equal(t, 3, m.Start)
}

func TestFindLiteral(t *testing.T) {
	s := New()
	text := "a.b a*b a.b"

	m, ok, err := s.FindLiteral(text, "a*b", 0, false)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 4, m.Start)

	m, ok, err = s.FindLiteral(text, "a.b", 1, false)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 8, m.Start)
}

func TestIgnoreCase(t *testing.T) {
	s := New(WithIgnoreCase(true))
	m, ok, err := s.Find("SELECT x", "select", 0, false)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "SELECT", m.Text)

	_, ok, err = New().Find("SELECT x", "select", 0, false)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInvalidPattern(t *testing.T) {
	s := New()

	_, _, err := s.Find("text", "(unclosed", 0, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPattern)

	var perr *PatternError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "(unclosed", perr.Pattern)

	_, err = s.FindAll("text", "[")
	assert.ErrorIs(t, err, ErrPattern)

	_, _, err = s.ReplaceAll("text", "*", "x")
	assert.ErrorIs(t, err, ErrPattern)
}

func TestCompileCaches(t *testing.T) {
	s := New()
	a, err := s.Compile(`\d+`)
	require.NoError(t, err)
	b, err := s.Compile(`\d+`)
	require.NoError(t, err)
	assert.Same(t, a, b)

	s.Flush()
	c, err := s.Compile(`\d+`)
	require.NoError(t, err)
	assert.NotSame(t, a, c)
}

func TestFindAll(t *testing.T) {
	s := New()
	matches, err := s.FindAll("a1 b22 c333", `\d+`)
	require.NoError(t, err)

	var got []string
	for _, m := range matches {
		got = append(got, m.Text)
	}
	assert.Equal(t, []string{"1", "22", "333"}, got)
	assert.Equal(t, 8, matches[2].Start)

	matches, err = s.FindAll("abc", `\d`)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestReplaceAll(t *testing.T) {
	s := New()

	out, n, err := s.ReplaceAll("foo bar foo", "foo", "baz")
	require.NoError(t, err)
	assert.Equal(t, "baz bar baz", out)
	assert.Equal(t, 2, n)

	out, n, err = s.ReplaceAll("key=value", `(\w+)=(\w+)`, "$2=$1")
	require.NoError(t, err)
	assert.Equal(t, "value=key", out)
	assert.Equal(t, 1, n)

	out, n, err = s.ReplaceAll("nothing here", "zzz", "x")
	require.NoError(t, err)
	assert.Equal(t, "nothing here", out)
	assert.Zero(t, n)
}

func TestReplaceAllIsSinglePass(t *testing.T) {
	s := New()
	// Replacement text containing the pattern is not rescanned.
	out, n, err := s.ReplaceAll("aa", "a", "aa")
	require.NoError(t, err)
	assert.Equal(t, "aaaa", out)
	assert.Equal(t, 2, n)
}
