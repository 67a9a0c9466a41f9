package index

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/dshills/synpane/internal/token"
)

// "foo bar"
var fooBar = []token.Token{
	token.New(token.KindIdentifier, 0, 3),
	token.New(token.KindIdentifier, 4, 3),
}

// "(a(b)c)"
var nested = []token.Token{
	token.NewPaired(token.KindOperator, 0, 1, 1),
	token.New(token.KindIdentifier, 1, 1),
	token.NewPaired(token.KindOperator, 2, 1, 1),
	token.New(token.KindIdentifier, 3, 1),
	token.NewPaired(token.KindOperator, 4, 1, -1),
	token.New(token.KindIdentifier, 5, 1),
	token.NewPaired(token.KindOperator, 6, 1, -1),
}

func TestNewSortsAndCopies(t *testing.T) {
	in := []token.Token{fooBar[1], fooBar[0]}
	x := New(in)
	assert.Equal(t, fooBar, x.Tokens())

	in[0] = token.New(token.KindError, 99, 1)
	assert.Equal(t, fooBar, x.Tokens(), "index must not alias its input")

	assert.Same(t, Empty(), New(nil))
	assert.Zero(t, Empty().Len())
}

func TestTokenAt(t *testing.T) {
	x := New(fooBar)

	tests := []struct {
		pos  int
		want token.Token
		ok   bool
	}{
		{0, fooBar[0], true},
		{2, fooBar[0], true},
		{3, fooBar[0], true}, // closed interval: end counts
		{4, fooBar[1], true},
		{7, fooBar[1], true},
		{8, token.Token{}, false},
		{-1, token.Token{}, false},
		{100, token.Token{}, false},
	}
	for _, tt := range tests {
		got, ok := x.TokenAt(tt.pos)
		assert.Equal(t, tt.ok, ok, "pos %d", tt.pos)
		assert.Equal(t, tt.want, got, "pos %d", tt.pos)
	}
}

func TestTokenAtGap(t *testing.T) {
	x := New([]token.Token{
		token.New(token.KindKeyword, 0, 2),
		token.New(token.KindIdentifier, 6, 2),
	})
	for _, pos := range []int{3, 4, 5} {
		_, ok := x.TokenAt(pos)
		assert.False(t, ok, "pos %d is in a gap", pos)
	}
}

func TestTokenAtAdjacentPrefersStart(t *testing.T) {
	// "a+b": operator shares both boundaries with its neighbours
	x := New([]token.Token{
		token.New(token.KindIdentifier, 0, 1),
		token.New(token.KindOperator, 1, 1),
		token.New(token.KindIdentifier, 2, 1),
	})

	got, ok := x.TokenAt(1)
	require.True(t, ok)
	assert.Equal(t, token.KindOperator, got.Kind)

	got, ok = x.TokenAt(3)
	require.True(t, ok)
	assert.Equal(t, 2, got.Start)
}

func TestTokenAtEmpty(t *testing.T) {
	_, ok := Empty().TokenAt(0)
	assert.False(t, ok)
}

func TestRange(t *testing.T) {
	x := New(nested)

	assert.Equal(t, nested[1:4], x.Slice(1, 4))
	assert.Equal(t, nested, x.Slice(0, 100))
	assert.Equal(t, nested[6:], x.Slice(6, 7))
	assert.Empty(t, x.Slice(7, 10))
	assert.Empty(t, Empty().Slice(0, 10))

	// A range starting inside a token includes it.
	y := New(fooBar)
	assert.Equal(t, fooBar, y.Slice(1, 5))
	assert.Equal(t, fooBar[1:], y.Slice(3, 8), "token ending at start does not overlap")
}

func TestRangeIsRestartable(t *testing.T) {
	x := New(nested)
	seq := x.Range(2, 5)

	first := slices.Collect(seq)
	second := slices.Collect(seq)
	assert.Equal(t, first, second)
	assert.Len(t, first, 3)

	// Stopping early is honored.
	n := 0
	for range seq {
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestIterator(t *testing.T) {
	x := New(nested)
	it := x.Iter(1, 4)

	assert.False(t, it.HasPrev())
	var got []token.Token
	for tok, ok := it.Next(); ok; tok, ok = it.Next() {
		got = append(got, tok)
	}
	assert.Equal(t, nested[1:4], got)
	assert.False(t, it.HasNext())

	tok, ok := it.Prev()
	require.True(t, ok)
	assert.Equal(t, nested[3], tok)

	it.Reset()
	tok, ok = it.Next()
	require.True(t, ok)
	assert.Equal(t, nested[1], tok)

	_, ok = Empty().Iter(0, 10).Next()
	assert.False(t, ok)
}

func TestPairOfNested(t *testing.T) {
	x := New(nested)

	tests := []struct {
		from, want int
	}{
		{0, 6},
		{6, 0},
		{2, 4},
		{4, 2},
	}
	for _, tt := range tests {
		got, ok := x.PairOf(nested[tt.from])
		require.True(t, ok, "from %d", tt.from)
		assert.Equal(t, nested[tt.want], got, "from %d", tt.from)
	}
}

func TestPairOfNone(t *testing.T) {
	x := New(nested)

	_, ok := x.PairOf(nested[1])
	assert.False(t, ok, "unpaired token")

	_, ok = x.PairOf(token.NewPaired(token.KindOperator, 40, 1, 1))
	assert.False(t, ok, "token not in the index")

	_, ok = x.PairOf(token.NewPaired(token.KindDelimiter, 0, 1, 1))
	assert.False(t, ok, "kind differs from the indexed token")

	unbalanced := New(nested[:6])
	_, ok = unbalanced.PairOf(nested[0])
	assert.False(t, ok, "no closer left")

	_, ok = Empty().PairOf(nested[0])
	assert.False(t, ok)
}

func TestContains(t *testing.T) {
	x := New(fooBar)
	assert.True(t, x.Contains(fooBar[1]))
	assert.False(t, x.Contains(token.New(token.KindKeyword, 4, 3)), "kind differs")
	assert.False(t, x.Contains(token.New(token.KindIdentifier, 4, 2)))
	assert.False(t, Empty().Contains(fooBar[0]))
}

func TestPairOfIgnoresOtherClasses(t *testing.T) {
	// "([)]" with distinct pair classes still matches by class.
	x := New([]token.Token{
		token.NewPaired(token.KindOperator, 0, 1, 1),
		token.NewPaired(token.KindOperator, 1, 1, 2),
		token.NewPaired(token.KindOperator, 2, 1, -1),
		token.NewPaired(token.KindOperator, 3, 1, -2),
	})
	got, ok := x.PairOf(x.At(0))
	require.True(t, ok)
	assert.Equal(t, 2, got.Start)

	got, ok = x.PairOf(x.At(3))
	require.True(t, ok)
	assert.Equal(t, 1, got.Start)
}

// genTokens draws an ordered, non-overlapping token list with gaps.
func genTokens(t *rapid.T) []token.Token {
	n := rapid.IntRange(0, 40).Draw(t, "n")
	toks := make([]token.Token, 0, n)
	pos := 0
	for i := 0; i < n; i++ {
		pos += rapid.IntRange(0, 3).Draw(t, "gap")
		length := rapid.IntRange(1, 5).Draw(t, "length")
		kind := token.Kind(rapid.IntRange(0, len(token.Kinds())-1).Draw(t, "kind"))
		toks = append(toks, token.New(kind, pos, length))
		pos += length
	}
	return toks
}

func TestTokenAtMatchesLinearScan(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		toks := genTokens(t)
		x := New(toks)
		pos := rapid.IntRange(-2, 250).Draw(t, "pos")

		var want token.Token
		found := false
		for _, tok := range toks {
			if tok.Start == pos {
				want, found = tok, true
				break
			}
			if tok.Contains(pos) {
				want, found = tok, true
			}
		}

		got, ok := x.TokenAt(pos)
		if ok != found || got != want {
			t.Fatalf("TokenAt(%d) = %v, %v; want %v, %v", pos, got, ok, want, found)
		}
	})
}

func TestRangeMatchesLinearScan(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		toks := genTokens(t)
		x := New(toks)
		start := rapid.IntRange(-2, 250).Draw(t, "start")
		end := start + rapid.IntRange(1, 60).Draw(t, "span")

		var want []token.Token
		for _, tok := range toks {
			if tok.Overlaps(start, end) {
				want = append(want, tok)
			}
		}

		got := x.Slice(start, end)
		if !slices.Equal(got, want) {
			t.Fatalf("Slice(%d, %d) = %v; want %v", start, end, got, want)
		}
	})
}

func TestPairOfMatchesStack(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 30).Draw(t, "n")
		toks := make([]token.Token, n)
		for i := range toks {
			weight := rapid.SampledFrom([]int{1, -1, 2, -2, 0}).Draw(t, "weight")
			toks[i] = token.NewPaired(token.KindOperator, i, 1, weight)
		}
		x := New(toks)

		// Reference matching: a stack per pair class.
		partner := make(map[int]int)
		stacks := make(map[int][]int)
		for i, tok := range toks {
			class := tok.Pair
			if class < 0 {
				class = -class
			}
			switch {
			case tok.Pair > 0:
				stacks[class] = append(stacks[class], i)
			case tok.Pair < 0 && len(stacks[class]) > 0:
				open := stacks[class][len(stacks[class])-1]
				stacks[class] = stacks[class][:len(stacks[class])-1]
				partner[open] = i
				partner[i] = open
			}
		}

		for i, tok := range toks {
			got, ok := x.PairOf(tok)
			want, has := partner[i]
			if ok != has {
				t.Fatalf("PairOf(%v) found=%v, want %v", tok, ok, has)
			}
			if ok && got.Start != want {
				t.Fatalf("PairOf(%v) = %v, want start %d", tok, got, want)
			}
		}
	})
}
