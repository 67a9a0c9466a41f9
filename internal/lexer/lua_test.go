package lexer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/synpane/internal/token"
)

const wordsScript = `
languages = {"words", "wordlist"}
extensions = {".words"}

function lex(text)
  local out = {}
  local i = 1
  while true do
    local s, e = string.find(text, "%a+", i)
    if s == nil then break end
    local kind = "identifier"
    if string.sub(text, s, e) == "if" then kind = "keyword" end
    table.insert(out, {kind = kind, start = s - 1, length = e - s + 1})
    i = e + 1
  end
  return out
end
`

func compile(t *testing.T, src string) *Script {
	t.Helper()
	s, err := CompileScript("test.lua", strings.NewReader(src))
	require.NoError(t, err)
	return s
}

func TestLuaLexer(t *testing.T) {
	s := compile(t, wordsScript)
	assert.Equal(t, []string{"words", "wordlist"}, s.Languages())
	assert.Equal(t, []string{".words"}, s.Extensions())

	lx, err := s.NewLexer()
	require.NoError(t, err)
	defer lx.Close()

	toks, err := Tokenize(lx, "if  foo, bar")
	require.NoError(t, err)
	assert.Equal(t, []token.Token{
		token.New(token.KindKeyword, 0, 2),
		token.New(token.KindIdentifier, 4, 3),
		token.New(token.KindIdentifier, 9, 3),
	}, toks)
}

func TestLuaLexerDefaultsLanguageToFileName(t *testing.T) {
	s, err := CompileScript("/scripts/ledger.lua", strings.NewReader(`function lex(text) return {} end`))
	require.NoError(t, err)
	assert.Equal(t, []string{"ledger"}, s.Languages())
}

func TestLuaLexerContractViolation(t *testing.T) {
	s := compile(t, `
function lex(text)
  return {
    {kind = "keyword", start = 0, length = 3},
    {kind = "keyword", start = 1, length = 1},
  }
end`)
	lx, err := s.NewLexer()
	require.NoError(t, err)
	defer lx.Close()

	_, err = Tokenize(lx, "abcd")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLexerFailure)
	assert.ErrorIs(t, err, ErrContract)

	var lexErr *Error
	require.ErrorAs(t, err, &lexErr)
	assert.Equal(t, "test", lexErr.Language)
}

func TestLuaLexerRejectsBadTokens(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not a table", `return 42`},
		{"unknown kind", `return {{kind = "sparkle", start = 0, length = 1}}`},
		{"past end", `return {{kind = "keyword", start = 2, length = 10}}`},
		{"span overflows", `return {{kind = "keyword", start = 2^62, length = 2^62}}`},
		{"runtime error", `error("boom")`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := compile(t, "function lex(text)\n"+tt.body+"\nend")
			lx, err := s.NewLexer()
			require.NoError(t, err)
			defer lx.Close()

			_, err = Tokenize(lx, "abcd")
			assert.ErrorIs(t, err, ErrLexerFailure)
		})
	}
}

func TestLuaLexerSandbox(t *testing.T) {
	_, err := CompileScript("evil.lua", strings.NewReader(`dofile("/etc/passwd")
function lex(text) return {} end`))
	assert.Error(t, err)

	_, err = CompileScript("noio.lua", strings.NewReader(`io.write("x")
function lex(text) return {} end`))
	assert.Error(t, err)
}

func TestLuaLexerMissingLex(t *testing.T) {
	_, err := CompileScript("empty.lua", strings.NewReader(`x = 1`))
	assert.Error(t, err)

	_, err = CompileScript("syntax.lua", strings.NewReader(`function (`))
	assert.Error(t, err)
}

func TestLuaLexerTimeout(t *testing.T) {
	s := compile(t, `function lex(text) while true do end end`)
	s.SetTimeout(50 * time.Millisecond)

	lx, err := s.NewLexer()
	require.NoError(t, err)
	defer lx.Close()

	start := time.Now()
	_, err = Tokenize(lx, "x")
	assert.ErrorIs(t, err, ErrLexerFailure)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRegisterScripts(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "words.lua"), []byte(wordsScript), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	reg := NewRegistry()
	names, err := reg.RegisterScripts(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"words"}, names)

	lang, ok := reg.ForFile("list.words")
	require.True(t, ok)
	assert.Equal(t, "words", lang)

	lx, err := reg.New("wordlist")
	require.NoError(t, err)
	toks, err := Tokenize(lx, "a b")
	require.NoError(t, err)
	assert.Len(t, toks, 2)

	names, err = reg.RegisterScripts(filepath.Join(dir, "missing"))
	assert.NoError(t, err)
	assert.Empty(t, names)
}
