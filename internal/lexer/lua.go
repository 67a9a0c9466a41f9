package lexer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"

	"github.com/dshills/synpane/internal/token"
)

// DefaultScriptTimeout bounds a single lex call of a Lua script.
const DefaultScriptTimeout = 2 * time.Second

// Script is a compiled Lua lexer script.
//
// A script must define a global function lex(text) returning an array of
// tables {kind = "keyword", start = 0, length = 3, pair = 0}, with zero-based
// byte offsets. It may also define global arrays "languages" and
// "extensions"; the file name is used when "languages" is absent.
type Script struct {
	name       string
	proto      *lua.FunctionProto
	languages  []string
	extensions []string
	timeout    time.Duration
}

// CompileScript compiles Lua source into a script.
func CompileScript(name string, r io.Reader) (*Script, error) {
	chunk, err := parse.Parse(r, name)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	proto, err := lua.Compile(chunk, name)
	if err != nil {
		return nil, fmt.Errorf("compiling %s: %w", name, err)
	}

	s := &Script{name: name, proto: proto, timeout: DefaultScriptTimeout}

	// Run once to read the declared metadata and check lex exists.
	lx, err := s.NewLexer()
	if err != nil {
		return nil, err
	}
	defer lx.Close()
	s.languages = stringList(lx.state.GetGlobal("languages"))
	s.extensions = stringList(lx.state.GetGlobal("extensions"))
	if len(s.languages) == 0 {
		s.languages = []string{strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))}
	}
	return s, nil
}

// LoadScript compiles the Lua file at path.
func LoadScript(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return CompileScript(path, f)
}

// Languages returns the languages the script declares.
func (s *Script) Languages() []string {
	return s.languages
}

// Extensions returns the file extensions the script declares.
func (s *Script) Extensions() []string {
	return s.extensions
}

// SetTimeout changes the per-call execution bound.
func (s *Script) SetTimeout(d time.Duration) {
	if d > 0 {
		s.timeout = d
	}
}

// Factory returns a factory creating one Lua state per lexer.
func (s *Script) Factory() Factory {
	return func() (Lexer, error) {
		return s.NewLexer()
	}
}

// NewLexer creates a lexer with its own sandboxed Lua state.
func (s *Script) NewLexer() (*LuaLexer, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(L)

	L.Push(L.NewFunctionFromProto(s.proto))
	if err := L.PCall(0, lua.MultRet, nil); err != nil {
		L.Close()
		return nil, fmt.Errorf("loading %s: %w", s.name, err)
	}
	if fn, ok := L.GetGlobal("lex").(*lua.LFunction); !ok || fn == nil {
		L.Close()
		return nil, fmt.Errorf("%s: global function lex is not defined", s.name)
	}

	return &LuaLexer{script: s, state: L}, nil
}

// openSafeLibraries opens the Lua libraries that cannot reach the host.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		L.SetGlobal(name, lua.LNil)
	}
}

// LuaLexer runs a Script against document text.
type LuaLexer struct {
	script *Script
	state  *lua.LState
	tokens []token.Token
	next   int
}

// Reset runs the script's lex function over the input and validates the
// returned tokens.
func (l *LuaLexer) Reset(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	text := string(data)

	ctx, cancel := context.WithTimeout(context.Background(), l.script.timeout)
	defer cancel()
	l.state.SetContext(ctx)
	defer l.state.RemoveContext()

	err = l.state.CallByParam(lua.P{
		Fn:      l.state.GetGlobal("lex"),
		NRet:    1,
		Protect: true,
	}, lua.LString(text))
	if err != nil {
		return fmt.Errorf("%s: %w", l.script.name, err)
	}
	ret := l.state.Get(-1)
	l.state.Pop(1)

	toks, err := decodeTokens(ret, len(text))
	if err != nil {
		return fmt.Errorf("%s: %w", l.script.name, err)
	}
	l.tokens = toks
	l.next = 0
	return nil
}

// Next returns the next token, or io.EOF.
func (l *LuaLexer) Next() (token.Token, error) {
	if l.next >= len(l.tokens) {
		return token.Token{}, io.EOF
	}
	tok := l.tokens[l.next]
	l.next++
	return tok, nil
}

// Languages returns the languages declared by the script.
func (l *LuaLexer) Languages() []string {
	return l.script.languages
}

// Close releases the Lua state.
func (l *LuaLexer) Close() error {
	l.state.Close()
	return nil
}

func decodeTokens(v lua.LValue, textLen int) ([]token.Token, error) {
	tbl, ok := v.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("lex returned %s, want table", v.Type())
	}

	n := tbl.Len()
	toks := make([]token.Token, 0, n)
	prevEnd := 0
	for i := 1; i <= n; i++ {
		entry, ok := tbl.RawGetInt(i).(*lua.LTable)
		if !ok {
			return nil, fmt.Errorf("token %d: not a table", i)
		}

		kindName := lua.LVAsString(entry.RawGetString("kind"))
		kind, ok := token.ParseKind(kindName)
		if !ok {
			return nil, fmt.Errorf("token %d: unknown kind %q", i, kindName)
		}
		tok := token.Token{
			Kind:   kind,
			Start:  int(lua.LVAsNumber(entry.RawGetString("start"))),
			Length: int(lua.LVAsNumber(entry.RawGetString("length"))),
			Pair:   int(lua.LVAsNumber(entry.RawGetString("pair"))),
		}

		if !tok.Within(textLen) {
			return nil, fmt.Errorf("token %d %s: outside text of length %d", i, tok, textLen)
		}
		if tok.Start < prevEnd {
			return nil, fmt.Errorf("token %d %s: %w", i, tok, ErrContract)
		}
		prevEnd = tok.End()
		toks = append(toks, tok)
	}
	return toks, nil
}

func stringList(v lua.LValue) []string {
	tbl, ok := v.(*lua.LTable)
	if !ok {
		return nil
	}
	var out []string
	for i := 1; i <= tbl.Len(); i++ {
		if s, ok := tbl.RawGetInt(i).(lua.LString); ok {
			out = append(out, string(s))
		}
	}
	return out
}

// RegisterScripts compiles every *.lua file in dir and registers it.
// A missing directory is not an error.
func (r *Registry) RegisterScripts(dir string) ([]string, error) {
	if dir == "" {
		return nil, nil
	}
	paths, err := filepath.Glob(filepath.Join(dir, "*.lua"))
	if err != nil {
		return nil, err
	}

	var registered []string
	for _, path := range paths {
		script, err := LoadScript(path)
		if err != nil {
			return registered, err
		}
		if err := r.register(script.Languages(), script.Factory(), script.Extensions()); err != nil {
			return registered, err
		}
		registered = append(registered, script.Languages()[0])
	}
	return registered, nil
}
