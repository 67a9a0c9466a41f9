package lexer

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dshills/synpane/internal/token"
)

//go:embed languages/*.yaml
var builtinFS embed.FS

// ErrInvalidDefinition indicates a language definition could not be compiled.
var ErrInvalidDefinition = errors.New("invalid language definition")

// Rule matches one token class at the scan position.
type Rule struct {
	Kind    token.Kind
	Pattern *regexp.Regexp

	// LineStart restricts the rule to positions preceded only by
	// spaces or tabs on the current line.
	LineStart bool

	// Follows, when non-empty, restricts the rule to positions whose
	// previous non-space byte is one of these bytes (or the start of text).
	Follows string
}

// Pair is a literal opener/closer with its pair weight.
type Pair struct {
	Open   string
	Close  string
	Kind   token.Kind
	Weight int
}

// Definition is a compiled language description for the rule lexer.
type Definition struct {
	Name        string
	Aliases     []string
	Extensions  []string
	LineComment string
	IgnoreCase  bool
	Rules       []Rule
	Pairs       []Pair
	Keywords    map[string]token.Kind
}

// definitionFile is the YAML shape of a language definition.
type definitionFile struct {
	Name        string              `yaml:"name"`
	Aliases     []string            `yaml:"aliases"`
	Extensions  []string            `yaml:"extensions"`
	LineComment string              `yaml:"line_comment"`
	IgnoreCase  bool                `yaml:"ignore_case"`
	Pairs       []pairFile          `yaml:"pairs"`
	Rules       []ruleFile          `yaml:"rules"`
	Keywords    map[string][]string `yaml:"keywords"`
}

type pairFile struct {
	Open  string `yaml:"open"`
	Close string `yaml:"close"`
	Kind  string `yaml:"kind"`
}

type ruleFile struct {
	Kind      string `yaml:"kind"`
	Pattern   string `yaml:"pattern"`
	LineStart bool   `yaml:"line_start"`
	Follows   string `yaml:"follows"`
}

// LoadDefinition decodes and compiles a YAML language definition.
func LoadDefinition(r io.Reader) (*Definition, error) {
	var f definitionFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	return f.compile()
}

// LoadDefinitions loads every definition in fsys matching pattern.
func LoadDefinitions(fsys fs.FS, pattern string) ([]*Definition, error) {
	matches, err := fs.Glob(fsys, pattern)
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	defs := make([]*Definition, 0, len(matches))
	for _, name := range matches {
		f, err := fsys.Open(name)
		if err != nil {
			return nil, err
		}
		def, err := LoadDefinition(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path.Base(name), err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// BuiltinDefinitions returns the language definitions embedded in the binary.
func BuiltinDefinitions() ([]*Definition, error) {
	return LoadDefinitions(builtinFS, "languages/*.yaml")
}

func (f *definitionFile) compile() (*Definition, error) {
	if strings.TrimSpace(f.Name) == "" {
		return nil, fmt.Errorf("%w: missing name", ErrInvalidDefinition)
	}

	def := &Definition{
		Name:        f.Name,
		Aliases:     f.Aliases,
		Extensions:  f.Extensions,
		LineComment: f.LineComment,
		IgnoreCase:  f.IgnoreCase,
		Keywords:    make(map[string]token.Kind),
	}

	for i, p := range f.Pairs {
		if p.Open == "" || p.Close == "" {
			return nil, fmt.Errorf("%w: %s pair %d is empty", ErrInvalidDefinition, f.Name, i)
		}
		kind := token.KindOperator
		if p.Kind != "" {
			k, ok := token.ParseKind(p.Kind)
			if !ok {
				return nil, fmt.Errorf("%w: %s pair %d: unknown kind %q", ErrInvalidDefinition, f.Name, i, p.Kind)
			}
			kind = k
		}
		def.Pairs = append(def.Pairs, Pair{Open: p.Open, Close: p.Close, Kind: kind, Weight: i + 1})
	}

	for i, r := range f.Rules {
		kind, ok := token.ParseKind(r.Kind)
		if !ok {
			return nil, fmt.Errorf("%w: %s rule %d: unknown kind %q", ErrInvalidDefinition, f.Name, i, r.Kind)
		}
		re, err := regexp.Compile(`\A(?:` + r.Pattern + `)`)
		if err != nil {
			return nil, fmt.Errorf("%w: %s rule %d: %v", ErrInvalidDefinition, f.Name, i, err)
		}
		def.Rules = append(def.Rules, Rule{
			Kind:      kind,
			Pattern:   re,
			LineStart: r.LineStart,
			Follows:   r.Follows,
		})
	}

	for kindName, words := range f.Keywords {
		kind, ok := token.ParseKind(kindName)
		if !ok {
			return nil, fmt.Errorf("%w: %s keywords: unknown kind %q", ErrInvalidDefinition, f.Name, kindName)
		}
		for _, w := range words {
			if def.IgnoreCase {
				w = strings.ToLower(w)
			}
			def.Keywords[w] = kind
		}
	}

	return def, nil
}

// Factory returns a factory producing rule lexers for this definition.
func (d *Definition) Factory() Factory {
	return func() (Lexer, error) {
		return NewRuleLexer(d), nil
	}
}

// Languages returns the definition's name followed by its aliases.
func (d *Definition) Languages() []string {
	return append([]string{d.Name}, d.Aliases...)
}
