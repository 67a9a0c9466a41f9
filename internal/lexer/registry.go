package lexer

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// FallbackFunc resolves languages that were not registered explicitly.
type FallbackFunc func(name string) (Factory, bool)

type registration struct {
	name       string
	factory    Factory
	extensions []string
}

// Registry maps language names and file extensions to lexer factories.
// It is populated explicitly at startup.
type Registry struct {
	mu       sync.RWMutex
	byName   map[string]*registration
	byExt    map[string]string
	fallback FallbackFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]*registration),
		byExt:  make(map[string]string),
	}
}

// Builtin returns a registry populated with the embedded language definitions.
func Builtin() (*Registry, error) {
	defs, err := BuiltinDefinitions()
	if err != nil {
		return nil, err
	}

	r := NewRegistry()
	for _, def := range defs {
		if err := r.RegisterDefinition(def); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a factory under name and any aliases derived from the
// extensions. Names are case-insensitive.
func (r *Registry) Register(name string, factory Factory, extensions ...string) error {
	return r.register([]string{name}, factory, extensions)
}

// RegisterDefinition registers a rule lexer for a language definition,
// including its aliases and extensions.
func (r *Registry) RegisterDefinition(def *Definition) error {
	names := append([]string{def.Name}, def.Aliases...)
	return r.register(names, def.Factory(), def.Extensions)
}

func (r *Registry) register(names []string, factory Factory, extensions []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, n := range names {
		if _, exists := r.byName[normalizeName(n)]; exists {
			return fmt.Errorf("register %q: %w", n, ErrDuplicateLanguage)
		}
	}

	reg := &registration{
		name:       normalizeName(names[0]),
		factory:    factory,
		extensions: extensions,
	}
	for _, n := range names {
		r.byName[normalizeName(n)] = reg
	}
	for _, ext := range extensions {
		r.byExt[normalizeExt(ext)] = reg.name
	}
	return nil
}

// SetFallback installs a resolver consulted when Lookup misses.
func (r *Registry) SetFallback(fn FallbackFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = fn
}

// Lookup returns the factory registered for name.
func (r *Registry) Lookup(name string) (Factory, bool) {
	r.mu.RLock()
	reg, ok := r.byName[normalizeName(name)]
	fallback := r.fallback
	r.mu.RUnlock()

	if ok {
		return reg.factory, true
	}
	if fallback != nil && name != "" {
		return fallback(name)
	}
	return nil, false
}

// New creates a lexer for name.
func (r *Registry) New(name string) (Lexer, error) {
	factory, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownLanguage)
	}
	return factory()
}

// ForFile returns the language registered for the file's extension.
func (r *Registry) ForFile(path string) (string, bool) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.byExt[normalizeExt(ext)]
	return name, ok
}

// Languages returns the primary names of all registered languages, sorted.
func (r *Registry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool, len(r.byName))
	out := make([]string, 0, len(r.byName))
	for _, reg := range r.byName {
		if seen[reg.name] {
			continue
		}
		seen[reg.name] = true
		out = append(out, reg.name)
	}
	sort.Strings(out)
	return out
}

// Extensions returns the extensions registered for a language.
func (r *Registry) Extensions(name string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.byName[normalizeName(name)]
	if !ok {
		return nil
	}
	return append([]string(nil), reg.extensions...)
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
