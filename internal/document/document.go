// Package document provides SyntaxDocument: editable text kept in sync
// with a token index.
//
// Every change goes through Replace, which records the edit for undo,
// re-lexes the whole text and publishes a new immutable Snapshot. Queries
// read the current snapshot with a single atomic load and never block on
// writers; writers are serialized.
package document

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dshills/synpane/internal/history"
	"github.com/dshills/synpane/internal/index"
	"github.com/dshills/synpane/internal/lexer"
	"github.com/dshills/synpane/internal/logging"
	"github.com/dshills/synpane/internal/search"
	"github.com/dshills/synpane/internal/telemetry"
)

// Snapshot is a consistent view of a document: its text, the token index
// for that text, and the revision that produced them. If the last re-lex
// failed, Index is the last good index.
type Snapshot struct {
	Text     string
	Index    *index.Index
	Revision uint64
}

// Document is an editable text with a token index, undo history and
// search.
type Document struct {
	mu sync.Mutex

	id       uuid.UUID
	buf      textBuffer
	snap     atomic.Pointer[Snapshot]
	revision uint64

	lexer    lexer.Lexer
	history  *history.History
	searcher *search.Searcher

	log    *logging.Logger
	tracer trace.Tracer

	// Configuration
	tabSize     int
	maxUndo     int
	coalesce    time.Duration
	wrap        bool
	lineComment string
	readOnly    bool
}

// New creates a document and lexes its initial content.
func New(opts ...Option) (*Document, error) {
	d := &Document{
		id:      uuid.New(),
		log:     logging.Nop(),
		tracer:  telemetry.NopTracer(),
		tabSize: DefaultTabSize,
		maxUndo: DefaultMaxUndoEntries,
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.searcher == nil {
		d.searcher = search.New()
	}
	d.history = history.New(d.maxUndo)
	d.history.SetCoalesce(d.coalesce)
	d.log = d.log.WithComponent("document").WithField("document", d.id.String())

	d.snap.Store(&Snapshot{Text: d.buf.text, Index: index.Empty()})
	if err := d.relexLocked(); err != nil {
		return nil, err
	}
	return d, nil
}

// NewFromReader creates a document with the content read from r.
func NewFromReader(r io.Reader, opts ...Option) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return New(append([]Option{WithContent(string(data))}, opts...)...)
}

// ID returns the document's unique identifier.
func (d *Document) ID() uuid.UUID {
	return d.id
}

// Snapshot returns the current text, index and revision.
func (d *Document) Snapshot() *Snapshot {
	return d.snap.Load()
}

// Text returns the full text.
func (d *Document) Text() string {
	return d.snap.Load().Text
}

// Len returns the text length in bytes.
func (d *Document) Len() int {
	return len(d.snap.Load().Text)
}

// Revision returns a counter that increases with every change to the text.
func (d *Document) Revision() uint64 {
	return d.snap.Load().Revision
}

// Index returns the current token index.
func (d *Document) Index() *index.Index {
	return d.snap.Load().Index
}

// TextRange returns the text in [start, end).
func (d *Document) TextRange(start, end int) (string, error) {
	s := d.snap.Load()
	if start < 0 || end < start || end > len(s.Text) {
		return "", &BoundsError{Op: "read", Offset: start, Length: end - start, Len: len(s.Text)}
	}
	return s.Text[start:end], nil
}

// Languages returns the languages of the document's lexer.
func (d *Document) Languages() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lexer == nil {
		return nil
	}
	return d.lexer.Languages()
}

// ============================================================================
// Write Operations
// ============================================================================

// Replace removes deleteLen bytes at offset and inserts text there, as one
// undoable edit, then re-lexes the text.
//
// An invalid range returns a *BoundsError and changes nothing. A lexer
// failure is returned after the edit has been applied; the previous index
// is kept in that case.
func (d *Document) Replace(offset, deleteLen int, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.replaceLocked(offset, deleteLen, text, true)
}

// ReplaceUntracked is Replace without an undo record. Undo entries that
// overlap the changed text can no longer be applied afterwards.
func (d *Document) ReplaceUntracked(offset, deleteLen int, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.replaceLocked(offset, deleteLen, text, false)
}

// Insert inserts text at offset.
func (d *Document) Insert(offset int, text string) error {
	return d.Replace(offset, 0, text)
}

// Delete removes length bytes at offset.
func (d *Document) Delete(offset, length int) error {
	return d.Replace(offset, length, "")
}

// SetText replaces the whole text as one undoable edit.
func (d *Document) SetText(text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.replaceLocked(0, d.buf.Len(), text, true)
}

func (d *Document) replaceLocked(offset, deleteLen int, text string, track bool) error {
	if d.readOnly {
		return ErrReadOnly
	}
	if err := d.buf.check("replace", offset, deleteLen); err != nil {
		return err
	}
	if deleteLen == 0 && text == "" {
		return nil
	}

	old := d.buf.text[offset : offset+deleteLen]
	edit := history.NewEdit(offset, old, text)
	if err := edit.Execute(&d.buf); err != nil {
		return err
	}
	if track {
		d.history.Push(edit)
	}

	d.revision++
	return d.relexLocked()
}

// ============================================================================
// Undo/Redo
// ============================================================================

// Undo reverses the most recent undoable edit and re-lexes. With nothing
// to undo it does nothing.
func (d *Document) Undo() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stepLocked(d.history.Undo, history.ErrNothingToUndo, "undo")
}

// Redo re-applies the most recently undone edit and re-lexes. With
// nothing to redo it does nothing.
func (d *Document) Redo() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stepLocked(d.history.Redo, history.ErrNothingToRedo, "redo")
}

func (d *Document) stepLocked(step func(history.Buffer) error, empty error, op string) error {
	if d.readOnly {
		return ErrReadOnly
	}
	err := step(&d.buf)
	if errors.Is(err, empty) {
		return nil
	}
	if err != nil {
		d.log.Warn("%s failed: %v", op, err)
		return err
	}

	d.revision++
	return d.relexLocked()
}

// CanUndo reports whether Undo would change the text.
func (d *Document) CanUndo() bool {
	return d.history.CanUndo()
}

// CanRedo reports whether Redo would change the text.
func (d *Document) CanRedo() bool {
	return d.history.CanRedo()
}

// UndoDescription describes the edit Undo would reverse.
func (d *Document) UndoDescription() (string, bool) {
	info, ok := d.history.PeekUndo()
	return info.Description, ok
}

// ClearHistory discards all undo and redo entries.
func (d *Document) ClearHistory() {
	d.history.Clear()
}

// BeginGroup starts collecting edits into one undo unit named name.
// Groups nest.
func (d *Document) BeginGroup(name string) {
	d.history.BeginGroup(name)
}

// EndGroup closes the innermost group.
func (d *Document) EndGroup() {
	d.history.EndGroup()
}

// CancelGroup abandons all open groups and reverts the edits made in them.
func (d *Document) CancelGroup() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.history.RollbackGroup(&d.buf); err != nil {
		return err
	}
	d.revision++
	return d.relexLocked()
}

// Transaction runs fn as one undo unit. If fn returns an error, its edits
// are reverted.
func (d *Document) Transaction(name string, fn func() error) error {
	d.BeginGroup(name)
	if err := fn(); err != nil {
		if cerr := d.CancelGroup(); cerr != nil {
			return errors.Join(err, cerr)
		}
		return err
	}
	d.EndGroup()
	return nil
}

// ============================================================================
// Lexing
// ============================================================================

// SetLexer switches the document to a different lexer and re-lexes. A nil
// lexer leaves the index empty.
func (d *Document) SetLexer(lx lexer.Lexer) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.closeLexerLocked(); err != nil {
		d.log.Warn("closing lexer: %v", err)
	}
	d.lexer = lx
	return d.relexLocked()
}

// Close releases the lexer if it holds resources.
func (d *Document) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closeLexerLocked()
}

func (d *Document) closeLexerLocked() error {
	if c, ok := d.lexer.(io.Closer); ok {
		d.lexer = nil
		return c.Close()
	}
	return nil
}

// relexLocked tokenizes the buffer and publishes a new snapshot. On lexer
// failure the new text is published with the previous index.
func (d *Document) relexLocked() error {
	text := d.buf.text
	prev := d.snap.Load()

	if d.lexer == nil {
		d.snap.Store(&Snapshot{Text: text, Index: index.Empty(), Revision: d.revision})
		return nil
	}

	_, span := d.tracer.Start(context.Background(), "document.relex",
		trace.WithAttributes(attribute.Int("synpane.length", len(text))))
	defer span.End()

	start := time.Now()
	toks, err := lexer.Tokenize(d.lexer, text)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		d.log.Error("relex failed, keeping previous index: %v", err)
		d.snap.Store(&Snapshot{Text: text, Index: prev.Index, Revision: d.revision})
		return err
	}

	idx := index.New(toks)
	span.SetAttributes(attribute.Int("synpane.tokens", idx.Len()))
	d.snap.Store(&Snapshot{Text: text, Index: idx, Revision: d.revision})

	d.log.Event(logging.LevelDebug).
		Int("length", len(text)).
		Int("tokens", idx.Len()).
		Dur("elapsed", time.Since(start)).
		Msg("relexed")
	return nil
}

// commentPrefix returns prefix, or the configured default when prefix is empty.
func (d *Document) commentPrefix(prefix string) (string, error) {
	if prefix == "" {
		prefix = d.lineComment
	}
	prefix = strings.TrimRight(prefix, " ")
	if prefix == "" {
		return "", ErrNoLineComment
	}
	return prefix, nil
}
