package history

import (
	"errors"
	"sync"
	"time"
)

// Common errors for history operations.
var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// DefaultMaxEntries is the undo depth used when none is configured.
const DefaultMaxEntries = 1000

type entry struct {
	command   Command
	timestamp time.Time
}

// Info describes a recorded command.
type Info struct {
	Description string
	Timestamp   time.Time
}

// History manages undo/redo state for one buffer.
type History struct {
	mu sync.Mutex

	undoStack []*entry
	redoStack []*entry

	// Grouping state
	depth     int
	groupName string
	groupCmds []Command

	// Coalescing state. open is the top undo entry while it can still
	// absorb typed text.
	window time.Duration
	open   *entry
	now    func() time.Time

	maxEntries int
}

// New creates a history keeping at most maxEntries undo entries.
func New(maxEntries int) *History {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &History{
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// SetCoalesce enables merging of consecutive single-line insertions that
// arrive within window of each other. A zero window disables it.
func (h *History) SetCoalesce(window time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.window = window
	h.open = nil
}

// Execute runs a command and records it.
func (h *History) Execute(cmd Command, buf Buffer) error {
	if err := cmd.Execute(buf); err != nil {
		return err
	}
	h.Push(cmd)
	return nil
}

// Push records a command that has already been applied. It clears the redo
// stack.
func (h *History) Push(cmd Command) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.depth > 0 {
		h.groupCmds = append(h.groupCmds, cmd)
		return
	}
	h.pushLocked(cmd)
}

func (h *History) pushLocked(cmd Command) {
	now := h.now()
	h.redoStack = nil

	if h.coalesceLocked(cmd, now) {
		return
	}

	e := &entry{command: cmd, timestamp: now}
	h.undoStack = append(h.undoStack, e)
	h.open = nil
	if edit, ok := cmd.(*Edit); ok && h.window > 0 && edit.IsInsert() {
		h.open = e
	}

	if len(h.undoStack) > h.maxEntries {
		excess := len(h.undoStack) - h.maxEntries
		h.undoStack = h.undoStack[excess:]
	}
}

// coalesceLocked merges cmd into the open entry when it continues it.
func (h *History) coalesceLocked(cmd Command, now time.Time) bool {
	if h.open == nil {
		return false
	}
	next, ok := cmd.(*Edit)
	if !ok {
		return false
	}
	prev := h.open.command.(*Edit)
	if now.Sub(h.open.timestamp) > h.window || !prev.continues(next) {
		return false
	}

	prev.NewText += next.NewText
	h.open.timestamp = now
	return true
}

// Undo reverses the most recent command. The lock is released while the
// command runs.
func (h *History) Undo(buf Buffer) error {
	h.mu.Lock()
	if len(h.undoStack) == 0 {
		h.mu.Unlock()
		return ErrNothingToUndo
	}

	e := h.undoStack[len(h.undoStack)-1]
	h.undoStack = h.undoStack[:len(h.undoStack)-1]
	h.open = nil
	h.mu.Unlock()

	if err := e.command.Undo(buf); err != nil {
		h.mu.Lock()
		h.undoStack = append(h.undoStack, e)
		h.mu.Unlock()
		return err
	}

	h.mu.Lock()
	h.redoStack = append(h.redoStack, e)
	h.mu.Unlock()
	return nil
}

// Redo re-applies the most recently undone command. The lock is released
// while the command runs.
func (h *History) Redo(buf Buffer) error {
	h.mu.Lock()
	if len(h.redoStack) == 0 {
		h.mu.Unlock()
		return ErrNothingToRedo
	}

	e := h.redoStack[len(h.redoStack)-1]
	h.redoStack = h.redoStack[:len(h.redoStack)-1]
	h.mu.Unlock()

	if err := e.command.Execute(buf); err != nil {
		h.mu.Lock()
		h.redoStack = append(h.redoStack, e)
		h.mu.Unlock()
		return err
	}

	h.mu.Lock()
	h.undoStack = append(h.undoStack, e)
	h.mu.Unlock()
	return nil
}

// CanUndo returns true if undo is available.
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undoStack) > 0
}

// CanRedo returns true if redo is available.
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redoStack) > 0
}

// UndoCount returns the number of undo entries.
func (h *History) UndoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undoStack)
}

// RedoCount returns the number of redo entries.
func (h *History) RedoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redoStack)
}

// PeekUndo describes the next command Undo would reverse.
func (h *History) PeekUndo() (Info, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.undoStack) == 0 {
		return Info{}, false
	}
	e := h.undoStack[len(h.undoStack)-1]
	return Info{Description: e.command.Description(), Timestamp: e.timestamp}, true
}

// PeekRedo describes the next command Redo would re-apply.
func (h *History) PeekRedo() (Info, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.redoStack) == 0 {
		return Info{}, false
	}
	e := h.redoStack[len(h.redoStack)-1]
	return Info{Description: e.command.Description(), Timestamp: e.timestamp}, true
}

// Clear removes all undo/redo history and abandons any open group.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.undoStack = nil
	h.redoStack = nil
	h.depth = 0
	h.groupCmds = nil
	h.open = nil
}

// SetMaxEntries changes the maximum number of undo entries, dropping the
// oldest entries if the stack is larger.
func (h *History) SetMaxEntries(max int) {
	if max <= 0 {
		max = DefaultMaxEntries
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.maxEntries = max
	if len(h.undoStack) > max {
		h.undoStack = h.undoStack[len(h.undoStack)-max:]
	}
}

// MaxEntries returns the maximum number of undo entries.
func (h *History) MaxEntries() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.maxEntries
}
