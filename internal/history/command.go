package history

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// ErrStaleEdit indicates the buffer no longer holds the text an edit was
// recorded against.
var ErrStaleEdit = errors.New("edit no longer matches buffer")

// Buffer is the text that commands operate on. Offsets are byte offsets.
type Buffer interface {
	Len() int
	TextRange(start, end int) (string, error)
	Replace(start, end int, text string) error
}

// Command represents an edit that can be executed and undone.
type Command interface {
	// Execute performs the command and returns an error if it fails.
	Execute(buf Buffer) error

	// Undo reverses the command and returns an error if it fails.
	Undo(buf Buffer) error

	// Description returns a human-readable description of the command.
	Description() string
}

// Edit replaces OldText at Offset with NewText.
type Edit struct {
	Offset  int
	OldText string
	NewText string

	Timestamp time.Time
}

// NewEdit creates an edit.
func NewEdit(offset int, oldText, newText string) *Edit {
	return &Edit{
		Offset:    offset,
		OldText:   oldText,
		NewText:   newText,
		Timestamp: time.Now(),
	}
}

// IsInsert returns true if this edit is a pure insertion.
func (e *Edit) IsInsert() bool {
	return e.OldText == "" && e.NewText != ""
}

// IsDelete returns true if this edit is a pure deletion.
func (e *Edit) IsDelete() bool {
	return e.OldText != "" && e.NewText == ""
}

// IsNoop returns true if this edit changes nothing.
func (e *Edit) IsNoop() bool {
	return e.OldText == e.NewText
}

// BytesDelta returns the change in buffer length.
func (e *Edit) BytesDelta() int {
	return len(e.NewText) - len(e.OldText)
}

// End returns the end of the replaced range before the edit.
func (e *Edit) End() int {
	return e.Offset + len(e.OldText)
}

// NewEnd returns the end of the inserted text after the edit.
func (e *Edit) NewEnd() int {
	return e.Offset + len(e.NewText)
}

// Invert returns an edit that undoes this one.
func (e *Edit) Invert() *Edit {
	return &Edit{
		Offset:    e.Offset,
		OldText:   e.NewText,
		NewText:   e.OldText,
		Timestamp: e.Timestamp,
	}
}

// Execute applies the edit after checking that the buffer still holds
// OldText at Offset.
func (e *Edit) Execute(buf Buffer) error {
	if e.End() > buf.Len() {
		return fmt.Errorf("edit at %d: %w", e.Offset, ErrStaleEdit)
	}
	cur, err := buf.TextRange(e.Offset, e.End())
	if err != nil {
		return fmt.Errorf("edit at %d: %w", e.Offset, err)
	}
	if cur != e.OldText {
		return fmt.Errorf("edit at %d: %w", e.Offset, ErrStaleEdit)
	}
	if err := buf.Replace(e.Offset, e.End(), e.NewText); err != nil {
		return fmt.Errorf("edit at %d: %w", e.Offset, err)
	}
	return nil
}

// Undo applies the inverse edit.
func (e *Edit) Undo(buf Buffer) error {
	return e.Invert().Execute(buf)
}

// Description returns a human-readable description.
func (e *Edit) Description() string {
	switch {
	case e.IsInsert():
		if e.NewText == "\n" {
			return "Insert newline"
		}
		if e.NewText == "\t" {
			return "Insert tab"
		}
		if utf8.RuneCountInString(e.NewText) <= 20 {
			return fmt.Sprintf("Insert %q", e.NewText)
		}
		return fmt.Sprintf("Insert %d characters", utf8.RuneCountInString(e.NewText))
	case e.IsDelete():
		return fmt.Sprintf("Delete %d characters", utf8.RuneCountInString(e.OldText))
	default:
		return fmt.Sprintf("Replace %d with %d characters",
			utf8.RuneCountInString(e.OldText), utf8.RuneCountInString(e.NewText))
	}
}

// continues reports whether next extends this insertion on the same line.
func (e *Edit) continues(next *Edit) bool {
	return e.IsInsert() && next.IsInsert() &&
		next.Offset == e.NewEnd() &&
		!strings.Contains(e.NewText, "\n") &&
		!strings.Contains(next.NewText, "\n")
}

// Compound groups multiple commands as one undo unit.
type Compound struct {
	Name     string
	Commands []Command
}

// NewCompound creates a compound command.
func NewCompound(name string, commands ...Command) *Compound {
	return &Compound{
		Name:     name,
		Commands: commands,
	}
}

// Execute runs all commands in order. If one fails, the ones already run
// are undone.
func (c *Compound) Execute(buf Buffer) error {
	for i, cmd := range c.Commands {
		if err := cmd.Execute(buf); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = c.Commands[j].Undo(buf)
			}
			return fmt.Errorf("compound '%s' step %d: %w", c.Name, i, err)
		}
	}
	return nil
}

// Undo reverses all commands in reverse order. If one fails, the ones
// already reversed are executed again.
func (c *Compound) Undo(buf Buffer) error {
	for i := len(c.Commands) - 1; i >= 0; i-- {
		if err := c.Commands[i].Undo(buf); err != nil {
			for j := i + 1; j < len(c.Commands); j++ {
				_ = c.Commands[j].Execute(buf)
			}
			return fmt.Errorf("undo compound '%s' step %d: %w", c.Name, i, err)
		}
	}
	return nil
}

// Description returns the compound's name.
func (c *Compound) Description() string {
	if c.Name != "" {
		return c.Name
	}
	if len(c.Commands) == 1 {
		return c.Commands[0].Description()
	}
	return fmt.Sprintf("%d edits", len(c.Commands))
}

// Add adds a command to the compound.
func (c *Compound) Add(cmd Command) {
	c.Commands = append(c.Commands, cmd)
}

// IsEmpty returns true if the compound has no commands.
func (c *Compound) IsEmpty() bool {
	return len(c.Commands) == 0
}
