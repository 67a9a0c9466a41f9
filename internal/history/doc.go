// Package history provides undo/redo for document text.
//
// Edits are recorded as Commands that can be executed against a Buffer and
// undone again. Key concepts:
//
// # Edits
//
// An Edit replaces OldText at Offset with NewText. It verifies that the
// buffer still holds the text it expects before applying itself, so an edit
// recorded before an untracked change fails with ErrStaleEdit instead of
// corrupting the text.
//
// # History Stack
//
// History keeps linear undo and redo stacks. Recording a new command after
// undoing clears the redo tail:
//
//	h := history.New(1000)
//	h.Push(edit)     // edit was already applied to the buffer
//	h.Undo(buf)
//	h.Redo(buf)
//
// # Grouping
//
// Commands recorded between BeginGroup and EndGroup are combined into a
// single Compound that undoes as one unit. Groups nest; only the outermost
// EndGroup records the compound.
//
// # Coalescing
//
// With SetCoalesce, consecutive single-line insertions that continue one
// another within the window merge into one edit, so a typed word undoes in
// one step.
package history
