package history

import "errors"

// BeginGroup starts a command group. Commands pushed until the matching
// EndGroup undo as a single unit. Nested groups fold into the outermost.
func (h *History) BeginGroup(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.depth == 0 {
		h.groupName = name
		h.groupCmds = nil
		h.open = nil
	}
	h.depth++
}

// EndGroup closes a group. Closing the outermost group records everything
// pushed since BeginGroup as one Compound; an empty group records nothing.
func (h *History) EndGroup() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.depth == 0 {
		return
	}
	h.depth--
	if h.depth > 0 {
		return
	}

	cmds := h.groupCmds
	h.groupCmds = nil
	switch len(cmds) {
	case 0:
		return
	case 1:
		h.pushLocked(cmds[0])
	default:
		h.pushLocked(&Compound{Name: h.groupName, Commands: cmds})
	}
	h.open = nil
}

// CancelGroup abandons all open groups without recording them.
// Commands already executed still affect the buffer.
func (h *History) CancelGroup() []Command {
	h.mu.Lock()
	defer h.mu.Unlock()

	cmds := h.groupCmds
	h.depth = 0
	h.groupCmds = nil
	return cmds
}

// RollbackGroup abandons all open groups and undoes the commands they
// collected, newest first.
func (h *History) RollbackGroup(buf Buffer) error {
	cmds := h.CancelGroup()
	return (&Compound{Name: "rollback", Commands: cmds}).Undo(buf)
}

// IsGrouping returns true if a group is open.
func (h *History) IsGrouping() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.depth > 0
}

// Transaction runs fn inside a group. If fn fails, the commands it
// recorded are undone and the error is returned.
func (h *History) Transaction(name string, buf Buffer, fn func() error) error {
	h.BeginGroup(name)

	if err := fn(); err != nil {
		if rerr := h.RollbackGroup(buf); rerr != nil {
			return errors.Join(err, rerr)
		}
		return err
	}

	h.EndGroup()
	return nil
}
