// Package history keeps the undo and redo stacks of a live session.
package history

import (
	model "github.com/okian/tally/internal/domain/model"
)

// History is a pair of entry stacks. It only tracks entries; appending the
// inverse or the replayed copy to the ledger is the caller's job.
type History struct {
	undo []model.ScoreEntry
	redo []model.ScoreEntry
}

// New returns empty stacks.
func New() *History {
	return &History{}
}

// Record pushes a forward entry and drops any redo branch.
func (h *History) Record(e model.ScoreEntry) {
	h.undo = append(h.undo, e)
	h.redo = h.redo[:0]
}

// Undo pops the most recent forward entry and moves it to the redo stack.
// It reports false when there is nothing to undo.
func (h *History) Undo() (model.ScoreEntry, bool) {
	if len(h.undo) == 0 {
		return model.ScoreEntry{}, false
	}
	e := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, e)
	return e, true
}

// Redo pops the most recent undone entry. The caller appends a replay of it
// and hands the stored copy back through Reapplied.
func (h *History) Redo() (model.ScoreEntry, bool) {
	if len(h.redo) == 0 {
		return model.ScoreEntry{}, false
	}
	e := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	return e, true
}

// Reapplied pushes a redone entry back on the undo stack without touching redo.
func (h *History) Reapplied(e model.ScoreEntry) {
	h.undo = append(h.undo, e)
}

// Restore puts e back where Undo or Redo took it from after a failed append.
func (h *History) Restore(e model.ScoreEntry, undone bool) {
	if undone {
		h.redo = h.redo[:len(h.redo)-1]
		h.undo = append(h.undo, e)
		return
	}
	h.redo = append(h.redo, e)
}

// CanUndo reports whether Undo would do anything.
func (h *History) CanUndo() bool {
	return len(h.undo) > 0
}

// CanRedo reports whether Redo would do anything.
func (h *History) CanRedo() bool {
	return len(h.redo) > 0
}

// Depth returns the sizes of both stacks.
func (h *History) Depth() (undo, redo int) {
	return len(h.undo), len(h.redo)
}
