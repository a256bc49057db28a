// Package ledger holds the append-only entry log of a single session.
package ledger

import (
	model "github.com/okian/tally/internal/domain/model"
)

// Ledger is the ordered, append-only collection of score entries for one
// session. It is not safe for concurrent use; callers serialize access.
type Ledger struct {
	sessionID string
	entries   []model.ScoreEntry
	closed    bool
}

// New returns an empty ledger for sessionID.
func New(sessionID string) *Ledger {
	return &Ledger{sessionID: sessionID}
}

// Restore rebuilds a ledger from persisted entries, keeping their order.
func Restore(sessionID string, entries []model.ScoreEntry, closed bool) *Ledger {
	l := &Ledger{sessionID: sessionID, closed: closed}
	l.entries = make([]model.ScoreEntry, 0, len(entries))
	for _, e := range entries {
		e.Position = len(l.entries)
		l.entries = append(l.entries, e)
	}
	return l
}

// SessionID returns the owning session id.
func (l *Ledger) SessionID() string {
	return l.sessionID
}

// Next returns the position the next appended entry will take.
func (l *Ledger) Next() int {
	return len(l.entries)
}

// Append adds e at the end of the log and returns it with its position set.
func (l *Ledger) Append(e model.ScoreEntry) (model.ScoreEntry, error) {
	if l.closed {
		return model.ScoreEntry{}, model.ErrSessionClosed
	}
	e.SessionID = l.sessionID
	e.Position = len(l.entries)
	l.entries = append(l.entries, e)
	return e, nil
}

// EntriesFor returns the entries of one player in insertion order.
func (l *Ledger) EntriesFor(playerID int) []model.ScoreEntry {
	var out []model.ScoreEntry
	for _, e := range l.entries {
		if e.PlayerID == playerID {
			out = append(out, e)
		}
	}
	return out
}

// All returns a copy of every entry in insertion order.
func (l *Ledger) All() []model.ScoreEntry {
	out := make([]model.ScoreEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// Close marks the ledger complete. Later appends fail.
func (l *Ledger) Close() {
	l.closed = true
}

// Closed reports whether Close was called.
func (l *Ledger) Closed() bool {
	return l.closed
}
