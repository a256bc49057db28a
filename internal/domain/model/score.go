package model

import (
	"strings"
	"time"
)

// Kind tags the intent of a score entry.
type Kind string

// Entry kinds.
const (
	KindRegular Kind = "regular"
	KindPenalty Kind = "penalty"
	KindBonus   Kind = "bonus"
)

// ParseKind maps user input to a Kind. Empty input means regular.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case "", KindRegular:
		return KindRegular, nil
	case KindPenalty:
		return KindPenalty, nil
	case KindBonus:
		return KindBonus, nil
	default:
		return "", &ValidationError{Field: "kind", Reason: "unknown kind " + s}
	}
}

// ScoreEntry is one immutable fact in a session ledger.
// Reverses is set on inverse entries appended by undo and holds the id of the reversed entry.
type ScoreEntry struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	PlayerID  int       `json:"playerId"`
	Round     int       `json:"round"`
	Amount    int       `json:"score"`
	Kind      Kind      `json:"kind"`
	Reverses  string    `json:"reverses,omitempty"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsReversal reports whether the entry cancels an earlier one.
func (e ScoreEntry) IsReversal() bool {
	return e.Reverses != ""
}

// Inverse returns the entry that cancels e. ID, position and timestamp are left
// for the ledger and store to assign.
func (e ScoreEntry) Inverse() ScoreEntry {
	inv := e
	inv.ID = ""
	inv.Amount = -e.Amount
	inv.Reverses = e.ID
	inv.Position = 0
	inv.CreatedAt = time.Time{}
	return inv
}

// Replay returns a fresh copy of e suitable for appending again.
func (e ScoreEntry) Replay() ScoreEntry {
	cp := e
	cp.ID = ""
	cp.Reverses = ""
	cp.Position = 0
	cp.CreatedAt = time.Time{}
	return cp
}
