// Package round tracks round progression of a session from its ledger.
//
// A player has submitted round r when their forward entries for r outnumber
// the reversals for r, so undoing the only entry of a round reopens it. The
// current round is the lowest round some roster player has not submitted.
package round

import (
	"fmt"

	model "github.com/okian/tally/internal/domain/model"
)

// State is the coordinator phase.
type State int

// Coordinator phases.
const (
	AwaitingEntries State = iota
	RoundComplete
	GameEnded
)

func (s State) String() string {
	switch s {
	case AwaitingEntries:
		return "awaiting_entries"
	case RoundComplete:
		return "round_complete"
	case GameEnded:
		return "game_ended"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText renders the state name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Status is a point-in-time view of the coordinator.
type Status struct {
	State State `json:"state"`
	Round int   `json:"round"`
}

// Transition is reported when an append completes one or more rounds.
// Completed is the lowest round that closed, Next the round now awaited.
type Transition struct {
	Completed int
	Next      int
}

// Coordinator derives round state for a fixed roster.
type Coordinator struct {
	players []int
	ended   bool
}

// New creates a coordinator for the roster.
func New(players []model.Player) *Coordinator {
	ids := make([]int, len(players))
	for i, p := range players {
		ids[i] = p.ID
	}
	return &Coordinator{players: ids}
}

// counts returns net forward entries per player and round.
func counts(entries []model.ScoreEntry) map[[2]int]int {
	c := make(map[[2]int]int)
	for _, e := range entries {
		k := [2]int{e.PlayerID, e.Round}
		if e.IsReversal() {
			c[k]--
		} else {
			c[k]++
		}
	}
	return c
}

// Submitted reports whether playerID has a live entry for round r.
func (c *Coordinator) Submitted(entries []model.ScoreEntry, playerID, r int) bool {
	return counts(entries)[[2]int{playerID, r}] > 0
}

// Current returns the lowest round not yet submitted by every roster player.
func (c *Coordinator) Current(entries []model.ScoreEntry) int {
	if len(c.players) == 0 {
		return 0
	}
	n := counts(entries)
	for r := 0; ; r++ {
		for _, p := range c.players {
			if n[[2]int{p, r}] <= 0 {
				return r
			}
		}
	}
}

// Pending returns the roster players that still owe an entry for round r.
func (c *Coordinator) Pending(entries []model.ScoreEntry, r int) []int {
	n := counts(entries)
	var out []int
	for _, p := range c.players {
		if n[[2]int{p, r}] <= 0 {
			out = append(out, p)
		}
	}
	return out
}

// Observe compares the ledger before and after an append. It returns a
// transition when the append completed the round that was being awaited.
// After End it fails with ErrSessionClosed.
func (c *Coordinator) Observe(before, after []model.ScoreEntry) (Transition, bool, error) {
	if c.ended {
		return Transition{}, false, model.ErrSessionClosed
	}
	from, to := c.Current(before), c.Current(after)
	if to <= from {
		return Transition{}, false, nil
	}
	return Transition{Completed: from, Next: to}, true, nil
}

// Status returns the phase for the given ledger. Between rounds the
// coordinator is always awaiting entries since the advance is immediate.
func (c *Coordinator) Status(entries []model.ScoreEntry) Status {
	r := c.Current(entries)
	if c.ended {
		return Status{State: GameEnded, Round: r}
	}
	return Status{State: AwaitingEntries, Round: r}
}

// End moves the coordinator to GameEnded.
func (c *Coordinator) End() {
	c.ended = true
}

// Ended reports whether End was called.
func (c *Coordinator) Ended() bool {
	return c.ended
}
