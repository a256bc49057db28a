package playthrough

import (
	"fmt"
	"sort"
)

type move struct {
	player int
	amount int
}

// shadow recomputes session totals locally from the moves the runner made.
type shadow struct {
	totals      map[int]int
	undo, redo  []move
	highestWins bool
}

func newShadow(players int, highestWins bool) *shadow {
	s := &shadow{totals: make(map[int]int, players), highestWins: highestWins}
	for p := 1; p <= players; p++ {
		s.totals[p] = 0
	}
	return s
}

// amount mirrors the stored value of a raw score: penalties are negative.
func amount(kind string, raw int) int {
	if kind == "penalty" && raw > 0 {
		return -raw
	}
	return raw
}

func (s *shadow) submit(player int, kind string, raw int) {
	m := move{player: player, amount: amount(kind, raw)}
	s.totals[player] += m.amount
	s.undo = append(s.undo, m)
	s.redo = s.redo[:0]
}

func (s *shadow) undoLast() bool {
	if len(s.undo) == 0 {
		return false
	}
	m := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	s.totals[m.player] -= m.amount
	s.redo = append(s.redo, m)
	return true
}

func (s *shadow) redoLast() bool {
	if len(s.redo) == 0 {
		return false
	}
	m := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]
	s.totals[m.player] += m.amount
	s.undo = append(s.undo, m)
	return true
}

// verify compares service standings with the local totals and ordering.
func (s *shadow) verify(got []standing) error {
	if len(got) != len(s.totals) {
		return fmt.Errorf("standings have %d players, want %d", len(got), len(s.totals))
	}
	for _, st := range got {
		if want := s.totals[st.PlayerID]; st.Total != want {
			return fmt.Errorf("player %d total %d, want %d", st.PlayerID, st.Total, want)
		}
	}
	ordered := sort.SliceIsSorted(got, func(i, j int) bool {
		if s.highestWins {
			return got[i].Total > got[j].Total
		}
		return got[i].Total < got[j].Total
	})
	if !ordered {
		return fmt.Errorf("standings are not ordered by total")
	}
	return nil
}
