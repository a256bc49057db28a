// Package standings derives player totals and rankings from ledger entries.
// Nothing here is cached: every call recomputes from the entries it is given.
package standings

import (
	"sort"

	model "github.com/okian/tally/internal/domain/model"
)

// Compute sums every entry per roster player and ranks the totals in the
// game's win direction. Equal totals keep roster order. Entries for players
// outside the roster are ignored.
func Compute(entries []model.ScoreEntry, game model.Game, players []model.Player) []model.PlayerStanding {
	idx := make(map[int]int, len(players))
	out := make([]model.PlayerStanding, len(players))
	for i, p := range players {
		idx[p.ID] = i
		out[i] = model.PlayerStanding{PlayerID: p.ID, Name: p.Name, ScoresByRound: []int{}}
	}

	for _, e := range entries {
		i, ok := idx[e.PlayerID]
		if !ok {
			continue
		}
		st := &out[i]
		st.Total += e.Amount
		for len(st.ScoresByRound) <= e.Round {
			st.ScoresByRound = append(st.ScoresByRound, 0)
		}
		st.ScoresByRound[e.Round] += e.Amount
	}

	sort.SliceStable(out, func(a, b int) bool {
		if game.HighestWins {
			return out[a].Total > out[b].Total
		}
		return out[a].Total < out[b].Total
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// LimitReached reports whether any total is at or above limit. The check is
// the same for both win directions. A nil limit never triggers.
func LimitReached(st []model.PlayerStanding, limit *int) bool {
	if limit == nil {
		return false
	}
	for _, s := range st {
		if s.Total >= *limit {
			return true
		}
	}
	return false
}

// Leader returns the top standing, or false when there are no players.
func Leader(st []model.PlayerStanding) (model.PlayerStanding, bool) {
	if len(st) == 0 {
		return model.PlayerStanding{}, false
	}
	return st[0], true
}

// Totals maps player id to total.
func Totals(st []model.PlayerStanding) map[int]int {
	out := make(map[int]int, len(st))
	for _, s := range st {
		out[s.PlayerID] = s.Total
	}
	return out
}
