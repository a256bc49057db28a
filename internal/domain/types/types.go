// Package types contains read shapes shared by the record stores and the HTTP API.
package types

// Record is one row of the cross-session player leaderboard.
type Record struct {
	Rank        int    `json:"rank"`
	Name        string `json:"name"`
	GamesPlayed int    `json:"gamesPlayed"`
	GamesWon    int    `json:"gamesWon"`
}

// WinRate returns the share of played games that were won, as a percentage.
func (r Record) WinRate() float64 {
	if r.GamesPlayed == 0 {
		return 0
	}
	return float64(r.GamesWon) * 100 / float64(r.GamesPlayed)
}

// Less orders records by wins descending, then games played ascending, then name.
func Less(a, b Record) bool {
	if a.GamesWon != b.GamesWon {
		return a.GamesWon > b.GamesWon
	}
	if a.GamesPlayed != b.GamesPlayed {
		return a.GamesPlayed < b.GamesPlayed
	}
	return a.Name < b.Name
}
