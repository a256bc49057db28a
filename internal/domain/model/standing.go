package model

// PlayerStanding is derived from the ledger on every read and never stored.
type PlayerStanding struct {
	Rank          int    `json:"rank"`
	PlayerID      int    `json:"playerId"`
	Name          string `json:"name"`
	Total         int    `json:"total"`
	ScoresByRound []int  `json:"scoresByRound"`
}
