// Package model contains domain models passed between layers.
package model

// Game describes a scoreable game from the catalog.
// HighestWins decides the direction of every standings sort for sessions of this game.
type Game struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MinPlayers  int    `json:"minPlayers"`
	MaxPlayers  int    `json:"maxPlayers"`
	HighestWins bool   `json:"highestWins"`
	IsCustom    bool   `json:"isCustom"`
}

// Direction returns a short label for the win condition.
func (g Game) Direction() string {
	if g.HighestWins {
		return "highest"
	}
	return "lowest"
}

// Player is a roster member of a single session. IDs are 1-based roster positions.
type Player struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
