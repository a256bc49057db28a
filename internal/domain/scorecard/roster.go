package scorecard

import (
	"fmt"
	"strings"

	model "github.com/okian/tally/internal/domain/model"
)

// Roster validates player names against the game's size limits and returns
// the session players with ids 1..n in the given order. Names are trimmed and
// must be unique ignoring case.
func Roster(game model.Game, names []string) ([]model.Player, error) {
	if len(names) < game.MinPlayers || len(names) > game.MaxPlayers {
		return nil, &model.ValidationError{
			Field:  "players",
			Reason: fmt.Sprintf("%s needs %d to %d players, got %d", game.Name, game.MinPlayers, game.MaxPlayers, len(names)),
		}
	}
	seen := make(map[string]bool, len(names))
	players := make([]model.Player, 0, len(names))
	for i, n := range names {
		name := strings.TrimSpace(n)
		if name == "" {
			return nil, &model.ValidationError{Field: "players", Reason: fmt.Sprintf("player %d has no name", i+1)}
		}
		k := strings.ToLower(name)
		if seen[k] {
			return nil, &model.ValidationError{Field: "players", Reason: fmt.Sprintf("duplicate player %q", name)}
		}
		seen[k] = true
		players = append(players, model.Player{ID: i + 1, Name: name})
	}
	return players, nil
}
