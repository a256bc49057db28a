package catalog

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	model "github.com/okian/tally/internal/domain/model"
)

// fileGame is the YAML shape of a game definition.
type fileGame struct {
	Name        string `koanf:"name"`
	Description string `koanf:"description"`
	MinPlayers  int    `koanf:"min_players"`
	MaxPlayers  int    `koanf:"max_players"`
	HighestWins bool   `koanf:"highest_wins"`
}

// File is the content of a catalog YAML file:
//
//	games:
//	  - name: Carrom
//	    min_players: 2
//	    max_players: 4
//	    highest_wins: true
//	rules:
//	  carrom:
//	    scoring_info: Pocketed coins score their face value
//	resources:
//	  carrom:
//	    wikihow: https://www.wikihow.com/Play-Carrom
type File struct {
	Games     []fileGame           `koanf:"games"`
	Rules     map[string]Rules     `koanf:"rules"`
	Resources map[string]Resources `koanf:"resources"`
}

// LoadFile reads a YAML catalog file, registers its rules and resources and
// returns the game definitions it declares. Invalid games fail the whole load.
func (c *Catalog) LoadFile(path string) ([]model.Game, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	var f File
	if err := k.UnmarshalWithConf("", &f, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", path, err)
	}

	games := make([]model.Game, 0, len(f.Games))
	for i, fg := range f.Games {
		g := model.Game{
			Name:        fg.Name,
			Description: fg.Description,
			MinPlayers:  fg.MinPlayers,
			MaxPlayers:  fg.MaxPlayers,
			HighestWins: fg.HighestWins,
		}
		if err := Validate(g); err != nil {
			return nil, fmt.Errorf("catalog %s game %d: %w", path, i, err)
		}
		games = append(games, g)
	}

	for name, r := range f.Rules {
		c.SetRules(name, r)
	}
	for name, r := range f.Resources {
		c.SetResources(name, r)
	}

	c.mu.Lock()
	c.games = append(c.games, games...)
	c.mu.Unlock()
	return games, nil
}
