// Package catalog holds game definitions and the presentation data attached to
// them: scoring rules and tutorial links. None of it is read by the ledger.
package catalog

import (
	"strings"
	"sync"

	model "github.com/okian/tally/internal/domain/model"
)

// Rules is the short rule summary shown next to a game.
type Rules struct {
	Name         string `json:"name" koanf:"name"`
	Description  string `json:"description" koanf:"description"`
	ScoringInfo  string `json:"scoringInfo" koanf:"scoring_info"`
	WinCondition string `json:"winCondition" koanf:"win_condition"`
}

// Link is an external learning resource.
type Link struct {
	Title       string `json:"title" koanf:"title"`
	URL         string `json:"url" koanf:"url"`
	Description string `json:"description" koanf:"description"`
}

// Resources groups tutorial links for a game.
type Resources struct {
	Wikihow             string   `json:"wikihow" koanf:"wikihow"`
	Youtube             []string `json:"youtube" koanf:"youtube"`
	AdditionalResources []Link   `json:"additionalResources" koanf:"additional_resources"`
}

// Info is everything the catalog knows about one game.
type Info struct {
	Game      model.Game `json:"game"`
	Rules     Rules      `json:"rules"`
	Resources *Resources `json:"resources,omitempty"`
}

// Option applies a configuration option to the Catalog.
type Option func(*Catalog)

// WithoutDefaults starts the catalog empty.
func WithoutDefaults() Option {
	return func(c *Catalog) {
		c.games = nil
		c.rules = make(map[string]Rules)
		c.resources = make(map[string]Resources)
	}
}

// WithGames appends extra game definitions.
func WithGames(games ...model.Game) Option {
	return func(c *Catalog) {
		c.games = append(c.games, games...)
	}
}

// Catalog is safe for concurrent use.
type Catalog struct {
	mu        sync.RWMutex
	games     []model.Game
	rules     map[string]Rules
	resources map[string]Resources
}

// New returns a catalog seeded with the default games, rules and resources.
func New(opts ...Option) *Catalog {
	c := &Catalog{
		games:     Defaults(),
		rules:     defaultRules(),
		resources: defaultResources(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Games returns the seed definitions in catalog order.
func (c *Catalog) Games() []model.Game {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]model.Game(nil), c.games...)
}

// Rules returns the rule summary for g, falling back to one derived from its
// win direction.
func (c *Catalog) Rules(g model.Game) Rules {
	c.mu.RLock()
	r, ok := c.rules[key(g.Name)]
	c.mu.RUnlock()
	if ok {
		return r
	}
	win := "Lowest score wins"
	if g.HighestWins {
		win = "Highest score wins"
	}
	return Rules{
		Name:         g.Name,
		Description:  g.Description,
		ScoringInfo:  "Custom scoring rules",
		WinCondition: win,
	}
}

// Resources returns tutorial links for a game name.
func (c *Catalog) Resources(name string) (Resources, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.resources[key(name)]
	return r, ok
}

// Info combines rules and resources for g.
func (c *Catalog) Info(g model.Game) Info {
	info := Info{Game: g, Rules: c.Rules(g)}
	if r, ok := c.Resources(g.Name); ok {
		info.Resources = &r
	}
	return info
}

// SetRules registers or replaces the rules for a game name.
func (c *Catalog) SetRules(name string, r Rules) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r.Name == "" {
		r.Name = name
	}
	c.rules[key(name)] = r
}

// SetResources registers or replaces the links for a game name.
func (c *Catalog) SetResources(name string, r Resources) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resources[key(name)] = r
}

// Validate checks a game definition before it is stored.
func Validate(g model.Game) error {
	if strings.TrimSpace(g.Name) == "" {
		return &model.ValidationError{Field: "name", Reason: "is required"}
	}
	if g.MinPlayers < 1 {
		return &model.ValidationError{Field: "minPlayers", Reason: "must be at least 1"}
	}
	if g.MaxPlayers < g.MinPlayers {
		return &model.ValidationError{Field: "maxPlayers", Reason: "must not be below minPlayers"}
	}
	return nil
}
