// Package repository defines the persistence boundary of the service and its
// backends: games, sessions and score entries on one side, cross-session
// player records on the other.
package repository

import (
	"context"
	"time"

	model "github.com/okian/tally/internal/domain/model"
	types "github.com/okian/tally/internal/domain/types"
)

// Catalog stores game definitions.
type Catalog interface {
	ListGames(ctx context.Context) ([]model.Game, error)
	// GetGame returns a NotFoundError for unknown ids.
	GetGame(ctx context.Context, id int64) (model.Game, error)
	// CreateGame assigns the id and returns the stored game.
	CreateGame(ctx context.Context, g model.Game) (model.Game, error)
}

// SessionStore stores sessions and their rosters.
type SessionStore interface {
	CreateSession(ctx context.Context, s model.Session, players []model.Player) error
	// GetSession returns a NotFoundError for unknown ids.
	GetSession(ctx context.Context, id string) (model.Session, error)
	ListPlayers(ctx context.Context, sessionID string) ([]model.Player, error)
	// CompleteSession fails with ErrSessionClosed when the session is already complete.
	CompleteSession(ctx context.Context, id string, end time.Time, winnerID int) error
}

// ScoreStore is the append-only log of score entries.
type ScoreStore interface {
	// AppendScore fails with ErrSessionClosed for completed sessions.
	AppendScore(ctx context.Context, e model.ScoreEntry) error
	// ListScoresForSession returns entries in position order.
	ListScoresForSession(ctx context.Context, sessionID string) ([]model.ScoreEntry, error)
	ListScoresForPlayer(ctx context.Context, sessionID string, playerID int) ([]model.ScoreEntry, error)
}

// Store is a complete ledger backend.
type Store interface {
	Catalog
	SessionStore
	ScoreStore
	Close() error
}

// RecordsStore keeps per-player results across sessions, ordered by wins
// descending, then games played ascending, then name.
type RecordsStore interface {
	// RecordResult counts one played game for name, and a win when won is true.
	RecordResult(ctx context.Context, name string, won bool) error
	// RecordResults counts one game for every player and a win for the one
	// matching winner, all or nothing.
	RecordResults(ctx context.Context, players []string, winner string) error
	// Rank returns ErrNotFound for unknown players.
	Rank(ctx context.Context, name string) (types.Record, error)
	// TopN returns ErrInvalidLimit when n < 1.
	TopN(ctx context.Context, n int) ([]types.Record, error)
	Count(ctx context.Context) int
	Close() error
}
