package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	model "github.com/okian/tally/internal/domain/model"
)

const memoryStore = "memory"

// MemoryStore is an in-process Store. It is safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	nextGame int64
	games    []model.Game
	sessions map[string]model.Session
	players  map[string][]model.Player
	scores   map[string][]model.ScoreEntry
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]model.Session),
		players:  make(map[string][]model.Player),
		scores:   make(map[string][]model.ScoreEntry),
	}
}

func (s *MemoryStore) ListGames(_ context.Context) ([]model.Game, error) {
	defer observe(memoryStore, "list_games", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Game(nil), s.games...), nil
}

func (s *MemoryStore) GetGame(_ context.Context, id int64) (model.Game, error) {
	defer observe(memoryStore, "get_game", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.games {
		if g.ID == id {
			return g, nil
		}
	}
	return model.Game{}, model.NotFound("game", id)
}

func (s *MemoryStore) CreateGame(_ context.Context, g model.Game) (model.Game, error) {
	defer observe(memoryStore, "create_game", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextGame++
	g.ID = s.nextGame
	s.games = append(s.games, g)
	return g, nil
}

func (s *MemoryStore) CreateSession(_ context.Context, sess model.Session, players []model.Player) error {
	defer observe(memoryStore, "create_session", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	s.players[sess.ID] = append([]model.Player(nil), players...)
	return nil
}

func (s *MemoryStore) GetSession(_ context.Context, id string) (model.Session, error) {
	defer observe(memoryStore, "get_session", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return model.Session{}, model.NotFound("session", id)
	}
	return sess, nil
}

func (s *MemoryStore) ListPlayers(_ context.Context, sessionID string) ([]model.Player, error) {
	defer observe(memoryStore, "list_players", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return nil, model.NotFound("session", sessionID)
	}
	return append([]model.Player(nil), s.players[sessionID]...), nil
}

func (s *MemoryStore) CompleteSession(_ context.Context, id string, end time.Time, winnerID int) error {
	defer observe(memoryStore, "complete_session", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return model.NotFound("session", id)
	}
	if sess.IsComplete {
		return model.ErrSessionClosed
	}
	sess.IsComplete = true
	sess.EndTime = &end
	sess.WinnerID = &winnerID
	s.sessions[id] = sess
	return nil
}

func (s *MemoryStore) AppendScore(_ context.Context, e model.ScoreEntry) error {
	defer observe(memoryStore, "append_score", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[e.SessionID]
	if !ok {
		return model.NotFound("session", e.SessionID)
	}
	if sess.IsComplete {
		return model.ErrSessionClosed
	}
	s.scores[e.SessionID] = append(s.scores[e.SessionID], e)
	return nil
}

func (s *MemoryStore) ListScoresForSession(_ context.Context, sessionID string) ([]model.ScoreEntry, error) {
	defer observe(memoryStore, "list_scores", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return nil, model.NotFound("session", sessionID)
	}
	out := append([]model.ScoreEntry(nil), s.scores[sessionID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (s *MemoryStore) ListScoresForPlayer(ctx context.Context, sessionID string, playerID int) ([]model.ScoreEntry, error) {
	all, err := s.ListScoresForSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	var out []model.ScoreEntry
	for _, e := range all {
		if e.PlayerID == playerID {
			out = append(out, e)
		}
	}
	return out, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}
