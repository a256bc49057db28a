// Package scorecard holds the state of one live session: its ledger, undo and
// redo stacks, and round coordinator. Every mutation is persisted through the
// Store before it touches memory, so a failed write leaves the derived views
// exactly as they were.
package scorecard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/tally/internal/domain/history"
	"github.com/okian/tally/internal/domain/ledger"
	model "github.com/okian/tally/internal/domain/model"
	"github.com/okian/tally/internal/domain/round"
	"github.com/okian/tally/internal/domain/scoring"
	"github.com/okian/tally/internal/domain/standings"
)

// Store is the persistence boundary of a scorecard.
type Store interface {
	AppendScore(ctx context.Context, e model.ScoreEntry) error
	CompleteSession(ctx context.Context, id string, end time.Time, winnerID int) error
}

// Option applies a configuration option to a Scorecard.
type Option func(*Scorecard)

// WithScorer sets the scorer used to validate input.
func WithScorer(s *scoring.Scorer) Option {
	return func(c *Scorecard) {
		if s != nil {
			c.scorer = s
		}
	}
}

// WithOneEntryPerRound rejects a second live entry for the same player and round.
func WithOneEntryPerRound(on bool) Option {
	return func(c *Scorecard) {
		c.onePerRound = on
	}
}

// WithEntries restores previously persisted entries.
func WithEntries(entries []model.ScoreEntry) Option {
	return func(c *Scorecard) {
		c.restored = entries
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Scorecard) {
		if now != nil {
			c.now = now
		}
	}
}

// WithIDGenerator overrides the entry id source.
func WithIDGenerator(gen func() string) Option {
	return func(c *Scorecard) {
		if gen != nil {
			c.newID = gen
		}
	}
}

// Score is one player's raw input inside a submission.
type Score struct {
	PlayerID int
	Raw      string
	Kind     string
}

// Notice is the transient message produced when a round completes. It
// carries the leader at that moment and is never stored.
type Notice struct {
	Round   int                  `json:"round"`
	Next    int                  `json:"nextRound"`
	State   round.State          `json:"state"`
	Leader  model.PlayerStanding `json:"leader"`
	Message string               `json:"message"`
}

// Outcome describes the effect of a mutation.
type Outcome struct {
	Entries      []model.ScoreEntry     `json:"entries"`
	Applied      bool                   `json:"applied"`
	Standings    []model.PlayerStanding `json:"standings"`
	Round        round.Status           `json:"round"`
	LimitReached bool                   `json:"limitReached"`
	Notice       *Notice                `json:"notice,omitempty"`
}

// Board is a read-only snapshot of a session.
type Board struct {
	Session      model.Session          `json:"session"`
	Game         model.Game             `json:"game"`
	Players      []model.Player         `json:"players"`
	Standings    []model.PlayerStanding `json:"standings"`
	Round        round.Status           `json:"round"`
	CanUndo      bool                   `json:"canUndo"`
	CanRedo      bool                   `json:"canRedo"`
	LimitReached bool                   `json:"limitReached"`
	Winner       *model.PlayerStanding  `json:"winner,omitempty"`
}

// Scorecard is safe for concurrent use.
type Scorecard struct {
	mu sync.Mutex

	session model.Session
	game    model.Game
	players []model.Player
	store   Store

	ledger *ledger.Ledger
	hist   *history.History
	coord  *round.Coordinator
	scorer *scoring.Scorer
	winner *model.PlayerStanding

	onePerRound bool
	restored    []model.ScoreEntry
	now         func() time.Time
	newID       func() string
}

// New builds the scorecard for a started or restored session.
func New(session model.Session, game model.Game, players []model.Player, store Store, opts ...Option) *Scorecard {
	c := &Scorecard{
		session: session,
		game:    game,
		players: append([]model.Player(nil), players...),
		store:   store,
		hist:    history.New(),
		coord:   round.New(players),
		scorer:  scoring.NewScorer(),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.ledger = ledger.Restore(session.ID, c.restored, session.IsComplete)
	c.restored = nil
	if session.IsComplete {
		c.coord.End()
		c.winner = c.frozenWinner()
	}
	return c
}

// frozenWinner finds the recorded winner among the final standings.
func (c *Scorecard) frozenWinner() *model.PlayerStanding {
	st := c.standings()
	if c.session.WinnerID != nil {
		for i := range st {
			if st[i].PlayerID == *c.session.WinnerID {
				return &st[i]
			}
		}
	}
	if l, ok := standings.Leader(st); ok {
		return &l
	}
	return nil
}

// Session returns a copy of the session record.
func (c *Scorecard) Session() model.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Game returns the game the session plays.
func (c *Scorecard) Game() model.Game {
	return c.game
}

// Players returns the roster in order.
func (c *Scorecard) Players() []model.Player {
	return append([]model.Player(nil), c.players...)
}

func (c *Scorecard) player(id int) (model.Player, bool) {
	for _, p := range c.players {
		if p.ID == id {
			return p, true
		}
	}
	return model.Player{}, false
}

func (c *Scorecard) standings() []model.PlayerStanding {
	return standings.Compute(c.ledger.All(), c.game, c.players)
}

// Standings returns the current ranking.
func (c *Scorecard) Standings() []model.PlayerStanding {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.standings()
}

// Entries returns the full ledger in insertion order.
func (c *Scorecard) Entries() []model.ScoreEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.All()
}

// EntriesFor returns the ledger entries of one player.
func (c *Scorecard) EntriesFor(playerID int) ([]model.ScoreEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.player(playerID); !ok {
		return nil, model.NotFound("player", playerID)
	}
	return c.ledger.EntriesFor(playerID), nil
}

// Board returns a snapshot for display.
func (c *Scorecard) Board() Board {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.standings()
	b := Board{
		Session:      c.session,
		Game:         c.game,
		Players:      append([]model.Player(nil), c.players...),
		Standings:    st,
		Round:        c.coord.Status(c.ledger.All()),
		CanUndo:      !c.ledger.Closed() && c.hist.CanUndo(),
		CanRedo:      !c.ledger.Closed() && c.hist.CanRedo(),
		LimitReached: standings.LimitReached(st, c.session.ScoreLimit),
	}
	if c.winner != nil {
		w := *c.winner
		b.Winner = &w
	}
	return b
}

// Submit records a single score. A nil round means the current round.
func (c *Scorecard) Submit(ctx context.Context, r *int, s Score) (Outcome, error) {
	return c.SubmitRound(ctx, r, []Score{s})
}

// SubmitRound validates every score first and then appends them in order.
// A nil round means the current round. Nothing is appended when any score is
// invalid. A store failure stops the batch: entries stored before it stay in
// the ledger and are returned in an outcome with Applied false.
func (c *Scorecard) SubmitRound(ctx context.Context, r *int, scores []Score) (Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ledger.Closed() {
		return Outcome{}, model.ErrSessionClosed
	}
	if len(scores) == 0 {
		return Outcome{}, &model.ValidationError{Field: "scores", Reason: "at least one score is required"}
	}

	before := c.ledger.All()
	target := c.coord.Current(before)
	if r != nil {
		target = *r
	}

	seen := make(map[int]bool, len(scores))
	pending := make([]model.ScoreEntry, 0, len(scores))
	for _, s := range scores {
		if _, ok := c.player(s.PlayerID); !ok {
			return Outcome{}, model.NotFound("player", s.PlayerID)
		}
		e, err := c.scorer.Entry(scoring.Input{
			SessionID: c.session.ID,
			PlayerID:  s.PlayerID,
			Round:     target,
			Raw:       s.Raw,
			Kind:      s.Kind,
		})
		if err != nil {
			return Outcome{}, err
		}
		if c.onePerRound && (seen[s.PlayerID] || c.coord.Submitted(before, s.PlayerID, target)) {
			return Outcome{}, fmt.Errorf("player %d round %d: %w", s.PlayerID, target, model.ErrDuplicateEntry)
		}
		seen[s.PlayerID] = true
		pending = append(pending, e)
	}

	var out Outcome
	for _, e := range pending {
		stored, err := c.append(ctx, e)
		if err != nil {
			return c.outcome(out, before), fmt.Errorf("stored %d of %d scores: %w", len(out.Entries), len(pending), err)
		}
		c.hist.Record(stored)
		out.Entries = append(out.Entries, stored)
	}
	out.Applied = true
	return c.outcome(out, before), nil
}

// Undo appends the inverse of the most recent forward entry. Applied is false
// when there is nothing to undo.
func (c *Scorecard) Undo(ctx context.Context) (Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ledger.Closed() {
		return Outcome{}, model.ErrSessionClosed
	}
	before := c.ledger.All()
	e, ok := c.hist.Undo()
	if !ok {
		return c.outcome(Outcome{}, before), nil
	}
	stored, err := c.append(ctx, e.Inverse())
	if err != nil {
		c.hist.Restore(e, true)
		return Outcome{}, err
	}
	return c.outcome(Outcome{Applied: true, Entries: []model.ScoreEntry{stored}}, before), nil
}

// Redo appends a fresh copy of the most recently undone entry. Applied is
// false when there is nothing to redo.
func (c *Scorecard) Redo(ctx context.Context) (Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ledger.Closed() {
		return Outcome{}, model.ErrSessionClosed
	}
	before := c.ledger.All()
	e, ok := c.hist.Redo()
	if !ok {
		return c.outcome(Outcome{}, before), nil
	}
	stored, err := c.append(ctx, e.Replay())
	if err != nil {
		c.hist.Restore(e, false)
		return Outcome{}, err
	}
	c.hist.Reapplied(stored)
	return c.outcome(Outcome{Applied: true, Entries: []model.ScoreEntry{stored}}, before), nil
}

// append stamps e, persists it and only then adds it to the ledger.
func (c *Scorecard) append(ctx context.Context, e model.ScoreEntry) (model.ScoreEntry, error) {
	e.ID = c.newID()
	e.SessionID = c.session.ID
	e.Position = c.ledger.Next()
	e.CreatedAt = c.now().UTC()
	if err := c.store.AppendScore(ctx, e); err != nil {
		return model.ScoreEntry{}, fmt.Errorf("append score: %w", err)
	}
	return c.ledger.Append(e)
}

// outcome fills the derived views after a mutation.
func (c *Scorecard) outcome(out Outcome, before []model.ScoreEntry) Outcome {
	after := c.ledger.All()
	out.Standings = standings.Compute(after, c.game, c.players)
	out.Round = c.coord.Status(after)
	out.LimitReached = standings.LimitReached(out.Standings, c.session.ScoreLimit)
	if tr, done, err := c.coord.Observe(before, after); err == nil && done {
		leader, _ := standings.Leader(out.Standings)
		out.Notice = &Notice{
			Round:   tr.Completed,
			Next:    tr.Next,
			State:   round.RoundComplete,
			Leader:  leader,
			Message: fmt.Sprintf("Round %d Complete!", tr.Completed),
		}
	}
	return out
}

// Complete closes the session and freezes its winner, the top of the final
// standings. A second call fails with ErrSessionClosed.
func (c *Scorecard) Complete(ctx context.Context) (model.Session, model.PlayerStanding, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ledger.Closed() {
		return model.Session{}, model.PlayerStanding{}, model.ErrSessionClosed
	}
	st := c.standings()
	leader, ok := standings.Leader(st)
	if !ok {
		return model.Session{}, model.PlayerStanding{}, &model.ValidationError{Field: "players", Reason: "session has no players"}
	}
	end := c.now().UTC()
	if err := c.store.CompleteSession(ctx, c.session.ID, end, leader.PlayerID); err != nil {
		return model.Session{}, model.PlayerStanding{}, fmt.Errorf("complete session: %w", err)
	}

	c.ledger.Close()
	c.coord.End()
	c.session.IsComplete = true
	c.session.EndTime = &end
	winnerID := leader.PlayerID
	c.session.WinnerID = &winnerID
	c.winner = &leader
	return c.session, leader, nil
}

// Winner returns the frozen winner. It fails with ErrSessionOpen before completion.
func (c *Scorecard) Winner() (model.PlayerStanding, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.winner == nil {
		return model.PlayerStanding{}, model.ErrSessionOpen
	}
	return *c.winner, nil
}

// Closed reports whether the session is complete.
func (c *Scorecard) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.Closed()
}
