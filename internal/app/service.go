// Package service wires the ledger domain to its stores and exposes the
// operations the HTTP API depends on.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/sync/singleflight"

	resultqueue "github.com/okian/tally/internal/adapters/mq/queue"
	workerpool "github.com/okian/tally/internal/adapters/mq/worker"
	repository "github.com/okian/tally/internal/adapters/repository"
	"github.com/okian/tally/internal/domain/catalog"
	"github.com/okian/tally/internal/domain/dedupe"
	"github.com/okian/tally/internal/domain/model"
	"github.com/okian/tally/internal/domain/scorecard"
	"github.com/okian/tally/internal/domain/scoring"
	"github.com/okian/tally/internal/domain/types"
	"github.com/okian/tally/pkg/logger"
	"github.com/okian/tally/pkg/metrics"
)

const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 6
)

// ErrNotStarted is returned by operations called before Start.
var ErrNotStarted = errors.New("service not started")

// Service implements the API dependencies of the score ledger.
type Service struct {
	mu sync.RWMutex

	// Core components
	store   repository.Store
	records repository.RecordsStore
	catalog *catalog.Catalog
	queue   *resultqueue.InMemoryQueue
	pool    *workerpool.Pool
	scorer  *scoring.Scorer

	// Live scorecards by session id
	liveMu sync.RWMutex
	live   map[string]*scorecard.Scorecard
	loads  singleflight.Group

	// Configuration
	workerCount int
	queueSize   int
	dedupeSize  int
	onePerRound bool
	scoreBounds scoring.Bounds
	maxRound    int
	catalogPath string
	now         func() time.Time

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the ledger backend. The service closes it on Stop.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithRecordsStore sets the player records backend. The service closes it on Stop.
func WithRecordsStore(records repository.RecordsStore) Option {
	return func(s *Service) {
		if records != nil {
			s.records = records
		}
	}
}

// WithCatalog sets the game catalog.
func WithCatalog(c *catalog.Catalog) Option {
	return func(s *Service) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithCatalogFile loads extra games, rules and resources on Start.
func WithCatalogFile(path string) Option {
	return func(s *Service) {
		s.catalogPath = path
	}
}

// WithScoreBounds limits accepted entry amounts. Nil means unbounded.
func WithScoreBounds(lo, hi *int) Option {
	return func(s *Service) {
		s.scoreBounds = scoring.Bounds{Min: lo, Max: hi}
	}
}

// WithMaxRound sets the highest round number a score may target.
func WithMaxRound(n int) Option {
	return func(s *Service) {
		s.maxRound = n
	}
}

// WithOneEntryPerRound rejects a second forward entry for a player in a round.
func WithOneEntryPerRound(on bool) Option {
	return func(s *Service) {
		s.onePerRound = on
	}
}

// WithWorkerCount sets the number of record workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the result queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the result deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithClock overrides time.Now for session timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		live:        make(map[string]*scorecard.Scorecard),
		workerCount: runtime.NumCPU(),
		queueSize:   1024,
		dedupeSize:  50_000,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.scorer = scoring.NewScorer(scoring.WithBounds(s.scoreBounds), scoring.WithMaxRound(s.maxRound))
	return s
}

// Start initializes default backends, seeds the game catalog and starts the
// record workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.logger.Info(ctx, "starting score ledger service...")

	if s.store == nil {
		s.store = repository.NewMemoryStore()
		s.logger.Info(ctx, "using memory store")
	}
	if s.records == nil {
		s.records = repository.NewTreapStore(ctx)
		s.logger.Info(ctx, "using treap records store")
	}
	if s.catalog == nil {
		s.catalog = catalog.New()
	}
	if s.catalogPath != "" {
		added, err := s.catalog.LoadFile(s.catalogPath)
		if err != nil {
			return err
		}
		s.logger.Info(ctx, "catalog file loaded", logger.String("path", s.catalogPath), logger.Int("games", len(added)))
	}
	if err := s.seedGames(ctx); err != nil {
		return err
	}

	s.queue = resultqueue.NewInMemoryQueue(resultqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.records,
		workerpool.WithDeduper(dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))),
	)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "score ledger service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// seedGames stores every catalog game whose name is not stored yet.
func (s *Service) seedGames(ctx context.Context) error {
	stored, err := s.store.ListGames(ctx)
	if err != nil {
		return fmt.Errorf("list games: %w", err)
	}
	have := make(map[string]bool, len(stored))
	for _, g := range stored {
		have[strings.ToLower(g.Name)] = true
	}
	seeded := 0
	for _, g := range s.catalog.Games() {
		if have[strings.ToLower(g.Name)] {
			continue
		}
		if _, err := s.store.CreateGame(ctx, g); err != nil {
			return fmt.Errorf("seed game %s: %w", g.Name, err)
		}
		have[strings.ToLower(g.Name)] = true
		seeded++
	}
	if seeded > 0 {
		s.logger.Info(ctx, "games seeded", logger.Int("count", seeded))
	}
	return nil
}

// Stop drains the result queue and closes the backends.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping score ledger service...")

	var errs []error
	if err := s.pool.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := s.records.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close records store: %w", err))
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}

	s.started = false
	s.logger.Info(ctx, "score ledger service stopped")
	return errors.Join(errs...)
}

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// ListGames returns all stored games.
func (s *Service) ListGames(ctx context.Context) ([]model.Game, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.store.ListGames(ctx)
}

// GetGame returns one game.
func (s *Service) GetGame(ctx context.Context, id int64) (model.Game, error) {
	if err := s.ready(); err != nil {
		return model.Game{}, err
	}
	return s.store.GetGame(ctx, id)
}

// CreateGame stores a custom game.
func (s *Service) CreateGame(ctx context.Context, g model.Game) (model.Game, error) {
	if err := s.ready(); err != nil {
		return model.Game{}, err
	}
	g.Name = strings.TrimSpace(g.Name)
	g.IsCustom = true
	if err := catalog.Validate(g); err != nil {
		return model.Game{}, err
	}
	created, err := s.store.CreateGame(ctx, g)
	if err != nil {
		return model.Game{}, err
	}
	s.logger.Info(ctx, "custom game created", logger.Int64("gameID", created.ID), logger.String("name", created.Name))
	return created, nil
}

// GameInfo returns a game with its rules and tutorial resources.
func (s *Service) GameInfo(ctx context.Context, id int64) (catalog.Info, error) {
	g, err := s.GetGame(ctx, id)
	if err != nil {
		return catalog.Info{}, err
	}
	return s.catalog.Info(g), nil
}

// StartSession creates a session for gameID with the given player names.
func (s *Service) StartSession(ctx context.Context, gameID int64, names []string, scoreLimit *int) (scorecard.Board, error) {
	if err := s.ready(); err != nil {
		return scorecard.Board{}, err
	}
	game, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		return scorecard.Board{}, err
	}
	players, err := scorecard.Roster(game, names)
	if err != nil {
		return scorecard.Board{}, err
	}
	if scoreLimit != nil && *scoreLimit <= 0 {
		return scorecard.Board{}, &model.ValidationError{Field: "scoreLimit", Reason: "must be positive"}
	}
	code, err := gonanoid.Generate(codeAlphabet, codeLength)
	if err != nil {
		return scorecard.Board{}, fmt.Errorf("generate session code: %w", err)
	}

	sess := model.Session{
		ID:         uuid.NewString(),
		Code:       code,
		GameID:     game.ID,
		StartTime:  s.now().UTC(),
		ScoreLimit: scoreLimit,
	}
	if err := s.store.CreateSession(ctx, sess, players); err != nil {
		return scorecard.Board{}, fmt.Errorf("create session: %w", err)
	}

	card := s.newScorecard(sess, game, players, nil)
	s.liveMu.Lock()
	s.live[sess.ID] = card
	s.liveMu.Unlock()

	metrics.RecordSessionStarted(game.Name)
	s.updateLiveGauge()
	s.logger.Info(ctx, "session started",
		logger.String("sessionID", sess.ID),
		logger.String("code", sess.Code),
		logger.String("game", game.Name),
		logger.Int("players", len(players)),
	)
	return card.Board(), nil
}

func (s *Service) newScorecard(sess model.Session, game model.Game, players []model.Player, entries []model.ScoreEntry) *scorecard.Scorecard {
	return scorecard.New(sess, game, players, s.store,
		scorecard.WithScorer(s.scorer),
		scorecard.WithOneEntryPerRound(s.onePerRound),
		scorecard.WithEntries(entries),
		scorecard.WithClock(s.now),
	)
}

// scorecard returns the live scorecard, rebuilding it from the store on first
// use. Only open sessions stay in memory; completed ones are rebuilt per call.
func (s *Service) scorecard(ctx context.Context, id string) (*scorecard.Scorecard, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	s.liveMu.RLock()
	card, ok := s.live[id]
	s.liveMu.RUnlock()
	if ok {
		return card, nil
	}

	v, err, _ := s.loads.Do(id, func() (any, error) {
		sess, err := s.store.GetSession(ctx, id)
		if err != nil {
			return nil, err
		}
		game, err := s.store.GetGame(ctx, sess.GameID)
		if err != nil {
			return nil, err
		}
		players, err := s.store.ListPlayers(ctx, id)
		if err != nil {
			return nil, err
		}
		entries, err := s.store.ListScoresForSession(ctx, id)
		if err != nil {
			return nil, err
		}
		card := s.newScorecard(sess, game, players, entries)
		if sess.IsComplete {
			return card, nil
		}

		s.liveMu.Lock()
		defer s.liveMu.Unlock()
		if existing, ok := s.live[id]; ok {
			return existing, nil
		}
		s.live[id] = card
		s.logger.Debug(ctx, "session restored", logger.String("sessionID", id), logger.Int("entries", len(entries)))
		return card, nil
	})
	if err != nil {
		return nil, err
	}
	s.updateLiveGauge()
	return v.(*scorecard.Scorecard), nil
}

func (s *Service) updateLiveGauge() {
	s.liveMu.RLock()
	defer s.liveMu.RUnlock()
	open := 0
	for _, c := range s.live {
		if !c.Closed() {
			open++
		}
	}
	metrics.UpdateLiveSessions(open)
}

// Board returns a snapshot of a session.
func (s *Service) Board(ctx context.Context, id string) (scorecard.Board, error) {
	card, err := s.scorecard(ctx, id)
	if err != nil {
		return scorecard.Board{}, err
	}
	return card.Board(), nil
}

// Standings returns the ranked standings of a session.
func (s *Service) Standings(ctx context.Context, id string) ([]model.PlayerStanding, error) {
	card, err := s.scorecard(ctx, id)
	if err != nil {
		return nil, err
	}
	return card.Standings(), nil
}

// Scores returns the ledger of a session in append order.
func (s *Service) Scores(ctx context.Context, id string) ([]model.ScoreEntry, error) {
	card, err := s.scorecard(ctx, id)
	if err != nil {
		return nil, err
	}
	return card.Entries(), nil
}

// PlayerScores returns one player's entries in a session.
func (s *Service) PlayerScores(ctx context.Context, id string, playerID int) ([]model.ScoreEntry, error) {
	card, err := s.scorecard(ctx, id)
	if err != nil {
		return nil, err
	}
	return card.EntriesFor(playerID)
}

// SubmitScore records one score. A nil round means the current round.
func (s *Service) SubmitScore(ctx context.Context, id string, r *int, score scorecard.Score) (scorecard.Outcome, error) {
	return s.SubmitRound(ctx, id, r, []scorecard.Score{score})
}

// SubmitRound records a batch of scores for one round.
func (s *Service) SubmitRound(ctx context.Context, id string, r *int, scores []scorecard.Score) (scorecard.Outcome, error) {
	card, err := s.scorecard(ctx, id)
	if err != nil {
		return scorecard.Outcome{}, err
	}
	out, err := card.SubmitRound(ctx, r, scores)
	for _, e := range out.Entries {
		metrics.RecordScoreSubmitted(string(e.Kind))
	}
	if err != nil {
		metrics.RecordScoreRejected(rejectReason(err))
		s.logger.Debug(ctx, "score rejected", logger.String("sessionID", id), logger.Error(err))
		return out, err
	}
	s.observe(ctx, id, out)
	return out, nil
}

// Undo reverses the most recent forward entry of a session.
func (s *Service) Undo(ctx context.Context, id string) (scorecard.Outcome, error) {
	return s.history(ctx, id, "undo", (*scorecard.Scorecard).Undo)
}

// Redo re-applies the most recently undone entry of a session.
func (s *Service) Redo(ctx context.Context, id string) (scorecard.Outcome, error) {
	return s.history(ctx, id, "redo", (*scorecard.Scorecard).Redo)
}

func (s *Service) history(ctx context.Context, id, op string, apply func(*scorecard.Scorecard, context.Context) (scorecard.Outcome, error)) (scorecard.Outcome, error) {
	card, err := s.scorecard(ctx, id)
	if err != nil {
		return scorecard.Outcome{}, err
	}
	out, err := apply(card, ctx)
	switch {
	case err != nil:
		metrics.RecordHistory(op, "error")
		return out, err
	case !out.Applied:
		metrics.RecordHistory(op, "empty")
	default:
		metrics.RecordHistory(op, "applied")
		s.observe(ctx, id, out)
	}
	return out, nil
}

// observe records round and limit signals of an applied mutation.
func (s *Service) observe(ctx context.Context, id string, out scorecard.Outcome) {
	if out.Notice != nil {
		metrics.RecordRoundCompleted()
		s.logger.Info(ctx, out.Notice.Message,
			logger.String("sessionID", id),
			logger.String("leader", out.Notice.Leader.Name),
			logger.Int("leaderTotal", out.Notice.Leader.Total),
		)
	}
	if out.LimitReached {
		metrics.RecordLimitReached()
	}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, model.ErrValidation):
		return "validation"
	case errors.Is(err, model.ErrNotFound):
		return "not_found"
	case errors.Is(err, model.ErrSessionClosed):
		return "closed"
	case errors.Is(err, model.ErrDuplicateEntry):
		return "duplicate"
	default:
		return "store"
	}
}

// Complete closes a session, freezes its winner and queues the result for
// the player records.
func (s *Service) Complete(ctx context.Context, id string) (model.Session, model.PlayerStanding, error) {
	card, err := s.scorecard(ctx, id)
	if err != nil {
		return model.Session{}, model.PlayerStanding{}, err
	}
	sess, winner, err := card.Complete(ctx)
	if err != nil {
		return model.Session{}, model.PlayerStanding{}, err
	}

	s.liveMu.Lock()
	delete(s.live, id)
	s.liveMu.Unlock()

	game := card.Game()
	metrics.RecordSessionCompleted(game.Name)
	s.updateLiveGauge()

	players := card.Players()
	names := make([]string, len(players))
	for i, p := range players {
		names[i] = p.Name
	}
	res := model.Result{SessionID: sess.ID, GameID: game.ID, Players: names, Winner: winner.Name, EndTime: *sess.EndTime}
	if err := s.queue.Enqueue(ctx, res); err != nil {
		// The session stays complete; only the records miss this result.
		s.logger.Warn(ctx, "result not queued", logger.String("sessionID", sess.ID), logger.Error(err))
		metrics.RecordErrorByComponent("service", "enqueue_result")
	}
	s.logger.Info(ctx, "session completed",
		logger.String("sessionID", sess.ID),
		logger.String("winner", winner.Name),
		logger.Int("total", winner.Total),
	)
	return sess, winner, nil
}

// Winner returns the frozen winner of a completed session.
func (s *Service) Winner(ctx context.Context, id string) (model.PlayerStanding, error) {
	card, err := s.scorecard(ctx, id)
	if err != nil {
		return model.PlayerStanding{}, err
	}
	return card.Winner()
}

// Leaderboard returns the best n player records.
func (s *Service) Leaderboard(ctx context.Context, n int) ([]types.Record, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.records.TopN(ctx, n)
}

// PlayerRecord returns one player's record and rank.
func (s *Service) PlayerRecord(ctx context.Context, name string) (types.Record, error) {
	if err := s.ready(); err != nil {
		return types.Record{}, err
	}
	return s.records.Rank(ctx, name)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}
	if !s.started {
		return stats
	}

	s.liveMu.RLock()
	loaded, open := len(s.live), 0
	for _, c := range s.live {
		if !c.Closed() {
			open++
		}
	}
	s.liveMu.RUnlock()

	ctx := context.Background()
	players := s.records.Count(ctx)
	stats["queueLength"] = s.queue.Len()
	stats["loadedSessions"] = loaded
	stats["openSessions"] = open
	stats["players"] = players

	metrics.UpdateQueueSize(s.queue.Len())
	metrics.UpdatePlayerRecords(players)
	metrics.UpdateLiveSessions(open)
	return stats
}
