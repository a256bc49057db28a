package playthrough

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/tally/pkg/logger"
)

// Move probabilities, in percent.
const (
	undoChance    = 15
	redoChance    = 10
	penaltyChance = 10
	bonusChance   = 10
	maxRawScore   = 50
)

// ErrMismatch is returned when the service disagrees with the local ledger.
var ErrMismatch = errors.New("standings mismatch")

// Runner plays sessions against a running service.
type Runner struct {
	cfg    Config
	client *client
	log    logger.Logger
	stats  Stats
}

// NewRunner creates a runner for cfg.
func NewRunner(cfg Config, log logger.Logger) *Runner {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Players < 1 {
		cfg.Players = 2
	}
	return &Runner{cfg: cfg, client: newClient(cfg.BaseURL, cfg.Timeout), log: log}
}

// Run checks health, plays every session and verifies the player leaderboard.
func (r *Runner) Run(ctx context.Context) (*Stats, error) {
	r.stats = Stats{StartTime: time.Now()}
	r.log.Info(ctx, "starting playthrough",
		logger.String("baseURL", r.cfg.BaseURL),
		logger.Int("sessions", r.cfg.Sessions),
		logger.Int("rounds", r.cfg.Rounds),
		logger.Int("workers", r.cfg.Workers),
		logger.Int64("seed", int64(r.cfg.Seed)),
	)

	if err := r.checkHealth(ctx); err != nil {
		return nil, err
	}
	var games []game
	if err := r.client.get(ctx, "/api/games", &games); err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	if len(games) == 0 {
		return nil, errors.New("service has no games")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for i := 0; i < r.cfg.Sessions; i++ {
		rng := rand.New(rand.NewPCG(r.cfg.Seed, uint64(i)))
		gm := games[rng.IntN(len(games))]
		g.Go(func() error {
			return r.playSession(gctx, i, gm, rng)
		})
	}
	runErr := g.Wait()

	var lb leaderboard
	if runErr == nil {
		if err := r.client.get(ctx, "/api/leaderboard?limit=5", &lb); err != nil {
			runErr = fmt.Errorf("leaderboard: %w", err)
		}
	}

	r.stats.EndTime = time.Now()
	r.stats.Duration = r.stats.EndTime.Sub(r.stats.StartTime)
	r.logStats(ctx, len(lb.Players))

	if runErr != nil {
		return &r.stats, runErr
	}
	if n := atomic.LoadInt64(&r.stats.Mismatches); n > 0 {
		return &r.stats, fmt.Errorf("%w: %d sessions", ErrMismatch, n)
	}
	return &r.stats, nil
}

func (r *Runner) checkHealth(ctx context.Context) error {
	if err := r.client.get(ctx, "/stats", nil); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}
	return nil
}

func playerCount(want int, g game) int {
	n := max(want, g.MinPlayers)
	if g.MaxPlayers > 0 {
		n = min(n, g.MaxPlayers)
	}
	return max(n, 1)
}

// playSession plays one session to completion and verifies it against a shadow ledger.
func (r *Runner) playSession(ctx context.Context, idx int, g game, rng *rand.Rand) error {
	n := playerCount(r.cfg.Players, g)
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("P%d", rng.IntN(n*4)+i*1000)
	}

	var b board
	if err := r.client.post(ctx, "/api/sessions", startRequest{GameID: g.ID, Players: names}, &b); err != nil {
		return fmt.Errorf("session %d: start %s: %w", idx, g.Name, err)
	}
	atomic.AddInt64(&r.stats.SessionsStarted, 1)
	id := b.Session.ID
	sh := newShadow(len(b.Players), g.HighestWins)

	for round := 0; round < r.cfg.Rounds; round++ {
		req := roundRequest{Scores: make([]scoreInput, 0, len(b.Players))}
		for _, p := range b.Players {
			in := randomScore(rng, p.ID)
			sh.submit(in.PlayerID, in.Kind, in.Score)
			req.Scores = append(req.Scores, in)
		}
		if err := r.client.post(ctx, "/api/sessions/"+id+"/rounds", req, nil); err != nil {
			return fmt.Errorf("session %d: round %d: %w", idx, round, err)
		}
		atomic.AddInt64(&r.stats.ScoresSubmitted, int64(len(req.Scores)))

		if err := r.history(ctx, id, sh, rng); err != nil {
			return fmt.Errorf("session %d: %w", idx, err)
		}
	}

	// One loose score outside the round flow.
	extra := randomScore(rng, b.Players[rng.IntN(len(b.Players))].ID)
	if err := r.client.post(ctx, "/api/scores", scoreRequest{SessionID: id, scoreInput: extra}, nil); err != nil {
		return fmt.Errorf("session %d: score: %w", idx, err)
	}
	sh.submit(extra.PlayerID, extra.Kind, extra.Score)
	atomic.AddInt64(&r.stats.ScoresSubmitted, 1)

	var got []standing
	if err := r.client.get(ctx, "/api/sessions/"+id+"/standings", &got); err != nil {
		return fmt.Errorf("session %d: standings: %w", idx, err)
	}
	if err := sh.verify(got); err != nil {
		atomic.AddInt64(&r.stats.Mismatches, 1)
		r.log.Error(ctx, "standings mismatch", logger.String("sessionID", id), logger.Error(err))
	}

	var done completion
	if err := r.client.post(ctx, "/api/sessions/"+id+"/complete", nil, &done); err != nil {
		return fmt.Errorf("session %d: complete: %w", idx, err)
	}
	if len(got) > 0 && done.Winner.PlayerID != got[0].PlayerID {
		atomic.AddInt64(&r.stats.Mismatches, 1)
		r.log.Error(ctx, "winner mismatch",
			logger.String("sessionID", id),
			logger.Int("winner", done.Winner.PlayerID),
			logger.Int("leader", got[0].PlayerID),
		)
	}

	// A completed session must refuse further scores.
	var apiErr *APIError
	err := r.client.post(ctx, "/api/scores", scoreRequest{SessionID: id, scoreInput: extra}, nil)
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusConflict {
		atomic.AddInt64(&r.stats.Mismatches, 1)
		r.log.Error(ctx, "closed session accepted a score", logger.String("sessionID", id), logger.Error(err))
	}

	atomic.AddInt64(&r.stats.SessionsCompleted, 1)
	if r.cfg.Verbose {
		r.log.Info(ctx, "session played",
			logger.String("code", b.Session.Code),
			logger.String("game", g.Name),
			logger.String("winner", done.Winner.Name),
			logger.Int("total", done.Winner.Total),
		)
	}
	return nil
}

// history randomly undoes and redoes, mirroring every applied move locally.
func (r *Runner) history(ctx context.Context, id string, sh *shadow, rng *rand.Rand) error {
	if rng.IntN(100) < undoChance {
		var out outcome
		if err := r.client.post(ctx, "/api/sessions/"+id+"/undo", nil, &out); err != nil {
			return fmt.Errorf("undo: %w", err)
		}
		if out.Applied != sh.undoLast() {
			return fmt.Errorf("undo applied=%t disagrees with local history", out.Applied)
		}
		atomic.AddInt64(&r.stats.Undos, 1)
	}
	if rng.IntN(100) < redoChance {
		var out outcome
		if err := r.client.post(ctx, "/api/sessions/"+id+"/redo", nil, &out); err != nil {
			return fmt.Errorf("redo: %w", err)
		}
		if out.Applied != sh.redoLast() {
			return fmt.Errorf("redo applied=%t disagrees with local history", out.Applied)
		}
		atomic.AddInt64(&r.stats.Redos, 1)
	}
	return nil
}

func randomScore(rng *rand.Rand, player int) scoreInput {
	in := scoreInput{PlayerID: player, Score: rng.IntN(maxRawScore + 1)}
	switch roll := rng.IntN(100); {
	case roll < penaltyChance:
		in.Kind = "penalty"
	case roll < penaltyChance+bonusChance:
		in.Kind = "bonus"
	}
	return in
}

func (r *Runner) logStats(ctx context.Context, leaders int) {
	var perSecond float64
	if r.stats.Duration > 0 {
		perSecond = float64(r.stats.ScoresSubmitted) / r.stats.Duration.Seconds()
	}
	r.log.Info(ctx, "final statistics",
		logger.Int64("sessionsStarted", r.stats.SessionsStarted),
		logger.Int64("sessionsCompleted", r.stats.SessionsCompleted),
		logger.Int64("scoresSubmitted", r.stats.ScoresSubmitted),
		logger.Int64("undos", r.stats.Undos),
		logger.Int64("redos", r.stats.Redos),
		logger.Int64("mismatches", r.stats.Mismatches),
		logger.Int("leaderboardEntries", leaders),
		logger.Duration("duration", r.stats.Duration),
		logger.Float64("scoresPerSecond", perSecond),
	)
}
