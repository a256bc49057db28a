// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/tally/internal/domain/catalog"
	"github.com/okian/tally/internal/domain/model"
	"github.com/okian/tally/internal/domain/scorecard"
	"github.com/okian/tally/internal/domain/types"
)

const (
	// DefaultLeaderboardLimit applies when ?limit is absent.
	DefaultLeaderboardLimit = 10
	// DefaultMaxLeaderboardLimit caps ?limit unless overridden.
	DefaultMaxLeaderboardLimit = 100

	maxBodyBytes = 1 << 20
)

// GameService serves the game catalog.
type GameService interface {
	ListGames(ctx context.Context) ([]model.Game, error)
	GetGame(ctx context.Context, id int64) (model.Game, error)
	CreateGame(ctx context.Context, g model.Game) (model.Game, error)
	GameInfo(ctx context.Context, id int64) (catalog.Info, error)
}

// SessionService serves session lifecycle and scoring.
type SessionService interface {
	StartSession(ctx context.Context, gameID int64, names []string, scoreLimit *int) (scorecard.Board, error)
	Board(ctx context.Context, id string) (scorecard.Board, error)
	Standings(ctx context.Context, id string) ([]model.PlayerStanding, error)
	Scores(ctx context.Context, id string) ([]model.ScoreEntry, error)
	PlayerScores(ctx context.Context, id string, playerID int) ([]model.ScoreEntry, error)
	SubmitScore(ctx context.Context, id string, r *int, score scorecard.Score) (scorecard.Outcome, error)
	SubmitRound(ctx context.Context, id string, r *int, scores []scorecard.Score) (scorecard.Outcome, error)
	Undo(ctx context.Context, id string) (scorecard.Outcome, error)
	Redo(ctx context.Context, id string) (scorecard.Outcome, error)
	Complete(ctx context.Context, id string) (model.Session, model.PlayerStanding, error)
	Winner(ctx context.Context, id string) (model.PlayerStanding, error)
}

// RecordService serves cross-session player records.
type RecordService interface {
	Leaderboard(ctx context.Context, n int) ([]types.Record, error)
	PlayerRecord(ctx context.Context, name string) (types.Record, error)
}

// Dependencies required by HTTP handlers.
type Dependencies interface {
	GameService
	SessionService
	RecordService
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	gameHandler    *GameHandler
	sessionHandler *SessionHandler
	scoreHandler   *ScoreHandler
	recordHandler  *RecordHandler
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithMaxLeaderboardLimit caps the leaderboard page size.
func WithMaxLeaderboardLimit(n int) ServerOption {
	return func(s *Server) {
		if n > 0 {
			s.recordHandler.maxLimit = n
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...ServerOption) *Server {
	s := &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(deps),
		gameHandler:    NewGameHandler(deps),
		sessionHandler: NewSessionHandler(deps),
		scoreHandler:   NewScoreHandler(deps),
		recordHandler:  NewRecordHandler(deps),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	route := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, MetricsMiddleware(h, endpoint))
	}

	route("GET /healthz", "healthz", s.healthHandler.HandleHealth)
	route("GET /stats", "stats", s.statsHandler.HandleStats)

	route("GET /api/games", "games", s.gameHandler.HandleList)
	route("POST /api/games", "games", s.gameHandler.HandleCreate)
	route("GET /api/games/{id}", "game", s.gameHandler.HandleGet)
	route("GET /api/games/{id}/info", "game_info", s.gameHandler.HandleInfo)

	route("POST /api/sessions", "sessions", s.sessionHandler.HandleStart)
	route("GET /api/sessions/{id}", "session", s.sessionHandler.HandleBoard)
	route("POST /api/sessions/{id}/complete", "complete", s.sessionHandler.HandleComplete)
	route("GET /api/sessions/{id}/winner", "winner", s.sessionHandler.HandleWinner)
	route("GET /api/sessions/{id}/standings", "standings", s.sessionHandler.HandleStandings)
	route("POST /api/sessions/{id}/undo", "undo", s.sessionHandler.HandleUndo)
	route("POST /api/sessions/{id}/redo", "redo", s.sessionHandler.HandleRedo)

	route("GET /api/sessions/{id}/scores", "scores", s.scoreHandler.HandleList)
	route("GET /api/sessions/{id}/players/{playerId}/scores", "player_scores", s.scoreHandler.HandlePlayerList)
	route("POST /api/sessions/{id}/rounds", "rounds", s.scoreHandler.HandleRound)
	route("POST /api/scores", "score", s.scoreHandler.HandleSubmit)

	route("GET /api/leaderboard", "leaderboard", s.recordHandler.HandleLeaderboard)
	route("GET /api/players/{name}/record", "player_record", s.recordHandler.HandlePlayer)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	msg := http.StatusText(status)
	if err != nil && status < http.StatusInternalServerError {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// decodeJSON reads a single JSON object from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, op string, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return WrapKind(op, ErrBadRequest, errors.New("invalid JSON body: "+err.Error()))
	}
	return nil
}

func pathInt(r *http.Request, name, op string) (int64, error) {
	raw := strings.TrimSpace(r.PathValue(name))
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, WrapKind(op, ErrBadRequest, errors.New("invalid "+name+": "+raw))
	}
	return v, nil
}

// rawScore accepts a JSON number or string and returns its text form.
func rawScore(msg json.RawMessage) string {
	var s string
	if err := json.Unmarshal(msg, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(msg))
}
