package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/tally/internal/domain/model"
	"github.com/okian/tally/internal/domain/scorecard"
)

// ScoreHandler handles score submission and ledger reads.
type ScoreHandler struct {
	sessions SessionService
}

// NewScoreHandler creates a new score handler.
func NewScoreHandler(sessions SessionService) *ScoreHandler {
	return &ScoreHandler{sessions: sessions}
}

// scoreInput mirrors one score of a submission. Score accepts a number or a string.
type scoreInput struct {
	PlayerID int             `json:"playerId"`
	Score    json.RawMessage `json:"score"`
	Kind     string          `json:"kind"`
}

func (s scoreInput) toScore() scorecard.Score {
	return scorecard.Score{PlayerID: s.PlayerID, Raw: rawScore(s.Score), Kind: s.Kind}
}

type submitScoreRequest struct {
	SessionID string `json:"sessionId"`
	Round     *int   `json:"round"`
	scoreInput
}

type submitRoundRequest struct {
	Round  *int         `json:"round"`
	Scores []scoreInput `json:"scores"`
}

// HandleSubmit handles POST /api/scores.
func (h *ScoreHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_score"
	var req submitScoreRequest
	if err := decodeJSON(w, r, op, &req); err != nil {
		writeError(w, err)
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		writeError(w, WrapKind(op, ErrBadRequest, errors.New("missing sessionId")))
		return
	}
	out, err := h.sessions.SubmitScore(r.Context(), req.SessionID, req.Round, req.toScore())
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

// HandleRound handles POST /api/sessions/{id}/rounds.
func (h *ScoreHandler) HandleRound(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_round"
	id, err := sessionID(r, op)
	if err != nil {
		writeError(w, err)
		return
	}
	var req submitRoundRequest
	if err := decodeJSON(w, r, op, &req); err != nil {
		writeError(w, err)
		return
	}
	scores := make([]scorecard.Score, len(req.Scores))
	for i, s := range req.Scores {
		scores[i] = s.toScore()
	}
	out, err := h.sessions.SubmitRound(r.Context(), id, req.Round, scores)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

// HandleList handles GET /api/sessions/{id}/scores.
func (h *ScoreHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_scores"
	id, err := sessionID(r, op)
	if err != nil {
		writeError(w, err)
		return
	}
	entries, err := h.sessions.Scores(r.Context(), id)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeEntries(w, entries)
}

// HandlePlayerList handles GET /api/sessions/{id}/players/{playerId}/scores.
func (h *ScoreHandler) HandlePlayerList(w http.ResponseWriter, r *http.Request) {
	const op = "api.player_scores"
	id, err := sessionID(r, op)
	if err != nil {
		writeError(w, err)
		return
	}
	pid, err := pathInt(r, "playerId", op)
	if err != nil {
		writeError(w, err)
		return
	}
	entries, err := h.sessions.PlayerScores(r.Context(), id, int(pid))
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeEntries(w, entries)
}

func writeEntries(w http.ResponseWriter, entries []model.ScoreEntry) {
	if entries == nil {
		entries = []model.ScoreEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
