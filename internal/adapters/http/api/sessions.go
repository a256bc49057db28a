package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/tally/internal/domain/model"
	"github.com/okian/tally/internal/domain/scorecard"
)

// SessionHandler handles session lifecycle requests.
type SessionHandler struct {
	sessions SessionService
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(sessions SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

type startSessionRequest struct {
	GameID     int64    `json:"gameId"`
	Players    []string `json:"players"`
	ScoreLimit *int     `json:"scoreLimit"`
}

type completeResponse struct {
	Session model.Session        `json:"session"`
	Winner  model.PlayerStanding `json:"winner"`
}

func sessionID(r *http.Request, op string) (string, error) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		return "", WrapKind(op, ErrBadRequest, errors.New("missing session id"))
	}
	return id, nil
}

// HandleStart handles POST /api/sessions.
func (h *SessionHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	const op = "api.start_session"
	var req startSessionRequest
	if err := decodeJSON(w, r, op, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.GameID == 0 {
		writeError(w, WrapKind(op, ErrBadRequest, errors.New("missing gameId")))
		return
	}
	board, err := h.sessions.StartSession(r.Context(), req.GameID, req.Players, req.ScoreLimit)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, board)
}

// HandleBoard handles GET /api/sessions/{id}.
func (h *SessionHandler) HandleBoard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_session"
	id, err := sessionID(r, op)
	if err != nil {
		writeError(w, err)
		return
	}
	board, err := h.sessions.Board(r.Context(), id)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, board)
}

// HandleStandings handles GET /api/sessions/{id}/standings.
func (h *SessionHandler) HandleStandings(w http.ResponseWriter, r *http.Request) {
	const op = "api.standings"
	id, err := sessionID(r, op)
	if err != nil {
		writeError(w, err)
		return
	}
	st, err := h.sessions.Standings(r.Context(), id)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// HandleComplete handles POST /api/sessions/{id}/complete.
func (h *SessionHandler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	const op = "api.complete_session"
	id, err := sessionID(r, op)
	if err != nil {
		writeError(w, err)
		return
	}
	sess, winner, err := h.sessions.Complete(r.Context(), id)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, completeResponse{Session: sess, Winner: winner})
}

// HandleWinner handles GET /api/sessions/{id}/winner.
func (h *SessionHandler) HandleWinner(w http.ResponseWriter, r *http.Request) {
	const op = "api.winner"
	id, err := sessionID(r, op)
	if err != nil {
		writeError(w, err)
		return
	}
	winner, err := h.sessions.Winner(r.Context(), id)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, winner)
}

// HandleUndo handles POST /api/sessions/{id}/undo.
func (h *SessionHandler) HandleUndo(w http.ResponseWriter, r *http.Request) {
	h.handleHistory(w, r, "api.undo", h.sessions.Undo)
}

// HandleRedo handles POST /api/sessions/{id}/redo.
func (h *SessionHandler) HandleRedo(w http.ResponseWriter, r *http.Request) {
	h.handleHistory(w, r, "api.redo", h.sessions.Redo)
}

func (h *SessionHandler) handleHistory(w http.ResponseWriter, r *http.Request, op string, apply func(ctx context.Context, id string) (scorecard.Outcome, error)) {
	id, err := sessionID(r, op)
	if err != nil {
		writeError(w, err)
		return
	}
	out, err := apply(r.Context(), id)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, out)
}
