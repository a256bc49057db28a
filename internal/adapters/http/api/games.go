package api

import (
	"net/http"

	"github.com/okian/tally/internal/domain/model"
)

// GameHandler handles game catalog requests.
type GameHandler struct {
	games GameService
}

// NewGameHandler creates a new game handler.
func NewGameHandler(games GameService) *GameHandler {
	return &GameHandler{games: games}
}

type createGameRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	MinPlayers  int    `json:"minPlayers"`
	MaxPlayers  int    `json:"maxPlayers"`
	HighestWins *bool  `json:"highestWins"`
}

// HandleList handles GET /api/games.
func (h *GameHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	games, err := h.games.ListGames(r.Context())
	if err != nil {
		writeError(w, Wrap("api.list_games", err))
		return
	}
	if games == nil {
		games = []model.Game{}
	}
	writeJSON(w, http.StatusOK, games)
}

// HandleCreate handles POST /api/games.
func (h *GameHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_game"
	var req createGameRequest
	if err := decodeJSON(w, r, op, &req); err != nil {
		writeError(w, err)
		return
	}
	g := model.Game{
		Name:        req.Name,
		Description: req.Description,
		MinPlayers:  req.MinPlayers,
		MaxPlayers:  req.MaxPlayers,
		HighestWins: true,
	}
	if req.HighestWins != nil {
		g.HighestWins = *req.HighestWins
	}
	created, err := h.games.CreateGame(r.Context(), g)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// HandleGet handles GET /api/games/{id}.
func (h *GameHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_game"
	id, err := pathInt(r, "id", op)
	if err != nil {
		writeError(w, err)
		return
	}
	g, err := h.games.GetGame(r.Context(), id)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// HandleInfo handles GET /api/games/{id}/info.
func (h *GameHandler) HandleInfo(w http.ResponseWriter, r *http.Request) {
	const op = "api.game_info"
	id, err := pathInt(r, "id", op)
	if err != nil {
		writeError(w, err)
		return
	}
	info, err := h.games.GameInfo(r.Context(), id)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, info)
}
