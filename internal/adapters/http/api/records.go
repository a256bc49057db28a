package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/tally/internal/domain/types"
)

// RecordHandler handles player record requests.
type RecordHandler struct {
	records  RecordService
	maxLimit int
}

// NewRecordHandler creates a new record handler.
func NewRecordHandler(records RecordService) *RecordHandler {
	return &RecordHandler{records: records, maxLimit: DefaultMaxLeaderboardLimit}
}

type leaderboardResponse struct {
	Players []recordResponse `json:"players"`
}

type recordResponse struct {
	types.Record
	WinRate float64 `json:"winRate"`
}

func toRecordResponse(rec types.Record) recordResponse {
	return recordResponse{Record: rec, WinRate: rec.WinRate()}
}

// HandleLeaderboard handles GET /api/leaderboard?limit=N.
func (h *RecordHandler) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.leaderboard"
	limit := DefaultLeaderboardLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, WrapKind(op, ErrBadRequest, errors.New("invalid limit; must be a positive integer")))
			return
		}
		limit = n
	}
	if limit > h.maxLimit {
		limit = h.maxLimit
	}

	recs, err := h.records.Leaderboard(r.Context(), limit)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	out := leaderboardResponse{Players: make([]recordResponse, len(recs))}
	for i, rec := range recs {
		out.Players[i] = toRecordResponse(rec)
	}
	writeJSON(w, http.StatusOK, out)
}

// HandlePlayer handles GET /api/players/{name}/record.
func (h *RecordHandler) HandlePlayer(w http.ResponseWriter, r *http.Request) {
	const op = "api.player_record"
	name := strings.TrimSpace(r.PathValue("name"))
	if name == "" {
		writeError(w, WrapKind(op, ErrBadRequest, errors.New("missing player name")))
		return
	}
	rec, err := h.records.PlayerRecord(r.Context(), name)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, toRecordResponse(rec))
}
