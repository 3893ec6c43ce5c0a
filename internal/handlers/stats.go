// internal/handlers/stats.go
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

var errStatsDisabled = errors.New("player statistics are not available")

// PlayerStatsHandler returns the match record and rating of a player.
func (s *MatchServer) PlayerStatsHandler(w http.ResponseWriter, r *http.Request) {
	if s.Stats == nil {
		writeError(w, http.StatusServiceUnavailable, errStatsDisabled)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: player id", errBadPayload))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	stats, err := s.Stats.GetUserStats(ctx, id)
	if err != nil {
		s.Logger.Errorf("failed to load stats of %v: %v", id, err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
