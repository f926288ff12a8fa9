package server

import (
	"context"
	"net/http"
	"time"

	"github.com/aristath/rfqdesk/internal/api"
)

// handleHealth reports liveness and database reachability. It needs no token.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.container.DB.QuickCheck(ctx); err != nil {
		s.log.Error().Err(err).Msg("Health check failed")
		api.WriteJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":  "unhealthy",
			"service": "rfqdesk",
		})
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"version": "1.0.0",
		"service": "rfqdesk",
	})
}
