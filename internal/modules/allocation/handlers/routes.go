package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all allocation routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/rfqs/{id}/finalize", h.HandleFinalize)
	r.Get("/rfqs/{id}/allocations", h.HandleListForRFQ)
	r.Get("/allocations", h.HandleList)
}
