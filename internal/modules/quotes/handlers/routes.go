package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all quote routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Put("/rfqs/{id}/quote", h.HandleSubmit)      // vendor submit or resubmit
	r.Get("/rfqs/{id}/quotes", h.HandleListForRFQ) // filtered per caller
	r.Get("/quotes", h.HandleList)
}
