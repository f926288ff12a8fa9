package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all RFQ routes.
// Quote and allocation handlers hang further routes off /rfqs/{id}, so these
// are registered flat rather than under r.Route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/rfqs", h.HandleCreate)
	r.Get("/rfqs", h.HandleList)
	r.Get("/rfqs/number/{number}", h.HandleGetByNumber)
	r.Get("/rfqs/{id}", h.HandleGet)
	r.Put("/rfqs/{id}/status", h.HandleUpdateStatus)
}
