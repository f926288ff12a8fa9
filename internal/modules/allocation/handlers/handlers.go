// Package handlers provides HTTP handlers for finalizing RFQs and reading allocations.
package handlers

import (
	"net/http"

	"github.com/aristath/rfqdesk/internal/api"
	"github.com/aristath/rfqdesk/internal/modules/access"
	"github.com/aristath/rfqdesk/internal/modules/allocation"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles allocation HTTP requests
type Handler struct {
	engine *allocation.Engine
	access *access.Service
	log    zerolog.Logger
}

// NewHandler creates a new allocation handler
func NewHandler(engine *allocation.Engine, accessService *access.Service, log zerolog.Logger) *Handler {
	return &Handler{
		engine: engine,
		access: accessService,
		log:    log.With().Str("handler", "allocation").Logger(),
	}
}

// FinalizeRequest is the body of POST /rfqs/{id}/finalize
type FinalizeRequest struct {
	Distribution []allocation.Entry `json:"distribution"`
}

// HandleFinalize commits a distribution and closes the RFQ
func (h *Handler) HandleFinalize(w http.ResponseWriter, r *http.Request) {
	p, ok := api.RequirePrincipal(w, r)
	if !ok {
		return
	}
	if err := h.access.Authorize(p, access.ActionFinalize); err != nil {
		api.WriteDomainError(w, h.log, err)
		return
	}

	var req FinalizeRequest
	if err := api.DecodeJSON(w, r, &req); err != nil {
		api.WriteDomainError(w, h.log, err)
		return
	}

	result, err := h.engine.Finalize(r.Context(), chi.URLParam(r, "id"), req.Distribution)
	if err != nil {
		api.WriteDomainError(w, h.log, err)
		return
	}

	api.WriteData(w, http.StatusOK, result)
}

// HandleListForRFQ returns the allocation rows of one RFQ visible to the caller
func (h *Handler) HandleListForRFQ(w http.ResponseWriter, r *http.Request) {
	p, ok := api.RequirePrincipal(w, r)
	if !ok {
		return
	}

	list, err := h.access.AllocationsForRFQ(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		api.WriteDomainError(w, h.log, err)
		return
	}
	if list == nil {
		list = []allocation.Allocation{}
	}

	api.WriteData(w, http.StatusOK, list)
}

// HandleList returns every allocation row visible to the caller
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	p, ok := api.RequirePrincipal(w, r)
	if !ok {
		return
	}

	list, err := h.access.Allocations(r.Context(), p)
	if err != nil {
		api.WriteDomainError(w, h.log, err)
		return
	}
	if list == nil {
		list = []allocation.Allocation{}
	}

	api.WriteData(w, http.StatusOK, list)
}
