// Package handlers provides HTTP handlers for vendor quotes.
package handlers

import (
	"net/http"

	"github.com/aristath/rfqdesk/internal/api"
	"github.com/aristath/rfqdesk/internal/modules/access"
	"github.com/aristath/rfqdesk/internal/modules/quotes"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles quote HTTP requests
type Handler struct {
	service *quotes.Service
	access  *access.Service
	log     zerolog.Logger
}

// NewHandler creates a new quote handler
func NewHandler(service *quotes.Service, accessService *access.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		access:  accessService,
		log:     log.With().Str("handler", "quotes").Logger(),
	}
}

// HandleSubmit records the calling vendor's quote for an RFQ.
// The vendor is always the caller's organization.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	p, ok := api.RequirePrincipal(w, r)
	if !ok {
		return
	}
	if err := h.access.Authorize(p, access.ActionSubmitQuote); err != nil {
		api.WriteDomainError(w, h.log, err)
		return
	}

	var sheet quotes.CostSheet
	if err := api.DecodeJSON(w, r, &sheet); err != nil {
		api.WriteDomainError(w, h.log, err)
		return
	}

	q, err := h.service.Submit(r.Context(), chi.URLParam(r, "id"), p.Organization, sheet)
	if err != nil {
		api.WriteDomainError(w, h.log, err)
		return
	}

	api.WriteData(w, http.StatusOK, q)
}

// HandleListForRFQ returns the quotes on one RFQ visible to the caller
func (h *Handler) HandleListForRFQ(w http.ResponseWriter, r *http.Request) {
	p, ok := api.RequirePrincipal(w, r)
	if !ok {
		return
	}

	list, err := h.access.QuotesForRFQ(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		api.WriteDomainError(w, h.log, err)
		return
	}
	if list == nil {
		list = []quotes.Quote{}
	}

	api.WriteData(w, http.StatusOK, list)
}

// HandleList returns every quote visible to the caller
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	p, ok := api.RequirePrincipal(w, r)
	if !ok {
		return
	}

	list, err := h.access.Quotes(r.Context(), p)
	if err != nil {
		api.WriteDomainError(w, h.log, err)
		return
	}
	if list == nil {
		list = []quotes.Quote{}
	}

	api.WriteData(w, http.StatusOK, list)
}
