// Package handlers provides HTTP handlers for the RFQ store.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/aristath/rfqdesk/internal/api"
	"github.com/aristath/rfqdesk/internal/domain"
	"github.com/aristath/rfqdesk/internal/modules/access"
	"github.com/aristath/rfqdesk/internal/modules/rfq"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles RFQ HTTP requests
type Handler struct {
	service *rfq.Service
	access  *access.Service
	log     zerolog.Logger
}

// NewHandler creates a new RFQ handler
func NewHandler(service *rfq.Service, accessService *access.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		access:  accessService,
		log:     log.With().Str("handler", "rfq").Logger(),
	}
}

// UpdateStatusRequest is the body of PUT /rfqs/{id}/status
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// HandleCreate creates an RFQ
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	p, ok := api.RequirePrincipal(w, r)
	if !ok {
		return
	}
	if err := h.access.Authorize(p, access.ActionCreateRFQ); err != nil {
		api.WriteDomainError(w, h.log, err)
		return
	}

	var in rfq.NewRFQ
	if err := api.DecodeJSON(w, r, &in); err != nil {
		api.WriteDomainError(w, h.log, err)
		return
	}

	created, err := h.service.Create(r.Context(), in, p)
	if err != nil {
		api.WriteDomainError(w, h.log, err)
		return
	}

	api.WriteData(w, http.StatusCreated, created)
}

// HandleList returns the RFQs visible to the caller
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	p, ok := api.RequirePrincipal(w, r)
	if !ok {
		return
	}

	rfqs, err := h.access.RFQs(r.Context(), p)
	if err != nil {
		api.WriteDomainError(w, h.log, err)
		return
	}
	if rfqs == nil {
		rfqs = []rfq.RFQ{}
	}

	api.WriteData(w, http.StatusOK, rfqs)
}

// HandleGet returns one RFQ
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p, ok := api.RequirePrincipal(w, r)
	if !ok {
		return
	}

	found, err := h.access.RFQ(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		api.WriteDomainError(w, h.log, err)
		return
	}

	api.WriteData(w, http.StatusOK, found)
}

// HandleGetByNumber returns the RFQ with the given rfqNumber
func (h *Handler) HandleGetByNumber(w http.ResponseWriter, r *http.Request) {
	p, ok := api.RequirePrincipal(w, r)
	if !ok {
		return
	}

	number, err := strconv.ParseInt(chi.URLParam(r, "number"), 10, 64)
	if err != nil || number <= 0 {
		api.WriteDomainError(w, h.log, &domain.ValidationError{Field: "number", Reason: "must be a positive integer"})
		return
	}

	byNumber, err := h.service.GetByNumber(r.Context(), number)
	if err != nil {
		api.WriteDomainError(w, h.log, err)
		return
	}
	found, err := h.access.RFQ(r.Context(), p, byNumber.ID)
	if err != nil {
		api.WriteDomainError(w, h.log, err)
		return
	}

	api.WriteData(w, http.StatusOK, found)
}

// HandleUpdateStatus moves an RFQ forward
func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := api.RequirePrincipal(w, r)
	if !ok {
		return
	}
	if err := h.access.Authorize(p, access.ActionUpdateStatus); err != nil {
		api.WriteDomainError(w, h.log, err)
		return
	}

	var req UpdateStatusRequest
	if err := api.DecodeJSON(w, r, &req); err != nil {
		api.WriteDomainError(w, h.log, err)
		return
	}

	updated, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		api.WriteDomainError(w, h.log, err)
		return
	}

	api.WriteData(w, http.StatusOK, updated)
}
