// Package handlers provides HTTP handlers for procurement reports.
package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/aristath/rfqdesk/internal/api"
	"github.com/aristath/rfqdesk/internal/domain"
	"github.com/aristath/rfqdesk/internal/modules/access"
	"github.com/aristath/rfqdesk/internal/modules/reporting"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// ContentTypeMsgpack is served when the client asks for it in Accept
const ContentTypeMsgpack = "application/msgpack"

// Handler handles reporting HTTP requests
type Handler struct {
	service *reporting.Service
	access  *access.Service
	log     zerolog.Logger
}

// NewHandler creates a new reporting handler
func NewHandler(service *reporting.Service, accessService *access.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		access:  accessService,
		log:     log.With().Str("handler", "reporting").Logger(),
	}
}

// HandleLanes returns per-lane cost statistics over closed RFQs
func (h *Handler) HandleLanes(w http.ResponseWriter, r *http.Request) {
	p, ok := api.RequirePrincipal(w, r)
	if !ok {
		return
	}
	if err := h.access.Authorize(p, access.ActionViewReports); err != nil {
		api.WriteDomainError(w, h.log, err)
		return
	}

	topN := reporting.DefaultTopN
	if raw := r.URL.Query().Get("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			api.WriteDomainError(w, h.log, &domain.ValidationError{Field: "top", Reason: "must be a positive integer"})
			return
		}
		topN = n
	}

	lanes, err := h.service.Lanes(r.Context(), topN)
	if err != nil {
		api.WriteDomainError(w, h.log, err)
		return
	}
	if lanes == nil {
		lanes = []reporting.LaneSummary{}
	}

	if strings.Contains(r.Header.Get("Accept"), ContentTypeMsgpack) {
		payload, err := msgpack.Marshal(lanes)
		if err != nil {
			api.WriteDomainError(w, h.log, err)
			return
		}
		w.Header().Set("Content-Type", ContentTypeMsgpack)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(payload)
		return
	}

	api.WriteData(w, http.StatusOK, lanes)
}
