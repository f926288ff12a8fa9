// Package api holds the JSON response helpers shared by every handlers package.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/aristath/rfqdesk/internal/domain"
	"github.com/rs/zerolog"
)

// MaxBodyBytes caps request bodies accepted by DecodeJSON
const MaxBodyBytes = 1 << 20

// WriteJSON writes data as a JSON response with the given status
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteData wraps data in the {"data": ...} envelope
func WriteData(w http.ResponseWriter, status int, data interface{}) {
	WriteJSON(w, status, map[string]interface{}{"data": data})
}

// WriteError writes an error response
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

// StatusFor maps a domain error onto an HTTP status code
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// WriteDomainError writes err with the status matching its classification.
// Typed errors add their details; anything unclassified is logged and hidden.
func WriteDomainError(w http.ResponseWriter, log zerolog.Logger, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("Request failed")
		WriteError(w, status, "internal error")
		return
	}

	body := map[string]interface{}{"error": err.Error()}

	var validation *domain.ValidationError
	var mismatch *domain.AllocationMismatchError
	var negative *domain.NegativeAllocationError
	switch {
	case errors.As(err, &mismatch):
		body["expected"] = mismatch.Expected
		body["computed"] = mismatch.Computed
	case errors.As(err, &negative):
		body["quoteId"] = negative.QuoteID
		body["field"] = negative.Field
	case errors.As(err, &validation):
		if validation.Field != "" {
			body["field"] = validation.Field
		}
	}

	WriteJSON(w, status, body)
}

// DecodeJSON decodes the request body into dst, reporting malformed input as a ValidationError
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &domain.ValidationError{Reason: fmt.Sprintf("invalid request body: %v", err)}
	}
	return nil
}

// RequirePrincipal returns the request principal or writes 401
func RequirePrincipal(w http.ResponseWriter, r *http.Request) (domain.Principal, bool) {
	p, ok := domain.PrincipalFromContext(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "authentication required")
		return domain.Principal{}, false
	}
	return p, true
}
