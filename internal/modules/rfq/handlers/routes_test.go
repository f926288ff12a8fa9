package handlers

import (
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestRegisterRoutes(t *testing.T) {
	router := chi.NewRouter()
	handler := NewHandler(nil, nil, zerolog.Nop())

	assert.NotPanics(t, func() {
		handler.RegisterRoutes(router)
	})
}
