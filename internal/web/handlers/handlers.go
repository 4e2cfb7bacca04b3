package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	validate *validatorSet
}

// New creates a new Handlers instance
func New() *Handlers {
	return &Handlers{validate: newValidatorSet()}
}

// errorResponse is the body of every failed request.
type errorResponse struct {
	Detail string `json:"detail"`
}

// messageResponse acknowledges a request that has no record to return.
type messageResponse struct {
	Message string `json:"message"`
}

// jsonResponse encodes v with the given status code.
func (h *Handlers) jsonResponse(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// jsonError sends a JSON error response
func (h *Handlers) jsonError(w http.ResponseWriter, message string, status int) {
	h.jsonResponse(w, status, errorResponse{Detail: message})
}
