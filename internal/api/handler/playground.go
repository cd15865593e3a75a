package handler

import (
	"net/http"

	"github.com/bcnelson/apikey-console/internal/domain"
	"github.com/bcnelson/apikey-console/internal/service"
)

// PlaygroundHandler handles single-key validation.
type PlaygroundHandler struct {
	playground *service.Playground
}

// NewPlaygroundHandler creates a new PlaygroundHandler.
func NewPlaygroundHandler(playground *service.Playground) *PlaygroundHandler {
	return &PlaygroundHandler{playground: playground}
}

// ValidateRequest is the body of a playground check.
type ValidateRequest struct {
	Key string `json:"key"`
}

// Validate checks one key. Unknown and deactivated keys still answer 200;
// the outcome is in the body's status field.
func (h *PlaygroundHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, domain.ErrCodeInvalidInput, "invalid request body")
		return
	}

	res, err := h.playground.Validate(r.Context(), req.Key)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, res)
}
