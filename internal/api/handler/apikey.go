package handler

import (
	"net/http"
	"strings"

	"github.com/bcnelson/apikey-console/internal/domain"
	"github.com/bcnelson/apikey-console/internal/service"
	"github.com/go-chi/chi/v5"
)

// APIKeyHandler handles API key endpoints.
type APIKeyHandler struct {
	console *service.Console
}

// NewAPIKeyHandler creates a new APIKeyHandler.
func NewAPIKeyHandler(console *service.Console) *APIKeyHandler {
	return &APIKeyHandler{console: console}
}

// KeyCheckResponse answers a uniqueness check.
type KeyCheckResponse struct {
	Key       string `json:"key"`
	Available bool   `json:"available"`
}

// List returns the console's current view of the key table.
func (h *APIKeyHandler) List(w http.ResponseWriter, r *http.Request) {
	keys := h.console.Snapshot().Keys
	if keys == nil {
		keys = []domain.APIKey{}
	}
	respondJSON(w, http.StatusOK, keys)
}

// Create creates a new API key.
func (h *APIKeyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var cmd domain.CreateKeyCommand
	if err := decodeJSON(r, &cmd); err != nil {
		respondError(w, http.StatusBadRequest, domain.ErrCodeInvalidInput, "invalid request body")
		return
	}

	ev, err := h.console.Dispatch(r.Context(), cmd)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, ev.(domain.KeyCreated).Key)
}

// Update rewrites the editable fields of a key.
func (h *APIKeyHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, domain.ErrCodeInvalidInput, "id is required")
		return
	}

	var cmd domain.UpdateKeyCommand
	if err := decodeJSON(r, &cmd); err != nil {
		respondError(w, http.StatusBadRequest, domain.ErrCodeInvalidInput, "invalid request body")
		return
	}
	cmd.ID = domain.KeyID(id)

	ev, err := h.console.Dispatch(r.Context(), cmd)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, ev.(domain.KeyUpdated).Key)
}

// Delete deletes an API key.
func (h *APIKeyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, domain.ErrCodeInvalidInput, "id is required")
		return
	}

	if _, err := h.console.Dispatch(r.Context(), domain.DeleteKeyCommand{ID: domain.KeyID(id)}); err != nil {
		handleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Toggle flips a key between active and inactive.
func (h *APIKeyHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, domain.ErrCodeInvalidInput, "id is required")
		return
	}

	ev, err := h.console.Dispatch(r.Context(), domain.ToggleStatusCommand{ID: domain.KeyID(id)})
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, ev)
}

// Check reports whether a key value is free to use.
func (h *APIKeyHandler) Check(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSpace(r.URL.Query().Get("key"))
	if key == "" {
		respondError(w, http.StatusBadRequest, domain.ErrCodeInvalidInput, "key query parameter is required")
		return
	}

	ok, err := h.console.CheckKey(r.Context(), key)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, KeyCheckResponse{Key: key, Available: ok})
}
