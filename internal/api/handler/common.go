package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bcnelson/apikey-console/internal/domain"
	"github.com/bcnelson/apikey-console/internal/logging"
	"github.com/bcnelson/apikey-console/internal/validation"
)

// respondJSON writes a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// respondError writes a JSON error response.
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, domain.StandardErrorResponse{
		Error: domain.StandardError{
			Code:    code,
			Message: message,
		},
	})
}

// handleError converts domain errors to HTTP errors.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	var errs validation.ValidationErrors
	var single *validation.ValidationError
	switch {
	case errors.As(err, &errs):
		respondValidationErrors(w, errs)
	case errors.As(err, &single):
		respondValidationErrors(w, validation.ValidationErrors{single})
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, http.StatusNotFound, domain.ErrCodeResourceNotFound, "not found")
	case errors.Is(err, domain.ErrAlreadyExists):
		respondError(w, http.StatusConflict, domain.ErrCodeResourceAlreadyExists, "already exists")
	case errors.Is(err, domain.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, domain.ErrCodeInvalidInput, "invalid input")
	case errors.Is(err, domain.ErrStoreFailure):
		logger := logging.NewLogger("api")
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("key store request failed")
		respondError(w, http.StatusBadGateway, domain.ErrCodeStoreFailure, "key store unavailable")
	default:
		logger := logging.NewLogger("api")
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("unhandled error")
		respondError(w, http.StatusInternalServerError, domain.ErrCodeInternalError, "internal server error")
	}
}

// decodeJSON decodes JSON from request body.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.ErrInvalidInput
	}
	return nil
}

// respondValidationErrors writes a JSON response for field validation errors.
func respondValidationErrors(w http.ResponseWriter, errs validation.ValidationErrors) {
	details := make(map[string]any, len(errs))
	for _, e := range errs {
		details[e.Field] = e.Message
	}
	resp := domain.StandardErrorResponse{
		Error: domain.StandardError{
			Code:    domain.ErrCodeValidationError,
			Message: errs.Error(),
			Details: details,
		},
	}
	if len(errs) == 1 {
		resp.Error.Field = errs[0].Field
		resp.Error.Message = errs[0].Message
	}
	respondJSON(w, http.StatusBadRequest, resp)
}
