package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bcnelson/apikey-console/internal/domain"
	"github.com/bcnelson/apikey-console/internal/logging"
	"github.com/bcnelson/apikey-console/internal/storage"
	"github.com/bcnelson/apikey-console/internal/validation"
	"github.com/rs/zerolog"
)

// Playground outcome statuses.
const (
	PlaygroundSuccess = "success"
	PlaygroundError   = "error"
)

// PlaygroundResult is the answer to a single key check.
type PlaygroundResult struct {
	Status string         `json:"status"`
	Data   PlaygroundData `json:"data"`
}

// PlaygroundData describes the checked key.
type PlaygroundData struct {
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
	Error       string    `json:"error,omitempty"`
	KeyType     string    `json:"key_type,omitempty"`
	KeyName     string    `json:"key_name,omitempty"`
	KeyStatus   string    `json:"key_status,omitempty"`
	Permissions []string  `json:"permissions,omitempty"`
}

// Valid reports whether the key was found and usable.
func (r *PlaygroundResult) Valid() bool {
	return r.Status == PlaygroundSuccess
}

// Playground checks a single key against the store.
type Playground struct {
	store  storage.Storage
	now    func() time.Time
	logger zerolog.Logger
}

// NewPlayground creates a Playground. A nil now defaults to time.Now.
func NewPlayground(store storage.Storage, now func() time.Time) *Playground {
	if now == nil {
		now = time.Now
	}
	return &Playground{store: store, now: now, logger: logging.NewLogger("playground")}
}

// Validate looks the key up. Unknown and deactivated keys are reported in the
// result, not as errors; an error means the input was blank or the store failed.
func (p *Playground) Validate(ctx context.Context, key string) (*PlaygroundResult, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, validation.NewValidationError("key", "", "Please enter an API key")
	}

	row, err := p.store.GetAPIKeyByKey(ctx, key)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return &PlaygroundResult{
			Status: PlaygroundError,
			Data: PlaygroundData{
				Message:   "API key not found in database",
				Timestamp: p.now().UTC(),
				Error:     "Invalid API key",
			},
		}, nil
	case err != nil:
		p.logger.Error().Err(err).Msg("failed to validate API key")
		return nil, fmt.Errorf("validating api key: %w", err)
	}

	data := PlaygroundData{
		Timestamp: p.now().UTC(),
		KeyType:   string(row.Type),
		KeyName:   row.Name,
		KeyStatus: string(row.Status),
	}
	if data.KeyType == "" {
		data.KeyType = "unknown"
	}

	if row.Status == domain.KeyStatusInactive {
		data.Message = "Key Has Been Deactivated"
		return &PlaygroundResult{Status: PlaygroundError, Data: data}, nil
	}

	data.Message = "API key is valid!"
	data.Permissions = []string{"read", "write"}
	return &PlaygroundResult{Status: PlaygroundSuccess, Data: data}, nil
}
