package storage

import (
	"context"

	"github.com/bcnelson/apikey-console/internal/domain"
)

// Storage is the key store gateway over the api_keys table.
// It performs I/O only; validation and state merging happen in the service layer.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Close closes the storage connection.
	Close() error

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error

	// ListAPIKeys returns every row.
	ListAPIKeys(ctx context.Context) ([]*domain.APIKey, error)

	// ListAPIKeysByKey returns the rows whose key equals key. An empty result is not an error.
	ListAPIKeysByKey(ctx context.Context, key string) ([]*domain.APIKey, error)

	// GetAPIKeyByKey returns the single row with the given key or domain.ErrNotFound.
	GetAPIKeyByKey(ctx context.Context, key string) (*domain.APIKey, error)

	// CreateAPIKey inserts a row and returns it as stored, including its assigned id.
	CreateAPIKey(ctx context.Context, key *domain.APIKey) (*domain.APIKey, error)

	// UpdateAPIKey writes the editable fields of one row and returns it as stored.
	UpdateAPIKey(ctx context.Context, id domain.KeyID, update *domain.APIKeyUpdate) (*domain.APIKey, error)

	// SetAPIKeyStatus writes only the status column of one row.
	SetAPIKeyStatus(ctx context.Context, id domain.KeyID, status domain.KeyStatus) error

	// DeleteAPIKey removes one row.
	DeleteAPIKey(ctx context.Context, id domain.KeyID) error
}
