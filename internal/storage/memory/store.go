package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/bcnelson/apikey-console/internal/domain"
	"github.com/bcnelson/apikey-console/internal/storage"
	"github.com/google/uuid"
)

// Store is an in-memory implementation of the storage interface for testing
// and local development.
type Store struct {
	mu sync.RWMutex

	apiKeys map[domain.KeyID]*domain.APIKey
}

var _ storage.Storage = (*Store)(nil)

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		apiKeys: make(map[domain.KeyID]*domain.APIKey),
	}
}

func (s *Store) Close() error                   { return nil }
func (s *Store) Ping(ctx context.Context) error { return nil }

// Seed inserts rows as-is, keeping their ids. Rows without an id get one.
func (s *Store) Seed(keys ...*domain.APIKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		row := clone(k)
		if row.ID == "" {
			row.ID = domain.KeyID(uuid.New().String())
		}
		s.apiKeys[row.ID] = row
	}
}

func (s *Store) ListAPIKeys(ctx context.Context) ([]*domain.APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]*domain.APIKey, 0, len(s.apiKeys))
	for _, key := range s.apiKeys {
		keys = append(keys, clone(key))
	}
	sortByCreated(keys)
	return keys, nil
}

func (s *Store) ListAPIKeysByKey(ctx context.Context, value string) ([]*domain.APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []*domain.APIKey
	for _, key := range s.apiKeys {
		if key.Key == value {
			keys = append(keys, clone(key))
		}
	}
	sortByCreated(keys)
	return keys, nil
}

// GetAPIKeyByKey mirrors a single-row select: zero or several matches are both not found.
func (s *Store) GetAPIKeyByKey(ctx context.Context, value string) (*domain.APIKey, error) {
	keys, err := s.ListAPIKeysByKey(ctx, value)
	if err != nil {
		return nil, err
	}
	if len(keys) != 1 {
		return nil, domain.ErrNotFound
	}
	return keys[0], nil
}

func (s *Store) CreateAPIKey(ctx context.Context, key *domain.APIKey) (*domain.APIKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := clone(key)
	if row.ID == "" {
		row.ID = domain.KeyID(uuid.New().String())
	}
	if _, exists := s.apiKeys[row.ID]; exists {
		return nil, domain.ErrAlreadyExists
	}
	s.apiKeys[row.ID] = row
	return clone(row), nil
}

func (s *Store) UpdateAPIKey(ctx context.Context, id domain.KeyID, update *domain.APIKeyUpdate) (*domain.APIKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, exists := s.apiKeys[id]
	if !exists {
		return nil, domain.ErrNotFound
	}
	key.Name = update.Name
	key.UserNameKey = update.UserNameKey
	key.Description = update.Description
	key.Type = update.Type
	key.Limit = copyInt(update.Limit)
	key.TrackType = update.TrackType
	key.TrackLimit = copyInt(update.TrackLimit)
	key.ExpiryDate = copyDate(update.ExpiryDate)
	updatedAt := update.UpdatedAt
	key.UpdatedAt = &updatedAt
	return clone(key), nil
}

func (s *Store) SetAPIKeyStatus(ctx context.Context, id domain.KeyID, status domain.KeyStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, exists := s.apiKeys[id]
	if !exists {
		return domain.ErrNotFound
	}
	key.Status = status
	return nil
}

func (s *Store) DeleteAPIKey(ctx context.Context, id domain.KeyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.apiKeys[id]; !exists {
		return domain.ErrNotFound
	}
	delete(s.apiKeys, id)
	return nil
}

func sortByCreated(keys []*domain.APIKey) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CreatedAt.Equal(keys[j].CreatedAt) {
			return keys[i].ID < keys[j].ID
		}
		return keys[i].CreatedAt.Before(keys[j].CreatedAt)
	})
}

func clone(k *domain.APIKey) *domain.APIKey {
	c := *k
	c.Limit = copyInt(k.Limit)
	c.TrackLimit = copyInt(k.TrackLimit)
	c.ExpiryDate = copyDate(k.ExpiryDate)
	if k.UpdatedAt != nil {
		t := *k.UpdatedAt
		c.UpdatedAt = &t
	}
	if k.LastUsed != nil {
		t := *k.LastUsed
		c.LastUsed = &t
	}
	return &c
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyDate(p *domain.Date) *domain.Date {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
