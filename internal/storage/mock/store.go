package mock

import (
	"context"
	"sync"

	"github.com/bcnelson/apikey-console/internal/domain"
	"github.com/bcnelson/apikey-console/internal/storage"
)

// Store is a mock implementation of storage.Storage. Calls go to the
// matching Func field when set, otherwise to Next, otherwise return zero values.
type Store struct {
	// Next handles calls that have no override. May be nil.
	Next storage.Storage

	// Function stubs that can be overridden in tests
	PingFunc             func(ctx context.Context) error
	ListAPIKeysFunc      func(ctx context.Context) ([]*domain.APIKey, error)
	ListAPIKeysByKeyFunc func(ctx context.Context, key string) ([]*domain.APIKey, error)
	GetAPIKeyByKeyFunc   func(ctx context.Context, key string) (*domain.APIKey, error)
	CreateAPIKeyFunc     func(ctx context.Context, key *domain.APIKey) (*domain.APIKey, error)
	UpdateAPIKeyFunc     func(ctx context.Context, id domain.KeyID, update *domain.APIKeyUpdate) (*domain.APIKey, error)
	SetAPIKeyStatusFunc  func(ctx context.Context, id domain.KeyID, status domain.KeyStatus) error
	DeleteAPIKeyFunc     func(ctx context.Context, id domain.KeyID) error

	mu    sync.Mutex
	calls map[string][]interface{}
}

var _ storage.Storage = (*Store)(nil)

// StatusCall is what SetAPIKeyStatus records.
type StatusCall struct {
	ID     domain.KeyID
	Status domain.KeyStatus
}

// New creates a mock store that forwards to next.
func New(next storage.Storage) *Store {
	return &Store{
		Next:  next,
		calls: make(map[string][]interface{}),
	}
}

func (m *Store) record(name string, arg interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string][]interface{})
	}
	m.calls[name] = append(m.calls[name], arg)
}

// Calls returns the recorded arguments for one method.
func (m *Store) Calls(name string) []interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]interface{}(nil), m.calls[name]...)
}

// CallCount returns how many times a method was called.
func (m *Store) CallCount(name string) int {
	return len(m.Calls(name))
}

// Reset forgets all recorded calls.
func (m *Store) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = make(map[string][]interface{})
}

func (m *Store) Close() error {
	m.record("Close", nil)
	if m.Next != nil {
		return m.Next.Close()
	}
	return nil
}

func (m *Store) Ping(ctx context.Context) error {
	m.record("Ping", nil)
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	if m.Next != nil {
		return m.Next.Ping(ctx)
	}
	return nil
}

func (m *Store) ListAPIKeys(ctx context.Context) ([]*domain.APIKey, error) {
	m.record("ListAPIKeys", nil)
	if m.ListAPIKeysFunc != nil {
		return m.ListAPIKeysFunc(ctx)
	}
	if m.Next != nil {
		return m.Next.ListAPIKeys(ctx)
	}
	return nil, nil
}

func (m *Store) ListAPIKeysByKey(ctx context.Context, key string) ([]*domain.APIKey, error) {
	m.record("ListAPIKeysByKey", key)
	if m.ListAPIKeysByKeyFunc != nil {
		return m.ListAPIKeysByKeyFunc(ctx, key)
	}
	if m.Next != nil {
		return m.Next.ListAPIKeysByKey(ctx, key)
	}
	return nil, nil
}

func (m *Store) GetAPIKeyByKey(ctx context.Context, key string) (*domain.APIKey, error) {
	m.record("GetAPIKeyByKey", key)
	if m.GetAPIKeyByKeyFunc != nil {
		return m.GetAPIKeyByKeyFunc(ctx, key)
	}
	if m.Next != nil {
		return m.Next.GetAPIKeyByKey(ctx, key)
	}
	return nil, domain.ErrNotFound
}

func (m *Store) CreateAPIKey(ctx context.Context, key *domain.APIKey) (*domain.APIKey, error) {
	m.record("CreateAPIKey", key)
	if m.CreateAPIKeyFunc != nil {
		return m.CreateAPIKeyFunc(ctx, key)
	}
	if m.Next != nil {
		return m.Next.CreateAPIKey(ctx, key)
	}
	return key, nil
}

func (m *Store) UpdateAPIKey(ctx context.Context, id domain.KeyID, update *domain.APIKeyUpdate) (*domain.APIKey, error) {
	m.record("UpdateAPIKey", id)
	if m.UpdateAPIKeyFunc != nil {
		return m.UpdateAPIKeyFunc(ctx, id, update)
	}
	if m.Next != nil {
		return m.Next.UpdateAPIKey(ctx, id, update)
	}
	return nil, domain.ErrNotFound
}

func (m *Store) SetAPIKeyStatus(ctx context.Context, id domain.KeyID, status domain.KeyStatus) error {
	m.record("SetAPIKeyStatus", StatusCall{ID: id, Status: status})
	if m.SetAPIKeyStatusFunc != nil {
		return m.SetAPIKeyStatusFunc(ctx, id, status)
	}
	if m.Next != nil {
		return m.Next.SetAPIKeyStatus(ctx, id, status)
	}
	return nil
}

func (m *Store) DeleteAPIKey(ctx context.Context, id domain.KeyID) error {
	m.record("DeleteAPIKey", id)
	if m.DeleteAPIKeyFunc != nil {
		return m.DeleteAPIKeyFunc(ctx, id)
	}
	if m.Next != nil {
		return m.Next.DeleteAPIKey(ctx, id)
	}
	return nil
}
