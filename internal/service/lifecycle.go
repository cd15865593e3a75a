package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bcnelson/apikey-console/internal/domain"
	"github.com/bcnelson/apikey-console/internal/logging"
	"github.com/bcnelson/apikey-console/internal/storage"
	"github.com/bcnelson/apikey-console/internal/validation"
	"github.com/rs/zerolog"
)

// KeyManager performs create, update, delete and status changes on key
// records. Every operation validates first, issues at most one store write,
// and returns the event that merges the store's answer into local state.
type KeyManager struct {
	store       storage.Storage
	now         func() time.Time
	generateKey func() string
	logger      zerolog.Logger
}

// NewKeyManager creates a KeyManager. A nil now defaults to time.Now and a
// nil generator to GenerateKey.
func NewKeyManager(store storage.Storage, now func() time.Time, generator func() string) *KeyManager {
	if now == nil {
		now = time.Now
	}
	if generator == nil {
		generator = GenerateKey
	}
	return &KeyManager{
		store:       store,
		now:         now,
		generateKey: generator,
		logger:      logging.NewLogger("lifecycle"),
	}
}

// Handle runs cmd against state. On success it returns the new state and the
// event that produced it; on failure state is returned unchanged.
func (m *KeyManager) Handle(ctx context.Context, state domain.State, cmd domain.Command) (domain.State, domain.Event, error) {
	var (
		ev  domain.Event
		err error
	)
	switch c := cmd.(type) {
	case domain.CreateKeyCommand:
		ev, err = m.Create(ctx, c)
	case domain.UpdateKeyCommand:
		ev, err = m.Update(ctx, c)
	case domain.DeleteKeyCommand:
		ev, err = m.Delete(ctx, c)
	case domain.ToggleStatusCommand:
		ev, err = m.ToggleStatus(ctx, state, c)
	default:
		return state, nil, fmt.Errorf("%w: unsupported command %T", domain.ErrInvalidInput, cmd)
	}
	if err != nil {
		return state, nil, err
	}
	return ev.Apply(state), ev, nil
}

// Create validates cmd, writes a new active row and returns it as stored.
func (m *KeyManager) Create(ctx context.Context, cmd domain.CreateKeyCommand) (domain.KeyCreated, error) {
	var errs validation.ValidationErrors
	fields := m.validateFields(&errs, cmd.Name, cmd.Type, cmd.LimitEnabled, cmd.Limit, cmd.TrackType, cmd.TrackLimit)

	key := strings.TrimSpace(cmd.Key)
	if key == "" {
		key = m.generateKey()
	} else {
		errs.Check("key", key, validation.ValidateKeyValue(key))
	}
	if err := errs.Err(); err != nil {
		return domain.KeyCreated{}, err
	}

	unique, err := m.ValidateKeyUniqueness(ctx, key)
	if err != nil {
		m.logger.Error().Err(err).Msg("failed to create API key")
		return domain.KeyCreated{}, fmt.Errorf("checking key uniqueness: %w", err)
	}
	if !unique {
		errs.AddErr("key", key, domain.ErrDuplicateKey)
		return domain.KeyCreated{}, errs
	}

	row, err := m.store.CreateAPIKey(ctx, &domain.APIKey{
		Name:        strings.TrimSpace(cmd.Name),
		UserNameKey: cmd.UserNameKey,
		Key:         key,
		Type:        fields.keyType,
		Description: cmd.Description,
		Limit:       fields.limit,
		TrackType:   fields.trackType,
		TrackLimit:  fields.trackLimit,
		Status:      domain.KeyStatusActive,
		ExpiryDate:  domain.OptionalDate(cmd.ExpiryDate),
		CreatedAt:   m.now().UTC(),
		LastUsed:    nil,
	})
	if err != nil {
		m.logger.Error().Err(err).Str("name", cmd.Name).Msg("failed to create API key")
		return domain.KeyCreated{}, fmt.Errorf("creating api key: %w", err)
	}

	m.logger.Info().Str("id", row.ID.String()).Str("name", row.Name).Msg("api key created")
	return domain.KeyCreated{Key: *row}, nil
}

// Update validates cmd, writes the editable fields with a fresh updated_at
// and returns the row as stored.
func (m *KeyManager) Update(ctx context.Context, cmd domain.UpdateKeyCommand) (domain.KeyUpdated, error) {
	var errs validation.ValidationErrors
	if cmd.ID == "" {
		errs.Add("id", "", "id is required")
	}
	fields := m.validateFields(&errs, cmd.Name, cmd.Type, cmd.LimitEnabled, cmd.Limit, cmd.TrackType, cmd.TrackLimit)
	if err := errs.Err(); err != nil {
		return domain.KeyUpdated{}, err
	}

	row, err := m.store.UpdateAPIKey(ctx, cmd.ID, &domain.APIKeyUpdate{
		Name:        strings.TrimSpace(cmd.Name),
		UserNameKey: cmd.UserNameKey,
		Description: cmd.Description,
		Type:        fields.keyType,
		Limit:       fields.limit,
		TrackType:   fields.trackType,
		TrackLimit:  fields.trackLimit,
		ExpiryDate:  domain.OptionalDate(cmd.ExpiryDate),
		UpdatedAt:   m.now().UTC(),
	})
	if err != nil {
		m.logger.Error().Err(err).Str("id", cmd.ID.String()).Msg("failed to update API key")
		return domain.KeyUpdated{}, fmt.Errorf("updating api key %s: %w", cmd.ID, err)
	}

	m.logger.Info().Str("id", row.ID.String()).Msg("api key updated")
	return domain.KeyUpdated{Key: *row}, nil
}

// Delete removes a key. On failure nothing local changes.
func (m *KeyManager) Delete(ctx context.Context, cmd domain.DeleteKeyCommand) (domain.KeyDeleted, error) {
	if cmd.ID == "" {
		var errs validation.ValidationErrors
		errs.Add("id", "", "id is required")
		return domain.KeyDeleted{}, errs
	}
	if err := m.store.DeleteAPIKey(ctx, cmd.ID); err != nil {
		m.logger.Error().Err(err).Str("id", cmd.ID.String()).Msg("failed to delete API key")
		return domain.KeyDeleted{}, fmt.Errorf("deleting api key %s: %w", cmd.ID, err)
	}
	m.logger.Info().Str("id", cmd.ID.String()).Msg("api key deleted")
	return domain.KeyDeleted{ID: cmd.ID}, nil
}

// ToggleStatus writes the opposite of the key's status as currently held in
// state. The store is not re-read first.
func (m *KeyManager) ToggleStatus(ctx context.Context, state domain.State, cmd domain.ToggleStatusCommand) (domain.KeyStatusChanged, error) {
	current, ok := state.Find(cmd.ID)
	if !ok {
		return domain.KeyStatusChanged{}, fmt.Errorf("api key %s: %w", cmd.ID, domain.ErrNotFound)
	}

	next := current.Status.Toggled()
	if err := m.store.SetAPIKeyStatus(ctx, cmd.ID, next); err != nil {
		m.logger.Error().Err(err).Str("id", cmd.ID.String()).Msg("failed to update API key status")
		return domain.KeyStatusChanged{}, fmt.Errorf("setting status of api key %s: %w", cmd.ID, err)
	}

	m.logger.Info().Str("id", cmd.ID.String()).Str("status", string(next)).Msg("api key status changed")
	return domain.KeyStatusChanged{ID: cmd.ID, Status: next}, nil
}

// ValidateKeyUniqueness reports whether candidate is non-blank and unused.
// The answer is advisory: another writer may insert the same key between
// this check and a later insert.
func (m *KeyManager) ValidateKeyUniqueness(ctx context.Context, candidate string) (bool, error) {
	if strings.TrimSpace(candidate) == "" {
		return false, nil
	}
	rows, err := m.store.ListAPIKeysByKey(ctx, candidate)
	if err != nil {
		return false, err
	}
	return len(rows) == 0, nil
}

type parsedFields struct {
	keyType    domain.KeyType
	trackType  domain.TrackType
	limit      *int
	trackLimit *int
}

func (m *KeyManager) validateFields(
	errs *validation.ValidationErrors,
	name string,
	keyType domain.KeyType,
	limitEnabled bool,
	limit domain.NumberInput,
	trackType domain.TrackType,
	trackLimit domain.NumberInput,
) parsedFields {
	var f parsedFields
	var err error

	errs.Check("name", name, validation.ValidateName(name))

	f.keyType, err = validation.NormalizeKeyType(keyType)
	errs.Check("type", string(keyType), err)

	f.limit, err = validation.ParseLimit(limitEnabled, limit)
	errs.Check("limit", string(limit), err)

	f.trackType, err = validation.NormalizeTrackType(trackType)
	errs.Check("trackType", string(trackType), err)

	f.trackLimit, err = validation.ParseTrackLimit(trackLimit)
	errs.Check("trackLimit", string(trackLimit), err)

	return f
}
