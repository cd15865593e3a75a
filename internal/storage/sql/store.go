package sql

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/bcnelson/apikey-console/internal/domain"
	"github.com/bcnelson/apikey-console/internal/storage"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

const apiKeyColumns = `id, name, user_name_key, key_value, key_type, description, usage_limit,
	track_type, track_limit, status, expiry_date, created_at, updated_at, last_used`

// isUniqueViolation checks if an error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	// SQLite
	if strings.Contains(errStr, "UNIQUE constraint failed") {
		return true
	}
	// PostgreSQL
	if strings.Contains(errStr, "duplicate key value violates unique constraint") {
		return true
	}
	return false
}

// wrapError maps driver errors onto domain errors. Anything that is not a
// known condition is a store failure.
func wrapError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return domain.ErrNotFound
	case isUniqueViolation(err):
		return domain.ErrAlreadyExists
	default:
		return fmt.Errorf("%s: %w: %v", op, domain.ErrStoreFailure, err)
	}
}

// Store implements the storage.Storage interface using SQL.
type Store struct {
	db     *sqlx.DB
	driver string
}

var _ storage.Storage = (*Store)(nil)

// New creates a new SQL store and applies pending migrations.
func New(driver, dsn string) (*Store, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	// Run migrations
	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect(driver); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.Up(db.DB, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db, driver: driver}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return wrapError("ping", s.db.PingContext(ctx))
}

func (s *Store) ListAPIKeys(ctx context.Context) ([]*domain.APIKey, error) {
	keys := []*domain.APIKey{}
	err := s.db.SelectContext(ctx, &keys,
		`SELECT `+apiKeyColumns+` FROM api_keys ORDER BY created_at, id`)
	if err != nil {
		return nil, wrapError("listing api keys", err)
	}
	return keys, nil
}

func (s *Store) ListAPIKeysByKey(ctx context.Context, key string) ([]*domain.APIKey, error) {
	keys := []*domain.APIKey{}
	err := s.db.SelectContext(ctx, &keys,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE key_value = $1 ORDER BY created_at, id`, key)
	if err != nil {
		return nil, wrapError("listing api keys by key", err)
	}
	return keys, nil
}

// GetAPIKeyByKey behaves like a single-row select: zero or several matches are both not found.
func (s *Store) GetAPIKeyByKey(ctx context.Context, key string) (*domain.APIKey, error) {
	keys := []*domain.APIKey{}
	err := s.db.SelectContext(ctx, &keys,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE key_value = $1 LIMIT 2`, key)
	if err != nil {
		return nil, wrapError("getting api key", err)
	}
	if len(keys) != 1 {
		return nil, domain.ErrNotFound
	}
	return keys[0], nil
}

func (s *Store) CreateAPIKey(ctx context.Context, key *domain.APIKey) (*domain.APIKey, error) {
	id := key.ID
	if id == "" {
		id = domain.KeyID(uuid.New().String())
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO api_keys (`+apiKeyColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		string(id), key.Name, key.UserNameKey, key.Key, string(key.Type), key.Description, key.Limit,
		string(key.TrackType), key.TrackLimit, string(key.Status), key.ExpiryDate, key.CreatedAt,
		key.UpdatedAt, key.LastUsed,
	)
	if err != nil {
		return nil, wrapError("creating api key", err)
	}
	return s.getAPIKey(ctx, id)
}

func (s *Store) UpdateAPIKey(ctx context.Context, id domain.KeyID, update *domain.APIKeyUpdate) (*domain.APIKey, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE api_keys
		 SET name = $1, user_name_key = $2, description = $3, key_type = $4, usage_limit = $5,
		     track_type = $6, track_limit = $7, expiry_date = $8, updated_at = $9
		 WHERE id = $10`,
		update.Name, update.UserNameKey, update.Description, string(update.Type), update.Limit,
		string(update.TrackType), update.TrackLimit, update.ExpiryDate, update.UpdatedAt, string(id),
	)
	if err != nil {
		return nil, wrapError("updating api key", err)
	}
	if err := requireRow(result); err != nil {
		return nil, err
	}
	return s.getAPIKey(ctx, id)
}

// getAPIKey reads a row back after a write so callers see it as stored.
func (s *Store) getAPIKey(ctx context.Context, id domain.KeyID) (*domain.APIKey, error) {
	var row domain.APIKey
	err := s.db.GetContext(ctx, &row,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE id = $1`, string(id))
	if err != nil {
		return nil, wrapError("reading api key", err)
	}
	return &row, nil
}

func (s *Store) SetAPIKeyStatus(ctx context.Context, id domain.KeyID, status domain.KeyStatus) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE api_keys SET status = $1 WHERE id = $2`, string(status), string(id))
	if err != nil {
		return wrapError("setting api key status", err)
	}
	return requireRow(result)
}

func (s *Store) DeleteAPIKey(ctx context.Context, id domain.KeyID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM api_keys WHERE id = $1`, string(id))
	if err != nil {
		return wrapError("deleting api key", err)
	}
	return requireRow(result)
}

func requireRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return wrapError("reading affected rows", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
