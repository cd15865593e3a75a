// Package factory opens the key store selected by configuration.
package factory

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/bcnelson/apikey-console/internal/config"
	"github.com/bcnelson/apikey-console/internal/storage"
	"github.com/bcnelson/apikey-console/internal/storage/memory"
	"github.com/bcnelson/apikey-console/internal/storage/postgrest"
	"github.com/bcnelson/apikey-console/internal/storage/sql"
)

// Open returns the store for cfg.Driver. The caller closes it.
func Open(cfg config.StoreConfig) (storage.Storage, error) {
	switch cfg.Driver {
	case config.DriverPostgREST:
		var opts []postgrest.Option
		if cfg.Table != "" {
			opts = append(opts, postgrest.WithTable(cfg.Table))
		}
		if cfg.Timeout > 0 {
			opts = append(opts, postgrest.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
		}
		client, err := postgrest.New(cfg.URL, cfg.AnonKey, opts...)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.DriverSQLite:
		if err := ensureDir(cfg.DSN); err != nil {
			return nil, err
		}
		return openSQL(cfg)
	case config.DriverPostgres:
		return openSQL(cfg)
	case config.DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.Driver)
	}
}

func openSQL(cfg config.StoreConfig) (storage.Storage, error) {
	store, err := sql.New(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// ensureDir creates the parent directory of a SQLite file DSN.
func ensureDir(dsn string) error {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == ":memory:" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	return nil
}
