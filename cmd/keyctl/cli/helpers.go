package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/bcnelson/apikey-console/internal/config"
	"github.com/bcnelson/apikey-console/internal/service"
	"github.com/bcnelson/apikey-console/internal/storage"
)

// session is one command's view of the store.
type session struct {
	store      storage.Storage
	console    *service.Console
	playground *service.Playground
}

func (s *session) Close() error {
	return s.store.Close()
}

// openSession loads configuration and opens the store. When load is set the
// console snapshot is filled from the store before returning.
func openSession(ctx context.Context, load bool) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if storeDriver != "" {
		cfg.Store.Driver = storeDriver
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	loc, _ := cfg.Reconcile.Location()

	store, err := openStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	s := &session{
		store: store,
		console: service.NewConsole(store, service.ConsoleOptions{
			Interval: cfg.Reconcile.Interval,
			Location: loc,
		}),
		playground: service.NewPlayground(store, nil),
	}
	if load {
		if err := s.console.Refresh(ctx); err != nil {
			store.Close()
			return nil, err
		}
	}
	return s, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
