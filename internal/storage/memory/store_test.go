package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bcnelson/apikey-console/internal/domain"
)

func TestCreateAssignsIDAndCopies(t *testing.T) {
	ctx := context.Background()
	s := New()

	limit := 10
	in := &domain.APIKey{Name: "a", Key: "pk_a", Status: domain.KeyStatusActive, Limit: &limit}
	row, err := s.CreateAPIKey(ctx, in)
	if err != nil {
		t.Fatalf("CreateAPIKey: %v", err)
	}
	if row.ID == "" {
		t.Fatal("expected an assigned id")
	}
	if in.ID != "" {
		t.Error("input row should not be modified")
	}

	*row.Limit = 99
	got, err := s.GetAPIKeyByKey(ctx, "pk_a")
	if err != nil {
		t.Fatalf("GetAPIKeyByKey: %v", err)
	}
	if *got.Limit != 10 {
		t.Errorf("returned row aliases stored row: limit = %d", *got.Limit)
	}
}

func TestGetByKeySingleRowSemantics(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.Seed(
		&domain.APIKey{ID: "1", Key: "dup"},
		&domain.APIKey{ID: "2", Key: "dup"},
		&domain.APIKey{ID: "3", Key: "solo"},
	)

	if _, err := s.GetAPIKeyByKey(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing key: got %v", err)
	}
	if _, err := s.GetAPIKeyByKey(ctx, "dup"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("duplicate key: got %v", err)
	}
	if k, err := s.GetAPIKeyByKey(ctx, "solo"); err != nil || k.ID != "3" {
		t.Errorf("solo key: got %v, %v", k, err)
	}

	rows, err := s.ListAPIKeysByKey(ctx, "dup")
	if err != nil || len(rows) != 2 {
		t.Errorf("ListAPIKeysByKey(dup) = %d rows, %v", len(rows), err)
	}
}

func TestUpdateStatusDelete(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.Seed(&domain.APIKey{ID: "1", Name: "old", Key: "k", Status: domain.KeyStatusActive})

	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	row, err := s.UpdateAPIKey(ctx, "1", &domain.APIKeyUpdate{Name: "new", Type: domain.KeyTypeProduction, UpdatedAt: now})
	if err != nil {
		t.Fatalf("UpdateAPIKey: %v", err)
	}
	if row.Name != "new" || row.UpdatedAt == nil || !row.UpdatedAt.Equal(now) || row.Key != "k" {
		t.Errorf("unexpected row after update: %+v", row)
	}

	if err := s.SetAPIKeyStatus(ctx, "1", domain.KeyStatusInactive); err != nil {
		t.Fatalf("SetAPIKeyStatus: %v", err)
	}
	rows, _ := s.ListAPIKeys(ctx)
	if rows[0].Status != domain.KeyStatusInactive {
		t.Errorf("status = %q", rows[0].Status)
	}

	if err := s.DeleteAPIKey(ctx, "1"); err != nil {
		t.Fatalf("DeleteAPIKey: %v", err)
	}
	if err := s.DeleteAPIKey(ctx, "1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second delete: got %v", err)
	}
	if _, err := s.UpdateAPIKey(ctx, "1", &domain.APIKeyUpdate{}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("update missing: got %v", err)
	}
	if err := s.SetAPIKeyStatus(ctx, "1", domain.KeyStatusActive); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("status missing: got %v", err)
	}
}

func TestListSortedByCreation(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.Seed(
		&domain.APIKey{ID: "b", CreatedAt: base.Add(2 * time.Hour)},
		&domain.APIKey{ID: "a", CreatedAt: base.Add(time.Hour)},
		&domain.APIKey{ID: "c", CreatedAt: base},
	)

	rows, err := s.ListAPIKeys(ctx)
	if err != nil {
		t.Fatalf("ListAPIKeys: %v", err)
	}
	want := []domain.KeyID{"c", "a", "b"}
	for i, id := range want {
		if rows[i].ID != id {
			t.Errorf("rows[%d] = %q, want %q", i, rows[i].ID, id)
		}
	}
}
