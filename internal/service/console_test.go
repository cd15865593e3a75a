package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bcnelson/apikey-console/internal/domain"
	"github.com/bcnelson/apikey-console/internal/storage/memory"
	"github.com/bcnelson/apikey-console/internal/storage/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleStartLoadsAndReconciles(t *testing.T) {
	c := NewConsole(seededStore(), ConsoleOptions{Interval: time.Hour, Location: time.UTC, Now: clock})

	require.NoError(t, c.Start(context.Background()))
	t.Cleanup(c.Stop)

	snap := c.Snapshot()
	assert.Equal(t, 5, snap.Len())
	assert.Equal(t, domain.KeyStatusInactive, statusOf(t, snap, "past"))
	assert.Equal(t, domain.KeyStatusActive, statusOf(t, snap, "future"))
}

func TestConsoleStartSurvivesLoadFailure(t *testing.T) {
	store := mock.New(nil)
	store.ListAPIKeysFunc = func(ctx context.Context) ([]*domain.APIKey, error) {
		return nil, domain.ErrStoreFailure
	}
	c := NewConsole(store, ConsoleOptions{Interval: time.Hour, Now: clock})

	require.NoError(t, c.Start(context.Background()))
	t.Cleanup(c.Stop)
	assert.Equal(t, 0, c.Snapshot().Len())
}

func TestConsoleDispatchAppliesToLatestState(t *testing.T) {
	ctx := context.Background()
	c := NewConsole(seededStore(), ConsoleOptions{Interval: time.Hour, Location: time.UTC, Now: clock, KeyGenerator: func() string { return "pk_new" }})
	_, err := c.Reconcile(ctx)
	require.NoError(t, err)

	before := c.Snapshot()
	ev, err := c.Dispatch(ctx, domain.CreateKeyCommand{Name: "new"})
	require.NoError(t, err)
	require.IsType(t, domain.KeyCreated{}, ev)

	after := c.Snapshot()
	assert.Equal(t, before.Len()+1, after.Len())
	assert.Equal(t, 5, before.Len(), "earlier snapshot is not modified")

	_, err = c.Dispatch(ctx, domain.ToggleStatusCommand{ID: "future"})
	require.NoError(t, err)
	assert.Equal(t, domain.KeyStatusInactive, statusOf(t, c.Snapshot(), "future"))

	_, err = c.Dispatch(ctx, domain.DeleteKeyCommand{ID: "never"})
	require.NoError(t, err)
	_, ok := c.Snapshot().Find("never")
	assert.False(t, ok)
}

func TestConsoleDispatchFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	store := mock.New(seededStore())
	c := NewConsole(store, ConsoleOptions{Interval: time.Hour, Location: time.UTC, Now: clock})
	_, err := c.Reconcile(ctx)
	require.NoError(t, err)

	store.DeleteAPIKeyFunc = func(ctx context.Context, id domain.KeyID) error {
		return domain.ErrStoreFailure
	}
	before := c.Snapshot()
	_, err = c.Dispatch(ctx, domain.DeleteKeyCommand{ID: "future"})
	assert.ErrorIs(t, err, domain.ErrStoreFailure)
	assert.Equal(t, before, c.Snapshot())
}

func TestConsoleCheckKey(t *testing.T) {
	c := NewConsole(seededStore(), ConsoleOptions{})

	ok, err := c.CheckKey(context.Background(), "pk_past")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = c.CheckKey(context.Background(), "pk_unused")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSchedulerRunsUntilStopped(t *testing.T) {
	var runs atomic.Int32
	s := NewScheduler(time.Second, func(ctx context.Context) { runs.Add(1) })

	require.NoError(t, s.Start(context.Background()))
	assert.Error(t, s.Start(context.Background()), "second start rejected")

	require.Eventually(t, func() bool { return runs.Load() >= 1 }, 5*time.Second, 50*time.Millisecond)

	s.Stop()
	assert.False(t, s.Running())
	stopped := runs.Load()
	time.Sleep(1500 * time.Millisecond)
	assert.Equal(t, stopped, runs.Load(), "no runs after Stop")

	s.Stop()
}

func TestSchedulerStopsWithContext(t *testing.T) {
	s := NewScheduler(time.Hour, func(ctx context.Context) {})
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, s.Start(ctx))
	require.True(t, s.Running())

	cancel()
	require.Eventually(t, func() bool { return !s.Running() }, 2*time.Second, 10*time.Millisecond)
}

func TestSchedulerRestartSurvivesOldContext(t *testing.T) {
	s := NewScheduler(time.Hour, func(ctx context.Context) {})
	first, cancelFirst := context.WithCancel(context.Background())

	require.NoError(t, s.Start(first))
	cancelFirst()
	s.Stop()

	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(s.Stop)

	time.Sleep(100 * time.Millisecond)
	assert.True(t, s.Running(), "stale context must not stop the new run")
}

func TestConsoleRunning(t *testing.T) {
	c := NewConsole(memory.New(), ConsoleOptions{Interval: time.Hour, Now: clock})
	assert.False(t, c.Running())

	require.NoError(t, c.Start(context.Background()))
	assert.True(t, c.Running())

	c.Stop()
	assert.False(t, c.Running())
}

func TestSchedulerRejectsTinyInterval(t *testing.T) {
	s := NewScheduler(10*time.Millisecond, func(ctx context.Context) {})
	assert.Error(t, s.Start(context.Background()))
}

func TestPlaygroundValidate(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	store.Seed(
		&domain.APIKey{ID: "1", Name: "live", Key: "pk_live", Type: domain.KeyTypeProduction, Status: domain.KeyStatusActive},
		&domain.APIKey{ID: "2", Name: "off", Key: "pk_off", Status: domain.KeyStatusInactive},
	)
	p := NewPlayground(store, clock)

	res, err := p.Validate(ctx, "  pk_live ")
	require.NoError(t, err)
	assert.True(t, res.Valid())
	assert.Equal(t, "API key is valid!", res.Data.Message)
	assert.Equal(t, "production", res.Data.KeyType)
	assert.Equal(t, "live", res.Data.KeyName)
	assert.Equal(t, []string{"read", "write"}, res.Data.Permissions)
	assert.Equal(t, fixedNow, res.Data.Timestamp)

	res, err = p.Validate(ctx, "pk_off")
	require.NoError(t, err)
	assert.False(t, res.Valid())
	assert.Equal(t, "Key Has Been Deactivated", res.Data.Message)
	assert.Equal(t, "unknown", res.Data.KeyType)
	assert.Equal(t, "inactive", res.Data.KeyStatus)
	assert.Empty(t, res.Data.Permissions)

	res, err = p.Validate(ctx, "pk_missing")
	require.NoError(t, err)
	assert.Equal(t, PlaygroundError, res.Status)
	assert.Equal(t, "API key not found in database", res.Data.Message)
	assert.Equal(t, "Invalid API key", res.Data.Error)

	_, err = p.Validate(ctx, "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestPlaygroundStoreFailure(t *testing.T) {
	store := mock.New(nil)
	store.GetAPIKeyByKeyFunc = func(ctx context.Context, key string) (*domain.APIKey, error) {
		return nil, domain.ErrStoreFailure
	}
	p := NewPlayground(store, clock)

	res, err := p.Validate(context.Background(), "pk_any")
	assert.Nil(t, res)
	assert.ErrorIs(t, err, domain.ErrStoreFailure)
}

func TestConsoleRefreshDoesNotReconcile(t *testing.T) {
	store := mock.New(seededStore())
	c := NewConsole(store, ConsoleOptions{Now: clock})

	require.NoError(t, c.Refresh(context.Background()))
	assert.Equal(t, 5, c.Snapshot().Len())
	assert.Equal(t, fixedNow, c.Snapshot().LoadedAt)
	assert.Equal(t, domain.KeyStatusActive, statusOf(t, c.Snapshot(), "past"))
	assert.Equal(t, 0, store.CallCount("SetAPIKeyStatus"))
}
