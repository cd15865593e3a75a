package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/bcnelson/apikey-console/internal/config"
	"github.com/bcnelson/apikey-console/internal/domain"
	"github.com/bcnelson/apikey-console/internal/storage"
	"github.com/bcnelson/apikey-console/internal/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, store storage.Storage, args ...string) (string, error) {
	t.Helper()

	orig := openStore
	openStore = func(*config.Config) (storage.Storage, error) { return store, nil }
	t.Cleanup(func() { openStore = orig })

	var out bytes.Buffer
	cmd := newRootCmd("test")
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--store", "memory"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func listKeys(t *testing.T, store storage.Storage) []*domain.APIKey {
	t.Helper()
	keys, err := store.ListAPIKeys(context.Background())
	require.NoError(t, err)
	return keys
}

func TestCreateAndList(t *testing.T) {
	store := memory.New()

	out, err := run(t, store, "create", "--name", "ci", "--key", "pk_ci", "--type", "production", "--limit", "50", "--expiry", "2030-01-31")
	require.NoError(t, err)
	assert.Contains(t, out, "API Key created")
	assert.Contains(t, out, "pk_ci")

	keys := listKeys(t, store)
	require.Len(t, keys, 1)
	assert.Equal(t, domain.KeyTypeProduction, keys[0].Type)
	require.NotNil(t, keys[0].Limit)
	assert.Equal(t, 50, *keys[0].Limit)
	assert.Equal(t, "2030-01-31", keys[0].ExpiryDate.String())

	out, err = run(t, store, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "pk_ci")
	assert.Contains(t, out, "2030-01-31")

	out, err = run(t, store, "list", "--json")
	require.NoError(t, err)
	var listed []domain.APIKey
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	assert.Len(t, listed, 1)
}

func TestCreateRejectsBadLimit(t *testing.T) {
	store := memory.New()

	_, err := run(t, store, "create", "--name", "ci", "--limit", "lots")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, listKeys(t, store))
}

func TestCreateRequiresName(t *testing.T) {
	_, err := run(t, memory.New(), "create")
	assert.Error(t, err)
}

func TestUpdateKeepsUnsetFields(t *testing.T) {
	store := memory.New()
	limit := 10
	store.Seed(&domain.APIKey{ID: "k1", Name: "old", Key: "pk_1", Type: domain.KeyTypeProduction, Limit: &limit, Status: domain.KeyStatusActive})

	_, err := run(t, store, "update", "k1", "--name", "new")
	require.NoError(t, err)

	keys := listKeys(t, store)
	require.Len(t, keys, 1)
	assert.Equal(t, "new", keys[0].Name)
	assert.Equal(t, domain.KeyTypeProduction, keys[0].Type)
	require.NotNil(t, keys[0].Limit)
	assert.Equal(t, 10, *keys[0].Limit)

	_, err = run(t, store, "update", "k1", "--limit", "off")
	require.NoError(t, err)
	assert.Nil(t, listKeys(t, store)[0].Limit)
}

func TestUpdateUnknownKey(t *testing.T) {
	_, err := run(t, memory.New(), "update", "missing", "--name", "x")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestToggleAndDelete(t *testing.T) {
	store := memory.New()
	store.Seed(&domain.APIKey{ID: "k1", Name: "a", Key: "pk_1", Status: domain.KeyStatusActive})

	out, err := run(t, store, "toggle", "k1")
	require.NoError(t, err)
	assert.Contains(t, out, "now inactive")
	assert.Equal(t, domain.KeyStatusInactive, listKeys(t, store)[0].Status)

	_, err = run(t, store, "delete", "k1")
	require.NoError(t, err)
	assert.Empty(t, listKeys(t, store))
}

func TestCheckAndValidate(t *testing.T) {
	store := memory.New()
	store.Seed(&domain.APIKey{ID: "k1", Name: "a", Key: "pk_1", Type: domain.KeyTypeDevelopment, Status: domain.KeyStatusActive})

	out, err := run(t, store, "check", "pk_1")
	require.NoError(t, err)
	assert.Contains(t, out, "already in use")

	out, err = run(t, store, "check", "pk_2")
	require.NoError(t, err)
	assert.Contains(t, out, "available")

	out, err = run(t, store, "validate", "pk_1")
	require.NoError(t, err)
	assert.Contains(t, out, "API key is valid!")

	out, err = run(t, store, "validate", "pk_2")
	require.NoError(t, err)
	assert.Contains(t, out, "API key not found in database")
}

func TestReconcile(t *testing.T) {
	store := memory.New()
	past := domain.MustParseDate("2000-01-01")
	future := domain.MustParseDate("2999-01-01")
	store.Seed(
		&domain.APIKey{ID: "old", Name: "old", Key: "pk_old", Status: domain.KeyStatusActive, ExpiryDate: &past},
		&domain.APIKey{ID: "new", Name: "new", Key: "pk_new", Status: domain.KeyStatusActive, ExpiryDate: &future},
	)

	out, err := run(t, store, "reconcile")
	require.NoError(t, err)
	assert.Contains(t, out, "1 deactivated")

	for _, k := range listKeys(t, store) {
		if k.ID == "old" {
			assert.Equal(t, domain.KeyStatusInactive, k.Status)
		} else {
			assert.Equal(t, domain.KeyStatusActive, k.Status)
		}
	}
}
