package postgrest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bcnelson/apikey-console/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  map[string][]string
	Header http.Header
	Body   string
}

func newTestClient(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*Client, *[]recordedRequest) {
	t.Helper()
	var seen []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		seen = append(seen, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
			Body:   string(body),
		})
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL+"/", "anon-key")
	require.NoError(t, err)
	return c, &seen
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New("ftp://example.com", "k")
	assert.Error(t, err)

	_, err = New("https://example.supabase.co", "")
	assert.Error(t, err)
}

func TestListAPIKeys(t *testing.T) {
	c, seen := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[
			{"id": 1, "name": "one", "key": "pk_one", "type": "development", "status": "active",
			 "limit": 100, "trackLimit": null, "expiryDate": "2024-01-01",
			 "created_at": "2024-05-01T09:30:00.123456+00:00", "last_used": null, "userNameKey": null},
			{"id": 2, "name": "two", "key": "pk_two", "status": "inactive", "expiryDate": null,
			 "created_at": "2024-05-02T09:30:00+00:00"}
		]`)
	})

	rows, err := c.ListAPIKeys(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, domain.KeyID("1"), rows[0].ID)
	assert.Equal(t, domain.KeyStatusActive, rows[0].Status)
	require.NotNil(t, rows[0].Limit)
	assert.Equal(t, 100, *rows[0].Limit)
	require.NotNil(t, rows[0].ExpiryDate)
	assert.Equal(t, "2024-01-01", rows[0].ExpiryDate.String())
	assert.Nil(t, rows[1].ExpiryDate)

	req := (*seen)[0]
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/rest/v1/api_keys", req.Path)
	assert.Equal(t, "anon-key", req.Header.Get("apikey"))
	assert.Equal(t, "Bearer anon-key", req.Header.Get("Authorization"))
	assert.Equal(t, []string{"*"}, req.Query["select"])
}

func TestGetAPIKeyByKeyNotFound(t *testing.T) {
	c, seen := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotAcceptable)
		io.WriteString(w, `{"code":"PGRST116","details":"The result contains 0 rows","hint":null,"message":"JSON object requested, multiple (or no) rows returned"}`)
	})

	_, err := c.GetAPIKeyByKey(context.Background(), "pk_missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.False(t, errors.Is(err, domain.ErrStoreFailure))

	var pgErr *Error
	require.True(t, errors.As(err, &pgErr))
	assert.Equal(t, CodeNoRows, pgErr.Code)
	assert.Equal(t, http.StatusNotAcceptable, pgErr.StatusCode)

	req := (*seen)[0]
	assert.Equal(t, singleObjectType, req.Header.Get("Accept"))
	assert.Equal(t, []string{"eq.pk_missing"}, req.Query["key"])
}

func TestGetAPIKeyByKeyFound(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"id":"abc","name":"svc","key":"pk_svc","type":"production","status":"inactive","created_at":"2024-05-01T00:00:00Z"}`)
	})

	row, err := c.GetAPIKeyByKey(context.Background(), "pk_svc")
	require.NoError(t, err)
	assert.Equal(t, domain.KeyID("abc"), row.ID)
	assert.Equal(t, domain.KeyStatusInactive, row.Status)
	assert.Equal(t, domain.KeyTypeProduction, row.Type)
}

func TestCreateAPIKeySendsRowAndReturnsStored(t *testing.T) {
	c, seen := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `[{"id": 42, "name": "new", "key": "pk_new", "status": "active", "created_at": "2024-06-01T00:00:00Z"}]`)
	})

	row, err := c.CreateAPIKey(context.Background(), &domain.APIKey{
		Name:   "new",
		Key:    "pk_new",
		Status: domain.KeyStatusActive,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.KeyID("42"), row.ID)

	req := (*seen)[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "return=representation", req.Header.Get("Prefer"))

	var sent []map[string]any
	require.NoError(t, json.Unmarshal([]byte(req.Body), &sent))
	require.Len(t, sent, 1)
	assert.NotContains(t, sent[0], "id")
	assert.Equal(t, "pk_new", sent[0]["key"])
	assert.Equal(t, "active", sent[0]["status"])
	assert.Contains(t, sent[0], "last_used")
}

func TestSetAPIKeyStatus(t *testing.T) {
	c, seen := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"id": 7, "status": "inactive"}]`)
	})

	require.NoError(t, c.SetAPIKeyStatus(context.Background(), "7", domain.KeyStatusInactive))

	req := (*seen)[0]
	assert.Equal(t, http.MethodPatch, req.Method)
	assert.Equal(t, []string{"eq.7"}, req.Query["id"])
	assert.JSONEq(t, `{"status":"inactive"}`, req.Body)
}

func TestUpdateAndDeleteMissingRow(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[]`)
	})

	_, err := c.UpdateAPIKey(context.Background(), "9", &domain.APIKeyUpdate{Name: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = c.DeleteAPIKey(context.Background(), "9")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = c.SetAPIKeyStatus(context.Background(), "9", domain.KeyStatusActive)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestServerErrorsAreStoreFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"postgrest json", http.StatusBadRequest, `{"code":"22P02","message":"invalid input syntax for type bigint"}`, "invalid input syntax for type bigint"},
		{"gateway html", http.StatusBadGateway, `<html>bad gateway</html>`, "Bad Gateway"},
		{"auth error", http.StatusUnauthorized, `{"error":"Invalid API key"}`, "Invalid API key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})

			err := c.DeleteAPIKey(context.Background(), "1")
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrStoreFailure)
			assert.NotErrorIs(t, err, domain.ErrNotFound)

			var pgErr *Error
			require.ErrorAs(t, err, &pgErr)
			assert.Equal(t, tt.message, pgErr.Message)
		})
	}
}

func TestTransportErrorIsStoreFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(url, "k")
	require.NoError(t, err)

	_, err = c.ListAPIKeys(context.Background())
	assert.ErrorIs(t, err, domain.ErrStoreFailure)
}

func TestListAPIKeysBlankExpiryIsNoExpiry(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[
			{"id": 1, "name": "dated", "key": "pk_1", "status": "active", "expiryDate": "2024-01-01", "created_at": "2024-05-01T09:30:00Z"},
			{"id": 2, "name": "blank", "key": "pk_2", "status": "active", "expiryDate": "", "created_at": "2024-05-01T09:31:00Z"},
			{"id": 3, "name": "null", "key": "pk_3", "status": "active", "expiryDate": null, "created_at": "2024-05-01T09:32:00Z"}
		]`)
	})

	rows, err := c.ListAPIKeys(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.NotNil(t, rows[0].ExpiryDate)
	assert.Equal(t, "2024-01-01", rows[0].ExpiryDate.String())
	assert.Nil(t, rows[1].ExpiryDate)
	assert.Nil(t, rows[2].ExpiryDate)
}

func TestListAPIKeysSkipsMalformedRow(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[
			{"id": 1, "name": "good", "key": "pk_1", "status": "active", "expiryDate": "2024-01-01", "created_at": "2024-05-01T09:30:00Z"},
			{"id": 2, "name": "bad", "key": "pk_2", "status": "active", "expiryDate": "next tuesday", "created_at": "2024-05-01T09:31:00Z"}
		]`)
	})

	rows, err := c.ListAPIKeys(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.KeyID("1"), rows[0].ID)
}
