// Package postgrest implements the key store gateway against a hosted
// database exposed through a PostgREST endpoint (for example Supabase).
package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bcnelson/apikey-console/internal/domain"
	"github.com/bcnelson/apikey-console/internal/logging"
	"github.com/bcnelson/apikey-console/internal/storage"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

const (
	// DefaultTable is the table the console manages.
	DefaultTable = "api_keys"

	restPath         = "/rest/v1/"
	singleObjectType = "application/vnd.pgrst.object+json"
	maxErrorBody     = 64 << 10
)

// Client talks to the api_keys table over PostgREST.
type Client struct {
	baseURL    *url.URL
	apiKey     string
	table      string
	httpClient *http.Client
	logger     zerolog.Logger
}

var _ storage.Storage = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTable overrides the table name.
func WithTable(table string) Option {
	return func(c *Client) { c.table = table }
}

// New creates a client for the project at baseURL authenticated with apiKey.
func New(baseURL, apiKey string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing store url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("store url must be http or https, got %q", baseURL)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("store api key is required")
	}

	c := &Client{
		baseURL:    u,
		apiKey:     apiKey,
		table:      DefaultTable,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logging.NewLogger("postgrest"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// Ping issues a one-row select.
func (c *Client) Ping(ctx context.Context) error {
	q := url.Values{"select": {"id"}, "limit": {"1"}}
	return c.do(ctx, http.MethodGet, q, nil, nil, nil)
}

// ListAPIKeys returns every row. A row that cannot be decoded is logged and
// skipped so that it does not hide the rest of the table.
func (c *Client) ListAPIKeys(ctx context.Context) ([]*domain.APIKey, error) {
	q := url.Values{"select": {"*"}, "order": {"created_at.asc"}}
	var raw []json.RawMessage
	if err := c.do(ctx, http.MethodGet, q, nil, nil, &raw); err != nil {
		return nil, err
	}

	rows := make([]*domain.APIKey, 0, len(raw))
	for i, data := range raw {
		var row domain.APIKey
		if err := json.Unmarshal(data, &row); err != nil {
			c.logger.Warn().Err(err).Int("row", i).Str("id", gjson.GetBytes(data, "id").String()).Msg("skipping undecodable api key row")
			continue
		}
		rows = append(rows, &row)
	}
	return rows, nil
}

func (c *Client) ListAPIKeysByKey(ctx context.Context, key string) ([]*domain.APIKey, error) {
	q := url.Values{"select": {"*"}, "key": {"eq." + key}}
	var rows []*domain.APIKey
	if err := c.do(ctx, http.MethodGet, q, nil, nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// GetAPIKeyByKey requests a single object. PostgREST answers PGRST116 when
// zero or several rows match, which surfaces as domain.ErrNotFound.
func (c *Client) GetAPIKeyByKey(ctx context.Context, key string) (*domain.APIKey, error) {
	q := url.Values{"select": {"*"}, "key": {"eq." + key}}
	headers := http.Header{"Accept": {singleObjectType}}
	var row domain.APIKey
	if err := c.do(ctx, http.MethodGet, q, headers, nil, &row); err != nil {
		return nil, err
	}
	return &row, nil
}

func (c *Client) CreateAPIKey(ctx context.Context, key *domain.APIKey) (*domain.APIKey, error) {
	headers := http.Header{"Prefer": {"return=representation"}}
	var rows []*domain.APIKey
	if err := c.do(ctx, http.MethodPost, url.Values{"select": {"*"}}, headers, []*domain.APIKey{key}, &rows); err != nil {
		return nil, err
	}
	return firstRow(rows)
}

func (c *Client) UpdateAPIKey(ctx context.Context, id domain.KeyID, update *domain.APIKeyUpdate) (*domain.APIKey, error) {
	headers := http.Header{"Prefer": {"return=representation"}}
	var rows []*domain.APIKey
	if err := c.do(ctx, http.MethodPatch, idFilter(id), headers, update, &rows); err != nil {
		return nil, err
	}
	return firstRow(rows)
}

func (c *Client) SetAPIKeyStatus(ctx context.Context, id domain.KeyID, status domain.KeyStatus) error {
	headers := http.Header{"Prefer": {"return=representation"}}
	body := map[string]domain.KeyStatus{"status": status}
	var rows []*domain.APIKey
	if err := c.do(ctx, http.MethodPatch, idFilter(id), headers, body, &rows); err != nil {
		return err
	}
	_, err := firstRow(rows)
	return err
}

func (c *Client) DeleteAPIKey(ctx context.Context, id domain.KeyID) error {
	headers := http.Header{"Prefer": {"return=representation"}}
	var rows []*domain.APIKey
	if err := c.do(ctx, http.MethodDelete, idFilter(id), headers, nil, &rows); err != nil {
		return err
	}
	_, err := firstRow(rows)
	return err
}

func idFilter(id domain.KeyID) url.Values {
	q := url.Values{"id": {"eq." + id.String()}}
	q.Set("select", "*")
	return q
}

func firstRow(rows []*domain.APIKey) (*domain.APIKey, error) {
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	return rows[0], nil
}

// do sends one request and decodes a 2xx body into out when out is non-nil.
func (c *Client) do(ctx context.Context, method string, query url.Values, headers http.Header, in, out any) error {
	endpoint := c.baseURL.JoinPath(restPath, c.table)
	endpoint.RawQuery = query.Encode()

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header[k] = v
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w: %v", method, c.table, domain.ErrStoreFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return parseError(resp.StatusCode, raw)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w: %v", c.table, domain.ErrStoreFailure, err)
	}
	return nil
}
