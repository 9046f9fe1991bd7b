// Package client provides the document store over the guestbook HTTP API.
// Live queries are served by long-polling collection versions.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/evcraddock/guestbook/internal/auth"
	"github.com/evcraddock/guestbook/internal/docstore"
)

// DefaultWait is how long the server is asked to hold a watch request.
const DefaultWait = 25 * time.Second

// Client is a docstore.Store backed by a remote guestbook server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	wait       time.Duration

	mu         sync.RWMutex
	credential string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithWait sets the long-poll wait requested from the server.
func WithWait(d time.Duration) Option {
	return func(c *Client) { c.wait = d }
}

// New creates a client. credential may be a session token, an API key or
// empty, in which case EnsureSessionReady signs in anonymously.
func New(baseURL, credential string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 90 * time.Second},
		wait:       DefaultWait,
		credential: credential,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Credential returns the bearer credential in use.
func (c *Client) Credential() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.credential
}

// EnsureSessionReady signs in anonymously unless a credential is already
// held. It implements live.Session.
func (c *Client) EnsureSessionReady(ctx context.Context) error {
	if c.Credential() != "" {
		return nil
	}

	var tok auth.Token
	if err := c.do(ctx, http.MethodPost, "/api/auth/anonymous", nil, &tok); err != nil {
		return fmt.Errorf("anonymous sign-in: %w", err)
	}

	c.mu.Lock()
	c.credential = tok.Token
	c.mu.Unlock()
	slog.Debug("anonymous session started", "uid", tok.UID)
	return nil
}

// SignInAnonymously always requests a fresh anonymous token.
func (c *Client) SignInAnonymously(ctx context.Context) (auth.Token, error) {
	var tok auth.Token
	if err := c.do(ctx, http.MethodPost, "/api/auth/anonymous", nil, &tok); err != nil {
		return auth.Token{}, fmt.Errorf("anonymous sign-in: %w", err)
	}
	return tok, nil
}

func docsPath(collection string, id ...string) string {
	p := "/api/docs/" + url.PathEscape(collection)
	for _, s := range id {
		p += "/" + url.PathEscape(s)
	}
	return p
}

// Create implements docstore.Store.
func (c *Client) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, docsPath(collection), fields, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// Update implements docstore.Store. Nil values are sent as JSON null and
// remove the field on the server.
func (c *Client) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	return c.do(ctx, http.MethodPatch, docsPath(collection, id), fields, nil)
}

// Delete implements docstore.Store.
func (c *Client) Delete(ctx context.Context, collection, id string) error {
	return c.do(ctx, http.MethodDelete, docsPath(collection, id), nil, nil)
}

// Get implements docstore.Store.
func (c *Client) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	var doc docstore.Document
	if err := c.do(ctx, http.MethodGet, docsPath(collection, id), nil, &doc); err != nil {
		return docstore.Document{}, err
	}
	return doc, nil
}

type listResponse struct {
	Version   uint64              `json:"version"`
	Documents []docstore.Document `json:"documents"`
}

func (c *Client) list(ctx context.Context, q docstore.Query, version *uint64) (listResponse, error) {
	params := url.Values{}
	if q.OrderBy != "" {
		params.Set("order", q.OrderBy)
	}
	if q.Descending {
		params.Set("desc", "true")
	}
	if version != nil {
		params.Set("version", strconv.FormatUint(*version, 10))
		params.Set("wait", strconv.Itoa(int(c.wait/time.Second)))
	}

	path := docsPath(q.Collection)
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var resp listResponse
	err := c.do(ctx, http.MethodGet, path, nil, &resp)
	return resp, err
}

// Listen implements docstore.Store. The first snapshot is fetched
// immediately; afterwards each watch request returns either when the
// collection changes or when the server's wait runs out, and a snapshot
// is delivered only when the version moved.
func (c *Client) Listen(q docstore.Query, onSnapshot func([]docstore.Document), onError func(error)) docstore.Unsubscribe {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		var version *uint64
		for {
			resp, err := c.list(ctx, q, version)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				onError(fmt.Errorf("watching %s: %w", q.Collection, err))
				return
			}
			if version == nil || resp.Version != *version {
				onSnapshot(resp.Documents)
			}
			v := resp.Version
			version = &v
		}
	}()

	var once sync.Once
	return func() { once.Do(cancel) }
}

// CreateKey creates an operator API key. The raw key is returned once.
func (c *Client) CreateKey(ctx context.Context, name string) (string, *auth.APIKey, error) {
	var resp struct {
		Key    string      `json:"key"`
		APIKey auth.APIKey `json:"api_key"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/keys", map[string]string{"name": name}, &resp); err != nil {
		return "", nil, err
	}
	return resp.Key, &resp.APIKey, nil
}

// ListKeys returns the server's API keys.
func (c *Client) ListKeys(ctx context.Context) ([]auth.APIKey, error) {
	var keys []auth.APIKey
	if err := c.do(ctx, http.MethodGet, "/api/keys", nil, &keys); err != nil {
		return nil, err
	}
	return keys, nil
}

// DeleteKey revokes an API key.
func (c *Client) DeleteKey(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/keys/%d", id), nil, nil)
}

// Health checks that the server is reachable.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

// do executes a request with the bearer credential and decodes the JSON
// response into result when it is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cred := c.Credential(); cred != "" {
		req.Header.Set("Authorization", "Bearer "+cred)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			slog.Warn("closing response body", "error", cerr)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			apiErr.Message = errResp.Error
		} else {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
}

// Unwrap maps 404 responses to docstore.ErrNotFound.
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return docstore.ErrNotFound
	}
	return nil
}
