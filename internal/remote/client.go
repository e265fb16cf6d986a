package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"Tutter/internal/core/accounts"
	"Tutter/internal/core/docstore"
)

// XRPC method names served by cmd/server
const (
	MethodQuery          = "social.tutter.store.query"
	MethodGetDocument    = "social.tutter.store.getDocument"
	MethodCreateDocument = "social.tutter.store.createDocument"
	MethodUpdateDocument = "social.tutter.store.updateDocument"
	MethodDeleteDocument = "social.tutter.store.deleteDocument"
	MethodSubscribe      = "social.tutter.store.subscribe"
	MethodSignUp         = "social.tutter.auth.signUp"
	MethodSignIn         = "social.tutter.auth.signIn"
)

const maxResponseBytes = 10 << 20

// DocumentRequest is the body of create, update and delete calls
type DocumentRequest struct {
	Fields     docstore.Fields `json:"fields,omitempty"`
	Collection string          `json:"collection"`
	ID         string          `json:"id,omitempty"`
}

// QueryResponse is the body of a query response
type QueryResponse struct {
	Documents []docstore.Document `json:"documents"`
}

// Client talks to the document store server over XRPC.
// It implements docstore.Store for the signed-in principal.
type Client struct {
	httpClient *http.Client
	breaker    *circuitBreaker
	baseURL    string
	token      string
	mu         sync.RWMutex
}

// Ensure Client implements docstore.Store
var _ docstore.Store = (*Client)(nil)

// ClientOption configures the client
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithCircuitBreaker rejects calls to a method for openFor after threshold
// consecutive server failures. A threshold of zero disables the breaker.
func WithCircuitBreaker(threshold int, openFor time.Duration) ClientOption {
	return func(c *Client) {
		if threshold <= 0 {
			c.breaker = nil
			return
		}
		c.breaker = newCircuitBreaker(threshold, openFor, nil)
	}
}

// WithToken sets the bearer token sent with store calls
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = token
	}
}

// NewClient creates a client for the server at baseURL
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		breaker:    newCircuitBreaker(5, 30*time.Second, nil),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken replaces the bearer token, e.g. after sign-in
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Token returns the current bearer token
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// BaseURL returns the server URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SignUp creates an account and stores the returned token on the client
func (c *Client) SignUp(ctx context.Context, req accounts.SignUpRequest) (*accounts.SessionResponse, error) {
	var resp accounts.SessionResponse
	if err := c.do(ctx, http.MethodPost, MethodSignUp, nil, req, &resp, false); err != nil {
		return nil, wrapAPIError(err, "signUp")
	}
	c.SetToken(resp.AccessJwt)
	return &resp, nil
}

// SignIn authenticates and stores the returned token on the client
func (c *Client) SignIn(ctx context.Context, req accounts.SignInRequest) (*accounts.SessionResponse, error) {
	var resp accounts.SessionResponse
	if err := c.do(ctx, http.MethodPost, MethodSignIn, nil, req, &resp, false); err != nil {
		return nil, wrapAPIError(err, "signIn")
	}
	c.SetToken(resp.AccessJwt)
	return &resp, nil
}

// Query lists documents of a collection matching filter
func (c *Client) Query(ctx context.Context, collection string, filter docstore.Filter) ([]docstore.Document, error) {
	params := url.Values{"collection": {collection}}
	if len(filter) > 0 {
		raw, err := json.Marshal(filter)
		if err != nil {
			return nil, fmt.Errorf("failed to encode filter: %w", err)
		}
		params.Set("filter", string(raw))
	}

	var resp QueryResponse
	if err := c.do(ctx, http.MethodGet, MethodQuery, params, nil, &resp, true); err != nil {
		return nil, wrapAPIError(err, "query")
	}
	if resp.Documents == nil {
		resp.Documents = []docstore.Document{}
	}
	return resp.Documents, nil
}

// GetByID fetches a single document
func (c *Client) GetByID(ctx context.Context, collection, id string) (*docstore.Document, error) {
	params := url.Values{"collection": {collection}, "id": {id}}

	var doc docstore.Document
	if err := c.do(ctx, http.MethodGet, MethodGetDocument, params, nil, &doc, true); err != nil {
		return nil, wrapAPIError(err, "getDocument")
	}
	if doc.Fields == nil {
		doc.Fields = docstore.Fields{}
	}
	return &doc, nil
}

// Create stores a new document and returns the id the server kept
func (c *Client) Create(ctx context.Context, collection, id string, fields docstore.Fields) (string, error) {
	req := DocumentRequest{Collection: collection, ID: id, Fields: fields}

	var doc docstore.Document
	if err := c.do(ctx, http.MethodPost, MethodCreateDocument, nil, req, &doc, true); err != nil {
		return "", wrapAPIError(err, "createDocument")
	}
	return doc.ID, nil
}

// UpdateFields merges fields into an existing document
func (c *Client) UpdateFields(ctx context.Context, collection, id string, fields docstore.Fields) error {
	req := DocumentRequest{Collection: collection, ID: id, Fields: fields}
	if err := c.do(ctx, http.MethodPost, MethodUpdateDocument, nil, req, nil, true); err != nil {
		return wrapAPIError(err, "updateDocument")
	}
	return nil
}

// DeleteByID removes a document
func (c *Client) DeleteByID(ctx context.Context, collection, id string) error {
	req := DocumentRequest{Collection: collection, ID: id}
	if err := c.do(ctx, http.MethodPost, MethodDeleteDocument, nil, req, nil, true); err != nil {
		return wrapAPIError(err, "deleteDocument")
	}
	return nil
}

// do sends an XRPC request. Non-2xx responses are returned as *APIError.
func (c *Client) do(ctx context.Context, method, nsid string, params url.Values, body, out any, authed bool) error {
	endpoint := c.baseURL + "/xrpc/" + nsid
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if authed {
		if token := c.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	if c.breaker != nil {
		if err := c.breaker.canAttempt(nsid); err != nil {
			return err
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == nil {
			c.recordFailure(nsid, err)
		}
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if jsonErr := json.Unmarshal(raw, apiErr); jsonErr != nil || apiErr.Name == "" {
			apiErr.Name = http.StatusText(resp.StatusCode)
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			c.recordFailure(nsid, apiErr)
		} else {
			c.recordSuccess(nsid)
		}
		return apiErr
	}
	c.recordSuccess(nsid)

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) recordFailure(nsid string, err error) {
	if c.breaker != nil {
		c.breaker.recordFailure(nsid, err)
	}
}

func (c *Client) recordSuccess(nsid string) {
	if c.breaker != nil {
		c.breaker.recordSuccess(nsid)
	}
}
