// Package api is the REST client for the Trompo backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/iksnae/trompo-cli/internal"
)

// SessionStore is the persisted login state the client reads and writes
type SessionStore interface {
	Load() (*internal.Session, error)
	Save(*internal.Session) error
	Clear() error
}

// Client calls the backend REST API. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      SessionStore
}

// Option configures a Client
type Option func(*Client)

// WithTimeout sets a per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// New creates a client for the API rooted at baseURL (e.g. http://host/api)
func New(baseURL string, store SessionStore, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		store:      store,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Session returns the stored session, empty when logged out
func (c *Client) Session() (*internal.Session, error) {
	if c.store == nil {
		return &internal.Session{}, nil
	}
	return c.store.Load()
}

// Healthcheck reports whether the API answers at all. Any HTTP response,
// including an error status, counts as reachable.
func (c *Client) Healthcheck(ctx context.Context) (int, error) {
	err := c.do(ctx, call{
		op:       "healthcheck",
		fallback: "API unavailable",
		method:   http.MethodGet,
		path:     "/businesses/",
	})
	if err == nil {
		return http.StatusOK, nil
	}
	var apiErr *internal.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status, nil
	}
	return 0, err
}

// Ack is the generic acknowledgement body returned by mutations
type Ack struct {
	Message string `json:"message"`
}

// call describes one REST call
type call struct {
	op          string // used in errors and logs
	fallback    string // error message when the backend gives none
	method      string
	path        string
	body        interface{}
	rawBody     io.Reader
	contentType string
	out         interface{}
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (c *Client) do(ctx context.Context, cl call) error {
	var body io.Reader
	contentType := cl.contentType
	switch {
	case cl.rawBody != nil:
		body = cl.rawBody
	case cl.body != nil:
		data, err := json.Marshal(cl.body)
		if err != nil {
			return fmt.Errorf("%s: failed to marshal request: %w", cl.op, err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	target := c.baseURL + cl.path
	req, err := http.NewRequestWithContext(ctx, cl.method, target, body)
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", cl.op, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	if err := c.authorize(req); err != nil {
		return err
	}

	internal.LogDebug("%s %s [%s]", cl.method, target, requestID)
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &internal.TransportError{Op: cl.op, Target: cl.method + " " + target, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &internal.TransportError{Op: cl.op, Target: cl.method + " " + target, Err: err}
	}
	internal.LogDebug("%s %s [%s] -> %d in %s", cl.method, target, requestID, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &internal.APIError{Op: cl.op, Status: resp.StatusCode, Message: errorMessage(data, cl.fallback)}
	}

	if cl.out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, cl.out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", cl.op, err)
	}
	return nil
}

// authorize attaches the bearer token whenever the session holds one
func (c *Client) authorize(req *http.Request) error {
	if c.store == nil {
		return nil
	}
	session, err := c.store.Load()
	if err != nil {
		return err
	}
	if session != nil && session.Token != "" {
		req.Header.Set("Authorization", "Bearer "+session.Token)
	}
	return nil
}

// errorMessage prefers the backend's message field over the fallback
func errorMessage(data []byte, fallback string) string {
	var eb errorBody
	if err := json.Unmarshal(data, &eb); err == nil {
		if msg := strings.TrimSpace(eb.Message); msg != "" {
			return msg
		}
		if msg := strings.TrimSpace(eb.Error); msg != "" {
			return msg
		}
	}
	return fallback
}

// oneOrMany decodes either a JSON array or a single object into a slice
type oneOrMany[T any] []T

func (o *oneOrMany[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var many []T
		if err := json.Unmarshal(data, &many); err != nil {
			return err
		}
		*o = many
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*o = nil
		return nil
	}
	var one T
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*o = []T{one}
	return nil
}

func idPath(format string, ids ...internal.ID) string {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = url.PathEscape(string(id))
	}
	return fmt.Sprintf(format, args...)
}

func requireID(field string, id internal.ID) error {
	if strings.TrimSpace(string(id)) == "" {
		return &internal.ValidationError{Field: field, Reason: "must not be empty"}
	}
	return nil
}
