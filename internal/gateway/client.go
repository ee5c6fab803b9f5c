// Package gateway is the HTTP client for the Company Access Portal backend.
//
// Every call goes through one request helper that attaches the session
// cookie, tags the request with a correlation ID, and normalizes the
// response into the shared error taxonomy: AUTHZ for HTTP 401/403 (a
// session-invalidation signal), DOMAIN for business-rule rejections with the
// backend's message extracted from its envelope, TRANSPORT when no response
// reached the client at all.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/portalctl/internal/errors"
	"github.com/felixgeelhaar/portalctl/internal/log"
)

// Client is the portal backend API client
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	cookies    *CookieStore
	logger     *log.Logger
}

// Option configures a Client
type Option func(*Client)

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithLogger sets the client logger
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithCookieStore persists the backend session cookies to disk so separate
// CLI invocations share one authenticated session
func WithCookieStore(store *CookieStore) Option {
	return func(c *Client) {
		c.cookies = store
	}
}

// NewClient creates a new portal API client
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigInvalid, "invalid portal URL: "+baseURL, err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCookieStoreFailed, "cannot create cookie jar", err)
	}

	c := &Client{
		baseURL: u,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
		logger: log.DefaultLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.cookies != nil {
		if err := c.cookies.Restore(jar, u); err != nil {
			// A broken cookie file is not fatal; the user just has to log
			// in again.
			c.logger.WithError(err).Warn("could not restore saved cookies")
		}
	}

	return c, nil
}

// BaseURL returns the configured backend base URL
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// PersistCookies saves the current session cookies to disk, if a cookie
// store is configured. Called after a successful login.
func (c *Client) PersistCookies() error {
	if c.cookies == nil {
		return nil
	}
	return c.cookies.Save(c.httpClient.Jar, c.baseURL)
}

// DropCookies removes persisted session cookies. Called on logout.
func (c *Client) DropCookies() error {
	if c.cookies == nil {
		return nil
	}
	return c.cookies.Drop()
}

// methodEnvelope is the `/api/method/*` response wrapper
type methodEnvelope struct {
	Message json.RawMessage `json:"message"`
}

// resourceEnvelope is the `/api/resource/*` response wrapper
type resourceEnvelope struct {
	Data json.RawMessage `json:"data"`
}

// doJSON performs a request and decodes the raw response body into target.
// A nil target discards the body.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, target any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(errors.ErrCodeTransportDecode, "cannot encode request body", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	u := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return errors.Wrap(errors.ErrCodeTransportDecode, "cannot build request", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-Id", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).Debug("request failed", "method", method, "path", path, "request_id", requestID)
		return errors.NewUnreachableError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		err := classifyFailure(resp.StatusCode, raw)
		c.logger.WithError(err).Debug("request rejected",
			"method", method, "path", path, "status", resp.StatusCode, "request_id", requestID)
		return err
	}

	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return errors.NewDecodeError(err)
		}
	}

	return nil
}

// callMethod performs a `/api/method/*` call and decodes the unwrapped
// `message` payload into target
func (c *Client) callMethod(ctx context.Context, httpMethod, apiMethod string, query url.Values, body, target any) error {
	var envelope methodEnvelope
	dst := any(&envelope)
	if target == nil {
		dst = nil
	}

	if err := c.doJSON(ctx, httpMethod, "/api/method/"+apiMethod, query, body, dst); err != nil {
		return err
	}

	if target == nil {
		return nil
	}
	if len(envelope.Message) == 0 {
		return errors.NewDecodeError(fmt.Errorf("response has no message payload"))
	}
	if err := json.Unmarshal(envelope.Message, target); err != nil {
		return errors.NewDecodeError(err)
	}
	return nil
}

// decodeResource unwraps a `/api/resource/*` envelope into target
func decodeResource(envelope resourceEnvelope, target any) error {
	if len(envelope.Data) == 0 {
		return errors.NewDecodeError(fmt.Errorf("response has no data payload"))
	}
	if err := json.Unmarshal(envelope.Data, target); err != nil {
		return errors.NewDecodeError(err)
	}
	return nil
}

// classifyFailure maps a non-2xx response onto the error taxonomy
func classifyFailure(status int, body []byte) error {
	message := extractServerMessage(body)

	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		if message != "" {
			return errors.New(errors.ErrCodeAuthzForbidden, message).
				WithSuggestion("Run 'portalctl login' to re-authenticate")
		}
		return errors.NewForbiddenError()
	}

	if message == "" {
		message = fmt.Sprintf("request failed with status %d", status)
	}
	return errors.NewDomainError(message)
}

// extractServerMessage pulls a human-readable message out of the backend's
// error envelope. The backend is inconsistent: the message may be absent, a
// plain string in `message`, or a `_server_messages` field holding a
// JSON-encoded array whose elements are themselves JSON-encoded objects with
// a `message` field. One tolerant extractor serves every flow.
func extractServerMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	var payload struct {
		Message        json.RawMessage `json:"message"`
		ServerMessages string          `json:"_server_messages"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	if payload.ServerMessages != "" {
		if msg := decodeServerMessages(payload.ServerMessages); msg != "" {
			return msg
		}
	}

	if len(payload.Message) > 0 {
		var plain string
		if err := json.Unmarshal(payload.Message, &plain); err == nil {
			return plain
		}
	}

	return ""
}

// decodeServerMessages unpacks the nested `_server_messages` shape:
// a JSON array of strings, each string itself JSON for {"message": ...}
func decodeServerMessages(raw string) string {
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil || len(items) == 0 {
		return ""
	}

	var first struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(items[0]), &first); err == nil && first.Message != "" {
		return first.Message
	}

	// Tolerate an element that is not the expected object shape.
	var plain string
	if err := json.Unmarshal([]byte(items[0]), &plain); err == nil {
		return plain
	}
	return items[0]
}
