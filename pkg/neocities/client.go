// Package neocities is a client for the Neocities site management API:
// site info, file listing, upload and delete.
package neocities

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/samvad-hq/neocities-go/pkg/httpclient"
)

const (
	DefaultBaseURL   = "https://neocities.org"
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "neocities-go/1.0"

	maxErrorSnippet = 512
)

// Client issues authenticated calls against the API. It is safe for concurrent use.
type Client struct {
	mu       sync.RWMutex
	username string
	password string
	closed   bool

	baseURL string
	http    httpclient.Client
	log     Logger
}

type options struct {
	baseURL   string
	timeout   time.Duration
	userAgent string
	http      httpclient.Client
	log       Logger
}

// Option customises a Client.
type Option func(*options)

// WithBaseURL points the client at a different API host (tests, mirrors).
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = u }
}

// WithTimeout bounds every request. Ignored when WithHTTPClient is used.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithUserAgent overrides the User-Agent header. Ignored when WithHTTPClient is used.
func WithUserAgent(ua string) Option {
	return func(o *options) { o.userAgent = ua }
}

// WithHTTPClient injects the transport.
func WithHTTPClient(c httpclient.Client) Option {
	return func(o *options) { o.http = c }
}

// WithLogger receives debug records for each request.
func WithLogger(l Logger) Option {
	return func(o *options) { o.log = l }
}

// New returns a client for the given account.
func New(username, password string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(password) == "" {
		return nil, ErrInvalidCredentials
	}

	o := options{
		baseURL:   DefaultBaseURL,
		timeout:   DefaultTimeout,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(o.baseURL), "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", o.baseURL)
	}
	if o.timeout <= 0 {
		o.timeout = DefaultTimeout
	}
	if o.http == nil {
		o.http = httpclient.NewRestyClient(o.timeout).SetUserAgent(o.userAgent)
	}

	return &Client{
		username: username,
		password: password,
		baseURL:  base.String(),
		http:     o.http,
		log:      ensureLogger(o.log),
	}, nil
}

// Close drops the held credentials. Subsequent calls fail with ErrClientClosed.
func (c *Client) Close() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.username, c.password = "", ""
	c.closed = true
	c.mu.Unlock()
}

func (c *Client) credentials() (string, string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return "", "", ErrClientClosed
	}
	return c.username, c.password, nil
}

// call performs one request and decodes the common envelope. kind is the error
// returned when the API answers with a non-success result.
func (c *Client) call(ctx context.Context, op string, req httpclient.Request, kind error) (apiEnvelope, []byte, error) {
	user, pass, err := c.credentials()
	if err != nil {
		return apiEnvelope{}, nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	req.URL = c.baseURL + req.URL
	req.Username, req.Password = user, pass

	start := time.Now()
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		c.log.DebugObj("neocities request failed", "neocities_request", map[string]any{
			"op":    op,
			"error": err.Error(),
		})
		return apiEnvelope{}, nil, fmt.Errorf("%s: %w: %w", op, ErrNetwork, err)
	}
	body := resp.Body()
	status := resp.StatusCode()
	c.log.DebugObj("neocities request completed", "neocities_request", map[string]any{
		"op":          op,
		"status":      status,
		"body_bytes":  len(body),
		"duration_ms": time.Since(start).Milliseconds(),
	})

	var env apiEnvelope
	if err := json.Unmarshal(body, &env); err != nil || env.Result == "" {
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			return apiEnvelope{}, body, &APIError{Op: op, StatusCode: status, Message: snippet(body), Kind: ErrAuth}
		}
		if kind == ErrUpload || kind == ErrDelete {
			return apiEnvelope{}, body, fmt.Errorf("%s: %w: %w: status %d: %s", op, kind, ErrDecode, status, snippet(body))
		}
		return apiEnvelope{}, body, fmt.Errorf("%s: %w: status %d: %s", op, ErrDecode, status, snippet(body))
	}

	if !env.succeeded() {
		apiErr := &APIError{
			Op:         op,
			StatusCode: status,
			Result:     env.Result,
			ErrorType:  env.ErrorType,
			Message:    env.Message,
			Kind:       kind,
		}
		if env.ErrorType == errorTypeInvalidAuth || status == http.StatusUnauthorized {
			apiErr.Kind = ErrAuth
		}
		return env, body, apiErr
	}
	return env, body, nil
}

func snippet(body []byte) string {
	if len(body) > maxErrorSnippet {
		body = body[:maxErrorSnippet]
	}
	return strings.TrimSpace(string(body))
}
