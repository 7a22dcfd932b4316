package httpclient

import (
	"context"
	"io"
	"net/url"
)

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
}

// Part is a single multipart/form-data part. An empty FileName produces a plain form field.
type Part struct {
	Name        string
	FileName    string
	ContentType string
	Reader      io.Reader
}

// Request describes one outbound call. Basic auth is applied when Username is set.
type Request struct {
	Method   string
	URL      string
	Query    url.Values
	Headers  map[string]string
	Username string
	Password string
	Parts    []Part
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
	Do(ctx context.Context, req Request) (Response, error)
}
