package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// RestyClient adapts resty.Client to the httpclient.Client interface.
type RestyClient struct {
	client *resty.Client
}

// NewRestyClient creates a new RestyClient with the specified timeout.
func NewRestyClient(timeout time.Duration) *RestyClient {
	return &RestyClient{client: newRestyBaseClient(timeout)}
}

// NewRestyHTTPClient exposes a configured resty.Client for callers needing custom verbs.
func NewRestyHTTPClient(timeout time.Duration) *resty.Client {
	return newRestyBaseClient(timeout)
}

// SetUserAgent sets the User-Agent sent with every request.
func (r *RestyClient) SetUserAgent(ua string) *RestyClient {
	if ua = strings.TrimSpace(ua); ua != "" {
		r.client.SetHeader("User-Agent", ua)
	}
	return r
}

// newRestyBaseClient creates a new resty.Client with the specified timeout.
func newRestyBaseClient(timeout time.Duration) *resty.Client {
	c := resty.New()
	c.SetTimeout(timeout)
	return c
}

// Get performs an HTTP GET request with the specified context, URL, and headers.
func (r *RestyClient) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	return r.Do(ctx, Request{Method: http.MethodGet, URL: url, Headers: headers})
}

// Do executes req. Transport failures are returned as errors; any HTTP status is a response.
func (r *RestyClient) Do(ctx context.Context, in Request) (Response, error) {
	if strings.TrimSpace(in.URL) == "" {
		return nil, fmt.Errorf("request url is empty")
	}
	method := strings.ToUpper(strings.TrimSpace(in.Method))
	if method == "" {
		method = http.MethodGet
	}

	req := r.client.R().SetContext(ctx)
	if len(in.Headers) > 0 {
		req.SetHeaders(in.Headers)
	}
	if in.Username != "" {
		req.SetBasicAuth(in.Username, in.Password)
	}
	if len(in.Query) > 0 {
		req.SetQueryParamsFromValues(in.Query)
	}
	for _, p := range in.Parts {
		req.SetMultipartField(p.Name, p.FileName, p.ContentType, p.Reader)
	}

	resp, err := req.Execute(method, in.URL)
	if err != nil {
		return nil, err
	}
	return &restyResponseAdapter{resp: resp}, nil
}

// restyResponseAdapter adapts resty.Response to the httpclient.Response interface.
type restyResponseAdapter struct {
	resp *resty.Response
}

func (r *restyResponseAdapter) Body() []byte    { return r.resp.Body() }
func (r *restyResponseAdapter) StatusCode() int { return r.resp.StatusCode() }
