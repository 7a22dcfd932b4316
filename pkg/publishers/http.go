package publishers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/samvad-hq/neocities-go/pkg/httpclient"
)

const (
	headerEvent     = "X-Neocities-Event"
	headerDelivery  = "X-Neocities-Delivery"
	headerSignature = "X-Neocities-Signature"
)

// webhookPublisher posts events to an HTTP endpoint. When a secret is configured
// the body is signed with HMAC-SHA256 so receivers can verify the sender.
type webhookPublisher struct {
	id     string
	cfg    HTTPPublisherConfig
	client *resty.Client
	log    Logger
}

func newHTTPPublisher(_ context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}
	hc := *cfg.HTTP
	hc.normalize()

	return &webhookPublisher{
		id:     cfg.ID,
		cfg:    hc,
		client: httpclient.NewRestyHTTPClient(time.Duration(hc.TimeoutSeconds) * time.Second),
		log:    ensureLogger(log),
	}, nil
}

func (w *webhookPublisher) ID() string   { return w.id }
func (w *webhookPublisher) Type() string { return TypeHTTP }

// Publish sends evt as JSON; any status outside 2xx is an error.
func (w *webhookPublisher) Publish(ctx context.Context, evt Event) error {
	body, err := evt.payload()
	if err != nil {
		return err
	}

	req := w.client.R().
		SetContext(ctx).
		SetHeaders(w.cfg.Headers).
		SetHeader("Content-Type", "application/json").
		SetHeader(headerEvent, evt.Action).
		SetHeader(headerDelivery, evt.dedupKey()).
		SetBody(body)
	if w.cfg.Secret != "" {
		req.SetHeader(headerSignature, Sign(w.cfg.Secret, body))
	}

	resp, err := req.Execute(w.cfg.Method, w.cfg.URL)
	if err != nil {
		w.log.ErrorObj("webhook delivery failed", "publisher_http_error", deliveryFields(w.id, evt, err))
		return fmt.Errorf("http request: %w", err)
	}
	if code := resp.StatusCode(); code < 200 || code > 299 {
		err := fmt.Errorf("http response status %d: %s", code, bodySnippet(resp.Body()))
		w.log.ErrorObj("webhook rejected event", "publisher_http_error", deliveryFields(w.id, evt, err))
		return err
	}
	w.log.DebugObj("webhook delivered event", "publisher_http_delivery", deliveryFields(w.id, evt, nil))
	return nil
}

// Sign returns the signature header value for body: "sha256=" + hex HMAC.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func bodySnippet(body []byte) string {
	const max = 512
	if len(body) > max {
		body = body[:max]
	}
	return strings.TrimSpace(string(body))
}
