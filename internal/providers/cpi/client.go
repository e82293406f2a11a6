package cpi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Config configures the downstream integration endpoint.
type Config struct {
	Enabled bool
	URL     string
	Timeout time.Duration
}

// Result reports a successful downstream acknowledgement.
type Result struct {
	StatusCode int
}

// ForwardError carries the downstream failure detail surfaced to callers as
// a gateway failure. StatusCode is 0 when the transport itself failed.
type ForwardError struct {
	StatusCode int
	Detail     string
}

func (e *ForwardError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("downstream forward failed: %s", e.Detail)
	}
	return fmt.Sprintf("downstream forward failed with status %d: %s", e.StatusCode, e.Detail)
}

// Forwarder relays a validated payment payload to the integration endpoint.
type Forwarder interface {
	Enabled() bool
	Forward(ctx context.Context, payload []byte) (*Result, error)
}

type Client struct {
	cfg  Config
	http *http.Client
	log  *zap.Logger
}

func NewClient(cfg Config, log *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
		log:  log.Named("cpi.forwarder"),
	}
}

func (c *Client) Enabled() bool {
	return c.cfg.Enabled && c.cfg.URL != ""
}

// Forward posts the payload verbatim. A 4xx/5xx answer or transport failure
// comes back as *ForwardError.
func (c *Client) Forward(ctx context.Context, payload []byte) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, &ForwardError{Detail: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &ForwardError{Detail: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		c.log.Warn("downstream endpoint rejected payload",
			zap.Int("status", resp.StatusCode),
		)
		return nil, &ForwardError{
			StatusCode: resp.StatusCode,
			Detail:     string(body),
		}
	}

	return &Result{StatusCode: resp.StatusCode}, nil
}

var _ Forwarder = (*Client)(nil)
