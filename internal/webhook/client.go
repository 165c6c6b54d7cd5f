// Package webhook posts message payloads to an incoming-webhook endpoint.
//
// Deliver performs exactly one HTTP call. It never retries: the caller's
// next scheduled tick supersedes a failed delivery.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"countdown/internal/message"
	logx "countdown/pkg/logx"
)

type Config struct {
	URL string
	// Timeout bounds a whole request. 0 leaves it to the transport defaults.
	Timeout time.Duration
	// RatePerSec > 0 spaces out back-to-back deliveries (overlapping ticks).
	RatePerSec int
	UserAgent  string
}

type Client struct {
	url     string
	ua      string
	http    *http.Client
	limiter *rate.Limiter
	log     logx.Logger
}

func New(cfg Config, log logx.Logger) (*Client, error) {
	u := strings.TrimSpace(cfg.URL)
	if u == "" {
		return nil, ErrEmptyURL
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	c := &Client{
		url:  u,
		ua:   strings.TrimSpace(cfg.UserAgent),
		http: &http.Client{Timeout: cfg.Timeout},
		log:  log,
	}
	if cfg.RatePerSec > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1)
	}
	return c, nil
}

// Deliver serializes p and posts it. A 200 response yields its raw body;
// any other status yields *RemoteRejection, and a request that never got a
// response yields *TransportError.
func (c *Client) Deliver(ctx context.Context, p message.Payload) ([]byte, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Length", strconv.Itoa(len(body)))
	req.ContentLength = int64(len(body))
	if c.ua != "" {
		req.Header.Set("User-Agent", c.ua)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	rb, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("read response: %w", err)}
	}
	c.log.Debug("webhook response",
		logx.Int("status", resp.StatusCode),
		logx.Int("req_bytes", len(body)),
		logx.Int("resp_bytes", len(rb)),
		logx.Duration("took", time.Since(start)),
	)

	if resp.StatusCode != http.StatusOK {
		return nil, &RemoteRejection{StatusCode: resp.StatusCode, Body: rb}
	}
	return rb, nil
}
