package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	// TokenEnv is consulted when no token is configured
	TokenEnv = "CAREOPS_SOURCE_TOKEN"

	defaultLookback = 7 * 24 * time.Hour
	maxRetries      = 3
	retryDelay      = time.Second
)

// HTTPClient defines the interface for HTTP operations
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client reads items from a notification service over HTTP
type Client struct {
	token      string
	baseURL    string
	lookback   time.Duration
	httpClient HTTPClient
	log        logrus.FieldLogger
	limiter    *rate.Limiter
	now        func() time.Time
	sleep      func(context.Context, time.Duration) error
}

// ClientOption allows configuring the Client
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLookback limits fetches to items updated within d
func WithLookback(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.lookback = d
		}
	}
}

// WithLogger sets the logger used for retries and paging
func WithLogger(log logrus.FieldLogger) ClientOption {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithRateLimit caps outgoing requests at perSecond with the given burst.
// A non-positive rate disables limiting.
func WithRateLimit(perSecond float64, burst int) ClientOption {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
	}
}

// NewClient creates a client for the service at baseURL
func NewClient(baseURL, token string, opts ...ClientOption) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("source url is required")
	}
	if token == "" {
		token = os.Getenv(TokenEnv)
	}
	if token == "" {
		return nil, fmt.Errorf("%s environment variable not set", TokenEnv)
	}

	client := &Client{
		token:      token,
		baseURL:    strings.TrimRight(baseURL, "/"),
		lookback:   defaultLookback,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        logrus.StandardLogger(),
		limiter:    rate.NewLimiter(rate.Inf, 0),
		now:        time.Now,
		sleep:      sleepContext,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Name implements Source
func (c *Client) Name() string {
	return "http"
}

// VerifyToken checks if the API token is accepted
func (c *Client) VerifyToken(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/", nil)
	if err != nil {
		return false, err
	}

	req.Header.Set("Authorization", "Token "+c.token)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusOK, nil
}

// doRequest performs an HTTP request with retry logic. The request is rebuilt
// on every attempt so a body can be replayed.
func (c *Client) doRequest(ctx context.Context, method, url string, body []byte) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, retryDelay*time.Duration(attempt)); err != nil {
				return nil, err
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Token "+c.token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			c.log.WithError(err).WithField("attempt", attempt+1).Warn("source request failed")
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			wait := retryDelay * time.Duration(attempt+1)
			if seconds, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
				wait = time.Duration(seconds) * time.Second
			}
			c.log.WithField("wait", wait).Warn("source rate limited")
			if err := c.sleep(ctx, wait); err != nil {
				return nil, err
			}
			lastErr = fmt.Errorf("rate limited: %d", resp.StatusCode)
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			c.log.WithField("status", resp.StatusCode).WithField("attempt", attempt+1).Warn("source server error")
			continue
		}

		return resp, nil
	}

	return nil, fmt.Errorf("request failed after %d retries: %w", maxRetries, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// decodeJSON reads and decodes JSON from response body
func decodeJSON(r io.Reader, v any) error {
	return json.NewDecoder(r).Decode(v)
}
