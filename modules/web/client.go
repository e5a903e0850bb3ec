package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vk/burstmd/internal/ctxlog"
	"github.com/vk/burstmd/internal/services"
)

// DefaultTimeout bounds one request when the config does not set one.
const DefaultTimeout = 10 * time.Second

// Client implements services.HttpService with a pooled net/http client.
type Client struct {
	http *http.Client
}

var _ services.HttpService = (*Client)(nil)

// NewClient creates a client whose requests time out after timeout. A
// non-positive timeout uses DefaultTimeout.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{http: &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}}
}

// Get implements services.HttpService. Responses outside the 2xx range are
// errors.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	logger := ctxlog.FromContext(ctx).With("url", url)
	logger.Debug("Making HTTP request.")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	logger.Debug("Received HTTP response.", "status", resp.Status, "bytes", len(body))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("request to %s failed: %s", url, resp.Status)
	}
	return body, nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}
