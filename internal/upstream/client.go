// Package upstream wraps outbound HTTP calls to the fake third-party services
// the demo endpoints depend on.
package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/observelab/trafficgen/internal/middleware"
)

// Client is a named HTTP client for one upstream service. The correlation id
// from the inbound request is forwarded on every call.
type Client struct {
	Name    string
	BaseURL *url.URL
	HTTP    *http.Client
}

func NewClient(name, baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid %s base url %q: %w", name, baseURL, err)
	}
	return &Client{
		Name:    name,
		BaseURL: u,
		HTTP:    &http.Client{Timeout: timeout},
	}, nil
}

// Get issues a GET for path relative to the client's base URL.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	rel := &url.URL{Path: path}
	return c.do(ctx, c.BaseURL.ResolveReference(rel).String())
}

// GetURL issues a GET against an absolute URL, still tagged with the client's
// name and correlation id. Used by the endpoint that accepts a caller-chosen
// target.
func (c *Client) GetURL(ctx context.Context, rawURL string) (*Response, error) {
	return c.do(ctx, rawURL)
}

// Response is the subset of the upstream reply the demo endpoints report back.
type Response struct {
	StatusCode int
	Elapsed    time.Duration
	BodyBytes  int
}

func (c *Client) do(ctx context.Context, rawURL string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if cid := middleware.GetCorrelationID(ctx); cid != "" {
		req.Header.Set(middleware.HeaderCorrelationID, cid)
	}
	req.Header.Set("User-Agent", "trafficgen/"+c.Name)

	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", c.Name, err)
	}
	defer resp.Body.Close()

	n, _ := io.Copy(io.Discard, resp.Body)
	return &Response{
		StatusCode: resp.StatusCode,
		Elapsed:    time.Since(start),
		BodyBytes:  int(n),
	}, nil
}
