package httpclient

import (
	"net/http"
	"time"
)

// ClientType represents the type of HTTP client configuration
type ClientType string

const (
	// BrowserClient sends a fixed desktop-Chrome User-Agent.
	// Video host pages serve a stripped page (no og:video tags) to unknown agents.
	BrowserClient ClientType = "browser"

	// DefaultClient leaves Go's default User-Agent in place.
	// Used for the direct video asset GET, which the CDN serves to anyone.
	DefaultClient ClientType = "default"

	// CustomClient sends the User-Agent given to NewClientWithUserAgent.
	// Reddit's API rejects generic agents, so the search client uses this.
	CustomClient ClientType = "custom"
)

// BrowserUserAgent is the User-Agent sent by BrowserClient.
const BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/136.0.0.0 Safari/537.36"

// DefaultTimeout bounds a single request when no timeout is given.
const DefaultTimeout = 30 * time.Second

// Doer is the part of *http.Client (and *HTTPClient) the fetchers need.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPClient wraps an http.Client with configuration
type HTTPClient struct {
	client     *http.Client
	clientType ClientType
	userAgent  string
}

// NewClient creates a new HTTP client with the specified type
func NewClient(clientType ClientType) *HTTPClient {
	return NewClientWithTimeout(clientType, DefaultTimeout)
}

// NewClientWithTimeout creates a new HTTP client with the specified type and per-request timeout.
// A timeout <= 0 disables the timeout.
func NewClientWithTimeout(clientType ClientType, timeout time.Duration) *HTTPClient {
	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			// Follow up to 10 redirects
			if len(via) >= 10 {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
	if timeout > 0 {
		client.Timeout = timeout
	}

	return &HTTPClient{
		client:     client,
		clientType: clientType,
	}
}

// NewClientWithUserAgent creates a CustomClient that sends userAgent on every request.
func NewClientWithUserAgent(userAgent string, timeout time.Duration) *HTTPClient {
	c := NewClientWithTimeout(CustomClient, timeout)
	c.userAgent = userAgent
	return c
}

// Do executes an HTTP request with the appropriate headers for the client type
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	c.setHeaders(req)
	return c.client.Do(req)
}

// Standard returns a plain *http.Client that sends the same headers, for
// libraries that only accept one.
func (c *HTTPClient) Standard() *http.Client {
	return &http.Client{
		Timeout:       c.client.Timeout,
		CheckRedirect: c.client.CheckRedirect,
		Transport:     &headerTransport{client: c, base: http.DefaultTransport},
	}
}

type headerTransport struct {
	client *HTTPClient
	base   http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	t.client.setHeaders(req)
	return t.base.RoundTrip(req)
}

// setHeaders sets the appropriate headers based on client type
func (c *HTTPClient) setHeaders(req *http.Request) {
	switch c.clientType {
	case BrowserClient:
		req.Header.Set("User-Agent", BrowserUserAgent)

	case CustomClient:
		if c.userAgent != "" {
			req.Header.Set("User-Agent", c.userAgent)
		}

	default:
		// Default: use Go's default User-Agent
	}
}

// IsSuccess reports whether status is in the 2xx class.
func IsSuccess(status int) bool {
	return status >= 200 && status < 300
}
