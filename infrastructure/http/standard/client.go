// ABOUTME: Standard HTTP client implementation with timeout and redirect limits
// ABOUTME: Retry policy lives in the core fetcher; this adapter performs single requests

package standard

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"yana/core/interfaces"
)

const userAgent = "Yana/1.0 (+https://github.com/yana-reader/yana)"

// StandardHTTPClient implements the HTTPClient interface using the standard library
type StandardHTTPClient struct {
	client *http.Client
}

// NewStandardHTTPClient creates a new HTTP client with the specified default timeout
func NewStandardHTTPClient(timeout time.Duration) *StandardHTTPClient {
	return &StandardHTTPClient{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return errors.New("stopped after 10 redirects")
				}
				return nil
			},
		},
	}
}

// Get performs an HTTP GET request
func (c *StandardHTTPClient) Get(ctx context.Context, url string) (interfaces.Response, error) {
	return c.Do(ctx, interfaces.FetchRequest{Method: http.MethodGet, URL: url})
}

// Do performs an arbitrary HTTP request
func (c *StandardHTTPClient) Do(ctx context.Context, fr interfaces.FetchRequest) (interfaces.Response, error) {
	method := fr.Method
	if method == "" {
		method = http.MethodGet
	}

	// http.Client.Timeout covers the body read as well, so a per-request
	// override uses a shallow copy instead of a context deadline.
	client := c.client
	if fr.Timeout > 0 && fr.Timeout != c.client.Timeout {
		clone := *c.client
		clone.Timeout = fr.Timeout
		client = &clone
	}

	req, err := http.NewRequestWithContext(ctx, method, fr.URL, fr.Body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", userAgent)
	for k, v := range fr.Headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}

	return &httpResponse{
		statusCode: resp.StatusCode,
		body:       resp.Body,
		headers:    resp.Header,
	}, nil
}

// httpResponse implements the Response interface
type httpResponse struct {
	statusCode int
	body       io.ReadCloser
	headers    http.Header
}

// StatusCode returns the HTTP status code
func (r *httpResponse) StatusCode() int {
	return r.statusCode
}

// Body returns the response body
func (r *httpResponse) Body() io.ReadCloser {
	return r.body
}

// Header returns the value of the specified header
func (r *httpResponse) Header(key string) string {
	return r.headers.Get(key)
}
