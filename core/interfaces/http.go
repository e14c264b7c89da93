package interfaces

import (
	"context"
	"io"
	"time"
)

// FetchRequest describes one outgoing HTTP request
type FetchRequest struct {
	// Method is the HTTP method; defaults to GET when empty
	Method string

	// URL is the absolute request URL
	URL string

	// Headers are set on the request verbatim
	Headers map[string]string

	// Body is the optional request body
	Body io.Reader

	// Timeout overrides the client's default per-request timeout
	Timeout time.Duration
}

// HTTPClient defines the interface for making HTTP requests.
// This abstraction allows for easy mocking in tests and switching between
// different HTTP client implementations.
type HTTPClient interface {
	// Get performs an HTTP GET request to the specified URL.
	// Returns a Response interface or an error if the request fails.
	Get(ctx context.Context, url string) (Response, error)

	// Do performs an arbitrary HTTP request.
	Do(ctx context.Context, req FetchRequest) (Response, error)
}

// Response defines the interface for HTTP responses.
type Response interface {
	// StatusCode returns the HTTP status code of the response.
	StatusCode() int

	// Body returns the response body as an io.ReadCloser.
	// The caller is responsible for closing the body when done.
	Body() io.ReadCloser

	// Header returns the value of the specified header.
	// Returns an empty string if the header is not present.
	Header(key string) string
}

// Browser defines the interface for headless-browser page rendering.
// The implementation owns a process-wide browser instance with a bounded
// page pool; every page is released on every exit path.
type Browser interface {
	// RenderHTML navigates to url, optionally waits for a selector to be
	// visible, and returns the rendered document HTML.
	RenderHTML(ctx context.Context, url string, waitForSelector string, timeout time.Duration) (string, error)

	// Close shuts the browser instance down.
	Close() error
}
