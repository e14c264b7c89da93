// ABOUTME: Fetcher retrieves HTML documents and feeds over HTTP or a headless browser
// ABOUTME: Classifies transport failures into the enrichment error taxonomy with bounded retries

package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"regexp"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	coreerrors "yana/core/errors"
	"yana/core/interfaces"
)

const (
	// DefaultTimeout is the per-request timeout when none is configured
	DefaultTimeout = 30 * time.Second

	maxAttempts = 3
)

// statusInMessage finds HTTP status codes embedded in headless-browser
// navigation error messages.
var statusInMessage = regexp.MustCompile(`\b(40\d|41\d|50\d)\b`)

// Options controls one fetch
type Options struct {
	// Method is the HTTP method; defaults to GET
	Method string

	// Headers are added to the request
	Headers map[string]string

	// Timeout overrides DefaultTimeout for this request
	Timeout time.Duration

	// UseBrowser routes the fetch through the headless-browser backend
	UseBrowser bool

	// WaitForSelector is a DOM selector the browser must see before
	// capturing content (browser backend only)
	WaitForSelector string
}

// Fetcher retrieves documents with status classification and retry.
// All calls for one article are sequential; parallelism is provided
// across articles by the aggregator fan-out.
type Fetcher struct {
	deps     interfaces.Dependencies
	perHost  rate.Limit
	burst    int
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewFetcher creates a fetcher with a per-host politeness limit
func NewFetcher(deps interfaces.Dependencies) *Fetcher {
	return &Fetcher{
		deps:     deps,
		perHost:  rate.Limit(2), // two requests per second per host
		burst:    4,
		limiters: make(map[string]*rate.Limiter),
	}
}

// FetchHTML retrieves the document at url.
// Returns the body as a string or a classified error.
func (f *Fetcher) FetchHTML(ctx context.Context, rawURL string, opts Options) (string, error) {
	if opts.UseBrowser {
		return f.fetchRendered(ctx, rawURL, opts)
	}

	body, _, err := f.FetchBytes(ctx, rawURL, opts)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// FetchBytes retrieves raw bytes (used for direct image fetches and APIs).
// Returns the body, the Content-Type header, or a classified error.
func (f *Fetcher) FetchBytes(ctx context.Context, rawURL string, opts Options) ([]byte, string, error) {
	if f.deps.HTTPClient == nil {
		return nil, "", &coreerrors.FatalError{Message: "HTTP client not configured"}
	}

	if err := f.waitForHost(ctx, rawURL); err != nil {
		return nil, "", classifyNetError(rawURL, err)
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 500ms, 1s
			backoff := time.Duration(500*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, "", classifyNetError(rawURL, ctx.Err())
			}
		}

		body, contentType, err := f.fetchOnce(ctx, rawURL, opts, timeout)
		if err == nil {
			return body, contentType, nil
		}

		// 4xx and parse failures are not retryable
		if !coreerrors.IsTransient(err) {
			return nil, "", err
		}
		lastErr = err
	}

	return nil, "", lastErr
}

// fetchOnce performs a single HTTP attempt
func (f *Fetcher) fetchOnce(ctx context.Context, rawURL string, opts Options, timeout time.Duration) ([]byte, string, error) {
	resp, err := f.deps.HTTPClient.Do(ctx, interfaces.FetchRequest{
		Method:  opts.Method,
		URL:     rawURL,
		Headers: opts.Headers,
		Timeout: timeout,
	})
	if err != nil {
		return nil, "", classifyNetError(rawURL, err)
	}
	defer resp.Body().Close()

	if err := ClassifyStatus(rawURL, resp.StatusCode()); err != nil {
		return nil, "", err
	}

	body, err := io.ReadAll(resp.Body())
	if err != nil {
		return nil, "", classifyNetError(rawURL, err)
	}

	return body, resp.Header("Content-Type"), nil
}

// fetchRendered retrieves a page through the headless-browser backend
func (f *Fetcher) fetchRendered(ctx context.Context, rawURL string, opts Options) (string, error) {
	if f.deps.Browser == nil {
		return "", &coreerrors.FatalError{Message: "browser backend not configured"}
	}

	if err := f.waitForHost(ctx, rawURL); err != nil {
		return "", classifyNetError(rawURL, err)
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(500*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", classifyNetError(rawURL, ctx.Err())
			}
		}

		html, err := f.deps.Browser.RenderHTML(ctx, rawURL, opts.WaitForSelector, timeout)
		if err == nil {
			return html, nil
		}

		classified := ClassifyBrowserError(rawURL, err)
		if !coreerrors.IsTransient(classified) {
			return "", classified
		}
		lastErr = classified
	}

	return "", lastErr
}

// waitForHost applies the per-host rate limiter
func (f *Fetcher) waitForHost(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return &coreerrors.ParseError{URL: rawURL, Err: fmt.Errorf("invalid URL")}
	}

	f.mu.Lock()
	limiter, ok := f.limiters[u.Host]
	if !ok {
		limiter = rate.NewLimiter(f.perHost, f.burst)
		f.limiters[u.Host] = limiter
	}
	f.mu.Unlock()

	return limiter.Wait(ctx)
}

// ClassifyStatus maps an HTTP status code to the error taxonomy.
// Precedence: 4xx is SkipArticle, 5xx is Transient, everything < 400 is nil.
func ClassifyStatus(url string, status int) error {
	switch {
	case status >= 400 && status < 500:
		return &coreerrors.SkipArticleError{URL: url, StatusCode: status, Message: "client error"}
	case status >= 500:
		return &coreerrors.TransientError{URL: url, StatusCode: status}
	default:
		return nil
	}
}

// ClassifyBrowserError scans a navigation error message for embedded HTTP
// status codes. A 4xx wins over anything else in the message.
func ClassifyBrowserError(url string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &coreerrors.TimeoutError{URL: url, Err: err}
	}

	matches := statusInMessage.FindAllString(err.Error(), -1)
	for _, m := range matches {
		code, convErr := strconv.Atoi(m)
		if convErr == nil && code >= 400 && code < 500 {
			return &coreerrors.SkipArticleError{URL: url, StatusCode: code, Message: "navigation error"}
		}
	}
	for _, m := range matches {
		if code, convErr := strconv.Atoi(m); convErr == nil && code >= 500 {
			return &coreerrors.TransientError{URL: url, StatusCode: code, Err: err}
		}
	}

	return &coreerrors.TransientError{URL: url, Err: err}
}

// classifyNetError maps transport-level failures to the taxonomy
func classifyNetError(url string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &coreerrors.TimeoutError{URL: url, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &coreerrors.TimeoutError{URL: url, Err: err}
	}

	return &coreerrors.TransientError{URL: url, Err: err}
}
