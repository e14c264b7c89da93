package fetch

import (
	"context"
	"io"
	"strings"
	"time"

	"yana/core/interfaces"
)

// mockHTTPClient is a mock implementation of the HTTPClient interface
type mockHTTPClient struct {
	doFunc func(ctx context.Context, req interfaces.FetchRequest) (interfaces.Response, error)
	calls  int
}

func (m *mockHTTPClient) Get(ctx context.Context, url string) (interfaces.Response, error) {
	return m.Do(ctx, interfaces.FetchRequest{Method: "GET", URL: url})
}

func (m *mockHTTPClient) Do(ctx context.Context, req interfaces.FetchRequest) (interfaces.Response, error) {
	m.calls++
	if m.doFunc != nil {
		return m.doFunc(ctx, req)
	}
	return &mockResponse{statusCode: 200}, nil
}

// mockResponse is a mock implementation of the Response interface
type mockResponse struct {
	statusCode int
	body       string
	headers    map[string]string
}

func (m *mockResponse) StatusCode() int {
	return m.statusCode
}

func (m *mockResponse) Body() io.ReadCloser {
	return io.NopCloser(strings.NewReader(m.body))
}

func (m *mockResponse) Header(key string) string {
	if m.headers != nil {
		return m.headers[key]
	}
	return ""
}

// mockBrowser is a mock implementation of the Browser interface
type mockBrowser struct {
	renderFunc func(ctx context.Context, url, selector string, timeout time.Duration) (string, error)
	calls      int
}

func (m *mockBrowser) RenderHTML(ctx context.Context, url, selector string, timeout time.Duration) (string, error) {
	m.calls++
	if m.renderFunc != nil {
		return m.renderFunc(ctx, url, selector, timeout)
	}
	return "", nil
}

func (m *mockBrowser) Close() error { return nil }

// mockLogger is a no-op logger capturing calls
type mockLogger struct {
	warnings []string
}

func (m *mockLogger) Debug(msg string, fields map[string]interface{}) {}
func (m *mockLogger) Info(msg string, fields map[string]interface{})  {}
func (m *mockLogger) Warn(msg string, fields map[string]interface{}) {
	m.warnings = append(m.warnings, msg)
}
func (m *mockLogger) Error(msg string, fields map[string]interface{}) {}
