package enrich

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"yana/core/interfaces"
)

// mockHTTPClient routes requests to a per-URL response table
type mockHTTPClient struct {
	mu        sync.Mutex
	responses map[string]*mockResponse
	requested []string
}

func (m *mockHTTPClient) Get(ctx context.Context, url string) (interfaces.Response, error) {
	return m.Do(ctx, interfaces.FetchRequest{Method: "GET", URL: url})
}

func (m *mockHTTPClient) Do(ctx context.Context, req interfaces.FetchRequest) (interfaces.Response, error) {
	m.mu.Lock()
	m.requested = append(m.requested, req.URL)
	m.mu.Unlock()
	if resp, ok := m.responses[req.URL]; ok {
		return resp, nil
	}
	return &mockResponse{statusCode: 404}, nil
}

func (m *mockHTTPClient) requestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requested)
}

type mockResponse struct {
	statusCode  int
	body        string
	contentType string
}

func (m *mockResponse) StatusCode() int { return m.statusCode }
func (m *mockResponse) Body() io.ReadCloser {
	return io.NopCloser(strings.NewReader(m.body))
}
func (m *mockResponse) Header(key string) string {
	if key == "Content-Type" {
		return m.contentType
	}
	return ""
}

// mockCache is an in-memory Cache with call tracking
type mockCache struct {
	mu    sync.Mutex
	store map[string][]byte
	sets  int
}

func newMockCache() *mockCache {
	return &mockCache{store: make(map[string][]byte)}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.store[key]; ok {
		return v, nil
	}
	return nil, errors.New("key not found")
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[key] = value
	m.sets++
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, key)
	return nil
}

type nopLogger struct{}

func (nopLogger) Debug(string, map[string]interface{}) {}
func (nopLogger) Info(string, map[string]interface{})  {}
func (nopLogger) Warn(string, map[string]interface{})  {}
func (nopLogger) Error(string, map[string]interface{}) {}
