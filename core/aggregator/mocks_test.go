package aggregator

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"yana/core/domain"
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

// mockArticleStore implements interfaces.ArticleStore with function fields
type mockArticleStore struct {
	mu                 sync.Mutex
	saved              []domain.Article
	saveArticleFunc    func(article *domain.Article, opts interfaces.SaveOptions) (interfaces.SaveResult, error)
	countInsertedFunc  func(feedID int64, since time.Time) (int, error)
	lastInsertedAtFunc func(feedID int64, since time.Time) (time.Time, bool, error)
}

func (m *mockArticleStore) SaveArticle(ctx context.Context, article *domain.Article, opts interfaces.SaveOptions) (interfaces.SaveResult, error) {
	m.mu.Lock()
	m.saved = append(m.saved, *article)
	m.mu.Unlock()
	if m.saveArticleFunc != nil {
		return m.saveArticleFunc(article, opts)
	}
	return interfaces.SaveResult{Action: interfaces.SaveInserted, ArticleID: int64(len(m.saved))}, nil
}

func (m *mockArticleStore) GetArticle(ctx context.Context, id int64) (*domain.Article, error) {
	return nil, nil
}

func (m *mockArticleStore) ListArticles(ctx context.Context, q interfaces.ArticleQuery) ([]domain.Article, error) {
	return nil, nil
}

func (m *mockArticleStore) CountInsertedSince(ctx context.Context, feedID int64, since time.Time) (int, error) {
	if m.countInsertedFunc != nil {
		return m.countInsertedFunc(feedID, since)
	}
	return 0, nil
}

func (m *mockArticleStore) LastInsertedAt(ctx context.Context, feedID int64, since time.Time) (time.Time, bool, error) {
	if m.lastInsertedAtFunc != nil {
		return m.lastInsertedAtFunc(feedID, since)
	}
	return time.Time{}, false, nil
}

func (m *mockArticleStore) UnreadCounts(ctx context.Context, userID int64, includeAll bool) ([]interfaces.FeedUnread, error) {
	return nil, nil
}

func (m *mockArticleStore) savedArticles() []domain.Article {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Article, len(m.saved))
	copy(out, m.saved)
	return out
}

// mockFeedStore records icon updates; the rest is unused by the runner
type mockFeedStore struct {
	mu    sync.Mutex
	icons map[int64]string
}

func newMockFeedStore() *mockFeedStore {
	return &mockFeedStore{icons: make(map[int64]string)}
}

func (m *mockFeedStore) GetFeed(ctx context.Context, id int64) (*domain.Feed, error) { return nil, nil }
func (m *mockFeedStore) ListEnabledFeeds(ctx context.Context) ([]domain.Feed, error) {
	return nil, nil
}
func (m *mockFeedStore) ListFeedsForUser(ctx context.Context, userID int64) ([]domain.Feed, error) {
	return nil, nil
}
func (m *mockFeedStore) CreateFeed(ctx context.Context, feed *domain.Feed) error { return nil }
func (m *mockFeedStore) UpdateFeed(ctx context.Context, feed *domain.Feed) error { return nil }
func (m *mockFeedStore) DeleteFeed(ctx context.Context, id int64) error          { return nil }

func (m *mockFeedStore) SetFeedIcon(ctx context.Context, feedID int64, icon string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.icons[feedID] = icon
	return nil
}

func (m *mockFeedStore) ListGroups(ctx context.Context, userID int64) ([]domain.Group, error) {
	return nil, nil
}
func (m *mockFeedStore) FeedIDsInGroup(ctx context.Context, userID int64, group string) ([]int64, error) {
	return nil, nil
}
func (m *mockFeedStore) AssignGroup(ctx context.Context, userID, feedID int64, group string) error {
	return nil
}
func (m *mockFeedStore) RemoveFromGroup(ctx context.Context, userID, feedID int64, group string) error {
	return nil
}

type nopLogger struct{}

func (nopLogger) Debug(string, map[string]interface{}) {}
func (nopLogger) Info(string, map[string]interface{})  {}
func (nopLogger) Warn(string, map[string]interface{})  {}
func (nopLogger) Error(string, map[string]interface{}) {}
