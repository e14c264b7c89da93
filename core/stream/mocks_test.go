package stream

import (
	"context"
	"time"

	"yana/core/domain"
	"yana/core/interfaces"
)

// mockArticleStore implements the read side with function fields
type mockArticleStore struct {
	listFunc         func(q interfaces.ArticleQuery) ([]domain.Article, error)
	unreadCountsFunc func(userID int64, includeAll bool) ([]interfaces.FeedUnread, error)
	listCalls        []interfaces.ArticleQuery
	unreadCalls      int
}

func (m *mockArticleStore) SaveArticle(ctx context.Context, article *domain.Article, opts interfaces.SaveOptions) (interfaces.SaveResult, error) {
	return interfaces.SaveResult{}, nil
}

func (m *mockArticleStore) GetArticle(ctx context.Context, id int64) (*domain.Article, error) {
	return nil, nil
}

func (m *mockArticleStore) ListArticles(ctx context.Context, q interfaces.ArticleQuery) ([]domain.Article, error) {
	m.listCalls = append(m.listCalls, q)
	if m.listFunc != nil {
		return m.listFunc(q)
	}
	return nil, nil
}

func (m *mockArticleStore) CountInsertedSince(ctx context.Context, feedID int64, since time.Time) (int, error) {
	return 0, nil
}

func (m *mockArticleStore) LastInsertedAt(ctx context.Context, feedID int64, since time.Time) (time.Time, bool, error) {
	return time.Time{}, false, nil
}

func (m *mockArticleStore) UnreadCounts(ctx context.Context, userID int64, includeAll bool) ([]interfaces.FeedUnread, error) {
	m.unreadCalls++
	if m.unreadCountsFunc != nil {
		return m.unreadCountsFunc(userID, includeAll)
	}
	return nil, nil
}

// mockFeedStore resolves groups and feed metadata
type mockFeedStore struct {
	feeds  map[int64]*domain.Feed
	groups map[string][]int64
}

func (m *mockFeedStore) GetFeed(ctx context.Context, id int64) (*domain.Feed, error) {
	if f, ok := m.feeds[id]; ok {
		return f, nil
	}
	return nil, nil
}

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
	return nil
}
func (m *mockFeedStore) ListGroups(ctx context.Context, userID int64) ([]domain.Group, error) {
	return nil, nil
}

func (m *mockFeedStore) FeedIDsInGroup(ctx context.Context, userID int64, group string) ([]int64, error) {
	return m.groups[group], nil
}

func (m *mockFeedStore) AssignGroup(ctx context.Context, userID, feedID int64, group string) error {
	return nil
}
func (m *mockFeedStore) RemoveFromGroup(ctx context.Context, userID, feedID int64, group string) error {
	return nil
}

// mockStateStore serves canned per-article states
type mockStateStore struct {
	states map[int64]domain.UserArticleState
}

func (m *mockStateStore) SetRead(ctx context.Context, userID, articleID int64, read bool) error {
	return nil
}
func (m *mockStateStore) SetSaved(ctx context.Context, userID, articleID int64, saved bool) error {
	return nil
}

func (m *mockStateStore) GetStates(ctx context.Context, userID int64, articleIDs []int64) (map[int64]domain.UserArticleState, error) {
	out := make(map[int64]domain.UserArticleState)
	for _, id := range articleIDs {
		if st, ok := m.states[id]; ok {
			out[id] = st
		}
	}
	return out, nil
}

func (m *mockStateStore) MarkAllRead(ctx context.Context, userID int64, feedIDs []int64, olderThan time.Time) error {
	return nil
}

type nopLogger struct{}

func (nopLogger) Debug(string, map[string]interface{}) {}
func (nopLogger) Info(string, map[string]interface{})  {}
func (nopLogger) Warn(string, map[string]interface{})  {}
func (nopLogger) Error(string, map[string]interface{}) {}
