package scheduler

import (
	"context"

	"yana/core/domain"
)

// mockFeedStoreBase stubs the FeedStore methods the scheduler never calls
type mockFeedStoreBase struct{}

func (mockFeedStoreBase) GetFeed(ctx context.Context, id int64) (*domain.Feed, error) {
	return nil, nil
}
func (mockFeedStoreBase) ListEnabledFeeds(ctx context.Context) ([]domain.Feed, error) {
	return nil, nil
}
func (mockFeedStoreBase) ListFeedsForUser(ctx context.Context, userID int64) ([]domain.Feed, error) {
	return nil, nil
}
func (mockFeedStoreBase) CreateFeed(ctx context.Context, feed *domain.Feed) error { return nil }
func (mockFeedStoreBase) UpdateFeed(ctx context.Context, feed *domain.Feed) error { return nil }
func (mockFeedStoreBase) DeleteFeed(ctx context.Context, id int64) error          { return nil }
func (mockFeedStoreBase) SetFeedIcon(ctx context.Context, feedID int64, icon string) error {
	return nil
}
func (mockFeedStoreBase) ListGroups(ctx context.Context, userID int64) ([]domain.Group, error) {
	return nil, nil
}
func (mockFeedStoreBase) FeedIDsInGroup(ctx context.Context, userID int64, group string) ([]int64, error) {
	return nil, nil
}
func (mockFeedStoreBase) AssignGroup(ctx context.Context, userID, feedID int64, group string) error {
	return nil
}
func (mockFeedStoreBase) RemoveFromGroup(ctx context.Context, userID, feedID int64, group string) error {
	return nil
}

type nopLogger struct{}

func (nopLogger) Debug(string, map[string]interface{}) {}
func (nopLogger) Info(string, map[string]interface{})  {}
func (nopLogger) Warn(string, map[string]interface{})  {}
func (nopLogger) Error(string, map[string]interface{}) {}
