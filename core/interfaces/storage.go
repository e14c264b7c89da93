// ABOUTME: Storage interfaces for persisting domain entities
// ABOUTME: Defines contracts for feeds, articles, read state, users and tokens

package interfaces

import (
	"context"
	"time"

	"yana/core/domain"
)

// SaveAction reports what the store did with a submitted article
type SaveAction int

const (
	// SaveInserted means a new row was created
	SaveInserted SaveAction = iota
	// SaveUpdated means an existing unread duplicate was refreshed
	SaveUpdated
	// SaveSkipped means the dedup rules dropped the article
	SaveSkipped
)

// SaveOptions controls the dedup rules during persistence
type SaveOptions struct {
	// ForceRefresh bypasses all dedup checks
	ForceRefresh bool

	// SkipTitleDuplicates enables the 14-day same-title check
	SkipTitleDuplicates bool
}

// SaveResult describes the outcome of one persistence attempt
type SaveResult struct {
	Action    SaveAction
	ArticleID int64
}

// ArticleQuery selects articles for the stream read path.
// Zero values mean "no constraint".
type ArticleQuery struct {
	// FeedIDs restricts to specific feeds; nil means all accessible feeds
	FeedIDs []int64

	// UserID is the calling user; access control admits feeds owned by
	// this user or shared feeds (owner is null)
	UserID int64

	// ExcludeRead drops articles the user has marked read
	ExcludeRead bool

	// OnlyStarred restricts to articles the user has saved
	OnlyStarred bool

	// OlderThan filters article dates strictly less-than, when non-zero
	OlderThan time.Time

	// IDs restricts to specific article ids
	IDs []int64

	// Ascending orders by date ascending instead of the default descending
	Ascending bool

	Limit  int
	Offset int
}

// FeedUnread is one row of the aggregated unread-count query
type FeedUnread struct {
	FeedID    int64
	Count     int
	NewestUTC time.Time
}

// FeedStore persists feed configurations
type FeedStore interface {
	GetFeed(ctx context.Context, id int64) (*domain.Feed, error)
	ListEnabledFeeds(ctx context.Context) ([]domain.Feed, error)
	// ListFeedsForUser returns feeds owned by the user plus shared feeds.
	ListFeedsForUser(ctx context.Context, userID int64) ([]domain.Feed, error)
	CreateFeed(ctx context.Context, feed *domain.Feed) error
	UpdateFeed(ctx context.Context, feed *domain.Feed) error
	// DeleteFeed removes the feed and cascades to its articles.
	DeleteFeed(ctx context.Context, id int64) error
	// SetFeedIcon stores the compressed base64 icon for a feed.
	SetFeedIcon(ctx context.Context, feedID int64, icon string) error
	// ListGroups returns the user's groups with member feed ids.
	ListGroups(ctx context.Context, userID int64) ([]domain.Group, error)
	// FeedIDsInGroup resolves a group name to its member feed ids.
	FeedIDsInGroup(ctx context.Context, userID int64, group string) ([]int64, error)
	// AssignGroup puts a feed into the named group, creating it if needed.
	AssignGroup(ctx context.Context, userID, feedID int64, group string) error
	// RemoveFromGroup takes a feed out of the named group.
	RemoveFromGroup(ctx context.Context, userID, feedID int64, group string) error
}

// ArticleStore persists articles and answers the stream queries
type ArticleStore interface {
	// SaveArticle applies the dedup rules and persists the article.
	SaveArticle(ctx context.Context, article *domain.Article, opts SaveOptions) (SaveResult, error)
	GetArticle(ctx context.Context, id int64) (*domain.Article, error)
	ListArticles(ctx context.Context, q ArticleQuery) ([]domain.Article, error)
	// CountInsertedSince counts rows with created_at >= since for a feed.
	CountInsertedSince(ctx context.Context, feedID int64, since time.Time) (int, error)
	// LastInsertedAt returns the newest created_at since the given time.
	// ok is false when no article was inserted in that window.
	LastInsertedAt(ctx context.Context, feedID int64, since time.Time) (t time.Time, ok bool, err error)
	// UnreadCounts aggregates per-feed unread totals for the user with two
	// grouped queries; it never iterates articles.
	UnreadCounts(ctx context.Context, userID int64, includeAll bool) ([]FeedUnread, error)
}

// StateStore persists per-(user, article) read/star flags
type StateStore interface {
	// SetRead toggles the read flag, creating the state row lazily.
	SetRead(ctx context.Context, userID, articleID int64, read bool) error
	// SetSaved toggles the star flag, creating the state row lazily.
	SetSaved(ctx context.Context, userID, articleID int64, saved bool) error
	// GetStates returns existing states for the given articles.
	GetStates(ctx context.Context, userID int64, articleIDs []int64) (map[int64]domain.UserArticleState, error)
	// MarkAllRead marks every article in the feeds read, bounded by the
	// optional newest-article timestamp.
	MarkAllRead(ctx context.Context, userID int64, feedIDs []int64, olderThan time.Time) error
}

// UserStore resolves accounts for authentication
type UserStore interface {
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	GetUserByName(ctx context.Context, name string) (*domain.User, error)
}

// TokenStore persists login tokens, hashed at rest
type TokenStore interface {
	// SaveToken stores the SHA-256 hash of a token with its expiry.
	SaveToken(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error
	// LookupToken resolves a token hash to a user id.
	// ok is false for unknown or expired tokens.
	LookupToken(ctx context.Context, tokenHash string) (userID int64, ok bool, err error)
	// DeleteExpired sweeps expired token rows.
	DeleteExpired(ctx context.Context) error
}
