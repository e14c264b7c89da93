// ABOUTME: Article domain models for raw feed items and persisted articles
// ABOUTME: Provides URL normalization used by the deduplication rules

package domain

import (
	"net/url"
	"strings"
	"time"
)

// RawArticle is the transient pre-persistence item produced by an
// aggregator's parse step. It has not been enriched or deduplicated.
type RawArticle struct {
	// Title is the item's headline
	Title string

	// URL is the canonical link to the full article
	URL string

	// Published is the UTC publication timestamp
	Published time.Time

	// Optional metadata from the source
	Summary      string
	Author       string
	ThumbnailURL string
	MediaURL     string
	MediaType    string
	ExternalID   string

	// HeaderImageURL, when set by the aggregator, overrides header image
	// discovery during content processing
	HeaderImageURL string

	// Tags carries source-specific markers such as multi-page detection
	Tags map[string]bool
}

// Tag names set by aggregators on raw articles.
const (
	TagMultiPage = "__isMultiPage"
)

// Article represents a persisted, processed item
type Article struct {
	// ID is the unique identifier for the article
	ID int64

	// FeedID is the owning feed
	FeedID int64

	// URL is the original link kept for display
	URL string

	// Name is the article title
	Name string

	// Content is the processed HTML fragment rooted at <article>
	Content string

	// Date is the publication date
	Date time.Time

	// CreatedAt is the insertion timestamp, always UTC
	CreatedAt time.Time

	// Remaining source metadata
	Author       string
	ExternalID   string
	ThumbnailURL string
	MediaURL     string
	MediaType    string
	Score        int
	ViewCount    int
}

// NormalizeURL produces the canonical form used for dedup comparison:
// fragment removed, query removed, trailing slash stripped. The original
// URL is kept on the article for display.
func NormalizeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return strings.TrimRight(strings.TrimSpace(raw), "/")
	}

	u.Fragment = ""
	u.RawQuery = ""

	normalized := u.String()
	return strings.TrimRight(normalized, "/")
}

// RunReport summarizes one aggregation run for a feed
type RunReport struct {
	FeedID      int64
	Success     bool
	Reason      string
	Inserted    int
	Updated     int
	Skipped     int
	SkipArticle int
	Errors      int
	StartedAt   time.Time
	FinishedAt  time.Time
}
