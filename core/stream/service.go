// ABOUTME: GReader-compatible read service over the article store
// ABOUTME: Unread counts, item-id listings and the stream contents envelope

package stream

import (
	"context"
	"fmt"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"yana/core/domain"
	"yana/core/interfaces"
)

const (
	// maxStreamLimit caps the n parameter
	maxStreamLimit = 10000

	// defaultStreamLimit applies when the caller sends no n parameter
	defaultStreamLimit = 20

	// unreadCountTTL is the per-(user, includeAll) cache window
	unreadCountTTL = 30 * time.Second
)

// UnreadCountEntry is one feed's row in the unread-count response
type UnreadCountEntry struct {
	ID                      string `json:"id"`
	Count                   int    `json:"count"`
	NewestItemTimestampUsec string `json:"newestItemTimestampUsec"`
}

// UnreadCountResponse is the unread-count envelope
type UnreadCountResponse struct {
	Max          int                `json:"max"`
	UnreadCounts []UnreadCountEntry `json:"unreadcounts"`
}

// ItemRef is one entry of the items/ids response
type ItemRef struct {
	ID string `json:"id"`
}

// ItemRefsResponse is the items/ids envelope
type ItemRefsResponse struct {
	ItemRefs []ItemRef `json:"itemRefs"`
}

// Link wraps an href for the alternate/canonical arrays
type Link struct {
	Href string `json:"href"`
}

// Origin names the feed an item came from
type Origin struct {
	StreamID string `json:"streamId"`
	Title    string `json:"title"`
	HTMLURL  string `json:"htmlUrl"`
}

// ItemContent carries the processed article HTML
type ItemContent struct {
	Content string `json:"content"`
}

// Item is one article in the stream contents envelope
type Item struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	Published     int64       `json:"published"`
	Updated       int64       `json:"updated"`
	CrawlTimeMsec string      `json:"crawlTimeMsec"`
	TimestampUsec string      `json:"timestampUsec"`
	Alternate     []Link      `json:"alternate"`
	Canonical     []Link      `json:"canonical"`
	Categories    []string    `json:"categories"`
	Origin        Origin      `json:"origin"`
	Summary       ItemContent `json:"summary"`
	Author        string      `json:"author,omitempty"`
}

// ContentsResponse is the stream contents envelope
type ContentsResponse struct {
	ID           string `json:"id"`
	Updated      int64  `json:"updated"`
	Items        []Item `json:"items"`
	Continuation string `json:"continuation,omitempty"`
}

// Query carries the common stream read parameters
type Query struct {
	StreamID string

	// Limit is the n parameter, capped at 10000
	Limit int

	// OlderThan filters article dates strictly less-than, seconds epoch
	OlderThan int64

	// ExcludeTag and IncludeTag accept the read/starred state streams
	ExcludeTag string
	IncludeTag string

	// Reverse orders oldest first
	Reverse bool

	// ItemIDs restricts contents to explicitly named articles
	ItemIDs []int64

	// Continuation is the offset carried between contents pages
	Continuation string
}

// Service answers the GReader read surface
type Service struct {
	feeds    interfaces.FeedStore
	articles interfaces.ArticleStore
	states   interfaces.StateStore
	counts   *gocache.Cache
	logger   interfaces.Logger
}

func NewService(
	feeds interfaces.FeedStore,
	articles interfaces.ArticleStore,
	states interfaces.StateStore,
	logger interfaces.Logger,
) *Service {
	return &Service{
		feeds:    feeds,
		articles: articles,
		states:   states,
		counts:   gocache.New(unreadCountTTL, time.Minute),
		logger:   logger,
	}
}

// UnreadCount aggregates per-feed unread totals, served from a 30 second
// cache keyed by (user, includeAll).
func (s *Service) UnreadCount(ctx context.Context, userID int64, includeAll bool) (*UnreadCountResponse, error) {
	key := fmt.Sprintf("%d:%t", userID, includeAll)
	if cached, ok := s.counts.Get(key); ok {
		return cached.(*UnreadCountResponse), nil
	}

	counts, err := s.articles.UnreadCounts(ctx, userID, includeAll)
	if err != nil {
		return nil, err
	}

	resp := &UnreadCountResponse{UnreadCounts: make([]UnreadCountEntry, 0, len(counts))}
	for _, c := range counts {
		resp.Max += c.Count
		resp.UnreadCounts = append(resp.UnreadCounts, UnreadCountEntry{
			ID:                      fmt.Sprintf("feed/%d", c.FeedID),
			Count:                   c.Count,
			NewestItemTimestampUsec: strconv.FormatInt(c.NewestUTC.UnixMicro(), 10),
		})
	}

	s.counts.Set(key, resp, unreadCountTTL)
	return resp, nil
}

// ItemIDs lists matching article ids as decimal item refs
func (s *Service) ItemIDs(ctx context.Context, userID int64, q Query) (*ItemRefsResponse, error) {
	aq, err := s.buildQuery(ctx, userID, q)
	if err != nil {
		return nil, err
	}

	articles, err := s.articles.ListArticles(ctx, aq)
	if err != nil {
		return nil, err
	}

	resp := &ItemRefsResponse{ItemRefs: make([]ItemRef, 0, len(articles))}
	for _, a := range articles {
		resp.ItemRefs = append(resp.ItemRefs, ItemRef{ID: strconv.FormatInt(a.ID, 10)})
	}
	return resp, nil
}

// Contents returns the full stream envelope with continuation paging.
// The continuation is an integer offset serialized as a string; it is set
// only when exactly limit rows were returned.
func (s *Service) Contents(ctx context.Context, userID int64, q Query) (*ContentsResponse, error) {
	aq, err := s.buildQuery(ctx, userID, q)
	if err != nil {
		return nil, err
	}

	offset := parseOffset(q.Continuation)
	aq.Offset = offset

	articles, err := s.articles.ListArticles(ctx, aq)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(articles))
	for i, a := range articles {
		ids[i] = a.ID
	}
	states, err := s.states.GetStates(ctx, userID, ids)
	if err != nil {
		return nil, err
	}

	resp := &ContentsResponse{
		ID:      q.StreamID,
		Updated: time.Now().UTC().Unix(),
		Items:   make([]Item, 0, len(articles)),
	}
	if resp.ID == "" {
		resp.ID = StreamReadingList
	}

	feedInfo := make(map[int64]*domain.Feed)
	for _, a := range articles {
		resp.Items = append(resp.Items, s.buildItem(ctx, &a, states[a.ID], feedInfo))
	}

	if len(articles) == aq.Limit {
		resp.Continuation = strconv.Itoa(offset + aq.Limit)
	}
	return resp, nil
}

// buildQuery translates the stream parameters into an article query
func (s *Service) buildQuery(ctx context.Context, userID int64, q Query) (interfaces.ArticleQuery, error) {
	aq := interfaces.ArticleQuery{
		UserID:    userID,
		IDs:       q.ItemIDs,
		Ascending: q.Reverse,
	}

	aq.Limit = q.Limit
	if aq.Limit <= 0 {
		aq.Limit = defaultStreamLimit
	}
	if aq.Limit > maxStreamLimit {
		aq.Limit = maxStreamLimit
	}

	if q.OlderThan > 0 {
		aq.OlderThan = time.Unix(q.OlderThan, 0).UTC()
	}
	if q.ExcludeTag == StreamRead {
		aq.ExcludeRead = true
	}
	if q.IncludeTag == StreamStarred {
		aq.OnlyStarred = true
	}

	parsed, err := ParseStream(q.StreamID)
	if err != nil {
		return aq, err
	}

	switch parsed.Kind {
	case StreamFeed:
		aq.FeedIDs = []int64{parsed.FeedID}
	case StreamLabel:
		ids, err := s.feeds.FeedIDsInGroup(ctx, userID, parsed.Label)
		if err != nil {
			return aq, err
		}
		if len(ids) == 0 {
			// empty group matches nothing
			ids = []int64{-1}
		}
		aq.FeedIDs = ids
	case StreamOnlyStarred:
		aq.OnlyStarred = true
	}
	return aq, nil
}

func (s *Service) buildItem(ctx context.Context, a *domain.Article, state domain.UserArticleState, feedInfo map[int64]*domain.Feed) Item {
	categories := []string{StreamReadingList}
	if state.IsRead {
		categories = append(categories, StreamRead)
	}
	if state.IsSaved {
		categories = append(categories, StreamStarred)
	}

	item := Item{
		ID:            FormatItemID(a.ID),
		Title:         a.Name,
		Published:     a.Date.Unix(),
		Updated:       a.Date.Unix(),
		CrawlTimeMsec: strconv.FormatInt(a.CreatedAt.UnixMilli(), 10),
		TimestampUsec: strconv.FormatInt(a.CreatedAt.UnixMicro(), 10),
		Alternate:     []Link{{Href: a.URL}},
		Canonical:     []Link{{Href: a.URL}},
		Categories:    categories,
		Origin:        Origin{StreamID: fmt.Sprintf("feed/%d", a.FeedID)},
		Summary:       ItemContent{Content: a.Content},
		Author:        a.Author,
	}

	feed, ok := feedInfo[a.FeedID]
	if !ok {
		var err error
		feed, err = s.feeds.GetFeed(ctx, a.FeedID)
		if err != nil {
			s.logger.Debug("feed lookup failed for stream item", map[string]interface{}{
				"feed_id": a.FeedID,
				"error":   err.Error(),
			})
		}
		feedInfo[a.FeedID] = feed
	}
	if feed != nil {
		item.Origin.Title = feed.Name
		item.Origin.HTMLURL = feed.Identifier
	}
	return item
}

// parseOffset reads a continuation token, falling back to 0 on garbage
func parseOffset(continuation string) int {
	if continuation == "" {
		return 0
	}
	offset, err := strconv.Atoi(continuation)
	if err != nil || offset < 0 {
		return 0
	}
	return offset
}
