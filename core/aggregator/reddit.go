// ABOUTME: Reddit subreddit aggregator over the public listing JSON
// ABOUTME: Builds post content with a comments section; video posts embed via vxreddit

package aggregator

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"
	"time"

	"yana/core/domain"
	coreerrors "yana/core/errors"
	"yana/core/enrich"
	"yana/core/fetch"
	"yana/core/images"
	"yana/core/interfaces"
)

// maxRedditComments bounds the comments copied into the article
const maxRedditComments = 5

var subredditPattern = regexp.MustCompile(`^[A-Za-z0-9_]{2,21}$`)

// redditListing mirrors the relevant slice of the listing JSON
type redditListing struct {
	Data struct {
		Children []struct {
			Kind string     `json:"kind"`
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Permalink    string  `json:"permalink"`
	URL          string  `json:"url"`
	CreatedUTC   float64 `json:"created_utc"`
	Author       string  `json:"author"`
	SelftextHTML string  `json:"selftext_html"`
	Thumbnail    string  `json:"thumbnail"`
	IsVideo      bool    `json:"is_video"`
	Stickied     bool    `json:"stickied"`
	Preview      struct {
		Images []struct {
			Source struct {
				URL string `json:"url"`
			} `json:"source"`
		} `json:"images"`
	} `json:"preview"`
}

type redditComment struct {
	Author   string `json:"author"`
	BodyHTML string `json:"body_html"`
	Score    int    `json:"score"`
}

type redditAbout struct {
	Data struct {
		CommunityIcon string `json:"community_icon"`
		IconImg       string `json:"icon_img"`
	} `json:"data"`
}

type redditSource struct {
	fetcher   *fetch.Fetcher
	extractor *images.Extractor
	logger    interfaces.Logger
}

func newRedditSource(fetcher *fetch.Fetcher, extractor *images.Extractor, logger interfaces.Logger) *redditSource {
	return &redditSource{fetcher: fetcher, extractor: extractor, logger: logger}
}

func (s *redditSource) Descriptor() Descriptor {
	return Descriptor{
		Kind:               domain.KindReddit,
		Name:               "Subreddit",
		IdentifierLabel:    "Subreddit name",
		IdentifierEditable: true,
		PrefillName:        true,
		Options:            commonOptionSpecs(),
	}
}

func (s *redditSource) Validate(ctx context.Context, feed *domain.Feed) error {
	sub := strings.TrimSpace(feed.Identifier)
	sub = strings.TrimPrefix(sub, "/")
	sub = strings.TrimPrefix(sub, "r/")

	if !subredditPattern.MatchString(sub) {
		return &coreerrors.ValidationError{
			Field:   "identifier",
			Message: fmt.Sprintf("%q is not a valid subreddit name", feed.Identifier),
		}
	}
	feed.Identifier = sub
	return nil
}

func (s *redditSource) FetchSource(ctx context.Context, feed *domain.Feed, limit int) (SourceData, error) {
	listingURL := fmt.Sprintf("https://www.reddit.com/r/%s/hot.json?limit=%d", feed.Identifier, limit)
	body, _, err := s.fetcher.FetchBytes(ctx, listingURL, fetch.Options{})
	if err != nil {
		return nil, err
	}

	var listing redditListing
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, &coreerrors.ParseError{URL: listingURL, Err: err}
	}
	return &listing, nil
}

func (s *redditSource) Parse(ctx context.Context, feed *domain.Feed, data SourceData) ([]domain.RawArticle, error) {
	listing, ok := data.(*redditListing)
	if !ok {
		return nil, &coreerrors.FatalError{Message: "unexpected source data for reddit aggregator"}
	}

	articles := make([]domain.RawArticle, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		post := child.Data
		if post.Stickied || post.Permalink == "" {
			continue
		}

		raw := domain.RawArticle{
			Title:      html.UnescapeString(post.Title),
			URL:        postURL(post),
			Published:  time.Unix(int64(post.CreatedUTC), 0).UTC(),
			Summary:    html.UnescapeString(post.SelftextHTML),
			Author:     "u/" + post.Author,
			ExternalID: post.ID,
		}
		if len(post.Preview.Images) > 0 {
			raw.ThumbnailURL = html.UnescapeString(post.Preview.Images[0].Source.URL)
		}
		articles = append(articles, raw)
	}
	return articles, nil
}

// postURL picks the article link. Video posts go through the vxreddit
// mirror so the processor inserts the Reddit embed header.
func postURL(post redditPost) string {
	if post.IsVideo {
		return "https://vxreddit.com" + post.Permalink
	}
	return "https://www.reddit.com" + post.Permalink
}

// CustomizeEnrich replaces the page fetch with the post JSON, building the
// body and a comments section locally.
func (s *redditSource) CustomizeEnrich(feed *domain.Feed, cfg *enrich.Config) {
	cfg.FetchContent = func(ctx context.Context, a *domain.RawArticle) (string, error) {
		return s.buildPostContent(ctx, a)
	}
	cfg.Extract = func(html string, _ *domain.RawArticle) (string, error) {
		return html, nil
	}
	// link and video posts carry no text of their own
	cfg.Validate = func(string, *domain.RawArticle) bool { return true }
}

// buildPostContent fetches the post JSON (post plus comment tree) and
// renders the body with a trailing comments section.
func (s *redditSource) buildPostContent(ctx context.Context, a *domain.RawArticle) (string, error) {
	permalink := permalinkFromURL(a.URL)
	jsonURL := "https://www.reddit.com" + permalink + ".json?limit=" + fmt.Sprint(maxRedditComments)

	body, _, err := s.fetcher.FetchBytes(ctx, jsonURL, fetch.Options{})
	if err != nil {
		return "", err
	}

	var listings []json.RawMessage
	if err := json.Unmarshal(body, &listings); err != nil || len(listings) == 0 {
		return "", &coreerrors.ParseError{URL: jsonURL, Err: err}
	}

	var postListing redditListing
	if err := json.Unmarshal(listings[0], &postListing); err != nil ||
		len(postListing.Data.Children) == 0 {
		return "", &coreerrors.ParseError{URL: jsonURL, Err: err}
	}
	post := postListing.Data.Children[0].Data

	var b strings.Builder
	writePostBody(&b, post)

	if len(listings) > 1 {
		writeComments(&b, listings[1])
	}
	return b.String(), nil
}

// permalinkFromURL strips the host from a reddit or vxreddit article URL
func permalinkFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return strings.TrimSuffix(u.Path, "/") + "/"
}

func writePostBody(b *strings.Builder, post redditPost) {
	if post.SelftextHTML != "" {
		b.WriteString(html.UnescapeString(post.SelftextHTML))
		return
	}

	// link posts point somewhere else; keep the destination visible
	if post.URL != "" && !post.IsVideo {
		fmt.Fprintf(b, `<p><a href="%s">%s</a></p>`,
			html.EscapeString(post.URL), html.EscapeString(post.URL))
	}
}

// writeComments renders the top-level comments as a comments section
func writeComments(b *strings.Builder, raw json.RawMessage) {
	var listing struct {
		Data struct {
			Children []struct {
				Kind string        `json:"kind"`
				Data redditComment `json:"data"`
			} `json:"children"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &listing); err != nil {
		return
	}

	var rendered int
	var section strings.Builder
	for _, child := range listing.Data.Children {
		if child.Kind != "t1" || child.Data.BodyHTML == "" {
			continue
		}
		fmt.Fprintf(&section,
			`<div class="comment"><p><strong>u/%s</strong> · %d points</p>%s</div>`,
			html.EscapeString(child.Data.Author), child.Data.Score,
			html.UnescapeString(child.Data.BodyHTML))
		rendered++
		if rendered == maxRedditComments {
			break
		}
	}

	if rendered > 0 {
		b.WriteString(`<section class="comments"><h3>Comments</h3>`)
		b.WriteString(section.String())
		b.WriteString("</section>")
	}
}

// CollectIcon reads the subreddit's community icon
func (s *redditSource) CollectIcon(ctx context.Context, feed *domain.Feed) (string, error) {
	aboutURL := fmt.Sprintf("https://www.reddit.com/r/%s/about.json", feed.Identifier)
	body, _, err := s.fetcher.FetchBytes(ctx, aboutURL, fetch.Options{})
	if err != nil {
		return "", err
	}

	var about redditAbout
	if err := json.Unmarshal(body, &about); err != nil {
		return "", &coreerrors.ParseError{URL: aboutURL, Err: err}
	}

	iconURL := html.UnescapeString(about.Data.CommunityIcon)
	if iconURL == "" {
		iconURL = html.UnescapeString(about.Data.IconImg)
	}
	if iconURL == "" {
		return "", nil
	}
	// community icons carry size params after a query marker
	if i := strings.Index(iconURL, "?"); i > 0 {
		iconURL = iconURL[:i]
	}

	img, err := s.extractor.Extract(ctx, iconURL, images.Options{})
	if err != nil || img == nil {
		return "", err
	}
	return img.DataURI(), nil
}
