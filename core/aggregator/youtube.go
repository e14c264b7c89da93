// ABOUTME: YouTube channel aggregator over the public uploads feed
// ABOUTME: Resolves handles, custom URLs and user names to canonical channel ids

package aggregator

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"

	"github.com/mmcdole/gofeed"

	"yana/core/domain"
	coreerrors "yana/core/errors"
	"yana/core/enrich"
	"yana/core/fetch"
	"yana/core/images"
	"yana/core/interfaces"
)

var (
	// channelIDPattern matches a canonical channel id
	channelIDPattern = regexp.MustCompile(`^UC[0-9A-Za-z_-]{22}$`)

	// channelIDInPage finds channel ids embedded in page markup
	channelIDInPage = regexp.MustCompile(`"channelId":"(UC[0-9A-Za-z_-]{22})"`)

	// channelRendererInPage anchors one search result block
	channelRendererInPage = regexp.MustCompile(`"channelRenderer":\{"channelId":"(UC[0-9A-Za-z_-]{22})"`)

	canonicalBaseURLInPage = regexp.MustCompile(`"canonicalBaseUrl":"/(@[^"]+)"`)
	channelTitleInPage     = regexp.MustCompile(`"title":\{"simpleText":"([^"]+)"`)
)

type youtubeSource struct {
	fetcher *fetch.Fetcher
	logger  interfaces.Logger
}

func newYouTubeSource(fetcher *fetch.Fetcher, logger interfaces.Logger) *youtubeSource {
	return &youtubeSource{fetcher: fetcher, logger: logger}
}

func (s *youtubeSource) Descriptor() Descriptor {
	return Descriptor{
		Kind:               domain.KindYouTube,
		Name:               "YouTube channel",
		IdentifierLabel:    "Channel id, handle or URL",
		IdentifierEditable: true,
		PrefillName:        true,
		Options:            commonOptionSpecs(),
	}
}

// Validate resolves the identifier to a canonical UC… channel id in place
func (s *youtubeSource) Validate(ctx context.Context, feed *domain.Feed) error {
	id, err := s.ResolveChannelID(ctx, feed.Identifier)
	if err != nil {
		return err
	}
	feed.Identifier = id
	return nil
}

// ResolveChannelID runs the resolution chain: canonical id, URL forms,
// channel page scrape, then search with exact-handle preference.
func (s *youtubeSource) ResolveChannelID(ctx context.Context, identifier string) (string, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return "", &coreerrors.ValidationError{Field: "identifier", Message: "channel identifier is required"}
	}

	if channelIDPattern.MatchString(identifier) {
		return identifier, nil
	}

	if id, handle, ok := parseChannelURL(identifier); ok {
		if id != "" {
			return id, nil
		}
		identifier = handle
	}

	handle := strings.TrimPrefix(identifier, "@")

	// the handle page carries the channel id in its metadata
	if id := s.scrapeChannelID(ctx, "https://www.youtube.com/@"+url.PathEscape(handle)); id != "" {
		return id, nil
	}

	if id := s.searchChannelID(ctx, handle); id != "" {
		return id, nil
	}

	// legacy user names resolve through the forUsername feed form
	if id := s.scrapeChannelID(ctx, "https://www.youtube.com/user/"+url.PathEscape(handle)); id != "" {
		return id, nil
	}

	return "", &coreerrors.ValidationError{
		Field:   "identifier",
		Message: fmt.Sprintf("could not resolve %q to a YouTube channel", identifier),
	}
}

// parseChannelURL extracts a channel id or handle from a channel URL.
// ok is false when the identifier is not a URL.
func parseChannelURL(identifier string) (id, handle string, ok bool) {
	if !strings.Contains(identifier, "youtube.com") && !strings.Contains(identifier, "/") {
		return "", "", false
	}

	raw := identifier
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", false
	}

	if cid := u.Query().Get("channel_id"); channelIDPattern.MatchString(cid) {
		return cid, "", true
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		return "", "", false
	}

	switch {
	case strings.HasPrefix(parts[0], "@"):
		return "", parts[0], true
	case parts[0] == "channel" && len(parts) > 1 && channelIDPattern.MatchString(parts[1]):
		return parts[1], "", true
	case (parts[0] == "c" || parts[0] == "user") && len(parts) > 1:
		return "", parts[1], true
	}
	return "", "", false
}

// scrapeChannelID fetches a channel page and pulls the embedded channel id
func (s *youtubeSource) scrapeChannelID(ctx context.Context, pageURL string) string {
	body, err := s.fetcher.FetchHTML(ctx, pageURL, fetch.Options{})
	if err != nil {
		return ""
	}
	if m := channelIDInPage.FindStringSubmatch(body); m != nil {
		return m[1]
	}
	return ""
}

// searchChannelID queries the results page and prefers an exact handle
// match on the channel's custom URL, then an exact title match, then the
// first channel hit.
func (s *youtubeSource) searchChannelID(ctx context.Context, handle string) string {
	searchURL := "https://www.youtube.com/results?search_query=" + url.QueryEscape(handle)
	body, err := s.fetcher.FetchHTML(ctx, searchURL, fetch.Options{})
	if err != nil {
		return ""
	}

	matches := channelRendererInPage.FindAllStringSubmatchIndex(body, -1)
	if len(matches) == 0 {
		return ""
	}

	wantHandle := "@" + strings.ToLower(handle)
	first := ""
	titleHit := ""

	for i, m := range matches {
		id := body[m[2]:m[3]]
		if first == "" {
			first = id
		}

		// inspect this renderer block only, up to the next result
		end := len(body)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		block := body[m[0]:end]

		if cu := canonicalBaseURLInPage.FindStringSubmatch(block); cu != nil &&
			strings.ToLower(cu[1]) == wantHandle {
			return id
		}
		if titleHit == "" {
			if ti := channelTitleInPage.FindStringSubmatch(block); ti != nil &&
				strings.EqualFold(ti[1], handle) {
				titleHit = id
			}
		}
	}

	if titleHit != "" {
		return titleHit
	}
	return first
}

func (s *youtubeSource) FetchSource(ctx context.Context, feed *domain.Feed, limit int) (SourceData, error) {
	feedURL := "https://www.youtube.com/feeds/videos.xml?channel_id=" + url.QueryEscape(feed.Identifier)
	return s.fetcher.FetchFeed(ctx, feedURL)
}

func (s *youtubeSource) Parse(ctx context.Context, feed *domain.Feed, data SourceData) ([]domain.RawArticle, error) {
	parsed, ok := data.(*gofeed.Feed)
	if !ok {
		return nil, &coreerrors.FatalError{Message: "unexpected source data for youtube aggregator"}
	}

	articles := make([]domain.RawArticle, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		raw := rawFromItem(item)
		raw.Summary = mediaDescription(item)
		if videoID := images.YouTubeVideoID(item.Link); videoID != "" {
			raw.ExternalID = videoID
			raw.ThumbnailURL = fmt.Sprintf("https://i.ytimg.com/vi/%s/hqdefault.jpg", videoID)
		}
		articles = append(articles, raw)
	}
	return articles, nil
}

// mediaDescription reads the media:group description extension
func mediaDescription(item *gofeed.Item) string {
	media, ok := item.Extensions["media"]
	if !ok {
		return item.Description
	}
	for _, group := range media["group"] {
		for _, desc := range group.Children["description"] {
			if desc.Value != "" {
				return desc.Value
			}
		}
	}
	return item.Description
}

// CustomizeEnrich builds the video description block locally; the embed
// header comes from the content processor via the watch URL.
func (s *youtubeSource) CustomizeEnrich(feed *domain.Feed, cfg *enrich.Config) {
	cfg.FetchContent = func(ctx context.Context, a *domain.RawArticle) (string, error) {
		return descriptionHTML(a.Summary), nil
	}
	cfg.Extract = func(html string, _ *domain.RawArticle) (string, error) {
		return html, nil
	}
	// a video without a description is still a valid article; the embed
	// header carries the content
	cfg.Validate = func(string, *domain.RawArticle) bool { return true }
}

// descriptionHTML renders a plain-text video description as paragraphs
func descriptionHTML(text string) string {
	if strings.TrimSpace(text) == "" {
		return "<p></p>"
	}

	var b strings.Builder
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		b.WriteString("<p>")
		b.WriteString(strings.ReplaceAll(html.EscapeString(para), "\n", "<br>"))
		b.WriteString("</p>")
	}
	return b.String()
}
