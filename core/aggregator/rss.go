// ABOUTME: RSS/Atom backed aggregator kinds, generic and site presets
// ABOUTME: One source type parameterized by preset covers eight kinds

package aggregator

import (
	"context"
	"fmt"

	"github.com/mmcdole/gofeed"

	"yana/core/domain"
	coreerrors "yana/core/errors"
	"yana/core/enrich"
	"yana/core/fetch"
)

// rssMode selects how article content is obtained for an RSS kind
type rssMode int

const (
	// modeFetchArticle fetches the linked page and runs readability
	modeFetchArticle rssMode = iota
	// modeFeedContent uses the content embedded in the feed item
	modeFeedContent
	// modePodcast builds an audio player from the enclosure
	modePodcast
)

// rssPreset parameterizes one RSS-backed kind
type rssPreset struct {
	desc    Descriptor
	mode    rssMode
	feedURL string // fixed feed URL for site presets; empty = identifier
}

// rssPresets holds every RSS-backed kind
var rssPresets = map[domain.Kind]rssPreset{
	domain.KindFeedContent: {
		desc: Descriptor{
			Kind:               domain.KindFeedContent,
			Name:               "Feed (embedded content)",
			IdentifierLabel:    "Feed URL",
			IdentifierEditable: true,
			PrefillName:        true,
			Options:            commonOptionSpecs(),
		},
		mode: modeFeedContent,
	},
	domain.KindFullWebsite: {
		desc: Descriptor{
			Kind:               domain.KindFullWebsite,
			Name:               "Full website",
			IdentifierLabel:    "Feed URL",
			IdentifierEditable: true,
			PrefillName:        true,
			Options:            commonOptionSpecs(),
		},
		mode: modeFetchArticle,
	},
	domain.KindPodcast: {
		desc: Descriptor{
			Kind:               domain.KindPodcast,
			Name:               "Podcast",
			IdentifierLabel:    "Feed URL",
			IdentifierEditable: true,
			PrefillName:        true,
			Options:            commonOptionSpecs(),
		},
		mode: modePodcast,
	},
	domain.KindHeise: {
		desc: Descriptor{
			Kind:            domain.KindHeise,
			Name:            "Heise Online",
			IdentifierLabel: "Feed URL",
			Options:         commonOptionSpecs(),
			SelectorsToRemove: []string{
				"a-ad", ".ho-text-teaser", ".branding", "a-paid-content-teaser",
			},
		},
		mode:    modeFetchArticle,
		feedURL: "https://www.heise.de/rss/heise-atom.xml",
	},
	domain.KindMerkur: {
		desc: Descriptor{
			Kind:            domain.KindMerkur,
			Name:            "Merkur",
			IdentifierLabel: "Feed URL",
			Options:         commonOptionSpecs(),
			UseBrowser:      true,
			WaitForSelector: "article",
			SelectorsToRemove: []string{
				".id-DonaldBreadcrumb", ".id-Recommendation", ".id-Comments",
			},
		},
		mode:    modeFetchArticle,
		feedURL: "https://www.merkur.de/rssfeed.rdf",
	},
	domain.KindTagesschau: {
		desc: Descriptor{
			Kind:            domain.KindTagesschau,
			Name:            "Tagesschau",
			IdentifierLabel: "Feed URL",
			Options:         commonOptionSpecs(),
			SelectorsToRemove: []string{
				".teaser-absatz", ".metatextline", ".seitenfuss", ".infokasten",
			},
		},
		mode:    modeFetchArticle,
		feedURL: "https://www.tagesschau.de/xml/rss2/",
	},
	domain.KindCaschysBlog: {
		desc: Descriptor{
			Kind:            domain.KindCaschysBlog,
			Name:            "Caschys Blog",
			IdentifierLabel: "Feed URL",
			Options:         commonOptionSpecs(),
			SelectorsToRemove: []string{
				".wpcnt", ".sharedaddy", ".jp-relatedposts",
			},
		},
		mode:    modeFeedContent,
		feedURL: "https://stadt-bremerhaven.de/feed/",
	},
	domain.KindMacTechNews: {
		desc: Descriptor{
			Kind:            domain.KindMacTechNews,
			Name:            "MacTechNews",
			IdentifierLabel: "Feed URL",
			Options:         commonOptionSpecs(),
			SelectorsToRemove: []string{
				".comments", ".social-bar", ".related-articles",
			},
		},
		mode:    modeFetchArticle,
		feedURL: "https://www.mactechnews.de/rss.xml",
	},
}

// rssSource serves every RSS-backed kind
type rssSource struct {
	preset  rssPreset
	fetcher *fetch.Fetcher
}

func newRSSSource(preset rssPreset, fetcher *fetch.Fetcher) *rssSource {
	return &rssSource{preset: preset, fetcher: fetcher}
}

func (s *rssSource) Descriptor() Descriptor { return s.preset.desc }

func (s *rssSource) Validate(ctx context.Context, feed *domain.Feed) error {
	if s.preset.feedURL != "" {
		// site presets carry their own feed URL
		if feed.Identifier == "" {
			feed.Identifier = s.preset.feedURL
		}
		return nil
	}
	if feed.Identifier == "" {
		return &coreerrors.ValidationError{Field: "identifier", Message: "feed URL is required"}
	}
	return nil
}

func (s *rssSource) feedURL(feed *domain.Feed) string {
	if feed.Identifier != "" {
		return feed.Identifier
	}
	return s.preset.feedURL
}

func (s *rssSource) FetchSource(ctx context.Context, feed *domain.Feed, limit int) (SourceData, error) {
	return s.fetcher.FetchFeed(ctx, s.feedURL(feed))
}

func (s *rssSource) Parse(ctx context.Context, feed *domain.Feed, data SourceData) ([]domain.RawArticle, error) {
	parsed, ok := data.(*gofeed.Feed)
	if !ok {
		return nil, &coreerrors.FatalError{Message: "unexpected source data for rss aggregator"}
	}

	articles := make([]domain.RawArticle, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		articles = append(articles, rawFromItem(item))
	}
	return articles, nil
}

// rawFromItem maps one gofeed item to the raw article shape
func rawFromItem(item *gofeed.Item) domain.RawArticle {
	raw := domain.RawArticle{
		Title:      item.Title,
		URL:        item.Link,
		Summary:    item.Description,
		Author:     itemAuthor(item),
		ExternalID: item.GUID,
	}

	if item.Content != "" {
		raw.Summary = item.Content
	}
	if item.PublishedParsed != nil {
		raw.Published = item.PublishedParsed.UTC()
	} else if item.UpdatedParsed != nil {
		raw.Published = item.UpdatedParsed.UTC()
	}
	if item.Image != nil {
		raw.ThumbnailURL = item.Image.URL
	}
	for _, enc := range item.Enclosures {
		if enc.URL != "" {
			raw.MediaURL = enc.URL
			raw.MediaType = enc.Type
			break
		}
	}
	return raw
}

func itemAuthor(item *gofeed.Item) string {
	if len(item.Authors) > 0 && item.Authors[0] != nil {
		return item.Authors[0].Name
	}
	return ""
}

// CustomizeEnrich wires the content mode into the pipeline
func (s *rssSource) CustomizeEnrich(feed *domain.Feed, cfg *enrich.Config) {
	switch s.preset.mode {
	case modeFeedContent:
		cfg.FetchContent = func(ctx context.Context, a *domain.RawArticle) (string, error) {
			if a.Summary == "" {
				return "", &coreerrors.SkipArticleError{URL: a.URL, Message: "feed item has no embedded content"}
			}
			return a.Summary, nil
		}
		cfg.Extract = func(html string, _ *domain.RawArticle) (string, error) {
			return html, nil
		}
	case modePodcast:
		cfg.FetchContent = func(ctx context.Context, a *domain.RawArticle) (string, error) {
			if a.MediaURL == "" {
				return "", &coreerrors.SkipArticleError{URL: a.URL, Message: "podcast item has no enclosure"}
			}
			return podcastContent(a), nil
		}
		cfg.Extract = func(html string, _ *domain.RawArticle) (string, error) {
			return html, nil
		}
	}
}

// podcastContent builds the episode block with an audio player
func podcastContent(a *domain.RawArticle) string {
	mediaType := a.MediaType
	if mediaType == "" {
		mediaType = "audio/mpeg"
	}
	return fmt.Sprintf(
		`<figure><audio controls preload="none" style="width:100%%"><source src="%s" type="%s"></audio></figure>%s`,
		a.MediaURL, mediaType, a.Summary)
}
