// ABOUTME: MeinMMO aggregator with multi-page article traversal
// ABOUTME: Concatenates paginated WordPress content blocks before processing

package aggregator

import (
	"context"
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"yana/core/domain"
	coreerrors "yana/core/errors"
	"yana/core/enrich"
	"yana/core/fetch"
	"yana/core/interfaces"
)

const meinMMOFeedURL = "https://mein-mmo.de/feed/"

type meinMMOSource struct {
	rssSource
	logger interfaces.Logger
}

func newMeinMMOSource(fetcher *fetch.Fetcher, logger interfaces.Logger) *meinMMOSource {
	return &meinMMOSource{
		rssSource: rssSource{
			preset: rssPreset{
				desc: Descriptor{
					Kind:            domain.KindMeinMMO,
					Name:            "MeinMMO",
					IdentifierLabel: "Feed URL",
					Options: append(commonOptionSpecs(), domain.OptionSpec{
						Name: domain.OptTraverseMultipage, Type: domain.OptionBoolean, Default: true,
					}),
					SelectorsToRemove: []string{
						".adsbox", ".newsletter-box", ".related-posts", ".page-links",
					},
				},
				mode:    modeFetchArticle,
				feedURL: meinMMOFeedURL,
			},
			fetcher: fetcher,
		},
		logger: logger,
	}
}

// Parse tags multi-page articles so downstream steps can report them
func (s *meinMMOSource) Parse(ctx context.Context, feed *domain.Feed, data SourceData) ([]domain.RawArticle, error) {
	articles, err := s.rssSource.Parse(ctx, feed, data)
	if err != nil {
		return nil, err
	}
	for i := range articles {
		if articles[i].Tags == nil {
			articles[i].Tags = make(map[string]bool)
		}
	}
	return articles, nil
}

// CustomizeEnrich fetches all numbered pages of an article sequentially and
// concatenates their content blocks when traverse_multipage is on.
func (s *meinMMOSource) CustomizeEnrich(feed *domain.Feed, cfg *enrich.Config) {
	traverse := feed.Options.Bool(domain.OptTraverseMultipage, true)

	cfg.FetchContent = func(ctx context.Context, a *domain.RawArticle) (string, error) {
		return s.fetchArticlePages(ctx, a, traverse)
	}
	cfg.Extract = func(html string, a *domain.RawArticle) (string, error) {
		return extractEntryContent(html, a.URL)
	}
}

// fetchArticlePages returns the first page's markup with the content blocks
// of the remaining pages appended inside the entry content.
func (s *meinMMOSource) fetchArticlePages(ctx context.Context, a *domain.RawArticle, traverse bool) (string, error) {
	first, err := s.fetcher.FetchHTML(ctx, a.URL, fetch.Options{})
	if err != nil {
		return "", err
	}

	pages := pageLinks(first, a.URL)
	if len(pages) == 0 {
		return first, nil
	}

	if a.Tags != nil {
		a.Tags[domain.TagMultiPage] = true
	}

	if !traverse {
		s.logger.Info("multi-page article detected but traversal is disabled", map[string]interface{}{
			"url":   a.URL,
			"pages": len(pages) + 1,
		})
		return first, nil
	}

	// page fetches stay sequential: the pages share one host and the
	// concatenation order must match the pagination order
	var extra strings.Builder
	for _, pageURL := range pages {
		page, err := s.fetcher.FetchHTML(ctx, pageURL, fetch.Options{})
		if err != nil {
			if coreerrors.IsSkipArticle(err) {
				return "", err
			}
			s.logger.Warn("multi-page fetch failed, keeping earlier pages", map[string]interface{}{
				"url":   pageURL,
				"error": err.Error(),
			})
			break
		}
		block, err := extractEntryContent(page, pageURL)
		if err != nil {
			continue
		}
		extra.WriteString(block)
	}

	if extra.Len() == 0 {
		return first, nil
	}
	return appendToEntryContent(first, extra.String())
}

// pageLinks reads the WordPress pagination block, skipping the current page
func pageLinks(html, selfURL string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var links []string
	seen := map[string]bool{selfURL: true}
	doc.Find(".page-links a.post-page-numbers").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok || href == "" || seen[href] {
			return
		}
		seen[href] = true
		links = append(links, href)
	})
	return links
}

// extractEntryContent pulls the WordPress content block from a page
func extractEntryContent(html, pageURL string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", &coreerrors.ParseError{URL: pageURL, Err: err}
	}

	block := doc.Find("div.entry-content").First()
	if block.Length() == 0 {
		return "", &coreerrors.ParseError{URL: pageURL, Err: errNoEntryContent}
	}

	inner, err := block.Html()
	if err != nil {
		return "", &coreerrors.ParseError{URL: pageURL, Err: err}
	}
	return inner, nil
}

// appendToEntryContent splices extra markup into the first page's block
func appendToEntryContent(firstPage, extra string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(firstPage))
	if err != nil {
		return firstPage, nil
	}

	block := doc.Find("div.entry-content").First()
	if block.Length() == 0 {
		return firstPage, nil
	}
	block.AppendHtml(extra)

	out, err := doc.Find("body").Html()
	if err != nil {
		return firstPage, nil
	}
	return out, nil
}

var errNoEntryContent = errors.New("page has no entry-content block")
