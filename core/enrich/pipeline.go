// ABOUTME: Enrichment pipeline turning raw feed items into full article content
// ABOUTME: Orchestrates fetch, readability extraction, processing and inline images

package enrich

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"yana/core/content"
	"yana/core/domain"
	coreerrors "yana/core/errors"
	"yana/core/fetch"
	"yana/core/images"
	"yana/core/interfaces"
)

// DefaultCacheTTL is how long enriched content stays in the advisory cache
const DefaultCacheTTL = 7 * 24 * time.Hour

// Result is the outcome of one enrichment run
type Result struct {
	// Content is the processed HTML fragment rooted at <article>
	Content string

	// FromCache reports whether the content was served from the cache
	FromCache bool
}

// Config carries the per-feed enrichment settings. The function fields are
// aggregator overrides; nil fields use the default behavior.
type Config struct {
	// UseBrowser routes content fetches through the headless browser
	UseBrowser bool

	// WaitForSelector is passed to the browser backend
	WaitForSelector string

	// GenerateTitleImage and AddSourceFooter mirror the feed options
	GenerateTitleImage bool
	AddSourceFooter    bool

	// SelectorsToRemove is the aggregator base list merged with the feed's
	// exclude_selectors option
	SelectorsToRemove []string

	// Replacements are the compiled regex rewrite rules
	Replacements []content.Replacement

	// InlineImages fetches and inlines body images as data URIs
	InlineImages bool

	// CacheTTL overrides DefaultCacheTTL when positive
	CacheTTL time.Duration

	// ShouldFetch decides whether the article needs content enrichment.
	// Default: fetch whenever the article has a URL.
	ShouldFetch func(article *domain.RawArticle) bool

	// FetchContent overrides the article content fetch
	FetchContent func(ctx context.Context, article *domain.RawArticle) (string, error)

	// Extract overrides readability extraction
	Extract func(html string, article *domain.RawArticle) (string, error)

	// Validate rejects extracted content; returning false skips the article
	Validate func(html string, article *domain.RawArticle) bool
}

// Pipeline enriches raw articles with fetched, extracted and processed
// content. Safe for concurrent use across articles.
type Pipeline struct {
	fetcher   *fetch.Fetcher
	processor *content.Processor
	cache     interfaces.Cache
	logger    interfaces.Logger
}

func NewPipeline(fetcher *fetch.Fetcher, processor *content.Processor, cache interfaces.Cache, logger interfaces.Logger) *Pipeline {
	return &Pipeline{
		fetcher:   fetcher,
		processor: processor,
		cache:     cache,
		logger:    logger,
	}
}

// Run enriches one article. Returns nil without error when no enrichment is
// wanted, a SkipArticleError when the article must be dropped, or a wrapped
// terminal error from the failing step.
func (p *Pipeline) Run(ctx context.Context, article *domain.RawArticle, cfg Config) (*Result, error) {
	if !p.shouldFetch(article, cfg) {
		return nil, nil
	}

	if cached, ok := p.getCached(ctx, article.URL); ok {
		return &Result{Content: cached, FromCache: true}, nil
	}

	html, err := p.fetchContent(ctx, article, cfg)
	if err != nil {
		if coreerrors.IsSkipArticle(err) {
			return nil, err
		}
		// Summary fallback keeps the article alive on transient failures
		if article.Summary != "" {
			p.logger.Warn("content fetch failed, falling back to summary", map[string]interface{}{
				"step":  "fetchArticleContent",
				"url":   article.URL,
				"error": err.Error(),
			})
			html = article.Summary
		} else {
			return nil, &coreerrors.SkipArticleError{
				URL:     article.URL,
				Message: fmt.Sprintf("content fetch failed without summary fallback: %v", err),
			}
		}
	}

	extracted, err := p.extract(html, article, cfg)
	if err != nil {
		if coreerrors.IsSkipArticle(err) {
			return nil, err
		}
		p.logger.Warn("extraction failed, keeping original document", map[string]interface{}{
			"step":  "extractContent",
			"url":   article.URL,
			"error": err.Error(),
		})
		extracted = html
	}

	if !p.validate(extracted, article, cfg) {
		return nil, &coreerrors.SkipArticleError{URL: article.URL, Message: "extracted content failed validation"}
	}

	processed, err := p.processor.Process(ctx, extracted, content.ProcessOptions{
		ArticleURL:         article.URL,
		HeaderImageURL:     article.HeaderImageURL,
		GenerateTitleImage: cfg.GenerateTitleImage,
		AddSourceFooter:    cfg.AddSourceFooter,
		SelectorsToRemove:  cfg.SelectorsToRemove,
		Replacements:       cfg.Replacements,
	})
	if err != nil {
		// the processor falls back internally; only SkipArticle escapes
		return nil, err
	}

	if cfg.InlineImages {
		processed, err = p.inlineImages(ctx, processed, article.URL)
		if err != nil {
			return nil, err
		}
	}

	p.putCached(ctx, article.URL, processed, cfg)

	return &Result{Content: processed}, nil
}

// ProcessSummary routes an article's summary through the content processor.
// Used for items the pipeline declines to fetch (no URL), so persisted
// content always carries the standard envelope.
func (p *Pipeline) ProcessSummary(ctx context.Context, article *domain.RawArticle, cfg Config) (string, error) {
	return p.processor.Process(ctx, article.Summary, content.ProcessOptions{
		ArticleURL:         article.URL,
		HeaderImageURL:     article.HeaderImageURL,
		GenerateTitleImage: cfg.GenerateTitleImage,
		AddSourceFooter:    cfg.AddSourceFooter,
		SelectorsToRemove:  cfg.SelectorsToRemove,
		Replacements:       cfg.Replacements,
	})
}

func (p *Pipeline) shouldFetch(article *domain.RawArticle, cfg Config) bool {
	if cfg.ShouldFetch != nil {
		return cfg.ShouldFetch(article)
	}
	return article.URL != ""
}

func (p *Pipeline) fetchContent(ctx context.Context, article *domain.RawArticle, cfg Config) (string, error) {
	if cfg.FetchContent != nil {
		return cfg.FetchContent(ctx, article)
	}
	return p.fetcher.FetchHTML(ctx, article.URL, fetch.Options{
		UseBrowser:      cfg.UseBrowser,
		WaitForSelector: cfg.WaitForSelector,
	})
}

func (p *Pipeline) extract(html string, article *domain.RawArticle, cfg Config) (string, error) {
	if cfg.Extract != nil {
		return cfg.Extract(html, article)
	}

	pageURL, err := url.Parse(article.URL)
	if err != nil {
		return "", &coreerrors.ParseError{URL: article.URL, Err: err}
	}

	extracted, err := readability.FromReader(strings.NewReader(html), pageURL)
	if err != nil {
		return "", &coreerrors.ParseError{URL: article.URL, Err: err}
	}

	return extracted.Content, nil
}

func (p *Pipeline) validate(html string, article *domain.RawArticle, cfg Config) bool {
	if cfg.Validate != nil {
		return cfg.Validate(html, article)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return false
	}
	if strings.TrimSpace(doc.Text()) != "" {
		return true
	}
	// image-only articles (comics) carry no text but are still valid
	return doc.Find("img, iframe, svg, video").Length() > 0
}

// inlineImages replaces remote body images with compressed data URIs.
// Failures keep the remote reference, except a 4xx which drops the article.
func (p *Pipeline) inlineImages(ctx context.Context, html, articleURL string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html, nil
	}

	var skip error
	doc.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		src, ok := img.Attr("src")
		if !ok || src == "" || strings.HasPrefix(src, "data:") {
			return true
		}

		data, contentType, err := p.fetcher.FetchBytes(ctx, src, fetch.Options{})
		if err != nil {
			if coreerrors.IsSkipArticle(err) {
				skip = err
				return false
			}
			p.logger.Warn("inline image fetch failed", map[string]interface{}{
				"step":  "extractImages",
				"url":   src,
				"error": err.Error(),
			})
			return true
		}

		compressed, err := images.Compress(&images.Image{Data: data, ContentType: contentType}, false)
		if err != nil {
			p.logger.Warn("inline image compression failed", map[string]interface{}{
				"step":  "extractImages",
				"url":   src,
				"error": err.Error(),
			})
			return true
		}

		img.SetAttr("src", compressed.DataURI())
		return true
	})
	if skip != nil {
		return "", skip
	}

	out, err := doc.Find("body").Html()
	if err != nil {
		return html, nil
	}
	return out, nil
}

func (p *Pipeline) getCached(ctx context.Context, articleURL string) (string, bool) {
	if p.cache == nil || articleURL == "" {
		return "", false
	}
	data, err := p.cache.Get(ctx, cacheKey(articleURL))
	if err != nil || len(data) == 0 {
		return "", false
	}
	return string(data), true
}

func (p *Pipeline) putCached(ctx context.Context, articleURL, processed string, cfg Config) {
	if p.cache == nil || articleURL == "" {
		return
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if err := p.cache.Set(ctx, cacheKey(articleURL), []byte(processed), ttl); err != nil {
		p.logger.Debug("content cache write failed", map[string]interface{}{
			"url":   articleURL,
			"error": err.Error(),
		})
	}
}

func cacheKey(articleURL string) string {
	return "content:" + domain.NormalizeURL(articleURL)
}
