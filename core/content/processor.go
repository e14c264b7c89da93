// ABOUTME: Article content processor producing the canonical <article> envelope
// ABOUTME: Handles header synthesis, platform embeds, comment sections and rewrite rules

package content

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	coreerrors "yana/core/errors"
	"yana/core/images"
	"yana/core/interfaces"
)

// ProcessOptions carries the per-feed settings the processor honors.
type ProcessOptions struct {
	// ArticleURL is the canonical link of the article, used for embed
	// detection and the source footer.
	ArticleURL string

	// HeaderImageURL, when set by the aggregator, overrides header image
	// discovery inside the content.
	HeaderImageURL string

	// GenerateTitleImage enables header synthesis when the content has none.
	GenerateTitleImage bool

	// AddSourceFooter appends a source link footer when the content lacks one.
	AddSourceFooter bool

	// SelectorsToRemove are CSS selectors stripped from the content.
	SelectorsToRemove []string

	// Replacements are regex rewrite rules applied to the final markup.
	Replacements []Replacement
}

// Processor normalizes extracted article HTML into a self-contained
// <article> block. Every article leaves the processor with the same shape:
// an optional header, the main content in a <section>, any comment sections,
// and an optional footer.
type Processor struct {
	extractor *images.Extractor
	logger    interfaces.Logger
}

func NewProcessor(extractor *images.Extractor, logger interfaces.Logger) *Processor {
	return &Processor{extractor: extractor, logger: logger}
}

// Process rebuilds the article markup. Errors short of SkipArticle never
// fail the article: the original content is wrapped as-is instead.
func (p *Processor) Process(ctx context.Context, html string, opts ProcessOptions) (string, error) {
	out, err := p.process(ctx, html, opts)
	if err != nil {
		if coreerrors.IsSkipArticle(err) {
			return "", err
		}
		p.logger.Warn("content processing failed, wrapping original markup", map[string]interface{}{
			"url":   opts.ArticleURL,
			"error": err.Error(),
		})
		return p.wrapFallback(html, opts), nil
	}
	return out, nil
}

func (p *Processor) process(ctx context.Context, html string, opts ProcessOptions) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", &coreerrors.ParseError{URL: opts.ArticleURL, Err: err}
	}

	// Prefer an existing <article> wrapper as the body root
	body := doc.Find("body").First()
	if wrapper := body.Find("article").First(); wrapper.Length() > 0 {
		body = wrapper
	}

	headerHTML := detachFirst(body, "header")
	footerHTML := detachFirst(body, "footer")

	kind := embedNone
	if headerHTML == "" {
		headerHTML, kind = p.buildHeader(ctx, body, opts)
	}

	switch kind {
	case embedYouTube:
		removeYouTubeDuplicates(body, images.YouTubeVideoID(opts.ArticleURL))
	case embedReddit:
		removeRedditDuplicates(body, redditPostURL(opts.ArticleURL))
	}

	commentsHTML := extractCommentSections(body)

	mainHTML, err := body.Html()
	if err != nil {
		return "", &coreerrors.ParseError{URL: opts.ArticleURL, Err: err}
	}

	if footerHTML == "" && opts.AddSourceFooter && opts.ArticleURL != "" {
		footerHTML = sourceFooter(opts.ArticleURL)
	}

	var b strings.Builder
	b.WriteString("<article>")
	b.WriteString(headerHTML)
	b.WriteString("<section>")
	b.WriteString(strings.TrimSpace(mainHTML))
	b.WriteString("</section>")
	b.WriteString(commentsHTML)
	b.WriteString(footerHTML)
	b.WriteString("</article>")

	// Selector removal runs on the rebuilt envelope so elements stripped by
	// configuration can still feed header synthesis first.
	out := b.String()
	if len(opts.SelectorsToRemove) > 0 {
		out = p.removeFromEnvelope(out, opts)
	}

	return ApplyReplacements(out, opts.Replacements), nil
}

// removeFromEnvelope applies the configured selector removals to the built
// article markup.
func (p *Processor) removeFromEnvelope(markup string, opts ProcessOptions) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return markup
	}

	root := doc.Find("article").First()
	if root.Length() == 0 {
		return markup
	}
	removeSelectors(root, opts.SelectorsToRemove, p.logger)

	out, err := goquery.OuterHtml(root)
	if err != nil {
		return markup
	}
	return out
}

// buildHeader synthesizes the article header. YouTube and Reddit embed URLs
// get a platform iframe; everything else gets a title image when enabled.
func (p *Processor) buildHeader(ctx context.Context, body *goquery.Selection, opts ProcessOptions) (string, embedKind) {
	if videoID := images.YouTubeVideoID(opts.ArticleURL); videoID != "" {
		return youtubeEmbedHeader(videoID), embedYouTube
	}

	if isRedditEmbedURL(opts.ArticleURL) {
		return redditEmbedHeader(redditEmbedSrc(opts.ArticleURL)), embedReddit
	}

	if !opts.GenerateTitleImage {
		return "", embedNone
	}

	source, origin := headerSource(body, opts)
	if source == "" {
		return "", embedNone
	}

	// Data URIs are already inlined; no extraction round trip needed
	if strings.HasPrefix(source, "data:") {
		removeOrigin(origin)
		return imageHeader(source), embedNone
	}

	img, err := p.extractor.Extract(ctx, source, images.Options{IsHeader: true})
	if err != nil || img == nil {
		if err != nil {
			p.logger.Debug("header image extraction failed", map[string]interface{}{
				"url":   source,
				"error": err.Error(),
			})
		}
		return "", embedNone
	}

	removeOrigin(origin)
	return imageHeader(img.DataURI()), embedNone
}

// headerSource picks the title image source: the aggregator-provided URL,
// the first in-content image, the first outbound link, then the article URL.
// The returned selection is the body element the URL came from, if any.
func headerSource(body *goquery.Selection, opts ProcessOptions) (string, *goquery.Selection) {
	if opts.HeaderImageURL != "" {
		return opts.HeaderImageURL, nil
	}

	var source string
	var origin *goquery.Selection

	body.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		if src, ok := img.Attr("src"); ok && src != "" {
			source, origin = src, img
			return false
		}
		return true
	})
	if source != "" {
		return source, origin
	}

	body.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, ok := a.Attr("href")
		if ok && (strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://")) {
			source, origin = href, a
			return false
		}
		return true
	})
	if source != "" {
		return source, origin
	}

	return opts.ArticleURL, nil
}

// removeOrigin drops the body element the header image came from so the
// image does not appear twice, collapsing emptied ancestors.
func removeOrigin(origin *goquery.Selection) {
	if origin == nil || origin.Length() == 0 {
		return
	}
	parent := origin.Parent()
	origin.Remove()
	collapseEmptyAncestors(parent)
}

// detachFirst removes the first matching element and returns its markup
func detachFirst(body *goquery.Selection, selector string) string {
	el := body.Find(selector).First()
	if el.Length() == 0 {
		return ""
	}
	markup, err := goquery.OuterHtml(el)
	el.Remove()
	if err != nil {
		return ""
	}
	return markup
}

// extractCommentSections detaches sections that carry discussion threads so
// they can be re-attached after the main content. A section qualifies when
// its first heading or its text mentions comments.
func extractCommentSections(body *goquery.Selection) string {
	var parts []string
	body.Find("section").Each(func(_ int, s *goquery.Selection) {
		if !isCommentSection(s) {
			return
		}
		if markup, err := goquery.OuterHtml(s); err == nil {
			parts = append(parts, markup)
		}
		s.Remove()
	})
	return strings.Join(parts, "")
}

func isCommentSection(s *goquery.Selection) bool {
	if heading := s.Find("h1, h2, h3, h4, h5, h6").First(); heading.Length() > 0 {
		if strings.Contains(strings.ToLower(heading.Text()), "comment") {
			return true
		}
	}
	if class, ok := s.Attr("class"); ok && strings.Contains(strings.ToLower(class), "comment") {
		return true
	}
	return strings.Contains(strings.ToLower(s.Text()), "comment")
}

func removeSelectors(body *goquery.Selection, selectors []string, logger interfaces.Logger) {
	for _, sel := range selectors {
		sel = strings.TrimSpace(sel)
		if sel == "" {
			continue
		}
		matched := body.Find(sel)
		if matched.Length() > 0 {
			matched.Remove()
		} else if logger != nil {
			logger.Debug("exclude selector matched nothing", map[string]interface{}{
				"selector": sel,
			})
		}
	}
}

func sourceFooter(articleURL string) string {
	return fmt.Sprintf(
		`<footer style="margin-bottom:16px"><a href="%s" style="float:right">Source</a></footer>`,
		articleURL)
}

// wrapFallback produces the envelope without restructuring the content.
func (p *Processor) wrapFallback(html string, opts ProcessOptions) string {
	var b strings.Builder
	b.WriteString("<article><section>")
	b.WriteString(html)
	b.WriteString("</section>")
	if opts.AddSourceFooter && opts.ArticleURL != "" {
		b.WriteString(sourceFooter(opts.ArticleURL))
	}
	b.WriteString("</article>")
	return b.String()
}
