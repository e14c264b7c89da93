// ABOUTME: Ordered-strategy image extraction for article header and inline images
// ABOUTME: Strategies are tried in a fixed order; the first non-nil result wins

package images

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	coreerrors "yana/core/errors"
	"yana/core/fetch"
	"yana/core/interfaces"
)

// Image is one extracted image with its MIME type
type Image struct {
	Data        []byte
	ContentType string
}

// DataURI renders the image as a base64 data URI
func (i *Image) DataURI() string {
	return fmt.Sprintf("data:%s;base64,%s", i.ContentType, base64.StdEncoding.EncodeToString(i.Data))
}

// Options controls one extraction
type Options struct {
	// IsHeader permits larger target dimensions and WebP encoding
	IsHeader bool
}

// renderedPage lazily loads a browser-rendered DOM shared by the
// strategies that need one.
type renderedPage struct {
	url     string
	fetcher *fetch.Fetcher
	once    sync.Once
	doc     *goquery.Document
	err     error
}

func (p *renderedPage) document(ctx context.Context) (*goquery.Document, error) {
	p.once.Do(func() {
		html, err := p.fetcher.FetchHTML(ctx, p.url, fetch.Options{UseBrowser: true})
		if err != nil {
			p.err = err
			return
		}
		p.doc, p.err = goquery.NewDocumentFromReader(strings.NewReader(html))
	})
	return p.doc, p.err
}

// strategy is one image extraction approach
type strategy interface {
	Name() string
	CanHandle(url string) bool
	Extract(ctx context.Context, pageURL string, page *renderedPage, opts Options) (*Image, error)
}

// Extractor runs the ordered strategy chain
type Extractor struct {
	fetcher    *fetch.Fetcher
	logger     interfaces.Logger
	strategies []strategy
}

// NewExtractor creates the extractor with the canonical strategy order
func NewExtractor(fetcher *fetch.Fetcher, logger interfaces.Logger) *Extractor {
	e := &Extractor{
		fetcher: fetcher,
		logger:  logger,
	}
	e.strategies = []strategy{
		&directImageStrategy{fetcher: fetcher},
		&youtubeThumbnailStrategy{fetcher: fetcher},
		&twitterStrategy{fetcher: fetcher},
		&metaTagStrategy{fetcher: fetcher},
		&inlineSVGStrategy{},
		&pageImageStrategy{fetcher: fetcher},
	}
	return e
}

// Extract runs the chain and returns the first hit, compressed for its
// target use. Returns nil without error when no strategy produced an image.
// A SkipArticle error from any strategy propagates immediately.
func (e *Extractor) Extract(ctx context.Context, url string, opts Options) (*Image, error) {
	page := &renderedPage{url: url, fetcher: e.fetcher}

	for _, s := range e.strategies {
		if !s.CanHandle(url) {
			continue
		}

		img, err := s.Extract(ctx, url, page, opts)
		if err != nil {
			if coreerrors.IsSkipArticle(err) {
				return nil, err
			}
			if e.logger != nil {
				e.logger.Warn("image strategy failed", map[string]interface{}{
					"strategy": s.Name(),
					"url":      url,
					"error":    err.Error(),
				})
			}
			continue
		}
		if img == nil {
			continue
		}

		compressed, err := Compress(img, opts.IsHeader)
		if err != nil {
			if e.logger != nil {
				e.logger.Warn("image compression failed", map[string]interface{}{
					"strategy": s.Name(),
					"url":      url,
					"error":    err.Error(),
				})
			}
			return img, nil
		}
		return compressed, nil
	}

	return nil, nil
}
