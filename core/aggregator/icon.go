// ABOUTME: Default feed icon collection from a site's favicon declarations
// ABOUTME: Compresses the icon and returns it as a data URI for the feed row

package aggregator

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"yana/core/fetch"
	"yana/core/images"
	"yana/core/interfaces"
)

// FetchRecorder throttles repeated icon lookups for the same site.
// The disk icon cache implements it.
type FetchRecorder interface {
	Fresh(url string) bool
	Put(url string) error
}

// IconService resolves a site's icon into a compressed data URI
type IconService struct {
	fetcher  *fetch.Fetcher
	recorder FetchRecorder
	logger   interfaces.Logger
}

func NewIconService(fetcher *fetch.Fetcher, recorder FetchRecorder, logger interfaces.Logger) *IconService {
	return &IconService{fetcher: fetcher, recorder: recorder, logger: logger}
}

// Collect finds the best icon for the site behind identifier.
// Returns an empty string when the site was tried recently or has no icon.
func (s *IconService) Collect(ctx context.Context, identifier string) (string, error) {
	root, err := siteRoot(identifier)
	if err != nil {
		return "", err
	}

	if s.recorder != nil && s.recorder.Fresh(root) {
		return "", nil
	}

	iconURL := s.discoverIconURL(ctx, root)
	if iconURL == "" {
		iconURL = root + "/favicon.ico"
	}

	data, contentType, err := s.fetcher.FetchBytes(ctx, iconURL, fetch.Options{})
	if err != nil {
		return "", err
	}

	compressed, err := images.Compress(&images.Image{Data: data, ContentType: contentType}, false)
	if err != nil {
		return "", err
	}

	if s.recorder != nil {
		if err := s.recorder.Put(root); err != nil {
			s.logger.Debug("icon cache record failed", map[string]interface{}{
				"url":   root,
				"error": err.Error(),
			})
		}
	}

	return compressed.DataURI(), nil
}

// discoverIconURL reads the site's <link rel=icon> declarations
func (s *IconService) discoverIconURL(ctx context.Context, root string) string {
	html, err := s.fetcher.FetchHTML(ctx, root, fetch.Options{})
	if err != nil {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	var iconURL string
	doc.Find(`link[rel="icon"], link[rel="shortcut icon"], link[rel="apple-touch-icon"]`).
		EachWithBreak(func(_ int, link *goquery.Selection) bool {
			if href, ok := link.Attr("href"); ok && href != "" {
				iconURL = href
				return false
			}
			return true
		})
	if iconURL == "" {
		return ""
	}

	base, err := url.Parse(root)
	if err != nil {
		return iconURL
	}
	resolved, err := base.Parse(iconURL)
	if err != nil {
		return iconURL
	}
	return resolved.String()
}

// siteRoot reduces an identifier to its scheme://host origin
func siteRoot(identifier string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(identifier))
	if err != nil {
		return "", err
	}
	if u.Scheme == "" {
		u, err = url.Parse("https://" + strings.TrimSpace(identifier))
		if err != nil {
			return "", err
		}
	}
	return u.Scheme + "://" + u.Host, nil
}
