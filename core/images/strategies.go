// ABOUTME: The six image extraction strategies in their fixed evaluation order
// ABOUTME: Direct image, YouTube thumbnail, Twitter, meta tags, inline SVG, page images

package images

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	coreerrors "yana/core/errors"
	"yana/core/fetch"
)

// imageExtensions are the path suffixes the direct strategy accepts
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
	".svg":  true,
}

// minPageImageBytes filters out spacer gifs and tracking pixels
const minPageImageBytes = 10 * 1024

// directImageStrategy fetches URLs that already point at an image file
type directImageStrategy struct {
	fetcher *fetch.Fetcher
}

func (s *directImageStrategy) Name() string { return "direct_image" }

func (s *directImageStrategy) CanHandle(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return imageExtensions[strings.ToLower(path.Ext(u.Path))]
}

func (s *directImageStrategy) Extract(ctx context.Context, pageURL string, _ *renderedPage, _ Options) (*Image, error) {
	data, contentType, err := s.fetcher.FetchBytes(ctx, pageURL, fetch.Options{})
	if err != nil {
		return nil, err
	}

	if contentType == "" || !strings.HasPrefix(contentType, "image/") {
		contentType = contentTypeFromExt(pageURL)
	}

	return &Image{Data: data, ContentType: contentType}, nil
}

// contentTypeFromExt guesses the MIME type from the URL path
func contentTypeFromExt(rawURL string) string {
	u, err := url.Parse(rawURL)
	ext := ""
	if err == nil {
		ext = strings.ToLower(path.Ext(u.Path))
	}
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".bmp":
		return "image/bmp"
	case ".svg":
		return "image/svg+xml"
	default:
		return "application/octet-stream"
	}
}

// youtubeVideoID matches the video id in watch, shorts, embed and short-link URLs
var youtubeVideoID = regexp.MustCompile(`(?:v=|youtu\.be/|/shorts/|/embed/)([A-Za-z0-9_-]{11})`)

// YouTubeVideoID extracts the 11-character video id, or "" when absent
func YouTubeVideoID(rawURL string) string {
	m := youtubeVideoID.FindStringSubmatch(rawURL)
	if len(m) == 2 {
		return m[1]
	}
	return ""
}

// youtubeThumbnailStrategy resolves YouTube URLs to their thumbnail images
type youtubeThumbnailStrategy struct {
	fetcher *fetch.Fetcher
}

func (s *youtubeThumbnailStrategy) Name() string { return "youtube_thumbnail" }

func (s *youtubeThumbnailStrategy) CanHandle(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")
	return host == "youtube.com" || host == "youtu.be" || host == "m.youtube.com"
}

func (s *youtubeThumbnailStrategy) Extract(ctx context.Context, pageURL string, _ *renderedPage, _ Options) (*Image, error) {
	id := YouTubeVideoID(pageURL)
	if id == "" {
		return nil, nil
	}

	// maxresdefault is not generated for every video; degrade gracefully
	for _, name := range []string{"maxresdefault", "hqdefault"} {
		thumbURL := fmt.Sprintf("https://i.ytimg.com/vi/%s/%s.jpg", id, name)
		data, contentType, err := s.fetcher.FetchBytes(ctx, thumbURL, fetch.Options{})
		if err != nil {
			continue
		}
		if contentType == "" {
			contentType = "image/jpeg"
		}
		return &Image{Data: data, ContentType: contentType}, nil
	}

	return nil, nil
}

// twitterStrategy looks up card images for tweet URLs
type twitterStrategy struct {
	fetcher *fetch.Fetcher
}

func (s *twitterStrategy) Name() string { return "twitter" }

func (s *twitterStrategy) CanHandle(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")
	return host == "twitter.com" || host == "x.com"
}

func (s *twitterStrategy) Extract(ctx context.Context, pageURL string, page *renderedPage, _ Options) (*Image, error) {
	doc, err := page.document(ctx)
	if err != nil {
		return nil, err
	}

	src, ok := doc.Find(`meta[property="og:image"]`).First().Attr("content")
	if !ok {
		src, ok = doc.Find(`meta[name="twitter:image"]`).First().Attr("content")
	}
	if !ok || src == "" {
		return nil, nil
	}

	data, contentType, err := s.fetcher.FetchBytes(ctx, src, fetch.Options{})
	if err != nil {
		return nil, err
	}
	return &Image{Data: data, ContentType: contentType}, nil
}

// metaTagStrategy reads og:image then twitter:image from the rendered DOM
type metaTagStrategy struct {
	fetcher *fetch.Fetcher
}

func (s *metaTagStrategy) Name() string { return "meta_tags" }

func (s *metaTagStrategy) CanHandle(string) bool { return true }

func (s *metaTagStrategy) Extract(ctx context.Context, pageURL string, page *renderedPage, _ Options) (*Image, error) {
	doc, err := page.document(ctx)
	if err != nil {
		return nil, err
	}

	var src string
	if v, ok := doc.Find(`meta[property="og:image"]`).First().Attr("content"); ok && v != "" {
		src = v
	} else if v, ok := doc.Find(`meta[name="twitter:image"]`).First().Attr("content"); ok && v != "" {
		src = v
	}
	if src == "" {
		return nil, nil
	}

	resolved := resolveURL(pageURL, src)
	data, contentType, err := s.fetcher.FetchBytes(ctx, resolved, fetch.Options{})
	if err != nil {
		return nil, err
	}
	return &Image{Data: data, ContentType: contentType}, nil
}

// inlineSVGStrategy serializes the first meaningful inline <svg>
type inlineSVGStrategy struct{}

func (s *inlineSVGStrategy) Name() string { return "inline_svg" }

func (s *inlineSVGStrategy) CanHandle(string) bool { return true }

func (s *inlineSVGStrategy) Extract(ctx context.Context, pageURL string, page *renderedPage, _ Options) (*Image, error) {
	doc, err := page.document(ctx)
	if err != nil {
		return nil, err
	}

	var markup string
	doc.Find("svg").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		html, err := goquery.OuterHtml(sel)
		if err != nil {
			return true
		}
		// Icon-sized sprites are not a header image
		if len(html) < 512 || sel.Children().Length() == 0 {
			return true
		}
		markup = html
		return false
	})

	if markup == "" {
		return nil, nil
	}

	return &Image{Data: []byte(markup), ContentType: "image/svg+xml"}, nil
}

// pageImageStrategy takes the first in-page <img> above the size threshold
type pageImageStrategy struct {
	fetcher *fetch.Fetcher
}

func (s *pageImageStrategy) Name() string { return "page_images" }

func (s *pageImageStrategy) CanHandle(string) bool { return true }

func (s *pageImageStrategy) Extract(ctx context.Context, pageURL string, page *renderedPage, _ Options) (*Image, error) {
	doc, err := page.document(ctx)
	if err != nil {
		return nil, err
	}

	var result *Image
	var strategyErr error
	doc.Find("img").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		src, ok := sel.Attr("src")
		if !ok || src == "" || strings.HasPrefix(src, "data:") {
			return true
		}

		resolved := resolveURL(pageURL, src)
		data, contentType, err := s.fetcher.FetchBytes(ctx, resolved, fetch.Options{})
		if err != nil {
			if coreerrors.IsSkipArticle(err) {
				strategyErr = err
				return false
			}
			return true
		}
		if len(data) < minPageImageBytes {
			return true
		}

		result = &Image{Data: data, ContentType: contentType}
		return false
	})

	if strategyErr != nil {
		return nil, strategyErr
	}
	return result, nil
}

// resolveURL resolves a possibly-relative reference against the page URL
func resolveURL(pageURL, ref string) string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return ref
	}
	parsed, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(parsed).String()
}
