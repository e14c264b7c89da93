// ABOUTME: Platform embed headers for YouTube videos and Reddit posts
// ABOUTME: Builds iframe header blocks and removes duplicate links from the body

package content

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"yana/core/images"
)

// embedKind tags which platform header was inserted
type embedKind int

const (
	embedNone embedKind = iota
	embedYouTube
	embedReddit
)

// isRedditEmbedURL reports whether the URL is a Reddit embed source
// (vxreddit mirror or an explicit reddit.com/embed link)
func isRedditEmbedURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")
	if host == "vxreddit.com" {
		return true
	}
	return strings.HasSuffix(host, "reddit.com") && strings.Contains(u.Path, "/embed")
}

// redditPostURL maps a vxreddit or embed URL back to the canonical post URL
func redditPostURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.Host = "reddit.com"
	u.Path = strings.TrimSuffix(u.Path, "/embed")
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

// redditEmbedSrc builds the iframe source for a Reddit post
func redditEmbedSrc(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.Scheme = "https"
	u.Host = "www.redditmedia.com"
	u.Path = strings.TrimSuffix(u.Path, "/embed")
	u.RawQuery = "embed=true"
	return u.String()
}

// youtubeEmbedHeader renders the responsive 16:9 YouTube header block
func youtubeEmbedHeader(videoID string) string {
	return fmt.Sprintf(
		`<header><div style="position:relative; padding-bottom:56.25%%; height:0; overflow:hidden">`+
			`<iframe src="https://www.youtube.com/embed/%s" `+
			`style="position:absolute; top:0; left:0; width:100%%; height:100%%" `+
			`frameborder="0" allowfullscreen></iframe></div></header>`, videoID)
}

// redditEmbedHeader renders the Reddit iframe header block
func redditEmbedHeader(embedSrc string) string {
	return fmt.Sprintf(
		`<header><div style="position:relative; padding-bottom:56.25%%; height:0; overflow:hidden">`+
			`<iframe src="%s" `+
			`style="position:absolute; top:0; left:0; width:100%%; height:100%%" `+
			`frameborder="0" allowfullscreen></iframe></div></header>`, embedSrc)
}

// imageHeader renders the standard header image block
func imageHeader(dataURI string) string {
	return fmt.Sprintf(
		`<header><p><img src="%s" alt="Article image" style="max-width:100%%; height:auto"></p></header>`,
		dataURI)
}

// removeYouTubeDuplicates drops every body anchor pointing at the same video
func removeYouTubeDuplicates(body *goquery.Selection, videoID string) {
	body.Find("a").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		if images.YouTubeVideoID(href) == videoID {
			parent := a.Parent()
			a.Remove()
			collapseEmptyAncestors(parent)
		}
	})
}

// removeRedditDuplicates drops v.redd.it links, "View video" links to the
// post, and reddit preview images that are video thumbnails
func removeRedditDuplicates(body *goquery.Selection, postURL string) {
	normalizedPost := normalizeForCompare(postURL)

	body.Find("a").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok {
			return
		}

		if isVRedditLink(href) {
			parent := a.Parent()
			a.Remove()
			collapseEmptyAncestors(parent)
			return
		}

		text := strings.ToLower(strings.TrimSpace(a.Text()))
		if text == "view video" && normalizeForCompare(href) == normalizedPost {
			parent := a.Parent()
			a.Remove()
			collapseEmptyAncestors(parent)
		}
	})

	body.Find("img").Each(func(_ int, img *goquery.Selection) {
		src, ok := img.Attr("src")
		if !ok || !isRedditPreviewHost(src) {
			return
		}

		alt, _ := img.Attr("alt")
		parentText := strings.ToLower(img.Parent().Text())
		if strings.Contains(strings.ToLower(alt), "video") || strings.Contains(parentText, "video") {
			parent := img.Parent()
			img.Remove()
			collapseEmptyAncestors(parent)
		}
	})
}

func isVRedditLink(href string) bool {
	u, err := url.Parse(href)
	if err != nil {
		return false
	}
	return strings.TrimPrefix(u.Hostname(), "www.") == "v.redd.it"
}

func isRedditPreviewHost(src string) bool {
	u, err := url.Parse(src)
	if err != nil {
		return false
	}
	switch u.Hostname() {
	case "preview.redd.it", "i.redd.it", "external-preview.redd.it":
		return true
	}
	return false
}

// normalizeForCompare lowers the URL and drops trailing slash, query and
// fragment so link-to-post comparisons tolerate formatting differences
func normalizeForCompare(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return strings.ToLower(strings.TrimRight(rawURL, "/"))
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.Host = strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	return strings.ToLower(strings.TrimRight(u.String(), "/"))
}

// collapseEmptyAncestors removes parents that became empty after a removal,
// walking up to but not including <body> and <html>
func collapseEmptyAncestors(sel *goquery.Selection) {
	for sel.Length() > 0 {
		node := sel.Get(0)
		if node.Data == "body" || node.Data == "html" {
			return
		}
		if strings.TrimSpace(sel.Text()) != "" || sel.Find("img, iframe, video, svg, embed").Length() > 0 {
			return
		}
		parent := sel.Parent()
		sel.Remove()
		sel = parent
	}
}
