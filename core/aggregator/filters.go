// ABOUTME: Default article filters driven by the ignore_* feed options
// ABOUTME: Case-insensitive substring matching over title and summary

package aggregator

import (
	"strings"

	"yana/core/domain"
)

// applyFilters drops raw articles matching the feed's ignore options.
// ignore_title_contains matches the title only; ignore_content_contains
// matches title and summary.
func applyFilters(feed *domain.Feed, articles []domain.RawArticle) []domain.RawArticle {
	titleTerms := lowerAll(feed.Options.StringList(domain.OptIgnoreTitleContains))
	contentTerms := lowerAll(feed.Options.StringList(domain.OptIgnoreContentContains))

	if len(titleTerms) == 0 && len(contentTerms) == 0 {
		return articles
	}

	kept := articles[:0]
	for _, a := range articles {
		title := strings.ToLower(a.Title)
		summary := strings.ToLower(a.Summary)

		if containsAny(title, titleTerms) {
			continue
		}
		if containsAny(title, contentTerms) || containsAny(summary, contentTerms) {
			continue
		}
		kept = append(kept, a)
	}
	return kept
}

func containsAny(haystack string, terms []string) bool {
	for _, t := range terms {
		if t != "" && strings.Contains(haystack, t) {
			return true
		}
	}
	return false
}

func lowerAll(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
