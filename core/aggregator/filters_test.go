package aggregator

import (
	"testing"

	"yana/core/domain"
)

func TestApplyFilters(t *testing.T) {
	articles := []domain.RawArticle{
		{Title: "Breaking News", Summary: "something happened"},
		{Title: "SPONSORED: buy stuff", Summary: "ad"},
		{Title: "Weekly roundup", Summary: "includes a Giveaway for readers"},
		{Title: "Plain article", Summary: "plain text"},
	}

	feed := &domain.Feed{Options: domain.Options{
		domain.OptIgnoreTitleContains:   "sponsored",
		domain.OptIgnoreContentContains: "giveaway",
	}}

	got := applyFilters(feed, articles)

	if len(got) != 2 {
		t.Fatalf("kept %d articles, want 2", len(got))
	}
	if got[0].Title != "Breaking News" || got[1].Title != "Plain article" {
		t.Errorf("kept wrong articles: %v, %v", got[0].Title, got[1].Title)
	}
}

func TestApplyFilters_TitleTermMatchesTitleOnly(t *testing.T) {
	articles := []domain.RawArticle{
		{Title: "Normal title", Summary: "mentions sponsored content in body"},
	}
	feed := &domain.Feed{Options: domain.Options{
		domain.OptIgnoreTitleContains: "sponsored",
	}}

	got := applyFilters(feed, articles)

	if len(got) != 1 {
		t.Errorf("title filter must not match the summary, kept %d", len(got))
	}
}

func TestApplyFilters_ContentTermMatchesTitleToo(t *testing.T) {
	articles := []domain.RawArticle{
		{Title: "Giveaway inside", Summary: "text"},
	}
	feed := &domain.Feed{Options: domain.Options{
		domain.OptIgnoreContentContains: "giveaway",
	}}

	got := applyFilters(feed, articles)

	if len(got) != 0 {
		t.Errorf("content filter must match the title, kept %d", len(got))
	}
}

func TestApplyFilters_MultilineOptionList(t *testing.T) {
	articles := []domain.RawArticle{
		{Title: "keep me"},
		{Title: "drop alpha now"},
		{Title: "drop beta now"},
	}
	feed := &domain.Feed{Options: domain.Options{
		domain.OptIgnoreTitleContains: "alpha\nbeta",
	}}

	got := applyFilters(feed, articles)

	if len(got) != 1 || got[0].Title != "keep me" {
		t.Errorf("kept %v", got)
	}
}

func TestApplyFilters_NoTermsKeepsAll(t *testing.T) {
	articles := []domain.RawArticle{{Title: "a"}, {Title: "b"}}
	feed := &domain.Feed{Options: domain.Options{}}

	got := applyFilters(feed, articles)

	if len(got) != 2 {
		t.Errorf("kept %d, want 2", len(got))
	}
}
