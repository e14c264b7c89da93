package aggregator

import (
	"context"
	"strings"
	"sync"
	"testing"

	"yana/core/domain"
	"yana/core/enrich"
	coreerrors "yana/core/errors"
	"yana/core/fetch"
	"yana/core/interfaces"
)

// recordingLogger captures info messages for assertions
type recordingLogger struct {
	mu    sync.Mutex
	infos []string
}

func (l *recordingLogger) Debug(string, map[string]interface{}) {}
func (l *recordingLogger) Info(msg string, _ map[string]interface{}) {
	l.mu.Lock()
	l.infos = append(l.infos, msg)
	l.mu.Unlock()
}
func (l *recordingLogger) Warn(string, map[string]interface{})  {}
func (l *recordingLogger) Error(string, map[string]interface{}) {}

func (l *recordingLogger) hasInfo(msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.infos {
		if m == msg {
			return true
		}
	}
	return false
}

func meinMMOPage(body string) *mockResponse {
	return &mockResponse{statusCode: 200, body: body, contentType: "text/html"}
}

// guidePages serves a three-page article with a WordPress pagination block
func guidePages() map[string]*mockResponse {
	return map[string]*mockResponse{
		"https://mein-mmo.de/guide/": meinMMOPage(`<html><body>` +
			`<div class="entry-content"><p>page one</p></div>` +
			`<div class="page-links"><span class="post-page-numbers current">1</span>` +
			`<a class="post-page-numbers" href="https://mein-mmo.de/guide/2/">2</a>` +
			`<a class="post-page-numbers" href="https://mein-mmo.de/guide/3/">3</a></div>` +
			`</body></html>`),
		"https://mein-mmo.de/guide/2/": meinMMOPage(
			`<html><body><div class="entry-content"><p>page two</p></div></body></html>`),
		"https://mein-mmo.de/guide/3/": meinMMOPage(
			`<html><body><div class="entry-content"><p>page three</p></div></body></html>`),
	}
}

func newTestMeinMMO(responses map[string]*mockResponse, logger interfaces.Logger) *meinMMOSource {
	f := fetch.NewFetcher(interfaces.Dependencies{
		HTTPClient: &mockHTTPClient{responses: responses},
		Logger:     nopLogger{},
	})
	return newMeinMMOSource(f, logger)
}

func meinMMOEnrich(src *meinMMOSource, opts domain.Options) enrich.Config {
	feed := &domain.Feed{ID: 1, Kind: domain.KindMeinMMO, Identifier: meinMMOFeedURL, Options: opts}
	var cfg enrich.Config
	src.CustomizeEnrich(feed, &cfg)
	return cfg
}

func TestMeinMMO_TraversesAllPagesInOrder(t *testing.T) {
	src := newTestMeinMMO(guidePages(), nopLogger{})
	cfg := meinMMOEnrich(src, domain.Options{})

	a := &domain.RawArticle{URL: "https://mein-mmo.de/guide/", Tags: map[string]bool{}}
	out, err := cfg.FetchContent(context.Background(), a)
	if err != nil {
		t.Fatalf("FetchContent: %v", err)
	}

	block, err := cfg.Extract(out, a)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	one := strings.Index(block, "page one")
	two := strings.Index(block, "page two")
	three := strings.Index(block, "page three")
	if one < 0 || two < 0 || three < 0 {
		t.Fatalf("missing pages in %q", block)
	}
	if !(one < two && two < three) {
		t.Errorf("pages out of pagination order: %d %d %d", one, two, three)
	}
	if !a.Tags[domain.TagMultiPage] {
		t.Errorf("multi-page tag not set")
	}
}

func TestMeinMMO_DisabledTraversalKeepsFirstPage(t *testing.T) {
	logger := &recordingLogger{}
	src := newTestMeinMMO(guidePages(), logger)
	cfg := meinMMOEnrich(src, domain.Options{domain.OptTraverseMultipage: false})

	a := &domain.RawArticle{URL: "https://mein-mmo.de/guide/", Tags: map[string]bool{}}
	out, err := cfg.FetchContent(context.Background(), a)
	if err != nil {
		t.Fatalf("FetchContent: %v", err)
	}

	if !strings.Contains(out, "page one") {
		t.Errorf("first page missing: %q", out)
	}
	if strings.Contains(out, "page two") {
		t.Errorf("later page fetched despite disabled traversal: %q", out)
	}
	if !logger.hasInfo("multi-page article detected but traversal is disabled") {
		t.Errorf("informational log missing, got %v", logger.infos)
	}
	if !a.Tags[domain.TagMultiPage] {
		t.Errorf("multi-page tag not set")
	}
}

func TestMeinMMO_SinglePageArticleUnchanged(t *testing.T) {
	responses := map[string]*mockResponse{
		"https://mein-mmo.de/news/": meinMMOPage(
			`<html><body><div class="entry-content"><p>only page</p></div></body></html>`),
	}
	src := newTestMeinMMO(responses, nopLogger{})
	cfg := meinMMOEnrich(src, domain.Options{})

	a := &domain.RawArticle{URL: "https://mein-mmo.de/news/", Tags: map[string]bool{}}
	out, err := cfg.FetchContent(context.Background(), a)
	if err != nil {
		t.Fatalf("FetchContent: %v", err)
	}

	if !strings.Contains(out, "only page") {
		t.Errorf("page content missing: %q", out)
	}
	if a.Tags[domain.TagMultiPage] {
		t.Errorf("multi-page tag set on a single-page article")
	}
}

func TestMeinMMO_MissingPagePropagatesSkip(t *testing.T) {
	responses := guidePages()
	delete(responses, "https://mein-mmo.de/guide/3/")
	src := newTestMeinMMO(responses, nopLogger{})
	cfg := meinMMOEnrich(src, domain.Options{})

	a := &domain.RawArticle{URL: "https://mein-mmo.de/guide/", Tags: map[string]bool{}}
	_, err := cfg.FetchContent(context.Background(), a)

	if !coreerrors.IsSkipArticle(err) {
		t.Errorf("expected SkipArticle for a 404 page, got %v", err)
	}
}
