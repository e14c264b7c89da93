// ABOUTME: Runner executes the fixed aggregation flow for one feed
// ABOUTME: Validate, quota, fetch, parse, filter, bounded enrich fan-out, persist

package aggregator

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"yana/core/content"
	"yana/core/domain"
	coreerrors "yana/core/errors"
	"yana/core/enrich"
	"yana/core/interfaces"
)

// articleConcurrency bounds the per-feed enrichment fan-out
const articleConcurrency = 4

// Runner drives aggregation runs across the registered kinds
type Runner struct {
	registry *Registry
	pipeline *enrich.Pipeline
	feeds    interfaces.FeedStore
	articles interfaces.ArticleStore
	icons    *IconService
	logger   interfaces.Logger
}

func NewRunner(
	registry *Registry,
	pipeline *enrich.Pipeline,
	feeds interfaces.FeedStore,
	articles interfaces.ArticleStore,
	icons *IconService,
	logger interfaces.Logger,
) *Runner {
	return &Runner{
		registry: registry,
		pipeline: pipeline,
		feeds:    feeds,
		articles: articles,
		icons:    icons,
		logger:   logger,
	}
}

// RunFeed executes one aggregation run. The returned report is always
// non-nil; the error is the terminal failure when Success is false.
func (r *Runner) RunFeed(ctx context.Context, feed *domain.Feed, forceRefresh bool) (*domain.RunReport, error) {
	report := &domain.RunReport{FeedID: feed.ID, StartedAt: time.Now().UTC()}

	source, err := r.registry.Get(feed.Kind)
	if err != nil {
		return r.fail(report, "unknown aggregator kind", err)
	}

	if err := source.Validate(ctx, feed); err != nil {
		return r.fail(report, "identifier validation failed", err)
	}

	limit, err := dailyLimit(ctx, r.articles, feed, forceRefresh, time.Now())
	if err != nil {
		return r.fail(report, "quota lookup failed", err)
	}
	if limit == 0 {
		report.Success = true
		report.Reason = "daily limit reached"
		report.FinishedAt = time.Now().UTC()
		return report, nil
	}

	data, err := source.FetchSource(ctx, feed, limit)
	if err != nil {
		return r.fail(report, "source fetch failed", err)
	}

	raw, err := source.Parse(ctx, feed, data)
	if err != nil {
		return r.fail(report, "source parse failed", err)
	}

	if f, ok := source.(Filterer); ok {
		raw = f.FilterArticles(feed, raw)
	} else {
		raw = applyFilters(feed, raw)
	}

	raw = dedupeByURL(raw)

	if len(raw) > limit {
		raw = raw[:limit]
	}

	cfg := r.enrichConfig(source, feed)
	r.enrichAndPersist(ctx, feed, source, raw, cfg, forceRefresh, report)

	if feed.Icon == "" {
		r.collectIcon(ctx, source, feed)
	}

	report.Success = true
	report.FinishedAt = time.Now().UTC()
	r.logger.Info("aggregation run finished", map[string]interface{}{
		"feed_id":      feed.ID,
		"kind":         string(feed.Kind),
		"inserted":     report.Inserted,
		"updated":      report.Updated,
		"skipped":      report.Skipped,
		"skip_article": report.SkipArticle,
		"errors":       report.Errors,
	})
	return report, nil
}

// enrichConfig assembles the per-feed enrichment settings from the kind
// descriptor, the feed options and any kind-specific overrides.
func (r *Runner) enrichConfig(source Source, feed *domain.Feed) enrich.Config {
	desc := source.Descriptor()

	selectors := append([]string{}, desc.SelectorsToRemove...)
	selectors = append(selectors, feed.Options.StringList(domain.OptExcludeSelectors)...)

	cfg := enrich.Config{
		UseBrowser:         desc.UseBrowser,
		WaitForSelector:    desc.WaitForSelector,
		GenerateTitleImage: feed.Options.Bool(domain.OptGenerateTitleImage, false),
		AddSourceFooter:    feed.Options.Bool(domain.OptAddSourceFooter, false),
		SelectorsToRemove:  selectors,
		InlineImages:       desc.InlineImages,
		Replacements: content.ParseReplacements(
			feed.Options.StringList(domain.OptRegexReplacements), r.logger),
	}

	if c, ok := source.(EnrichCustomizer); ok {
		c.CustomizeEnrich(feed, &cfg)
	}
	return cfg
}

// enrichAndPersist fans the surviving articles out across a bounded pool
// and persists each result through the dedup rules.
func (r *Runner) enrichAndPersist(
	ctx context.Context,
	feed *domain.Feed,
	source Source,
	raw []domain.RawArticle,
	cfg enrich.Config,
	forceRefresh bool,
	report *domain.RunReport,
) {
	sem := semaphore.NewWeighted(articleConcurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex

	saveOpts := interfaces.SaveOptions{
		ForceRefresh:        forceRefresh,
		SkipTitleDuplicates: feed.Options.Bool(domain.OptSkipDuplicates, true),
	}
	useCurrentTimestamp := feed.Options.Bool(domain.OptUseCurrentTimestamp, false)

	for i := range raw {
		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			report.Errors++
			mu.Unlock()
			break
		}
		wg.Add(1)

		go func(item domain.RawArticle) {
			defer wg.Done()
			defer sem.Release(1)

			article, err := r.enrichOne(ctx, feed, &item, cfg, useCurrentTimestamp)
			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				if coreerrors.IsSkipArticle(err) {
					report.SkipArticle++
					r.logger.Debug("article skipped", map[string]interface{}{
						"feed_id": feed.ID,
						"url":     item.URL,
						"error":   err.Error(),
					})
				} else {
					report.Errors++
					r.logger.Warn("article enrichment failed", map[string]interface{}{
						"feed_id": feed.ID,
						"url":     item.URL,
						"error":   err.Error(),
					})
				}
				return
			}

			res, err := r.articles.SaveArticle(ctx, article, saveOpts)
			if err != nil {
				report.Errors++
				r.logger.Warn("article persistence failed", map[string]interface{}{
					"feed_id": feed.ID,
					"url":     item.URL,
					"error":   err.Error(),
				})
				return
			}

			switch res.Action {
			case interfaces.SaveInserted:
				report.Inserted++
			case interfaces.SaveUpdated:
				report.Updated++
			case interfaces.SaveSkipped:
				report.Skipped++
			}
		}(raw[i])
	}

	wg.Wait()
}

// enrichOne runs the pipeline for one raw article and maps it to the
// persisted article shape.
func (r *Runner) enrichOne(
	ctx context.Context,
	feed *domain.Feed,
	item *domain.RawArticle,
	cfg enrich.Config,
	useCurrentTimestamp bool,
) (*domain.Article, error) {
	result, err := r.pipeline.Run(ctx, item, cfg)
	if err != nil {
		return nil, err
	}

	var body string
	if result != nil {
		body = result.Content
	} else {
		// no content fetch wanted; the summary still gets the envelope
		body, err = r.pipeline.ProcessSummary(ctx, item, cfg)
		if err != nil {
			return nil, err
		}
	}

	date := item.Published
	if useCurrentTimestamp || date.IsZero() {
		date = time.Now().UTC()
	}

	return &domain.Article{
		FeedID:       feed.ID,
		URL:          item.URL,
		Name:         item.Title,
		Content:      body,
		Date:         date,
		Author:       item.Author,
		ExternalID:   item.ExternalID,
		ThumbnailURL: item.ThumbnailURL,
		MediaURL:     item.MediaURL,
		MediaType:    item.MediaType,
	}, nil
}

// dedupeByURL drops later batch items whose URL normalizes to one already
// seen, so concurrent enrichments never race on the same dedup key.
// Items without a URL are all kept.
func dedupeByURL(raw []domain.RawArticle) []domain.RawArticle {
	seen := make(map[string]bool, len(raw))
	out := raw[:0]
	for _, item := range raw {
		if item.URL != "" {
			key := domain.NormalizeURL(item.URL)
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		out = append(out, item)
	}
	return out
}

func (r *Runner) collectIcon(ctx context.Context, source Source, feed *domain.Feed) {
	var icon string
	var err error

	if c, ok := source.(IconCollector); ok {
		icon, err = c.CollectIcon(ctx, feed)
	} else if r.icons != nil {
		icon, err = r.icons.Collect(ctx, feed.Identifier)
	}
	if err != nil || icon == "" {
		if err != nil {
			r.logger.Debug("feed icon collection failed", map[string]interface{}{
				"feed_id": feed.ID,
				"error":   err.Error(),
			})
		}
		return
	}

	if err := r.feeds.SetFeedIcon(ctx, feed.ID, icon); err != nil {
		r.logger.Warn("feed icon persistence failed", map[string]interface{}{
			"feed_id": feed.ID,
			"error":   err.Error(),
		})
	}
}

func (r *Runner) fail(report *domain.RunReport, reason string, err error) (*domain.RunReport, error) {
	report.Success = false
	report.Reason = reason
	report.FinishedAt = time.Now().UTC()
	r.logger.Error("aggregation run failed", map[string]interface{}{
		"feed_id": report.FeedID,
		"reason":  reason,
		"error":   err.Error(),
	})
	return report, err
}
