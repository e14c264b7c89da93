// ABOUTME: Cron-driven aggregation loop with a bounded process-wide pool
// ABOUTME: Per-feed mutexes forbid overlapping runs; maintenance sweeps daily

package scheduler

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/semaphore"

	"yana/core/domain"
	"yana/core/interfaces"
)

// DefaultRunTimeout bounds one feed's aggregation run
const DefaultRunTimeout = 10 * time.Minute

// FeedRunner executes one aggregation run; satisfied by aggregator.Runner
type FeedRunner interface {
	RunFeed(ctx context.Context, feed *domain.Feed, forceRefresh bool) (*domain.RunReport, error)
}

// IconSweeper evicts stale icon cache entries
type IconSweeper interface {
	Sweep() error
}

// Scheduler drives periodic aggregation and maintenance
type Scheduler struct {
	runner FeedRunner
	feeds  interfaces.FeedStore
	tokens interfaces.TokenStore
	icons  IconSweeper
	logger interfaces.Logger

	cron       *cron.Cron
	pool       *semaphore.Weighted
	runTimeout time.Duration

	mu      sync.Mutex
	running map[int64]bool
}

func New(
	runner FeedRunner,
	feeds interfaces.FeedStore,
	tokens interfaces.TokenStore,
	icons IconSweeper,
	logger interfaces.Logger,
) *Scheduler {
	return &Scheduler{
		runner:     runner,
		feeds:      feeds,
		tokens:     tokens,
		icons:      icons,
		logger:     logger,
		cron:       cron.New(),
		pool:       semaphore.NewWeighted(int64(2 * runtime.NumCPU())),
		runTimeout: DefaultRunTimeout,
		running:    make(map[int64]bool),
	}
}

// Start schedules the refresh loop every intervalSeconds plus a daily
// maintenance sweep, then starts the cron runner.
func (s *Scheduler) Start(intervalSeconds int) error {
	spec := fmt.Sprintf("@every %ds", intervalSeconds)
	if _, err := s.cron.AddFunc(spec, func() { s.RunAll(context.Background()) }); err != nil {
		return fmt.Errorf("failed to schedule refresh: %w", err)
	}
	if _, err := s.cron.AddFunc("@daily", func() { s.Sweep(context.Background()) }); err != nil {
		return fmt.Errorf("failed to schedule sweep: %w", err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", map[string]interface{}{
		"interval_seconds": intervalSeconds,
	})
	return nil
}

// Stop halts the cron runner and waits for scheduled jobs to return
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunAll runs every enabled feed through the bounded pool and waits for
// the batch to finish.
func (s *Scheduler) RunAll(ctx context.Context) {
	feeds, err := s.feeds.ListEnabledFeeds(ctx)
	if err != nil {
		s.logger.Error("failed to list feeds for refresh", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	var wg sync.WaitGroup
	for i := range feeds {
		if err := s.pool.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)

		go func(feed domain.Feed) {
			defer wg.Done()
			defer s.pool.Release(1)
			s.runOne(ctx, &feed, false)
		}(feeds[i])
	}
	wg.Wait()
}

// RunFeedByID runs a single feed on demand, bypassing the schedule but not
// the per-feed mutex. forceRefresh is passed through to the runner.
func (s *Scheduler) RunFeedByID(ctx context.Context, feedID int64, forceRefresh bool) (*domain.RunReport, error) {
	feed, err := s.feeds.GetFeed(ctx, feedID)
	if err != nil {
		return nil, err
	}
	if feed == nil {
		return nil, fmt.Errorf("feed %d not found", feedID)
	}
	return s.runOne(ctx, feed, forceRefresh)
}

// runOne executes a feed run under the per-feed mutex with a deadline.
// A feed already mid-run is skipped, never queued.
func (s *Scheduler) runOne(ctx context.Context, feed *domain.Feed, forceRefresh bool) (*domain.RunReport, error) {
	if !s.tryLock(feed.ID) {
		s.logger.Debug("feed run already in progress", map[string]interface{}{
			"feed_id": feed.ID,
		})
		return nil, nil
	}
	defer s.unlock(feed.ID)

	runCtx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	report, err := s.runner.RunFeed(runCtx, feed, forceRefresh)
	if err != nil {
		s.logger.Warn("scheduled feed run failed", map[string]interface{}{
			"feed_id": feed.ID,
			"error":   err.Error(),
		})
	}
	return report, err
}

// Sweep runs the periodic maintenance tasks
func (s *Scheduler) Sweep(ctx context.Context) {
	if s.tokens != nil {
		if err := s.tokens.DeleteExpired(ctx); err != nil {
			s.logger.Warn("token sweep failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
	if s.icons != nil {
		if err := s.icons.Sweep(); err != nil {
			s.logger.Warn("icon cache sweep failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
}

func (s *Scheduler) tryLock(feedID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running[feedID] {
		return false
	}
	s.running[feedID] = true
	return true
}

func (s *Scheduler) unlock(feedID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.running, feedID)
}
