// ABOUTME: Daily-quota distributor spreading fetches across remaining runs
// ABOUTME: Pure arithmetic over insertion counts and UTC midnight boundaries

package aggregator

import (
	"context"
	"math"
	"time"

	"yana/core/domain"
	"yana/core/interfaces"
)

// unlimitedRunCap bounds one run when no daily limit is configured
const unlimitedRunCap = 100

// dailyLimit computes how many articles this run may ingest for the feed.
// limit -1 means unlimited (capped per run), 0 disables the feed's intake,
// and positive limits are spread evenly across the runs expected before the
// next UTC midnight.
func dailyLimit(ctx context.Context, store interfaces.ArticleStore, feed *domain.Feed, forceRefresh bool, now time.Time) (int, error) {
	limit := feed.Options.DailyPostLimit()

	switch {
	case limit == -1:
		return unlimitedRunCap, nil
	case limit == 0:
		return 0, nil
	case forceRefresh:
		return limit, nil
	}

	now = now.UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	postsToday, err := store.CountInsertedSince(ctx, feed.ID, midnight)
	if err != nil {
		return 0, err
	}

	remainingQuota := limit - postsToday
	if remainingQuota <= 0 {
		return 0, nil
	}

	secsUntilMidnight := midnight.Add(24 * time.Hour).Sub(now).Seconds()

	var sinceLastPost float64
	if last, ok, err := store.LastInsertedAt(ctx, feed.ID, midnight); err != nil {
		return 0, err
	} else if ok {
		sinceLastPost = now.Sub(last).Seconds()
	} else {
		// no posts yet today: assume the cadence seen since midnight
		sinceLastPost = now.Sub(midnight).Seconds()
	}
	if sinceLastPost < 1 {
		sinceLastPost = 1
	}

	remainingRuns := math.Ceil(secsUntilMidnight / sinceLastPost)
	if remainingRuns < 1 {
		remainingRuns = 1
	}

	perRun := int(math.Ceil(float64(remainingQuota) / remainingRuns))
	if perRun < 1 {
		perRun = 1
	}
	return perRun, nil
}
