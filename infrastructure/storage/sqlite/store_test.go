package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"yana/core/domain"
	"yana/core/interfaces"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func createTestUser(t *testing.T, store *Store, name string) *domain.User {
	t.Helper()
	user := &domain.User{Name: name, Password: "hashed"}
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return user
}

func createTestFeed(t *testing.T, store *Store, name string, userID *int64) *domain.Feed {
	t.Helper()
	feed := &domain.Feed{
		UserID:     userID,
		Kind:       domain.KindFeedContent,
		Identifier: "https://example.com/feed.xml",
		Name:       name,
		Enabled:    true,
		Options:    domain.Options{},
	}
	if err := store.CreateFeed(context.Background(), feed); err != nil {
		t.Fatalf("CreateFeed: %v", err)
	}
	return feed
}

func testArticle(feedID int64, url, name string) *domain.Article {
	return &domain.Article{
		FeedID:  feedID,
		URL:     url,
		Name:    name,
		Content: "<article><section><p>" + name + "</p></section></article>",
		Date:    time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC),
	}
}

func TestFeedRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	user := createTestUser(t, store, "alice")

	feed := &domain.Feed{
		UserID:     &user.ID,
		Kind:       domain.KindReddit,
		Identifier: "golang",
		Name:       "r/golang",
		Enabled:    true,
		Options: domain.Options{
			domain.OptDailyPostLimit: 5,
			domain.OptSkipDuplicates: true,
		},
	}
	if err := store.CreateFeed(ctx, feed); err != nil {
		t.Fatalf("CreateFeed: %v", err)
	}

	got, err := store.GetFeed(ctx, feed.ID)
	if err != nil {
		t.Fatalf("GetFeed: %v", err)
	}
	if got.Kind != domain.KindReddit || got.Identifier != "golang" || !got.Enabled {
		t.Errorf("feed = %+v", got)
	}
	if got.UserID == nil || *got.UserID != user.ID {
		t.Errorf("owner not preserved: %v", got.UserID)
	}
	if got.Options.DailyPostLimit() != 5 {
		t.Errorf("options not preserved: %v", got.Options)
	}
	if !got.Options.Bool(domain.OptSkipDuplicates, false) {
		t.Errorf("bool option not preserved: %v", got.Options)
	}
}

func TestListFeedsForUser_IncludesShared(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	alice := createTestUser(t, store, "alice")
	bob := createTestUser(t, store, "bob")

	createTestFeed(t, store, "alice's", &alice.ID)
	createTestFeed(t, store, "bob's", &bob.ID)
	createTestFeed(t, store, "shared", nil)

	feeds, err := store.ListFeedsForUser(ctx, alice.ID)
	if err != nil {
		t.Fatalf("ListFeedsForUser: %v", err)
	}
	if len(feeds) != 2 {
		t.Fatalf("got %d feeds, want own plus shared", len(feeds))
	}
	for _, f := range feeds {
		if f.Name == "bob's" {
			t.Errorf("another user's feed leaked: %+v", f)
		}
	}
}

func TestSaveArticle_InsertThenURLDupUpdates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	feed := createTestFeed(t, store, "feed", nil)

	first := testArticle(feed.ID, "https://example.com/post/", "Post")
	res, err := store.SaveArticle(ctx, first, interfaces.SaveOptions{SkipTitleDuplicates: true})
	if err != nil {
		t.Fatalf("SaveArticle: %v", err)
	}
	if res.Action != interfaces.SaveInserted {
		t.Fatalf("first save action = %v", res.Action)
	}

	// same URL modulo query and trailing slash is a duplicate
	second := testArticle(feed.ID, "https://example.com/post?utm_source=x", "Post")
	second.Content = "<article><section><p>updated</p></section></article>"
	res, err = store.SaveArticle(ctx, second, interfaces.SaveOptions{SkipTitleDuplicates: true})
	if err != nil {
		t.Fatalf("SaveArticle: %v", err)
	}
	if res.Action != interfaces.SaveUpdated {
		t.Fatalf("second save action = %v, want update", res.Action)
	}
	if res.ArticleID != first.ID {
		t.Errorf("update changed the id: %d != %d", res.ArticleID, first.ID)
	}

	got, err := store.GetArticle(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetArticle: %v", err)
	}
	if got.Content != second.Content {
		t.Errorf("content not refreshed: %q", got.Content)
	}
	if got.CreatedAt.IsZero() {
		t.Errorf("created_at lost on update")
	}
}

func TestSaveArticle_ReadURLDupSkipped(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	user := createTestUser(t, store, "alice")
	feed := createTestFeed(t, store, "feed", &user.ID)

	article := testArticle(feed.ID, "https://example.com/post", "Post")
	if _, err := store.SaveArticle(ctx, article, interfaces.SaveOptions{}); err != nil {
		t.Fatalf("SaveArticle: %v", err)
	}
	if err := store.SetRead(ctx, user.ID, article.ID, true); err != nil {
		t.Fatalf("SetRead: %v", err)
	}

	res, err := store.SaveArticle(ctx, testArticle(feed.ID, "https://example.com/post", "Post"),
		interfaces.SaveOptions{})
	if err != nil {
		t.Fatalf("SaveArticle: %v", err)
	}
	if res.Action != interfaces.SaveSkipped {
		t.Errorf("read duplicate action = %v, want skip", res.Action)
	}

	// force refresh updates even read duplicates
	res, err = store.SaveArticle(ctx, testArticle(feed.ID, "https://example.com/post", "Post"),
		interfaces.SaveOptions{ForceRefresh: true})
	if err != nil {
		t.Fatalf("SaveArticle: %v", err)
	}
	if res.Action != interfaces.SaveUpdated {
		t.Errorf("forced save action = %v, want update", res.Action)
	}
}

func TestSaveArticle_TitleDupSkipped(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	feed := createTestFeed(t, store, "feed", nil)

	if _, err := store.SaveArticle(ctx,
		testArticle(feed.ID, "https://example.com/a", "Same Title"),
		interfaces.SaveOptions{SkipTitleDuplicates: true}); err != nil {
		t.Fatalf("SaveArticle: %v", err)
	}

	res, err := store.SaveArticle(ctx,
		testArticle(feed.ID, "https://example.com/b", "Same Title"),
		interfaces.SaveOptions{SkipTitleDuplicates: true})
	if err != nil {
		t.Fatalf("SaveArticle: %v", err)
	}
	if res.Action != interfaces.SaveSkipped {
		t.Errorf("title duplicate action = %v, want skip", res.Action)
	}

	// with the option off the same title is fine
	res, err = store.SaveArticle(ctx,
		testArticle(feed.ID, "https://example.com/c", "Same Title"),
		interfaces.SaveOptions{SkipTitleDuplicates: false})
	if err != nil {
		t.Fatalf("SaveArticle: %v", err)
	}
	if res.Action != interfaces.SaveInserted {
		t.Errorf("action = %v, want insert", res.Action)
	}
}

func TestQuotaCounters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	feed := createTestFeed(t, store, "feed", nil)

	midnight := time.Now().UTC().Truncate(24 * time.Hour)

	count, err := store.CountInsertedSince(ctx, feed.ID, midnight)
	if err != nil {
		t.Fatalf("CountInsertedSince: %v", err)
	}
	if count != 0 {
		t.Errorf("count on empty feed = %d", count)
	}
	if _, ok, err := store.LastInsertedAt(ctx, feed.ID, midnight); err != nil || ok {
		t.Errorf("LastInsertedAt on empty feed = ok %v, err %v", ok, err)
	}

	for _, url := range []string{"https://x/1", "https://x/2"} {
		if _, err := store.SaveArticle(ctx, testArticle(feed.ID, url, url),
			interfaces.SaveOptions{}); err != nil {
			t.Fatalf("SaveArticle: %v", err)
		}
	}

	count, err = store.CountInsertedSince(ctx, feed.ID, midnight)
	if err != nil {
		t.Fatalf("CountInsertedSince: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}

	last, ok, err := store.LastInsertedAt(ctx, feed.ID, midnight)
	if err != nil || !ok {
		t.Fatalf("LastInsertedAt: ok %v, err %v", ok, err)
	}
	if last.Before(midnight) {
		t.Errorf("last insertion %v predates the window", last)
	}
}

func TestListArticles_Filters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	user := createTestUser(t, store, "alice")
	feed := createTestFeed(t, store, "feed", &user.ID)

	base := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	var ids []int64
	for i := 0; i < 4; i++ {
		a := testArticle(feed.ID, "https://x/"+string(rune('a'+i)), "Article")
		a.Date = base.Add(time.Duration(i) * time.Hour)
		if _, err := store.SaveArticle(ctx, a, interfaces.SaveOptions{}); err != nil {
			t.Fatalf("SaveArticle: %v", err)
		}
		ids = append(ids, a.ID)
	}

	// default order is date descending
	all, err := store.ListArticles(ctx, interfaces.ArticleQuery{UserID: user.ID})
	if err != nil {
		t.Fatalf("ListArticles: %v", err)
	}
	if len(all) != 4 || all[0].ID != ids[3] {
		t.Fatalf("default listing = %d items, first id %d", len(all), all[0].ID)
	}

	// olderThan is strictly less-than
	older, err := store.ListArticles(ctx, interfaces.ArticleQuery{
		UserID: user.ID, OlderThan: base.Add(2 * time.Hour),
	})
	if err != nil {
		t.Fatalf("ListArticles: %v", err)
	}
	if len(older) != 2 {
		t.Errorf("olderThan kept %d articles, want 2", len(older))
	}

	// read exclusion
	if err := store.SetRead(ctx, user.ID, ids[0], true); err != nil {
		t.Fatalf("SetRead: %v", err)
	}
	unread, err := store.ListArticles(ctx, interfaces.ArticleQuery{
		UserID: user.ID, ExcludeRead: true,
	})
	if err != nil {
		t.Fatalf("ListArticles: %v", err)
	}
	if len(unread) != 3 {
		t.Errorf("unread listing = %d, want 3", len(unread))
	}

	// starred restriction
	if err := store.SetSaved(ctx, user.ID, ids[1], true); err != nil {
		t.Fatalf("SetSaved: %v", err)
	}
	starred, err := store.ListArticles(ctx, interfaces.ArticleQuery{
		UserID: user.ID, OnlyStarred: true,
	})
	if err != nil {
		t.Fatalf("ListArticles: %v", err)
	}
	if len(starred) != 1 || starred[0].ID != ids[1] {
		t.Errorf("starred listing = %v", starred)
	}

	// limit plus offset pages through the default order
	page, err := store.ListArticles(ctx, interfaces.ArticleQuery{
		UserID: user.ID, Limit: 2, Offset: 2,
	})
	if err != nil {
		t.Fatalf("ListArticles: %v", err)
	}
	if len(page) != 2 || page[0].ID != ids[1] {
		t.Errorf("second page = %v", page)
	}
}

func TestListArticles_AccessControl(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	alice := createTestUser(t, store, "alice")
	bob := createTestUser(t, store, "bob")

	bobsFeed := createTestFeed(t, store, "bob's", &bob.ID)
	disabled := createTestFeed(t, store, "disabled", nil)
	disabled.Enabled = false
	if err := store.UpdateFeed(ctx, disabled); err != nil {
		t.Fatalf("UpdateFeed: %v", err)
	}

	for _, feedID := range []int64{bobsFeed.ID, disabled.ID} {
		if _, err := store.SaveArticle(ctx,
			testArticle(feedID, "https://x/only", "Hidden"),
			interfaces.SaveOptions{}); err != nil {
			t.Fatalf("SaveArticle: %v", err)
		}
	}

	got, err := store.ListArticles(ctx, interfaces.ArticleQuery{UserID: alice.ID})
	if err != nil {
		t.Fatalf("ListArticles: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("alice sees %d foreign/disabled articles", len(got))
	}
}

func TestUnreadCounts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	user := createTestUser(t, store, "alice")
	feedA := createTestFeed(t, store, "a", &user.ID)
	feedB := createTestFeed(t, store, "b", nil)

	var firstA int64
	for i, feed := range []*domain.Feed{feedA, feedA, feedA, feedB} {
		a := testArticle(feed.ID, "https://x/"+string(rune('0'+i)), "Article")
		if _, err := store.SaveArticle(ctx, a, interfaces.SaveOptions{}); err != nil {
			t.Fatalf("SaveArticle: %v", err)
		}
		if i == 0 {
			firstA = a.ID
		}
	}
	if err := store.SetRead(ctx, user.ID, firstA, true); err != nil {
		t.Fatalf("SetRead: %v", err)
	}

	counts, err := store.UnreadCounts(ctx, user.ID, false)
	if err != nil {
		t.Fatalf("UnreadCounts: %v", err)
	}
	byFeed := make(map[int64]int)
	for _, c := range counts {
		byFeed[c.FeedID] = c.Count
	}
	if byFeed[feedA.ID] != 2 || byFeed[feedB.ID] != 1 {
		t.Errorf("counts = %v", byFeed)
	}

	// a fully read feed disappears unless includeAll is set
	if err := store.MarkAllRead(ctx, user.ID, []int64{feedB.ID}, time.Time{}); err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	counts, err = store.UnreadCounts(ctx, user.ID, false)
	if err != nil {
		t.Fatalf("UnreadCounts: %v", err)
	}
	for _, c := range counts {
		if c.FeedID == feedB.ID {
			t.Errorf("fully read feed still listed: %+v", c)
		}
	}

	counts, err = store.UnreadCounts(ctx, user.ID, true)
	if err != nil {
		t.Fatalf("UnreadCounts: %v", err)
	}
	found := false
	for _, c := range counts {
		if c.FeedID == feedB.ID {
			found = true
			if c.Count != 0 {
				t.Errorf("fully read feed count = %d", c.Count)
			}
		}
	}
	if !found {
		t.Errorf("includeAll dropped the zero-count feed")
	}
}

func TestMarkAllRead_BoundedByTimestamp(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	user := createTestUser(t, store, "alice")
	feed := createTestFeed(t, store, "feed", &user.ID)

	base := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	var ids []int64
	for i := 0; i < 3; i++ {
		a := testArticle(feed.ID, "https://x/"+string(rune('a'+i)), "Article")
		a.Date = base.Add(time.Duration(i) * time.Hour)
		if _, err := store.SaveArticle(ctx, a, interfaces.SaveOptions{}); err != nil {
			t.Fatalf("SaveArticle: %v", err)
		}
		ids = append(ids, a.ID)
	}

	if err := store.MarkAllRead(ctx, user.ID, []int64{feed.ID}, base.Add(time.Hour)); err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}

	states, err := store.GetStates(ctx, user.ID, ids)
	if err != nil {
		t.Fatalf("GetStates: %v", err)
	}
	if !states[ids[0]].IsRead || !states[ids[1]].IsRead {
		t.Errorf("older articles not marked read: %v", states)
	}
	if states[ids[2]].IsRead {
		t.Errorf("article newer than the bound marked read")
	}
}

func TestSetFlagsIndependent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	user := createTestUser(t, store, "alice")
	feed := createTestFeed(t, store, "feed", &user.ID)

	a := testArticle(feed.ID, "https://x/a", "Article")
	if _, err := store.SaveArticle(ctx, a, interfaces.SaveOptions{}); err != nil {
		t.Fatalf("SaveArticle: %v", err)
	}

	if err := store.SetSaved(ctx, user.ID, a.ID, true); err != nil {
		t.Fatalf("SetSaved: %v", err)
	}
	if err := store.SetRead(ctx, user.ID, a.ID, true); err != nil {
		t.Fatalf("SetRead: %v", err)
	}
	if err := store.SetRead(ctx, user.ID, a.ID, false); err != nil {
		t.Fatalf("SetRead: %v", err)
	}

	states, err := store.GetStates(ctx, user.ID, []int64{a.ID})
	if err != nil {
		t.Fatalf("GetStates: %v", err)
	}
	st := states[a.ID]
	if st.IsRead {
		t.Errorf("read flag not cleared")
	}
	if !st.IsSaved {
		t.Errorf("star flag lost by the read toggle")
	}
}

func TestGroups(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	user := createTestUser(t, store, "alice")
	feedA := createTestFeed(t, store, "a", &user.ID)
	feedB := createTestFeed(t, store, "b", &user.ID)

	for _, feedID := range []int64{feedA.ID, feedB.ID} {
		if err := store.AssignGroup(ctx, user.ID, feedID, "Tech"); err != nil {
			t.Fatalf("AssignGroup: %v", err)
		}
	}
	// assigning twice is a no-op
	if err := store.AssignGroup(ctx, user.ID, feedA.ID, "Tech"); err != nil {
		t.Fatalf("AssignGroup: %v", err)
	}

	groups, err := store.ListGroups(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListGroups: %v", err)
	}
	if len(groups) != 1 || groups[0].Name != "Tech" {
		t.Fatalf("groups = %v", groups)
	}

	ids, err := store.FeedIDsInGroup(ctx, user.ID, "Tech")
	if err != nil {
		t.Fatalf("FeedIDsInGroup: %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("group has %d feeds, want 2", len(ids))
	}

	if err := store.RemoveFromGroup(ctx, user.ID, feedB.ID, "Tech"); err != nil {
		t.Fatalf("RemoveFromGroup: %v", err)
	}
	ids, err = store.FeedIDsInGroup(ctx, user.ID, "Tech")
	if err != nil {
		t.Fatalf("FeedIDsInGroup: %v", err)
	}
	if len(ids) != 1 || ids[0] != feedA.ID {
		t.Errorf("group members after removal = %v", ids)
	}
}

func TestTokens(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	user := createTestUser(t, store, "alice")

	if err := store.SaveToken(ctx, user.ID, "hash-live",
		time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}
	if err := store.SaveToken(ctx, user.ID, "hash-expired",
		time.Now().Add(-time.Hour)); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}

	userID, ok, err := store.LookupToken(ctx, "hash-live")
	if err != nil || !ok || userID != user.ID {
		t.Errorf("live token lookup = (%d, %v, %v)", userID, ok, err)
	}
	if _, ok, _ := store.LookupToken(ctx, "hash-expired"); ok {
		t.Errorf("expired token accepted")
	}
	if _, ok, _ := store.LookupToken(ctx, "hash-unknown"); ok {
		t.Errorf("unknown token accepted")
	}

	if err := store.DeleteExpired(ctx); err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}
	if _, ok, _ := store.LookupToken(ctx, "hash-live"); !ok {
		t.Errorf("sweep removed a live token")
	}
}

func TestDeleteFeedCascades(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	user := createTestUser(t, store, "alice")
	feed := createTestFeed(t, store, "feed", &user.ID)

	a := testArticle(feed.ID, "https://x/a", "Article")
	if _, err := store.SaveArticle(ctx, a, interfaces.SaveOptions{}); err != nil {
		t.Fatalf("SaveArticle: %v", err)
	}
	if err := store.SetRead(ctx, user.ID, a.ID, true); err != nil {
		t.Fatalf("SetRead: %v", err)
	}

	if err := store.DeleteFeed(ctx, feed.ID); err != nil {
		t.Fatalf("DeleteFeed: %v", err)
	}

	if _, err := store.GetArticle(ctx, a.ID); err == nil {
		t.Errorf("article survived feed deletion")
	}
	states, err := store.GetStates(ctx, user.ID, []int64{a.ID})
	if err != nil {
		t.Fatalf("GetStates: %v", err)
	}
	if len(states) != 0 {
		t.Errorf("read state survived cascade: %v", states)
	}
}
