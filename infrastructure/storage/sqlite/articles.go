// ABOUTME: Article persistence with the ordered deduplication rules
// ABOUTME: Serves the stream read queries and the quota counters

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"yana/core/domain"
	"yana/core/interfaces"
)

// titleDupWindow is how far back the same-title check looks
const titleDupWindow = 14 * 24 * time.Hour

const articleColumns = `id, feed_id, url, name, content, date, created_at,
	author, external_id, thumbnail_url, media_url, media_type, score, view_count`

// SaveArticle applies the dedup rules in order and persists the article.
// URL duplicates the feed owner has read are skipped; unread duplicates are
// updated in place, preserving id and created_at. A same-title article
// within the last 14 days is skipped. ForceRefresh updates URL duplicates
// unconditionally and disables the title check.
func (s *Store) SaveArticle(ctx context.Context, article *domain.Article, opts interfaces.SaveOptions) (interfaces.SaveResult, error) {
	normalized := domain.NormalizeURL(article.URL)
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return interfaces.SaveResult{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var existingID int64
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM articles WHERE feed_id = ? AND normalized_url = ?",
		article.FeedID, normalized).Scan(&existingID)
	if err != nil && err != sql.ErrNoRows {
		return interfaces.SaveResult{}, fmt.Errorf("failed to check URL duplicate: %w", err)
	}

	if err == nil {
		if !opts.ForceRefresh {
			read, err := ownerHasRead(ctx, tx, article.FeedID, existingID)
			if err != nil {
				return interfaces.SaveResult{}, err
			}
			if read {
				return interfaces.SaveResult{Action: interfaces.SaveSkipped, ArticleID: existingID}, nil
			}
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE articles SET name = ?, content = ?, date = ?, author = ?,
				thumbnail_url = ?, media_url = ?, media_type = ?
			WHERE id = ?`,
			article.Name, article.Content, article.Date.UTC().Unix(),
			article.Author, article.ThumbnailURL, article.MediaURL,
			article.MediaType, existingID)
		if err != nil {
			return interfaces.SaveResult{}, fmt.Errorf("failed to update article: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return interfaces.SaveResult{}, fmt.Errorf("failed to commit: %w", err)
		}

		article.ID = existingID
		return interfaces.SaveResult{Action: interfaces.SaveUpdated, ArticleID: existingID}, nil
	}

	if !opts.ForceRefresh && opts.SkipTitleDuplicates {
		var dup int
		err = tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM articles
			WHERE feed_id = ? AND name = ? AND created_at >= ?`,
			article.FeedID, article.Name, now.Add(-titleDupWindow).Unix()).Scan(&dup)
		if err != nil {
			return interfaces.SaveResult{}, fmt.Errorf("failed to check title duplicate: %w", err)
		}
		if dup > 0 {
			return interfaces.SaveResult{Action: interfaces.SaveSkipped}, nil
		}
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO articles (feed_id, url, normalized_url, name, content,
			date, created_at, author, external_id, thumbnail_url,
			media_url, media_type, score, view_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		article.FeedID, article.URL, normalized, article.Name, article.Content,
		article.Date.UTC().Unix(), now.Unix(), article.Author,
		article.ExternalID, article.ThumbnailURL, article.MediaURL,
		article.MediaType, article.Score, article.ViewCount)
	if err != nil {
		return interfaces.SaveResult{}, fmt.Errorf("failed to insert article: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return interfaces.SaveResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return interfaces.SaveResult{}, fmt.Errorf("failed to commit: %w", err)
	}

	article.ID = id
	article.CreatedAt = now
	return interfaces.SaveResult{Action: interfaces.SaveInserted, ArticleID: id}, nil
}

// ownerHasRead reports whether the feed's owning user has read the article.
// Shared feeds have no owner; their duplicates always count as unread.
func ownerHasRead(ctx context.Context, tx *sql.Tx, feedID, articleID int64) (bool, error) {
	var count int
	err := tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM user_article_states st
		JOIN feeds f ON f.id = ?
		WHERE st.article_id = ? AND st.is_read = 1 AND st.user_id = f.user_id`,
		feedID, articleID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check read state: %w", err)
	}
	return count > 0, nil
}

func (s *Store) GetArticle(ctx context.Context, id int64) (*domain.Article, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+articleColumns+" FROM articles WHERE id = ?", id)

	article, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("article %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article: %w", err)
	}
	return article, nil
}

// ListArticles serves the stream read path. Access control admits articles
// of enabled feeds owned by the querying user or shared feeds.
func (s *Store) ListArticles(ctx context.Context, q interfaces.ArticleQuery) ([]domain.Article, error) {
	var sb strings.Builder
	var args []interface{}

	sb.WriteString(`SELECT a.id, a.feed_id, a.url, a.name, a.content, a.date,
		a.created_at, a.author, a.external_id, a.thumbnail_url, a.media_url,
		a.media_type, a.score, a.view_count
		FROM articles a
		JOIN feeds f ON f.id = a.feed_id
		WHERE f.enabled = 1 AND (f.user_id IS NULL OR f.user_id = ?)`)
	args = append(args, q.UserID)

	if len(q.FeedIDs) > 0 {
		sb.WriteString(" AND a.feed_id IN (" + placeholders(len(q.FeedIDs)) + ")")
		for _, id := range q.FeedIDs {
			args = append(args, id)
		}
	}
	if len(q.IDs) > 0 {
		sb.WriteString(" AND a.id IN (" + placeholders(len(q.IDs)) + ")")
		for _, id := range q.IDs {
			args = append(args, id)
		}
	}
	if !q.OlderThan.IsZero() {
		sb.WriteString(" AND a.date < ?")
		args = append(args, q.OlderThan.Unix())
	}
	if q.ExcludeRead {
		sb.WriteString(` AND NOT EXISTS (
			SELECT 1 FROM user_article_states st
			WHERE st.article_id = a.id AND st.user_id = ? AND st.is_read = 1)`)
		args = append(args, q.UserID)
	}
	if q.OnlyStarred {
		sb.WriteString(` AND EXISTS (
			SELECT 1 FROM user_article_states st
			WHERE st.article_id = a.id AND st.user_id = ? AND st.is_saved = 1)`)
		args = append(args, q.UserID)
	}

	if q.Ascending {
		sb.WriteString(" ORDER BY a.date ASC, a.id ASC")
	} else {
		sb.WriteString(" ORDER BY a.date DESC, a.id DESC")
	}
	if q.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, q.Limit)
		if q.Offset > 0 {
			sb.WriteString(" OFFSET ?")
			args = append(args, q.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	defer rows.Close()

	var articles []domain.Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, *article)
	}
	return articles, rows.Err()
}

func (s *Store) CountInsertedSince(ctx context.Context, feedID int64, since time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM articles WHERE feed_id = ? AND created_at >= ?",
		feedID, since.UTC().Unix()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count inserted articles: %w", err)
	}
	return count, nil
}

func (s *Store) LastInsertedAt(ctx context.Context, feedID int64, since time.Time) (time.Time, bool, error) {
	var newest sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		"SELECT MAX(created_at) FROM articles WHERE feed_id = ? AND created_at >= ?",
		feedID, since.UTC().Unix()).Scan(&newest)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to find last insertion: %w", err)
	}
	if !newest.Valid {
		return time.Time{}, false, nil
	}
	return time.Unix(newest.Int64, 0).UTC(), true, nil
}

// UnreadCounts aggregates per-feed unread totals with two grouped queries,
// never iterating articles. includeAll keeps feeds with zero unread.
func (s *Store) UnreadCounts(ctx context.Context, userID int64, includeAll bool) ([]interfaces.FeedUnread, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.feed_id, COUNT(*), MAX(a.date)
		FROM articles a
		JOIN feeds f ON f.id = a.feed_id
		WHERE f.enabled = 1 AND (f.user_id IS NULL OR f.user_id = ?)
		GROUP BY a.feed_id
		ORDER BY a.feed_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count articles: %w", err)
	}
	defer rows.Close()

	var counts []interfaces.FeedUnread
	for rows.Next() {
		var c interfaces.FeedUnread
		var newest int64
		if err := rows.Scan(&c.FeedID, &c.Count, &newest); err != nil {
			return nil, err
		}
		c.NewestUTC = time.Unix(newest, 0).UTC()
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	readRows, err := s.db.QueryContext(ctx, `
		SELECT a.feed_id, COUNT(*)
		FROM user_article_states st
		JOIN articles a ON a.id = st.article_id
		WHERE st.user_id = ? AND st.is_read = 1
		GROUP BY a.feed_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count read states: %w", err)
	}
	defer readRows.Close()

	read := make(map[int64]int)
	for readRows.Next() {
		var feedID int64
		var count int
		if err := readRows.Scan(&feedID, &count); err != nil {
			return nil, err
		}
		read[feedID] = count
	}
	if err := readRows.Err(); err != nil {
		return nil, err
	}

	out := counts[:0]
	for _, c := range counts {
		c.Count -= read[c.FeedID]
		if c.Count <= 0 && !includeAll {
			continue
		}
		if c.Count < 0 {
			c.Count = 0
		}
		out = append(out, c)
	}
	return out, nil
}

func scanArticle(row scanner) (*domain.Article, error) {
	var a domain.Article
	var date, createdAt int64

	err := row.Scan(&a.ID, &a.FeedID, &a.URL, &a.Name, &a.Content,
		&date, &createdAt, &a.Author, &a.ExternalID, &a.ThumbnailURL,
		&a.MediaURL, &a.MediaType, &a.Score, &a.ViewCount)
	if err != nil {
		return nil, err
	}

	a.Date = time.Unix(date, 0).UTC()
	a.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &a, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
