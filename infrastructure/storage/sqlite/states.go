// ABOUTME: Per-(user, article) read and star flags, created lazily on toggle
// ABOUTME: Backs the GReader edit-tag and mark-all-as-read write paths

package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"yana/core/domain"
)

func (s *Store) SetRead(ctx context.Context, userID, articleID int64, read bool) error {
	return s.setFlag(ctx, userID, articleID, "is_read", read)
}

func (s *Store) SetSaved(ctx context.Context, userID, articleID int64, saved bool) error {
	return s.setFlag(ctx, userID, articleID, "is_saved", saved)
}

// setFlag upserts the state row, touching only the named flag
func (s *Store) setFlag(ctx context.Context, userID, articleID int64, column string, value bool) error {
	query := fmt.Sprintf(`
		INSERT INTO user_article_states (user_id, article_id, %s, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, article_id)
		DO UPDATE SET %s = excluded.%s, updated_at = excluded.updated_at`,
		column, column, column)

	_, err := s.db.ExecContext(ctx, query,
		userID, articleID, value, time.Now().UTC().Unix())
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", column, err)
	}
	return nil
}

func (s *Store) GetStates(ctx context.Context, userID int64, articleIDs []int64) (map[int64]domain.UserArticleState, error) {
	states := make(map[int64]domain.UserArticleState)
	if len(articleIDs) == 0 {
		return states, nil
	}

	args := make([]interface{}, 0, len(articleIDs)+1)
	args = append(args, userID)
	for _, id := range articleIDs {
		args = append(args, id)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT article_id, is_read, is_saved, updated_at
		FROM user_article_states
		WHERE user_id = ? AND article_id IN (`+placeholders(len(articleIDs))+")",
		args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get states: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		st := domain.UserArticleState{UserID: userID}
		var updatedAt int64
		if err := rows.Scan(&st.ArticleID, &st.IsRead, &st.IsSaved, &updatedAt); err != nil {
			return nil, err
		}
		st.UpdatedAt = time.Unix(updatedAt, 0).UTC()
		states[st.ArticleID] = st
	}
	return states, rows.Err()
}

// MarkAllRead marks every article in the feeds read for the user, bounded
// by the optional newest-article timestamp.
func (s *Store) MarkAllRead(ctx context.Context, userID int64, feedIDs []int64, olderThan time.Time) error {
	if len(feedIDs) == 0 {
		return nil
	}

	var sb strings.Builder
	var args []interface{}

	now := time.Now().UTC().Unix()
	args = append(args, userID, now)

	sb.WriteString(`
		INSERT INTO user_article_states (user_id, article_id, is_read, updated_at)
		SELECT ?, a.id, 1, ?
		FROM articles a
		WHERE a.feed_id IN (` + placeholders(len(feedIDs)) + ")")
	for _, id := range feedIDs {
		args = append(args, id)
	}

	if !olderThan.IsZero() {
		sb.WriteString(" AND a.date <= ?")
		args = append(args, olderThan.Unix())
	}

	sb.WriteString(`
		ON CONFLICT(user_id, article_id)
		DO UPDATE SET is_read = 1, updated_at = excluded.updated_at`)

	_, err := s.db.ExecContext(ctx, sb.String(), args...)
	if err != nil {
		return fmt.Errorf("failed to mark all read: %w", err)
	}
	return nil
}
