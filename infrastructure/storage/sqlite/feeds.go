// ABOUTME: Feed and group persistence over the shared SQLite store
// ABOUTME: Options are serialized as JSON; groups map feeds to GReader labels

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"yana/core/domain"
)

const feedColumns = `id, user_id, kind, identifier, name, icon, enabled,
	options, ai_summarize, ai_translate_to, ai_custom_prompt`

func (s *Store) GetFeed(ctx context.Context, id int64) (*domain.Feed, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+feedColumns+" FROM feeds WHERE id = ?", id)

	feed, err := scanFeed(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("feed %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed: %w", err)
	}
	return feed, nil
}

func (s *Store) ListEnabledFeeds(ctx context.Context) ([]domain.Feed, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+feedColumns+" FROM feeds WHERE enabled = 1 ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list feeds: %w", err)
	}
	defer rows.Close()

	return collectFeeds(rows)
}

func (s *Store) ListFeedsForUser(ctx context.Context, userID int64) ([]domain.Feed, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+feedColumns+" FROM feeds WHERE user_id IS NULL OR user_id = ? ORDER BY name",
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list feeds for user: %w", err)
	}
	defer rows.Close()

	return collectFeeds(rows)
}

func (s *Store) CreateFeed(ctx context.Context, feed *domain.Feed) error {
	if err := feed.Validate(); err != nil {
		return err
	}

	options, err := json.Marshal(feed.Options)
	if err != nil {
		return fmt.Errorf("failed to serialize feed options: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO feeds (user_id, kind, identifier, name, icon, enabled,
			options, ai_summarize, ai_translate_to, ai_custom_prompt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		feed.UserID, string(feed.Kind), feed.Identifier, feed.Name, feed.Icon,
		feed.Enabled, string(options),
		feed.AI.Summarize, feed.AI.TranslateTo, feed.AI.CustomPrompt)
	if err != nil {
		return fmt.Errorf("failed to create feed: %w", err)
	}

	feed.ID, err = res.LastInsertId()
	return err
}

func (s *Store) UpdateFeed(ctx context.Context, feed *domain.Feed) error {
	if err := feed.Validate(); err != nil {
		return err
	}

	options, err := json.Marshal(feed.Options)
	if err != nil {
		return fmt.Errorf("failed to serialize feed options: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE feeds SET kind = ?, identifier = ?, name = ?, icon = ?,
			enabled = ?, options = ?, ai_summarize = ?, ai_translate_to = ?,
			ai_custom_prompt = ?
		WHERE id = ?`,
		string(feed.Kind), feed.Identifier, feed.Name, feed.Icon,
		feed.Enabled, string(options),
		feed.AI.Summarize, feed.AI.TranslateTo, feed.AI.CustomPrompt,
		feed.ID)
	if err != nil {
		return fmt.Errorf("failed to update feed: %w", err)
	}
	return nil
}

func (s *Store) DeleteFeed(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM feeds WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete feed: %w", err)
	}
	return nil
}

func (s *Store) SetFeedIcon(ctx context.Context, feedID int64, icon string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE feeds SET icon = ? WHERE id = ?", icon, feedID)
	if err != nil {
		return fmt.Errorf("failed to set feed icon: %w", err)
	}
	return nil
}

func (s *Store) ListGroups(ctx context.Context, userID int64) ([]domain.Group, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT MIN(id), name FROM feed_groups
		WHERE user_id = ? GROUP BY name ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []domain.Group
	for rows.Next() {
		g := domain.Group{UserID: userID}
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (s *Store) FeedIDsInGroup(ctx context.Context, userID int64, group string) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT feed_id FROM feed_groups WHERE user_id = ? AND name = ?",
		userID, group)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve group: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) AssignGroup(ctx context.Context, userID, feedID int64, group string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO feed_groups (user_id, feed_id, name)
		VALUES (?, ?, ?)`, userID, feedID, group)
	if err != nil {
		return fmt.Errorf("failed to assign group: %w", err)
	}
	return nil
}

func (s *Store) RemoveFromGroup(ctx context.Context, userID, feedID int64, group string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM feed_groups WHERE user_id = ? AND feed_id = ? AND name = ?",
		userID, feedID, group)
	if err != nil {
		return fmt.Errorf("failed to remove from group: %w", err)
	}
	return nil
}

// scanner covers both sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanFeed(row scanner) (*domain.Feed, error) {
	var feed domain.Feed
	var userID sql.NullInt64
	var kind, options string

	err := row.Scan(&feed.ID, &userID, &kind, &feed.Identifier, &feed.Name,
		&feed.Icon, &feed.Enabled, &options,
		&feed.AI.Summarize, &feed.AI.TranslateTo, &feed.AI.CustomPrompt)
	if err != nil {
		return nil, err
	}

	feed.Kind = domain.Kind(kind)
	if userID.Valid {
		feed.UserID = &userID.Int64
	}
	if err := json.Unmarshal([]byte(options), &feed.Options); err != nil {
		return nil, fmt.Errorf("failed to parse feed options: %w", err)
	}
	return &feed, nil
}

func collectFeeds(rows *sql.Rows) ([]domain.Feed, error) {
	var feeds []domain.Feed
	for rows.Next() {
		feed, err := scanFeed(rows)
		if err != nil {
			return nil, err
		}
		feeds = append(feeds, *feed)
	}
	return feeds, rows.Err()
}
