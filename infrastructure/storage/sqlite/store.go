// ABOUTME: SQLite-backed content store holding feeds, articles and user state
// ABOUTME: Implements the storage interfaces over a single connection pool

package sqlite

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store implements FeedStore, ArticleStore, StateStore, UserStore and
// TokenStore over one SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the database at filePath
func NewStore(filePath string) (*Store, error) {
	if filePath == "" {
		filePath = "yana.db"
	}

	db, err := sql.Open("sqlite3", filePath+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to SQLite database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the tables if they don't exist. Timestamps are stored
// as Unix seconds in UTC.
func (s *Store) initSchema() error {
	query := `
		CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL DEFAULT '',
			password TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS feeds (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER REFERENCES users(id) ON DELETE CASCADE,
			kind TEXT NOT NULL,
			identifier TEXT NOT NULL,
			name TEXT NOT NULL,
			icon TEXT NOT NULL DEFAULT '',
			enabled INTEGER NOT NULL DEFAULT 1,
			options TEXT NOT NULL DEFAULT '{}',
			ai_summarize INTEGER NOT NULL DEFAULT 0,
			ai_translate_to TEXT NOT NULL DEFAULT '',
			ai_custom_prompt TEXT NOT NULL DEFAULT '',
			UNIQUE(name, user_id)
		);

		CREATE TABLE IF NOT EXISTS articles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			feed_id INTEGER NOT NULL REFERENCES feeds(id) ON DELETE CASCADE,
			url TEXT NOT NULL,
			normalized_url TEXT NOT NULL,
			name TEXT NOT NULL,
			content TEXT NOT NULL,
			date INTEGER NOT NULL,
			created_at INTEGER NOT NULL,
			author TEXT NOT NULL DEFAULT '',
			external_id TEXT NOT NULL DEFAULT '',
			thumbnail_url TEXT NOT NULL DEFAULT '',
			media_url TEXT NOT NULL DEFAULT '',
			media_type TEXT NOT NULL DEFAULT '',
			score INTEGER NOT NULL DEFAULT 0,
			view_count INTEGER NOT NULL DEFAULT 0,
			UNIQUE(feed_id, normalized_url)
		);
		CREATE INDEX IF NOT EXISTS idx_articles_feed_date ON articles(feed_id, date);
		CREATE INDEX IF NOT EXISTS idx_articles_feed_created ON articles(feed_id, created_at);

		CREATE TABLE IF NOT EXISTS feed_groups (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			feed_id INTEGER NOT NULL REFERENCES feeds(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			UNIQUE(user_id, feed_id, name)
		);

		CREATE TABLE IF NOT EXISTS user_article_states (
			user_id INTEGER NOT NULL,
			article_id INTEGER NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
			is_read INTEGER NOT NULL DEFAULT 0,
			is_saved INTEGER NOT NULL DEFAULT 0,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (user_id, article_id)
		);

		CREATE TABLE IF NOT EXISTS auth_tokens (
			token_hash TEXT PRIMARY KEY,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			expires_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_auth_tokens_expiry ON auth_tokens(expires_at);
	`

	_, err := s.db.Exec(query)
	return err
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}
