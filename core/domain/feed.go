// ABOUTME: Feed domain model represents one configured ingestion source
// ABOUTME: Carries the aggregator kind, identifier, per-feed options and AI hints

package domain

import (
	"errors"
	"time"
)

// Kind identifies which aggregator implementation serves a feed.
type Kind string

// The closed set of aggregator kinds.
const (
	KindFullWebsite Kind = "full_website"
	KindFeedContent Kind = "feed_content"
	KindYouTube     Kind = "youtube"
	KindReddit      Kind = "reddit"
	KindPodcast     Kind = "podcast"
	KindMeinMMO     Kind = "mein_mmo"
	KindHeise       Kind = "heise"
	KindMerkur      Kind = "merkur"
	KindTagesschau  Kind = "tagesschau"
	KindExplosm     Kind = "explosm"
	KindDarkLegacy  Kind = "dark_legacy"
	KindOglaf       Kind = "oglaf"
	KindCaschysBlog Kind = "caschys_blog"
	KindMacTechNews Kind = "mactechnews"
)

// Feed represents the configuration for one ingestion source
type Feed struct {
	// ID is the unique identifier for the feed
	ID int64

	// UserID is the owning user; nil means the feed is shared system-wide
	UserID *int64

	// Kind selects the aggregator implementation
	Kind Kind

	// Identifier is the source locator (URL, subreddit, channel id/handle)
	Identifier string

	// Name is the display name; (Name, UserID) is unique
	Name string

	// Icon is a base64 data URI or a URL to the feed icon
	Icon string

	// Enabled controls whether the scheduler runs this feed
	Enabled bool

	// Options holds the per-feed option values keyed by option name
	Options Options

	// AI carries optional summarize/translate hints for the text transform
	AI AIHints
}

// AIHints surfaces the pluggable text-transform configuration
type AIHints struct {
	Summarize    bool
	TranslateTo  string // BCP 47 locale tag, empty = no translation
	CustomPrompt string
}

// UserArticleState holds per-(user, article) read and star flags.
// Created lazily on first toggle; independent of feed ownership so
// system-shared feeds can serve many users.
type UserArticleState struct {
	UserID    int64
	ArticleID int64
	IsRead    bool
	IsSaved   bool
	UpdatedAt time.Time
}

// Group is a named collection of feeds used as a GReader label
type Group struct {
	ID     int64
	UserID int64
	Name   string
}

// User represents an account that owns feeds and read state
type User struct {
	ID       int64
	Name     string
	Email    string
	Password string // hashed, never the clear text
}

// Validate checks if the feed has valid required fields
func (f *Feed) Validate() error {
	if f.Name == "" {
		return errors.New("feed name cannot be empty")
	}

	if f.Identifier == "" {
		return errors.New("feed identifier cannot be empty")
	}

	if f.Kind == "" {
		return errors.New("feed kind cannot be empty")
	}

	return nil
}
