// ABOUTME: Aggregator plugin contract and the descriptor every kind fills in
// ABOUTME: Optional interfaces let kinds override enrichment, filtering and icons

package aggregator

import (
	"context"

	"yana/core/domain"
	"yana/core/enrich"
)

// SourceData is the in-memory listing a kind produces before parsing.
// Each kind defines its own concrete type.
type SourceData interface{}

// Source is one aggregator kind. Implementations are stateless with respect
// to feeds; all per-feed state arrives through the Feed argument.
type Source interface {
	// Descriptor returns the static metadata for this kind
	Descriptor() Descriptor

	// Validate checks the feed identifier, normalizing it in place when the
	// kind supports it (YouTube resolves handles to channel ids here)
	Validate(ctx context.Context, feed *domain.Feed) error

	// FetchSource lists the source into memory, honoring the run limit
	FetchSource(ctx context.Context, feed *domain.Feed, limit int) (SourceData, error)

	// Parse converts the listing into raw articles, newest first
	Parse(ctx context.Context, feed *domain.Feed, data SourceData) ([]domain.RawArticle, error)
}

// Descriptor is the static metadata of an aggregator kind
type Descriptor struct {
	Kind domain.Kind

	// Name is the human-readable kind name
	Name string

	// IdentifierLabel describes what the identifier field holds
	IdentifierLabel string

	// IdentifierEditable is false for kinds with a fixed source
	IdentifierEditable bool

	// PrefillName suggests the source title as the feed name
	PrefillName bool

	// Options enumerates the option specs this kind understands
	Options []domain.OptionSpec

	// UseBrowser routes article fetches through the headless browser
	UseBrowser bool

	// WaitForSelector is the DOM selector the browser waits for
	WaitForSelector string

	// SelectorsToRemove is the base strip list, merged with the feed's
	// exclude_selectors option
	SelectorsToRemove []string

	// InlineImages embeds body images as data URIs after processing
	InlineImages bool
}

// EnrichCustomizer lets a kind override enrichment steps per feed
type EnrichCustomizer interface {
	CustomizeEnrich(feed *domain.Feed, cfg *enrich.Config)
}

// Filterer replaces the default title/content substring filters
type Filterer interface {
	FilterArticles(feed *domain.Feed, articles []domain.RawArticle) []domain.RawArticle
}

// IconCollector replaces the default favicon lookup
type IconCollector interface {
	CollectIcon(ctx context.Context, feed *domain.Feed) (string, error)
}

// commonOptionSpecs are the options every kind understands
func commonOptionSpecs() []domain.OptionSpec {
	return []domain.OptionSpec{
		{Name: domain.OptIgnoreTitleContains, Type: domain.OptionString, Widget: "textarea"},
		{Name: domain.OptIgnoreContentContains, Type: domain.OptionString, Widget: "textarea"},
		{Name: domain.OptExcludeSelectors, Type: domain.OptionString, Widget: "textarea"},
		{Name: domain.OptRegexReplacements, Type: domain.OptionString, Widget: "textarea"},
		{Name: domain.OptSkipDuplicates, Type: domain.OptionBoolean, Default: true},
		{Name: domain.OptUseCurrentTimestamp, Type: domain.OptionBoolean, Default: false},
		{Name: domain.OptGenerateTitleImage, Type: domain.OptionBoolean, Default: false},
		{Name: domain.OptAddSourceFooter, Type: domain.OptionBoolean, Default: false},
		{Name: domain.OptDailyPostLimit, Type: domain.OptionInteger, Default: -1},
	}
}
