// ABOUTME: Feed document retrieval built on the fetcher
// ABOUTME: Parses RSS/Atom bytes with gofeed and classifies parse failures

package fetch

import (
	"bytes"
	"context"
	"errors"

	"github.com/mmcdole/gofeed"

	coreerrors "yana/core/errors"
)

// FetchFeed retrieves and parses an RSS/Atom document.
// A syntactically broken document yields a ParseError.
func (f *Fetcher) FetchFeed(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	body, _, err := f.FetchBytes(ctx, feedURL, Options{})
	if err != nil {
		return nil, err
	}

	if len(body) == 0 {
		return nil, &coreerrors.ParseError{URL: feedURL, Err: errEmptyFeed}
	}

	parser := gofeed.NewParser()
	parsed, err := parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, &coreerrors.ParseError{URL: feedURL, Err: err}
	}

	return parsed, nil
}

var errEmptyFeed = errors.New("empty feed content")
