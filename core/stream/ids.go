// ABOUTME: Stream-id grammar and the long-form item-id codec
// ABOUTME: Item ids are the GReader tag form with 16 lowercase hex digits

package stream

import (
	"fmt"
	"strconv"
	"strings"

	coreerrors "yana/core/errors"
)

const (
	itemIDPrefix = "tag:google.com,2005:reader/item/"

	// The GReader state streams
	StreamReadingList = "user/-/state/com.google/reading-list"
	StreamStarred     = "user/-/state/com.google/starred"
	StreamRead        = "user/-/state/com.google/read"
)

// FormatItemID renders an article id in the long tag form,
// e.g. id 123 becomes "tag:google.com,2005:reader/item/000000000000007b".
func FormatItemID(id int64) string {
	return fmt.Sprintf("%s%016x", itemIDPrefix, id)
}

// ParseItemID accepts the long tag form (hex) or a bare integer and returns
// the article id. Unparseable or non-positive input yields 0.
func ParseItemID(s string) int64 {
	s = strings.TrimSpace(s)

	if rest, ok := strings.CutPrefix(s, itemIDPrefix); ok {
		id, err := strconv.ParseInt(rest, 16, 64)
		if err != nil || id <= 0 {
			return 0
		}
		return id
	}

	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0
	}
	return id
}

// StreamKind enumerates the stream-id grammar forms
type StreamKind int

const (
	// StreamFeed is feed/{numericFeedId}
	StreamFeed StreamKind = iota
	// StreamLabel is user/-/label/{groupName}
	StreamLabel
	// StreamAll is the reading-list state
	StreamAll
	// StreamOnlyStarred is the starred state
	StreamOnlyStarred
	// StreamReadState is the read state, valid only as a tag
	StreamReadState
)

// Stream is a parsed stream id
type Stream struct {
	Kind   StreamKind
	FeedID int64
	Label  string
}

// ParseStream parses a stream id per the grammar. Unknown forms are a
// validation error.
func ParseStream(s string) (Stream, error) {
	switch s {
	case StreamReadingList, "":
		return Stream{Kind: StreamAll}, nil
	case StreamStarred:
		return Stream{Kind: StreamOnlyStarred}, nil
	case StreamRead:
		return Stream{Kind: StreamReadState}, nil
	}

	if rest, ok := strings.CutPrefix(s, "feed/"); ok {
		id, err := strconv.ParseInt(rest, 10, 64)
		if err != nil || id <= 0 {
			return Stream{}, &coreerrors.ValidationError{
				Field:   "s",
				Message: fmt.Sprintf("invalid feed stream id %q", s),
			}
		}
		return Stream{Kind: StreamFeed, FeedID: id}, nil
	}

	if rest, ok := strings.CutPrefix(s, "user/-/label/"); ok && rest != "" {
		return Stream{Kind: StreamLabel, Label: rest}, nil
	}

	return Stream{}, &coreerrors.ValidationError{
		Field:   "s",
		Message: fmt.Sprintf("unknown stream id %q", s),
	}
}
