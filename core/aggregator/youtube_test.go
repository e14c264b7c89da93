package aggregator

import (
	"context"
	"strings"
	"testing"

	coreerrors "yana/core/errors"
	"yana/core/fetch"
	"yana/core/interfaces"
)

func newTestYouTubeSource(client *mockHTTPClient) *youtubeSource {
	f := fetch.NewFetcher(interfaces.Dependencies{HTTPClient: client, Logger: nopLogger{}})
	return newYouTubeSource(f, nopLogger{})
}

func TestResolveChannelID_CanonicalIDPassesThrough(t *testing.T) {
	client := &mockHTTPClient{}
	s := newTestYouTubeSource(client)

	id, err := s.ResolveChannelID(context.Background(), "UCdQw4w9WgXcQdQw4w9WgXcQ")

	if err != nil {
		t.Fatalf("ResolveChannelID: %v", err)
	}
	if id != "UCdQw4w9WgXcQdQw4w9WgXcQ" {
		t.Errorf("id = %q", id)
	}
	if len(client.requested) != 0 {
		t.Errorf("canonical id must not hit the network, saw %d requests", len(client.requested))
	}
}

func TestParseChannelURL(t *testing.T) {
	tests := []struct {
		identifier string
		wantID     string
		wantHandle string
		wantOK     bool
	}{
		{"https://www.youtube.com/channel/UCdQw4w9WgXcQdQw4w9WgXcQ", "UCdQw4w9WgXcQdQw4w9WgXcQ", "", true},
		{"https://www.youtube.com/@SomeCreator", "", "@SomeCreator", true},
		{"https://www.youtube.com/c/SomeCreator", "", "SomeCreator", true},
		{"https://www.youtube.com/user/legacyname", "", "legacyname", true},
		{"https://www.youtube.com/watch?channel_id=UCdQw4w9WgXcQdQw4w9WgXcQ", "UCdQw4w9WgXcQdQw4w9WgXcQ", "", true},
		{"plainhandle", "", "", false},
	}

	for _, tt := range tests {
		id, handle, ok := parseChannelURL(tt.identifier)
		if id != tt.wantID || handle != tt.wantHandle || ok != tt.wantOK {
			t.Errorf("parseChannelURL(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.identifier, id, handle, ok, tt.wantID, tt.wantHandle, tt.wantOK)
		}
	}
}

func TestResolveChannelID_HandlePageScrape(t *testing.T) {
	client := &mockHTTPClient{responses: map[string]*mockResponse{
		"https://www.youtube.com/@creator": {
			statusCode: 200,
			body:       `<html>... "channelId":"UCdQw4w9WgXcQdQw4w9WgXcQ" ...</html>`,
		},
	}}
	s := newTestYouTubeSource(client)

	id, err := s.ResolveChannelID(context.Background(), "@creator")

	if err != nil {
		t.Fatalf("ResolveChannelID: %v", err)
	}
	if id != "UCdQw4w9WgXcQdQw4w9WgXcQ" {
		t.Errorf("id = %q", id)
	}
}

func TestResolveChannelID_SearchPrefersExactHandle(t *testing.T) {
	search := `"channelRenderer":{"channelId":"UCfirstHitfirstHitfirstH","title":{"simpleText":"Other"},"canonicalBaseUrl":"/@other"}` +
		`"channelRenderer":{"channelId":"UCexactMatchexactMatchex","title":{"simpleText":"Creator"},"canonicalBaseUrl":"/@creator"}`

	client := &mockHTTPClient{responses: map[string]*mockResponse{
		"https://www.youtube.com/results?search_query=creator": {statusCode: 200, body: search},
	}}
	s := newTestYouTubeSource(client)

	id := s.searchChannelID(context.Background(), "creator")

	if id != "UCexactMatchexactMatchex" {
		t.Errorf("id = %q, want the exact canonicalBaseUrl match", id)
	}
}

func TestResolveChannelID_SearchFallsBackToFirstHit(t *testing.T) {
	search := `"channelRenderer":{"channelId":"UCfirstHitfirstHitfirstH","title":{"simpleText":"Somebody"},"canonicalBaseUrl":"/@somebody"}`

	client := &mockHTTPClient{responses: map[string]*mockResponse{
		"https://www.youtube.com/results?search_query=creator": {statusCode: 200, body: search},
	}}
	s := newTestYouTubeSource(client)

	id := s.searchChannelID(context.Background(), "creator")

	if id != "UCfirstHitfirstHitfirstH" {
		t.Errorf("id = %q, want first hit", id)
	}
}

func TestResolveChannelID_UnresolvableFailsValidation(t *testing.T) {
	client := &mockHTTPClient{responses: map[string]*mockResponse{}}
	s := newTestYouTubeSource(client)

	_, err := s.ResolveChannelID(context.Background(), "@ghost")

	if !coreerrors.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestDescriptionHTML(t *testing.T) {
	got := descriptionHTML("first line\nsecond line\n\nnew paragraph <tag>")

	if !strings.Contains(got, "first line<br>second line") {
		t.Errorf("line breaks not rendered: %q", got)
	}
	if !strings.Contains(got, "&lt;tag&gt;") {
		t.Errorf("markup not escaped: %q", got)
	}
	if strings.Count(got, "<p>") != 2 {
		t.Errorf("want 2 paragraphs, got %q", got)
	}
}
