// ABOUTME: Subscription listing and the GReader write endpoints
// ABOUTME: edit-tag and mark-all-as-read mutate per-user article state

package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"yana/api/middleware"
	"yana/core/domain"
	"yana/core/stream"
)

const labelPrefix = "user/-/label/"

// subscription is one feed entry of the subscription list
type subscription struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Categories    []category `json:"categories"`
	SortID        string     `json:"sortid"`
	FirstItemMsec string     `json:"firstitemmsec"`
	HTMLURL       string     `json:"htmlUrl"`
}

type category struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// SubscriptionList reports the user's feeds with their group labels
func (h *GReaderHandler) SubscriptionList(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	ctx := r.Context()

	feeds, err := h.feeds.ListFeedsForUser(ctx, user.ID)
	if err != nil {
		h.internalError(w, "subscription list failed", err)
		return
	}

	groups, err := h.feeds.ListGroups(ctx, user.ID)
	if err != nil {
		h.internalError(w, "group list failed", err)
		return
	}

	labels := make(map[int64][]category)
	for _, g := range groups {
		ids, err := h.feeds.FeedIDsInGroup(ctx, user.ID, g.Name)
		if err != nil {
			h.internalError(w, "group resolution failed", err)
			return
		}
		for _, id := range ids {
			labels[id] = append(labels[id], category{
				ID:    labelPrefix + g.Name,
				Label: g.Name,
			})
		}
	}

	subs := make([]subscription, 0, len(feeds))
	for _, f := range feeds {
		cats := labels[f.ID]
		if cats == nil {
			cats = []category{}
		}
		subs = append(subs, subscription{
			ID:            "feed/" + strconv.FormatInt(f.ID, 10),
			Title:         f.Name,
			Categories:    cats,
			FirstItemMsec: "0",
			HTMLURL:       f.Identifier,
		})
	}

	writeJSON(w, map[string][]subscription{"subscriptions": subs})
}

// SubscriptionEdit handles subscribe, unsubscribe and edit actions
func (h *GReaderHandler) SubscriptionEdit(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	if !h.requireWriteToken(w, r) {
		return
	}

	ctx := r.Context()
	streamID := r.Form.Get("s")
	title := r.Form.Get("t")

	switch r.Form.Get("ac") {
	case "subscribe":
		identifier := strings.TrimPrefix(streamID, "feed/")
		if identifier == "" {
			http.Error(w, "Error=MissingStream", http.StatusBadRequest)
			return
		}
		if title == "" {
			title = identifier
		}
		feed := &domain.Feed{
			UserID:     &user.ID,
			Kind:       domain.KindFeedContent,
			Identifier: identifier,
			Name:       title,
			Enabled:    true,
			Options:    domain.Options{},
		}
		if err := h.feeds.CreateFeed(ctx, feed); err != nil {
			h.internalError(w, "subscribe failed", err)
			return
		}
		if label := labelName(r.Form.Get("a")); label != "" {
			if err := h.feeds.AssignGroup(ctx, user.ID, feed.ID, label); err != nil {
				h.internalError(w, "label assignment failed", err)
				return
			}
		}

	case "unsubscribe":
		feed, ok := h.ownedFeed(w, r, streamID)
		if !ok {
			return
		}
		if err := h.feeds.DeleteFeed(ctx, feed.ID); err != nil {
			h.internalError(w, "unsubscribe failed", err)
			return
		}

	case "edit":
		feed, ok := h.ownedFeed(w, r, streamID)
		if !ok {
			return
		}
		if title != "" && title != feed.Name {
			feed.Name = title
			if err := h.feeds.UpdateFeed(ctx, feed); err != nil {
				h.internalError(w, "rename failed", err)
				return
			}
		}
		if label := labelName(r.Form.Get("a")); label != "" {
			if err := h.feeds.AssignGroup(ctx, user.ID, feed.ID, label); err != nil {
				h.internalError(w, "label assignment failed", err)
				return
			}
		}
		if label := labelName(r.Form.Get("r")); label != "" {
			if err := h.feeds.RemoveFromGroup(ctx, user.ID, feed.ID, label); err != nil {
				h.internalError(w, "label removal failed", err)
				return
			}
		}

	default:
		http.Error(w, "Error=UnknownAction", http.StatusBadRequest)
		return
	}

	writeOK(w)
}

// EditTag toggles the read and starred flags on the named items
func (h *GReaderHandler) EditTag(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	if !h.requireWriteToken(w, r) {
		return
	}

	var ids []int64
	for _, raw := range r.Form["i"] {
		if id := stream.ParseItemID(raw); id > 0 {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		http.Error(w, "Error=NoItems", http.StatusBadRequest)
		return
	}

	add := r.Form.Get("a")
	remove := r.Form.Get("r")

	for _, id := range ids {
		if err := h.applyTag(r, user.ID, id, add, true); err != nil {
			h.internalError(w, "edit-tag failed", err)
			return
		}
		if err := h.applyTag(r, user.ID, id, remove, false); err != nil {
			h.internalError(w, "edit-tag failed", err)
			return
		}
	}
	writeOK(w)
}

func (h *GReaderHandler) applyTag(r *http.Request, userID, articleID int64, tag string, value bool) error {
	switch tag {
	case stream.StreamRead:
		return h.states.SetRead(r.Context(), userID, articleID, value)
	case stream.StreamStarred:
		return h.states.SetSaved(r.Context(), userID, articleID, value)
	}
	return nil
}

// MarkAllAsRead marks a whole stream read, bounded by the ts parameter
// (microseconds since the epoch).
func (h *GReaderHandler) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	if !h.requireWriteToken(w, r) {
		return
	}
	ctx := r.Context()

	parsed, err := stream.ParseStream(r.Form.Get("s"))
	if err != nil {
		h.streamError(w, err)
		return
	}

	var feedIDs []int64
	switch parsed.Kind {
	case stream.StreamFeed:
		feedIDs = []int64{parsed.FeedID}
	case stream.StreamLabel:
		feedIDs, err = h.feeds.FeedIDsInGroup(ctx, user.ID, parsed.Label)
		if err != nil {
			h.internalError(w, "group resolution failed", err)
			return
		}
	default:
		feeds, err := h.feeds.ListFeedsForUser(ctx, user.ID)
		if err != nil {
			h.internalError(w, "feed list failed", err)
			return
		}
		for _, f := range feeds {
			feedIDs = append(feedIDs, f.ID)
		}
	}

	var olderThan time.Time
	if usec, err := strconv.ParseInt(r.Form.Get("ts"), 10, 64); err == nil && usec > 0 {
		olderThan = time.UnixMicro(usec).UTC()
	}

	if err := h.states.MarkAllRead(ctx, user.ID, feedIDs, olderThan); err != nil {
		h.internalError(w, "mark-all-as-read failed", err)
		return
	}
	writeOK(w)
}

// requireWriteToken parses the form and validates the T parameter against
// the caller's login token.
func (h *GReaderHandler) requireWriteToken(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Error=BadRequest", http.StatusBadRequest)
		return false
	}

	token := middleware.TokenFrom(r.Context())
	if !h.auth.CheckWriteToken(token, r.Form.Get("T")) {
		w.Header().Set("X-Reader-Google-Bad-Token", "true")
		http.Error(w, "Error=InvalidToken", http.StatusUnauthorized)
		return false
	}
	return true
}

// ownedFeed resolves a feed/{id} stream to a feed the caller may edit
func (h *GReaderHandler) ownedFeed(w http.ResponseWriter, r *http.Request, streamID string) (*domain.Feed, bool) {
	parsed, err := stream.ParseStream(streamID)
	if err != nil || parsed.Kind != stream.StreamFeed {
		http.Error(w, "Error=InvalidStream", http.StatusBadRequest)
		return nil, false
	}

	feed, err := h.feeds.GetFeed(r.Context(), parsed.FeedID)
	if err != nil {
		http.Error(w, "Error=UnknownFeed", http.StatusNotFound)
		return nil, false
	}

	user := middleware.UserFrom(r.Context())
	if feed.UserID != nil && *feed.UserID != user.ID {
		http.Error(w, "Error=Forbidden", http.StatusForbidden)
		return nil, false
	}
	return feed, true
}

func labelName(tag string) string {
	return strings.TrimPrefix(tag, labelPrefix)
}
