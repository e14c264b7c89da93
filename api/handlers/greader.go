// ABOUTME: Google Reader compatible handler surface for reader clients
// ABOUTME: ClientLogin, user-info, unread counts and the stream read endpoints

package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"yana/api/middleware"
	"yana/core/auth"
	coreerrors "yana/core/errors"
	"yana/core/interfaces"
	"yana/core/stream"
)

// GReaderHandler serves the Google Reader REST surface
type GReaderHandler struct {
	auth   *auth.Service
	stream *stream.Service
	feeds  interfaces.FeedStore
	states interfaces.StateStore
	logger interfaces.Logger
}

func NewGReaderHandler(
	authSvc *auth.Service,
	streamSvc *stream.Service,
	feeds interfaces.FeedStore,
	states interfaces.StateStore,
	logger interfaces.Logger,
) *GReaderHandler {
	return &GReaderHandler{
		auth:   authSvc,
		stream: streamSvc,
		feeds:  feeds,
		states: states,
		logger: logger,
	}
}

// RegisterRoutes mounts the GReader endpoints. The reader API subtree is
// wrapped in token authentication; ClientLogin is open.
func (h *GReaderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/accounts/ClientLogin", h.ClientLogin)

	r.Route("/reader/api/0", func(r chi.Router) {
		r.Use(middleware.Authenticate(h.auth))

		r.Get("/token", h.Token)
		r.Get("/user-info", h.UserInfo)
		r.Get("/subscription/list", h.SubscriptionList)
		r.Post("/subscription/edit", h.SubscriptionEdit)
		r.Get("/unread-count", h.UnreadCount)
		r.Get("/stream/items/ids", h.StreamItemIDs)
		r.Get("/stream/contents/*", h.StreamContents)
		r.Get("/stream/contents", h.StreamContents)
		r.Post("/edit-tag", h.EditTag)
		r.Post("/mark-all-as-read", h.MarkAllAsRead)
	})
}

// ClientLogin exchanges credentials for a login token in the legacy
// Auth/SID/LSID body format.
func (h *GReaderHandler) ClientLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Error=BadRequest", http.StatusBadRequest)
		return
	}

	name := r.Form.Get("Email")
	password := r.Form.Get("Passwd")

	token, err := h.auth.Login(r.Context(), name, password)
	if err == auth.ErrInvalidCredentials {
		http.Error(w, "Error=BadAuthentication", http.StatusForbidden)
		return
	}
	if err != nil {
		h.internalError(w, "login failed", err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=UTF-8")
	fmt.Fprintf(w, "SID=%s\nLSID=%s\nAuth=%s\n", token, token, token)
}

// Token hands out the short-lived write token for the caller's session
func (h *GReaderHandler) Token(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=UTF-8")
	fmt.Fprint(w, h.auth.WriteToken(middleware.TokenFrom(r.Context())))
}

// UserInfo reports the authenticated account
func (h *GReaderHandler) UserInfo(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	writeJSON(w, map[string]string{
		"userId":        strconv.FormatInt(user.ID, 10),
		"userName":      user.Name,
		"userProfileId": strconv.FormatInt(user.ID, 10),
		"userEmail":     user.Email,
	})
}

// UnreadCount serves the aggregated per-feed unread totals
func (h *GReaderHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	includeAll := r.URL.Query().Get("all") == "true"

	resp, err := h.stream.UnreadCount(r.Context(), user.ID, includeAll)
	if err != nil {
		h.internalError(w, "unread count failed", err)
		return
	}
	writeJSON(w, resp)
}

// StreamItemIDs lists matching article ids
func (h *GReaderHandler) StreamItemIDs(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())

	resp, err := h.stream.ItemIDs(r.Context(), user.ID, streamQuery(r, ""))
	if err != nil {
		h.streamError(w, err)
		return
	}
	writeJSON(w, resp)
}

// StreamContents serves the full item envelope with continuation paging.
// The stream id arrives as the wildcard path suffix or the s parameter.
func (h *GReaderHandler) StreamContents(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())

	streamID := chi.URLParam(r, "*")
	if unescaped, err := url.PathUnescape(streamID); err == nil {
		streamID = unescaped
	}

	resp, err := h.stream.Contents(r.Context(), user.ID, streamQuery(r, streamID))
	if err != nil {
		h.streamError(w, err)
		return
	}
	writeJSON(w, resp)
}

// streamQuery maps the GReader request parameters onto a stream query
func streamQuery(r *http.Request, pathStreamID string) stream.Query {
	params := r.URL.Query()

	q := stream.Query{
		StreamID:     pathStreamID,
		ExcludeTag:   params.Get("xt"),
		IncludeTag:   params.Get("it"),
		Continuation: params.Get("c"),
		Reverse:      params.Get("r") == "o",
	}
	if q.StreamID == "" {
		q.StreamID = params.Get("s")
	}
	if n, err := strconv.Atoi(params.Get("n")); err == nil {
		q.Limit = n
	}
	if ot, err := strconv.ParseInt(params.Get("ot"), 10, 64); err == nil {
		q.OlderThan = ot
	}
	for _, raw := range params["i"] {
		if id := stream.ParseItemID(raw); id > 0 {
			q.ItemIDs = append(q.ItemIDs, id)
		}
	}
	return q
}

func (h *GReaderHandler) streamError(w http.ResponseWriter, err error) {
	if coreerrors.IsValidation(err) {
		http.Error(w, "Error=InvalidStream", http.StatusBadRequest)
		return
	}
	h.internalError(w, "stream request failed", err)
}

func (h *GReaderHandler) internalError(w http.ResponseWriter, msg string, err error) {
	h.logger.Error(msg, map[string]interface{}{"error": err.Error()})
	http.Error(w, "Error=Internal", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	_ = json.NewEncoder(w).Encode(v)
}

func writeOK(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=UTF-8")
	fmt.Fprint(w, "OK")
}
