// ABOUTME: HTTP server assembly for the reader API
// ABOUTME: chi router with CORS, request logging and the GReader routes

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"

	"yana/api/handlers"
	"yana/api/middleware"
	"yana/core/auth"
	"yana/core/interfaces"
	"yana/core/stream"
)

// Server wraps the router and the underlying http.Server
type Server struct {
	router chi.Router
	srv    *http.Server
	logger interfaces.Logger
}

// NewServer wires the middleware stack and the GReader handler onto a
// fresh router listening on the given port.
func NewServer(
	port string,
	authSvc *auth.Service,
	streamSvc *stream.Service,
	feeds interfaces.FeedStore,
	states interfaces.StateStore,
	logger interfaces.Logger,
) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RequestLogging(logger))
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	}).Handler)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=UTF-8")
		w.Write([]byte(`{"status":"ok"}`))
	})

	handlers.NewGReaderHandler(authSvc, streamSvc, feeds, states, logger).RegisterRoutes(r)

	return &Server{
		router: r,
		srv: &http.Server{
			Addr:         ":" + port,
			Handler:      r,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		logger: logger,
	}
}

// Handler exposes the router for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe blocks serving requests until Shutdown or failure
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", map[string]interface{}{
		"addr": s.srv.Addr,
	})
	return s.srv.ListenAndServe()
}

// Shutdown drains in-flight requests until the context expires
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
