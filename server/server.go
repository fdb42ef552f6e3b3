// Package server exposes the session, catalog and lists over a local JSON
// API for front ends running next to the process.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"ytlists/auth"
	"ytlists/catalog"
	"ytlists/internal/logging"
	"ytlists/lists"
)

// Session is the part of auth.Session the API uses.
type Session interface {
	LoginURL() string
	Credential() (string, bool)
	Profile() (*auth.Profile, bool)
	Logout(ctx context.Context, navigate func(path string)) error
}

// Fetcher is the part of youtube.Fetcher the API uses.
type Fetcher interface {
	FetchAll(ctx context.Context) error
	Unsubscribe(ctx context.Context, subscriptionID string) error
	ChannelDetails(ctx context.Context, channelID string) (*catalog.Details, error)
}

// Server serves the local API.
type Server struct {
	session Session
	fetcher Fetcher
	cache   *catalog.Cache
	lists   *lists.Store
	log     zerolog.Logger
}

// NewServer creates a server over the given components.
func NewServer(session Session, fetcher Fetcher, cache *catalog.Cache, store *lists.Store) *Server {
	return &Server{
		session: session,
		fetcher: fetcher,
		cache:   cache,
		lists:   store,
		log:     logging.For("server"),
	}
}

// Router returns the API routes with middlewares applied first.
func (s *Server) Router(middlewares ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer, s.logRequests)
	for _, mw := range middlewares {
		r.Use(mw)
	}

	r.Get("/health", s.handleHealth)

	r.Get("/login", s.handleLogin)
	r.Post("/logout", s.handleLogout)
	r.Get("/me", s.handleMe)

	r.Get("/subscriptions", s.handleListSubscriptions)
	r.Get("/subscriptions/export", s.handleExportSubscriptions)
	r.Post("/subscriptions/refresh", s.handleRefresh)
	r.Delete("/subscriptions/{id}", s.handleUnsubscribe)
	r.Get("/channels/{id}", s.handleChannelDetails)

	r.Get("/lists", s.handleListLists)
	r.Post("/lists", s.handleCreateList)
	r.Get("/lists/{name}", s.handleGetList)
	r.Delete("/lists/{name}", s.handleDeleteList)
	r.Post("/lists/{name}/channels/{id}", s.handleToggleChannel)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	_, signedIn := s.session.Credential()
	count, available := s.cache.Count()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"signedIn":  signedIn,
		"available": available,
		"count":     count,
		"lists":     s.lists.ListCount(),
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
