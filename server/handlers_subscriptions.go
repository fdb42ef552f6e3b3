package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ytlists/auth"
	"ytlists/catalog"
	"ytlists/youtube"
)

func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	order, err := catalog.ParseOrder(r.URL.Query().Get("sort"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap := s.cache.Load()
	if !snap.Available {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"available": false})
		return
	}

	items := catalog.Sort(snap.Items, order)
	if q := r.URL.Query().Get("q"); q != "" {
		items = catalog.FilterByTitle(items, q)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"available": true,
		"count":     len(snap.Items),
		"updatedAt": snap.UpdatedAt,
		"items":     items,
	})
}

func (s *Server) handleExportSubscriptions(w http.ResponseWriter, r *http.Request) {
	snap := s.cache.Load()
	if !snap.Available {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"available": false})
		return
	}
	data, err := snap.JSON()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="subscriptions.json"`)
	w.Write(data)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.session.Credential(); !ok {
		writeError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	if err := s.fetcher.FetchAll(r.Context()); err != nil {
		s.writeUpstreamError(w, err)
		return
	}
	count, available := s.cache.Count()
	writeJSON(w, http.StatusOK, map[string]any{"available": available, "count": count})
}

func (s *Server) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.session.Credential(); !ok {
		writeError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.fetcher.Unsubscribe(r.Context(), id); err != nil {
		s.writeUpstreamError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleChannelDetails(w http.ResponseWriter, r *http.Request) {
	d, err := s.fetcher.ChannelDetails(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, youtube.ErrNoCredential):
		writeError(w, http.StatusUnauthorized, "not signed in")
	case errors.Is(err, youtube.ErrChannelNotFound):
		writeError(w, http.StatusNotFound, "channel not found")
	case err != nil:
		s.writeUpstreamError(w, err)
	default:
		writeJSON(w, http.StatusOK, d)
	}
}

// writeUpstreamError maps a provider failure to a response. A rejected
// credential is reported as 401 so the client can prompt a new login.
func (s *Server) writeUpstreamError(w http.ResponseWriter, err error) {
	err = auth.ClassifyError(err)
	if errors.Is(err, auth.ErrCredentialRejected) {
		writeError(w, http.StatusUnauthorized, "credential rejected, sign in again")
		return
	}
	s.log.Warn().Err(err).Msg("upstream request failed")
	writeError(w, http.StatusBadGateway, err.Error())
}
