package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ytlists/lists"
)

func (s *Server) handleListLists(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.lists.Lists())
}

func (s *Server) handleCreateList(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	err := s.lists.CreateList(r.Context(), body.Name)
	switch {
	case errors.Is(err, lists.ErrListExists):
		writeError(w, http.StatusConflict, err.Error())
	case lists.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		s.log.Error().Err(err).Msg("create list")
		writeError(w, http.StatusInternalServerError, "could not save lists")
	default:
		writeJSON(w, http.StatusCreated, map[string]string{"name": lists.NormalizeName(body.Name)})
	}
}

func (s *Server) handleGetList(w http.ResponseWriter, r *http.Request) {
	chans, ok := s.lists.Channels(chi.URLParam(r, "name"))
	if !ok {
		writeError(w, http.StatusNotFound, "list not found")
		return
	}
	writeJSON(w, http.StatusOK, chans)
}

func (s *Server) handleDeleteList(w http.ResponseWriter, r *http.Request) {
	if err := s.lists.DeleteList(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.log.Error().Err(err).Msg("delete list")
		writeError(w, http.StatusInternalServerError, "could not save lists")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleToggleChannel copies the catalog item with the given subscription id
// into the list, or takes it out again.
func (s *Server) handleToggleChannel(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	item, ok := s.cache.Load().Find(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "subscription not in the current catalog")
		return
	}

	added, err := s.lists.ToggleChannel(r.Context(), name, item)
	if err != nil {
		if lists.IsValidation(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.log.Error().Err(err).Msg("toggle channel")
		writeError(w, http.StatusInternalServerError, "could not save lists")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"added": added,
		"count": s.lists.ChannelCount(name),
	})
}
