package server

import (
	"net/http"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"url": s.session.LoginURL()})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var location string
	if err := s.session.Logout(r.Context(), func(path string) { location = path }); err != nil {
		s.log.Error().Err(err).Msg("logout")
		writeError(w, http.StatusInternalServerError, "logout failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"location": location})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.session.Credential(); !ok {
		writeError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	p, ok := s.session.Profile()
	if !ok {
		// Signed in, profile not fetched (yet or at all).
		writeJSON(w, http.StatusOK, map[string]any{"signedIn": true})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"signedIn": true, "profile": p})
}
