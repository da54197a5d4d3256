package api

import (
	"net/http"
)

func (s *Server) listUniverses(w http.ResponseWriter, r *http.Request) {
	universes, err := s.db.ListUniverses(r.Context())
	if err != nil {
		writeInternal(w, s.log, err)
		return
	}
	s.respondJSON(w, http.StatusOK, universes)
}
