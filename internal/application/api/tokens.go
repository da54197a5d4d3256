package api

import (
	"net/http"
)

// issueToken mints a fresh one-time token. The endpoint deliberately has
// no inputs; a client asks for a token before each mutation it may need
// to retry.
func (s *Server) issueToken(w http.ResponseWriter, r *http.Request) {
	token, err := s.tokens.Issue(r.Context())
	if err != nil {
		writeInternal(w, s.log, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"token": token})
}
