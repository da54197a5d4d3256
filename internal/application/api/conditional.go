package api

import (
	"net/http"

	"github.com/ersonp/lore-sharing/internal/domain/services"
)

// resourceTag computes the fingerprint tag for a freshly read resource
// and writes the 500 itself on failure.
func (s *Server) resourceTag(w http.ResponseWriter, v any) (string, bool) {
	tag, err := services.ComputeTag(v)
	if err != nil {
		writeInternal(w, s.log, err)
		return "", false
	}
	return tag, true
}

// respondConditional writes v with its ETag, honoring If-None-Match: a
// matching client tag gets 304 with the ETag and no body.
func (s *Server) respondConditional(w http.ResponseWriter, r *http.Request, v any) {
	tag, ok := s.resourceTag(w, v)
	if !ok {
		return
	}
	w.Header().Set("Etag", tag)
	if !services.EvaluateIfNoneMatch(r.Header.Get("If-None-Match"), tag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	s.respondJSON(w, http.StatusOK, v)
}

// respondCreated writes a 201 with the resource body, its ETag, and a
// Location header.
func (s *Server) respondCreated(w http.ResponseWriter, location string, v any) {
	tag, ok := s.resourceTag(w, v)
	if !ok {
		return
	}
	w.Header().Set("Etag", tag)
	w.Header().Set("Location", location)
	s.respondJSON(w, http.StatusCreated, v)
}
