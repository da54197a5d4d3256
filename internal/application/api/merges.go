package api

import (
	"net/http"
)

// createMergeRequest is the body of POST /timelines_merges.
type createMergeRequest struct {
	SourceTimelineID int64 `json:"source_timeline_id" validate:"required"`
	TargetTimelineID int64 `json:"target_timeline_id" validate:"required"`
}

func (s *Server) listMerges(w http.ResponseWriter, r *http.Request) {
	merges, err := s.merges.List(r.Context())
	if err != nil {
		writeInternal(w, s.log, err)
		return
	}
	s.respondJSON(w, http.StatusOK, merges)
}

func (s *Server) createMerge(w http.ResponseWriter, r *http.Request) {
	var req createMergeRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	merge, err := s.merges.Merge(r.Context(), req.SourceTimelineID, req.TargetTimelineID)
	if err != nil {
		writeDomainError(w, s.log, err)
		return
	}
	s.respondCreated(w, locationPath("/timelines_merges", merge.ID), merge)
}

func (s *Server) getMerge(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	merge, err := s.merges.Get(r.Context(), id)
	if err != nil {
		writeInternal(w, s.log, err)
		return
	}
	if merge == nil {
		writeNotFound(w, "merge not found")
		return
	}
	s.respondConditional(w, r, merge)
}

func (s *Server) deleteMerge(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := s.merges.Delete(r.Context(), id); err != nil {
		writeDomainError(w, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
