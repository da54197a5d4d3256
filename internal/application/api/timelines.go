package api

import (
	"net/http"

	"github.com/ersonp/lore-sharing/internal/domain/entities"
)

// createTimelineRequest is the body of POST /timelines.
type createTimelineRequest struct {
	AuthorID     int64  `json:"author_id" validate:"required"`
	Description  string `json:"description" validate:"required"`
	Start        int64  `json:"start"`
	End          int64  `json:"end"`
	Unit         string `json:"unit" validate:"required"`
	UniverseName string `json:"universe_name" validate:"required"`
}

// updateTimelineRequest is the body of PUT /timelines/{id}.
type updateTimelineRequest struct {
	Description  *string `json:"description"`
	Start        *int64  `json:"start"`
	End          *int64  `json:"end"`
	Unit         *string `json:"unit"`
	UniverseName *string `json:"universe_name"`
	AuthorID     int64   `json:"author_id" validate:"required"`
}

func (s *Server) listTimelines(w http.ResponseWriter, r *http.Request) {
	timelines, err := s.db.ListTimelines(r.Context())
	if err != nil {
		writeInternal(w, s.log, err)
		return
	}
	s.respondJSON(w, http.StatusOK, timelines)
}

func (s *Server) createTimeline(w http.ResponseWriter, r *http.Request) {
	var req createTimelineRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	timeline, err := s.db.CreateTimeline(r.Context(), &entities.Timeline{
		AuthorID:     req.AuthorID,
		Description:  req.Description,
		Start:        req.Start,
		End:          req.End,
		Unit:         req.Unit,
		UniverseName: req.UniverseName,
	})
	if err != nil {
		writeInternal(w, s.log, err)
		return
	}
	s.respondCreated(w, locationPath("/timelines", timeline.ID), timeline)
}

func (s *Server) getTimeline(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	timeline, err := s.db.FindTimelineByID(r.Context(), id)
	if err != nil {
		writeInternal(w, s.log, err)
		return
	}
	if timeline == nil {
		writeNotFound(w, "timeline not found")
		return
	}
	s.respondConditional(w, r, timeline)
}

func (s *Server) updateTimeline(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req updateTimelineRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	upd := entities.TimelineUpdate{
		Description:  req.Description,
		Start:        req.Start,
		End:          req.End,
		Unit:         req.Unit,
		UniverseName: req.UniverseName,
		AuthorID:     req.AuthorID,
	}
	if err := s.db.UpdateTimeline(r.Context(), id, upd); err != nil {
		writeDomainError(w, s.log, err)
		return
	}

	timeline, err := s.db.FindTimelineByID(r.Context(), id)
	if err != nil {
		writeInternal(w, s.log, err)
		return
	}
	if timeline == nil {
		writeNotFound(w, "timeline not found")
		return
	}

	tag, ok := s.resourceTag(w, timeline)
	if !ok {
		return
	}
	w.Header().Set("Etag", tag)
	s.respondJSON(w, http.StatusOK, timeline)
}

func (s *Server) deleteTimeline(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := s.db.DeleteTimeline(r.Context(), id); err != nil {
		writeDomainError(w, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
