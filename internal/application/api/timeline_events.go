package api

import (
	"fmt"
	"net/http"

	"github.com/ersonp/lore-sharing/internal/domain/entities"
)

// createTimelineEventRequest is the body of POST /timelines/{id}/events.
type createTimelineEventRequest struct {
	EventID  int64 `json:"event_id" validate:"required"`
	Position int64 `json:"position"`
}

// updateTimelineEventRequest is the body of
// PUT /timelines/{id}/events/{event_id}.
type updateTimelineEventRequest struct {
	Position *int64 `json:"position"`
}

func (s *Server) listTimelineEvents(w http.ResponseWriter, r *http.Request) {
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

	links, err := s.db.ListEventsForTimeline(r.Context(), id)
	if err != nil {
		writeInternal(w, s.log, err)
		return
	}
	s.respondJSON(w, http.StatusOK, links)
}

// createTimelineEvent places an event on a timeline. Placing an already
// placed event returns the existing link unchanged, so a retried create
// never moves an event.
func (s *Server) createTimelineEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req createTimelineEventRequest
	if !s.decodeJSON(w, r, &req) {
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

	link, err := s.db.CreateTimelineEvent(r.Context(), &entities.TimelineEvent{
		TimelineID: id,
		EventID:    req.EventID,
		Position:   req.Position,
	})
	if err != nil {
		writeInternal(w, s.log, err)
		return
	}
	s.respondCreated(w, timelineEventLocation(id, req.EventID), link)
}

func (s *Server) getTimelineEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	eventID, ok := pathID(w, r, "event_id")
	if !ok {
		return
	}

	link, err := s.db.FindTimelineEvent(r.Context(), id, eventID)
	if err != nil {
		writeInternal(w, s.log, err)
		return
	}
	if link == nil {
		writeNotFound(w, "timeline event not found")
		return
	}
	s.respondConditional(w, r, link)
}

func (s *Server) updateTimelineEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	eventID, ok := pathID(w, r, "event_id")
	if !ok {
		return
	}

	var req updateTimelineEventRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	upd := entities.TimelineEventUpdate{Position: req.Position}
	if err := s.db.UpdateTimelineEvent(r.Context(), id, eventID, upd); err != nil {
		writeDomainError(w, s.log, err)
		return
	}

	link, err := s.db.FindTimelineEvent(r.Context(), id, eventID)
	if err != nil {
		writeInternal(w, s.log, err)
		return
	}
	if link == nil {
		writeNotFound(w, "timeline event not found")
		return
	}

	tag, ok := s.resourceTag(w, link)
	if !ok {
		return
	}
	w.Header().Set("Etag", tag)
	s.respondJSON(w, http.StatusOK, link)
}

func (s *Server) deleteTimelineEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	eventID, ok := pathID(w, r, "event_id")
	if !ok {
		return
	}

	if err := s.db.DeleteTimelineEvent(r.Context(), id, eventID); err != nil {
		writeDomainError(w, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func timelineEventLocation(timelineID, eventID int64) string {
	return fmt.Sprintf("/timelines/%d/events/%d", timelineID, eventID)
}
