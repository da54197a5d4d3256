package api

import (
	"net/http"

	"github.com/ersonp/lore-sharing/internal/domain/entities"
	"github.com/ersonp/lore-sharing/internal/domain/services"
)

// createEventRequest is the body of POST /events.
type createEventRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description" validate:"required"`
	Reference   string  `json:"reference" validate:"required"`
	Image       *string `json:"image"`
	Thumbnail   *string `json:"thumbnail"`
	AuthorID    int64   `json:"author_id" validate:"required"`
}

// updateEventRequest is the body of PUT /events/{id}. Only supplied
// fields are applied; author_id scopes the update.
type updateEventRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Reference   *string `json:"reference"`
	Image       *string `json:"image"`
	Thumbnail   *string `json:"thumbnail"`
	AuthorID    int64   `json:"author_id" validate:"required"`
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	params := parsePageParams(r)

	events, err := s.db.ListEvents(r.Context(), params.limit(), params.offset())
	if err != nil {
		writeInternal(w, s.log, err)
		return
	}

	w.Header().Set("Link", params.linkHeader("/events", len(events)))
	s.respondJSON(w, http.StatusOK, events)
}

func (s *Server) createEvent(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	event, err := s.db.CreateEvent(r.Context(), &entities.Event{
		Name:        req.Name,
		Description: req.Description,
		Reference:   req.Reference,
		Image:       req.Image,
		Thumbnail:   req.Thumbnail,
		AuthorID:    req.AuthorID,
	})
	if err != nil {
		writeInternal(w, s.log, err)
		return
	}
	s.respondCreated(w, locationPath("/events", event.ID), event)
}

func (s *Server) getEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	event, err := s.db.FindEventByID(r.Context(), id)
	if err != nil {
		writeInternal(w, s.log, err)
		return
	}
	if event == nil {
		writeNotFound(w, "event not found")
		return
	}
	s.respondConditional(w, r, event)
}

// updateEvent applies a conditional update. The If-Match check and the
// store-level compare-and-swap both run against the same freshly read
// snapshot, so a row that changes after the check still fails with 412
// rather than being overwritten.
func (s *Server) updateEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req updateEventRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	prev, err := s.db.FindEventByID(r.Context(), id)
	if err != nil {
		writeInternal(w, s.log, err)
		return
	}
	if prev == nil {
		writeNotFound(w, "event not found")
		return
	}

	tag, ok := s.resourceTag(w, prev)
	if !ok {
		return
	}
	if !services.EvaluateIfMatch(r.Header.Get("If-Match"), tag) {
		writePreconditionFailed(w, "resource changed since last read")
		return
	}

	upd := entities.EventUpdate{
		Name:        req.Name,
		Description: req.Description,
		Reference:   req.Reference,
		Image:       req.Image,
		Thumbnail:   req.Thumbnail,
		AuthorID:    req.AuthorID,
	}
	if err := s.db.UpdateEvent(r.Context(), prev, upd); err != nil {
		writeDomainError(w, s.log, err)
		return
	}

	updated, err := s.db.FindEventByID(r.Context(), id)
	if err != nil {
		writeInternal(w, s.log, err)
		return
	}
	if updated == nil {
		writeNotFound(w, "event not found")
		return
	}

	newTag, ok := s.resourceTag(w, updated)
	if !ok {
		return
	}
	w.Header().Set("Etag", newTag)
	s.respondJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := s.db.DeleteEvent(r.Context(), id); err != nil {
		writeDomainError(w, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listEventTimelines(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	links, err := s.db.ListTimelinesForEvent(r.Context(), id)
	if err != nil {
		writeInternal(w, s.log, err)
		return
	}
	s.respondJSON(w, http.StatusOK, links)
}
