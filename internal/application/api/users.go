package api

import (
	"net/http"

	"github.com/ersonp/lore-sharing/internal/domain/entities"
)

// createUserRequest is the body of POST /users.
type createUserRequest struct {
	Nickname    string  `json:"nickname" validate:"required"`
	Description *string `json:"description"`
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.db.ListUsers(r.Context())
	if err != nil {
		writeInternal(w, s.log, err)
		return
	}
	s.respondJSON(w, http.StatusOK, users)
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	user, err := s.db.CreateUser(r.Context(), req.Nickname, req.Description)
	if err != nil {
		writeInternal(w, s.log, err)
		return
	}
	s.respondCreated(w, locationPath("/users", user.ID), user)
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	user, err := s.db.FindUserByID(r.Context(), id)
	if err != nil {
		writeInternal(w, s.log, err)
		return
	}
	if user == nil {
		writeNotFound(w, "user not found")
		return
	}
	s.respondConditional(w, r, user)
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var upd entities.UserUpdate
	if !s.decodeJSON(w, r, &upd) {
		return
	}

	if err := s.db.UpdateUser(r.Context(), id, upd); err != nil {
		writeDomainError(w, s.log, err)
		return
	}

	user, err := s.db.FindUserByID(r.Context(), id)
	if err != nil {
		writeInternal(w, s.log, err)
		return
	}
	if user == nil {
		writeNotFound(w, "user not found")
		return
	}

	tag, ok := s.resourceTag(w, user)
	if !ok {
		return
	}
	w.Header().Set("Etag", tag)
	s.respondJSON(w, http.StatusOK, user)
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := s.db.DeleteUser(r.Context(), id); err != nil {
		writeDomainError(w, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
