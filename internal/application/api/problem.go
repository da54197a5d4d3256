package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ersonp/lore-sharing/internal/domain/entities"
)

// problemDetail implements RFC 7807 (Problem Details for HTTP APIs).
// All error responses use this format.
type problemDetail struct {
	// Type is a URI reference that identifies the problem type.
	Type string `json:"type"`
	// Title is a short, human-readable summary of the problem type.
	Title string `json:"title"`
	// Status is the HTTP status code.
	Status int `json:"status"`
	// Detail is a human-readable explanation specific to this occurrence.
	Detail string `json:"detail,omitempty"`
}

// writeProblem writes an RFC 7807 Problem Detail JSON response.
func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	problem := &problemDetail{
		Type:   fmt.Sprintf("about:blank#%d", status),
		Title:  title,
		Status: status,
		Detail: detail,
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(problem)
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, detail string) {
	writeProblem(w, http.StatusBadRequest, "Bad Request", detail)
}

// writeUnauthorized writes a 401 error response.
func writeUnauthorized(w http.ResponseWriter, detail string) {
	writeProblem(w, http.StatusUnauthorized, "Unauthorized", detail)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, detail string) {
	writeProblem(w, http.StatusNotFound, "Not Found", detail)
}

// writeConflict writes a 409 error response.
func writeConflict(w http.ResponseWriter, detail string) {
	writeProblem(w, http.StatusConflict, "Conflict", detail)
}

// writePreconditionFailed writes a 412 error response.
func writePreconditionFailed(w http.ResponseWriter, detail string) {
	writeProblem(w, http.StatusPreconditionFailed, "Precondition Failed", detail)
}

// writeInternal logs the real error and writes an opaque 500 response.
func writeInternal(w http.ResponseWriter, log *slog.Logger, err error) {
	log.Error("request failed", "err", err)
	writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
}

// writeDomainError maps domain sentinel errors onto the response. Any
// error not covered by a sentinel is internal.
func writeDomainError(w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, entities.ErrNotFound):
		writeNotFound(w, err.Error())
	case errors.Is(err, entities.ErrStale):
		writePreconditionFailed(w, err.Error())
	case errors.Is(err, entities.ErrNoFields):
		writeBadRequest(w, err.Error())
	case errors.Is(err, entities.ErrUnknownToken):
		writeUnauthorized(w, err.Error())
	case errors.Is(err, entities.ErrTokenRace):
		writeConflict(w, err.Error())
	default:
		writeInternal(w, log, err)
	}
}
