// Package api exposes the lore-sharing service over HTTP. Handlers are
// thin: they decode, validate, call the store or a domain service, and
// encode. All concurrency control lives below this layer.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/ersonp/lore-sharing/internal/domain/ports"
	"github.com/ersonp/lore-sharing/internal/domain/services"
)

// Server holds the handler dependencies and builds the router.
type Server struct {
	log      *slog.Logger
	db       ports.RelationalDB
	tokens   *services.TokenService
	merges   *services.MergeService
	validate *validator.Validate
}

// NewServer creates a new Server.
func NewServer(log *slog.Logger, db ports.RelationalDB) *Server {
	return &Server{
		log:      log,
		db:       db,
		tokens:   services.NewTokenService(db),
		merges:   services.NewMergeService(db),
		validate: validator.New(),
	}
}

// Router builds the HTTP routing table. Every route passes through the
// request logger; every mutating route passes through the idempotency
// gate.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(s.requestLogger)
	r.Use(s.idempotencyGate)

	r.Methods(http.MethodGet).Path("/status").HandlerFunc(s.getStatus)

	r.Methods(http.MethodGet).Path("/users").HandlerFunc(s.listUsers)
	r.Methods(http.MethodPost).Path("/users").HandlerFunc(s.createUser)
	r.Methods(http.MethodGet).Path("/users/{id}").HandlerFunc(s.getUser)
	r.Methods(http.MethodPut).Path("/users/{id}").HandlerFunc(s.updateUser)
	r.Methods(http.MethodDelete).Path("/users/{id}").HandlerFunc(s.deleteUser)

	r.Methods(http.MethodGet).Path("/universes").HandlerFunc(s.listUniverses)

	r.Methods(http.MethodGet).Path("/events").HandlerFunc(s.listEvents)
	r.Methods(http.MethodPost).Path("/events").HandlerFunc(s.createEvent)
	r.Methods(http.MethodGet).Path("/events/{id}").HandlerFunc(s.getEvent)
	r.Methods(http.MethodPut).Path("/events/{id}").HandlerFunc(s.updateEvent)
	r.Methods(http.MethodDelete).Path("/events/{id}").HandlerFunc(s.deleteEvent)
	r.Methods(http.MethodGet).Path("/events/{id}/timelines").HandlerFunc(s.listEventTimelines)

	r.Methods(http.MethodGet).Path("/timelines").HandlerFunc(s.listTimelines)
	r.Methods(http.MethodPost).Path("/timelines").HandlerFunc(s.createTimeline)
	r.Methods(http.MethodGet).Path("/timelines/{id}").HandlerFunc(s.getTimeline)
	r.Methods(http.MethodPut).Path("/timelines/{id}").HandlerFunc(s.updateTimeline)
	r.Methods(http.MethodDelete).Path("/timelines/{id}").HandlerFunc(s.deleteTimeline)

	r.Methods(http.MethodGet).Path("/timelines/{id}/events").HandlerFunc(s.listTimelineEvents)
	r.Methods(http.MethodPost).Path("/timelines/{id}/events").HandlerFunc(s.createTimelineEvent)
	r.Methods(http.MethodGet).Path("/timelines/{id}/events/{event_id}").HandlerFunc(s.getTimelineEvent)
	r.Methods(http.MethodPut).Path("/timelines/{id}/events/{event_id}").HandlerFunc(s.updateTimelineEvent)
	r.Methods(http.MethodDelete).Path("/timelines/{id}/events/{event_id}").HandlerFunc(s.deleteTimelineEvent)

	r.Methods(http.MethodGet).Path("/timelines_merges").HandlerFunc(s.listMerges)
	r.Methods(http.MethodPost).Path("/timelines_merges").HandlerFunc(s.createMerge)
	r.Methods(http.MethodGet).Path("/timelines_merges/{id}").HandlerFunc(s.getMerge)
	r.Methods(http.MethodDelete).Path("/timelines_merges/{id}").HandlerFunc(s.deleteMerge)

	r.Methods(http.MethodGet).Path("/one_time_tokens").HandlerFunc(s.issueToken)

	return r
}

// getStatus reports liveness.
func (s *Server) getStatus(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// respondJSON writes v as a JSON response with the given status.
func (s *Server) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encoding response", "err", err)
	}
}

// decodeJSON decodes and validates a request body into v. It writes the
// error response itself and reports whether decoding succeeded.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		writeBadRequest(w, err.Error())
		return false
	}
	return true
}

// pathID extracts an integer path variable. It writes the error response
// itself and reports whether parsing succeeded.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil {
		writeBadRequest(w, "invalid "+name)
		return 0, false
	}
	return id, true
}

// locationPath renders a Location header value for a created resource.
func locationPath(collection string, id int64) string {
	return fmt.Sprintf("%s/%d", collection, id)
}
