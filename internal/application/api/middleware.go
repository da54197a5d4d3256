package api

import (
	"bytes"
	"context"
	"net/http"
	"strings"

	"github.com/felixge/httpsnoop"

	"github.com/ersonp/lore-sharing/internal/domain/entities"
	"github.com/ersonp/lore-sharing/internal/domain/services"
)

// requestLogger logs one line per handled request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		s.log.Info("handled", "method", r.Method, "url", r.URL, "duration", m.Duration, "status", m.Code)
	})
}

// responseCapture wraps http.ResponseWriter to record the response that
// goes out, so it can be stored against a one-time token.
type responseCapture struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
}

func (rc *responseCapture) WriteHeader(code int) {
	rc.statusCode = code
	rc.ResponseWriter.WriteHeader(code)
}

func (rc *responseCapture) Write(b []byte) (int, error) {
	rc.body.Write(b)
	return rc.ResponseWriter.Write(b)
}

// bearerToken extracts the token from an Authorization: Bearer header.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}
	return strings.TrimSpace(auth[len(prefix):])
}

// idempotencyGate claims the caller's one-time token before any mutating
// handler runs. A request without a token is processed normally; a
// replayed token short-circuits with the stored response; exactly one
// request per token ever reaches the handler, and its response is
// recorded immediately after the handler returns.
func (s *Server) idempotencyGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		default:
			next.ServeHTTP(w, r)
			return
		}

		token := bearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		result, err := s.tokens.Claim(r.Context(), token)
		if err != nil {
			writeInternal(w, s.log, err)
			return
		}

		switch result.Outcome {
		case services.ClaimUnknownToken:
			writeDomainError(w, s.log, entities.ErrUnknownToken)
			return
		case services.ClaimRaceLost:
			writeDomainError(w, s.log, entities.ErrTokenRace)
			return
		case services.ClaimReplay:
			for name, value := range result.Headers {
				w.Header().Set(name, value)
			}
			w.WriteHeader(result.Status)
			_, _ = w.Write(result.Body)
			return
		}

		// First use: run the handler and store whatever it responds.
		capture := &responseCapture{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(capture, r)

		// The mutation committed, so the response must be recorded even
		// when the client has already disconnected; a request-scoped
		// context here would strand the token as 409 forever.
		recordCtx := context.WithoutCancel(r.Context())
		headers := entities.NewHeaderBag(capture.Header())
		if err := s.tokens.RecordResponse(recordCtx, token, capture.statusCode, headers, capture.body.Bytes()); err != nil {
			// The mutation happened; the response just can't be replayed.
			s.log.Error("recording token response", "token", token, "err", err)
		}
	})
}
