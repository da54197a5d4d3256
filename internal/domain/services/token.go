package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ersonp/lore-sharing/internal/domain/entities"
	"github.com/ersonp/lore-sharing/internal/domain/ports"
)

// ClaimOutcome classifies the result of claiming a one-time token.
type ClaimOutcome int

const (
	// ClaimFirstUse means this caller won the token and must execute the
	// guarded mutation, then record its response exactly once.
	ClaimFirstUse ClaimOutcome = iota
	// ClaimReplay means the token was already consumed and the stored
	// response must be returned verbatim instead of re-executing.
	ClaimReplay
	// ClaimUnknownToken means no record exists for the token.
	ClaimUnknownToken
	// ClaimRaceLost means another caller flipped the token first, or the
	// token was consumed but its response is not recorded yet. The caller
	// must not execute the mutation.
	ClaimRaceLost
)

// ClaimResult is the outcome of a claim. For ClaimReplay it carries the
// exact (status, headers, body) triple stored for the token.
type ClaimResult struct {
	Outcome ClaimOutcome
	Status  int
	Headers entities.HeaderBag
	Body    []byte
}

// TokenService issues one-time tokens and guarantees at-most-once
// execution of the mutation a token guards. The used=false -> true
// transition is a single conditional UPDATE against the store, so the
// guarantee holds across processes without in-process locks: under
// arbitrary concurrency exactly one claim observes a non-zero affected-row
// count.
type TokenService struct {
	db ports.RelationalDB
}

// NewTokenService creates a new TokenService.
func NewTokenService(db ports.RelationalDB) *TokenService {
	return &TokenService{db: db}
}

// Issue creates a new unused token with no cached response and returns
// its value. Token values are random 128-bit identifiers.
func (s *TokenService) Issue(ctx context.Context) (string, error) {
	token := uuid.New().String()
	if err := s.db.InsertToken(ctx, token); err != nil {
		return "", fmt.Errorf("inserting token: %w", err)
	}
	return token, nil
}

// Claim attempts to consume the token. Exactly one concurrent caller ever
// sees ClaimFirstUse for a given token; that caller must execute the
// mutation and call RecordResponse with its outcome.
func (s *TokenService) Claim(ctx context.Context, token string) (*ClaimResult, error) {
	rec, err := s.db.FindToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("finding token: %w", err)
	}
	if rec == nil {
		return &ClaimResult{Outcome: ClaimUnknownToken}, nil
	}

	if rec.Used && rec.HasResponse() {
		return &ClaimResult{
			Outcome: ClaimReplay,
			Status:  *rec.StatusCode,
			Headers: rec.ResponseHeaders,
			Body:    rec.ResponseBody,
		}, nil
	}

	// The read above is advisory; this conditional write is the one
	// atomic decision point. A token that became used between read and
	// write (response not recorded yet) lands here too and loses.
	won, err := s.db.MarkTokenUsed(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("claiming token: %w", err)
	}
	if !won {
		return &ClaimResult{Outcome: ClaimRaceLost}, nil
	}
	return &ClaimResult{Outcome: ClaimFirstUse}, nil
}

// RecordResponse persists the final outcome of the mutation the token
// guarded so future claims replay it byte for byte. Called exactly once
// per ClaimFirstUse.
func (s *TokenService) RecordResponse(ctx context.Context, token string, status int, headers entities.HeaderBag, body []byte) error {
	if err := s.db.SaveTokenResponse(ctx, token, status, headers, body); err != nil {
		return fmt.Errorf("saving token response: %w", err)
	}
	return nil
}
