package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/ersonp/lore-sharing/internal/domain/entities"
	"github.com/ersonp/lore-sharing/internal/domain/ports"
)

// MergeService merges a source timeline into a target timeline. The whole
// workflow spans three entity kinds (links, the timeline itself, the merge
// log), so it runs as one store transaction: a half-applied merge would
// silently duplicate events, which is worse than not merging at all.
// Conflicts resolve by target priority: a link already present on the
// target keeps its position unchanged, deterministically and without clock
// comparison.
type MergeService struct {
	db ports.RelationalDB
}

// NewMergeService creates a new MergeService.
func NewMergeService(db ports.RelationalDB) *MergeService {
	return &MergeService{db: db}
}

// Merge merges sourceID into targetID and returns the recorded merge.
// Returns entities.ErrNotFound when the source timeline does not exist;
// on that and every other failure the store is left unchanged.
func (s *MergeService) Merge(ctx context.Context, sourceID, targetID int64) (*entities.TimelineMerge, error) {
	merge, err := s.db.MergeTimelines(ctx, sourceID, targetID)
	if err != nil {
		if errors.Is(err, entities.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("merging timeline %d into %d: %w", sourceID, targetID, err)
	}
	return merge, nil
}

// List returns all merge records ordered by merge time.
func (s *MergeService) List(ctx context.Context) ([]entities.TimelineMerge, error) {
	return s.db.ListMerges(ctx)
}

// Get returns a merge record by id, or nil if not found.
func (s *MergeService) Get(ctx context.Context, id int64) (*entities.TimelineMerge, error) {
	return s.db.FindMergeByID(ctx, id)
}

// Delete removes a merge record by id.
func (s *MergeService) Delete(ctx context.Context, id int64) error {
	return s.db.DeleteMerge(ctx, id)
}
