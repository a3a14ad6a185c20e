package search

import (
	"context"

	"compatibility-workers/internal/models"
)

// Primary is the system-of-record side of a hybrid store.
type Primary interface {
	FindByID(ctx context.Context, userID string) (*models.Profile, error)
	DistinctMatchedOrRejectedPeers(ctx context.Context, userID string) ([]string, error)
	ActiveVerifiedUserIDs(ctx context.Context) ([]string, error)
}

// Hybrid serves candidate queries from the index and everything else from
// the primary store.
type Hybrid struct {
	Primary
	index *CandidateIndex
}

func NewHybrid(primary Primary, index *CandidateIndex) *Hybrid {
	return &Hybrid{Primary: primary, index: index}
}

func (h *Hybrid) Query(ctx context.Context, criteria models.CandidateCriteria) ([]*models.Profile, error) {
	return h.index.Query(ctx, criteria)
}
