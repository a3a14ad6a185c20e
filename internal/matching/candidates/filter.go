// Package candidates builds the set of profiles eligible to be scored for a requester.
package candidates

import (
	"context"
	"sort"

	apperrors "compatibility-workers/internal/common/errors"
	"compatibility-workers/internal/common/logger"
	"compatibility-workers/internal/common/metrics"
	"compatibility-workers/internal/matching/heuristics"
	"compatibility-workers/internal/models"
)

// Store is the read-only profile source the filter queries.
type Store interface {
	FindByID(ctx context.Context, userID string) (*models.Profile, error)
	Query(ctx context.Context, criteria models.CandidateCriteria) ([]*models.Profile, error)
	DistinctMatchedOrRejectedPeers(ctx context.Context, userID string) ([]string, error)
}

// overfetchFactor widens the store query so exact in-process checks still
// leave enough candidates after the store's coarser filtering.
const overfetchFactor = 2

type Filter struct {
	store  Store
	logger logger.Logger
}

func NewFilter(store Store, log logger.Logger) *Filter {
	return &Filter{
		store:  store,
		logger: log.WithFields(map[string]interface{}{"component": "candidate-filter"}),
	}
}

// FindForUser loads the requester and returns it with its candidates. A
// missing requester is the only error this returns.
func (f *Filter) FindForUser(ctx context.Context, requesterID string, maxCandidates int) (*models.Profile, []*models.Profile, error) {
	requester, err := f.store.FindByID(ctx, requesterID)
	if err != nil {
		return nil, nil, err
	}
	if requester == nil {
		return nil, nil, apperrors.NewProfileNotFoundError(requesterID)
	}
	return requester, f.Find(ctx, requester, maxCandidates), nil
}

// Find returns at most maxCandidates eligible profiles, most recently active
// first. Store failures degrade to an empty set.
func (f *Filter) Find(ctx context.Context, requester *models.Profile, maxCandidates int) []*models.Profile {
	if maxCandidates <= 0 {
		return []*models.Profile{}
	}

	history, err := f.store.DistinctMatchedOrRejectedPeers(ctx, requester.ID)
	if err != nil {
		f.degraded(requester.ID, "history", err)
		return []*models.Profile{}
	}

	excluded := make(map[string]struct{}, len(history)+len(requester.BlockedUserIDs)+1)
	excluded[requester.ID] = struct{}{}
	for _, id := range requester.BlockedUserIDs {
		excluded[id] = struct{}{}
	}
	for _, id := range history {
		excluded[id] = struct{}{}
	}

	criteria := buildCriteria(requester, excluded, maxCandidates*overfetchFactor)
	found, err := f.store.Query(ctx, criteria)
	if err != nil {
		f.degraded(requester.ID, "query", err)
		return []*models.Profile{}
	}

	out := make([]*models.Profile, 0, len(found))
	for _, c := range found {
		if Eligible(requester, c, excluded) {
			out = append(out, c)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].LastActive.Equal(out[j].LastActive) {
			return out[i].LastActive.After(out[j].LastActive)
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > maxCandidates {
		out = out[:maxCandidates]
	}

	f.logger.Debug("Candidates selected", map[string]interface{}{
		"userId":   requester.ID,
		"fetched":  len(found),
		"eligible": len(out),
	})
	return out
}

func (f *Filter) degraded(userID, stage string, err error) {
	metrics.CandidateFilterDegraded.WithLabelValues(stage).Inc()
	f.logger.WithError(apperrors.NewFilterDegradedError(stage, err)).Warn("Candidate filter degraded, returning no candidates", map[string]interface{}{
		"userId": userID,
		"stage":  stage,
	})
}

func buildCriteria(requester *models.Profile, excluded map[string]struct{}, limit int) models.CandidateCriteria {
	ids := make([]string, 0, len(excluded))
	for id := range excluded {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	c := models.CandidateCriteria{
		RequesterID:     requester.ID,
		RequesterGender: requester.Gender,
		Genders:         requester.InterestedIn,
		ExcludeIDs:      ids,
		MinAge:          requester.Preferences.MinAge,
		MaxAge:          requester.Preferences.MaxAge,
		RequesterDiet:   requester.Dietary,
		Limit:           limit,
	}
	if requester.Preferences.DietaryDealbreaker {
		c.RequiredDiet = requester.Dietary
	}
	if requester.Location.Coordinates != nil && requester.Preferences.MaxDistanceKm > 0 {
		c.Near = requester.Location.Coordinates
		c.RadiusKm = requester.Preferences.MaxDistanceKm
	}
	return c
}

// Eligible applies every candidate rule to one profile.
func Eligible(requester, c *models.Profile, excluded map[string]struct{}) bool {
	if c == nil || c.ID == requester.ID {
		return false
	}
	if _, skip := excluded[c.ID]; skip {
		return false
	}
	if !c.IsActive || !c.IsVerified {
		return false
	}
	if c.HasBlocked(requester.ID) {
		return false
	}
	if !requester.Seeks(c.Gender) || !c.Seeks(requester.Gender) {
		return false
	}
	if !requester.Preferences.AcceptsAge(c.Age) {
		return false
	}
	if (requester.Preferences.DietaryDealbreaker || c.Preferences.DietaryDealbreaker) && requester.Dietary != c.Dietary {
		return false
	}
	if requester.Preferences.MaxDistanceKm > 0 && requester.Location.Coordinates != nil && c.Location.Coordinates != nil {
		if heuristics.DistanceKm(*requester.Location.Coordinates, *c.Location.Coordinates) > requester.Preferences.MaxDistanceKm {
			return false
		}
	}
	return true
}
