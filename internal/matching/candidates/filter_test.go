package candidates

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "compatibility-workers/internal/common/errors"
	"compatibility-workers/internal/common/logger"
	"compatibility-workers/internal/common/metrics"
	"compatibility-workers/internal/models"
)

type fakeStore struct {
	profiles   map[string]*models.Profile
	history    map[string][]string
	historyErr error
	queryErr   error
	lastQuery  models.CandidateCriteria
}

func (s *fakeStore) FindByID(_ context.Context, id string) (*models.Profile, error) {
	p, ok := s.profiles[id]
	if !ok {
		return nil, apperrors.NewProfileNotFoundError(id)
	}
	return p, nil
}

// Query deliberately ignores most criteria so the filter's own checks are exercised.
func (s *fakeStore) Query(_ context.Context, c models.CandidateCriteria) ([]*models.Profile, error) {
	s.lastQuery = c
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	out := make([]*models.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p)
	}
	return out, nil
}

func (s *fakeStore) DistinctMatchedOrRejectedPeers(_ context.Context, id string) ([]string, error) {
	if s.historyErr != nil {
		return nil, s.historyErr
	}
	return s.history[id], nil
}

var now = time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

func candidate(id string, mutate ...func(*models.Profile)) *models.Profile {
	p := &models.Profile{
		ID:           id,
		Gender:       "male",
		InterestedIn: []string{"female"},
		Age:          30,
		Dietary:      models.DietVegan,
		IsActive:     true,
		IsVerified:   true,
		LastActive:   now,
		Location:     models.Location{City: "SF", Coordinates: &models.Coordinates{Lat: 37.7749, Lng: -122.4194}},
	}
	for _, m := range mutate {
		m(p)
	}
	return p
}

func requester() *models.Profile {
	return &models.Profile{
		ID:             "req",
		Gender:         "female",
		InterestedIn:   []string{"male"},
		Age:            29,
		Dietary:        models.DietVegan,
		IsActive:       true,
		IsVerified:     true,
		Location:       models.Location{City: "SF", Coordinates: &models.Coordinates{Lat: 37.7749, Lng: -122.4194}},
		Preferences:    models.MatchPreferences{MinAge: 25, MaxAge: 35, MaxDistanceKm: 50},
		BlockedUserIDs: []string{"blocked"},
	}
}

func newStore(profiles ...*models.Profile) *fakeStore {
	s := &fakeStore{profiles: map[string]*models.Profile{}, history: map[string][]string{}}
	for _, p := range profiles {
		s.profiles[p.ID] = p
	}
	return s
}

func ids(ps []*models.Profile) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}

func TestFind_AppliesEveryRule(t *testing.T) {
	req := requester()
	store := newStore(
		req,
		candidate("ok"),
		candidate("blocked"),
		candidate("swiped"),
		candidate("blocks-me", func(p *models.Profile) { p.BlockedUserIDs = []string{"req"} }),
		candidate("inactive", func(p *models.Profile) { p.IsActive = false }),
		candidate("unverified", func(p *models.Profile) { p.IsVerified = false }),
		candidate("wrong-gender", func(p *models.Profile) { p.Gender = "female" }),
		candidate("not-into-me", func(p *models.Profile) { p.InterestedIn = []string{"male"} }),
		candidate("too-old", func(p *models.Profile) { p.Age = 41 }),
		candidate("far", func(p *models.Profile) {
			p.Location.Coordinates = &models.Coordinates{Lat: 34.0522, Lng: -118.2437}
		}),
		candidate("diet-dealbreaker", func(p *models.Profile) {
			p.Dietary = models.DietVegetarian
			p.Preferences.DietaryDealbreaker = true
		}),
		candidate("vegetarian-open", func(p *models.Profile) { p.Dietary = models.DietVegetarian }),
		candidate("no-coords", func(p *models.Profile) { p.Location.Coordinates = nil }),
	)
	store.history["req"] = []string{"swiped"}

	f := NewFilter(store, logger.NewTestLogger(t))
	got := f.Find(context.Background(), req, 50)

	assert.ElementsMatch(t, []string{"ok", "vegetarian-open", "no-coords"}, ids(got))

	assert.Equal(t, 100, store.lastQuery.Limit)
	assert.Contains(t, store.lastQuery.ExcludeIDs, "req")
	assert.Contains(t, store.lastQuery.ExcludeIDs, "blocked")
	assert.Contains(t, store.lastQuery.ExcludeIDs, "swiped")
	assert.Equal(t, 50.0, store.lastQuery.RadiusKm)
	assert.Empty(t, store.lastQuery.RequiredDiet)
}

func TestFind_RequesterDealbreakerRequiresSameDiet(t *testing.T) {
	req := requester()
	req.Preferences.DietaryDealbreaker = true
	store := newStore(
		candidate("vegan"),
		candidate("vegetarian", func(p *models.Profile) { p.Dietary = models.DietVegetarian }),
	)

	got := NewFilter(store, logger.NewNoOpLogger()).Find(context.Background(), req, 10)

	assert.Equal(t, []string{"vegan"}, ids(got))
	assert.Equal(t, models.DietVegan, store.lastQuery.RequiredDiet)
}

func TestFind_OrdersByRecencyAndTruncates(t *testing.T) {
	store := newStore(
		candidate("old", func(p *models.Profile) { p.LastActive = now.Add(-72 * time.Hour) }),
		candidate("newest", func(p *models.Profile) { p.LastActive = now.Add(time.Hour) }),
		candidate("mid", func(p *models.Profile) { p.LastActive = now }),
	)

	got := NewFilter(store, logger.NewNoOpLogger()).Find(context.Background(), requester(), 2)

	assert.Equal(t, []string{"newest", "mid"}, ids(got))
}

func TestFind_SkipsRadiusWithoutCoordinates(t *testing.T) {
	req := requester()
	req.Location.Coordinates = nil
	store := newStore(candidate("far", func(p *models.Profile) {
		p.Location.Coordinates = &models.Coordinates{Lat: 34.0522, Lng: -118.2437}
	}))

	got := NewFilter(store, logger.NewNoOpLogger()).Find(context.Background(), req, 10)

	assert.Equal(t, []string{"far"}, ids(got))
	assert.Nil(t, store.lastQuery.Near)
}

func TestFind_DegradesToEmpty(t *testing.T) {
	tests := []struct {
		name  string
		stage string
		setup func(*fakeStore)
	}{
		{"history failure", "history", func(s *fakeStore) { s.historyErr = errors.New("timeout") }},
		{"query failure", "query", func(s *fakeStore) { s.queryErr = errors.New("connection refused") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore(candidate("ok"))
			tt.setup(store)
			counter := metrics.CandidateFilterDegraded.WithLabelValues(tt.stage)
			before := testutil.ToFloat64(counter)

			got := NewFilter(store, logger.NewTestLogger(t)).Find(context.Background(), requester(), 10)

			assert.NotNil(t, got)
			assert.Empty(t, got)
			assert.Equal(t, before+1, testutil.ToFloat64(counter))
		})
	}
}

func TestFindForUser(t *testing.T) {
	req := requester()
	store := newStore(req, candidate("ok"))
	f := NewFilter(store, logger.NewNoOpLogger())

	gotReq, got, err := f.FindForUser(context.Background(), "req", 10)
	require.NoError(t, err)
	assert.Equal(t, req, gotReq)
	assert.Equal(t, []string{"ok"}, ids(got))

	_, _, err = f.FindForUser(context.Background(), "ghost", 10)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}
