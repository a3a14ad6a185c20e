package ranking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compatibility-workers/internal/matching/scoring"
	"compatibility-workers/internal/models"
)

// ==========================
// PrecomputeAll Tests
// ==========================

func TestPrecomputeAll_WritesOneDailyEntryPerUser(t *testing.T) {
	store := newMemoryStore(member("u1"), member("u2"), member("u3"), member("u4"), member("u5"))
	scorer := &failingScorer{inner: scoring.NewScorer(), fail: map[string]bool{"u3": true}}
	f := newFixture(t, store, scorer)

	res, err := f.svc.PrecomputeAll(context.Background(), PrecomputeOptions{BatchSize: 2})
	require.NoError(t, err)

	assert.Equal(t, 5, res.TotalUsers)
	assert.Equal(t, 5, res.Succeeded)
	assert.Equal(t, 0, res.Failed)
	assert.False(t, res.Skipped)
	assert.Equal(t, fixedNow, res.CompletedAt)

	keys := f.mr.Keys()
	assert.Len(t, keys, 5)
	for _, id := range []string{"u1", "u2", "u3", "u4", "u5"} {
		key := "compat:daily:" + id + ":v1"
		assert.Contains(t, keys, key)
		assert.Equal(t, 24*time.Hour, f.mr.TTL(key))
	}

	events := f.publisher.Events()
	require.Len(t, events, 1)
	assert.Equal(t, models.EventMatchesPrecomputed, events[0].Type)
	assert.Equal(t, 5, events[0].MatchCount)
}

func TestGenerateMatches_ServesPrecomputedDailyList(t *testing.T) {
	f := newFixture(t, newMemoryStore(member("u1"), member("u2"), member("u3")), nil)
	ctx := context.Background()

	_, err := f.svc.PrecomputeAll(ctx, PrecomputeOptions{})
	require.NoError(t, err)

	full, err := f.svc.GenerateMatches(ctx, "u1", GenerateOptions{Limit: 10})
	require.NoError(t, err)
	assert.True(t, full.Cached)
	assert.ElementsMatch(t, []string{"u2", "u3"}, matchIDs(full))
	assert.Equal(t, 1.0, f.svc.GetMetrics().CacheHitRate)
	assert.False(t, f.mr.Exists("compat:matches:u1:l10:s0"))

	top, err := f.svc.GenerateMatches(ctx, "u1", GenerateOptions{Limit: 1})
	require.NoError(t, err)
	assert.True(t, top.Cached)
	assert.Equal(t, matchIDs(full)[:1], matchIDs(top))
	assert.Equal(t, 1, top.Total)

	floor := full.Matches[0].Score
	want := 0
	for _, m := range full.Matches {
		if m.Score >= floor {
			want++
		}
	}
	filtered, err := f.svc.GenerateMatches(ctx, "u1", GenerateOptions{Limit: 10, MinScore: floor})
	require.NoError(t, err)
	assert.True(t, filtered.Cached)
	assert.Len(t, filtered.Matches, want)

	forced, err := f.svc.GenerateMatches(ctx, "u1", GenerateOptions{Limit: 10, ForceRefresh: true})
	require.NoError(t, err)
	assert.False(t, forced.Cached)
}

func TestGenerateMatches_LargeLimitSkipsFullDailyList(t *testing.T) {
	store := newMemoryStore(member("u1"), member("u2"), member("u3"))
	f := newFixture(t, store, nil)
	f.svc.cfg.DailyListLimit = 1
	ctx := context.Background()

	_, err := f.svc.PrecomputeAll(ctx, PrecomputeOptions{})
	require.NoError(t, err)

	list, err := f.svc.GenerateMatches(ctx, "u1", GenerateOptions{Limit: 5})
	require.NoError(t, err)
	assert.False(t, list.Cached)
	assert.Len(t, list.Matches, 2)
}

func TestPrecomputeAll_CountsUserFailures(t *testing.T) {
	store := newMemoryStore(member("u1"), member("u2"))
	f := newFixture(t, store, nil)
	f.svc.candidates = &flakyFinder{inner: f.svc.candidates, fail: "u2"}

	res, err := f.svc.PrecomputeAll(context.Background(), PrecomputeOptions{BatchSize: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalUsers)
	assert.Equal(t, 1, res.Succeeded)
	assert.Equal(t, 1, res.Failed)
	assert.Len(t, f.mr.Keys(), 1)
}

type flakyFinder struct {
	inner CandidateFinder
	fail  string
}

func (f *flakyFinder) FindForUser(ctx context.Context, id string, max int) (*models.Profile, []*models.Profile, error) {
	if id == f.fail {
		return nil, nil, assert.AnError
	}
	return f.inner.FindForUser(ctx, id, max)
}

// gatedStore blocks the user listing until released so a run can be held open.
type gatedStore struct {
	*memoryStore
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedStore) ActiveVerifiedUserIDs(ctx context.Context) ([]string, error) {
	g.once.Do(func() { close(g.entered) })
	<-g.release
	return g.memoryStore.ActiveVerifiedUserIDs(ctx)
}

func TestPrecomputeAll_SkipsOverlappingRun(t *testing.T) {
	store := newMemoryStore(member("u1"), member("u2"))
	f := newFixture(t, store, nil)
	gate := &gatedStore{memoryStore: store, entered: make(chan struct{}), release: make(chan struct{})}
	f.svc.profiles = gate

	done := make(chan *models.PrecomputeResult, 1)
	go func() {
		res, _ := f.svc.PrecomputeAll(context.Background(), PrecomputeOptions{})
		done <- res
	}()
	<-gate.entered

	skipped, err := f.svc.PrecomputeAll(context.Background(), PrecomputeOptions{})
	require.NoError(t, err)
	assert.True(t, skipped.Skipped)
	assert.Zero(t, skipped.TotalUsers)

	close(gate.release)
	first := <-done
	require.NotNil(t, first)
	assert.False(t, first.Skipped)
	assert.Equal(t, 2, first.TotalUsers)
}

func TestPrecomputeAll_StopsOnCancellation(t *testing.T) {
	store := newMemoryStore(member("u1"), member("u2"), member("u3"))
	f := newFixture(t, store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := f.svc.PrecomputeAll(ctx, PrecomputeOptions{BatchSize: 1, BatchDelay: time.Hour})
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.Equal(t, 3, res.TotalUsers)
	assert.Zero(t, res.Succeeded)
	assert.Empty(t, f.mr.Keys())
}
