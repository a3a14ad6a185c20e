package ranking

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compatibility-workers/internal/models"
)

// ==========================
// Queue Tests
// ==========================

func newRedisQueue(t *testing.T) (*RedisQueue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisQueue(client, "compat:recompute"), mr
}

func TestQueues_ClaimAckRetry(t *testing.T) {
	redisQueue, _ := newRedisQueue(t)

	queues := map[string]RecomputeQueue{
		"redis":  redisQueue,
		"memory": NewMemoryQueue(),
	}
	for name, q := range queues {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, q.Enqueue(ctx, NewRecomputeJob("u1", []string{FieldLocation}, fixedNow)))
			require.NoError(t, q.Enqueue(ctx, NewRecomputeJob("u2", nil, fixedNow)))
			require.NoError(t, q.Enqueue(ctx, NewRecomputeJob("u3", nil, fixedNow)))

			jobs, err := q.Claim(ctx, 2)
			require.NoError(t, err)
			require.Len(t, jobs, 2)
			assert.Equal(t, "u1", jobs[0].UserID)
			assert.Equal(t, []string{FieldLocation}, jobs[0].Fields)
			assert.Equal(t, "u2", jobs[1].UserID)

			n, err := q.Len(ctx)
			require.NoError(t, err)
			assert.EqualValues(t, 1, n)

			require.NoError(t, q.Ack(ctx, jobs[0]))
			require.NoError(t, q.Retry(ctx, jobs[1]))

			rest, err := q.Claim(ctx, 10)
			require.NoError(t, err)
			require.Len(t, rest, 2)
			assert.Equal(t, "u3", rest[0].UserID)
			assert.Equal(t, "u2", rest[1].UserID)
			assert.Equal(t, 1, rest[1].Attempts)

			empty, err := q.Claim(ctx, 10)
			require.NoError(t, err)
			assert.Empty(t, empty)
		})
	}
}

func TestRedisQueue_RecoverMovesAbandonedJobs(t *testing.T) {
	q, mr := newRedisQueue(t)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, NewRecomputeJob("u1", nil, fixedNow)))
	_, err := q.Claim(ctx, 1)
	require.NoError(t, err)

	processing, err := mr.List("compat:recompute:processing")
	require.NoError(t, err)
	assert.Len(t, processing, 1)

	moved, err := q.Recover(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, moved)

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestRedisQueue_UnreachableServer(t *testing.T) {
	q, mr := newRedisQueue(t)
	mr.Close()

	err := q.Enqueue(context.Background(), NewRecomputeJob("u1", nil, fixedNow))
	require.Error(t, err)
}

// ==========================
// Recompute Consumer Tests
// ==========================

func TestRunRecomputeOnce_DedupesAndPublishes(t *testing.T) {
	f := newFixture(t, newMemoryStore(member("me"), member("a"), member("b")), nil)
	ctx := context.Background()

	_, err := f.svc.OnProfileUpdated(ctx, "me", []string{"location"})
	require.NoError(t, err)
	_, err = f.svc.OnProfileUpdated(ctx, "me", []string{"interests"})
	require.NoError(t, err)
	_, err = f.svc.OnProfileUpdated(ctx, "a", []string{"dietary_preference"})
	require.NoError(t, err)

	refreshed, err := f.svc.RunRecomputeOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, refreshed)

	n, _ := f.queue.Len(ctx)
	assert.Zero(t, n)
	assert.Empty(t, f.queue.inflight)

	events := f.publisher.Events()
	require.Len(t, events, 2)
	assert.Equal(t, models.EventMatchesRecomputed, events[0].Type)
	assert.Equal(t, "me", events[0].UserID)
	assert.NotEmpty(t, events[0].Version)

	assert.True(t, f.mr.Exists("compat:matches:me:l10:s0"))
}

func TestRunRecomputeOnce_DropsMissingUsers(t *testing.T) {
	f := newFixture(t, newMemoryStore(member("me")), nil)
	ctx := context.Background()
	require.NoError(t, f.queue.Enqueue(ctx, NewRecomputeJob("ghost", nil, fixedNow)))

	refreshed, err := f.svc.RunRecomputeOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, refreshed)
	assert.Empty(t, f.queue.inflight)
	assert.Empty(t, f.publisher.Events())
}

func TestRunRecomputeOnce_RetriesThenDrops(t *testing.T) {
	f := newFixture(t, newMemoryStore(member("me"), member("a")), nil)
	f.svc.candidates = &flakyFinder{inner: f.svc.candidates, fail: "me"}
	ctx := context.Background()
	require.NoError(t, f.queue.Enqueue(ctx, NewRecomputeJob("me", nil, fixedNow)))

	for attempt := 1; attempt < MaxRecomputeAttempts; attempt++ {
		_, err := f.svc.RunRecomputeOnce(ctx)
		require.NoError(t, err)
		n, _ := f.queue.Len(ctx)
		require.EqualValues(t, 1, n, "attempt %d should requeue", attempt)
	}

	_, err := f.svc.RunRecomputeOnce(ctx)
	require.NoError(t, err)
	n, _ := f.queue.Len(ctx)
	assert.Zero(t, n)
	assert.Empty(t, f.queue.inflight)
}

// ==========================
// Lifecycle Tests
// ==========================

func TestStartStop_DrainsQueueInBackground(t *testing.T) {
	f := newFixture(t, newMemoryStore(member("me"), member("a")), nil)
	f.svc.cfg.RecomputePollInterval = 10 * time.Millisecond
	ctx := context.Background()

	_, err := f.svc.OnProfileUpdated(ctx, "me", []string{"location"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Start(ctx))
	assert.Error(t, f.svc.Start(ctx))

	require.Eventually(t, func() bool {
		return len(f.publisher.Events()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, f.svc.Stop())
	require.NoError(t, f.svc.Stop())
}
