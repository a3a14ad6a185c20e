package ranking

import (
	"context"
	"errors"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	apperrors "compatibility-workers/internal/common/errors"
)

// MaxRecomputeAttempts bounds how often a failing job is put back.
const MaxRecomputeAttempts = 3

type RecomputeJob struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Fields     []string  `json:"fields,omitempty"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
	Attempts   int       `json:"attempts"`

	raw string
}

func NewRecomputeJob(userID string, fields []string, at time.Time) RecomputeJob {
	return RecomputeJob{
		ID:         uuid.NewString(),
		UserID:     userID,
		Fields:     fields,
		EnqueuedAt: at.UTC(),
	}
}

// RecomputeQueue delivers jobs at least once. A claimed job stays invisible
// to other consumers until it is acked or retried.
type RecomputeQueue interface {
	Enqueue(ctx context.Context, job RecomputeJob) error
	Claim(ctx context.Context, max int) ([]RecomputeJob, error)
	Ack(ctx context.Context, job RecomputeJob) error
	Retry(ctx context.Context, job RecomputeJob) error
	Len(ctx context.Context) (int64, error)
}

// RedisQueue keeps pending jobs in a list and moves claimed ones to a
// processing list with LMOVE, so a crashed consumer leaves them recoverable.
type RedisQueue struct {
	client     redis.UniversalClient
	pending    string
	processing string
}

func NewRedisQueue(client redis.UniversalClient, key string) *RedisQueue {
	return &RedisQueue{
		client:     client,
		pending:    key,
		processing: key + ":processing",
	}
}

func (q *RedisQueue) Enqueue(ctx context.Context, job RecomputeJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return apperrors.NewQueueUnavailableError("encode", err)
	}
	if err := q.client.RPush(ctx, q.pending, payload).Err(); err != nil {
		return apperrors.NewQueueUnavailableError("enqueue", err)
	}
	return nil
}

func (q *RedisQueue) Claim(ctx context.Context, max int) ([]RecomputeJob, error) {
	jobs := make([]RecomputeJob, 0, max)
	for len(jobs) < max {
		raw, err := q.client.LMove(ctx, q.pending, q.processing, "LEFT", "RIGHT").Result()
		if errors.Is(err, redis.Nil) {
			break
		}
		if err != nil {
			return jobs, apperrors.NewQueueUnavailableError("claim", err)
		}

		var job RecomputeJob
		if err := json.Unmarshal([]byte(raw), &job); err != nil {
			// Unreadable payloads would otherwise be recovered forever.
			q.client.LRem(ctx, q.processing, 1, raw)
			continue
		}
		job.raw = raw
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (q *RedisQueue) Ack(ctx context.Context, job RecomputeJob) error {
	if err := q.client.LRem(ctx, q.processing, 1, job.raw).Err(); err != nil {
		return apperrors.NewQueueUnavailableError("ack", err)
	}
	return nil
}

func (q *RedisQueue) Retry(ctx context.Context, job RecomputeJob) error {
	raw := job.raw
	job.Attempts++
	job.raw = ""
	payload, err := json.Marshal(job)
	if err != nil {
		return apperrors.NewQueueUnavailableError("encode", err)
	}

	_, err = q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, q.processing, 1, raw)
		pipe.RPush(ctx, q.pending, payload)
		return nil
	})
	if err != nil {
		return apperrors.NewQueueUnavailableError("retry", err)
	}
	return nil
}

func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	n, err := q.client.LLen(ctx, q.pending).Result()
	if err != nil {
		return 0, apperrors.NewQueueUnavailableError("len", err)
	}
	return n, nil
}

// Recover moves jobs left in the processing list by a previous consumer back
// to the pending list.
func (q *RedisQueue) Recover(ctx context.Context) (int, error) {
	moved := 0
	for {
		err := q.client.LMove(ctx, q.processing, q.pending, "LEFT", "RIGHT").Err()
		if errors.Is(err, redis.Nil) {
			return moved, nil
		}
		if err != nil {
			return moved, apperrors.NewQueueUnavailableError("recover", err)
		}
		moved++
	}
}

// MemoryQueue is the in-process fallback used when Redis is not configured.
type MemoryQueue struct {
	mu       sync.Mutex
	pending  []RecomputeJob
	inflight map[string]RecomputeJob
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{inflight: make(map[string]RecomputeJob)}
}

func (q *MemoryQueue) Enqueue(_ context.Context, job RecomputeJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	q.pending = append(q.pending, job)
	return nil
}

func (q *MemoryQueue) Claim(_ context.Context, max int) ([]RecomputeJob, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := min(max, len(q.pending))
	jobs := make([]RecomputeJob, n)
	copy(jobs, q.pending[:n])
	q.pending = q.pending[n:]
	for _, job := range jobs {
		q.inflight[job.ID] = job
	}
	return jobs, nil
}

func (q *MemoryQueue) Ack(_ context.Context, job RecomputeJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.inflight, job.ID)
	return nil
}

func (q *MemoryQueue) Retry(_ context.Context, job RecomputeJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.inflight, job.ID)
	job.Attempts++
	q.pending = append(q.pending, job)
	return nil
}

func (q *MemoryQueue) Len(context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.pending)), nil
}

// Recover returns in-flight jobs to the pending list.
func (q *MemoryQueue) Recover(context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	moved := 0
	for id, job := range q.inflight {
		q.pending = append(q.pending, job)
		delete(q.inflight, id)
		moved++
	}
	return moved, nil
}
