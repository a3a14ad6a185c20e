package ranking

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"compatibility-workers/internal/common/metrics"
	"compatibility-workers/internal/models"
)

type PrecomputeOptions struct {
	BatchSize  int           `validate:"gte=0,lte=1000"`
	BatchDelay time.Duration `validate:"gte=0"`
}

// PrecomputeAll refreshes the daily list of every active, verified user. A
// call made while another run is in progress returns a skipped result
// immediately and is not queued.
func (s *Service) PrecomputeAll(ctx context.Context, opts PrecomputeOptions) (*models.PrecomputeResult, error) {
	if !s.precomputing.CompareAndSwap(false, true) {
		metrics.PrecomputeRuns.WithLabelValues("skipped").Inc()
		s.logger.Info("precompute already running, skipping", nil)
		return &models.PrecomputeResult{Skipped: true, CompletedAt: s.now().UTC()}, nil
	}
	defer s.precomputing.Store(false)

	ctx, span := s.tracer.Start(ctx, "ranking.PrecomputeAll")
	defer span.End()

	if err := s.validate.Struct(opts); err != nil {
		return nil, s.fail(span, invalidOptions(err))
	}
	batchSize := opts.BatchSize
	if batchSize == 0 {
		batchSize = s.cfg.PrecomputeBatchSize
	}
	delay := opts.BatchDelay
	if delay == 0 {
		delay = s.cfg.PrecomputeBatchDelay
	}

	start := s.now()
	ids, err := s.profiles.ActiveVerifiedUserIDs(ctx)
	if err != nil {
		return nil, s.fail(span, err)
	}

	var succeeded, failed atomic.Int64
	for offset := 0; offset < len(ids); offset += batchSize {
		end := min(offset+batchSize, len(ids))

		p := pool.New().WithMaxGoroutines(batchSize)
		for _, id := range ids[offset:end] {
			userID := id
			p.Go(func() {
				if s.precomputeUser(ctx, userID) {
					succeeded.Add(1)
				} else {
					failed.Add(1)
				}
			})
		}
		p.Wait()

		if end < len(ids) && delay > 0 {
			if err := sleep(ctx, delay); err != nil {
				break
			}
		}
		if ctx.Err() != nil {
			break
		}
	}

	result := &models.PrecomputeResult{
		TotalUsers:  len(ids),
		Succeeded:   int(succeeded.Load()),
		Failed:      int(failed.Load()),
		Duration:    s.now().Sub(start),
		CompletedAt: s.now().UTC(),
	}
	span.SetAttributes(
		attribute.Int("precompute.total", result.TotalUsers),
		attribute.Int("precompute.failed", result.Failed),
	)

	if err := ctx.Err(); err != nil {
		metrics.PrecomputeRuns.WithLabelValues("cancelled").Inc()
		return result, s.fail(span, err)
	}

	metrics.PrecomputeRuns.WithLabelValues("completed").Inc()
	s.logger.Info("precompute completed", map[string]interface{}{
		"totalUsers": result.TotalUsers,
		"succeeded":  result.Succeeded,
		"failed":     result.Failed,
		"durationMs": result.Duration.Milliseconds(),
	})
	s.publish(ctx, span, models.MatchEvent{
		Type:       models.EventMatchesPrecomputed,
		MatchCount: result.Succeeded,
		OccurredAt: result.CompletedAt,
	})
	return result, nil
}

func (s *Service) precomputeUser(ctx context.Context, userID string) bool {
	if ctx.Err() != nil {
		return false
	}
	mark := s.updates.mark()
	list, _, err := s.compute(ctx, userID, s.cfg.DailyListLimit, 0)
	if err != nil {
		metrics.PrecomputeUsers.WithLabelValues("failed").Inc()
		s.logger.Warn("precompute failed for user", map[string]interface{}{
			"userId": userID,
			"error":  err,
		})
		return false
	}
	s.writeFresh(ctx, mark, []string{userID}, func() {
		s.cache.Set(ctx, s.keys.Daily(userID), list, s.cache.DailyTTL())
	})
	metrics.PrecomputeUsers.WithLabelValues("succeeded").Inc()
	return true
}

func (s *Service) publish(ctx context.Context, span trace.Span, event models.MatchEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		span.RecordError(err)
		s.logger.Warn("failed to publish match event", map[string]interface{}{
			"type":   event.Type,
			"userId": event.UserID,
			"error":  err,
		})
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
