package ranking

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	apperrors "compatibility-workers/internal/common/errors"
	"compatibility-workers/internal/common/metrics"
	"compatibility-workers/internal/models"
)

// RunRecomputeOnce claims up to one batch of recompute jobs, regenerates each
// distinct user's default list and acks the jobs. It returns the number of
// users refreshed. A call that overlaps another drain is a no-op.
func (s *Service) RunRecomputeOnce(ctx context.Context) (int, error) {
	if !s.recomputing.CompareAndSwap(false, true) {
		return 0, nil
	}
	defer s.recomputing.Store(false)

	jobs, err := s.queue.Claim(ctx, s.cfg.RecomputeBatchSize)
	if err != nil && len(jobs) == 0 {
		return 0, err
	}
	s.reportDepth(ctx)
	if len(jobs) == 0 {
		return 0, nil
	}

	byUser := make(map[string][]RecomputeJob, len(jobs))
	order := make([]string, 0, len(jobs))
	for _, job := range jobs {
		if _, ok := byUser[job.UserID]; !ok {
			order = append(order, job.UserID)
		}
		byUser[job.UserID] = append(byUser[job.UserID], job)
	}

	refreshed := 0
	for _, userID := range order {
		if ctx.Err() != nil {
			// Unacked jobs are recovered on the next start.
			return refreshed, ctx.Err()
		}

		list, genErr := s.GenerateMatches(ctx, userID, GenerateOptions{ForceRefresh: true})
		switch {
		case genErr == nil:
			refreshed++
			metrics.RecomputeJobs.WithLabelValues("processed").Inc()
			s.ackAll(ctx, byUser[userID])
			s.publish(ctx, trace.SpanFromContext(ctx), models.MatchEvent{
				Type:       models.EventMatchesRecomputed,
				UserID:     userID,
				MatchCount: list.Total,
				Version:    list.Version,
				OccurredAt: s.now().UTC(),
			})
		case apperrors.IsNotFound(genErr):
			metrics.RecomputeJobs.WithLabelValues("dropped").Inc()
			s.ackAll(ctx, byUser[userID])
		default:
			metrics.RecomputeJobs.WithLabelValues("failed").Inc()
			s.logger.Warn("recompute failed", map[string]interface{}{
				"userId": userID,
				"error":  genErr,
			})
			s.retryAll(ctx, byUser[userID])
		}
	}
	return refreshed, nil
}

func (s *Service) ackAll(ctx context.Context, jobs []RecomputeJob) {
	for _, job := range jobs {
		if err := s.queue.Ack(ctx, job); err != nil {
			s.logger.Warn("failed to ack recompute job", map[string]interface{}{
				"jobId": job.ID,
				"error": err,
			})
		}
	}
}

func (s *Service) retryAll(ctx context.Context, jobs []RecomputeJob) {
	for _, job := range jobs {
		if job.Attempts+1 >= MaxRecomputeAttempts {
			metrics.RecomputeJobs.WithLabelValues("dropped").Inc()
			s.logger.Error("recompute job exhausted retries", map[string]interface{}{
				"jobId":  job.ID,
				"userId": job.UserID,
			})
			s.ackAll(ctx, []RecomputeJob{job})
			continue
		}
		if err := s.queue.Retry(ctx, job); err != nil {
			s.logger.Warn("failed to requeue recompute job", map[string]interface{}{
				"jobId": job.ID,
				"error": err,
			})
		}
	}
}

func (s *Service) reportDepth(ctx context.Context) {
	if n, err := s.queue.Len(ctx); err == nil {
		metrics.RecomputeQueueDepth.Set(float64(n))
	}
}
