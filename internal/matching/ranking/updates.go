package ranking

import (
	"context"
	"sort"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "compatibility-workers/internal/common/errors"
	"compatibility-workers/internal/common/metrics"
	"compatibility-workers/internal/models"
)

// Fields whose change invalidates cached matches.
const (
	FieldLocation    = "location"
	FieldInterests   = "interests"
	FieldDietary     = "dietary_preference"
	FieldPreferences = "preferences"
)

// significantFields maps normalized field names (lowercase, separators
// removed) onto the canonical field they affect.
var significantFields = map[string]string{
	"location":            FieldLocation,
	"city":                FieldLocation,
	"state":               FieldLocation,
	"country":             FieldLocation,
	"coordinates":         FieldLocation,
	"latitude":            FieldLocation,
	"longitude":           FieldLocation,
	"interests":           FieldInterests,
	"dietarypreference":   FieldDietary,
	"dietary":             FieldDietary,
	"diet":                FieldDietary,
	"preferences":         FieldPreferences,
	"matchpreferences":    FieldPreferences,
	"matchingpreferences": FieldPreferences,
	"dietarydealbreaker":  FieldPreferences,
	"maxdistancekm":       FieldPreferences,
	"minage":              FieldPreferences,
	"maxage":              FieldPreferences,
}

// SignificantFields returns the sorted canonical names of the changed fields
// that affect matching. Nested paths such as "preferences.maxAge" count
// toward their root.
func SignificantFields(changed []string) []string {
	seen := make(map[string]struct{})
	for _, field := range changed {
		root, _, _ := strings.Cut(field, ".")
		norm := strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.ToLower(strings.TrimSpace(root)))
		if canonical, ok := significantFields[norm]; ok {
			seen[canonical] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for f := range seen {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// OnProfileUpdated drops the user's cached lists and scores and queues a
// recompute when a matching-relevant field changed. Cache and queue failures
// are logged, never returned; an entry missed here ages out with its TTL.
func (s *Service) OnProfileUpdated(ctx context.Context, userID string, changedFields []string) (*models.ProfileUpdateResult, error) {
	ctx, span := s.tracer.Start(ctx, "ranking.OnProfileUpdated",
		trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	if userID == "" {
		return nil, s.fail(span, apperrors.NewInvalidInputError("userId is required"))
	}

	result := &models.ProfileUpdateResult{SignificantFields: SignificantFields(changedFields)}
	if len(result.SignificantFields) == 0 {
		return result, nil
	}

	s.updates.record(userID)
	result.Invalidated = s.cache.Invalidate(ctx, s.keys.UserPattern(userID))

	job := NewRecomputeJob(userID, result.SignificantFields, s.now())
	if err := s.queue.Enqueue(ctx, job); err != nil {
		span.RecordError(err)
		s.logger.Warn("failed to enqueue recompute", map[string]interface{}{
			"userId": userID,
			"error":  err,
		})
		return result, nil
	}
	metrics.RecomputeJobs.WithLabelValues("enqueued").Inc()
	result.RecomputeQueued = true

	s.logger.Info("profile update invalidated matches", map[string]interface{}{
		"userId":      userID,
		"fields":      result.SignificantFields,
		"invalidated": result.Invalidated,
	})
	return result, nil
}

// updateLog sequences significant profile updates so work that started before
// an update can tell its results are stale.
type updateLog struct {
	mu   sync.Mutex
	seq  uint64
	last map[string]uint64
}

func (l *updateLog) mark() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seq
}

func (l *updateLog) record(userID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.last == nil {
		l.last = make(map[string]uint64)
	}
	l.seq++
	l.last[userID] = l.seq
}

// changedSince returns the users updated after mark.
func (l *updateLog) changedSince(mark uint64, userIDs ...string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for _, id := range userIDs {
		if l.last[id] > mark {
			out = append(out, id)
		}
	}
	return out
}
