// Package ranking turns candidate profiles into ranked, cached match lists and
// keeps them fresh as profiles change.
package ranking

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "compatibility-workers/internal/common/errors"
	"compatibility-workers/internal/common/logger"
	"compatibility-workers/internal/common/metrics"
	"compatibility-workers/internal/matching/cache"
	"compatibility-workers/internal/matching/scoring"
	"compatibility-workers/internal/models"
)

const tracerName = "compatibility-workers/ranking"

type ProfileStore interface {
	FindByID(ctx context.Context, userID string) (*models.Profile, error)
	ActiveVerifiedUserIDs(ctx context.Context) ([]string, error)
}

type ValuesStore interface {
	FindValuesProfile(ctx context.Context, userID string) (*models.ValuesProfile, error)
}

type CandidateFinder interface {
	FindForUser(ctx context.Context, requesterID string, maxCandidates int) (*models.Profile, []*models.Profile, error)
}

type Scorer interface {
	Score(a, b scoring.Snapshot) (*models.CompatibilityScore, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event models.MatchEvent) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, models.MatchEvent) error { return nil }

type Config struct {
	MaxCandidateCap       int
	CandidateMultiplier   int
	DefaultLimit          int
	DailyListLimit        int
	ScoringConcurrency    int
	PrecomputeBatchSize   int
	PrecomputeBatchDelay  time.Duration
	PrecomputeInterval    time.Duration
	RecomputePollInterval time.Duration
	RecomputeBatchSize    int
}

func (c *Config) withDefaults() {
	if c.MaxCandidateCap <= 0 {
		c.MaxCandidateCap = 50
	}
	if c.CandidateMultiplier <= 0 {
		c.CandidateMultiplier = 3
	}
	if c.DefaultLimit <= 0 {
		c.DefaultLimit = 10
	}
	if c.DailyListLimit <= 0 {
		c.DailyListLimit = 20
	}
	if c.ScoringConcurrency <= 0 {
		c.ScoringConcurrency = 8
	}
	if c.PrecomputeBatchSize <= 0 {
		c.PrecomputeBatchSize = 50
	}
	if c.PrecomputeInterval <= 0 {
		c.PrecomputeInterval = 24 * time.Hour
	}
	if c.RecomputePollInterval <= 0 {
		c.RecomputePollInterval = 30 * time.Second
	}
	if c.RecomputeBatchSize <= 0 {
		c.RecomputeBatchSize = 20
	}
}

// Deps are the collaborators a Service is built from. Queue and Publisher
// are optional.
type Deps struct {
	Profiles   ProfileStore
	Values     ValuesStore
	Candidates CandidateFinder
	Scorer     Scorer
	Cache      *cache.Cache
	Keys       cache.Keys
	Queue      RecomputeQueue
	Publisher  EventPublisher
	Logger     logger.Logger
}

type Option func(*Service)

// WithClock replaces time.Now for generated timestamps and durations.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

type Service struct {
	cfg        Config
	profiles   ProfileStore
	values     ValuesStore
	candidates CandidateFinder
	scorer     Scorer
	cache      *cache.Cache
	keys       cache.Keys
	queue      RecomputeQueue
	publisher  EventPublisher
	logger     logger.Logger
	validate   *validator.Validate
	tracer     trace.Tracer
	now        func() time.Time
	stats      stats
	updates    updateLog

	precomputing atomic.Bool
	recomputing  atomic.Bool

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped <-chan error
}

func NewService(cfg Config, deps Deps, opts ...Option) *Service {
	cfg.withDefaults()
	s := &Service{
		cfg:        cfg,
		profiles:   deps.Profiles,
		values:     deps.Values,
		candidates: deps.Candidates,
		scorer:     deps.Scorer,
		cache:      deps.Cache,
		keys:       deps.Keys,
		queue:      deps.Queue,
		publisher:  deps.Publisher,
		logger:     deps.Logger.WithFields(map[string]interface{}{"component": "match-ranking"}),
		validate:   validator.New(),
		tracer:     otel.Tracer(tracerName),
		now:        time.Now,
	}
	if s.queue == nil {
		s.queue = NewMemoryQueue()
	}
	if s.publisher == nil {
		s.publisher = NopPublisher{}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type GenerateOptions struct {
	Limit        int `validate:"gte=0,lte=100"`
	MinScore     int `validate:"gte=0,lte=100"`
	ForceRefresh bool
}

type ScoreOptions struct {
	ForceRefresh bool
}

// GenerateMatches returns the requester's ranked matches, served from cache
// when a list for the same options or the daily precomputed list is still
// fresh.
func (s *Service) GenerateMatches(ctx context.Context, userID string, opts GenerateOptions) (*models.MatchList, error) {
	ctx, span := s.tracer.Start(ctx, "ranking.GenerateMatches",
		trace.WithAttributes(attribute.String("user.id", userID), attribute.Bool("force_refresh", opts.ForceRefresh)))
	defer span.End()

	start := s.now()

	if userID == "" {
		return nil, s.fail(span, apperrors.NewInvalidInputError("userId is required"))
	}
	if err := s.validate.Struct(opts); err != nil {
		return nil, s.fail(span, invalidOptions(err))
	}
	limit := opts.Limit
	if limit == 0 {
		limit = s.cfg.DefaultLimit
	}

	key := s.keys.Matches(userID, limit, opts.MinScore)
	if !opts.ForceRefresh {
		cached, source := s.cachedList(ctx, userID, key, limit, opts.MinScore)
		s.stats.lookup(cached != nil)
		if cached != nil {
			elapsed := s.now().Sub(start)
			cached.Cached = true
			cached.ResponseTimeMs = elapsed.Milliseconds()
			s.stats.request(elapsed, false)
			metrics.MatchGenerationDuration.WithLabelValues(source).Observe(elapsed.Seconds())
			span.SetAttributes(attribute.Bool("cache.hit", true), attribute.String("cache.source", source))
			return cached, nil
		}
	}

	mark := s.updates.mark()
	list, scores, err := s.compute(ctx, userID, limit, opts.MinScore)
	if err != nil {
		s.stats.request(s.now().Sub(start), true)
		return nil, s.fail(span, err)
	}

	elapsed := s.now().Sub(start)
	list.ResponseTimeMs = elapsed.Milliseconds()

	s.writeFresh(ctx, mark, []string{userID}, func() {
		s.cache.Set(ctx, key, list, s.cache.ListTTL())
	})
	for _, sc := range scores {
		score := sc
		s.writeFresh(ctx, mark, []string{score.UserA, score.UserB}, func() {
			s.cache.Set(ctx, s.keys.Score(score.UserA, score.UserB), score, s.cache.ScoreTTL())
		})
	}

	s.stats.request(elapsed, false)
	metrics.MatchGenerationDuration.WithLabelValues("computed").Observe(elapsed.Seconds())
	span.SetAttributes(attribute.Int("matches.total", list.Total))
	return list, nil
}

// cachedList looks up the list for these exact options, then falls back to
// the precomputed daily list. The daily list was ranked without a score floor,
// so it only answers when it holds at least limit entries or is the user's
// whole pool.
func (s *Service) cachedList(ctx context.Context, userID, key string, limit, minScore int) (*models.MatchList, string) {
	var list models.MatchList
	if s.cache.Get(ctx, key, &list) {
		return &list, "cache"
	}

	var daily models.MatchList
	if !s.cache.Get(ctx, s.keys.Daily(userID), &daily) {
		return nil, ""
	}
	if limit > s.cfg.DailyListLimit && len(daily.Matches) >= s.cfg.DailyListLimit {
		return nil, ""
	}

	matches := make([]models.RankedMatch, 0, min(limit, len(daily.Matches)))
	for _, m := range daily.Matches {
		if m.Score < minScore {
			continue
		}
		matches = append(matches, m)
		if len(matches) == limit {
			break
		}
	}
	daily.Matches = matches
	daily.Total = len(matches)
	return &daily, "daily"
}

// writeFresh runs write unless one of userIDs had a significant profile update
// after mark. An update that lands while write runs is caught by the second
// check and the user's keys are dropped again.
func (s *Service) writeFresh(ctx context.Context, mark uint64, userIDs []string, write func()) bool {
	if len(s.updates.changedSince(mark, userIDs...)) > 0 {
		return false
	}
	write()
	stale := s.updates.changedSince(mark, userIDs...)
	for _, id := range stale {
		s.cache.Invalidate(ctx, s.keys.UserPattern(id))
	}
	return len(stale) == 0
}

// compute builds a fresh list without touching the cache. It returns every
// successful pair score alongside the list so callers can decide what to
// persist. A cancelled context yields the context error and nothing else.
func (s *Service) compute(ctx context.Context, userID string, limit, minScore int) (*models.MatchList, []*models.CompatibilityScore, error) {
	maxCandidates := min(limit*s.cfg.CandidateMultiplier, s.cfg.MaxCandidateCap)

	requester, candidates, err := s.candidates.FindForUser(ctx, userID, maxCandidates)
	if err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	self := scoring.Snapshot{Profile: requester, Values: s.loadValues(ctx, requester.ID)}

	p := pool.NewWithResults[*models.CompatibilityScore]().WithMaxGoroutines(s.cfg.ScoringConcurrency)
	for _, c := range candidates {
		candidate := c
		p.Go(func() *models.CompatibilityScore {
			if ctx.Err() != nil {
				return nil
			}
			other := scoring.Snapshot{Profile: candidate, Values: s.loadValues(ctx, candidate.ID)}
			sc, err := s.scorer.Score(self, other)
			if err != nil {
				metrics.ScoringFailures.Inc()
				s.logger.Warn("dropping candidate", map[string]interface{}{
					"userId":      userID,
					"candidateId": candidate.ID,
					"error":       err,
				})
				return nil
			}
			return sc
		})
	}
	results := p.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	lastActive := make(map[string]time.Time, len(candidates))
	for _, c := range candidates {
		lastActive[c.ID] = c.LastActive
	}

	scores := make([]*models.CompatibilityScore, 0, len(results))
	matches := make([]models.RankedMatch, 0, len(results))
	for _, sc := range results {
		if sc == nil {
			continue
		}
		scores = append(scores, sc)
		metrics.CompatibilityScores.Observe(float64(sc.Overall))
		if sc.Overall < minScore {
			continue
		}
		matches = append(matches, models.RankedMatch{
			UserID:        sc.UserB,
			Score:         sc.Overall,
			LastActive:    lastActive[sc.UserB],
			Compatibility: sc,
		})
	}

	sortMatches(matches)
	if len(matches) > limit {
		matches = matches[:limit]
	}

	return &models.MatchList{
		UserID:      userID,
		Matches:     matches,
		Total:       len(matches),
		GeneratedAt: s.now().UTC(),
		Version:     uuid.NewString(),
	}, scores, nil
}

// sortMatches orders by score, then recency, then id so equal inputs always
// produce the same list.
func sortMatches(matches []models.RankedMatch) {
	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.LastActive.Equal(b.LastActive) {
			return a.LastActive.After(b.LastActive)
		}
		return a.UserID < b.UserID
	})
}

// loadValues treats a failed lookup like a missing assessment so scoring
// falls back to the profile heuristics.
func (s *Service) loadValues(ctx context.Context, userID string) *models.ValuesProfile {
	if s.values == nil {
		return nil
	}
	vp, err := s.values.FindValuesProfile(ctx, userID)
	if err != nil {
		s.logger.Debug("values profile unavailable", map[string]interface{}{
			"userId": userID,
			"error":  err,
		})
		return nil
	}
	return vp
}

// ScoreCompatibility scores a single pair. Unlike list generation, a profile
// that cannot be loaded is an error for the caller.
func (s *Service) ScoreCompatibility(ctx context.Context, userA, userB string, opts ScoreOptions) (*models.CompatibilityScore, error) {
	ctx, span := s.tracer.Start(ctx, "ranking.ScoreCompatibility",
		trace.WithAttributes(attribute.String("user.a", userA), attribute.String("user.b", userB)))
	defer span.End()

	start := s.now()

	if userA == "" || userB == "" {
		return nil, s.fail(span, apperrors.NewInvalidInputError("both user ids are required"))
	}
	if userA == userB {
		return nil, s.fail(span, apperrors.NewInvalidInputError("cannot score a user against themselves"))
	}

	key := s.keys.Score(userA, userB)
	if !opts.ForceRefresh {
		var cached models.CompatibilityScore
		hit := s.cache.Get(ctx, key, &cached)
		s.stats.lookup(hit)
		if hit {
			if cached.UserA != userA {
				cached.UserA, cached.UserB = cached.UserB, cached.UserA
			}
			s.stats.request(s.now().Sub(start), false)
			return &cached, nil
		}
	}

	mark := s.updates.mark()
	a, err := s.profiles.FindByID(ctx, userA)
	if err != nil {
		s.stats.request(s.now().Sub(start), true)
		return nil, s.fail(span, apperrors.NewScoreUnavailableError(userA, userB, err))
	}
	b, err := s.profiles.FindByID(ctx, userB)
	if err != nil {
		s.stats.request(s.now().Sub(start), true)
		return nil, s.fail(span, apperrors.NewScoreUnavailableError(userA, userB, err))
	}

	score, err := s.scorer.Score(
		scoring.Snapshot{Profile: a, Values: s.loadValues(ctx, userA)},
		scoring.Snapshot{Profile: b, Values: s.loadValues(ctx, userB)},
	)
	if err != nil {
		s.stats.request(s.now().Sub(start), true)
		return nil, s.fail(span, err)
	}

	s.writeFresh(ctx, mark, []string{userA, userB}, func() {
		s.cache.Set(ctx, key, score, s.cache.ScoreTTL())
	})
	metrics.CompatibilityScores.Observe(float64(score.Overall))
	s.stats.request(s.now().Sub(start), false)
	span.SetAttributes(attribute.Int("score.overall", score.Overall))
	return score, nil
}

// GetMetrics reports request counters since the service was built.
func (s *Service) GetMetrics() models.ServiceMetrics {
	return s.stats.snapshot()
}

func invalidOptions(err error) error {
	return apperrors.NewInvalidInputError(err.Error())
}

func (s *Service) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
