// Package cache stores computed scores and ranked lists. It is an
// optimization only: every failure reads as a miss and every write failure
// is swallowed.
package cache

import (
	"context"
	"errors"
	"time"

	json "github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	apperrors "compatibility-workers/internal/common/errors"
	"compatibility-workers/internal/common/logger"
	"compatibility-workers/internal/common/metrics"
)

type Config struct {
	ScoreTTL         time.Duration
	ListTTL          time.Duration
	DailyTTL         time.Duration
	OperationTimeout time.Duration
	BreakerFailures  uint32
	BreakerCooldown  time.Duration
}

func (c *Config) withDefaults() {
	if c.ScoreTTL <= 0 {
		c.ScoreTTL = time.Hour
	}
	if c.ListTTL <= 0 {
		c.ListTTL = 30 * time.Minute
	}
	if c.DailyTTL <= 0 {
		c.DailyTTL = 24 * time.Hour
	}
	if c.OperationTimeout <= 0 {
		c.OperationTimeout = 250 * time.Millisecond
	}
	if c.BreakerFailures == 0 {
		c.BreakerFailures = 5
	}
	if c.BreakerCooldown <= 0 {
		c.BreakerCooldown = 30 * time.Second
	}
}

type Cache struct {
	store   Store
	breaker *gobreaker.CircuitBreaker[[]byte]
	cfg     Config
	logger  logger.Logger
}

func New(store Store, cfg Config, log logger.Logger) *Cache {
	cfg.withDefaults()
	if store == nil {
		store = NopStore{}
	}
	log = log.WithFields(map[string]interface{}{"component": "cache"})

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "match-cache",
		MaxRequests: 1,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrMiss)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("Cache circuit breaker state changed", map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
	})

	return &Cache{store: store, breaker: breaker, cfg: cfg, logger: log}
}

func (c *Cache) ScoreTTL() time.Duration { return c.cfg.ScoreTTL }
func (c *Cache) ListTTL() time.Duration  { return c.cfg.ListTTL }
func (c *Cache) DailyTTL() time.Duration { return c.cfg.DailyTTL }

// Get decodes the value stored under key into dst. It reports false on a
// miss, on any store failure and on a payload that no longer decodes.
func (c *Cache) Get(ctx context.Context, key string, dst interface{}) bool {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.OperationTimeout)
	defer cancel()

	raw, err := c.breaker.Execute(func() ([]byte, error) {
		return c.store.Get(ctx, key)
	})
	switch {
	case errors.Is(err, ErrMiss):
		metrics.CacheRequests.WithLabelValues("miss").Inc()
		return false
	case err != nil:
		metrics.CacheRequests.WithLabelValues("error").Inc()
		c.unavailable("get", key, err)
		return false
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		metrics.CacheRequests.WithLabelValues("error").Inc()
		c.logger.Warn("Discarding undecodable cache entry", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return false
	}
	metrics.CacheRequests.WithLabelValues("hit").Inc()
	return true
}

// Set encodes value and stores it with ttl. Writes are last-writer-wins.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	payload, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("Skipping cache write for unencodable value", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.OperationTimeout)
	defer cancel()

	_, err = c.breaker.Execute(func() ([]byte, error) {
		return nil, c.store.Set(ctx, key, payload, ttl)
	})
	if err != nil {
		c.unavailable("set", key, err)
	}
}

// Invalidate removes every key matching pattern and returns how many went.
func (c *Cache) Invalidate(ctx context.Context, pattern string) int {
	var deleted int
	_, err := c.breaker.Execute(func() ([]byte, error) {
		n, err := c.store.DeletePattern(ctx, pattern)
		deleted = n
		return nil, err
	})
	if err != nil {
		c.unavailable("invalidate", pattern, err)
	}
	metrics.CacheInvalidations.Add(float64(deleted))
	return deleted
}

func (c *Cache) unavailable(op, key string, err error) {
	c.logger.Debug("Cache unavailable, continuing without it", map[string]interface{}{
		"key":   key,
		"error": apperrors.NewCacheUnavailableError(op, err).Error(),
	})
}
