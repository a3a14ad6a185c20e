package ranking

import (
	"math"
	"sync"
	"time"

	"compatibility-workers/internal/models"
)

type stats struct {
	mu            sync.Mutex
	requests      int64
	errors        int64
	totalResponse time.Duration
	lookups       int64
	hits          int64
}

func (s *stats) request(elapsed time.Duration, failed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests++
	s.totalResponse += elapsed
	if failed {
		s.errors++
	}
}

func (s *stats) lookup(hit bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups++
	if hit {
		s.hits++
	}
}

func (s *stats) snapshot() models.ServiceMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := models.ServiceMetrics{TotalRequests: s.requests}
	if s.requests > 0 {
		avg := float64(s.totalResponse.Microseconds()) / 1000 / float64(s.requests)
		out.AvgResponseTimeMs = roundTo(avg, 2)
		out.ErrorRate = roundTo(float64(s.errors)/float64(s.requests), 4)
	}
	if s.lookups > 0 {
		out.CacheHitRate = roundTo(float64(s.hits)/float64(s.lookups), 4)
	}
	return out
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
