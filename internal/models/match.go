// internal/models/match.go
package models

import "time"

type RankedMatch struct {
	UserID        string              `json:"userId"`
	Score         int                 `json:"score"`
	LastActive    time.Time           `json:"lastActive"`
	Compatibility *CompatibilityScore `json:"compatibility"`
}

// MatchList is a ranked candidate list. Version changes on every generation
// so a cached copy can be told apart from a fresh one.
type MatchList struct {
	UserID         string        `json:"userId"`
	Matches        []RankedMatch `json:"matches"`
	Total          int           `json:"total"`
	GeneratedAt    time.Time     `json:"generatedAt"`
	Version        string        `json:"version"`
	ResponseTimeMs int64         `json:"responseTimeMs"`
	Cached         bool          `json:"cached"`
}

type PrecomputeResult struct {
	TotalUsers  int           `json:"totalUsers"`
	Succeeded   int           `json:"succeeded"`
	Failed      int           `json:"failed"`
	Duration    time.Duration `json:"duration"`
	CompletedAt time.Time     `json:"completedAt"`
	Skipped     bool          `json:"skipped"`
}

type ProfileUpdateResult struct {
	SignificantFields []string `json:"significantFields"`
	Invalidated       int      `json:"invalidated"`
	RecomputeQueued   bool     `json:"recomputeQueued"`
}

type ServiceMetrics struct {
	TotalRequests     int64   `json:"totalRequests"`
	AvgResponseTimeMs float64 `json:"avgResponseTimeMs"`
	CacheHitRate      float64 `json:"cacheHitRate"`
	ErrorRate         float64 `json:"errorRate"`
}

// MatchEvent is published downstream when a user's match list is refreshed.
type MatchEvent struct {
	Type       string    `json:"type"`
	UserID     string    `json:"userId,omitempty"`
	MatchCount int       `json:"matchCount"`
	Version    string    `json:"version,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

const (
	EventMatchesRecomputed  = "matches.recomputed"
	EventMatchesPrecomputed = "matches.precomputed"
)
