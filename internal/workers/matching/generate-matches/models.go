package generatematches

import (
	"time"

	"compatibility-workers/internal/models"
)

type Input struct {
	UserID       string `json:"userId"`
	Limit        int    `json:"limit"`
	MinScore     int    `json:"minScore"`
	ForceRefresh bool   `json:"forceRefresh"`
}

type Output struct {
	Matches        []models.RankedMatch `json:"matches"`
	Total          int                  `json:"total"`
	GeneratedAt    time.Time            `json:"generatedAt"`
	ResponseTimeMs int64                `json:"responseTimeMs"`
	Cached         bool                 `json:"cached"`
	Version        string               `json:"version"`
}
