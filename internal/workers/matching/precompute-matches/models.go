package precomputematches

import "time"

// Input fields left at zero fall back to the service configuration.
type Input struct {
	BatchSize    int   `json:"batchSize"`
	BatchDelayMs int64 `json:"batchDelayMs"`
}

type Output struct {
	TotalUsers  int       `json:"totalUsers"`
	Succeeded   int       `json:"succeeded"`
	Failed      int       `json:"failed"`
	DurationMs  int64     `json:"durationMs"`
	CompletedAt time.Time `json:"completedAt"`
	Skipped     bool      `json:"skipped"`
}
