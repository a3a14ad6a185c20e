package scorecompatibility

import "compatibility-workers/internal/models"

type Input struct {
	UserID       string `json:"userId"`
	CandidateID  string `json:"candidateId"`
	ForceRefresh bool   `json:"forceRefresh"`
}

type Output struct {
	Overall    int                   `json:"overall"`
	Breakdown  models.ScoreBreakdown `json:"breakdown"`
	Confidence int                   `json:"confidence"`
	Insights   []string              `json:"insights"`
}
