package scoring

import (
	"compatibility-workers/internal/matching/heuristics"
	"compatibility-workers/internal/models"
)

// Fixed baselines for behavioral signals nobody collects yet.
const (
	responseCadenceBaseline = 70
	emojiUsageBaseline      = 70
	neutralScore            = 50
)

func communicationStyle(a, b *models.Profile) int {
	text := float64(neutralScore)
	if sim, ok := heuristics.ComplexitySimilarity(a.Bio, b.Bio); ok {
		text = float64(sim)
	}
	return heuristics.Round(0.5*text + 0.3*responseCadenceBaseline + 0.2*emojiUsageBaseline)
}

func personalCompatibility(a, b *models.Profile) int {
	ra, okA := heuristics.SocialRatio(a.Interests)
	rb, okB := heuristics.SocialRatio(b.Interests)
	if !okA || !okB {
		return neutralScore
	}
	return heuristics.Round(100 - 100*abs(ra-rb))
}
