package values

import (
	"math"
	"strings"

	"compatibility-workers/internal/matching/heuristics"
	"compatibility-workers/internal/models"
)

// importanceSimilarity compares two 1-5 importance ratings. Unrated (0) on
// either side reads as neutral.
func importanceSimilarity(a, b int) float64 {
	if a == 0 || b == 0 {
		return 50
	}
	return math.Max(0, 100-25*math.Abs(float64(a-b)))
}

// statementSimilarity compares how strongly each statement speaks to a theme.
func statementSimilarity(a, b string, keywords []string) float64 {
	da := heuristics.KeywordDensity(a, keywords, 3)
	db := heuristics.KeywordDensity(b, keywords, 3)
	return 100 - 100*math.Abs(da-db)
}

func alignment(ia, ib int, sa, sb string, keywords []string) float64 {
	return 0.7*importanceSimilarity(ia, ib) + 0.3*statementSimilarity(sa, sb, keywords)
}

func ethicalMotivation(a, b models.EthicsSection) int {
	animal := alignment(a.AnimalRights, b.AnimalRights, a.MotivationStatement, b.MotivationStatement, heuristics.AnimalKeywords)
	environmental := alignment(a.Environmental, b.Environmental, a.MotivationStatement, b.MotivationStatement, heuristics.EnvironmentalKeywords)
	health := alignment(a.Health, b.Health, a.MotivationStatement, b.MotivationStatement, heuristics.HealthKeywords)

	score := 0.40*animal + 0.35*environmental + 0.25*health
	if a.PrimaryMotivation != "" && strings.EqualFold(a.PrimaryMotivation, b.PrimaryMotivation) {
		score += 10
	}
	return heuristics.Round(score)
}
