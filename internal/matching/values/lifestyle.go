package values

import (
	"math"

	"compatibility-workers/internal/matching/heuristics"
	"compatibility-workers/internal/models"
)

// pairKey orders two labels so symmetric lookups need one table entry.
func pairKey(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}

func lookup(table map[[2]string]float64, a, b string, fallback float64) float64 {
	if a == "" || b == "" {
		return fallback
	}
	if a == b {
		if v, ok := table[pairKey(a, b)]; ok {
			return v
		}
		return 100
	}
	if v, ok := table[pairKey(a, b)]; ok {
		return v
	}
	return fallback
}

var cookingFrequencyScores = map[[2]string]float64{
	pairKey("daily", "weekly"):  70,
	pairKey("weekly", "rarely"): 70,
	pairKey("daily", "rarely"):  40,
}

var socialDiningScores = map[[2]string]float64{
	pairKey("plant_only", "mixed_ok"): 60,
	pairKey("plant_only", "flexible"): 30,
	pairKey("mixed_ok", "flexible"):   80,
}

var socialCircleScores = map[[2]string]float64{
	pairKey("mostly_plant_based", "mixed"):                  75,
	pairKey("mixed", "mostly_non_plant_based"):              75,
	pairKey("mostly_plant_based", "mostly_non_plant_based"): 45,
}

func scaleSimilarity(a, b int) float64 {
	if a == 0 || b == 0 {
		return 50
	}
	return math.Max(0, 100-25*math.Abs(float64(a-b)))
}

func lifestyleCompatibility(a, b models.LifestyleSection) int {
	cooking := lookup(cookingFrequencyScores, a.CookingFrequency, b.CookingFrequency, 50)
	dining := lookup(socialDiningScores, a.SocialDining, b.SocialDining, 50)
	integration := 0.5*lookup(socialCircleScores, a.SocialCircle, b.SocialCircle, 50) +
		0.5*scaleSimilarity(a.CommunityInvolvement, b.CommunityInvolvement)

	return heuristics.Round(0.40*cooking + 0.35*dining + 0.25*integration)
}
