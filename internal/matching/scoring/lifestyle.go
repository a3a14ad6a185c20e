package scoring

import (
	"math"

	"compatibility-workers/internal/matching/heuristics"
	"compatibility-workers/internal/models"
)

type lifestyleParts struct {
	diet       float64
	commitment float64
	cooking    float64
	venues     float64
	total      int
}

func lifestyleAlignment(a, b *models.Profile) lifestyleParts {
	p := lifestyleParts{
		diet:       dietMatch(a, b),
		commitment: commitmentCloseness(a.YearsCommitted, b.YearsCommitted),
		cooking:    cookingAdjacency(a.CookingSkill, b.CookingSkill),
		venues:     venueOverlap(a.FavoriteVenues, b.FavoriteVenues),
	}
	p.total = heuristics.Round(0.40*p.diet + 0.25*p.commitment + 0.20*p.cooking + 0.15*p.venues)
	return p
}

// dietMatch scores identical diets 100 and the strict/lenient pair 75. A
// dealbreaker on either side turns any mismatch into 0.
func dietMatch(a, b *models.Profile) float64 {
	if a.Dietary == b.Dietary && a.Dietary.Valid() {
		return 100
	}
	if a.Preferences.DietaryDealbreaker || b.Preferences.DietaryDealbreaker {
		return 0
	}
	if a.Dietary.Valid() && b.Dietary.Valid() {
		return 75
	}
	return 0
}

func commitmentCloseness(a, b float64) float64 {
	gap := math.Abs(a - b)
	switch {
	case gap <= 1:
		return 100
	case gap <= 3:
		return 80
	case gap <= 5:
		return 60
	default:
		return math.Max(0, 60-10*(gap-5))
	}
}

func cookingAdjacency(a, b models.CookingSkill) float64 {
	if a == models.CookingUnset || b == models.CookingUnset {
		return 50
	}
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	switch diff {
	case 0:
		return 100
	case 1:
		return 85
	case 2:
		return 60
	default:
		return 30
	}
}

func venueOverlap(a, b []string) float64 {
	ratio, ok := heuristics.Jaccard(a, b)
	if !ok {
		return 50
	}
	return 100 * ratio
}
