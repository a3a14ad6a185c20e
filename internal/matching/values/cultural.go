package values

import (
	"compatibility-workers/internal/matching/heuristics"
	"compatibility-workers/internal/models"
)

var densityScores = map[[2]string]float64{
	pairKey("urban", "suburban"): 75,
	pairKey("suburban", "rural"): 60,
	pairKey("urban", "rural"):    40,
}

var resourceLevels = map[string]float64{
	"abundant": 3,
	"moderate": 2,
	"limited":  1,
}

var familyScores = map[[2]string]float64{
	pairKey("supportive", "supportive"): 100,
	pairKey("supportive", "neutral"):    80,
	pairKey("neutral", "neutral"):       70,
	pairKey("supportive", "opposed"):    50,
	pairKey("neutral", "opposed"):       50,
	pairKey("opposed", "opposed"):       40,
}

// resourceAccess rewards similar access to plant-based resources, discounted
// when both sides have little of it.
func resourceAccess(a, b string) float64 {
	la, oka := resourceLevels[a]
	lb, okb := resourceLevels[b]
	if !oka || !okb {
		return 50
	}
	diff := la - lb
	if diff < 0 {
		diff = -diff
	}
	low := la
	if lb < low {
		low = lb
	}
	return 100 - 25*diff - 10*(3-low)
}

func culturalCompatibility(a, b *models.ValuesProfile) int {
	density := lookup(densityScores, a.Community.CommunityDensity, b.Community.CommunityDensity, 50)
	resources := resourceAccess(a.Community.ResourceAccess, b.Community.ResourceAccess)
	family := lookup(familyScores, a.Relationship.FamilySupport, b.Relationship.FamilySupport, 50)

	return heuristics.Round(0.35*density + 0.35*resources + 0.30*family)
}
