package scoring

import (
	"math"

	"compatibility-workers/internal/matching/heuristics"
	"compatibility-workers/internal/models"
)

// activismCap is the number of activism signals that counts as fully engaged.
const activismCap = 5

// fallbackValues estimates values compatibility when either side lacks a
// qualifying values assessment.
func fallbackValues(a, b *models.Profile) int {
	motivation := 50.0
	if ratio, ok := heuristics.KeywordOverlap(a.Motivation, b.Motivation, motivationVocabulary); ok {
		motivation = 100 * ratio
	}

	interests := 50.0
	if ratio, ok := heuristics.Jaccard(a.Interests, b.Interests); ok {
		interests = 100 * ratio
	}

	activism := 100 - 100*math.Abs(activismLevel(a)-activismLevel(b))

	return heuristics.Round(0.4*motivation + 0.4*interests + 0.2*activism)
}

var motivationVocabulary = concat(
	heuristics.MotivationKeywords,
	heuristics.DietKeywords,
	heuristics.LifestyleKeywords,
)

func concat(lists ...[]string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, l := range lists {
		for _, s := range l {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

// activismLevel normalizes activism keywords in free text plus activism tags
// into [0,1].
func activismLevel(p *models.Profile) float64 {
	n := heuristics.KeywordHits(p.Motivation+" "+p.Bio, heuristics.ActivismKeywords) +
		heuristics.ActivismTagCount(p.Interests)
	return math.Min(1, float64(n)/activismCap)
}
