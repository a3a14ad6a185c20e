package scoring

import (
	"math"
	"strings"

	"compatibility-workers/internal/models"
)

const optionalFieldCount = 7

func completeness(p *models.Profile) float64 {
	populated := 0
	for _, ok := range []bool{
		strings.TrimSpace(p.Bio) != "",
		strings.TrimSpace(p.Motivation) != "",
		len(p.Interests) > 0,
		len(p.FavoriteVenues) > 0,
		p.CookingSkill != models.CookingUnset,
		!p.Location.IsZero(),
		len(p.Photos) > 0,
	} {
		if ok {
			populated++
		}
	}
	return float64(populated) / optionalFieldCount
}

// confidence is the geometric mean of both sides' completeness.
func confidence(a, b *models.Profile) int {
	return int(math.Round(100 * math.Sqrt(completeness(a)*completeness(b))))
}
