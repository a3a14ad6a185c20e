package scoring

import (
	"strings"

	"compatibility-workers/internal/matching/heuristics"
	"compatibility-workers/internal/models"
)

func lifestyleIntegration(a, b *models.Profile) int {
	return heuristics.Round(
		0.5*locationMatch(a.Location, b.Location) +
			0.3*ageFit(a, b) +
			0.2*availability(a, b),
	)
}

func locationMatch(a, b models.Location) float64 {
	if a.Coordinates != nil && b.Coordinates != nil {
		d := heuristics.DistanceKm(*a.Coordinates, *b.Coordinates)
		switch {
		case d <= 10:
			return 100
		case d <= 25:
			return 85
		case d <= 50:
			return 70
		case d <= 100:
			return 50
		case d <= 250:
			return 30
		default:
			return 10
		}
	}
	switch {
	case sameCity(a, b) && sameLocality(a.State, b.State) && sameLocality(a.Country, b.Country):
		return 100
	case known(a.State, b.State) && sameLocality(a.Country, b.Country):
		return 70
	case known(a.Country, b.Country):
		return 40
	default:
		return 10
	}
}

// sameLocality treats two blank values as agreeing so a missing state or
// country does not demote an otherwise matching city.
func sameLocality(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" && b == "" {
		return true
	}
	return strings.EqualFold(a, b)
}

// known reports whether both values are present and equal.
func known(a, b string) bool {
	return strings.TrimSpace(a) != "" && sameLocality(a, b)
}

func sameCity(a, b models.Location) bool {
	return known(a.City, b.City)
}

func ageFit(a, b *models.Profile) float64 {
	aAccepts := a.Preferences.AcceptsAge(b.Age)
	bAccepts := b.Preferences.AcceptsAge(a.Age)
	switch {
	case aAccepts && bAccepts:
		return 100
	case aAccepts || bAccepts:
		return 50
	default:
		return 0
	}
}

func availability(a, b *models.Profile) float64 {
	ra, okA := heuristics.ActiveRatio(a.Interests)
	rb, okB := heuristics.ActiveRatio(b.Interests)
	if !okA || !okB {
		return 50
	}
	return 100 - 100*abs(ra-rb)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
