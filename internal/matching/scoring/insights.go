package scoring

import (
	"fmt"
	"strings"

	"compatibility-workers/internal/matching/heuristics"
	"compatibility-workers/internal/models"
)

func insights(a, b *models.Profile, bd models.ScoreBreakdown, lifestyle lifestyleParts, overall int, analysis *models.ValuesAnalysis) []string {
	var out []string

	if a.Dietary == b.Dietary && a.Dietary.Valid() {
		out = append(out, fmt.Sprintf("You both follow a %s lifestyle", a.Dietary))
	}
	if shared := heuristics.Shared(a.Interests, b.Interests); len(shared) >= 3 {
		out = append(out, fmt.Sprintf("You share %d interests: %s", len(shared), strings.Join(shared, ", ")))
	}
	if sameCity(a.Location, b.Location) {
		out = append(out, fmt.Sprintf("You both live in %s", strings.TrimSpace(a.Location.City)))
	}
	if lifestyle.cooking >= 85 {
		out = append(out, "Your cooking skills are a great fit for sharing a kitchen")
	}
	if overall >= 80 {
		out = append(out, "You have exceptional overall compatibility")
	}
	if analysis != nil && len(analysis.Insights) > 0 {
		out = append(out, analysis.Insights[0])
	}
	if len(out) == 0 {
		out = append(out, fmt.Sprintf("Your strongest connection is %s", strongestDimension(bd)))
	}
	return out
}

func strongestDimension(bd models.ScoreBreakdown) string {
	dims := []struct {
		name  string
		score int
	}{
		{"lifestyle alignment", bd.LifestyleAlignment},
		{"shared values", bd.ValuesCompatibility},
		{"how your lives fit together", bd.LifestyleIntegration},
		{"communication style", bd.CommunicationStyle},
		{"personality", bd.PersonalCompatibility},
	}
	best := dims[0]
	for _, d := range dims[1:] {
		if d.score > best.score {
			best = d
		}
	}
	return best.name
}
