// Package values compares two structured values assessments and produces a
// composite score with insights and recommendations.
package values

import (
	"compatibility-workers/internal/matching/heuristics"
	"compatibility-workers/internal/models"
)

// Composite weights. They sum to 1.
const (
	weightEthics    = 0.30
	weightLifestyle = 0.25
	weightJourney   = 0.20
	weightConflict  = 0.15
	weightCultural  = 0.10
)

// Analyze compares two values profiles. It never mutates its inputs and is
// symmetric in a and b. Callers decide whether the profiles qualify.
func Analyze(a, b *models.ValuesProfile) *models.ValuesAnalysis {
	ethics := ethicalMotivation(a.Ethics, b.Ethics)
	lifestyle := lifestyleCompatibility(a.Lifestyle, b.Lifestyle)
	journey := journeyCompatibility(a.Journey, b.Journey)
	conflicts := assessConflicts(a, b)
	cultural := culturalCompatibility(a, b)

	breakdown := models.ValuesBreakdown{
		EthicalMotivation: ethics,
		Lifestyle:         lifestyle,
		JourneyStage:      journey.score,
		ValuesConflict:    conflicts.score,
		Cultural:          cultural,
	}

	overall := heuristics.Round(
		weightEthics*float64(ethics) +
			weightLifestyle*float64(lifestyle) +
			weightJourney*float64(journey.score) +
			weightConflict*float64(conflicts.score) +
			weightCultural*float64(cultural),
	)

	analysis := &models.ValuesAnalysis{
		OverallScore:     overall,
		Breakdown:        breakdown,
		RelationshipType: journey.relationship,
		Dealbreakers:     conflicts.dealbreakers,
		CompromiseAreas:  conflicts.compromises,
	}
	analysis.Insights = buildInsights(a, b, analysis)
	analysis.Recommendations = buildRecommendations(analysis)
	return analysis
}
