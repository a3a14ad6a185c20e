package values

import (
	"fmt"
	"strings"

	"compatibility-workers/internal/models"
)

var dealbreakerText = map[string]string{
	"children":      "You have opposite plans about having children",
	"child_raising": "You disagree on raising children plant-based",
	"household":     "One of you needs a fully plant-based home while the other cooks flexibly",
}

var compromiseText = map[string]string{
	"children":       "Talk through where each of you stands on having children",
	"social_dining":  "Agree on how you handle dining out with mixed groups",
	"cooking":        "Share the cooking load in a way that suits both rhythms",
	"family_support": "Plan together how to navigate family who do not support your lifestyle",
}

func buildInsights(a, b *models.ValuesProfile, v *models.ValuesAnalysis) []string {
	var out []string
	if v.Breakdown.EthicalMotivation >= 80 {
		motivation := strings.ToLower(a.Ethics.PrimaryMotivation)
		if motivation != "" && strings.EqualFold(a.Ethics.PrimaryMotivation, b.Ethics.PrimaryMotivation) {
			out = append(out, fmt.Sprintf("You are both driven by %s", motivation))
		} else {
			out = append(out, "Your ethical motivations are closely aligned")
		}
	}
	if v.Breakdown.Lifestyle >= 80 {
		out = append(out, "Your day-to-day plant-based routines fit well together")
	}
	switch v.RelationshipType {
	case RelationshipMentorship:
		out = append(out, "One of you can guide the other through their plant-based journey")
	case RelationshipSharedMastery:
		out = append(out, "You both bring years of plant-based experience")
	case RelationshipPeerGrowth:
		if v.Breakdown.JourneyStage >= 85 {
			out = append(out, "You are at the same point in your journey and can grow together")
		}
	}
	if v.Breakdown.Cultural >= 80 {
		out = append(out, "Your communities and families support a shared lifestyle")
	}
	for _, d := range v.Dealbreakers {
		out = append(out, dealbreakerText[d])
	}
	if len(out) == 0 {
		out = append(out, fmt.Sprintf("Your values align at %d%%", v.OverallScore))
	}
	return out
}

func buildRecommendations(v *models.ValuesAnalysis) []string {
	var out []string
	for _, d := range v.Dealbreakers {
		out = append(out, "Discuss early: "+strings.ToLower(dealbreakerText[d]))
	}
	for _, c := range v.CompromiseAreas {
		out = append(out, compromiseText[c])
	}
	if v.RelationshipType == RelationshipMentorship {
		out = append(out, "Cook a favourite recipe together and swap what you have learned")
	}
	return out
}
