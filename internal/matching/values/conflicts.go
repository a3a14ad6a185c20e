package values

import "compatibility-workers/internal/models"

const (
	penaltyChildren        = 40
	penaltyChildRaising    = 30
	penaltyHousehold       = 35
	penaltyCompromise      = 10
	dealbreakerConflictCap = 40
	conflictBaseline       = 100
)

type conflictResult struct {
	score        int
	dealbreakers []string
	compromises  []string
}

func opposed(a, b, x, y string) bool {
	return (a == x && b == y) || (a == y && b == x)
}

func decided(v string) bool { return v == "yes" || v == "no" }

func rejectsMixedHousehold(r models.RelationshipSection) bool {
	return r.Assessed && r.PartnerMustBePlantBased && !r.AcceptsNonPlantBasedHousehold
}

// assessConflicts subtracts fixed penalties for dealbreakers and smaller ones
// for compromise areas. Any dealbreaker caps the result.
func assessConflicts(a, b *models.ValuesProfile) conflictResult {
	res := conflictResult{score: conflictBaseline}
	ra, rb := a.Relationship, b.Relationship

	if opposed(ra.WantsChildren, rb.WantsChildren, "yes", "no") {
		res.score -= penaltyChildren
		res.dealbreakers = append(res.dealbreakers, "children")
	} else if ra.WantsChildren != rb.WantsChildren &&
		(ra.WantsChildren == "open" && decided(rb.WantsChildren) || rb.WantsChildren == "open" && decided(ra.WantsChildren)) {
		res.score -= penaltyCompromise
		res.compromises = append(res.compromises, "children")
	}

	if opposed(ra.RaisePlantBasedChildren, rb.RaisePlantBasedChildren, "yes", "no") {
		res.score -= penaltyChildRaising
		res.dealbreakers = append(res.dealbreakers, "child_raising")
	}

	if (rejectsMixedHousehold(ra) && b.Lifestyle.SocialDining == "flexible") ||
		(rejectsMixedHousehold(rb) && a.Lifestyle.SocialDining == "flexible") {
		res.score -= penaltyHousehold
		res.dealbreakers = append(res.dealbreakers, "household")
	}

	if opposed(a.Lifestyle.SocialDining, b.Lifestyle.SocialDining, "plant_only", "mixed_ok") {
		res.score -= penaltyCompromise
		res.compromises = append(res.compromises, "social_dining")
	}
	if opposed(a.Lifestyle.CookingFrequency, b.Lifestyle.CookingFrequency, "daily", "rarely") {
		res.score -= penaltyCompromise
		res.compromises = append(res.compromises, "cooking")
	}
	if ra.FamilySupport == "opposed" || rb.FamilySupport == "opposed" {
		res.score -= penaltyCompromise
		res.compromises = append(res.compromises, "family_support")
	}

	if res.score < 0 {
		res.score = 0
	}
	if len(res.dealbreakers) > 0 && res.score > dealbreakerConflictCap {
		res.score = dealbreakerConflictCap
	}
	return res
}
