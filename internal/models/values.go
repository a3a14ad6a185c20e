// internal/models/values.go
package models

// Journey stages used by the stage-pair lookup.
const (
	StageNew         = "new"
	StageEstablished = "established"
	StageLongtime    = "longtime"
)

type EthicsSection struct {
	Assessed            bool   `json:"assessed"`
	AnimalRights        int    `json:"animalRights"`  // importance 1-5
	Environmental       int    `json:"environmental"` // importance 1-5
	Health              int    `json:"health"`        // importance 1-5
	PrimaryMotivation   string `json:"primaryMotivation,omitempty"`
	MotivationStatement string `json:"motivationStatement,omitempty"`
}

type LifestyleSection struct {
	Assessed                bool   `json:"assessed"`
	CookingFrequency        string `json:"cookingFrequency,omitempty"` // daily, weekly, rarely
	SocialDining            string `json:"socialDining,omitempty"`     // plant_only, mixed_ok, flexible
	SocialCircle            string `json:"socialCircle,omitempty"`     // mostly_plant_based, mixed, mostly_non_plant_based
	CommunityInvolvement    int    `json:"communityInvolvement"`       // 1-5
	SustainabilityPractices int    `json:"sustainabilityPractices"`    // 1-5
}

type JourneySection struct {
	Assessed       bool    `json:"assessed"`
	Stage          string  `json:"stage,omitempty"`
	YearsCommitted float64 `json:"yearsCommitted"`
}

// ResolvedStage returns the explicit stage, or derives one from years committed.
func (j JourneySection) ResolvedStage() string {
	switch j.Stage {
	case StageNew, StageEstablished, StageLongtime:
		return j.Stage
	}
	switch {
	case j.YearsCommitted < 2:
		return StageNew
	case j.YearsCommitted < 5:
		return StageEstablished
	default:
		return StageLongtime
	}
}

type RelationshipSection struct {
	Assessed                      bool   `json:"assessed"`
	PartnerMustBePlantBased       bool   `json:"partnerMustBePlantBased"`
	AcceptsNonPlantBasedHousehold bool   `json:"acceptsNonPlantBasedHousehold"`
	WantsChildren                 string `json:"wantsChildren,omitempty"`           // yes, no, open
	RaisePlantBasedChildren       string `json:"raisePlantBasedChildren,omitempty"` // yes, no, open
	FamilySupport                 string `json:"familySupport,omitempty"`           // supportive, neutral, opposed
}

type CommunitySection struct {
	Assessed         bool   `json:"assessed"`
	CommunityDensity string `json:"communityDensity,omitempty"` // urban, suburban, rural
	ResourceAccess   string `json:"resourceAccess,omitempty"`   // abundant, moderate, limited
}

// ValuesProfile is the optional structured values assessment attached to a profile.
// Each section is present only once its Assessed flag is set.
type ValuesProfile struct {
	UserID       string              `json:"userId"`
	Ethics       EthicsSection       `json:"ethics"`
	Lifestyle    LifestyleSection    `json:"lifestyle"`
	Journey      JourneySection      `json:"journey"`
	Relationship RelationshipSection `json:"relationship"`
	Community    CommunitySection    `json:"community"`
}

const valuesSectionCount = 5

// Completion returns the assessment completion percentage (0-100).
func (v *ValuesProfile) Completion() int {
	if v == nil {
		return 0
	}
	assessed := 0
	for _, ok := range []bool{
		v.Ethics.Assessed,
		v.Lifestyle.Assessed,
		v.Journey.Assessed,
		v.Relationship.Assessed,
		v.Community.Assessed,
	} {
		if ok {
			assessed++
		}
	}
	return assessed * 100 / valuesSectionCount
}

// Qualifies reports whether the assessment is complete enough to drive scoring.
func (v *ValuesProfile) Qualifies(threshold int) bool {
	return v != nil && v.Completion() >= threshold
}
