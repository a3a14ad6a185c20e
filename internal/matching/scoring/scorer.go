// Package scoring computes the weighted compatibility score between two profiles.
package scoring

import (
	"time"

	apperrors "compatibility-workers/internal/common/errors"
	"compatibility-workers/internal/matching/heuristics"
	"compatibility-workers/internal/matching/values"
	"compatibility-workers/internal/models"
)

// Dimension weights. They sum to 1.
const (
	WeightLifestyleAlignment    = 0.35
	WeightValuesCompatibility   = 0.30
	WeightLifestyleIntegration  = 0.20
	WeightCommunicationStyle    = 0.10
	WeightPersonalCompatibility = 0.05
)

// DefaultValuesThreshold is the completion percentage a values profile needs
// before the values analyzer replaces the fallback heuristic.
const DefaultValuesThreshold = 80

// Snapshot is an immutable view of one side of a comparison.
type Snapshot struct {
	Profile *models.Profile
	Values  *models.ValuesProfile
}

type Scorer struct {
	valuesThreshold int
	now             func() time.Time
}

type Option func(*Scorer)

// WithValuesThreshold overrides the completion percentage required to use
// the values analyzer.
func WithValuesThreshold(pct int) Option {
	return func(s *Scorer) { s.valuesThreshold = pct }
}

// WithClock sets the clock used to stamp CalculatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Scorer) { s.now = now }
}

func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{valuesThreshold: DefaultValuesThreshold, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score compares two snapshots. The result is symmetric in a and b apart
// from the UserA/UserB labels.
func (s *Scorer) Score(a, b Snapshot) (*models.CompatibilityScore, error) {
	if a.Profile == nil || b.Profile == nil {
		var idA, idB string
		if a.Profile != nil {
			idA = a.Profile.ID
		}
		if b.Profile != nil {
			idB = b.Profile.ID
		}
		return nil, apperrors.NewScoreUnavailableError(idA, idB, nil)
	}
	pa, pb := a.Profile, b.Profile

	lifestyle := lifestyleAlignment(pa, pb)

	var analysis *models.ValuesAnalysis
	var valuesScore int
	if a.Values.Qualifies(s.valuesThreshold) && b.Values.Qualifies(s.valuesThreshold) {
		analysis = values.Analyze(a.Values, b.Values)
		valuesScore = analysis.OverallScore
	} else {
		valuesScore = fallbackValues(pa, pb)
	}

	breakdown := models.ScoreBreakdown{
		LifestyleAlignment:    lifestyle.total,
		ValuesCompatibility:   valuesScore,
		LifestyleIntegration:  lifestyleIntegration(pa, pb),
		CommunicationStyle:    communicationStyle(pa, pb),
		PersonalCompatibility: personalCompatibility(pa, pb),
	}
	overall := Overall(breakdown)

	return &models.CompatibilityScore{
		UserA:        pa.ID,
		UserB:        pb.ID,
		Overall:      overall,
		Breakdown:    breakdown,
		Confidence:   confidence(pa, pb),
		Insights:     insights(pa, pb, breakdown, lifestyle, overall, analysis),
		Values:       analysis,
		CalculatedAt: s.now().UTC(),
	}, nil
}

// Overall combines a breakdown with the fixed dimension weights.
func Overall(b models.ScoreBreakdown) int {
	return heuristics.Round(
		WeightLifestyleAlignment*float64(b.LifestyleAlignment) +
			WeightValuesCompatibility*float64(b.ValuesCompatibility) +
			WeightLifestyleIntegration*float64(b.LifestyleIntegration) +
			WeightCommunicationStyle*float64(b.CommunicationStyle) +
			WeightPersonalCompatibility*float64(b.PersonalCompatibility),
	)
}
