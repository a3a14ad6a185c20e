package scoring

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "compatibility-workers/internal/common/errors"
	"compatibility-workers/internal/models"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestScorer() *Scorer {
	return NewScorer(WithClock(func() time.Time { return fixedNow }))
}

func baseProfile(id string) *models.Profile {
	return &models.Profile{
		ID:             id,
		Dietary:        models.DietVegan,
		YearsCommitted: 5,
		Location:       models.Location{City: "SF"},
		CookingSkill:   models.CookingIntermediate,
		Interests:      []string{"cooking", "hiking"},
	}
}

func snap(p *models.Profile) Snapshot { return Snapshot{Profile: p} }

// ==========================
// Concrete scenarios
// ==========================

func TestScore_NearlyIdenticalProfiles(t *testing.T) {
	a := baseProfile("a")
	b := baseProfile("b")
	b.YearsCommitted = 3

	got, err := newTestScorer().Score(snap(a), snap(b))
	require.NoError(t, err)

	assert.GreaterOrEqual(t, got.Breakdown.LifestyleAlignment, 80)
	assert.GreaterOrEqual(t, got.Overall, 75)
	assert.Equal(t, fixedNow, got.CalculatedAt)
	assert.Contains(t, got.Insights, "You both follow a vegan lifestyle")
	assert.Contains(t, got.Insights, "You both live in SF")
	assert.Nil(t, got.Values, "no values profiles means fallback heuristic")
}

func TestScore_NilProfileIsScoreUnavailable(t *testing.T) {
	_, err := newTestScorer().Score(snap(baseProfile("a")), Snapshot{})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeScoreUnavailable))
}

// ==========================
// Properties over a fixture grid
// ==========================

func fixtureProfiles() []*models.Profile {
	full := &models.Profile{
		ID:             "full",
		Gender:         "female",
		Age:            31,
		Dietary:        models.DietVegetarian,
		YearsCommitted: 12,
		Location: models.Location{
			City: "Oakland", State: "CA", Country: "US",
			Coordinates: &models.Coordinates{Lat: 37.8044, Lng: -122.2712},
		},
		Bio:            "I run a community garden. Weekends are for potlucks and long hikes!",
		Motivation:     "Animals and the climate. Activism and volunteering keep me going.",
		Interests:      []string{"community-gardening", "potlucks", "hiking", "activism", "reading"},
		CookingSkill:   models.CookingExpert,
		FavoriteVenues: []string{"Shizen", "Millennium"},
		Photos:         []string{"p1.jpg"},
		Preferences:    models.MatchPreferences{MinAge: 28, MaxAge: 40, MaxDistanceKm: 50},
	}
	sparse := &models.Profile{ID: "sparse", Dietary: models.DietVegan}
	strict := baseProfile("strict")
	strict.Preferences.DietaryDealbreaker = true
	strict.Age = 45
	strict.Preferences = models.MatchPreferences{MinAge: 40, MaxAge: 50, DietaryDealbreaker: true}
	far := &models.Profile{
		ID:          "far",
		Dietary:     models.DietVegetarian,
		Location:    models.Location{City: "Austin", State: "TX", Country: "US", Coordinates: &models.Coordinates{Lat: 30.2672, Lng: -97.7431}},
		Bio:         "Quiet. Books. Tea.",
		Interests:   []string{"reading", "writing", "meditation"},
		Preferences: models.MatchPreferences{MinAge: 50},
	}
	return []*models.Profile{baseProfile("base"), full, sparse, strict, far}
}

func TestScore_BoundsAndSymmetry(t *testing.T) {
	scorer := newTestScorer()
	profiles := fixtureProfiles()

	for _, a := range profiles {
		for _, b := range profiles {
			if a == b {
				continue
			}
			t.Run(fmt.Sprintf("%s_vs_%s", a.ID, b.ID), func(t *testing.T) {
				ab, err := scorer.Score(snap(a), snap(b))
				require.NoError(t, err)
				ba, err := scorer.Score(snap(b), snap(a))
				require.NoError(t, err)

				for _, v := range []int{
					ab.Overall, ab.Confidence,
					ab.Breakdown.LifestyleAlignment, ab.Breakdown.ValuesCompatibility,
					ab.Breakdown.LifestyleIntegration, ab.Breakdown.CommunicationStyle,
					ab.Breakdown.PersonalCompatibility,
				} {
					assert.GreaterOrEqual(t, v, 0)
					assert.LessOrEqual(t, v, 100)
				}

				assert.Equal(t, ab.Overall, ba.Overall)
				assert.Equal(t, ab.Breakdown, ba.Breakdown)
				assert.Equal(t, ab.Confidence, ba.Confidence)
				assert.Equal(t, Overall(ab.Breakdown), ab.Overall)
				assert.NotEmpty(t, ab.Insights)
			})
		}
	}
}

func TestScore_DietaryMonotonicity(t *testing.T) {
	scorer := newTestScorer()

	a := baseProfile("a")
	a.Preferences.DietaryDealbreaker = true
	same := baseProfile("same")
	different := baseProfile("different")
	different.Dietary = models.DietVegetarian

	sameScore, err := scorer.Score(snap(a), snap(same))
	require.NoError(t, err)
	diffScore, err := scorer.Score(snap(a), snap(different))
	require.NoError(t, err)

	assert.GreaterOrEqual(t, sameScore.Overall, diffScore.Overall)
	assert.Greater(t, sameScore.Breakdown.LifestyleAlignment, diffScore.Breakdown.LifestyleAlignment)
}

func TestConfidence_MonotonicInPopulatedFields(t *testing.T) {
	other := fixtureProfiles()[1]
	p := &models.Profile{ID: "grow"}
	steps := []func(*models.Profile){
		func(p *models.Profile) { p.Bio = "Hello there." },
		func(p *models.Profile) { p.Motivation = "animals" },
		func(p *models.Profile) { p.Interests = []string{"yoga"} },
		func(p *models.Profile) { p.FavoriteVenues = []string{"Shizen"} },
		func(p *models.Profile) { p.CookingSkill = models.CookingBeginner },
		func(p *models.Profile) { p.Location.City = "SF" },
		func(p *models.Profile) { p.Photos = []string{"a.jpg"} },
	}

	prev := confidence(p, other)
	assert.Equal(t, 0, prev)
	for _, step := range steps {
		step(p)
		next := confidence(p, other)
		assert.GreaterOrEqual(t, next, prev)
		prev = next
	}
	assert.Equal(t, 100, confidence(other, other))
}

// ==========================
// Dimension helpers
// ==========================

func TestCommitmentCloseness(t *testing.T) {
	tests := []struct {
		a, b float64
		want float64
	}{
		{5, 5, 100},
		{5, 4, 100},
		{5, 3, 80},
		{0, 5, 60},
		{0, 7, 40},
		{0, 20, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, commitmentCloseness(tt.a, tt.b), "%v vs %v", tt.a, tt.b)
	}
}

func TestCookingAdjacency(t *testing.T) {
	assert.Equal(t, 100.0, cookingAdjacency(models.CookingAdvanced, models.CookingAdvanced))
	assert.Equal(t, 85.0, cookingAdjacency(models.CookingAdvanced, models.CookingExpert))
	assert.Equal(t, 60.0, cookingAdjacency(models.CookingBeginner, models.CookingAdvanced))
	assert.Equal(t, 30.0, cookingAdjacency(models.CookingBeginner, models.CookingExpert))
	assert.Equal(t, 50.0, cookingAdjacency(models.CookingUnset, models.CookingExpert))
}

func TestDietMatch(t *testing.T) {
	vegan := &models.Profile{Dietary: models.DietVegan}
	vegetarian := &models.Profile{Dietary: models.DietVegetarian}
	strictVegan := &models.Profile{Dietary: models.DietVegan, Preferences: models.MatchPreferences{DietaryDealbreaker: true}}
	unknown := &models.Profile{}

	assert.Equal(t, 100.0, dietMatch(vegan, strictVegan))
	assert.Equal(t, 75.0, dietMatch(vegan, vegetarian))
	assert.Equal(t, 0.0, dietMatch(strictVegan, vegetarian))
	assert.Equal(t, 0.0, dietMatch(vegan, unknown))
}

func TestLocationMatch(t *testing.T) {
	tests := []struct {
		name string
		a, b models.Location
		want float64
	}{
		{"same city", models.Location{City: "Portland", State: "OR"}, models.Location{City: "portland", State: "OR"}, 100},
		{"same state", models.Location{City: "Portland", State: "OR"}, models.Location{City: "Eugene", State: "OR"}, 70},
		{"same country", models.Location{State: "OR", Country: "US"}, models.Location{State: "CA", Country: "US"}, 40},
		{"nothing known", models.Location{}, models.Location{}, 10},
		{
			"coordinates override labels",
			models.Location{City: "A", Coordinates: &models.Coordinates{Lat: 37.7749, Lng: -122.4194}},
			models.Location{City: "B", Coordinates: &models.Coordinates{Lat: 37.8044, Lng: -122.2712}},
			85,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, locationMatch(tt.a, tt.b))
			assert.Equal(t, tt.want, locationMatch(tt.b, tt.a))
		})
	}
}

func TestAgeFit(t *testing.T) {
	a := &models.Profile{Age: 30, Preferences: models.MatchPreferences{MinAge: 25, MaxAge: 35}}
	inRange := &models.Profile{Age: 33, Preferences: models.MatchPreferences{MinAge: 28, MaxAge: 40}}
	oneSided := &models.Profile{Age: 33, Preferences: models.MatchPreferences{MinAge: 35}}
	neither := &models.Profile{Age: 50, Preferences: models.MatchPreferences{MinAge: 45}}

	assert.Equal(t, 100.0, ageFit(a, inRange))
	assert.Equal(t, 50.0, ageFit(a, oneSided))
	assert.Equal(t, 0.0, ageFit(a, neither))
}

func TestCommunicationStyle_UsesBaselinesWithoutBios(t *testing.T) {
	got := communicationStyle(&models.Profile{}, &models.Profile{})
	assert.Equal(t, 60, got)
}

// ==========================
// Values analyzer delegation
// ==========================

func qualifyingValues(id string) *models.ValuesProfile {
	return &models.ValuesProfile{
		UserID:       id,
		Ethics:       models.EthicsSection{Assessed: true, AnimalRights: 5, Environmental: 5, Health: 2, PrimaryMotivation: "animals"},
		Lifestyle:    models.LifestyleSection{Assessed: true, CookingFrequency: "daily", SocialDining: "plant_only"},
		Journey:      models.JourneySection{Assessed: true, YearsCommitted: 5},
		Relationship: models.RelationshipSection{Assessed: true, WantsChildren: "no"},
	}
}

func TestScore_DelegatesToValuesAnalyzer(t *testing.T) {
	scorer := newTestScorer()
	a, b := baseProfile("a"), baseProfile("b")

	got, err := scorer.Score(
		Snapshot{Profile: a, Values: qualifyingValues("a")},
		Snapshot{Profile: b, Values: qualifyingValues("b")},
	)
	require.NoError(t, err)
	require.NotNil(t, got.Values)
	assert.Equal(t, got.Values.OverallScore, got.Breakdown.ValuesCompatibility)

	incomplete := qualifyingValues("b")
	incomplete.Journey.Assessed = false
	fallback, err := scorer.Score(
		Snapshot{Profile: a, Values: qualifyingValues("a")},
		Snapshot{Profile: b, Values: incomplete},
	)
	require.NoError(t, err)
	assert.Nil(t, fallback.Values, "60 percent completion stays on the heuristic")

	lowered, err := NewScorer(WithValuesThreshold(60)).Score(
		Snapshot{Profile: a, Values: qualifyingValues("a")},
		Snapshot{Profile: b, Values: incomplete},
	)
	require.NoError(t, err)
	assert.NotNil(t, lowered.Values)
}
