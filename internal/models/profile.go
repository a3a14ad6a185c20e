// internal/models/profile.go
package models

import (
	"strings"
	"time"
)

// DietaryPreference is the plant-based variant a user follows.
type DietaryPreference string

const (
	DietVegan      DietaryPreference = "vegan"      // strict
	DietVegetarian DietaryPreference = "vegetarian" // lenient
)

// Valid reports whether the preference is one of the known variants.
func (d DietaryPreference) Valid() bool {
	return d == DietVegan || d == DietVegetarian
}

// CookingSkill is an ordinal from 1 (beginner) to 4 (expert). Zero means unset.
type CookingSkill int

const (
	CookingUnset CookingSkill = iota
	CookingBeginner
	CookingIntermediate
	CookingAdvanced
	CookingExpert
)

var cookingSkillNames = map[string]CookingSkill{
	"beginner":     CookingBeginner,
	"intermediate": CookingIntermediate,
	"advanced":     CookingAdvanced,
	"expert":       CookingExpert,
}

// ParseCookingSkill maps a stored label to its ordinal. Unknown labels are unset.
func ParseCookingSkill(s string) CookingSkill {
	return cookingSkillNames[strings.ToLower(strings.TrimSpace(s))]
}

func (c CookingSkill) String() string {
	for name, v := range cookingSkillNames {
		if v == c {
			return name
		}
	}
	return ""
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Location struct {
	City        string       `json:"city,omitempty"`
	State       string       `json:"state,omitempty"`
	Country     string       `json:"country,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// IsZero reports whether nothing about the location is known.
func (l Location) IsZero() bool {
	return l.City == "" && l.State == "" && l.Country == "" && l.Coordinates == nil
}

// MatchPreferences is the preference block a user sets for who they want to see.
type MatchPreferences struct {
	MinAge             int     `json:"minAge,omitempty"`
	MaxAge             int     `json:"maxAge,omitempty"`
	MaxDistanceKm      float64 `json:"maxDistanceKm,omitempty"`
	DietaryDealbreaker bool    `json:"dietaryDealbreaker"`
}

// AcceptsAge reports whether age falls inside the preferred range. An unknown
// age or an open bound is accepted.
func (p MatchPreferences) AcceptsAge(age int) bool {
	if age <= 0 {
		return true
	}
	if p.MinAge > 0 && age < p.MinAge {
		return false
	}
	if p.MaxAge > 0 && age > p.MaxAge {
		return false
	}
	return true
}

// Profile is a read-only snapshot of a user record as seen by the matching engine.
type Profile struct {
	ID             string            `json:"id" db:"id"`
	Gender         string            `json:"gender"`
	InterestedIn   []string          `json:"interestedIn"`
	Age            int               `json:"age,omitempty"`
	Dietary        DietaryPreference `json:"dietaryPreference"`
	YearsCommitted float64           `json:"yearsCommitted"`
	Location       Location          `json:"location"`
	Bio            string            `json:"bio,omitempty"`
	Motivation     string            `json:"motivation,omitempty"`
	Interests      []string          `json:"interests,omitempty"`
	CookingSkill   CookingSkill      `json:"cookingSkill,omitempty"`
	FavoriteVenues []string          `json:"favoriteVenues,omitempty"`
	Photos         []string          `json:"photos,omitempty"`
	Preferences    MatchPreferences  `json:"preferences"`
	IsActive       bool              `json:"isActive"`
	IsVerified     bool              `json:"isVerified"`
	LastActive     time.Time         `json:"lastActive"`
	BlockedUserIDs []string          `json:"blockedUserIds,omitempty"`
}

// Seeks reports whether p is interested in the given gender. An empty
// interest list is treated as open to everyone.
func (p *Profile) Seeks(gender string) bool {
	if len(p.InterestedIn) == 0 {
		return true
	}
	for _, g := range p.InterestedIn {
		if strings.EqualFold(g, gender) || strings.EqualFold(g, AnyGender) {
			return true
		}
	}
	return false
}

// HasBlocked reports whether userID is in p's exclusion set.
func (p *Profile) HasBlocked(userID string) bool {
	for _, id := range p.BlockedUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// CandidateCriteria carries the predicates a profile store applies when
// querying candidates. Stores may filter coarsely; callers re-check.
type CandidateCriteria struct {
	RequesterID     string
	RequesterGender string
	Genders         []string
	ExcludeIDs      []string
	MinAge          int
	MaxAge          int
	RequiredDiet    DietaryPreference
	RequesterDiet   DietaryPreference
	Near            *Coordinates
	RadiusKm        float64
	Limit           int
}

// AnyGender is the interested-in entry that accepts every gender.
const AnyGender = "everyone"

// GenderFilter returns the lower-cased genders a store may restrict
// candidates to. It is nil when the requester accepts any gender.
func (c CandidateCriteria) GenderFilter() []string {
	out := make([]string, 0, len(c.Genders))
	for _, g := range c.Genders {
		g = strings.ToLower(strings.TrimSpace(g))
		if g == AnyGender {
			return nil
		}
		if g != "" {
			out = append(out, g)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
