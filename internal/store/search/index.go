// Package search queries the Elasticsearch profile index as a candidate source.
package search

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	json "github.com/goccy/go-json"

	apperrors "compatibility-workers/internal/common/errors"
	"compatibility-workers/internal/models"
)

const DefaultProfileIndex = "profiles"

type geoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// profileDoc is the indexed shape of a profile.
type profileDoc struct {
	ID                 string    `json:"id"`
	Gender             string    `json:"gender"`
	InterestedIn       []string  `json:"interested_in"`
	Age                int       `json:"age"`
	DietaryPreference  string    `json:"dietary_preference"`
	YearsCommitted     float64   `json:"years_committed"`
	City               string    `json:"city"`
	State              string    `json:"state"`
	Country            string    `json:"country"`
	Location           *geoPoint `json:"location,omitempty"`
	Bio                string    `json:"bio"`
	Motivation         string    `json:"motivation"`
	Interests          []string  `json:"interests"`
	CookingSkill       string    `json:"cooking_skill"`
	FavoriteVenues     []string  `json:"favorite_venues"`
	Photos             []string  `json:"photos"`
	PrefMinAge         int       `json:"pref_min_age"`
	PrefMaxAge         int       `json:"pref_max_age"`
	PrefMaxDistanceKm  float64   `json:"pref_max_distance_km"`
	DietaryDealbreaker bool      `json:"dietary_dealbreaker"`
	IsActive           bool      `json:"is_active"`
	IsVerified         bool      `json:"is_verified"`
	LastActive         time.Time `json:"last_active"`
	BlockedIDs         []string  `json:"blocked_ids"`
}

func (d profileDoc) toModel() *models.Profile {
	p := &models.Profile{
		ID:             d.ID,
		Gender:         d.Gender,
		InterestedIn:   d.InterestedIn,
		Age:            d.Age,
		Dietary:        models.DietaryPreference(d.DietaryPreference),
		YearsCommitted: d.YearsCommitted,
		Location:       models.Location{City: d.City, State: d.State, Country: d.Country},
		Bio:            d.Bio,
		Motivation:     d.Motivation,
		Interests:      d.Interests,
		CookingSkill:   models.ParseCookingSkill(d.CookingSkill),
		FavoriteVenues: d.FavoriteVenues,
		Photos:         d.Photos,
		Preferences: models.MatchPreferences{
			MinAge:             d.PrefMinAge,
			MaxAge:             d.PrefMaxAge,
			MaxDistanceKm:      d.PrefMaxDistanceKm,
			DietaryDealbreaker: d.DietaryDealbreaker,
		},
		IsActive:       d.IsActive,
		IsVerified:     d.IsVerified,
		LastActive:     d.LastActive.UTC(),
		BlockedUserIDs: d.BlockedIDs,
	}
	if d.Location != nil {
		p.Location.Coordinates = &models.Coordinates{Lat: d.Location.Lat, Lng: d.Location.Lon}
	}
	return p
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source profileDoc `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

type CandidateIndex struct {
	client *elasticsearch.Client
	index  string
}

func NewCandidateIndex(client *elasticsearch.Client, index string) *CandidateIndex {
	if index == "" {
		index = DefaultProfileIndex
	}
	return &CandidateIndex{client: client, index: index}
}

func (c *CandidateIndex) Query(ctx context.Context, criteria models.CandidateCriteria) ([]*models.Profile, error) {
	body, err := json.Marshal(buildCandidateQuery(criteria))
	if err != nil {
		return nil, apperrors.NewSearchQueryFailedError("candidates", err)
	}

	res, err := c.client.Search(
		c.client.Search.WithContext(ctx),
		c.client.Search.WithIndex(c.index),
		c.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, apperrors.NewSearchQueryFailedError("candidates", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, apperrors.NewSearchQueryFailedError("candidates", fmt.Errorf("elasticsearch returned %s", res.Status()))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, apperrors.NewSearchQueryFailedError("candidates", err)
	}

	out := make([]*models.Profile, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		out = append(out, hit.Source.toModel())
	}
	return out, nil
}
