package search

import (
	"fmt"
	"strings"

	"compatibility-workers/internal/models"
)

// buildCandidateQuery mirrors the relational candidate predicates as a bool
// filter. Profiles without a location pass the distance clause.
func buildCandidateQuery(c models.CandidateCriteria) map[string]interface{} {
	filter := []interface{}{
		term("is_active", true),
		term("is_verified", true),
	}
	mustNot := []interface{}{}

	if len(c.ExcludeIDs) > 0 {
		mustNot = append(mustNot, map[string]interface{}{
			"ids": map[string]interface{}{"values": c.ExcludeIDs},
		})
	}
	if c.RequesterID != "" {
		mustNot = append(mustNot, term("blocked_ids", c.RequesterID))
	}
	if genders := c.GenderFilter(); len(genders) > 0 {
		clauses := make([]interface{}, 0, len(genders))
		for _, g := range genders {
			clauses = append(clauses, foldedTerm("gender", g))
		}
		filter = append(filter, anyOf(clauses...))
	}
	if c.RequesterGender != "" {
		filter = append(filter, anyOf(
			foldedTerm("interested_in", strings.ToLower(c.RequesterGender)),
			foldedTerm("interested_in", models.AnyGender),
			missing("interested_in"),
		))
	}

	ageRange := map[string]interface{}{}
	if c.MinAge > 0 {
		ageRange["gte"] = c.MinAge
	}
	if c.MaxAge > 0 {
		ageRange["lte"] = c.MaxAge
	}
	if len(ageRange) > 0 {
		filter = append(filter, anyOf(
			map[string]interface{}{
				"range": map[string]interface{}{"age": ageRange},
			},
			missing("age"),
			term("age", 0),
		))
	}

	if c.RequiredDiet != "" {
		filter = append(filter, term("dietary_preference", string(c.RequiredDiet)))
	} else {
		filter = append(filter, anyOf(
			term("dietary_dealbreaker", false),
			term("dietary_preference", string(c.RequesterDiet)),
		))
	}

	if c.Near != nil && c.RadiusKm > 0 {
		filter = append(filter, anyOf(
			map[string]interface{}{
				"geo_distance": map[string]interface{}{
					"distance": fmt.Sprintf("%gkm", c.RadiusKm),
					"location": map[string]interface{}{"lat": c.Near.Lat, "lon": c.Near.Lng},
				},
			},
			missing("location"),
		))
	}

	boolQuery := map[string]interface{}{"filter": filter}
	if len(mustNot) > 0 {
		boolQuery["must_not"] = mustNot
	}

	query := map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
		"sort": []interface{}{
			map[string]interface{}{"last_active": map[string]interface{}{"order": "desc"}},
			map[string]interface{}{"id": map[string]interface{}{"order": "asc"}},
		},
	}
	if c.Limit > 0 {
		query["size"] = c.Limit
	}
	return query
}

func term(field string, value interface{}) map[string]interface{} {
	return map[string]interface{}{"term": map[string]interface{}{field: value}}
}

func foldedTerm(field, value string) map[string]interface{} {
	return map[string]interface{}{
		"term": map[string]interface{}{
			field: map[string]interface{}{"value": value, "case_insensitive": true},
		},
	}
}

func missing(field string) map[string]interface{} {
	return map[string]interface{}{
		"bool": map[string]interface{}{
			"must_not": map[string]interface{}{"exists": map[string]interface{}{"field": field}},
		},
	}
}

func anyOf(clauses ...interface{}) map[string]interface{} {
	return map[string]interface{}{
		"bool": map[string]interface{}{
			"should":               clauses,
			"minimum_should_match": 1,
		},
	}
}
