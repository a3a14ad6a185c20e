// Package postgres reads profiles and values assessments for the matching engine.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	apperrors "compatibility-workers/internal/common/errors"
	"compatibility-workers/internal/matching/heuristics"
	"compatibility-workers/internal/models"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var profileColumns = []string{
	"u.id",
	"u.gender",
	"COALESCE(u.interested_in, '{}') AS interested_in",
	"COALESCE(DATE_PART('year', AGE(u.birth_date))::int, 0) AS age",
	"COALESCE(u.dietary_preference, '') AS dietary_preference",
	"COALESCE(u.years_committed, 0) AS years_committed",
	"COALESCE(u.city, '') AS city",
	"COALESCE(u.state, '') AS state",
	"COALESCE(u.country, '') AS country",
	"u.latitude",
	"u.longitude",
	"COALESCE(u.bio, '') AS bio",
	"COALESCE(u.motivation, '') AS motivation",
	"COALESCE(u.interests, '{}') AS interests",
	"COALESCE(u.cooking_skill, '') AS cooking_skill",
	"COALESCE(u.favorite_venues, '{}') AS favorite_venues",
	"COALESCE(u.photos, '{}') AS photos",
	"COALESCE(u.pref_min_age, 0) AS pref_min_age",
	"COALESCE(u.pref_max_age, 0) AS pref_max_age",
	"COALESCE(u.pref_max_distance_km, 0) AS pref_max_distance_km",
	"u.dietary_dealbreaker",
	"u.is_active",
	"u.is_verified",
	"COALESCE(u.last_active, u.created_at) AS last_active",
	"ARRAY(SELECT b.blocked_id FROM user_blocks b WHERE b.blocker_id = u.id) AS blocked_ids",
}

type profileRow struct {
	ID                 string          `db:"id"`
	Gender             string          `db:"gender"`
	InterestedIn       pq.StringArray  `db:"interested_in"`
	Age                int             `db:"age"`
	Dietary            string          `db:"dietary_preference"`
	YearsCommitted     float64         `db:"years_committed"`
	City               string          `db:"city"`
	State              string          `db:"state"`
	Country            string          `db:"country"`
	Latitude           sql.NullFloat64 `db:"latitude"`
	Longitude          sql.NullFloat64 `db:"longitude"`
	Bio                string          `db:"bio"`
	Motivation         string          `db:"motivation"`
	Interests          pq.StringArray  `db:"interests"`
	CookingSkill       string          `db:"cooking_skill"`
	FavoriteVenues     pq.StringArray  `db:"favorite_venues"`
	Photos             pq.StringArray  `db:"photos"`
	PrefMinAge         int             `db:"pref_min_age"`
	PrefMaxAge         int             `db:"pref_max_age"`
	PrefMaxDistanceKm  float64         `db:"pref_max_distance_km"`
	DietaryDealbreaker bool            `db:"dietary_dealbreaker"`
	IsActive           bool            `db:"is_active"`
	IsVerified         bool            `db:"is_verified"`
	LastActive         time.Time       `db:"last_active"`
	BlockedIDs         pq.StringArray  `db:"blocked_ids"`
}

func (r profileRow) toModel() *models.Profile {
	p := &models.Profile{
		ID:             r.ID,
		Gender:         r.Gender,
		InterestedIn:   []string(r.InterestedIn),
		Age:            r.Age,
		Dietary:        models.DietaryPreference(r.Dietary),
		YearsCommitted: r.YearsCommitted,
		Location: models.Location{
			City:    r.City,
			State:   r.State,
			Country: r.Country,
		},
		Bio:            r.Bio,
		Motivation:     r.Motivation,
		Interests:      []string(r.Interests),
		CookingSkill:   models.ParseCookingSkill(r.CookingSkill),
		FavoriteVenues: []string(r.FavoriteVenues),
		Photos:         []string(r.Photos),
		Preferences: models.MatchPreferences{
			MinAge:             r.PrefMinAge,
			MaxAge:             r.PrefMaxAge,
			MaxDistanceKm:      r.PrefMaxDistanceKm,
			DietaryDealbreaker: r.DietaryDealbreaker,
		},
		IsActive:       r.IsActive,
		IsVerified:     r.IsVerified,
		LastActive:     r.LastActive.UTC(),
		BlockedUserIDs: []string(r.BlockedIDs),
	}
	if r.Latitude.Valid && r.Longitude.Valid {
		p.Location.Coordinates = &models.Coordinates{Lat: r.Latitude.Float64, Lng: r.Longitude.Float64}
	}
	return p
}

type ProfileRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) FindByID(ctx context.Context, userID string) (*models.Profile, error) {
	query, args, err := psql.Select(profileColumns...).
		From("users u").
		Where(sq.Eq{"u.id": userID}).
		ToSql()
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("find_profile", err)
	}

	var row profileRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewProfileNotFoundError(userID)
		}
		return nil, apperrors.NewQueryExecutionFailedError("find_profile", err)
	}
	return row.toModel(), nil
}

// Query applies the candidate predicates in SQL. The radius is a bounding box;
// callers apply the exact great-circle check.
func (r *ProfileRepository) Query(ctx context.Context, c models.CandidateCriteria) ([]*models.Profile, error) {
	query, args, err := candidateQuery(c).ToSql()
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("query_candidates", err)
	}

	var rows []profileRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("query_candidates", err)
	}

	out := make([]*models.Profile, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out, nil
}

func candidateQuery(c models.CandidateCriteria) sq.SelectBuilder {
	q := psql.Select(profileColumns...).
		From("users u").
		Where(sq.Eq{"u.is_active": true, "u.is_verified": true})

	if c.RequesterID != "" {
		q = q.Where("NOT EXISTS (SELECT 1 FROM user_blocks b WHERE b.blocker_id = u.id AND b.blocked_id = ?)", c.RequesterID)
	}
	if len(c.ExcludeIDs) > 0 {
		q = q.Where(sq.NotEq{"u.id": c.ExcludeIDs})
	}
	if genders := c.GenderFilter(); len(genders) > 0 {
		q = q.Where(sq.Eq{"LOWER(u.gender)": genders})
	}
	if c.RequesterGender != "" {
		q = q.Where(
			"(u.interested_in IS NULL OR cardinality(u.interested_in) = 0 OR "+
				"EXISTS (SELECT 1 FROM unnest(u.interested_in) g WHERE LOWER(g) IN (?, ?)))",
			strings.ToLower(c.RequesterGender), models.AnyGender,
		)
	}
	// Unknown ages pass; the eligibility re-check accepts them too.
	if c.MinAge > 0 {
		q = q.Where("(u.birth_date IS NULL OR DATE_PART('year', AGE(u.birth_date)) >= ?)", c.MinAge)
	}
	if c.MaxAge > 0 {
		q = q.Where("(u.birth_date IS NULL OR DATE_PART('year', AGE(u.birth_date)) <= ?)", c.MaxAge)
	}
	if c.RequiredDiet != "" {
		q = q.Where(sq.Eq{"u.dietary_preference": string(c.RequiredDiet)})
	} else {
		q = q.Where("(u.dietary_dealbreaker = false OR u.dietary_preference = ?)", string(c.RequesterDiet))
	}
	if c.Near != nil && c.RadiusKm > 0 {
		minLat, maxLat, minLng, maxLng := heuristics.BoundingBox(*c.Near, c.RadiusKm)
		q = q.Where(sq.Or{
			sq.Eq{"u.latitude": nil},
			sq.Eq{"u.longitude": nil},
			sq.And{
				sq.GtOrEq{"u.latitude": minLat},
				sq.LtOrEq{"u.latitude": maxLat},
				sq.GtOrEq{"u.longitude": minLng},
				sq.LtOrEq{"u.longitude": maxLng},
			},
		})
	}

	q = q.OrderBy("last_active DESC", "u.id")
	if c.Limit > 0 {
		q = q.Limit(uint64(c.Limit))
	}
	return q
}

const historyQuery = `
SELECT DISTINCT peer_id FROM (
	SELECT s.target_id AS peer_id FROM swipes s WHERE s.swiper_id = $1
	UNION
	SELECT CASE WHEN m.user1_id = $1 THEN m.user2_id ELSE m.user1_id END AS peer_id
	FROM matches m WHERE m.user1_id = $1 OR m.user2_id = $1
) history`

// DistinctMatchedOrRejectedPeers returns everyone the user already swiped on
// in either direction, or matched with.
func (r *ProfileRepository) DistinctMatchedOrRejectedPeers(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, historyQuery, userID); err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("match_history", err)
	}
	return ids, nil
}

// ActiveVerifiedUserIDs lists every user the batch precompute covers.
func (r *ProfileRepository) ActiveVerifiedUserIDs(ctx context.Context) ([]string, error) {
	query, args, err := psql.Select("id").
		From("users").
		Where(sq.Eq{"is_active": true, "is_verified": true}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("active_users", err)
	}

	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("active_users", err)
	}
	return ids, nil
}
