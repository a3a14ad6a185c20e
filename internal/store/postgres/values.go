package postgres

import (
	"context"
	"database/sql"
	"errors"

	json "github.com/goccy/go-json"
	"github.com/jmoiron/sqlx"

	apperrors "compatibility-workers/internal/common/errors"
	"compatibility-workers/internal/models"
)

const valuesQuery = `
SELECT user_id, ethics, lifestyle, journey, relationship, community
FROM values_profiles
WHERE user_id = $1`

type valuesRow struct {
	UserID       string `db:"user_id"`
	Ethics       []byte `db:"ethics"`
	Lifestyle    []byte `db:"lifestyle"`
	Journey      []byte `db:"journey"`
	Relationship []byte `db:"relationship"`
	Community    []byte `db:"community"`
}

type ValuesRepository struct {
	db *sqlx.DB
}

func NewValuesRepository(db *sqlx.DB) *ValuesRepository {
	return &ValuesRepository{db: db}
}

// FindValuesProfile returns nil without error when the user has no assessment.
func (r *ValuesRepository) FindValuesProfile(ctx context.Context, userID string) (*models.ValuesProfile, error) {
	var row valuesRow
	if err := r.db.GetContext(ctx, &row, valuesQuery, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.NewQueryExecutionFailedError("find_values_profile", err)
	}

	vp := &models.ValuesProfile{UserID: row.UserID}
	sections := []struct {
		raw []byte
		dst interface{}
	}{
		{row.Ethics, &vp.Ethics},
		{row.Lifestyle, &vp.Lifestyle},
		{row.Journey, &vp.Journey},
		{row.Relationship, &vp.Relationship},
		{row.Community, &vp.Community},
	}
	for _, s := range sections {
		if len(s.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(s.raw, s.dst); err != nil {
			return nil, apperrors.NewQueryExecutionFailedError("decode_values_profile", err)
		}
	}
	return vp, nil
}
