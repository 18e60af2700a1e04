package postgres

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"koafrail/domain/clinical"
	"koafrail/domain/core"
	"koafrail/domain/risk"
	"koafrail/ports"

	"github.com/jmoiron/sqlx"
)

// jsonbVector is a feature vector stored in a PostgreSQL JSONB column
type jsonbVector clinical.Vector

// Value implements driver.Valuer interface
func (v jsonbVector) Value() (driver.Value, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

// Scan implements sql.Scanner interface
func (v *jsonbVector) Scan(value interface{}) error {
	if value == nil {
		*v = make(jsonbVector)
		return nil
	}

	var bytes []byte
	switch raw := value.(type) {
	case []byte:
		bytes = raw
	case string:
		bytes = []byte(raw)
	default:
		return fmt.Errorf("cannot scan %T into feature vector", value)
	}

	result := make(jsonbVector)
	if err := json.Unmarshal(bytes, &result); err != nil {
		return err
	}
	*v = result
	return nil
}

// AssessmentRepositoryImpl implements AssessmentStore for PostgreSQL
type AssessmentRepositoryImpl struct {
	db *sqlx.DB
}

// NewAssessmentRepository creates a new PostgreSQL assessment store
func NewAssessmentRepository(db *sqlx.DB) ports.AssessmentStore {
	return &AssessmentRepositoryImpl{db: db}
}

// Save appends one assessment record
func (r *AssessmentRepositoryImpl) Save(ctx context.Context, rec *ports.AssessmentRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO assessments (id, created_at, source, features, probability, raw_score, tier, model_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, rec.ID.String(), rec.CreatedAt.Time(), string(rec.Source), jsonbVector(rec.Features),
		rec.Probability, rec.RawScore, string(rec.Tier), rec.ModelHash.String())

	return err
}

// ListRecent returns the newest assessments first
func (r *AssessmentRepositoryImpl) ListRecent(ctx context.Context, limit int) ([]ports.AssessmentRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, created_at, source, features, probability, raw_score, tier, model_hash
		FROM assessments
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ports.AssessmentRecord
	for rows.Next() {
		var (
			rec       ports.AssessmentRecord
			id        string
			createdAt time.Time
			source    string
			features  jsonbVector
			tier      string
			modelHash string
		)
		err := rows.Scan(
			&id,
			&createdAt,
			&source,
			&features,
			&rec.Probability,
			&rec.RawScore,
			&tier,
			&modelHash,
		)
		if err != nil {
			return nil, err
		}
		rec.ID = core.AssessmentID(id)
		rec.CreatedAt = core.NewTimestamp(createdAt)
		rec.Source = core.Source(source)
		rec.Features = clinical.Vector(features)
		rec.Tier = risk.Tier(tier)
		rec.ModelHash = core.ModelHash(modelHash)
		records = append(records, rec)
	}

	return records, rows.Err()
}

// CountByTier tallies stored assessments per risk band
func (r *AssessmentRepositoryImpl) CountByTier(ctx context.Context) (map[risk.Tier]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT tier, COUNT(*)
		FROM assessments
		GROUP BY tier
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[risk.Tier]int)
	for rows.Next() {
		var (
			tier  string
			count int
		)
		if err := rows.Scan(&tier, &count); err != nil {
			return nil, err
		}
		counts[risk.Tier(tier)] = count
	}

	return counts, rows.Err()
}
