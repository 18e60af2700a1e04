package ports

import (
	"context"

	"koafrail/domain/clinical"
	"koafrail/domain/core"
	"koafrail/domain/risk"
)

// AssessmentRecord is one completed scoring, as persisted for audit.
// Records are write-once; nothing in the scoring path ever reads them back.
type AssessmentRecord struct {
	ID          core.AssessmentID `json:"id"`
	CreatedAt   core.Timestamp    `json:"created_at"`
	Source      core.Source       `json:"source"`
	Features    clinical.Vector   `json:"features"`
	Probability float64           `json:"probability"`
	RawScore    float64           `json:"raw_score"`
	Tier        risk.Tier         `json:"tier"`
	ModelHash   core.ModelHash    `json:"model_hash"`
}

// AssessmentStore defines the interface for the optional audit log
type AssessmentStore interface {
	// Save appends one record
	Save(ctx context.Context, rec *AssessmentRecord) error

	// ListRecent returns the newest records, newest first
	ListRecent(ctx context.Context, limit int) ([]AssessmentRecord, error)

	// CountByTier tallies stored records per risk tier
	CountByTier(ctx context.Context) (map[risk.Tier]int, error)
}
