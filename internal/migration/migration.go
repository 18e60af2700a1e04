package migration

import (
	"context"
	"fmt"

	"koafrail/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createAssessmentsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create assessments table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	return nil
}

func (r *MigrationRunner) createAssessmentsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS assessments (
			id UUID PRIMARY KEY,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			source VARCHAR(10) NOT NULL CHECK (source IN ('ui', 'api', 'batch')),
			features JSONB NOT NULL,
			probability DOUBLE PRECISION NOT NULL,
			raw_score DOUBLE PRECISION NOT NULL,
			tier VARCHAR(10) NOT NULL CHECK (tier IN ('high', 'medium', 'low')),
			model_hash VARCHAR(64) NOT NULL
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_assessments_created_at ON assessments(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_assessments_tier ON assessments(tier)",
		"CREATE INDEX IF NOT EXISTS idx_assessments_source ON assessments(source)",
		"CREATE INDEX IF NOT EXISTS idx_assessments_model_hash ON assessments(model_hash)",
	}

	for _, idxSQL := range indexes {
		if _, err := db.ExecContext(ctx, idxSQL); err != nil {
			// Log but don't fail on index creation errors
			fmt.Printf("Warning: failed to create index: %v\n", err)
		}
	}

	return nil
}
