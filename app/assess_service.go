package app

import (
	"context"
	"fmt"
	"log"

	"koafrail/domain/clinical"
	"koafrail/domain/core"
	"koafrail/domain/risk"
	"koafrail/ports"
)

// AssessService runs the core pipeline for one patient: validate the feature
// vector, score it, attach the tier guidance, and append the outcome to the
// audit log when one is wired.
type AssessService struct {
	scorer ports.Scorer
	store  ports.AssessmentStore // nil disables auditing
}

// AssessRequest carries one assembled feature vector and the surface it came from
type AssessRequest struct {
	Vector clinical.Vector `json:"vector"`
	Source core.Source     `json:"source"`
}

// AssessResult is the full outcome handed to the UI and API layers
type AssessResult struct {
	ID             core.AssessmentID   `json:"id"`
	AssessedAt     core.AssessedAt     `json:"assessed_at"`
	Prediction     risk.Prediction     `json:"prediction"`
	Tier           risk.Tier           `json:"tier"`
	Recommendation risk.Recommendation `json:"recommendation"`
}

// NewAssessService creates the assessment service
func NewAssessService(scorer ports.Scorer, store ports.AssessmentStore) *AssessService {
	return &AssessService{
		scorer: scorer,
		store:  store,
	}
}

// Assess validates and scores one patient. Validation failures come back as
// clinical.ValidationErrors so callers can address each field; no prediction
// is produced in that case.
func (s *AssessService) Assess(ctx context.Context, req AssessRequest) (*AssessResult, error) {
	if errs := req.Vector.Validate(); len(errs) > 0 {
		return nil, errs
	}

	pred, err := s.scorer.Score(req.Vector)
	if err != nil {
		return nil, fmt.Errorf("scoring failed: %w", err)
	}

	result := &AssessResult{
		ID:             core.AssessmentID(core.NewID()),
		AssessedAt:     core.NewAssessedAt(core.Now().Time()),
		Prediction:     pred,
		Tier:           pred.Tier(),
		Recommendation: risk.RecommendationFor(pred.Tier()),
	}

	// The audit log is write-only bookkeeping; a storage hiccup must not
	// withhold the clinical answer.
	if s.store != nil {
		rec := &ports.AssessmentRecord{
			ID:          result.ID,
			CreatedAt:   core.Timestamp(result.AssessedAt),
			Source:      req.Source,
			Features:    req.Vector.Clone(),
			Probability: pred.Probability,
			RawScore:    pred.RawScore,
			Tier:        result.Tier,
			ModelHash:   pred.ModelHash,
		}
		if err := s.store.Save(ctx, rec); err != nil {
			log.Printf("[AssessService] audit save failed for %s: %v", result.ID, err)
		}
	}

	return result, nil
}

// Model describes the artifact behind the scorer
func (s *AssessService) Model() ports.ModelCard {
	return s.scorer.Model()
}

// Auditing reports whether an audit store is wired
func (s *AssessService) Auditing() bool {
	return s.store != nil
}

// History returns recent audit records, newest first. Without a store it
// returns an empty list rather than an error so the page degrades quietly.
func (s *AssessService) History(ctx context.Context, limit int) ([]ports.AssessmentRecord, error) {
	if s.store == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	return s.store.ListRecent(ctx, limit)
}

// TierCounts tallies audited assessments per tier
func (s *AssessService) TierCounts(ctx context.Context) (map[risk.Tier]int, error) {
	if s.store == nil {
		return map[risk.Tier]int{}, nil
	}
	return s.store.CountByTier(ctx)
}
