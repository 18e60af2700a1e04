package testkit

import (
	"context"
	"sync"

	"koafrail/adapters/model"
	"koafrail/domain/clinical"
	"koafrail/domain/risk"
	"koafrail/ports"
)

// TestKit provides testing utilities and fixtures
type TestKit struct {
	store *InMemoryAssessmentStore // shared store instance
}

// NewTestKit creates a new test kit instance
func NewTestKit() *TestKit {
	return &TestKit{store: NewInMemoryAssessmentStore()}
}

// Scorer returns a scorer backed by the bundled model artifact
func (t *TestKit) Scorer() (ports.Scorer, error) {
	artifact, err := model.LoadDefault()
	if err != nil {
		return nil, err
	}
	return model.NewLinearScorer(artifact)
}

// AssessmentStore returns the shared in-memory store so services and
// assertions see the same records
func (t *TestKit) AssessmentStore() *InMemoryAssessmentStore {
	return t.store
}

// Vector builds a feature vector from schema defaults with overrides
// applied on top
func (t *TestKit) Vector(overrides map[string]float64) clinical.Vector {
	v := clinical.Defaults()
	for key, value := range overrides {
		v[key] = value
	}
	return v
}

// InMemoryAssessmentStore implements ports.AssessmentStore with in-memory storage
type InMemoryAssessmentStore struct {
	records []ports.AssessmentRecord
	mu      sync.RWMutex
}

func NewInMemoryAssessmentStore() *InMemoryAssessmentStore {
	return &InMemoryAssessmentStore{}
}

func (s *InMemoryAssessmentStore) Save(ctx context.Context, rec *ports.AssessmentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, *rec)
	return nil
}

func (s *InMemoryAssessmentStore) ListRecent(ctx context.Context, limit int) ([]ports.AssessmentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// newest first
	results := make([]ports.AssessmentRecord, 0, limit)
	for i := len(s.records) - 1; i >= 0 && len(results) < limit; i-- {
		results = append(results, s.records[i])
	}
	return results, nil
}

func (s *InMemoryAssessmentStore) CountByTier(ctx context.Context) (map[risk.Tier]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[risk.Tier]int)
	for _, rec := range s.records {
		counts[rec.Tier]++
	}
	return counts, nil
}

// Len returns the number of stored records
func (s *InMemoryAssessmentStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records)
}
