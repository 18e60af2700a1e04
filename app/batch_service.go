package app

import (
	"context"
	"fmt"
	"log"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"

	"koafrail/domain/core"
	"koafrail/domain/risk"
	"koafrail/ports"
)

// DefaultBatchWorkers bounds concurrent scoring when the caller does not
const DefaultBatchWorkers = 8

// BatchService scores whole cohorts. Rows are independent, so scoring fans
// out across a bounded worker group; row-level validation failures land in
// the report instead of aborting the run.
type BatchService struct {
	scorer  ports.Scorer
	workers int
}

// NewBatchService creates a batch scorer with the given worker bound
func NewBatchService(scorer ports.Scorer, workers int) *BatchService {
	if workers <= 0 {
		workers = DefaultBatchWorkers
	}
	return &BatchService{
		scorer:  scorer,
		workers: workers,
	}
}

// ScoreCohort scores every row and aggregates a summary over the valid ones
func (s *BatchService) ScoreCohort(ctx context.Context, cohort *ports.Cohort) (*ports.CohortReport, error) {
	if cohort == nil || len(cohort.Rows) == 0 {
		return nil, core.ErrCohortEmpty
	}

	results := make([]ports.RowResult, len(cohort.Rows))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, row := range cohort.Rows {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if errs := row.Values.Validate(); len(errs) > 0 {
				results[i] = ports.RowResult{Row: row, Problems: errs}
				return nil
			}
			pred, err := s.scorer.Score(row.Values)
			if err != nil {
				// a validated row can only fail here if the model and
				// schema disagree, which poisons the whole run
				return fmt.Errorf("row %d: %w", row.Index, err)
			}
			results[i] = ports.RowResult{Row: row, Prediction: &pred}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := summarize(results)
	log.Printf("[BatchService] scored %s: %d rows, %d valid, %d invalid",
		cohort.Source, summary.Total, summary.Valid, summary.Invalid)

	return &ports.CohortReport{
		Source:      cohort.Source,
		Hash:        cohort.Hash,
		GeneratedAt: core.NewGeneratedAt(core.Now().Time()),
		Model:       s.scorer.Model(),
		Results:     results,
		Summary:     summary,
	}, nil
}

// summarize aggregates probabilities and tier counts over the valid rows
func summarize(results []ports.RowResult) ports.CohortSummary {
	summary := ports.CohortSummary{
		Total:      len(results),
		TierCounts: make(map[risk.Tier]int),
	}

	var probabilities []float64
	for _, r := range results {
		if !r.Valid() {
			summary.Invalid++
			continue
		}
		summary.Valid++
		probabilities = append(probabilities, r.Prediction.Probability)
		summary.TierCounts[r.Prediction.Tier()]++
	}

	if len(probabilities) == 0 {
		return summary
	}

	summary.MeanProbability, _ = stats.Mean(probabilities)
	summary.MedianProbability, _ = stats.Median(probabilities)
	summary.MinProbability, _ = stats.Min(probabilities)
	summary.MaxProbability, _ = stats.Max(probabilities)

	// Percentile needs enough mass below the cut; on tiny cohorts it errors
	// and the quartiles collapse onto the extremes.
	summary.P25 = summary.MinProbability
	summary.P75 = summary.MaxProbability
	if v, err := stats.Percentile(probabilities, 25); err == nil {
		summary.P25 = v
	}
	if v, err := stats.Percentile(probabilities, 75); err == nil {
		summary.P75 = v
	}

	return summary
}
