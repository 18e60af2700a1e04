package app

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"koafrail/domain/clinical"
	"koafrail/domain/core"
	"koafrail/domain/risk"
	"koafrail/ports"
)

func cohortRow(index int, age float64) ports.CohortRow {
	v := clinical.Defaults()
	v[clinical.KeyAge] = age
	return ports.CohortRow{Index: index, Values: v}
}

func TestScoreCohortMixedRows(t *testing.T) {
	svc := NewBatchService(&stubScorer{}, 2)

	cohort := &ports.Cohort{
		Source: "cohort.xlsx",
		Rows: []ports.CohortRow{
			cohortRow(1, 40), // p=0.40 medium
			cohortRow(2, 50), // p=0.50 medium
			cohortRow(3, 20), // invalid: below range
			cohortRow(4, 60), // p=0.60 medium
			cohortRow(5, 80), // p=0.80 high
		},
	}

	report, err := svc.ScoreCohort(context.Background(), cohort)
	require.NoError(t, err)

	assert.Equal(t, 5, report.Summary.Total)
	assert.Equal(t, 4, report.Summary.Valid)
	assert.Equal(t, 1, report.Summary.Invalid)

	// results stay aligned with input rows
	require.Len(t, report.Results, 5)
	assert.True(t, report.Results[0].Valid())
	assert.False(t, report.Results[2].Valid())
	assert.NotEmpty(t, report.Results[2].Problems)
	assert.Equal(t, 3, report.Results[2].Row.Index)

	assert.InDelta(t, 0.575, report.Summary.MeanProbability, 1e-9)
	assert.InDelta(t, 0.55, report.Summary.MedianProbability, 1e-9)
	assert.InDelta(t, 0.40, report.Summary.MinProbability, 1e-9)
	assert.InDelta(t, 0.80, report.Summary.MaxProbability, 1e-9)
	assert.InDelta(t, 0.40, report.Summary.P25, 1e-9)
	assert.InDelta(t, 0.60, report.Summary.P75, 1e-9)

	assert.Equal(t, 3, report.Summary.TierCounts[risk.TierMedium])
	assert.Equal(t, 1, report.Summary.TierCounts[risk.TierHigh])
	assert.Equal(t, 0, report.Summary.TierCounts[risk.TierLow])

	assert.Equal(t, "cohort.xlsx", report.Source)
	assert.Equal(t, "stub", report.Model.Version)
	assert.False(t, report.GeneratedAt.Time().IsZero())
}

func TestScoreCohortEmpty(t *testing.T) {
	svc := NewBatchService(&stubScorer{}, 0)

	_, err := svc.ScoreCohort(context.Background(), &ports.Cohort{Source: "empty.csv"})
	assert.ErrorIs(t, err, core.ErrCohortEmpty)

	_, err = svc.ScoreCohort(context.Background(), nil)
	assert.ErrorIs(t, err, core.ErrCohortEmpty)
}

func TestScoreCohortKeepsOrderUnderConcurrency(t *testing.T) {
	svc := NewBatchService(&stubScorer{}, 4)

	const n = 200
	rows := make([]ports.CohortRow, n)
	for i := 0; i < n; i++ {
		rows[i] = cohortRow(i+1, 40+float64(i%70))
	}

	report, err := svc.ScoreCohort(context.Background(), &ports.Cohort{Source: "big.xlsx", Rows: rows})
	require.NoError(t, err)
	require.Len(t, report.Results, n)

	for i, r := range report.Results {
		require.True(t, r.Valid(), "row %d unexpectedly invalid", i)
		want := (40 + float64(i%70)) / 100
		assert.InDelta(t, want, r.Prediction.Probability, 1e-9,
			fmt.Sprintf("row %d out of place", i))
	}
}

func TestScoreCohortAllInvalid(t *testing.T) {
	svc := NewBatchService(&stubScorer{}, 2)

	cohort := &ports.Cohort{
		Source: "bad.csv",
		Rows:   []ports.CohortRow{cohortRow(1, 10), cohortRow(2, 200)},
	}
	report, err := svc.ScoreCohort(context.Background(), cohort)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Summary.Invalid)
	assert.Equal(t, 0, report.Summary.Valid)
	assert.Zero(t, report.Summary.MeanProbability)
	assert.Empty(t, report.Summary.TierCounts)
}

func TestScoreCohortHonorsCancellation(t *testing.T) {
	svc := NewBatchService(&stubScorer{}, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rows := make([]ports.CohortRow, 50)
	for i := range rows {
		rows[i] = cohortRow(i+1, 50)
	}
	_, err := svc.ScoreCohort(ctx, &ports.Cohort{Source: "canceled.xlsx", Rows: rows})
	assert.Error(t, err)
}
