package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"koafrail/domain/core"
	"koafrail/ports"
)

func labeledRow(index int, age float64, label int) ports.CohortRow {
	row := cohortRow(index, age)
	row.Label = &label
	return row
}

func separableCohort() *ports.Cohort {
	return &ports.Cohort{
		Source: "labeled.xlsx",
		Rows: []ports.CohortRow{
			labeledRow(1, 80, 1), // p=0.80
			labeledRow(2, 85, 1), // p=0.85
			labeledRow(3, 90, 1), // p=0.90
			labeledRow(4, 40, 0), // p=0.40
			labeledRow(5, 45, 0), // p=0.45
			labeledRow(6, 50, 0), // p=0.50
		},
	}
}

func TestEvaluateSeparableCohort(t *testing.T) {
	svc := NewCalibrationService(&stubScorer{})

	report, err := svc.Evaluate(context.Background(), separableCohort())
	require.NoError(t, err)

	assert.Equal(t, 6, report.N)
	assert.Equal(t, 0, report.Skipped)
	assert.InDelta(t, 0.5, report.Prevalence, 1e-9)
	assert.InDelta(t, 1.0, report.AUC, 1e-9, "perfectly separable cohort must reach AUC 1")

	// mean of squared gaps: .2^2 .15^2 .1^2 .4^2 .45^2 .5^2
	assert.InDelta(t, 0.685/6, report.Brier, 1e-9)

	// six singleton bins, g-2 degrees of freedom
	assert.Len(t, report.Bins, 6)
	assert.Equal(t, 4, report.HLDegrees)
	assert.GreaterOrEqual(t, report.HLPValue, 0.0)
	assert.LessOrEqual(t, report.HLPValue, 1.0)

	var totalN, totalObserved int
	for _, bin := range report.Bins {
		totalN += bin.N
		totalObserved += bin.Observed
	}
	assert.Equal(t, 6, totalN)
	assert.Equal(t, 3, totalObserved)

	// bins come back score-ordered
	for i := 1; i < len(report.Bins); i++ {
		assert.GreaterOrEqual(t, report.Bins[i].MeanPredicted, report.Bins[i-1].MeanPredicted)
	}
}

func TestEvaluateAntiSeparableCohort(t *testing.T) {
	svc := NewCalibrationService(&stubScorer{})

	cohort := separableCohort()
	for i := range cohort.Rows {
		flipped := 1 - *cohort.Rows[i].Label
		cohort.Rows[i].Label = &flipped
	}

	report, err := svc.Evaluate(context.Background(), cohort)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, report.AUC, 1e-9, "inverted labels must reach AUC 0")
}

func TestEvaluateTiedScores(t *testing.T) {
	svc := NewCalibrationService(&stubScorer{})

	cohort := &ports.Cohort{
		Source: "tied.xlsx",
		Rows: []ports.CohortRow{
			labeledRow(1, 60, 1),
			labeledRow(2, 60, 1),
			labeledRow(3, 60, 0),
			labeledRow(4, 60, 0),
		},
	}
	report, err := svc.Evaluate(context.Background(), cohort)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, report.AUC, 1e-9, "all-tied scores carry no information")
}

func TestEvaluateSkipsInvalidRows(t *testing.T) {
	svc := NewCalibrationService(&stubScorer{})

	cohort := separableCohort()
	cohort.Rows = append(cohort.Rows, labeledRow(7, 20, 1)) // fails validation

	report, err := svc.Evaluate(context.Background(), cohort)
	require.NoError(t, err)
	assert.Equal(t, 6, report.N)
	assert.Equal(t, 1, report.Skipped)
}

func TestEvaluateRejectsUnlabeledAndBadLabels(t *testing.T) {
	svc := NewCalibrationService(&stubScorer{})

	unlabeled := separableCohort()
	unlabeled.Rows[2].Label = nil
	_, err := svc.Evaluate(context.Background(), unlabeled)
	assert.ErrorIs(t, err, core.ErrNoLabels)

	bad := separableCohort()
	two := 2
	bad.Rows[0].Label = &two
	_, err = svc.Evaluate(context.Background(), bad)
	assert.ErrorIs(t, err, core.ErrNoLabels)

	_, err = svc.Evaluate(context.Background(), &ports.Cohort{Source: "empty.csv"})
	assert.ErrorIs(t, err, core.ErrCohortEmpty)
}

func TestEvaluateSingleClassAUCUndefined(t *testing.T) {
	svc := NewCalibrationService(&stubScorer{})

	cohort := &ports.Cohort{
		Source: "ones.xlsx",
		Rows: []ports.CohortRow{
			labeledRow(1, 70, 1),
			labeledRow(2, 80, 1),
		},
	}
	report, err := svc.Evaluate(context.Background(), cohort)
	require.NoError(t, err)
	assert.True(t, report.AUC != report.AUC, "AUC must be NaN without both classes")
}
