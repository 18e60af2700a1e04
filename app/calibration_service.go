package app

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"

	"koafrail/domain/core"
	"koafrail/ports"
)

// CalibrationBins is how many score-ordered groups the Hosmer-Lemeshow
// statistic uses when the cohort is large enough.
const CalibrationBins = 10

// CalibrationService evaluates the model against a labeled cohort:
// discrimination (AUC), accuracy (Brier) and calibration (Hosmer-Lemeshow
// over score-ordered bins).
type CalibrationService struct {
	scorer ports.Scorer
	bins   int
}

// NewCalibrationService creates the evaluator with the standard bin count
func NewCalibrationService(scorer ports.Scorer) *CalibrationService {
	return &CalibrationService{
		scorer: scorer,
		bins:   CalibrationBins,
	}
}

// CalibrationBin is one score-ordered group of the calibration table
type CalibrationBin struct {
	N             int     `json:"n"`
	MeanPredicted float64 `json:"mean_predicted"`
	Observed      int     `json:"observed"`
	ObservedRate  float64 `json:"observed_rate"`
}

// CalibrationReport is the full evaluation outcome
type CalibrationReport struct {
	N          int     `json:"n"`
	Skipped    int     `json:"skipped"` // rows dropped for validation failures
	Prevalence float64 `json:"prevalence"`

	AUC   float64 `json:"auc"`
	Brier float64 `json:"brier"`

	HLChiSquare float64          `json:"hl_chi_square"`
	HLDegrees   int              `json:"hl_degrees"`
	HLPValue    float64          `json:"hl_p_value"`
	Bins        []CalibrationBin `json:"bins"`

	Model ports.ModelCard `json:"model"`
}

// Evaluate scores a labeled cohort and measures the model against the labels
func (s *CalibrationService) Evaluate(ctx context.Context, cohort *ports.Cohort) (*CalibrationReport, error) {
	if cohort == nil || len(cohort.Rows) == 0 {
		return nil, core.ErrCohortEmpty
	}

	var predicted []float64
	var observed []int
	skipped := 0
	for _, row := range cohort.Rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if row.Label == nil {
			return nil, fmt.Errorf("%w: row %d", core.ErrNoLabels, row.Index)
		}
		if *row.Label != 0 && *row.Label != 1 {
			return nil, fmt.Errorf("%w: row %d label %d", core.ErrNoLabels, row.Index, *row.Label)
		}
		if errs := row.Values.Validate(); len(errs) > 0 {
			skipped++
			continue
		}
		pred, err := s.scorer.Score(row.Values)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row.Index, err)
		}
		predicted = append(predicted, pred.Probability)
		observed = append(observed, *row.Label)
	}
	if len(predicted) == 0 {
		return nil, core.ErrCohortEmpty
	}

	positives := 0
	for _, y := range observed {
		positives += y
	}

	report := &CalibrationReport{
		N:          len(predicted),
		Skipped:    skipped,
		Prevalence: float64(positives) / float64(len(predicted)),
		AUC:        rankAUC(predicted, observed),
		Brier:      brierScore(predicted, observed),
		Model:      s.scorer.Model(),
	}
	report.Bins, report.HLChiSquare, report.HLDegrees = hosmerLemeshow(predicted, observed, s.bins)
	if report.HLDegrees > 0 {
		// upper tail of the chi-squared distribution
		dist := distuv.ChiSquared{K: float64(report.HLDegrees)}
		report.HLPValue = 1 - dist.CDF(report.HLChiSquare)
	} else {
		report.HLPValue = math.NaN()
	}

	return report, nil
}

// rankAUC is the Mann-Whitney estimate of the ROC area: the rank sum of the
// positives, with tied scores sharing their average rank.
func rankAUC(predicted []float64, observed []int) float64 {
	n := len(predicted)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		return predicted[idx[a]] < predicted[idx[b]]
	})

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j < n && predicted[idx[j]] == predicted[idx[i]] {
			j++
		}
		avg := float64(i+j+1) / 2 // average of 1-based ranks i+1..j
		for k := i; k < j; k++ {
			ranks[idx[k]] = avg
		}
		i = j
	}

	var posRankSum float64
	var nPos, nNeg float64
	for i, y := range observed {
		if y == 1 {
			posRankSum += ranks[i]
			nPos++
		} else {
			nNeg++
		}
	}
	if nPos == 0 || nNeg == 0 {
		return math.NaN()
	}
	return (posRankSum - nPos*(nPos+1)/2) / (nPos * nNeg)
}

// brierScore is the mean squared gap between predicted probability and outcome
func brierScore(predicted []float64, observed []int) float64 {
	sq := make([]float64, len(predicted))
	for i, p := range predicted {
		d := p - float64(observed[i])
		sq[i] = d * d
	}
	mean, _ := stats.Mean(sq)
	return mean
}

// hosmerLemeshow splits the sample into up to bins score-ordered groups and
// sums (O-E)^2/E over both outcomes per group. Degrees of freedom follow the
// usual g-2 convention.
func hosmerLemeshow(predicted []float64, observed []int, bins int) ([]CalibrationBin, float64, int) {
	n := len(predicted)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		return predicted[idx[a]] < predicted[idx[b]]
	})

	if bins > n {
		bins = n
	}

	table := make([]CalibrationBin, 0, bins)
	var chi2 float64
	for b := 0; b < bins; b++ {
		lo := b * n / bins
		hi := (b + 1) * n / bins
		if lo == hi {
			continue
		}

		var sumP float64
		var sumY int
		for _, i := range idx[lo:hi] {
			sumP += predicted[i]
			sumY += observed[i]
		}
		size := hi - lo
		bin := CalibrationBin{
			N:             size,
			MeanPredicted: sumP / float64(size),
			Observed:      sumY,
			ObservedRate:  float64(sumY) / float64(size),
		}
		table = append(table, bin)

		expectedPos := sumP
		expectedNeg := float64(size) - sumP
		if expectedPos > 1e-9 {
			d := float64(sumY) - expectedPos
			chi2 += d * d / expectedPos
		}
		if expectedNeg > 1e-9 {
			d := float64(size-sumY) - expectedNeg
			chi2 += d * d / expectedNeg
		}
	}

	degrees := len(table) - 2
	if degrees < 0 {
		degrees = 0
	}
	return table, chi2, degrees
}
