package testkit

import (
	"fmt"
	"math"
	"math/rand"

	"koafrail/domain/clinical"
	"koafrail/domain/core"
	"koafrail/ports"
)

// CohortGeneratorConfig configures the synthetic cohort generator
type CohortGeneratorConfig struct {
	RowCount    int     `json:"row_count"`
	Seed        int64   `json:"seed"`
	InvalidRate float64 `json:"invalid_rate"` // fraction of rows given one out-of-range value
	Source      string  `json:"source"`
}

// DefaultCohortConfig returns sensible defaults for cohort generation
func DefaultCohortConfig() CohortGeneratorConfig {
	return CohortGeneratorConfig{
		RowCount:    200,
		Seed:        42,
		InvalidRate: 0,
		Source:      "synthetic",
	}
}

// CohortGenerator produces synthetic knee-OA patient cohorts. Marginals
// follow typical outpatient distributions (women outnumber men, BMI
// centered in the overweight range, CRP right-skewed) and age drives the
// functional measures: older patients are slower on the sit-to-stand
// test, more restricted in daily living, less active and fall more.
type CohortGenerator struct {
	config CohortGeneratorConfig
	rng    *rand.Rand
}

// NewCohortGenerator creates a generator with a deterministic stream
func NewCohortGenerator(config CohortGeneratorConfig) *CohortGenerator {
	return &CohortGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate produces an unlabeled cohort
func (g *CohortGenerator) Generate() *ports.Cohort {
	rows := make([]ports.CohortRow, g.config.RowCount)
	rowIDs := make([]string, g.config.RowCount)

	for i := range rows {
		rows[i] = g.generateRow(i + 1)
		rowIDs[i] = fmt.Sprintf("row_%04d", i+1)
	}

	return &ports.Cohort{
		Source: g.config.Source,
		Hash:   core.ComputeCohortHash(rowIDs, g.config.Source),
		Rows:   rows,
	}
}

// GenerateLabeled produces a cohort whose frailty labels are drawn by a
// Bernoulli trial on each row's predicted probability. Labels generated
// this way are consistent with the scorer, so calibration checks on the
// result should come out clean.
func (g *CohortGenerator) GenerateLabeled(scorer ports.Scorer) (*ports.Cohort, error) {
	cohort := g.Generate()

	for i := range cohort.Rows {
		pred, err := scorer.Score(cohort.Rows[i].Values)
		if err != nil {
			return nil, fmt.Errorf("labeling row %d: %w", cohort.Rows[i].Index, err)
		}
		label := 0
		if g.rng.Float64() < pred.Probability {
			label = 1
		}
		cohort.Rows[i].Label = &label
	}

	return cohort, nil
}

// generateRow draws one patient. Age is drawn first and tilts the odds
// of every functional measure through frailtyDrift.
func (g *CohortGenerator) generateRow(index int) ports.CohortRow {
	age := clampRound(65+g.rng.NormFloat64()*9, 40, 90)

	// 0 at age 55 and below, approaching 1 at 90
	frailtyDrift := (age - 55) / 35
	if frailtyDrift < 0 {
		frailtyDrift = 0
	}

	gender := 0.0 // male
	if g.rng.Float64() < 0.62 {
		gender = 1.0 // female
	}

	bmi := clampRound1(27+g.rng.NormFloat64()*3.5, 15, 40)

	smokeRate := 0.25 // male
	if gender == 1 {
		smokeRate = 0.12
	}
	smoke := g.bernoulli(smokeRate)

	ftsstSlow := g.bernoulli(clampProb(0.15 + 0.5*frailtyDrift))

	adlRate := 0.08 + 0.35*frailtyDrift
	if ftsstSlow == 1 {
		adlRate += 0.25
	}
	adl := g.bernoulli(clampProb(adlRate))

	// activity shifts from high toward low with age
	paShift := 0.25 * frailtyDrift
	pa := g.pickWeighted(
		[]int{0, 1, 2},
		[]float64{0.35 - paShift, 0.45, 0.20 + paShift},
	)

	compShift := 0.2 * frailtyDrift
	if bmi > 30 {
		compShift += 0.1
	}
	comps := g.pickWeighted(
		[]int{0, 1, 2},
		[]float64{0.55 - compShift, 0.30, 0.15 + compShift},
	)

	fallRate := 0.10 + 0.30*frailtyDrift
	if ftsstSlow == 1 {
		fallRate += 0.15
	}
	fall := g.bernoulli(clampProb(fallRate))

	// CRP is right-skewed; complications push the whole distribution up
	crpLog := g.rng.NormFloat64()*0.7 + 1.0
	if comps >= 1 {
		crpLog += 0.4
	}
	crp := clampRound1(math.Exp(crpLog), 0.1, 29.9)

	hgbMean := 145.0 // male
	if gender == 1 {
		hgbMean = 131.0
	}
	hgb := clampRound(hgbMean-6*frailtyDrift+g.rng.NormFloat64()*10, 80, 175)

	values := clinical.Vector{
		clinical.KeyAge:           age,
		clinical.KeyGender:        gender,
		clinical.KeyBMI:           bmi,
		clinical.KeySmoke:         float64(smoke),
		clinical.KeyFTSST:         float64(ftsstSlow),
		clinical.KeyADL:           float64(adl),
		clinical.KeyPA:            float64(pa),
		clinical.KeyComplications: float64(comps),
		clinical.KeyFall:          float64(fall),
		clinical.KeyCRP:           crp,
		clinical.KeyHGB:           hgb,
	}

	if g.config.InvalidRate > 0 && g.rng.Float64() < g.config.InvalidRate {
		g.corruptRow(values)
	}

	return ports.CohortRow{Index: index, Values: values}
}

// corruptRow pushes one field out of its admissible range so batch
// pipelines have invalid rows to report
func (g *CohortGenerator) corruptRow(values clinical.Vector) {
	switch g.rng.Intn(3) {
	case 0:
		values[clinical.KeyAge] = 150
	case 1:
		values[clinical.KeyCRP] = -3
	default:
		values[clinical.KeyPA] = 7
	}
}

func (g *CohortGenerator) bernoulli(p float64) int {
	if g.rng.Float64() < p {
		return 1
	}
	return 0
}

func (g *CohortGenerator) pickWeighted(codes []int, weights []float64) int {
	r := g.rng.Float64()
	cumulative := 0.0
	for i, weight := range weights {
		cumulative += weight
		if r <= cumulative {
			return codes[i]
		}
	}
	return codes[len(codes)-1]
}

func clampProb(p float64) float64 {
	if p < 0.02 {
		return 0.02
	}
	if p > 0.95 {
		return 0.95
	}
	return p
}

func clampRound(v, lo, hi float64) float64 {
	v = math.Round(v)
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampRound1(v, lo, hi float64) float64 {
	v = math.Round(v*10) / 10
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
