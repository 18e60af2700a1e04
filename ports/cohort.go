package ports

import (
	"koafrail/domain/clinical"
	"koafrail/domain/core"
	"koafrail/domain/risk"
)

// CohortRow is one patient row as read from a workbook, before validation
type CohortRow struct {
	Index  int             `json:"index"` // 1-based data row number in the source sheet
	Values clinical.Vector `json:"values"`
	Label  *int            `json:"label,omitempty"` // observed outcome when the sheet carries one
}

// Cohort is a set of patient rows read from a single source file
type Cohort struct {
	Source string          `json:"source"`
	Hash   core.CohortHash `json:"hash"`
	Rows   []CohortRow     `json:"rows"`
}

// Labeled reports whether every row carries an observed outcome
func (c *Cohort) Labeled() bool {
	if len(c.Rows) == 0 {
		return false
	}
	for _, row := range c.Rows {
		if row.Label == nil {
			return false
		}
	}
	return true
}

// RowResult pairs a cohort row with its scoring outcome. Exactly one of
// Prediction and Problems is set: rows that fail validation carry the
// field errors instead of a score.
type RowResult struct {
	Row        CohortRow                 `json:"row"`
	Prediction *risk.Prediction          `json:"prediction,omitempty"`
	Problems   clinical.ValidationErrors `json:"problems,omitempty"`
}

// Valid reports whether the row scored
func (r RowResult) Valid() bool {
	return r.Prediction != nil
}

// CohortSummary aggregates the scored rows of a batch run
type CohortSummary struct {
	Total   int `json:"total"`
	Valid   int `json:"valid"`
	Invalid int `json:"invalid"`

	MeanProbability   float64 `json:"mean_probability"`
	MedianProbability float64 `json:"median_probability"`
	P25               float64 `json:"p25"`
	P75               float64 `json:"p75"`
	MinProbability    float64 `json:"min_probability"`
	MaxProbability    float64 `json:"max_probability"`

	TierCounts map[risk.Tier]int `json:"tier_counts"`
}

// CohortReport is the full outcome of a batch scoring run
type CohortReport struct {
	Source      string           `json:"source"`
	Hash        core.CohortHash  `json:"hash"`
	GeneratedAt core.GeneratedAt `json:"generated_at"`
	Model       ModelCard        `json:"model"`
	Results     []RowResult      `json:"results"`
	Summary     CohortSummary    `json:"summary"`
}

// CohortReader loads patient rows from a workbook or CSV file
type CohortReader interface {
	Read(path string) (*Cohort, error)
}

// ReportWriter renders a cohort report to a workbook on disk
type ReportWriter interface {
	Write(path string, report *CohortReport) error
}
