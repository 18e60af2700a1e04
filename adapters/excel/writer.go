package excel

import (
	"fmt"
	"log"
	"math"

	"github.com/xuri/excelize/v2"

	"koafrail/domain/clinical"
	"koafrail/domain/risk"
	"koafrail/ports"
)

// ReportFileWriter renders batch scoring reports as workbooks
type ReportFileWriter struct{}

// NewReportFileWriter creates a workbook writer
func NewReportFileWriter() *ReportFileWriter {
	return &ReportFileWriter{}
}

// Write renders the report: a Results sheet with one row per patient and
// a Summary sheet with the cohort aggregates.
func (w *ReportFileWriter) Write(path string, report *ports.CohortReport) error {
	f := excelize.NewFile()
	defer f.Close()

	const results = "Results"
	if err := f.SetSheetName(f.GetSheetName(0), results); err != nil {
		return fmt.Errorf("failed to name results sheet: %w", err)
	}

	labeled := reportLabeled(report)
	if err := writeRow(f, results, 1, resultHeader(labeled)); err != nil {
		return err
	}
	for i, res := range report.Results {
		if err := writeRow(f, results, i+2, resultRow(res, labeled)); err != nil {
			return err
		}
	}

	const summary = "Summary"
	if _, err := f.NewSheet(summary); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}
	for i, pair := range summaryRows(report) {
		if err := writeRow(f, summary, i+1, pair); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save report workbook: %w", err)
	}

	log.Printf("[ReportWriter] wrote %s (%d result rows)", path, len(report.Results))
	return nil
}

// WriteCohort renders a bare cohort as a workbook that Read can load back,
// one feature column per schema key plus the label column when present.
func (w *ReportFileWriter) WriteCohort(path string, cohort *ports.Cohort) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	labeled := cohort.Labeled()

	header := make([]interface{}, 0, clinical.Count()+1)
	for _, key := range clinical.Keys() {
		header = append(header, key)
	}
	if labeled {
		header = append(header, DefaultReaderConfig().LabelColumn)
	}
	if err := writeRow(f, sheet, 1, header); err != nil {
		return err
	}

	for i, row := range cohort.Rows {
		cells := make([]interface{}, 0, len(header))
		for _, key := range clinical.Keys() {
			cells = append(cells, row.Values[key])
		}
		if labeled {
			cells = append(cells, *row.Label)
		}
		if err := writeRow(f, sheet, i+2, cells); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save cohort workbook: %w", err)
	}

	log.Printf("[ReportWriter] wrote %s (%d patient rows)", path, len(cohort.Rows))
	return nil
}

// writeRow writes one sheet row starting at column A
func writeRow(f *excelize.File, sheet string, row int, cells []interface{}) error {
	ref, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("bad row %d: %w", row, err)
	}
	if err := f.SetSheetRow(sheet, ref, &cells); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}

func reportLabeled(report *ports.CohortReport) bool {
	for _, res := range report.Results {
		if res.Row.Label != nil {
			return true
		}
	}
	return false
}

func resultHeader(labeled bool) []interface{} {
	header := []interface{}{"row"}
	for _, key := range clinical.Keys() {
		header = append(header, key)
	}
	if labeled {
		header = append(header, DefaultReaderConfig().LabelColumn)
	}
	return append(header,
		"probability", "raw_score", "tier", "top_risk_raising", "top_risk_lowering", "problems")
}

func resultRow(res ports.RowResult, labeled bool) []interface{} {
	cells := []interface{}{res.Row.Index}
	for _, key := range clinical.Keys() {
		value, ok := res.Row.Values[key]
		if !ok || math.IsNaN(value) {
			cells = append(cells, nil)
			continue
		}
		cells = append(cells, value)
	}
	if labeled {
		if res.Row.Label != nil {
			cells = append(cells, *res.Row.Label)
		} else {
			cells = append(cells, nil)
		}
	}

	if !res.Valid() {
		return append(cells, nil, nil, nil, nil, nil, res.Problems.Error())
	}
	return append(cells,
		res.Prediction.Probability,
		res.Prediction.RawScore,
		string(res.Prediction.Tier()),
		res.Prediction.TopRising(),
		res.Prediction.TopFalling(),
		nil,
	)
}

func summaryRows(report *ports.CohortReport) [][]interface{} {
	s := report.Summary
	rows := [][]interface{}{
		{"source", report.Source},
		{"cohort_hash", report.Hash.String()},
		{"generated_at", report.GeneratedAt.String()},
		{"model_version", report.Model.Version},
		{"model_hash", report.Model.Hash.String()},
		{"rows", s.Total},
		{"valid", s.Valid},
		{"invalid", s.Invalid},
	}
	if s.Valid > 0 {
		rows = append(rows,
			[]interface{}{"mean_probability", s.MeanProbability},
			[]interface{}{"median_probability", s.MedianProbability},
			[]interface{}{"p25_probability", s.P25},
			[]interface{}{"p75_probability", s.P75},
			[]interface{}{"min_probability", s.MinProbability},
			[]interface{}{"max_probability", s.MaxProbability},
		)
	}
	rows = append(rows,
		[]interface{}{"high_risk", s.TierCounts[risk.TierHigh]},
		[]interface{}{"medium_risk", s.TierCounts[risk.TierMedium]},
		[]interface{}{"low_risk", s.TierCounts[risk.TierLow]},
	)
	return rows
}
