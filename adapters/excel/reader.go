package excel

import (
	"encoding/csv"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"koafrail/domain/clinical"
	"koafrail/domain/core"
	"koafrail/ports"
)

// CohortFileReader loads patient cohorts from Excel and CSV files.
// The header row must carry every clinical feature key; a column named
// after the configured label header supplies observed outcomes when present.
type CohortFileReader struct {
	config ReaderConfig
}

// NewCohortFileReader creates a reader that handles both file formats
func NewCohortFileReader(config ReaderConfig) *CohortFileReader {
	return &CohortFileReader{config: config}
}

// Read loads the cohort at path. The file extension picks the format.
func (r *CohortFileReader) Read(path string) (*ports.Cohort, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("cohort file not found: %s", path)
	}

	start := time.Now()
	var (
		table *Table
		err   error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		table, err = r.readCSV(path)
	default:
		table, err = r.readWorkbook(path)
	}
	if err != nil {
		return nil, err
	}
	log.Printf("[CohortReader] %s read in %.2fms (%d columns, %d rows)",
		filepath.Base(path), float64(time.Since(start).Nanoseconds())/1e6,
		len(table.Headers), len(table.Rows))

	return r.buildCohort(path, table)
}

// readWorkbook reads the configured sheet, defaulting to the first one
func (r *CohortFileReader) readWorkbook(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := r.config.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("cohort file must have a header row and at least one data row")
	}

	return parseTable(rows), nil
}

// readCSV reads a comma-separated cohort file
func (r *CohortFileReader) readCSV(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("cohort file must have a header row and at least one data row")
	}

	return parseTable(rows), nil
}

// parseTable converts raw string rows into header-keyed form
func parseTable(rows [][]string) *Table {
	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		headers[i] = strings.TrimSpace(header)
	}

	dataRows := make([]RawRow, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		rowData := make(RawRow, len(headers))
		for j, cell := range rows[i] {
			if j < len(headers) {
				rowData[headers[j]] = strings.TrimSpace(cell)
			}
		}
		dataRows = append(dataRows, rowData)
	}

	return &Table{Headers: headers, Rows: dataRows}
}

// buildCohort maps the parsed table onto feature vectors. Cell-level
// problems are deferred to row validation: empty cells surface as missing
// features, non-numeric cells as not-a-number, so one bad row never
// aborts the batch.
func (r *CohortFileReader) buildCohort(path string, table *Table) (*ports.Cohort, error) {
	present := make(map[string]bool, len(table.Headers))
	for _, header := range table.Headers {
		present[header] = true
	}

	var missing []string
	for _, key := range clinical.Keys() {
		if !present[key] {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", core.ErrHeaderMissing, strings.Join(missing, ", "))
	}

	labeled := r.config.LabelColumn != "" && present[r.config.LabelColumn]

	rows := make([]ports.CohortRow, 0, len(table.Rows))
	rowIDs := make([]string, 0, len(table.Rows))
	for i, raw := range table.Rows {
		values := make(clinical.Vector, clinical.Count())
		for _, key := range clinical.Keys() {
			cell := raw[key]
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				v = math.NaN()
			}
			values[key] = v
		}

		row := ports.CohortRow{Index: i + 1, Values: values}
		if labeled {
			row.Label = parseLabel(raw[r.config.LabelColumn])
		}
		rows = append(rows, row)
		rowIDs = append(rowIDs, fmt.Sprintf("row_%04d", i+1))
	}

	source := filepath.Base(path)
	return &ports.Cohort{
		Source: source,
		Hash:   core.ComputeCohortHash(rowIDs, source),
		Rows:   rows,
	}, nil
}

// parseLabel reads an observed 0/1 outcome; anything else counts as absent
func parseLabel(cell string) *int {
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil || (v != 0 && v != 1) {
		return nil
	}
	label := int(v)
	return &label
}
