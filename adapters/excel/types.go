package excel

// RawRow represents one sheet row as trimmed string cells keyed by header
type RawRow map[string]string

// Table represents a fully parsed sheet
type Table struct {
	Headers []string // column headers
	Rows    []RawRow // data rows
}
