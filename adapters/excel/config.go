package excel

// ReaderConfig holds configuration for cohort file reading
type ReaderConfig struct {
	Sheet       string `json:"sheet"`        // empty means the workbook's first sheet
	LabelColumn string `json:"label_column"` // header of the optional observed-outcome column
}

// DefaultReaderConfig returns sensible defaults for cohort files
func DefaultReaderConfig() ReaderConfig {
	return ReaderConfig{
		LabelColumn: "frail",
	}
}
