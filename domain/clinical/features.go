package clinical

import (
	"strconv"
)

// Kind classifies how a feature is measured
type Kind string

const (
	KindNumeric     Kind = "numeric"
	KindCategorical Kind = "categorical"
)

// Level is one admissible code of a categorical feature
type Level struct {
	Code  int    `json:"code"`
	Label string `json:"label"`
}

// Feature describes one clinical input: its key, labels, kind and admissible values.
// Numeric features carry Min/Max/Step; categorical features carry Levels.
type Feature struct {
	Key     string  `json:"key"`
	Label   string  `json:"label"`  // short label used in attributions and plots
	Prompt  string  `json:"prompt"` // full form prompt shown next to the widget
	Kind    Kind    `json:"kind"`
	Min     float64 `json:"min,omitempty"`
	Max     float64 `json:"max,omitempty"`
	Step    float64 `json:"step,omitempty"`
	Levels  []Level `json:"levels,omitempty"`
	Default float64 `json:"default"`
}

// Canonical feature keys
const (
	KeyAge           = "age"
	KeyGender        = "gender"
	KeyBMI           = "bmi"
	KeySmoke         = "smoke"
	KeyFTSST         = "FTSST"
	KeyADL           = "ADL"
	KeyPA            = "PA"
	KeyComplications = "Complications"
	KeyFall          = "fall"
	KeyCRP           = "bl_crp"
	KeyHGB           = "bl_hgb"
)

// features holds the schema in form order (the order widgets appear on the page)
var features = []Feature{
	{
		Key: KeyAge, Label: "Age", Prompt: "Age",
		Kind: KindNumeric, Min: 40, Max: 110, Step: 1, Default: 40,
	},
	{
		Key: KeyGender, Label: "Gender", Prompt: "Gender",
		Kind: KindCategorical, Default: 0,
		Levels: []Level{{0, "Male"}, {1, "Female"}},
	},
	{
		Key: KeyBMI, Label: "BMI", Prompt: "BMI",
		Kind: KindNumeric, Min: 15.0, Max: 40.0, Step: 0.1, Default: 18.5,
	},
	{
		Key: KeySmoke, Label: "Smoke", Prompt: "Smoke",
		Kind: KindCategorical, Default: 0,
		Levels: []Level{{0, "No"}, {1, "Yes"}},
	},
	{
		Key: KeyFTSST, Label: "FTSST", Prompt: "FTSST (5 Times Sit-to-Stand Test)",
		Kind: KindCategorical, Default: 0,
		Levels: []Level{{0, "≤12s"}, {1, ">12s"}},
	},
	{
		Key: KeyADL, Label: "ADL", Prompt: "ADL (Activities of Daily Living)",
		Kind: KindCategorical, Default: 0,
		Levels: []Level{{0, "Unrestricted"}, {1, "Restricted"}},
	},
	{
		Key: KeyPA, Label: "PA", Prompt: "Physical Activity Level",
		Kind: KindCategorical, Default: 0,
		Levels: []Level{{0, "High"}, {1, "Medium"}, {2, "Low"}},
	},
	{
		Key: KeyComplications, Label: "Complications", Prompt: "Number of Complications",
		Kind: KindCategorical, Default: 0,
		Levels: []Level{{0, "No"}, {1, "One"}, {2, "≥2"}},
	},
	{
		Key: KeyFall, Label: "History of falls", Prompt: "History of falls",
		Kind: KindCategorical, Default: 0,
		Levels: []Level{{0, "No"}, {1, "Yes"}},
	},
	{
		Key: KeyCRP, Label: "CRP", Prompt: "C-reactive protein, CRP (mg/L)",
		Kind: KindNumeric, Min: 0.0, Max: 30.0, Step: 0.1, Default: 0.0,
	},
	{
		Key: KeyHGB, Label: "HGB", Prompt: "Hemoglobin, HGB (g/L)",
		Kind: KindNumeric, Min: 50.0, Max: 250.0, Step: 1.0, Default: 120.0,
	},
}

var featureIndex = buildIndex()

func buildIndex() map[string]int {
	idx := make(map[string]int, len(features))
	for i, f := range features {
		idx[f.Key] = i
	}
	return idx
}

// Features returns the schema in form order. The slice is a copy; callers may reorder it.
func Features() []Feature {
	out := make([]Feature, len(features))
	copy(out, features)
	return out
}

// Keys returns the canonical feature keys in form order
func Keys() []string {
	keys := make([]string, len(features))
	for i, f := range features {
		keys[i] = f.Key
	}
	return keys
}

// ByKey looks up a feature by its canonical key
func ByKey(key string) (Feature, bool) {
	i, ok := featureIndex[key]
	if !ok {
		return Feature{}, false
	}
	return features[i], true
}

// Count returns the number of features in the schema
func Count() int {
	return len(features)
}

// IsLevel reports whether code is an admissible level of a categorical feature
func (f Feature) IsLevel(code int) bool {
	for _, l := range f.Levels {
		if l.Code == code {
			return true
		}
	}
	return false
}

// LevelLabel returns the label of a categorical code, e.g. 1 -> "Female"
func (f Feature) LevelLabel(code int) (string, bool) {
	for _, l := range f.Levels {
		if l.Code == code {
			return l.Label, true
		}
	}
	return "", false
}

// FormatValue renders a raw value the way it should read in plot labels:
// whole numbers without decimals, fractional values with their natural precision.
func (f Feature) FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
