package clinical

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"koafrail/domain/core"
)

// Vector is one patient's feature values keyed by canonical feature key.
// Categorical features hold their level code as a float.
type Vector map[string]float64

// Defaults returns a vector holding every feature's default value
func Defaults() Vector {
	v := make(Vector, len(features))
	for _, f := range features {
		v[f.Key] = f.Default
	}
	return v
}

// Clone returns an independent copy of the vector
func (v Vector) Clone() Vector {
	out := make(Vector, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// FieldError describes one validation failure, addressed to the form field that caused it
type FieldError struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Key, e.Message)
}

// ValidationErrors aggregates field errors so callers can surface all of them at once
type ValidationErrors []FieldError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Error()
	}
	return strings.Join(parts, "; ")
}

// ParseValue parses a raw form value for the named feature.
// Returns core.ErrUnknownFeature for keys outside the schema and
// core.ErrNotANumber when the text does not parse.
func ParseValue(key, raw string) (float64, error) {
	if _, ok := ByKey(key); !ok {
		return 0, fmt.Errorf("%w: %s", core.ErrUnknownFeature, key)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, core.NewMissingFeatureError(key)
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", core.ErrNotANumber, key, raw)
	}
	return val, nil
}

// Validate checks a vector against the schema: every feature present, no extras,
// numerics within range, categoricals on a defined level. Returns nil when clean.
func (v Vector) Validate() ValidationErrors {
	var errs ValidationErrors

	for key := range v {
		if _, ok := ByKey(key); !ok {
			errs = append(errs, FieldError{
				Key:     key,
				Label:   key,
				Message: "is not a recognized clinical feature",
			})
		}
	}

	for _, f := range features {
		val, present := v[f.Key]
		if !present {
			errs = append(errs, FieldError{
				Key:     f.Key,
				Label:   f.Label,
				Message: "is required",
			})
			continue
		}
		if math.IsNaN(val) || math.IsInf(val, 0) {
			errs = append(errs, FieldError{
				Key:     f.Key,
				Label:   f.Label,
				Message: "must be a finite number",
			})
			continue
		}

		switch f.Kind {
		case KindNumeric:
			if val < f.Min || val > f.Max {
				errs = append(errs, FieldError{
					Key:     f.Key,
					Label:   f.Label,
					Message: fmt.Sprintf("must be between %s and %s", f.FormatValue(f.Min), f.FormatValue(f.Max)),
				})
			}
		case KindCategorical:
			code := int(val)
			if float64(code) != val || !f.IsLevel(code) {
				errs = append(errs, FieldError{
					Key:     f.Key,
					Label:   f.Label,
					Message: fmt.Sprintf("must be one of the offered options (got %s)", f.FormatValue(val)),
				})
			}
		}
	}

	return errs
}

// MustBeValid returns a single error wrapping the first failure, for callers
// that do not need the per-field breakdown.
func (v Vector) MustBeValid() error {
	errs := v.Validate()
	if len(errs) == 0 {
		return nil
	}
	return errs
}
