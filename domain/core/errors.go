package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound           = errors.New("resource not found")
	ErrAssessmentNotFound = fmt.Errorf("%w: assessment", ErrNotFound)
	ErrFeatureNotFound    = fmt.Errorf("%w: feature", ErrNotFound)

	// Input validation errors
	ErrUnknownFeature = errors.New("unknown feature")
	ErrMissingFeature = errors.New("missing required feature")
	ErrOutOfRange     = errors.New("value out of range")
	ErrBadLevel       = errors.New("value is not a defined level")
	ErrNotANumber     = errors.New("value is not numeric")

	// Model artifact errors
	ErrSchemaMismatch = errors.New("model schema does not match feature schema")
	ErrBadArtifact    = errors.New("model artifact invalid")
	ErrZeroScale      = errors.New("model term has zero scale")

	// Cohort errors
	ErrCohortEmpty   = errors.New("cohort contains no rows")
	ErrHeaderMissing = errors.New("cohort header row missing required column")
	ErrNoLabels      = errors.New("cohort has no outcome labels")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewMissingFeatureError(key string) error {
	return fmt.Errorf("%w: %s", ErrMissingFeature, key)
}

func NewRangeError(key string, value, min, max float64) error {
	return fmt.Errorf("%w: %s=%g outside [%g, %g]", ErrOutOfRange, key, value, min, max)
}

func NewLevelError(key string, value int) error {
	return fmt.Errorf("%w: %s=%d", ErrBadLevel, key, value)
}

func NewSchemaMismatchError(detail string) error {
	return fmt.Errorf("%w: %s", ErrSchemaMismatch, detail)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrUnknownFeature) ||
		errors.Is(err, ErrMissingFeature) ||
		errors.Is(err, ErrOutOfRange) ||
		errors.Is(err, ErrBadLevel) ||
		errors.Is(err, ErrNotANumber)
}

func IsArtifactError(err error) bool {
	return errors.Is(err, ErrSchemaMismatch) ||
		errors.Is(err, ErrBadArtifact) ||
		errors.Is(err, ErrZeroScale)
}

func IsCohortError(err error) bool {
	return errors.Is(err, ErrCohortEmpty) ||
		errors.Is(err, ErrHeaderMissing) ||
		errors.Is(err, ErrNoLabels)
}
