package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	// Use UUID v7 for time-ordered, sortable IDs
	// Falls back to v4 if v7 is not available (for compatibility)
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	AssessmentID ID
	CohortID     ID
	FeatureKey   ID
)

// String conversions for domain IDs
func (id AssessmentID) String() string { return ID(id).String() }
func (id CohortID) String() string     { return ID(id).String() }
func (k FeatureKey) String() string    { return ID(k).String() }

// ParseAssessmentID parses a string into AssessmentID
func ParseAssessmentID(s string) (AssessmentID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("assessment ID cannot be empty")
	}
	return AssessmentID(s), nil
}

// ParseCohortID parses a string into CohortID
func ParseCohortID(s string) (CohortID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("cohort ID cannot be empty")
	}
	return CohortID(s), nil
}

// ParseFeatureKey parses a string into FeatureKey
func ParseFeatureKey(s string) (FeatureKey, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("feature key cannot be empty")
	}
	return FeatureKey(s), nil
}

// Source identifies which surface produced an assessment
type Source string

const (
	SourceUI    Source = "ui"
	SourceAPI   Source = "api"
	SourceBatch Source = "batch"
)

// Valid reports whether the source is one of the known surfaces
func (s Source) Valid() bool {
	switch s {
	case SourceUI, SourceAPI, SourceBatch:
		return true
	}
	return false
}
