package core

import (
	"time"
)

// Timestamp represents a point in time with timezone awareness
type Timestamp time.Time

// NewTimestamp creates a new timestamp from time.Time
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp(t)
}

// Now returns the current timestamp
func Now() Timestamp {
	return Timestamp(time.Now())
}

// Time returns the underlying time.Time
func (t Timestamp) Time() time.Time {
	return time.Time(t)
}

// IsZero checks if the timestamp is zero
func (t Timestamp) IsZero() bool {
	return time.Time(t).IsZero()
}

// Before returns true if t is before u
func (t Timestamp) Before(u Timestamp) bool {
	return time.Time(t).Before(time.Time(u))
}

// After returns true if t is after u
func (t Timestamp) After(u Timestamp) bool {
	return time.Time(t).After(time.Time(u))
}

// Domain-specific time types
type (
	AssessedAt  Timestamp
	GeneratedAt Timestamp
)

// Constructors for domain time types
func NewAssessedAt(t time.Time) AssessedAt   { return AssessedAt(NewTimestamp(t)) }
func NewGeneratedAt(t time.Time) GeneratedAt { return GeneratedAt(NewTimestamp(t)) }

// Time conversions
func (t AssessedAt) Time() time.Time  { return Timestamp(t).Time() }
func (t GeneratedAt) Time() time.Time { return Timestamp(t).Time() }

// JSON marshaling for Timestamp
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return time.Time(t).MarshalJSON()
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var tm time.Time
	if err := tm.UnmarshalJSON(data); err != nil {
		return err
	}
	*t = Timestamp(tm)
	return nil
}

// String representations
func (t AssessedAt) String() string  { return t.Time().Format(time.RFC3339) }
func (t GeneratedAt) String() string { return t.Time().Format(time.RFC3339) }
