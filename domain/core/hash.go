package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// Short returns the first 12 hex characters, enough to tell artifacts apart in logs
func (h Hash) Short() string {
	s := string(h)
	if len(s) > 12 {
		return s[:12]
	}
	return s
}

// Domain-specific hash types
type (
	ModelHash  Hash
	CohortHash Hash
)

// Constructors
func NewModelHash(data []byte) ModelHash   { return ModelHash(NewHash(data)) }
func NewCohortHash(data []byte) CohortHash { return CohortHash(NewHash(data)) }

// String conversions
func (h ModelHash) String() string  { return Hash(h).String() }
func (h ModelHash) Short() string   { return Hash(h).Short() }
func (h CohortHash) String() string { return Hash(h).String() }

// ComputeModelHash fingerprints a model artifact from its terms.
// Keys are sorted so the hash is independent of map iteration order.
func ComputeModelHash(baseline float64, terms map[string]interface{}) ModelHash {
	keys := make([]string, 0, len(terms))
	for k := range terms {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var data strings.Builder
	data.WriteString(fmt.Sprintf("baseline=%v;", baseline))
	for _, key := range keys {
		data.WriteString(key)
		data.WriteString(fmt.Sprintf("%v", terms[key]))
	}

	return NewModelHash([]byte(data.String()))
}

// ComputeCohortHash fingerprints a cohort from its row identifiers and source path
func ComputeCohortHash(rowIDs []string, source string) CohortHash {
	sorted := make([]string, len(rowIDs))
	copy(sorted, rowIDs)
	sort.Strings(sorted)

	var data strings.Builder
	data.WriteString(source)
	for _, id := range sorted {
		data.WriteString(id)
	}

	return NewCohortHash([]byte(data.String()))
}
