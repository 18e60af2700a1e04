package risk

import (
	"fmt"

	"koafrail/domain/clinical"
	"koafrail/domain/core"
)

// Term is one feature's linear attribution term. A feature's contribution to
// the score is Weight*(value-Center)/Scale + Offset, so a constant effect is
// expressed as a zero-weight term with a non-zero offset.
type Term struct {
	Key    string  `json:"key"`
	Weight float64 `json:"weight"`
	Center float64 `json:"center"`
	Scale  float64 `json:"scale"`
	Offset float64 `json:"offset"`
}

// Contribution evaluates the term for one feature value
func (t Term) Contribution(value float64) float64 {
	return t.Weight*(value-t.Center)/t.Scale + t.Offset
}

// Artifact is a serialized risk model: a baseline probability plus one
// additive term per clinical feature. Terms are ordered; that order is the
// display order of attributions everywhere downstream.
type Artifact struct {
	Version  string  `json:"version"`
	Baseline float64 `json:"baseline"`
	Floor    float64 `json:"floor"`
	Ceiling  float64 `json:"ceiling"`
	Terms    []Term  `json:"terms"`
}

// Validate checks the artifact against the clinical schema: exactly one term
// per feature, no strays, usable scales and a sane output window.
func (a Artifact) Validate() error {
	if a.Baseline <= 0 || a.Baseline >= 1 {
		return fmt.Errorf("%w: baseline %g outside (0, 1)", core.ErrBadArtifact, a.Baseline)
	}
	if a.Floor >= a.Ceiling {
		return fmt.Errorf("%w: floor %g not below ceiling %g", core.ErrBadArtifact, a.Floor, a.Ceiling)
	}
	if a.Floor < 0 || a.Ceiling > 1 {
		return fmt.Errorf("%w: output window [%g, %g] outside [0, 1]", core.ErrBadArtifact, a.Floor, a.Ceiling)
	}

	seen := make(map[string]bool, len(a.Terms))
	for _, term := range a.Terms {
		if _, ok := clinical.ByKey(term.Key); !ok {
			return core.NewSchemaMismatchError(fmt.Sprintf("term %q is not a clinical feature", term.Key))
		}
		if seen[term.Key] {
			return core.NewSchemaMismatchError(fmt.Sprintf("duplicate term %q", term.Key))
		}
		seen[term.Key] = true
		if term.Scale == 0 {
			return fmt.Errorf("%w: term %q", core.ErrZeroScale, term.Key)
		}
	}
	for _, key := range clinical.Keys() {
		if !seen[key] {
			return core.NewSchemaMismatchError(fmt.Sprintf("no term for feature %q", key))
		}
	}
	return nil
}

// TermFor returns the term covering the given feature key
func (a Artifact) TermFor(key string) (Term, bool) {
	for _, t := range a.Terms {
		if t.Key == key {
			return t, true
		}
	}
	return Term{}, false
}

// Hash fingerprints the artifact's parameters
func (a Artifact) Hash() core.ModelHash {
	terms := make(map[string]interface{}, len(a.Terms))
	for _, t := range a.Terms {
		terms[t.Key] = fmt.Sprintf("%g|%g|%g|%g", t.Weight, t.Center, t.Scale, t.Offset)
	}
	return core.ComputeModelHash(a.Baseline, terms)
}
