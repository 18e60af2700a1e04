package model

import (
	"fmt"
	"math"

	"koafrail/domain/clinical"
	"koafrail/domain/core"
	"koafrail/domain/risk"
	"koafrail/ports"
)

// LinearScorer applies an additive model artifact to feature vectors.
// It is stateless after construction and safe for concurrent use.
type LinearScorer struct {
	artifact risk.Artifact
	hash     core.ModelHash
}

// NewLinearScorer validates the artifact and builds a scorer over it
func NewLinearScorer(artifact risk.Artifact) (*LinearScorer, error) {
	if err := artifact.Validate(); err != nil {
		return nil, err
	}
	return &LinearScorer{
		artifact: artifact,
		hash:     artifact.Hash(),
	}, nil
}

// Score evaluates one patient. Attributions come back in the artifact's term
// order; baseline plus their sum is the raw score, clamped into the model's
// output window for the reported probability.
func (s *LinearScorer) Score(vector clinical.Vector) (risk.Prediction, error) {
	if len(vector) != len(s.artifact.Terms) {
		return risk.Prediction{}, core.NewSchemaMismatchError(
			fmt.Sprintf("vector has %d features, model expects %d", len(vector), len(s.artifact.Terms)))
	}

	attributions := make([]risk.Attribution, 0, len(s.artifact.Terms))
	var sum float64
	for _, term := range s.artifact.Terms {
		value, ok := vector[term.Key]
		if !ok {
			return risk.Prediction{}, core.NewMissingFeatureError(term.Key)
		}
		feature, ok := clinical.ByKey(term.Key)
		if !ok {
			return risk.Prediction{}, fmt.Errorf("%w: %s", core.ErrUnknownFeature, term.Key)
		}

		contribution := term.Contribution(value)
		sum += contribution
		attributions = append(attributions, risk.Attribution{
			Key:          term.Key,
			Label:        feature.Label,
			Value:        value,
			Display:      feature.FormatValue(value),
			Contribution: contribution,
		})
	}

	raw := s.artifact.Baseline + sum
	probability := math.Min(s.artifact.Ceiling, math.Max(s.artifact.Floor, raw))

	return risk.Prediction{
		Probability:  probability,
		RawScore:     raw,
		Baseline:     s.artifact.Baseline,
		Clamped:      probability != raw,
		Attributions: attributions,
		ModelVersion: s.artifact.Version,
		ModelHash:    s.hash,
	}, nil
}

// Model describes the artifact backing this scorer
func (s *LinearScorer) Model() ports.ModelCard {
	terms := make([]risk.Term, len(s.artifact.Terms))
	copy(terms, s.artifact.Terms)
	return ports.ModelCard{
		Version:  s.artifact.Version,
		Hash:     s.hash,
		Baseline: s.artifact.Baseline,
		Floor:    s.artifact.Floor,
		Ceiling:  s.artifact.Ceiling,
		Terms:    terms,
	}
}
