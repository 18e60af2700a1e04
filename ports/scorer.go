package ports

import (
	"koafrail/domain/clinical"
	"koafrail/domain/core"
	"koafrail/domain/risk"
)

// Scorer turns a validated feature vector into a prediction with its
// additive decomposition. Implementations are pure computations over a
// loaded model artifact; they never touch storage.
type Scorer interface {
	// Score evaluates one patient. The vector must already be validated;
	// scorers still reject vectors that do not cover the model's schema.
	Score(vector clinical.Vector) (risk.Prediction, error)

	// Model describes the artifact backing this scorer
	Model() ModelCard
}

// ModelCard is the read-only description of a loaded model artifact,
// shown on the model page and returned by the API.
type ModelCard struct {
	Version  string         `json:"version"`
	Hash     core.ModelHash `json:"hash"`
	Baseline float64        `json:"baseline"`
	Floor    float64        `json:"floor"`
	Ceiling  float64        `json:"ceiling"`
	Terms    []risk.Term    `json:"terms"`
}
