package risk

import (
	"fmt"
	"math"

	"koafrail/domain/core"
)

// Attribution is one feature's signed contribution to a prediction.
// Positive values push the score above the baseline, negative below.
type Attribution struct {
	Key          string  `json:"key"`
	Label        string  `json:"label"`
	Value        float64 `json:"value"`
	Display      string  `json:"display"` // value as it should read in labels
	Contribution float64 `json:"contribution"`
}

// PlotLabel renders the attribution the way force plots caption it
func (a Attribution) PlotLabel() string {
	return fmt.Sprintf("%s = %s", a.Label, a.Display)
}

// Raises reports whether the attribution pushes risk upward
func (a Attribution) Raises() bool {
	return a.Contribution > 0
}

// Prediction is a scored assessment: the reported probability together with
// the additive decomposition that produced it. Baseline plus the sum of
// contributions equals RawScore; Probability is RawScore clamped into the
// model's output window.
type Prediction struct {
	Probability  float64        `json:"probability"`
	RawScore     float64        `json:"raw_score"`
	Baseline     float64        `json:"baseline"`
	Clamped      bool           `json:"clamped"`
	Attributions []Attribution  `json:"attributions"`
	ModelVersion string         `json:"model_version"`
	ModelHash    core.ModelHash `json:"model_hash"`
}

// Tier classifies the prediction into its risk band
func (p Prediction) Tier() Tier {
	return TierFor(p.Probability)
}

// ContributionSum adds up the per-feature contributions
func (p Prediction) ContributionSum() float64 {
	var sum float64
	for _, a := range p.Attributions {
		sum += a.Contribution
	}
	return sum
}

// Decomposes verifies the additive identity baseline + sum == raw score
// within the given tolerance.
func (p Prediction) Decomposes(tol float64) bool {
	return math.Abs(p.Baseline+p.ContributionSum()-p.RawScore) <= tol
}

// Rising returns the risk-increasing attributions, strongest first
func (p Prediction) Rising() []Attribution {
	return p.filterSorted(true)
}

// Falling returns the risk-reducing attributions, strongest first
func (p Prediction) Falling() []Attribution {
	return p.filterSorted(false)
}

// TopRising names the single strongest risk-raising factor, empty when none
func (p Prediction) TopRising() string {
	if rising := p.Rising(); len(rising) > 0 {
		return rising[0].Label
	}
	return ""
}

// TopFalling names the single strongest risk-lowering factor, empty when none
func (p Prediction) TopFalling() string {
	if falling := p.Falling(); len(falling) > 0 {
		return falling[0].Label
	}
	return ""
}

func (p Prediction) filterSorted(rising bool) []Attribution {
	var out []Attribution
	for _, a := range p.Attributions {
		if rising && a.Contribution > 0 {
			out = append(out, a)
		}
		if !rising && a.Contribution < 0 {
			out = append(out, a)
		}
	}
	// insertion sort by magnitude; the slice never exceeds the feature count
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && math.Abs(out[j].Contribution) > math.Abs(out[j-1].Contribution); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
