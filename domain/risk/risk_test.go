package risk

import (
	"errors"
	"math"
	"strings"
	"testing"

	"koafrail/domain/clinical"
	"koafrail/domain/core"
)

func validArtifact() Artifact {
	keys := clinical.Keys()
	terms := make([]Term, len(keys))
	for i, key := range keys {
		terms[i] = Term{Key: key, Weight: 0.01, Scale: 1}
	}
	return Artifact{Version: "test", Baseline: 0.35, Floor: 0.01, Ceiling: 0.99, Terms: terms}
}

func TestTermContribution(t *testing.T) {
	term := Term{Key: "age", Weight: 0.08, Scale: 71}
	got := term.Contribution(71)
	if math.Abs(got-0.08) > 1e-12 {
		t.Errorf("Expected 0.08 at value 71, got %g", got)
	}

	constant := Term{Key: "bl_hgb", Weight: 0, Scale: 1, Offset: -0.01}
	if got := constant.Contribution(200); got != -0.01 {
		t.Errorf("Constant term should ignore the value, got %g", got)
	}

	centered := Term{Key: "PA", Weight: 0.02, Center: 2, Scale: 1}
	if got := centered.Contribution(0); math.Abs(got-(-0.04)) > 1e-12 {
		t.Errorf("Expected -0.04 for PA=0, got %g", got)
	}
}

func TestArtifactValidate(t *testing.T) {
	if err := validArtifact().Validate(); err != nil {
		t.Fatalf("Valid artifact rejected: %v", err)
	}

	a := validArtifact()
	a.Terms = a.Terms[1:]
	if err := a.Validate(); !errors.Is(err, core.ErrSchemaMismatch) {
		t.Errorf("Missing term: expected schema mismatch, got %v", err)
	}

	a = validArtifact()
	a.Terms[3].Key = "grip_strength"
	if err := a.Validate(); !errors.Is(err, core.ErrSchemaMismatch) {
		t.Errorf("Stray term: expected schema mismatch, got %v", err)
	}

	a = validArtifact()
	a.Terms[0].Scale = 0
	if err := a.Validate(); !errors.Is(err, core.ErrZeroScale) {
		t.Errorf("Zero scale: expected ErrZeroScale, got %v", err)
	}

	a = validArtifact()
	a.Terms = append(a.Terms, Term{Key: clinical.KeyAge, Weight: 1, Scale: 1})
	if err := a.Validate(); !errors.Is(err, core.ErrSchemaMismatch) {
		t.Errorf("Duplicate term: expected schema mismatch, got %v", err)
	}

	a = validArtifact()
	a.Floor = 0.5
	a.Ceiling = 0.4
	if err := a.Validate(); !errors.Is(err, core.ErrBadArtifact) {
		t.Errorf("Inverted window: expected ErrBadArtifact, got %v", err)
	}
}

func TestArtifactHashTracksParameters(t *testing.T) {
	a := validArtifact()
	b := validArtifact()
	if a.Hash() != b.Hash() {
		t.Error("Identical artifacts should hash identically")
	}
	b.Terms[0].Weight = 0.5
	if a.Hash() == b.Hash() {
		t.Error("Weight change should change the hash")
	}
}

func TestTierBoundariesAreStrict(t *testing.T) {
	tests := []struct {
		probability float64
		want        Tier
	}{
		{0.71, TierHigh},
		{0.70, TierMedium},
		{0.31, TierMedium},
		{0.30, TierLow},
		{0.01, TierLow},
		{0.99, TierHigh},
	}
	for _, test := range tests {
		if got := TierFor(test.probability); got != test.want {
			t.Errorf("TierFor(%g): expected %s, got %s", test.probability, test.want, got)
		}
	}
}

func TestRecommendationsCarryFiveActions(t *testing.T) {
	for _, tier := range []Tier{TierHigh, TierMedium, TierLow} {
		rec := RecommendationFor(tier)
		if rec.Tier != tier {
			t.Errorf("Recommendation for %s tagged %s", tier, rec.Tier)
		}
		if rec.Headline == "" {
			t.Errorf("Recommendation for %s has no headline", tier)
		}
		bullets := strings.Count(rec.Markdown, "\n- ")
		if bullets != 5 {
			t.Errorf("Recommendation for %s: expected 5 bullets, got %d", tier, bullets)
		}
	}
}

func TestPredictionDecomposition(t *testing.T) {
	p := Prediction{
		Probability: 0.44,
		RawScore:    0.44,
		Baseline:    0.35,
		Attributions: []Attribution{
			{Key: "age", Label: "Age", Contribution: 0.06},
			{Key: "PA", Label: "PA", Contribution: -0.02},
			{Key: "smoke", Label: "Smoke", Contribution: 0.05},
		},
	}
	if !p.Decomposes(1e-9) {
		t.Errorf("Expected decomposition to hold: baseline %g + sum %g vs raw %g",
			p.Baseline, p.ContributionSum(), p.RawScore)
	}

	if top := p.TopRising(); top != "Age" {
		t.Errorf("Top rising: expected Age, got %s", top)
	}
	if top := p.TopFalling(); top != "PA" {
		t.Errorf("Top falling: expected PA, got %s", top)
	}

	rising := p.Rising()
	if len(rising) != 2 || rising[0].Key != "age" || rising[1].Key != "smoke" {
		t.Errorf("Rising order wrong: %v", rising)
	}
}

func TestPlotLabel(t *testing.T) {
	a := Attribution{Key: "fall", Label: "History of falls", Value: 1, Display: "1"}
	if got := a.PlotLabel(); got != "History of falls = 1" {
		t.Errorf("Expected 'History of falls = 1', got %q", got)
	}
}
