package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pkoval/credence/internal/model"
)

func TestCheck_ConsistentAcrossResolutions(t *testing.T) {
	v := NewMultiResolution(defaultEngineConfig(), nil)

	contextual := &model.ConfidenceRecord{
		PointEstimate: 0.72,
		Components:    map[string]float64{"relevance": 0.70, "coherence": 0.74},
	}
	formal := &model.ConfidenceRecord{PointEstimate: 0.68}

	check := v.Check(contextual, formal)

	assert.InDelta(t, 0.72, check.Low, 1e-9)
	assert.InDelta(t, 0.72, check.Medium, 1e-9)
	assert.InDelta(t, 0.68, check.High, 1e-9)
	assert.InDelta(t, 0.04, check.Spread, 1e-9)
	assert.True(t, check.Consistent)
}

func TestCheck_InconsistentBeyondTolerance(t *testing.T) {
	v := NewMultiResolution(defaultEngineConfig(), nil)

	contextual := &model.ConfidenceRecord{
		PointEstimate: 0.85,
		Components:    map[string]float64{"relevance": 0.80, "coherence": 0.90},
	}
	formal := &model.ConfidenceRecord{PointEstimate: 0.40}

	check := v.Check(contextual, formal)

	assert.InDelta(t, 0.45, check.Spread, 1e-9)
	assert.False(t, check.Consistent)
}

func TestAnnotate_FlagsWithoutOverriding(t *testing.T) {
	v := NewMultiResolution(defaultEngineConfig(), nil)

	rec := &model.ConfidenceRecord{PointEstimate: 0.62}
	check := ResolutionCheck{Low: 0.85, Medium: 0.85, High: 0.40, Spread: 0.45, Consistent: false}

	v.Annotate(rec, check)

	// The validator annotates trustworthiness; it never changes the estimate
	assert.InDelta(t, 0.62, rec.PointEstimate, 1e-9)
	assert.True(t, rec.NeedsReview)
	assert.InDelta(t, 0.45, rec.Components[model.ComponentResolutionSpread], 1e-9)
}

func TestAnnotate_ConsistentLeavesReviewUnset(t *testing.T) {
	v := NewMultiResolution(defaultEngineConfig(), nil)

	rec := &model.ConfidenceRecord{PointEstimate: 0.7}
	v.Annotate(rec, ResolutionCheck{Low: 0.7, Medium: 0.71, High: 0.69, Spread: 0.02, Consistent: true})

	assert.False(t, rec.NeedsReview)
	assert.Contains(t, rec.Components, model.ComponentResolutionSpread)
}
