package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkoval/credence/internal/model"
	"github.com/pkoval/credence/internal/reason"
)

func scriptedClient(provider *reason.ScriptedProvider) *reason.Client {
	return reason.NewClient(provider, nil, nil, 1, nil)
}

func TestAssess_StructuredAssessment(t *testing.T) {
	provider := reason.NewScriptedProvider()
	provider.AssessResponse = &reason.AssessResponse{
		Score:     0.8,
		Rationale: "consistent firsthand accounts",
		Dimensions: map[string]float64{
			"methodological_quality": 0.8,
			"relevance":              0.9,
			"coherence":              0.7,
		},
	}
	e := NewContextual(scriptedClient(provider), defaultEngineConfig(), nil)

	cluster := clusterWith(1.0, supportingInstance("a", 0.9, 1870))
	rec := e.Assess(context.Background(), "ent-a influenced_by ent-b", cluster, "research")

	assert.Equal(t, model.MethodContextual, rec.Method)
	assert.InDelta(t, 0.8, rec.PointEstimate, 1e-9)
	assert.Equal(t, "consistent firsthand accounts", rec.Rationale)
	assert.True(t, rec.Bounded())
	assert.False(t, rec.Degraded)

	// Dimension spread (0.9 - 0.7) shapes both bounds and robustness
	assert.InDelta(t, 0.8, rec.Robustness, 1e-9)
	assert.InDelta(t, 0.7, rec.LowerBound, 1e-9)
	assert.InDelta(t, 0.9, rec.UpperBound, 1e-9)
}

func TestAssess_DomainDimensionHints(t *testing.T) {
	provider := reason.NewScriptedProvider()
	e := NewContextual(scriptedClient(provider), defaultEngineConfig(), nil)

	cluster := clusterWith(1.0, supportingInstance("a", 0.9, 1870))
	e.Assess(context.Background(), "claim", cluster, "intelligence")

	require.Len(t, provider.AssessCalls, 1)
	assert.Equal(t, []string{"credibility", "motive", "access"}, provider.AssessCalls[0].DimensionHints)

	e.Assess(context.Background(), "claim", cluster, "unmapped-domain")
	require.Len(t, provider.AssessCalls, 2)
	assert.Equal(t, defaultDimensions, provider.AssessCalls[1].DimensionHints)
}

func TestAssess_ExtraordinaryClaimDiscounted(t *testing.T) {
	provider := reason.NewScriptedProvider()
	provider.AssessResponse = &reason.AssessResponse{Score: 0.8, Extraordinary: true}
	e := NewContextual(scriptedClient(provider), defaultEngineConfig(), nil)

	cluster := clusterWith(1.0, supportingInstance("a", 0.9, 1870))
	rec := e.Assess(context.Background(), "claim", cluster, "research")

	assert.InDelta(t, 0.8*0.7, rec.PointEstimate, 1e-9)
}

func TestAssess_ExtraordinaryQualifierDiscounted(t *testing.T) {
	provider := reason.NewScriptedProvider()
	provider.AssessResponse = &reason.AssessResponse{Score: 0.8}
	e := NewContextual(scriptedClient(provider), defaultEngineConfig(), nil)

	inst := supportingInstance("a", 0.9, 1870)
	inst.Qualifiers.Extraordinary = true
	rec := e.Assess(context.Background(), "claim", clusterWith(1.0, inst), "research")

	assert.InDelta(t, 0.8*0.7, rec.PointEstimate, 1e-9)
}

func TestAssess_ConsensusContradictionCompounds(t *testing.T) {
	provider := reason.NewScriptedProvider()
	provider.AssessResponse = &reason.AssessResponse{
		Score:                0.8,
		Extraordinary:        true,
		ContradictsConsensus: true,
	}
	e := NewContextual(scriptedClient(provider), defaultEngineConfig(), nil)

	cluster := clusterWith(1.0, supportingInstance("a", 0.9, 1870))
	rec := e.Assess(context.Background(), "claim", cluster, "research")

	assert.InDelta(t, 0.8*0.7*0.7, rec.PointEstimate, 1e-9)
}

func TestAssess_FailedCallDegradesExplicitly(t *testing.T) {
	provider := reason.NewScriptedProvider()
	provider.AssessError = errors.New("upstream unavailable")
	e := NewContextual(scriptedClient(provider), defaultEngineConfig(), nil)

	cluster := clusterWith(1.0, supportingInstance("a", 0.9, 1870))
	rec := e.Assess(context.Background(), "claim", cluster, "research")

	// A failed reasoning call must be distinguishable from a real
	// assessment: maximal uncertainty, zero robustness, degraded marker.
	assert.Equal(t, model.MethodDegradedContextual, rec.Method)
	assert.True(t, rec.Degraded)
	assert.InDelta(t, 0.5, rec.PointEstimate, 1e-9)
	assert.Zero(t, rec.LowerBound)
	assert.InDelta(t, 1.0, rec.UpperBound, 1e-9)
	assert.Zero(t, rec.Robustness)
}

func TestAssess_EvidenceContextForwarded(t *testing.T) {
	provider := reason.NewScriptedProvider()
	e := NewContextual(scriptedClient(provider), defaultEngineConfig(), nil)

	first := supportingInstance("a", 0.9, 1870)
	first.TextSpan = "Smith attended the 1870 lectures"
	second := supportingInstance("b", 0.8, 1875)
	second.TextSpan = "Smith's 1875 paper extends the framework"

	e.Assess(context.Background(), "claim", clusterWith(1.0, first, second), "research")

	require.Len(t, provider.AssessCalls, 1)
	assert.Equal(t,
		[]string{"Smith attended the 1870 lectures", "Smith's 1875 paper extends the framework"},
		provider.AssessCalls[0].EvidenceContext)
}

func TestMediumResolution(t *testing.T) {
	rec := &model.ConfidenceRecord{
		PointEstimate: 0.8,
		Components:    map[string]float64{"relevance": 0.6, "coherence": 0.8},
	}
	assert.InDelta(t, 0.7, MediumResolution(rec), 1e-9)

	bare := &model.ConfidenceRecord{PointEstimate: 0.8}
	assert.InDelta(t, 0.8, MediumResolution(bare), 1e-9)
}

func TestDimensionSpread(t *testing.T) {
	assert.Zero(t, dimensionSpread(nil))
	assert.Zero(t, dimensionSpread(map[string]float64{"only": 0.5}))
	assert.InDelta(t, 0.4, dimensionSpread(map[string]float64{"a": 0.3, "b": 0.7, "c": 0.5}), 1e-9)
}
