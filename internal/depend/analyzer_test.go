package depend

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkoval/credence/internal/model"
)

func instance(id, source string, year int, count int) model.EvidenceInstance {
	inst := model.EvidenceInstance{
		ID:        id,
		SourceID:  source,
		Timestamp: time.Date(year, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	if count > 0 {
		inst.Qualifiers.Quantitative = &model.Quantitative{Count: count}
	}
	return inst
}

func TestAnalyze_SingleInstanceFullyIndependent(t *testing.T) {
	a := NewAnalyzer(nil)

	g := a.Analyze([]model.EvidenceInstance{instance("a", "s1", 1870, 0)})

	assert.Empty(t, g.Edges)
	assert.InDelta(t, 1.0, g.OverallIndependence, 1e-9)
}

func TestAnalyze_SameSourceNearlyRedundant(t *testing.T) {
	a := NewAnalyzer(nil)

	g := a.Analyze([]model.EvidenceInstance{
		instance("a", "s1", 1870, 0),
		instance("b", "s1", 1871, 0),
	})

	require.Len(t, g.Edges, 1)
	assert.InDelta(t, strengthSameSource, g.Edges[0].Strength, 1e-9)
	assert.InDelta(t, 1-strengthSameSource, g.OverallIndependence, 1e-9)
}

func TestAnalyze_CountRestatement(t *testing.T) {
	a := NewAnalyzer(nil)

	g := a.Analyze([]model.EvidenceInstance{
		instance("a", "s1", 1870, 120),
		instance("b", "s2", 1890, 120),
	})

	require.Len(t, g.Edges, 1)
	assert.InDelta(t, strengthCountRestatement, g.Edges[0].Strength, 1e-9)
}

func TestAnalyze_CountContainment(t *testing.T) {
	a := NewAnalyzer(nil)

	g := a.Analyze([]model.EvidenceInstance{
		instance("a", "s1", 1870, 100),
		instance("b", "s2", 1890, 150),
	})

	require.Len(t, g.Edges, 1)
	assert.InDelta(t, strengthCountContainment, g.Edges[0].Strength, 1e-9)
}

func TestAnalyze_TemporalCascadeWindow(t *testing.T) {
	a := NewAnalyzer(nil)

	within := a.Analyze([]model.EvidenceInstance{
		instance("a", "s1", 1870, 0),
		instance("b", "s2", 1873, 0),
	})
	require.Len(t, within.Edges, 1)
	assert.InDelta(t, strengthTemporalCascade, within.Edges[0].Strength, 1e-9)

	beyond := a.Analyze([]model.EvidenceInstance{
		instance("a", "s1", 1870, 0),
		instance("b", "s2", 1890, 0),
	})
	require.Len(t, beyond.Edges, 1)
	assert.InDelta(t, strengthTemporalBase, beyond.Edges[0].Strength, 1e-9)
}

func TestAnalyze_IndependentOriginationEscapesCascade(t *testing.T) {
	a := NewAnalyzer(nil)

	earlier := instance("a", "s1", 1870, 0)
	later := instance("b", "s2", 1873, 0)
	later.Qualifiers.IndependentOrigination = true

	g := a.Analyze([]model.EvidenceInstance{earlier, later})

	// Within the cascade window, but independent origination drops the
	// presumption to the base temporal strength.
	require.Len(t, g.Edges, 1)
	assert.InDelta(t, strengthTemporalBase, g.Edges[0].Strength, 1e-9)
}

func TestAnalyze_FloorIsNonZero(t *testing.T) {
	a := NewAnalyzer(nil)

	// Same timestamp, disjoint sources, no counts: the small-field floor
	// still applies.
	g := a.Analyze([]model.EvidenceInstance{
		instance("a", "s1", 1870, 0),
		instance("b", "s2", 1870, 0),
	})

	require.Len(t, g.Edges, 1)
	assert.InDelta(t, strengthFloor, g.Edges[0].Strength, 1e-9)
	assert.Less(t, g.OverallIndependence, 1.0)
}

func TestAnalyze_EdgesPointBackward(t *testing.T) {
	a := NewAnalyzer(nil)

	evidence := []model.EvidenceInstance{
		instance("a", "s1", 1870, 0),
		instance("b", "s2", 1875, 0),
		instance("c", "s3", 1880, 0),
	}
	g := a.Analyze(evidence)

	// All pairs scored, every edge from a later instance to an earlier one
	require.Len(t, g.Edges, 3)
	position := map[string]int{"a": 0, "b": 1, "c": 2}
	for _, e := range g.Edges {
		assert.Greater(t, position[e.From], position[e.To])
	}
}

func TestAnalyze_StrongestHeuristicWins(t *testing.T) {
	a := NewAnalyzer(nil)

	// Count restatement (0.9) dominates the cascade signal (0.35)
	g := a.Analyze([]model.EvidenceInstance{
		instance("a", "s1", 1870, 80),
		instance("b", "s2", 1872, 80),
	})

	require.Len(t, g.Edges, 1)
	assert.InDelta(t, strengthCountRestatement, g.Edges[0].Strength, 1e-9)
}

func TestStrengthInto(t *testing.T) {
	g := model.DependencyGraph{Edges: []model.DependencyEdge{
		{From: "b", To: "a", Strength: 0.3},
		{From: "c", To: "a", Strength: 0.9},
		{From: "c", To: "b", Strength: 0.2},
	}}

	assert.InDelta(t, 0.3, g.StrengthInto("b"), 1e-9)
	assert.InDelta(t, 0.9, g.StrengthInto("c"), 1e-9)
	assert.Zero(t, g.StrengthInto("a"))
}
