// Package depend estimates the statistical independence of evidence
// instances from their provenance.
package depend

import (
	"go.uber.org/zap"

	"github.com/pkoval/credence/internal/model"
)

// Dependency strength constants. Strengths combine by taking the maximum
// of the applicable heuristics; the floor reflects shared background
// context (small-field effects) and is deliberately non-zero.
const (
	strengthSameSource       = 0.95 // Two statements from the same document
	strengthCountRestatement = 0.9  // Identical reported counts
	strengthCountContainment = 0.7  // Later volume subsumes earlier counts
	strengthTemporalCascade  = 0.35 // Later source within the cascade window
	strengthTemporalBase     = 0.15 // Later source, outside the window
	strengthFloor            = 0.05 // Disjoint provenance, no temporal link
)

// cascadeWindowYears bounds heuristic (a): a source published within this
// many years after another is presumed possibly derivative.
const cascadeWindowYears = 7

// Analyzer builds dependency graphs over chronologically ordered evidence
type Analyzer struct {
	logger *zap.Logger
}

// NewAnalyzer creates a dependency analyzer
func NewAnalyzer(logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{logger: logger}
}

// Analyze builds the dependency graph for a cluster's evidence. Edges only
// point from later instances to earlier ones, so the graph is acyclic by
// construction. The returned graph includes the aggregate
// overall_independence score used downstream to discount effective
// evidence count.
func (a *Analyzer) Analyze(evidence []model.EvidenceInstance) model.DependencyGraph {
	g := model.DependencyGraph{OverallIndependence: 1.0}
	if len(evidence) < 2 {
		return g
	}

	for j := 1; j < len(evidence); j++ {
		later := evidence[j]
		for i := 0; i < j; i++ {
			earlier := evidence[i]
			strength := pairStrength(earlier, later)
			g.Edges = append(g.Edges, model.DependencyEdge{
				From:     later.ID,
				To:       earlier.ID,
				Strength: strength,
			})
		}
	}

	// Aggregate: each non-first instance is as redundant as its strongest
	// incoming edge; independence is the complement of the mean redundancy.
	total := 0.0
	for j := 1; j < len(evidence); j++ {
		total += g.StrengthInto(evidence[j].ID)
	}
	g.OverallIndependence = model.Clamp01(1.0 - total/float64(len(evidence)-1))

	a.logger.Debug("dependency analysis complete",
		zap.Int("instances", len(evidence)),
		zap.Int("edges", len(g.Edges)),
		zap.Float64("overall_independence", g.OverallIndependence))

	return g
}

// pairStrength scores how likely later derives from earlier. Heuristics
// apply in combination; the strongest signal wins.
func pairStrength(earlier, later model.EvidenceInstance) float64 {
	if earlier.SourceID == later.SourceID {
		return strengthSameSource
	}

	strength := strengthFloor

	// (b) citation/narrative containment: a later source whose reported
	// evidence volume includes counts attributable to the earlier one.
	eq := earlier.Qualifiers.Quantitative
	lq := later.Qualifiers.Quantitative
	if eq != nil && lq != nil && eq.Count > 0 {
		switch {
		case lq.Count == eq.Count:
			strength = strengthCountRestatement
		case lq.Count > eq.Count:
			strength = strengthCountContainment
		}
	}

	// (a) temporal cascade: later publication presumed possibly dependent
	// on earlier published sources, unless the later statement shows
	// evidence of independent origination.
	if later.Timestamp.After(earlier.Timestamp) {
		gapYears := later.Timestamp.Sub(earlier.Timestamp).Hours() / (24 * 365)
		cascade := strengthTemporalBase
		if gapYears <= cascadeWindowYears && !later.Qualifiers.IndependentOrigination {
			cascade = strengthTemporalCascade
		}
		if cascade > strength {
			strength = cascade
		}
	}

	return strength
}
