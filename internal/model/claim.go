package model

import "time"

// ClaimCluster is the set of evidence instances believed to support one
// canonical factual triple. Evidence is ordered chronologically by source
// time. Confidence records are versioned and append-only: old versions are
// retained for audit, never deleted.
type ClaimCluster struct {
	ID        string     `json:"id"`                 // Cluster identifier (UUID)
	Subject   string     `json:"subject"`            // Canonical subject entity cluster ID
	Predicate string     `json:"predicate"`          // Canonical (most specific) predicate
	Object    string     `json:"object"`             // Canonical object entity cluster ID
	Temporal  *TimeRange `json:"temporal,omitempty"` // Optional temporal context

	Evidence []EvidenceInstance `json:"evidence"` // Chronological by Timestamp

	Dependencies DependencyGraph    `json:"dependencies"`         // Current dependency analysis
	Confidence   *ConfidenceRecord  `json:"confidence,omitempty"` // Current record
	History      []ConfidenceRecord `json:"history,omitempty"`    // Superseded records, oldest first
}

// TimeRange is an optional temporal context for a claim
type TimeRange struct {
	From time.Time `json:"from,omitempty"`
	To   time.Time `json:"to,omitempty"`
}

// AppendEvidence inserts an instance keeping chronological order
func (c *ClaimCluster) AppendEvidence(inst EvidenceInstance) {
	idx := len(c.Evidence)
	for i, e := range c.Evidence {
		if inst.Timestamp.Before(e.Timestamp) {
			idx = i
			break
		}
	}
	c.Evidence = append(c.Evidence, EvidenceInstance{})
	copy(c.Evidence[idx+1:], c.Evidence[idx:])
	c.Evidence[idx] = inst
}

// SetConfidence supersedes the current record, retaining it in history.
// Version numbers increase monotonically.
func (c *ClaimCluster) SetConfidence(rec ConfidenceRecord) {
	if c.Confidence != nil {
		rec.Version = c.Confidence.Version + 1
		c.History = append(c.History, *c.Confidence)
	} else {
		rec.Version = 1
	}
	c.Confidence = &rec
}

// DependencyGraph holds directed "likely derived from / correlated with"
// edges between evidence instances of one cluster. Temporal ordering keeps
// it acyclic: a later instance may depend on an earlier one, never the
// reverse.
type DependencyGraph struct {
	Edges []DependencyEdge `json:"edges,omitempty"`

	// OverallIndependence summarizes the cluster in [0,1]:
	// 1 = fully independent sources, 0 = fully redundant.
	OverallIndependence float64 `json:"overall_independence"`
}

// DependencyEdge says From likely derives from / correlates with To,
// where To precedes From chronologically.
type DependencyEdge struct {
	From     string  `json:"from"`     // Later instance ID
	To       string  `json:"to"`       // Earlier instance ID
	Strength float64 `json:"strength"` // 0 = independent, 1 = fully redundant
}

// StrengthInto returns the maximum dependency strength of incoming edges
// for the given instance (how redundant it is with earlier evidence).
func (g *DependencyGraph) StrengthInto(instanceID string) float64 {
	max := 0.0
	for _, e := range g.Edges {
		if e.From == instanceID && e.Strength > max {
			max = e.Strength
		}
	}
	return max
}
