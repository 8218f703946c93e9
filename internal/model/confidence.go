package model

import "time"

// Method tags identify which engine or protocol produced a record
const (
	MethodContextual           = "contextual"
	MethodBayesian             = "bayesian_with_dependencies"
	MethodCrossCalibrated      = "cross_calibrated"
	MethodCalibrationDiverged  = "calibration_diverged"
	MethodDegradedContextual   = "degraded_contextual"
	MethodDegradedBayesian     = "degraded_bayesian"
	MethodInsufficientEvidence = "insufficient_evidence"
)

// Well-known component breakdown keys
const (
	ComponentExtraction    = "extraction"
	ComponentAggregation   = "aggregation"
	ComponentTheoryFit     = "theory_fit"
	ComponentTemporal      = "temporal"
	ComponentContextualRaw = "contextual_raw"
	ComponentFormalRaw     = "formal_raw"
	ComponentResolutionSpread = "resolution_spread"
)

// ConfidenceRecord is the structured confidence annotation attached to a
// claim. All values lie in [0,1] and LowerBound <= PointEstimate <= UpperBound.
type ConfidenceRecord struct {
	PointEstimate float64            `json:"point_estimate"`
	LowerBound    float64            `json:"lower_bound"`
	UpperBound    float64            `json:"upper_bound"`
	Method        string             `json:"method"`               // Which engine/protocol produced it
	Components    map[string]float64 `json:"components,omitempty"` // Named uncertainty source -> magnitude
	Robustness    float64            `json:"robustness"`           // Stability under perturbation (0-1)
	Version       int                `json:"version"`
	Degraded      bool               `json:"degraded,omitempty"`   // Fallback path, not full dual-engine consensus
	NeedsReview   bool               `json:"needs_review,omitempty"` // Flagged by multi-resolution validation
	Rationale     string             `json:"rationale,omitempty"`  // Engine-provided reasoning, if any
	ProducedAt    time.Time          `json:"produced_at"`
}

// Bounded reports whether the record satisfies the ordering invariant
// 0 <= lower <= point <= upper <= 1.
func (r *ConfidenceRecord) Bounded() bool {
	return r.LowerBound >= 0 &&
		r.LowerBound <= r.PointEstimate &&
		r.PointEstimate <= r.UpperBound &&
		r.UpperBound <= 1
}

// Clamp01 clamps v into [0,1]
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
