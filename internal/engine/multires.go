package engine

import (
	"math"

	"go.uber.org/zap"

	"github.com/pkoval/credence/internal/model"
)

// ResolutionCheck is the result of multi-resolution validation: the
// confidence re-derived at three levels of analytic detail and whether
// they agree within tolerance.
type ResolutionCheck struct {
	Low    float64 `json:"low"`    // Single aggregate contextual pass
	Medium float64 `json:"medium"` // Structured dimension breakdown
	High   float64 `json:"high"`   // Full Bayesian aggregation with dependency discounting

	Spread     float64 `json:"spread"`
	Consistent bool    `json:"consistent"`
}

// MultiResolution cross-checks confidence at low, medium and high
// resolution. It is a consistency check, not an estimation method: it
// never overrides the calibrated output, only annotates its
// trustworthiness.
type MultiResolution struct {
	tolerance float64
	logger    *zap.Logger
}

// NewMultiResolution creates the validator
func NewMultiResolution(cfg model.EngineConfig, logger *zap.Logger) *MultiResolution {
	tolerance := cfg.ResolutionTolerance
	if tolerance <= 0 {
		tolerance = 0.25
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MultiResolution{
		tolerance: tolerance,
		logger:    logger,
	}
}

// Check derives the three resolution estimates from the engines' records
// already in hand (no new reasoning calls) and compares them.
func (v *MultiResolution) Check(contextual, formal *model.ConfidenceRecord) ResolutionCheck {
	check := ResolutionCheck{
		Low:    LowResolution(contextual),
		Medium: MediumResolution(contextual),
		High:   formal.PointEstimate,
	}
	check.Spread = spread3(check.Low, check.Medium, check.High)
	check.Consistent = check.Spread <= v.tolerance
	return check
}

// Annotate records the cross-level result on the final record. An
// inconsistent cluster is flagged for review; the point estimate is left
// untouched.
func (v *MultiResolution) Annotate(rec *model.ConfidenceRecord, check ResolutionCheck) {
	if rec.Components == nil {
		rec.Components = make(map[string]float64)
	}
	rec.Components[model.ComponentResolutionSpread] = check.Spread

	if !check.Consistent {
		rec.NeedsReview = true
		v.logger.Warn("multi-resolution disagreement exceeds tolerance",
			zap.Float64("low", check.Low),
			zap.Float64("medium", check.Medium),
			zap.Float64("high", check.High),
			zap.Float64("spread", check.Spread),
			zap.Float64("tolerance", v.tolerance))
	}
}

func spread3(a, b, c float64) float64 {
	min := math.Min(a, math.Min(b, c))
	max := math.Max(a, math.Max(b, c))
	return max - min
}
