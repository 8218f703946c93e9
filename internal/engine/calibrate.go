package engine

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/pkoval/credence/internal/model"
)

// CalibrationState is the cross-calibration state machine state
type CalibrationState string

const (
	StateInitial   CalibrationState = "initial"
	StateAdjusting CalibrationState = "adjusting"
	StateConverged CalibrationState = "converged"
	StateDiverged  CalibrationState = "diverged"
)

// divergentRatio is the relative gap between the initial engine estimates
// beyond which robustness is capped even when the iteration numerically
// converges: a 3x disagreement is methodologically informative and must
// not be hidden by the nudging.
const divergentRatio = 2.0 / 3.0

// Calibrator reconciles the contextual and formal estimates through
// genuinely bidirectional nudging: each iteration moves both values
// toward each other by the adjustment rate. Convergence and divergence
// are first-class, testable outcomes.
type Calibrator struct {
	rate      float64
	threshold float64
	maxIter   int
	logger    *zap.Logger
}

// NewCalibrator creates a calibrator from engine configuration
func NewCalibrator(cfg model.EngineConfig, logger *zap.Logger) *Calibrator {
	rate := cfg.AdjustmentRate
	if rate <= 0 || rate >= 0.5 {
		rate = 0.2
	}
	threshold := cfg.ConvergenceThreshold
	if threshold <= 0 {
		threshold = 0.05
	}
	maxIter := cfg.MaxIterations
	if maxIter <= 0 {
		maxIter = 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Calibrator{
		rate:      rate,
		threshold: threshold,
		maxIter:   maxIter,
		logger:    logger,
	}
}

// CalibrationResult records the protocol outcome
type CalibrationResult struct {
	State      CalibrationState
	Contextual float64 // final adjusted contextual value
	Formal     float64 // final adjusted formal value
	Iterations int
}

// Run executes the state machine on the two point estimates
func (c *Calibrator) Run(contextual, formal float64) CalibrationResult {
	result := CalibrationResult{
		State:      StateInitial,
		Contextual: contextual,
		Formal:     formal,
	}

	for result.Iterations < c.maxIter {
		if math.Abs(result.Contextual-result.Formal) <= c.threshold {
			result.State = StateConverged
			return result
		}
		result.State = StateAdjusting
		// Bidirectional nudge, not hierarchical override
		ctxNext := result.Contextual + c.rate*(result.Formal-result.Contextual)
		formNext := result.Formal + c.rate*(result.Contextual-result.Formal)
		result.Contextual = ctxNext
		result.Formal = formNext
		result.Iterations++
	}

	if math.Abs(result.Contextual-result.Formal) <= c.threshold {
		result.State = StateConverged
	} else {
		result.State = StateDiverged
	}
	return result
}

// Reconcile runs the protocol over two engine records and produces the
// final cross-calibrated confidence record. Both raw engine values are
// always retained in the component breakdown; divergence is flagged
// explicitly, never silently averaged away.
func (c *Calibrator) Reconcile(contextual, formal *model.ConfidenceRecord) *model.ConfidenceRecord {
	result := c.Run(contextual.PointEstimate, formal.PointEstimate)

	point := (result.Contextual + result.Formal) / 2

	components := make(map[string]float64, len(formal.Components)+2)
	for k, v := range formal.Components {
		components[k] = v
	}
	components[model.ComponentContextualRaw] = contextual.PointEstimate
	components[model.ComponentFormalRaw] = formal.PointEstimate

	rec := &model.ConfidenceRecord{
		PointEstimate: model.Clamp01(point),
		LowerBound:    math.Min(contextual.LowerBound, formal.LowerBound),
		UpperBound:    math.Max(contextual.UpperBound, formal.UpperBound),
		Method:        model.MethodCrossCalibrated,
		Components:    components,
		Robustness:    c.robustness(contextual, formal, result),
		Rationale:     contextual.Rationale,
		ProducedAt:    time.Now().UTC(),
	}
	if rec.LowerBound > rec.PointEstimate {
		rec.LowerBound = rec.PointEstimate
	}
	if rec.UpperBound < rec.PointEstimate {
		rec.UpperBound = rec.PointEstimate
	}

	if result.State == StateDiverged {
		rec.Method = model.MethodCalibrationDiverged
		rec.NeedsReview = true
		c.logger.Warn("cross-calibration diverged",
			zap.Float64("contextual", contextual.PointEstimate),
			zap.Float64("formal", formal.PointEstimate),
			zap.Int("iterations", result.Iterations))
	}

	return rec
}

// robustness scores the final record's stability. It decays with the
// initial relative disagreement between the engines and with iteration
// count; genuine methodological disagreement shows up here rather than
// being hidden.
func (c *Calibrator) robustness(contextual, formal *model.ConfidenceRecord, result CalibrationResult) float64 {
	base := math.Min(contextual.Robustness, formal.Robustness)

	maxEst := math.Max(contextual.PointEstimate, formal.PointEstimate)
	relGap := 0.0
	if maxEst > 0 {
		relGap = math.Abs(contextual.PointEstimate-formal.PointEstimate) / maxEst
	}

	iterPenalty := 0.2 * float64(result.Iterations) / float64(c.maxIter)
	robustness := model.Clamp01(base*(1-relGap) - iterPenalty)

	if result.State == StateDiverged {
		return math.Min(robustness, 0.2)
	}
	if relGap >= divergentRatio {
		// A >=3x disagreement stays visible even after numeric convergence
		return math.Min(robustness, 0.4)
	}
	return robustness
}
