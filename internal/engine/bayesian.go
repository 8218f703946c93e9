// Package engine houses the two confidence engines, their
// cross-calibration protocol and the multi-resolution validator.
package engine

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/pkoval/credence/internal/model"
)

// boundZ is the half-width multiplier for posterior-variance intervals
// (one-sided 95%).
const boundZ = 1.645

// Belief is a Beta(alpha, beta) distribution over "claim is true"
type Belief struct {
	Alpha float64
	Beta  float64
}

// Mean returns the posterior mean alpha/(alpha+beta)
func (b Belief) Mean() float64 {
	return b.Alpha / (b.Alpha + b.Beta)
}

// Variance returns the Beta distribution variance
func (b Belief) Variance() float64 {
	s := b.Alpha + b.Beta
	return (b.Alpha * b.Beta) / (s * s * (s + 1))
}

// Bayesian maintains a Beta belief per cluster, updated by pseudo-counts
// scaled by extraction confidence, a fixed evidence-strength constant and
// a dependency discount. All arithmetic is deterministic and
// single-threaded per cluster.
type Bayesian struct {
	strength float64
	priors   []model.PopulationPrior
	logger   *zap.Logger
}

// NewBayesian creates the formal engine. priors seed per-domain/predicate
// base rates; they are passed explicitly so multiple domains can run
// concurrently without cross-contamination.
func NewBayesian(cfg model.EngineConfig, priors []model.PopulationPrior, logger *zap.Logger) *Bayesian {
	strength := cfg.EvidenceStrength
	if strength <= 0 {
		strength = 0.6
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bayesian{
		strength: strength,
		priors:   priors,
		logger:   logger,
	}
}

// Prior returns the initial belief for a domain/predicate pair: a
// method-of-moments fit to the population base rate when available,
// otherwise the weak uniform prior Beta(1,1).
func (e *Bayesian) Prior(domain, predicate string) Belief {
	for _, p := range e.priors {
		if p.Domain == domain && p.Predicate == predicate {
			if b, ok := fitBeta(p.BaseRate, p.Variance); ok {
				return b
			}
		}
	}
	return Belief{Alpha: 1, Beta: 1}
}

// fitBeta fits Beta parameters to a mean and variance by the method of
// moments. It fails when the moments are infeasible for a Beta
// distribution (variance must be positive and below m(1-m)).
func fitBeta(mean, variance float64) (Belief, bool) {
	if mean <= 0 || mean >= 1 || variance <= 0 {
		return Belief{}, false
	}
	limit := mean * (1 - mean)
	if variance >= limit {
		return Belief{}, false
	}
	common := limit/variance - 1
	return Belief{Alpha: mean * common, Beta: (1 - mean) * common}, true
}

// Aggregate runs the full Bayesian aggregation over a cluster's evidence
// with dependency discounting, returning a confidence record tagged
// bayesian_with_dependencies.
func (e *Bayesian) Aggregate(cluster *model.ClaimCluster, domain string) *model.ConfidenceRecord {
	belief := e.Prior(domain, cluster.Predicate)
	belief = e.update(belief, cluster, e.strength)

	// Robustness: stability under +-20% perturbation of the
	// evidence-strength constant.
	low := e.update(e.Prior(domain, cluster.Predicate), cluster, e.strength*0.8)
	high := e.update(e.Prior(domain, cluster.Predicate), cluster, e.strength*1.2)
	spread := math.Abs(high.Mean() - low.Mean())
	robustness := model.Clamp01(1 - 5*spread)

	mean := belief.Mean()
	sd := math.Sqrt(belief.Variance())

	prior := e.Prior(domain, cluster.Predicate)
	rec := &model.ConfidenceRecord{
		PointEstimate: mean,
		LowerBound:    model.Clamp01(mean - boundZ*sd),
		UpperBound:    model.Clamp01(mean + boundZ*sd),
		Method:        model.MethodBayesian,
		Components: map[string]float64{
			model.ComponentExtraction:  extractionUncertainty(cluster.Evidence),
			model.ComponentAggregation: sd,
			model.ComponentTheoryFit:   math.Abs(mean - prior.Mean()),
			model.ComponentTemporal:    temporalUncertainty(cluster.Evidence),
		},
		Robustness: robustness,
		ProducedAt: time.Now().UTC(),
	}
	return rec
}

// update applies every evidence instance as a pseudo-count update.
// Supporting evidence raises alpha, contradicting evidence raises beta.
// An update that would leave the belief non-positive or non-finite is
// rejected and logged; processing continues with prior state.
func (e *Bayesian) update(belief Belief, cluster *model.ClaimCluster, strength float64) Belief {
	n := len(cluster.Evidence)
	if n == 0 {
		return belief
	}

	// Effective-sample-size reduction: dependent evidence contributes a
	// fraction of a full independent update.
	effN := 1 + float64(n-1)*cluster.Dependencies.OverallIndependence
	scale := effN / float64(n)

	for _, inst := range cluster.Evidence {
		w := inst.ExtractionConfidence * strength * inst.Qualifiers.Authority.StrengthMultiplier() * scale

		next := belief
		if inst.Qualifiers.Contradicting {
			next.Beta += w
		} else {
			next.Alpha += w
		}

		if w <= 0 || math.IsNaN(w) || math.IsInf(w, 0) || next.Alpha <= 0 || next.Beta <= 0 {
			err := &model.InvariantViolationError{
				Invariant: "beta_params_positive",
				Detail:    "rejecting evidence update",
			}
			e.logger.Warn("skipping evidence instance",
				zap.String("cluster", cluster.ID),
				zap.String("instance", inst.ID),
				zap.Float64("weight", w),
				zap.Error(err))
			continue
		}
		belief = next
	}
	return belief
}

// extractionUncertainty is the mean extraction error across instances
func extractionUncertainty(evidence []model.EvidenceInstance) float64 {
	if len(evidence) == 0 {
		return 1
	}
	total := 0.0
	for _, inst := range evidence {
		total += 1 - model.Clamp01(inst.ExtractionConfidence)
	}
	return total / float64(len(evidence))
}

// temporalUncertainty grows with the evidence time span: widely separated
// sources leave more room for the claim's context to have shifted.
func temporalUncertainty(evidence []model.EvidenceInstance) float64 {
	if len(evidence) < 2 {
		return 0
	}
	span := evidence[len(evidence)-1].Timestamp.Sub(evidence[0].Timestamp)
	years := span.Hours() / (24 * 365)
	if years < 0 {
		years = 0
	}
	return years / (years + 20)
}
