package engine

import (
	"context"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/pkoval/credence/internal/model"
	"github.com/pkoval/credence/internal/reason"
)

// Dimension hints per domain. The reasoning provider may return a
// different set: dimensions are chosen per call, not fixed globally.
var domainDimensions = map[string][]string{
	"research":     {"methodological_quality", "relevance", "coherence", "adequacy"},
	"intelligence": {"credibility", "motive", "access"},
}

var defaultDimensions = []string{"relevance", "coherence", "support"}

// Contextual is the LLM-native confidence engine. It assesses a claim
// directly from evidence context and applies context-sensitive penalty
// multipliers for extraordinary or consensus-displacing claims.
type Contextual struct {
	client   *reason.Client
	discount float64
	logger   *zap.Logger
}

// NewContextual creates the contextual engine
func NewContextual(client *reason.Client, cfg model.EngineConfig, logger *zap.Logger) *Contextual {
	discount := cfg.ExtraordinaryDiscount
	if discount <= 0 || discount > 1 {
		discount = 0.7
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Contextual{
		client:   client,
		discount: discount,
		logger:   logger,
	}
}

// Assess produces a contextual confidence record for a claim. It never
// returns an error: when the underlying reasoning call fails after
// retries, the result is a clearly marked maximum-uncertainty fallback,
// not a numeric value indistinguishable from a real assessment.
func (e *Contextual) Assess(ctx context.Context, claim string, cluster *model.ClaimCluster, domain string) *model.ConfidenceRecord {
	req := reason.AssessRequest{
		Claim:          claim,
		Domain:         domain,
		DimensionHints: dimensionHints(domain),
	}
	for _, inst := range cluster.Evidence {
		req.EvidenceContext = append(req.EvidenceContext, inst.TextSpan)
	}

	resp, err := e.client.Assess(ctx, req)
	if err != nil {
		e.logger.Warn("contextual assessment degraded",
			zap.String("cluster", cluster.ID),
			zap.Error(err))
		return e.fallback(cluster)
	}

	point := resp.Score

	// Precautionary discounts: extraordinary claims and claims that
	// contradict strong existing consensus each shrink the estimate.
	extraordinary := resp.Extraordinary
	for _, inst := range cluster.Evidence {
		if inst.Qualifiers.Extraordinary {
			extraordinary = true
		}
	}
	if extraordinary {
		point *= e.discount
	}
	if resp.ContradictsConsensus {
		point *= e.discount
	}
	point = model.Clamp01(point)

	spread := dimensionSpread(resp.Dimensions)
	half := math.Max(0.05, spread/2)

	components := make(map[string]float64, len(resp.Dimensions))
	for name, score := range resp.Dimensions {
		components[name] = model.Clamp01(score)
	}

	return &model.ConfidenceRecord{
		PointEstimate: point,
		LowerBound:    model.Clamp01(point - half),
		UpperBound:    model.Clamp01(point + half),
		Method:        model.MethodContextual,
		Components:    components,
		Robustness:    model.Clamp01(1 - spread),
		Rationale:     resp.Rationale,
		ProducedAt:    time.Now().UTC(),
	}
}

// LowResolution produces the single aggregate contextual pass used by the
// multi-resolution validator: the raw point estimate without the
// structured dimension breakdown.
func LowResolution(rec *model.ConfidenceRecord) float64 {
	return rec.PointEstimate
}

// MediumResolution derives the structured-breakdown estimate: the mean of
// the per-dimension scores. Falls back to the point estimate when the
// provider returned no dimensions.
func MediumResolution(rec *model.ConfidenceRecord) float64 {
	if len(rec.Components) == 0 {
		return rec.PointEstimate
	}
	total := 0.0
	for _, score := range rec.Components {
		total += score
	}
	return total / float64(len(rec.Components))
}

// fallback is the degraded result for failed reasoning calls: maximal
// uncertainty, zero robustness, explicit degraded marker.
func (e *Contextual) fallback(cluster *model.ClaimCluster) *model.ConfidenceRecord {
	return &model.ConfidenceRecord{
		PointEstimate: 0.5,
		LowerBound:    0,
		UpperBound:    1,
		Method:        model.MethodDegradedContextual,
		Robustness:    0,
		Degraded:      true,
		Rationale:     "reasoning call failed; no contextual signal available",
		ProducedAt:    time.Now().UTC(),
	}
}

func dimensionHints(domain string) []string {
	if hints, ok := domainDimensions[domain]; ok {
		return hints
	}
	return defaultDimensions
}

// dimensionSpread measures disagreement across assessment dimensions
func dimensionSpread(dims map[string]float64) float64 {
	if len(dims) < 2 {
		return 0
	}
	scores := make([]float64, 0, len(dims))
	for _, s := range dims {
		scores = append(scores, s)
	}
	sort.Float64s(scores)
	return scores[len(scores)-1] - scores[0]
}
