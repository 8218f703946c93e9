// Package resolve clusters surface-form mentions into canonical entities.
package resolve

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pkoval/credence/internal/model"
)

// Mention is a surface-form entity reference with optional contextual text
type Mention struct {
	Text    string
	Context string
}

// Resolver clusters mentions by normalized-name similarity combined with
// contextual plausibility. Under-resolution is preferred to silent
// mis-merging: ambiguous mentions become singleton clusters flagged for
// human disambiguation.
type Resolver struct {
	threshold float64
	logger    *zap.Logger

	clusters []*model.EntityCluster
	// normalized variants per cluster index, kept in step with clusters
	variants [][][]string
	contexts []string
}

// NewResolver creates a resolver with the configured merge threshold
func NewResolver(cfg model.ResolverConfig, logger *zap.Logger) *Resolver {
	threshold := cfg.SimilarityThreshold
	if threshold <= 0 || threshold > 1 {
		threshold = 0.82
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		threshold: threshold,
		logger:    logger,
	}
}

// Resolve assigns each mention to an entity cluster, creating clusters as
// needed. It returns the clusters and a mention-text -> cluster-ID map.
// Clusters are append-only across calls: variants accumulate, none are
// removed.
func (r *Resolver) Resolve(mentions []Mention) ([]model.EntityCluster, map[string]string) {
	assignment := make(map[string]string, len(mentions))

	for _, m := range mentions {
		norm := normalizeName(m.Text)
		if len(norm) == 0 {
			continue
		}

		idx, sim, ambiguous := r.bestCluster(norm, m.Context)
		if idx >= 0 && !ambiguous {
			c := r.clusters[idx]
			c.AddVariant(m.Text)
			r.variants[idx] = append(r.variants[idx], norm)
			if m.Context != "" {
				r.contexts[idx] += " " + m.Context
			}
			// Resolution confidence tracks the weakest merge decision
			if sim < c.Confidence {
				c.Confidence = sim
			}
			assignment[m.Text] = c.ID
			continue
		}

		c := &model.EntityCluster{
			ID:         uuid.NewString(),
			Canonical:  m.Text,
			Variants:   []string{m.Text},
			Confidence: 1.0,
		}
		if ambiguous {
			// Shared surname with conflicting given names and no
			// corroborating context: emit a singleton and mark both
			// sides for human disambiguation.
			c.NeedsReview = true
			r.clusters[idx].NeedsReview = true
			r.logger.Info("ambiguous mention kept as singleton",
				zap.String("mention", m.Text),
				zap.String("conflicts_with", r.clusters[idx].Canonical))
		}
		r.clusters = append(r.clusters, c)
		r.variants = append(r.variants, [][]string{norm})
		r.contexts = append(r.contexts, m.Context)
		assignment[m.Text] = c.ID
	}

	out := make([]model.EntityCluster, len(r.clusters))
	for i, c := range r.clusters {
		out[i] = *c
	}
	return out, assignment
}

// bestCluster finds the most similar existing cluster. It returns the
// cluster index (-1 if no candidate), the similarity, and whether the best
// candidate is an ambiguous same-surname match that must not merge.
func (r *Resolver) bestCluster(norm []string, context string) (int, float64, bool) {
	bestIdx := -1
	bestSim := 0.0
	for i, vars := range r.variants {
		for _, v := range vars {
			if sim := nameSimilarity(norm, v); sim > bestSim {
				bestSim = sim
				bestIdx = i
			}
		}
	}
	if bestIdx < 0 {
		return -1, 0, false
	}

	corroboration := contextOverlap(context, r.contexts[bestIdx])

	// Same surname but conflicting given names never merges on string
	// similarity alone; it needs corroborating context.
	if r.surnameConflict(norm, bestIdx) {
		if corroboration > 0 {
			return bestIdx, bestSim, false
		}
		return bestIdx, bestSim, true
	}

	// Adaptive threshold: corroborating context lowers the bar,
	// contradicting context (both sides have context, zero overlap)
	// raises it.
	threshold := r.threshold
	if corroboration > 0 {
		threshold -= 0.1 * corroboration
	} else if context != "" && r.contexts[bestIdx] != "" {
		threshold += 0.1
	}

	if bestSim >= threshold {
		return bestIdx, bestSim, false
	}
	return -1, 0, false
}

// surnameConflict reports whether norm shares a surname with any variant
// of the cluster while having an incompatible given name.
func (r *Resolver) surnameConflict(norm []string, idx int) bool {
	if len(norm) < 2 {
		return false
	}
	for _, v := range r.variants[idx] {
		if len(v) < 2 || surname(v) != surname(norm) {
			continue
		}
		given := norm[:len(norm)-1]
		other := v[:len(v)-1]
		if !givenCompatible(given, other) {
			return true
		}
	}
	return false
}

// givenCompatible reports whether two given-name token lists could refer
// to the same person (all aligned tokens match, initials expand).
func givenCompatible(a, b []string) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if !tokensMatch(a[i], b[i]) {
			return false
		}
	}
	return true
}
