package graph

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pkoval/credence/internal/model"
)

// Emitter writes finished claims to the graph store with their confidence
// record and a natural-language explanation
type Emitter struct {
	store  Store
	logger *zap.Logger
}

// NewEmitter creates an emitter writing to the given store
func NewEmitter(store Store, logger *zap.Logger) *Emitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Emitter{store: store, logger: logger}
}

// Emit writes the cluster's current confidence record as a graph edge.
// subjectName and objectName are the canonical entity names for display.
func (e *Emitter) Emit(ctx context.Context, cluster *model.ClaimCluster, subjectName, objectName string) (Edge, error) {
	if cluster.Confidence == nil {
		return Edge{}, fmt.Errorf("cluster %s has no confidence record", cluster.ID)
	}

	edge := Edge{
		ClusterID:   cluster.ID,
		Subject:     subjectName,
		Predicate:   cluster.Predicate,
		Object:      objectName,
		Record:      *cluster.Confidence,
		Explanation: Explain(cluster, subjectName, objectName),
		EmittedAt:   time.Now().UTC(),
	}

	if err := e.store.PutEdge(ctx, edge); err != nil {
		return Edge{}, fmt.Errorf("emit edge: %w", err)
	}

	e.logger.Info("emitted edge",
		zap.String("cluster", cluster.ID),
		zap.String("predicate", cluster.Predicate),
		zap.Float64("confidence", cluster.Confidence.PointEstimate),
		zap.Int("version", cluster.Confidence.Version))

	return edge, nil
}

// Explain generates the natural-language explanation for a cluster:
// evidence count, time span, dependency caveats and the final confidence.
func Explain(cluster *model.ClaimCluster, subjectName, objectName string) string {
	rec := cluster.Confidence
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s %s: supported by %d evidence instance%s",
		subjectName, cluster.Predicate, objectName,
		len(cluster.Evidence), plural(len(cluster.Evidence)))

	if n := len(cluster.Evidence); n >= 2 {
		first := cluster.Evidence[0].Timestamp.Year()
		last := cluster.Evidence[n-1].Timestamp.Year()
		if first != last {
			fmt.Fprintf(&b, " spanning %d-%d", first, last)
		}
	}
	b.WriteString(".")

	if ind := cluster.Dependencies.OverallIndependence; len(cluster.Evidence) >= 2 && ind < 0.8 {
		fmt.Fprintf(&b, " Sources are partially dependent (overall independence %.2f); the effective evidence count is discounted accordingly.", ind)
	}

	fmt.Fprintf(&b, " Final confidence %.2f (bounds %.2f-%.2f, method %s).",
		rec.PointEstimate, rec.LowerBound, rec.UpperBound, rec.Method)

	if rec.Degraded {
		b.WriteString(" This result is degraded: it does not reflect full dual-engine consensus.")
	}
	if rec.Method == model.MethodCalibrationDiverged {
		fmt.Fprintf(&b, " The contextual (%.2f) and formal (%.2f) engines disagreed beyond the convergence threshold.",
			rec.Components[model.ComponentContextualRaw], rec.Components[model.ComponentFormalRaw])
	}
	if rec.NeedsReview {
		b.WriteString(" Flagged for review.")
	}

	return b.String()
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
