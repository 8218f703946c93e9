// Package pipeline orchestrates the evidence aggregation flow: resolve,
// match, analyze dependencies, run both confidence engines, calibrate,
// validate and emit.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pkoval/credence/internal/cache"
	"github.com/pkoval/credence/internal/depend"
	"github.com/pkoval/credence/internal/engine"
	"github.com/pkoval/credence/internal/graph"
	"github.com/pkoval/credence/internal/match"
	"github.com/pkoval/credence/internal/model"
	"github.com/pkoval/credence/internal/reason"
	"github.com/pkoval/credence/internal/resolve"
	"github.com/pkoval/credence/internal/worker"
)

// Pipeline wires the aggregation components together. Clusters run in
// parallel across a bounded worker pool; within one cluster the two
// engines run concurrently and cross-calibration is the synchronization
// point. Aggregation arithmetic itself is single-threaded per cluster,
// and no cluster touches another's mutable state.
type Pipeline struct {
	resolver   *resolve.Resolver
	matcher    *match.Matcher
	analyzer   *depend.Analyzer
	contextual *engine.Contextual
	bayesian   *engine.Bayesian
	calibrator *engine.Calibrator
	multires   *engine.MultiResolution
	emitter    *graph.Emitter
	client     *reason.Client // nil when reasoning is disabled
	config     *model.Config
	logger     *zap.Logger
}

// New creates a pipeline from configuration. store receives the emitted
// edges; pass a graph.MemoryStore when persistence is not needed.
func New(cfg *model.Config, store graph.Store, logger *zap.Logger) (*Pipeline, error) {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var client *reason.Client
	if cfg.Reasoner.Provider != "" {
		provider, err := reason.NewProvider(reason.ConfigFromModel(cfg.Reasoner))
		if err != nil {
			return nil, fmt.Errorf("initialize reasoning provider: %w", err)
		}
		if provider != nil {
			limiter := worker.NewLimiter(cfg.Reasoner.RequestsPerSecond, cfg.Reasoner.Burst)
			client = reason.NewClient(provider, limiter, buildCache(cfg.Cache), cfg.Reasoner.MaxRetries, logger)
		}
	}

	return &Pipeline{
		resolver:   resolve.NewResolver(cfg.Resolver, logger),
		matcher:    match.NewMatcher(cfg.Roles, logger),
		analyzer:   depend.NewAnalyzer(logger),
		contextual: engine.NewContextual(client, cfg.Engine, logger),
		bayesian:   engine.NewBayesian(cfg.Engine, cfg.Priors, logger),
		calibrator: engine.NewCalibrator(cfg.Engine, logger),
		multires:   engine.NewMultiResolution(cfg.Engine, logger),
		emitter:    graph.NewEmitter(store, logger),
		client:     client,
		config:     cfg,
		logger:     logger,
	}, nil
}

// NewWithClient creates a pipeline with an explicit reasoning client;
// used by tests to inject a scripted provider.
func NewWithClient(cfg *model.Config, store graph.Store, client *reason.Client, logger *zap.Logger) *Pipeline {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		resolver:   resolve.NewResolver(cfg.Resolver, logger),
		matcher:    match.NewMatcher(cfg.Roles, logger),
		analyzer:   depend.NewAnalyzer(logger),
		contextual: engine.NewContextual(client, cfg.Engine, logger),
		bayesian:   engine.NewBayesian(cfg.Engine, cfg.Priors, logger),
		calibrator: engine.NewCalibrator(cfg.Engine, logger),
		multires:   engine.NewMultiResolution(cfg.Engine, logger),
		emitter:    graph.NewEmitter(store, logger),
		client:     client,
		config:     cfg,
		logger:     logger,
	}
}

func buildCache(cfg model.CacheConfig) cache.Cache {
	if !cfg.Enabled {
		return nil
	}
	ttl := time.Duration(cfg.TTLDays) * 24 * time.Hour
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	if cfg.Dir != "" {
		return cache.NewLayeredCache(ttl, cfg.Dir, ttl)
	}
	return cache.NewMemoryCache(ttl, 10*time.Minute)
}

// Report is the complete result of one aggregation run
type Report struct {
	Domain      string                `json:"domain,omitempty"`
	GeneratedAt time.Time             `json:"generated_at"`
	Entities    []model.EntityCluster `json:"entities"`
	Clusters    []*model.ClaimCluster `json:"clusters"`
	Edges       []graph.Edge          `json:"edges"`
	Failures    []ClusterFailure      `json:"failures,omitempty"`
}

// ClusterFailure records a cluster whose aggregation failed. Failures are
// local: one cluster's failure never aborts the batch.
type ClusterFailure struct {
	ClusterID string `json:"cluster_id"`
	Error     string `json:"error"`
}

// Run executes the full aggregation flow over raw evidence records
func (p *Pipeline) Run(ctx context.Context, domain string, records []RawRecord) (*Report, error) {
	instances, err := Ingest(records)
	if err != nil {
		return nil, err
	}

	// Resolve entities: subject and object mentions, with the text span
	// as disambiguating context
	var mentions []resolve.Mention
	for _, inst := range instances {
		mentions = append(mentions,
			resolve.Mention{Text: inst.SubjectText, Context: inst.TextSpan},
			resolve.Mention{Text: inst.ObjectText, Context: inst.TextSpan},
		)
	}
	entities, assignment := p.resolver.Resolve(mentions)

	entityNames := make(map[string]string, len(entities))
	for _, e := range entities {
		entityNames[e.ID] = e.Canonical
	}

	for i := range instances {
		instances[i].SubjectEntity = assignment[instances[i].SubjectText]
		instances[i].ObjectEntity = assignment[instances[i].ObjectText]
	}

	clusters, err := p.matcher.Cluster(instances)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Domain:      domain,
		GeneratedAt: time.Now().UTC(),
		Entities:    entities,
		Clusters:    clusters,
	}

	// Run clusters in parallel under a semaphore-limited cap: the
	// external reasoning service is rate limited.
	workers := p.config.Concurrency.ClusterWorkers
	if workers <= 0 {
		workers = 4
	}
	semaphore := make(chan struct{}, workers)

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, cluster := range clusters {
		wg.Add(1)
		go func(c *model.ClaimCluster) {
			defer wg.Done()
			select {
			case <-ctx.Done():
				mu.Lock()
				report.Failures = append(report.Failures, ClusterFailure{ClusterID: c.ID, Error: ctx.Err().Error()})
				mu.Unlock()
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			edge, err := p.processCluster(ctx, domain, c, entityNames)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failures = append(report.Failures, ClusterFailure{ClusterID: c.ID, Error: err.Error()})
				return
			}
			report.Edges = append(report.Edges, edge)
		}(cluster)
	}
	wg.Wait()

	return report, nil
}

// processCluster runs the per-cluster aggregation: dependency analysis,
// both engines in parallel, cross-calibration, multi-resolution check,
// emit. A cancelled context abandons the cluster; its partial confidence
// record is discarded.
func (p *Pipeline) processCluster(ctx context.Context, domain string, cluster *model.ClaimCluster, entityNames map[string]string) (graph.Edge, error) {
	p.enrichQualifiers(ctx, cluster)
	cluster.Dependencies = p.analyzer.Analyze(cluster.Evidence)

	subjectName := entityNames[cluster.Subject]
	objectName := entityNames[cluster.Object]
	claim := fmt.Sprintf("%s %s %s", subjectName, cluster.Predicate, objectName)

	// Both engines run concurrently; neither depends on the other's
	// output. Cross-calibration blocks until both complete.
	var contextualRec, formalRec *model.ConfidenceRecord
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		contextualRec = p.assessContextual(ctx, claim, cluster, domain)
	}()
	go func() {
		defer wg.Done()
		formalRec = p.bayesian.Aggregate(cluster, domain)
	}()
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return graph.Edge{}, err
	}

	final := p.reconcile(cluster, contextualRec, formalRec)

	check := p.multires.Check(contextualRec, formalRec)
	p.multires.Annotate(final, check)

	if !final.Bounded() {
		return graph.Edge{}, &model.InvariantViolationError{
			Invariant: "confidence_bounded",
			Detail:    fmt.Sprintf("cluster %s produced out-of-order bounds", cluster.ID),
		}
	}

	cluster.SetConfidence(*final)

	return p.emitter.Emit(ctx, cluster, subjectName, objectName)
}

// enrichQualifiers fills qualifiers on evidence that arrived without
// them, extracting structured features from the raw text span. Only
// records the upstream extractor left unqualified are sent out; an
// extraction failure leaves the instance as ingested, degrading the
// dependency heuristics for that pair rather than failing the cluster.
func (p *Pipeline) enrichQualifiers(ctx context.Context, cluster *model.ClaimCluster) {
	if p.client == nil {
		return
	}

	for i := range cluster.Evidence {
		inst := &cluster.Evidence[i]
		if inst.Qualifiers.Quantitative != nil || inst.Qualifiers.Qualified || inst.TextSpan == "" {
			continue
		}

		features, err := p.client.ExtractFeatures(ctx, inst.TextSpan)
		if err != nil {
			p.logger.Debug("feature extraction failed; keeping ingested qualifiers",
				zap.String("evidence_id", inst.ID),
				zap.Error(err))
			continue
		}

		inst.Qualifiers.Qualified = features.Hedged
		inst.Qualifiers.IndependentOrigination = features.IndependentOrigination
		if features.Quantitative && (features.Count > 0 || features.Percentage > 0) {
			inst.Qualifiers.Quantitative = &model.Quantitative{
				Count:      features.Count,
				Percentage: features.Percentage,
			}
		}
	}
}

// assessContextual runs the contextual engine, or returns its degraded
// fallback when no reasoning client is configured
func (p *Pipeline) assessContextual(ctx context.Context, claim string, cluster *model.ClaimCluster, domain string) *model.ConfidenceRecord {
	if p.client == nil {
		return &model.ConfidenceRecord{
			PointEstimate: 0.5,
			LowerBound:    0,
			UpperBound:    1,
			Method:        model.MethodDegradedContextual,
			Robustness:    0,
			Degraded:      true,
			Rationale:     "reasoning provider disabled; no contextual signal available",
			ProducedAt:    time.Now().UTC(),
		}
	}
	return p.contextual.Assess(ctx, claim, cluster, domain)
}

// reconcile applies the fallback ladder before cross-calibration:
// insufficient evidence and degraded contextual results skip the protocol
// with an explicit marker instead of pretending dual-engine consensus.
func (p *Pipeline) reconcile(cluster *model.ClaimCluster, contextualRec, formalRec *model.ConfidenceRecord) *model.ConfidenceRecord {
	if len(cluster.Evidence) < p.config.Engine.MinEvidence {
		insufficientErr := &model.InsufficientEvidenceError{
			ClusterID: cluster.ID,
			Have:      len(cluster.Evidence),
			Need:      p.config.Engine.MinEvidence,
		}
		p.logger.Info("falling back to formal-only aggregation", zap.Error(insufficientErr))

		rec := *formalRec
		rec.Method = model.MethodInsufficientEvidence
		rec.Degraded = true
		rec.Rationale = insufficientErr.Error()
		return &rec
	}

	if contextualRec.Degraded {
		rec := *formalRec
		rec.Method = model.MethodDegradedBayesian
		rec.Degraded = true
		rec.Rationale = "contextual engine unavailable; formal estimate only"
		return &rec
	}

	return p.calibrator.Reconcile(contextualRec, formalRec)
}

// IsMalformed reports whether err is a record shape-validation failure
func IsMalformed(err error) bool {
	var malformed *model.MalformedRecordError
	return errors.As(err, &malformed)
}
