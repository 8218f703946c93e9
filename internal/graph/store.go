// Package graph emits finished claims as knowledge-graph edges with
// attached confidence records.
package graph

import (
	"context"
	"sync"
	"time"

	"github.com/pkoval/credence/internal/model"
)

// Edge is one emitted knowledge-graph assertion. Every confidence
// recomputation emits a new edge version; prior versions are retained for
// audit and robustness re-analysis, never deleted.
type Edge struct {
	ClusterID   string                 `json:"cluster_id"`
	Subject     string                 `json:"subject"`
	Predicate   string                 `json:"predicate"`
	Object      string                 `json:"object"`
	Record      model.ConfidenceRecord `json:"record"`
	Explanation string                 `json:"explanation"`
	EmittedAt   time.Time              `json:"emitted_at"`
}

// Store is the downstream graph-store contract. Implementations must be
// append-only with respect to confidence record versions.
type Store interface {
	// PutEdge appends a new edge version
	PutEdge(ctx context.Context, edge Edge) error

	// Edges returns the latest edge version per cluster
	Edges(ctx context.Context) ([]Edge, error)

	// History returns all edge versions for a cluster, oldest first
	History(ctx context.Context, clusterID string) ([]Edge, error)

	// Close releases store resources
	Close() error
}

// MemoryStore is the in-memory Store used for tests and single runs
type MemoryStore struct {
	mu    sync.RWMutex
	edges map[string][]Edge // cluster ID -> versions, oldest first
	order []string          // insertion order of cluster IDs
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{edges: make(map[string][]Edge)}
}

// PutEdge appends a new edge version
func (s *MemoryStore) PutEdge(ctx context.Context, edge Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.edges[edge.ClusterID]; !exists {
		s.order = append(s.order, edge.ClusterID)
	}
	s.edges[edge.ClusterID] = append(s.edges[edge.ClusterID], edge)
	return nil
}

// Edges returns the latest edge version per cluster in insertion order
func (s *MemoryStore) Edges(ctx context.Context) ([]Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Edge, 0, len(s.order))
	for _, id := range s.order {
		versions := s.edges[id]
		out = append(out, versions[len(versions)-1])
	}
	return out, nil
}

// History returns all edge versions for a cluster, oldest first
func (s *MemoryStore) History(ctx context.Context, clusterID string) ([]Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	versions := s.edges[clusterID]
	out := make([]Edge, len(versions))
	copy(out, versions)
	return out, nil
}

// Close is a no-op for the in-memory store
func (s *MemoryStore) Close() error { return nil }
