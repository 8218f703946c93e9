package graph

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pkoval/credence/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS edges (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	cluster_id TEXT NOT NULL,
	subject TEXT NOT NULL,
	predicate TEXT NOT NULL,
	object TEXT NOT NULL,
	version INTEGER NOT NULL,
	point_estimate REAL NOT NULL,
	record TEXT NOT NULL,
	explanation TEXT NOT NULL,
	emitted_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_edges_cluster ON edges(cluster_id, version);
`

// SQLiteStore persists edges in a SQLite database. Rows are insert-only:
// each confidence recomputation adds a new version, old versions stay.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the edge database at path
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// PutEdge appends a new edge version
func (s *SQLiteStore) PutEdge(ctx context.Context, edge Edge) error {
	record, err := json.Marshal(edge.Record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO edges (cluster_id, subject, predicate, object, version, point_estimate, record, explanation, emitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		edge.ClusterID, edge.Subject, edge.Predicate, edge.Object,
		edge.Record.Version, edge.Record.PointEstimate,
		string(record), edge.Explanation, edge.EmittedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert edge: %w", err)
	}
	return nil
}

// Edges returns the latest edge version per cluster
func (s *SQLiteStore) Edges(ctx context.Context) ([]Edge, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.cluster_id, e.subject, e.predicate, e.object, e.record, e.explanation, e.emitted_at
		FROM edges e
		JOIN (SELECT cluster_id, MAX(version) AS v FROM edges GROUP BY cluster_id) latest
		  ON e.cluster_id = latest.cluster_id AND e.version = latest.v
		ORDER BY e.id`)
	if err != nil {
		return nil, fmt.Errorf("query edges: %w", err)
	}
	defer rows.Close()
	return scanEdges(rows)
}

// History returns all edge versions for a cluster, oldest first
func (s *SQLiteStore) History(ctx context.Context, clusterID string) ([]Edge, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT cluster_id, subject, predicate, object, record, explanation, emitted_at
		FROM edges WHERE cluster_id = ? ORDER BY version`, clusterID)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()
	return scanEdges(rows)
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanEdges(rows *sql.Rows) ([]Edge, error) {
	var edges []Edge
	for rows.Next() {
		var edge Edge
		var record, emittedAt string
		if err := rows.Scan(&edge.ClusterID, &edge.Subject, &edge.Predicate, &edge.Object, &record, &edge.Explanation, &emittedAt); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		var rec model.ConfidenceRecord
		if err := json.Unmarshal([]byte(record), &rec); err != nil {
			return nil, fmt.Errorf("unmarshal record: %w", err)
		}
		edge.Record = rec
		if ts, err := time.Parse(time.RFC3339, emittedAt); err == nil {
			edge.EmittedAt = ts
		}
		edges = append(edges, edge)
	}
	return edges, rows.Err()
}
