package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkoval/credence/internal/graph"
	"github.com/pkoval/credence/internal/model"
)

func sampleReport() *Report {
	return &Report{
		Domain:      "research",
		GeneratedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Entities: []model.EntityCluster{
			{ID: "e1", Canonical: "John Smith", NeedsReview: true},
			{ID: "e2", Canonical: "Ada Jones"},
		},
		Edges: []graph.Edge{
			{
				ClusterID: "c1",
				Subject:   "John Smith",
				Predicate: "influenced_by",
				Object:    "Ada Jones",
				Record: model.ConfidenceRecord{
					PointEstimate: 0.695,
					LowerBound:    0.55,
					UpperBound:    0.82,
					Method:        model.MethodCrossCalibrated,
					Robustness:    0.7,
					Version:       1,
					Components:    map[string]float64{model.ComponentFormalRaw: 0.69},
				},
				Explanation: "supported by 5 evidence instances",
			},
		},
		Failures: []ClusterFailure{{ClusterID: "c2", Error: "context canceled"}},
	}
}

func TestRenderJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, NewRenderer().RenderJSON(sampleReport(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded Report
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "research", decoded.Domain)
	require.Len(t, decoded.Edges, 1)
	assert.InDelta(t, 0.695, decoded.Edges[0].Record.PointEstimate, 1e-9)
}

func TestRenderMarkdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.md")
	require.NoError(t, NewRenderer().RenderMarkdown(sampleReport(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	md := string(data)

	assert.Contains(t, md, "# Evidence Aggregation Report")
	assert.Contains(t, md, "## John Smith influenced_by Ada Jones")
	assert.Contains(t, md, "0.695")
	assert.Contains(t, md, "cross_calibrated")
	assert.Contains(t, md, "## Failures")
	assert.Contains(t, md, "context canceled")
	assert.Contains(t, md, "1 entity cluster(s) need human disambiguation")
}
