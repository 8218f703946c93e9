package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Renderer writes aggregation reports to JSON and Markdown files
type Renderer struct{}

// NewRenderer creates a renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderJSON writes the full report as indented JSON
func (r *Renderer) RenderJSON(report *Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// RenderMarkdown writes a human-readable summary
func (r *Renderer) RenderMarkdown(report *Report, path string) error {
	var b strings.Builder

	b.WriteString("# Evidence Aggregation Report\n\n")
	if report.Domain != "" {
		fmt.Fprintf(&b, "Domain: %s\n\n", report.Domain)
	}
	fmt.Fprintf(&b, "Generated: %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "Entities: %d | Claims: %d | Emitted edges: %d\n\n",
		len(report.Entities), len(report.Clusters), len(report.Edges))

	for _, edge := range report.Edges {
		fmt.Fprintf(&b, "## %s %s %s\n\n", edge.Subject, edge.Predicate, edge.Object)
		fmt.Fprintf(&b, "%s\n\n", edge.Explanation)

		rec := edge.Record
		fmt.Fprintf(&b, "- Point estimate: **%.3f** (bounds %.3f-%.3f)\n", rec.PointEstimate, rec.LowerBound, rec.UpperBound)
		fmt.Fprintf(&b, "- Method: `%s` | Robustness: %.2f | Version: %d\n", rec.Method, rec.Robustness, rec.Version)
		if rec.Degraded {
			b.WriteString("- **Degraded result** (not full dual-engine consensus)\n")
		}
		if rec.NeedsReview {
			b.WriteString("- **Flagged for review**\n")
		}

		if len(rec.Components) > 0 {
			b.WriteString("\n| Component | Magnitude |\n|---|---|\n")
			names := make([]string, 0, len(rec.Components))
			for name := range rec.Components {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(&b, "| %s | %.3f |\n", name, rec.Components[name])
			}
		}
		b.WriteString("\n")
	}

	if len(report.Failures) > 0 {
		b.WriteString("## Failures\n\n")
		for _, f := range report.Failures {
			fmt.Fprintf(&b, "- cluster %s: %s\n", f.ClusterID, f.Error)
		}
		b.WriteString("\n")
	}

	var flagged int
	for _, e := range report.Entities {
		if e.NeedsReview {
			flagged++
		}
	}
	if flagged > 0 {
		fmt.Fprintf(&b, "%d entity cluster(s) need human disambiguation.\n", flagged)
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}
	return nil
}
