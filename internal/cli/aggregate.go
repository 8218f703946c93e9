package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pkoval/credence/internal/graph"
	"github.com/pkoval/credence/internal/model"
	"github.com/pkoval/credence/internal/pipeline"
)

var (
	outJSON       string
	outMD         string
	domain        string
	timeout       time.Duration
	storePath     string
	noCache       bool
	reasonEnabled bool
	reasonProv    string
	reasonModel   string
)

// aggregateCmd represents the aggregate command
var aggregateCmd = &cobra.Command{
	Use:   "aggregate <evidence.json>",
	Short: "Aggregate extracted evidence into calibrated claim confidences",
	Long: `Aggregate reads a JSON array of evidence records and:
- Resolves entity mentions into clusters, flagging ambiguous names
- Groups records into claim clusters across predicate variants
- Estimates source dependence and discounts redundant evidence
- Runs formal Bayesian and contextual confidence engines
- Cross-calibrates the two estimates and validates across resolutions
- Emits graph edges with confidence records and explanations

Example:
  credence aggregate evidence.json
  credence aggregate evidence.json --json out.json --md report.md
  credence aggregate evidence.json --reasoner openai --reasoner-model gpt-4o-mini`,
	Args: cobra.ExactArgs(1),
	RunE: runAggregate,
}

func init() {
	rootCmd.AddCommand(aggregateCmd)

	// Output flags
	aggregateCmd.Flags().StringVar(&outJSON, "json", "report.json", "output JSON path")
	aggregateCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	aggregateCmd.Flags().StringVar(&domain, "domain", "research", "claim domain (selects dimension set and priors)")

	// Run flags
	aggregateCmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "overall run timeout (increase for large evidence files)")
	aggregateCmd.Flags().StringVar(&storePath, "store", "", "SQLite edge store path (default: in-memory only)")
	aggregateCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable reasoning response cache")

	// Reasoner flags
	aggregateCmd.Flags().BoolVar(&reasonEnabled, "reasoner", false, "enable the contextual reasoning engine")
	aggregateCmd.Flags().StringVar(&reasonProv, "reasoner-provider", "openai", "reasoning provider (openai, anthropic, ollama)")
	aggregateCmd.Flags().StringVar(&reasonModel, "reasoner-model", "", "reasoning model name (provider default if empty)")
}

func runAggregate(cmd *cobra.Command, args []string) error {
	path := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	logger, err := buildLogger()
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if verbose {
		fmt.Fprintf(os.Stderr, "Aggregating: %s\n", path)
		fmt.Fprintf(os.Stderr, "Domain: %s\n", domain)
		fmt.Fprintf(os.Stderr, "Timeout: %v\n", timeout)
		fmt.Fprintln(os.Stderr)
	}

	// Config file settings first, then flag overrides
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Cache.Enabled = !noCache
	if reasonEnabled {
		if err := configureReasoner(cfg); err != nil {
			return err
		}
	}

	store, err := buildStore(storePath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	p, err := pipeline.New(cfg, store, logger)
	if err != nil {
		return fmt.Errorf("initialize pipeline: %w", err)
	}

	report, err := p.AggregateFile(ctx, domain, path)
	if err != nil {
		return fmt.Errorf("aggregate failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Resolved %d entity clusters\n", len(report.Entities))
		fmt.Fprintf(os.Stderr, "✓ Matched %d claim clusters\n", len(report.Clusters))
		fmt.Fprintf(os.Stderr, "✓ Emitted %d edges\n", len(report.Edges))
		if len(report.Failures) > 0 {
			fmt.Fprintf(os.Stderr, "✗ %d cluster(s) failed\n", len(report.Failures))
		}
		fmt.Fprintln(os.Stderr)
	}

	// Render outputs
	renderer := pipeline.NewRenderer()
	if err := renderer.RenderJSON(report, outJSON); err != nil {
		return fmt.Errorf("render JSON: %w", err)
	}
	if outMD != "" {
		if err := renderer.RenderMarkdown(report, outMD); err != nil {
			return fmt.Errorf("render Markdown: %w", err)
		}
	}

	return nil
}

// configureReasoner fills reasoning provider settings, pulling API keys
// from the environment
func configureReasoner(cfg *model.Config) error {
	cfg.Reasoner.Provider = reasonProv
	cfg.Reasoner.Model = reasonModel

	switch reasonProv {
	case "openai":
		cfg.Reasoner.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.Reasoner.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "anthropic", "claude":
		cfg.Reasoner.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		if cfg.Reasoner.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
	case "ollama":
		// Ollama doesn't need an API key
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
			cfg.Reasoner.BaseURL = baseURL
		}
	default:
		return fmt.Errorf("unknown reasoning provider: %s", reasonProv)
	}
	return nil
}

// buildStore opens the edge store: SQLite when a path is given, otherwise
// in-memory
func buildStore(path string) (graph.Store, error) {
	if path == "" {
		return graph.NewMemoryStore(), nil
	}
	store, err := graph.NewSQLiteStore(path)
	if err != nil {
		return nil, fmt.Errorf("open edge store: %w", err)
	}
	return store, nil
}
