package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pkoval/credence/internal/pipeline"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
	// noCache and the reasoner flags are defined in aggregate.go and shared here
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <manifest>",
	Short: "Aggregate multiple evidence files from a manifest in parallel",
	Long: `Batch processes multiple evidence files concurrently:
- Read evidence file paths from a manifest (one per line)
- Aggregate files in parallel with configurable worker count
- Each run clusters, calibrates and emits independently
- Generate individual reports for each file

Example:
  credence batch manifest.txt
  credence batch manifest.txt --concurrency 10 --output-dir ./reports
  credence batch manifest.txt --concurrency 5 --timeout 15m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	// Concurrency flags
	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./credence-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 15*time.Minute, "total timeout for batch processing")

	// Shared flags
	batchCmd.Flags().StringVar(&domain, "domain", "research", "claim domain (selects dimension set and priors)")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable reasoning response cache")

	// Reasoner flags
	batchCmd.Flags().BoolVar(&reasonEnabled, "reasoner", false, "enable the contextual reasoning engine")
	batchCmd.Flags().StringVar(&reasonProv, "reasoner-provider", "openai", "reasoning provider (openai, anthropic, ollama)")
	batchCmd.Flags().StringVar(&reasonModel, "reasoner-model", "", "reasoning model name (provider default if empty)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	manifest := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	logger, err := buildLogger()
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Credence Batch Processing\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Manifest:     %s\n", manifest)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

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
		fmt.Fprintf(os.Stderr, "  Reasoner:     %s/%s\n", reasonProv, reasonModel)
	}

	// Create output directory
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	// Each batch run keeps its edges in memory; per-file reports are the
	// durable output.
	store, err := buildStore(storePath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	p, err := pipeline.New(cfg, store, logger)
	if err != nil {
		return fmt.Errorf("initialize pipeline: %w", err)
	}

	fmt.Fprintf(os.Stderr, "⚙️  Reading manifest...\n")
	paths, err := pipeline.ReadPathsFromFile(manifest)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}
	fmt.Fprintf(os.Stderr, "✓ Loaded %d evidence files\n", len(paths))
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "⚙️  Processing files with %d workers...\n", concurrency)
	fmt.Fprintf(os.Stderr, "\n")

	processor := pipeline.NewBatchProcessor(p, domain, concurrency)
	results := processor.ProcessPaths(ctx, paths)

	renderer := pipeline.NewRenderer()

	successCount := 0
	failureCount := 0

	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Path, result.Error)
			continue
		}

		successCount++

		slug := sanitizeFilename(result.Path)
		jsonPath := filepath.Join(outputDir, slug+".json")
		mdPath := filepath.Join(outputDir, slug+".md")

		if err := renderer.RenderJSON(result.Report, jsonPath); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", result.Path, err)
			continue
		}
		if err := renderer.RenderMarkdown(result.Report, mdPath); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write Markdown: %v\n", result.Path, err)
			continue
		}

		fmt.Fprintf(os.Stderr, "✓ %s (%d edges, %d failures)\n", result.Path, len(result.Report.Edges), len(result.Report.Failures))
	}

	// Summary
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d files\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

// sanitizeFilename derives a report slug from an evidence file path
func sanitizeFilename(s string) string {
	s = filepath.Base(s)
	s = strings.TrimSuffix(s, filepath.Ext(s))

	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "-",
	)
	s = replacer.Replace(s)

	// Limit length
	if len(s) > 100 {
		s = s[:100]
	}

	return s
}
