package pipeline

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pkoval/credence/internal/worker"
)

// Aggregator runs one evidence file through the full aggregation flow.
// *Pipeline satisfies it; tests substitute a stub.
type Aggregator interface {
	AggregateFile(ctx context.Context, domain, path string) (*Report, error)
}

// AggregateFile loads evidence records from a JSON file and runs them
func (p *Pipeline) AggregateFile(ctx context.Context, domain, path string) (*Report, error) {
	records, err := LoadRecords(path)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx, domain, records)
}

// FileJob aggregates a single evidence file
type FileJob struct {
	Path       string
	Domain     string
	Aggregator Aggregator
}

// Execute runs the aggregation for this job's file
func (j *FileJob) Execute(ctx context.Context) worker.Result {
	report, err := j.Aggregator.AggregateFile(ctx, j.Domain, j.Path)
	return &FileResult{
		Path:   j.Path,
		Report: report,
		Error:  err,
	}
}

// FileResult is the outcome of aggregating one evidence file
type FileResult struct {
	Path   string
	Report *Report
	Error  error
}

// GetError returns the error from the file result
func (r *FileResult) GetError() error {
	return r.Error
}

// BatchProcessor aggregates multiple evidence files concurrently
type BatchProcessor struct {
	aggregator  Aggregator
	domain      string
	concurrency int
}

// NewBatchProcessor creates a batch processor running up to concurrency
// files at once
func NewBatchProcessor(aggregator Aggregator, domain string, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		aggregator:  aggregator,
		domain:      domain,
		concurrency: concurrency,
	}
}

// ProcessPaths aggregates the given evidence files concurrently
func (b *BatchProcessor) ProcessPaths(ctx context.Context, paths []string) []*FileResult {
	if len(paths) == 0 {
		return []*FileResult{}
	}

	pool := worker.NewPool(ctx, b.concurrency)
	pool.Start()

	for _, path := range paths {
		pool.Submit(&FileJob{
			Path:       path,
			Domain:     b.domain,
			Aggregator: b.aggregator,
		})
	}

	results := pool.Wait()

	fileResults := make([]*FileResult, len(results))
	for i, result := range results {
		fileResults[i] = result.(*FileResult)
	}

	return fileResults
}

// ProcessManifest reads evidence file paths from a manifest and
// aggregates them concurrently
func (b *BatchProcessor) ProcessManifest(ctx context.Context, manifestPath string) ([]*FileResult, error) {
	paths, err := ReadPathsFromFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	return b.ProcessPaths(ctx, paths), nil
}

// ReadPathsFromFile reads evidence file paths from a manifest (one per
// line)
func ReadPathsFromFile(manifestPath string) ([]string, error) {
	file, err := os.Open(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Deduplicate paths
		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return paths, nil
}
