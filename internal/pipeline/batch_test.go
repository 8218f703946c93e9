package pipeline

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

// stubAggregator implements Aggregator
type stubAggregator struct {
	ShouldError bool
}

func (s *stubAggregator) AggregateFile(ctx context.Context, domain, path string) (*Report, error) {
	time.Sleep(10 * time.Millisecond) // Simulate work
	if s.ShouldError {
		return nil, errors.New("aggregate error")
	}
	return &Report{Domain: domain, GeneratedAt: time.Now().UTC()}, nil
}

func TestBatchProcessor_ProcessPaths(t *testing.T) {
	processor := NewBatchProcessor(&stubAggregator{}, "research", 2)

	paths := []string{"a.json", "b.json", "c.json"}
	ctx := context.Background()

	results := processor.ProcessPaths(ctx, paths)

	if len(results) != 3 {
		t.Errorf("expected 3 results, got %d", len(results))
	}

	successCount := 0
	for _, res := range results {
		if res.Error == nil {
			successCount++
			if res.Report == nil {
				t.Error("expected report for successful run")
			}
		} else {
			t.Errorf("unexpected error for %s: %v", res.Path, res.Error)
		}
	}

	if successCount != 3 {
		t.Errorf("expected 3 successes, got %d", successCount)
	}
}

func TestBatchProcessor_ProcessPaths_Error(t *testing.T) {
	processor := NewBatchProcessor(&stubAggregator{ShouldError: true}, "research", 2)

	results := processor.ProcessPaths(context.Background(), []string{"a.json"})

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}

	if results[0].Error == nil {
		t.Error("expected error, got nil")
	}
	if results[0].Report != nil {
		t.Error("expected nil report on error")
	}
}

func TestBatchProcessor_ProcessPaths_Empty(t *testing.T) {
	processor := NewBatchProcessor(&stubAggregator{}, "research", 2)

	results := processor.ProcessPaths(context.Background(), []string{})
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestReadPathsFromFile(t *testing.T) {
	content := `evidence/run1.json
# comment
evidence/run2.json

evidence/run3.json   `

	tmpfile, err := os.CreateTemp("", "manifest")
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = os.Remove(tmpfile.Name())
	}()

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	paths, err := ReadPathsFromFile(tmpfile.Name())
	if err != nil {
		t.Fatalf("ReadPathsFromFile failed: %v", err)
	}

	expected := []string{"evidence/run1.json", "evidence/run2.json", "evidence/run3.json"}
	if len(paths) != len(expected) {
		t.Fatalf("expected %d paths, got %d", len(expected), len(paths))
	}

	for i, path := range paths {
		if path != expected[i] {
			t.Errorf("expected path %s at index %d, got %s", expected[i], i, path)
		}
	}
}

func TestReadPathsFromFile_NonExistent(t *testing.T) {
	_, err := ReadPathsFromFile("non_existent_file.txt")
	if err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}

func TestReadPathsFromFile_Deduplication(t *testing.T) {
	content := `evidence/run1.json
evidence/run1.json`

	tmpfile, err := os.CreateTemp("", "manifest_dedup")
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = os.Remove(tmpfile.Name())
	}()

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	paths, err := ReadPathsFromFile(tmpfile.Name())
	if err != nil {
		t.Fatalf("ReadPathsFromFile failed: %v", err)
	}

	if len(paths) != 1 {
		t.Errorf("expected 1 path after deduplication, got %d", len(paths))
	}
}

func TestFileResult_GetError(t *testing.T) {
	r1 := &FileResult{Path: "a.json", Error: nil}
	if r1.GetError() != nil {
		t.Errorf("expected nil error, got %v", r1.GetError())
	}

	expected := errors.New("aggregation failed")
	r2 := &FileResult{Path: "a.json", Error: expected}
	if r2.GetError() != expected {
		t.Errorf("expected %v, got %v", expected, r2.GetError())
	}
}

func TestBatchProcessor_ProcessManifest(t *testing.T) {
	content := "a.json\nb.json\n# comment\n\nc.json\n"

	tmpfile, err := os.CreateTemp("", "batch_manifest")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Remove(tmpfile.Name()) }()

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	processor := NewBatchProcessor(&stubAggregator{}, "research", 2)

	results, err := processor.ProcessManifest(context.Background(), tmpfile.Name())
	if err != nil {
		t.Fatalf("ProcessManifest failed: %v", err)
	}

	if len(results) != 3 {
		t.Errorf("expected 3 results, got %d", len(results))
	}
}

func TestBatchProcessor_ProcessManifest_NonExistent(t *testing.T) {
	processor := NewBatchProcessor(&stubAggregator{}, "research", 2)

	_, err := processor.ProcessManifest(context.Background(), "no_such_file.txt")
	if err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}

func TestBatchProcessor_ProcessManifest_Empty(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "empty_manifest")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Remove(tmpfile.Name()) }()
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	processor := NewBatchProcessor(&stubAggregator{}, "research", 2)

	results, err := processor.ProcessManifest(context.Background(), tmpfile.Name())
	if err != nil {
		t.Fatalf("ProcessManifest failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected 0 results for empty manifest, got %d", len(results))
	}
}
