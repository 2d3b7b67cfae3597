package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ltikhonov/primordia/internal/model"
)

// Runner defines the interface for processing a single source
type Runner interface {
	RunSource(ctx context.Context, source string) (*model.Report, error)
}

// DecomposeJob processes one source through the engine
type DecomposeJob struct {
	Source  string
	Runner  Runner
	Limiter *Limiter
}

// Execute executes the decompose job
func (j *DecomposeJob) Execute(ctx context.Context) Result {
	// Only remote sources are paced; local files run at full speed
	if j.Limiter != nil && isRemoteSource(j.Source) {
		if err := j.Limiter.Wait(ctx, j.Source); err != nil {
			return &DecomposeResult{Source: j.Source, Error: err}
		}
	}

	report, err := j.Runner.RunSource(ctx, j.Source)
	if err != nil {
		return &DecomposeResult{
			Source: j.Source,
			Report: nil,
			Error:  err,
		}
	}
	return &DecomposeResult{
		Source: j.Source,
		Report: report,
		Error:  nil,
	}
}

// DecomposeResult represents the result of a decompose job
type DecomposeResult struct {
	Source string
	Report *model.Report
	Error  error
}

// GetError returns the error from the decompose result
func (r *DecomposeResult) GetError() error {
	return r.Error
}

// BatchProcessor processes multiple sources concurrently
type BatchProcessor struct {
	runner      Runner
	concurrency int
	limiter     *Limiter
}

// NewBatchProcessor creates a new batch processor. A non-positive
// requestsPerSecond disables rate limiting.
func NewBatchProcessor(runner Runner, concurrency int, requestsPerSecond float64, burst int) *BatchProcessor {
	var limiter *Limiter
	if requestsPerSecond > 0 {
		limiter = NewLimiter(requestsPerSecond, burst)
	}

	return &BatchProcessor{
		runner:      runner,
		concurrency: concurrency,
		limiter:     limiter,
	}
}

// ProcessSources processes multiple sources concurrently
func (b *BatchProcessor) ProcessSources(ctx context.Context, sources []string) []*DecomposeResult {
	if len(sources) == 0 {
		return []*DecomposeResult{}
	}

	// Create worker pool
	pool := NewPool(b.concurrency)
	pool.Start()

	// Submit jobs
	for _, source := range sources {
		job := &DecomposeJob{
			Source:  source,
			Runner:  b.runner,
			Limiter: b.limiter,
		}
		pool.Submit(job)
	}

	// Wait for all jobs to complete
	results := pool.Wait()

	// Convert to DecomposeResults
	decomposeResults := make([]*DecomposeResult, len(results))
	for i, result := range results {
		decomposeResults[i] = result.(*DecomposeResult)
	}

	return decomposeResults
}

// ProcessFile reads sources from a file and processes them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*DecomposeResult, error) {
	sources, err := ReadSourcesFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read sources: %w", err)
	}

	return b.ProcessSources(ctx, sources), nil
}

// ReadSourcesFromFile reads sources from a file (one per line)
func ReadSourcesFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var sources []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Deduplicate sources
		if !seen[line] {
			seen[line] = true
			sources = append(sources, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return sources, nil
}

// isRemoteSource reports whether the source is an http(s) URL
func isRemoteSource(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}
