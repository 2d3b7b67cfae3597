// Package pipeline orchestrates a full run: load a source, detect its
// domain, decompose, validate, canonicalize, measure coherence and
// render the resulting report.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ltikhonov/primordia/internal/cache"
	"github.com/ltikhonov/primordia/internal/coherence"
	"github.com/ltikhonov/primordia/internal/decompose"
	"github.com/ltikhonov/primordia/internal/ingest"
	"github.com/ltikhonov/primordia/internal/llm"
	"github.com/ltikhonov/primordia/internal/model"
	"github.com/ltikhonov/primordia/internal/validate"
)

// Pipeline orchestrates the complete processing flow
type Pipeline struct {
	loader    *ingest.Loader
	manager   *decompose.Manager
	store     cache.Cache
	explainer *llm.Explainer // Optional LLM explainer (nil if disabled)
	renderer  *Renderer
	config    *model.Config
}

// NewPipeline creates a new pipeline with the given configuration
func NewPipeline(cfg *model.Config) *Pipeline {
	// Create LLM explainer if configured
	var explainer *llm.Explainer
	if cfg.LLM.Provider != "" {
		e, err := llm.NewExplainer(llm.ConfigFromModel(cfg.LLM, cfg.HTTP))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to initialize LLM provider: %v\n", err)
		} else {
			explainer = e
		}
	}

	return &Pipeline{
		loader:    ingest.NewLoader(cfg.HTTP),
		manager:   decompose.NewManager(nil, nil, cfg.Limits.MaxDepth),
		store:     newReportCache(cfg.Cache),
		explainer: explainer,
		renderer:  NewRenderer(cfg.Output.IncludeFooter),
		config:    cfg,
	}
}

// newReportCache builds the report cache from configuration. Disabled
// caching degrades to a no-op store.
func newReportCache(cfg model.CacheConfig) cache.Cache {
	if !cfg.Enabled {
		return cache.Nop{}
	}

	dir := cfg.Dir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			// No usable disk location; keep the memory layer only
			return cache.NewMemory(cfg.MemoryTTL)
		}
		dir = filepath.Join(home, ".primordia", "cache")
	}

	return cache.NewLayered(cfg.MemoryTTL, dir, cfg.DiskTTL)
}

// Manager exposes the decomposition engine, e.g. for registering
// domains loaded from spec files.
func (p *Pipeline) Manager() *decompose.Manager {
	return p.manager
}

// RunOptions adjust a single run.
type RunOptions struct {
	// Domain forces a specific algorithm instead of detection
	Domain model.Domain

	// Frame is the optional observer frame for invariance measures
	Frame *model.ObserverFrame
}

// RunSource processes one source with detection and no frame. It
// satisfies the batch worker's Runner interface.
func (p *Pipeline) RunSource(ctx context.Context, source string) (*model.Report, error) {
	return p.Run(ctx, source, RunOptions{})
}

// Run processes one source end to end and returns the report.
func (p *Pipeline) Run(ctx context.Context, source string, opts RunOptions) (*model.Report, error) {
	// 1. Load and parse the source
	input, err := p.loader.Load(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}

	// 2. Resolve the domain
	domain := opts.Domain
	if domain == "" {
		domain, err = p.manager.DetectDomain(input.Value)
		if err != nil {
			return nil, fmt.Errorf("detect domain: %w", err)
		}
	}

	// 3. Cache lookup keyed on raw bytes and domain
	key := cache.Key(input.Raw, string(domain))
	if data, ok := p.store.Get(key); ok {
		var cached model.Report
		if err := json.Unmarshal(data, &cached); err == nil {
			if p.config.Output.Verbose {
				fmt.Fprintf(os.Stderr, "cache hit: %s\n", source)
			}
			return p.explain(ctx, &cached), nil
		}
		// Corrupt entry; drop it and recompute
		_ = p.store.Delete(key)
	}

	// 4. Decompose
	d, err := p.manager.DecomposeAs(domain, input.Value)
	if err != nil {
		return nil, fmt.Errorf("decompose: %w", err)
	}

	// 5. Structural validation (defects are findings, not failures)
	defects := validate.Check(d)

	// 6. Canonicalize
	canonical, err := p.manager.Canonical(d)
	if err != nil {
		return nil, fmt.Errorf("canonicalize: %w", err)
	}

	// 7. Measure coherence
	measures := coherence.MeasureAll(d, canonical, opts.Frame)

	report := &model.Report{
		Source:        source,
		Domain:        domain,
		Format:        input.Format,
		ProcessedAt:   time.Now().UTC(),
		Fetch:         input.Meta,
		Decomposition: d,
		Canonical:     canonical,
		Measures:      measures,
		Defects:       defects,
	}

	// 8. Cache the scored report before any explanation is attached
	if data, err := json.Marshal(report); err == nil {
		if err := p.store.Set(key, data, 0); err != nil && p.config.Output.Verbose {
			fmt.Fprintf(os.Stderr, "Warning: cache write failed: %v\n", err)
		}
	}

	// 9. Generate LLM explanation if enabled (AFTER scoring, never affects measures)
	return p.explain(ctx, report), nil
}

// explain attaches the optional LLM explanation to a report that does
// not already carry one.
func (p *Pipeline) explain(ctx context.Context, report *model.Report) *model.Report {
	if p.explainer == nil || !p.explainer.IsEnabled() || report.LLM != nil {
		return report
	}

	summary, err := p.explainer.GenerateExplanation(ctx, *report)
	if err != nil {
		// Don't fail the entire run, just warn
		fmt.Fprintf(os.Stderr, "Warning: LLM explanation failed: %v\n", err)
		return report
	}
	if summary != nil {
		report.LLM = summary
	}
	return report
}

// RenderReport renders the report to the specified outputs
func (p *Pipeline) RenderReport(report *model.Report, jsonPath string, mdPath string, verbose bool) error {
	// Render JSON
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "wrote JSON: %s\n", jsonPath)
		}
	}

	// Render Markdown
	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "wrote Markdown: %s\n", mdPath)
		}
	}

	// Print summary to stdout
	p.renderer.RenderSummary(report)

	return nil
}
