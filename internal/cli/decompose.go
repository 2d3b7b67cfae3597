package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ltikhonov/primordia/internal/domainspec"
	"github.com/ltikhonov/primordia/internal/model"
	"github.com/ltikhonov/primordia/internal/pipeline"
)

var (
	outJSON     string
	outMD       string
	domainName  string
	framePath   string
	timeout     time.Duration
	userAgent   string
	maxBytes    int64
	noCache     bool
	noFooter    bool
	insecureTLS bool
	llmEnabled  bool
	llmProvider string
	llmModel    string
)

// decomposeCmd represents the decompose command
var decomposeCmd = &cobra.Command{
	Use:   "decompose <file|url|->",
	Short: "Decompose a source and generate a coherence report",
	Long: `Decompose reads a source (file, URL, or stdin via "-"), detects or
accepts its domain, and reduces it to prime factors. From those it
derives the canonical form, measures coherence, and reports any
structural defects.

Example:
  primordia decompose data.json
  primordia decompose https://example.com/api/item --json report.json --md report.md
  primordia decompose notes.txt --domain text
  primordia decompose data.json --frame frames/auditor.yaml
  primordia decompose data.json --llm --llm-provider openai --llm-model gpt-4o-mini
  cat data.json | primordia decompose -`,
	Args: cobra.ExactArgs(1),
	RunE: runDecompose,
}

func init() {
	rootCmd.AddCommand(decomposeCmd)

	// Output flags
	decomposeCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (optional)")
	decomposeCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")

	// Processing flags
	decomposeCmd.Flags().StringVar(&domainName, "domain", "", "force a domain instead of detection (text, structured-data, media, linked-data, ...)")
	decomposeCmd.Flags().StringVar(&framePath, "frame", "", "observer frame file for invariance measures (JSON or YAML)")

	// HTTP flags
	decomposeCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall processing timeout")
	decomposeCmd.Flags().StringVar(&userAgent, "ua", "Primordia/0.3 (+https://github.com/ltikhonov/primordia)", "HTTP User-Agent")
	decomposeCmd.Flags().Int64Var(&maxBytes, "max-bytes", 2_000_000, "max response bytes to read")
	decomposeCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh processing)")
	decomposeCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	decomposeCmd.Flags().BoolVar(&insecureTLS, "insecure", false, "skip TLS certificate verification (use for self-signed certs)")

	// LLM flags
	decomposeCmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable LLM explanation of the report")
	decomposeCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, anthropic, ollama)")
	decomposeCmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")

	// Custom domains
	decomposeCmd.Flags().StringSliceVar(&defineFiles, "define", nil, "custom domain definition files (YAML, repeatable)")
}

func runDecompose(cmd *cobra.Command, args []string) error {
	source := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if verbose {
		fmt.Fprintf(os.Stderr, "Decomposing: %s\n", source)
		fmt.Fprintf(os.Stderr, "Timeout: %v\n", timeout)
		fmt.Fprintf(os.Stderr, "Cache: %v\n", !noCache)
		fmt.Fprintln(os.Stderr)
	}

	// Build configuration from flags
	cfg := model.DefaultConfig()
	cfg.HTTP.Timeout = timeout
	cfg.HTTP.UserAgent = userAgent
	cfg.HTTP.MaxBodyBytes = maxBytes
	cfg.HTTP.InsecureTLS = insecureTLS
	cfg.Cache.Enabled = !noCache
	cfg.Output.Verbose = verbose
	cfg.Output.IncludeFooter = !noFooter

	// Configure LLM if enabled
	if llmEnabled {
		cfg.LLM.Provider = llmProvider
		cfg.LLM.Model = llmModel
		if err := resolveLLMEnv(cfg, llmProvider); err != nil {
			return err
		}
	}

	opts := pipeline.RunOptions{Domain: model.Domain(domainName)}
	if framePath != "" {
		frame, err := readFrame(framePath)
		if err != nil {
			return err
		}
		opts.Frame = frame
	}

	// Create pipeline
	p := pipeline.NewPipeline(cfg)

	// Register custom domains before running
	for _, file := range defineFiles {
		configs, err := domainspec.Load(file)
		if err != nil {
			return err
		}
		for _, domainCfg := range configs {
			if err := p.Manager().RegisterDomain(domainCfg); err != nil {
				return err
			}
		}
	}

	report, err := p.Run(ctx, source, opts)
	if err != nil {
		return fmt.Errorf("decompose failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Domain: %s\n", report.Domain)
		fmt.Fprintf(os.Stderr, "Extracted %d factors\n", len(report.Decomposition.Factors))
		fmt.Fprintf(os.Stderr, "Computed %d measures\n", len(report.Measures))
		if len(report.Defects) > 0 {
			fmt.Fprintf(os.Stderr, "Found %d defects\n", len(report.Defects))
		}
		if report.LLM != nil && report.LLM.Enabled {
			fmt.Fprintf(os.Stderr, "Generated explanation using %s/%s\n", report.LLM.Provider, report.LLM.Model)
		}
		fmt.Fprintln(os.Stderr)
	}

	// Render outputs
	if err := p.RenderReport(report, outJSON, outMD, verbose); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	return nil
}
