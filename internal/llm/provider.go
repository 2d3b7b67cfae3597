// Package llm generates optional plain-language explanations of
// decomposition reports. Explanations are produced after all measures
// are computed and never feed back into scoring; any provider failure
// degrades to a warning instead of failing the run.
package llm

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ltikhonov/primordia/internal/model"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Explain generates a plain-language explanation of the report
	Explain(ctx context.Context, req ExplainRequest) (*ExplainResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// ExplainRequest contains the input for report explanation
type ExplainRequest struct {
	// Report is the decomposition report to explain
	Report model.Report

	// Prompt is an optional custom prompt (if empty, use default)
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// ExplainResponse contains the LLM's explanation output
type ExplainResponse struct {
	// Text is the generated explanation
	Text string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Model:     "",
		Timeout:   30,
		MaxTokens: 800,
	}
}

const systemPrompt = "You are a careful assistant that explains decomposition reports strictly from the numbers provided."

// BuildPrompt constructs the default explanation prompt. Every number
// the model may mention is stated explicitly so it has nothing to invent.
func BuildPrompt(report model.Report) string {
	var b strings.Builder

	b.WriteString(`You are explaining a report from an engine that breaks an input into prime factors and measures how coherently those factors represent the original.

RULES:
1. Use ONLY the numbers listed below. Never invent counts or scores.
2. Scores range from 0 to 1; higher means the representation holds together better.
3. Describe what the measures say about the decomposition. Do not judge the input itself.
4. If a measure is missing, do not speculate about it.

Report:
`)
	fmt.Fprintf(&b, "- Source: %s\n", report.Source)
	fmt.Fprintf(&b, "- Domain: %s\n", report.Domain)
	if report.Decomposition != nil {
		fmt.Fprintf(&b, "- Factors: %d\n", len(report.Decomposition.Factors))
		b.WriteString(factorProfile(report.Decomposition))
	}
	fmt.Fprintf(&b, "- Defects: %d\n", len(report.Defects))

	if len(report.Measures) > 0 {
		b.WriteString("\nMeasures:\n")
		for _, m := range report.Measures {
			fmt.Fprintf(&b, "- %s: %.3f (%s)\n", m.Metric, m.Value, m.Normalization)
		}
	}

	b.WriteString("\nProvide a 3-4 sentence plain-language explanation of what these measures say about the decomposition.")

	return b.String()
}

// factorProfile summarizes factor ids by their prefix, e.g. "word: 12".
func factorProfile(d *model.Decomposition) string {
	counts := make(map[string]int)
	for _, f := range d.Factors {
		prefix := f.ID
		if idx := strings.IndexByte(prefix, ':'); idx > 0 {
			prefix = prefix[:idx]
		}
		counts[prefix]++
	}
	if len(counts) == 0 {
		return ""
	}

	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	var b strings.Builder
	b.WriteString("- Factor kinds:")
	for i, k := range kinds {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, " %s (%d)", k, counts[k])
	}
	b.WriteString("\n")
	return b.String()
}
