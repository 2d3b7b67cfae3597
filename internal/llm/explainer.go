package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ltikhonov/primordia/internal/model"
)

// Explainer wraps a Provider and degrades gracefully: a missing,
// unavailable or failing provider yields warnings in the summary
// instead of failing the run.
type Explainer struct {
	provider Provider
	config   Config
}

// NewExplainer creates an Explainer from configuration. An empty
// provider name yields a disabled Explainer, not an error.
func NewExplainer(config Config) (*Explainer, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}

	return &Explainer{
		provider: provider,
		config:   config,
	}, nil
}

// IsEnabled reports whether a provider is configured
func (e *Explainer) IsEnabled() bool {
	return e.provider != nil
}

// ProviderName returns the configured provider name, or ""
func (e *Explainer) ProviderName() string {
	if e.provider == nil {
		return ""
	}
	return e.provider.Name()
}

// GenerateExplanation produces the optional LLM summary for a report.
// Returns (nil, nil) when no provider is configured.
func (e *Explainer) GenerateExplanation(ctx context.Context, report model.Report) (*model.LLMSummary, error) {
	if e.provider == nil {
		return nil, nil
	}

	if !e.provider.IsAvailable(ctx) {
		return &model.LLMSummary{
			Enabled:  false,
			Provider: e.provider.Name(),
			Warnings: []string{
				fmt.Sprintf("provider %s is not available; explanation skipped", e.provider.Name()),
			},
		}, nil
	}

	resp, err := e.provider.Explain(ctx, ExplainRequest{
		Report:    report,
		Model:     e.config.Model,
		MaxTokens: e.config.MaxTokens,
	})
	if err != nil {
		return &model.LLMSummary{
			Enabled:  true,
			Provider: e.provider.Name(),
			Model:    e.config.Model,
			Warnings: []string{
				fmt.Sprintf("explanation failed: %v", err),
			},
		}, nil
	}

	return &model.LLMSummary{
		Enabled:  true,
		Provider: e.provider.Name(),
		Model:    resp.Model,
		Text:     resp.Text,
		Warnings: []string{
			fmt.Sprintf("Tokens used: %d", resp.TokensUsed),
		},
	}, nil
}

// RenderMarkdown renders the LLM summary as a standalone Markdown
// section. Returns "" when there is nothing to show.
func RenderMarkdown(summary *model.LLMSummary) string {
	if summary == nil || (!summary.Enabled && len(summary.Warnings) == 0) {
		return ""
	}

	var b strings.Builder
	b.WriteString("## Explanation\n\n")

	if summary.Text != "" {
		b.WriteString(summary.Text)
		b.WriteString("\n\n")
		if summary.Provider != "" {
			fmt.Fprintf(&b, "_Generated by %s", summary.Provider)
			if summary.Model != "" {
				fmt.Fprintf(&b, " (%s)", summary.Model)
			}
			b.WriteString("_\n")
		}
	} else {
		b.WriteString("_No explanation was generated._\n")
	}

	if len(summary.Warnings) > 0 {
		b.WriteString("\n")
		for _, w := range summary.Warnings {
			fmt.Fprintf(&b, "> %s\n", w)
		}
	}

	return b.String()
}
