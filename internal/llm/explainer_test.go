package llm

import (
	"context"
	"strings"
	"testing"

	"github.com/ltikhonov/primordia/internal/model"
)

// mockProvider implements the Provider interface for testing
type mockProvider struct {
	name      string
	available bool
	response  *ExplainResponse
	err       error
}

func (m *mockProvider) Name() string {
	return m.name
}

func (m *mockProvider) Explain(ctx context.Context, req ExplainRequest) (*ExplainResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

func (m *mockProvider) IsAvailable(ctx context.Context) bool {
	return m.available
}

type mockError struct {
	msg string
}

func (e *mockError) Error() string {
	return e.msg
}

func sampleReport() model.Report {
	return model.Report{
		Source: "sample.json",
		Domain: model.DomainStructured,
		Decomposition: &model.Decomposition{
			Method: model.MethodTag(model.DomainStructured),
			Factors: []model.PrimeFactor{
				{ID: "structure", Domain: model.DomainStructured, Multiplicity: 1},
				{ID: "value:$.a", Domain: model.DomainStructured, Multiplicity: 1},
				{ID: "value:$.b", Domain: model.DomainStructured, Multiplicity: 1},
			},
		},
		Measures: []model.CoherenceMeasure{
			{Metric: model.MetricCompleteness, Value: 0.8, Normalization: model.NormalizationLog},
			{Metric: model.MetricIntegrity, Value: 1.0, Normalization: model.NormalizationRatio},
		},
	}
}

func TestNewExplainer_DisabledProvider(t *testing.T) {
	explainer, err := NewExplainer(Config{Provider: ""})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if explainer.provider != nil {
		t.Error("Expected provider to be nil when disabled")
	}
	if explainer.IsEnabled() {
		t.Error("Expected explainer to be disabled")
	}
	if explainer.ProviderName() != "" {
		t.Error("Expected empty provider name when disabled")
	}
}

func TestNewExplainer_UnknownProvider(t *testing.T) {
	_, err := NewExplainer(Config{Provider: "watson"})
	if err == nil {
		t.Fatal("Expected error for unknown provider")
	}
}

func TestExplainer_Disabled(t *testing.T) {
	explainer := &Explainer{provider: nil, config: Config{}}

	summary, err := explainer.GenerateExplanation(context.Background(), sampleReport())
	if err != nil {
		t.Errorf("Expected no error when disabled, got %v", err)
	}
	if summary != nil {
		t.Error("Expected nil summary when provider disabled")
	}
}

func TestExplainer_ProviderUnavailable(t *testing.T) {
	explainer := &Explainer{
		provider: &mockProvider{name: "test-provider", available: false},
		config:   Config{},
	}

	summary, err := explainer.GenerateExplanation(context.Background(), sampleReport())
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if summary == nil {
		t.Fatal("Expected summary object with warnings")
	}
	if summary.Enabled {
		t.Error("Expected summary to be marked as disabled")
	}

	found := false
	for _, warning := range summary.Warnings {
		if strings.Contains(warning, "not available") {
			found = true
			break
		}
	}
	if !found {
		t.Error("Expected warning about provider unavailability")
	}
}

func TestExplainer_Success(t *testing.T) {
	explainer := &Explainer{
		provider: &mockProvider{
			name:      "test-provider",
			available: true,
			response: &ExplainResponse{
				Text:       "The decomposition covers the input well.",
				Model:      "test-model",
				TokensUsed: 150,
			},
		},
		config: Config{Model: "test-model"},
	}

	summary, err := explainer.GenerateExplanation(context.Background(), sampleReport())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if summary == nil {
		t.Fatal("Expected summary to be generated")
	}
	if !summary.Enabled {
		t.Error("Expected summary to be enabled")
	}
	if summary.Provider != "test-provider" {
		t.Errorf("Expected provider 'test-provider', got %q", summary.Provider)
	}
	if summary.Model != "test-model" {
		t.Errorf("Expected model 'test-model', got %q", summary.Model)
	}
	if summary.Text != "The decomposition covers the input well." {
		t.Errorf("Unexpected text: %q", summary.Text)
	}

	foundTokens := false
	for _, warning := range summary.Warnings {
		if strings.Contains(warning, "Tokens used") {
			foundTokens = true
		}
	}
	if !foundTokens {
		t.Error("Expected warning about tokens used")
	}
}

func TestExplainer_ProviderError(t *testing.T) {
	explainer := &Explainer{
		provider: &mockProvider{
			name:      "test-provider",
			available: true,
			err:       &mockError{msg: "API rate limit exceeded"},
		},
		config: Config{Model: "test-model"},
	}

	summary, err := explainer.GenerateExplanation(context.Background(), sampleReport())

	// Should not fail the entire run, just return summary with warnings
	if err != nil {
		t.Errorf("Expected no error (graceful degradation), got %v", err)
	}
	if summary == nil {
		t.Fatal("Expected summary with error warning")
	}
	if !summary.Enabled {
		t.Error("Expected summary to be marked as enabled (but failed)")
	}
	if len(summary.Warnings) == 0 {
		t.Fatal("Expected warning about generation failure")
	}

	found := false
	for _, warning := range summary.Warnings {
		if strings.Contains(warning, "failed") && strings.Contains(warning, "rate limit") {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("Expected warning to mention error: %v", summary.Warnings)
	}
}

func TestRenderMarkdown_Nil(t *testing.T) {
	if md := RenderMarkdown(nil); md != "" {
		t.Errorf("Expected empty string for nil summary, got %q", md)
	}
}

func TestRenderMarkdown_DisabledWithoutWarnings(t *testing.T) {
	if md := RenderMarkdown(&model.LLMSummary{Enabled: false}); md != "" {
		t.Errorf("Expected empty string, got %q", md)
	}
}

func TestRenderMarkdown_Success(t *testing.T) {
	md := RenderMarkdown(&model.LLMSummary{
		Enabled:  true,
		Provider: "openai",
		Model:    "gpt-4o-mini",
		Text:     "A short explanation.",
		Warnings: []string{"Tokens used: 42"},
	})

	if !strings.Contains(md, "## Explanation") {
		t.Error("Expected section heading")
	}
	if !strings.Contains(md, "A short explanation.") {
		t.Error("Expected explanation text")
	}
	if !strings.Contains(md, "openai") || !strings.Contains(md, "gpt-4o-mini") {
		t.Error("Expected provider attribution")
	}
	if !strings.Contains(md, "Tokens used: 42") {
		t.Error("Expected warnings rendered")
	}
}

func TestRenderMarkdown_NoText(t *testing.T) {
	md := RenderMarkdown(&model.LLMSummary{
		Enabled:  true,
		Provider: "ollama",
		Warnings: []string{"explanation failed: connection refused"},
	})

	if !strings.Contains(md, "No explanation was generated") {
		t.Errorf("Expected placeholder text, got %q", md)
	}
	if !strings.Contains(md, "connection refused") {
		t.Error("Expected warning rendered")
	}
}

func TestBuildPrompt_BasicStructure(t *testing.T) {
	prompt := BuildPrompt(sampleReport())

	for _, want := range []string{
		"Source: sample.json",
		"Domain: structured-data",
		"Factors: 3",
		"representation-completeness: 0.800",
		"factor-integrity: 1.000",
		"Never invent",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Expected prompt to contain %q", want)
		}
	}
}

func TestBuildPrompt_FactorKinds(t *testing.T) {
	prompt := BuildPrompt(sampleReport())

	if !strings.Contains(prompt, "structure (1)") {
		t.Errorf("Expected structure count in prompt:\n%s", prompt)
	}
	if !strings.Contains(prompt, "value (2)") {
		t.Errorf("Expected value count in prompt:\n%s", prompt)
	}
}

func TestBuildPrompt_NoDecomposition(t *testing.T) {
	prompt := BuildPrompt(model.Report{Source: "x", Domain: model.DomainText})
	if strings.Contains(prompt, "Factors:") {
		t.Error("Expected no factor section without a decomposition")
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	if config.Provider != "" {
		t.Error("Expected LLM disabled by default")
	}
	if config.Timeout != 30 {
		t.Errorf("Expected timeout 30, got %d", config.Timeout)
	}
	if config.MaxTokens != 800 {
		t.Errorf("Expected max tokens 800, got %d", config.MaxTokens)
	}
}

func TestConfigFromModel(t *testing.T) {
	config := ConfigFromModel(
		model.LLMConfig{
			Provider:  "openai",
			Model:     "gpt-4o-mini",
			APIKey:    "sk-test",
			Timeout:   10,
			MaxTokens: 400,
		},
		model.HTTPConfig{HTTPProxy: "http://proxy:3128"},
	)

	if config.Provider != "openai" || config.Model != "gpt-4o-mini" {
		t.Errorf("Unexpected provider config: %+v", config)
	}
	if config.APIKey != "sk-test" {
		t.Error("Expected API key carried over")
	}
	if config.HTTPProxy != "http://proxy:3128" {
		t.Error("Expected proxy carried over from HTTP config")
	}
}

func TestNewProvider_Empty(t *testing.T) {
	provider, err := NewProvider(Config{Provider: ""})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if provider != nil {
		t.Error("Expected nil provider when disabled")
	}
}

func TestNewProvider_CaseInsensitive(t *testing.T) {
	provider, err := NewProvider(Config{Provider: "OpenAI", APIKey: "sk-test"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if provider == nil || provider.Name() != "openai" {
		t.Errorf("Expected openai provider, got %v", provider)
	}
}

func TestNewProvider_ClaudeAlias(t *testing.T) {
	provider, err := NewProvider(Config{Provider: "claude", APIKey: "sk-test"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if provider == nil || provider.Name() != "anthropic" {
		t.Errorf("Expected anthropic provider, got %v", provider)
	}
}
