package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/ltikhonov/primordia/internal/llm"
	"github.com/ltikhonov/primordia/internal/model"
	"github.com/ltikhonov/primordia/internal/validate"
)

// canonicalSnippetLimit caps the canonical value excerpt in Markdown
// reports so huge inputs stay readable.
const canonicalSnippetLimit = 2048

// Renderer writes reports as JSON, Markdown and terminal summaries
type Renderer struct {
	includeFooter bool
	out           io.Writer
}

// NewRenderer creates a new renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{
		includeFooter: includeFooter,
		out:           os.Stdout,
	}
}

// RenderJSON writes the full report as indented JSON
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// RenderMarkdown writes the report as a human-readable Markdown document
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	var b strings.Builder

	b.WriteString("# Primordia Report\n\n")
	fmt.Fprintf(&b, "- **Source:** %s\n", report.Source)
	fmt.Fprintf(&b, "- **Domain:** %s\n", report.Domain)
	if report.Format != "" {
		fmt.Fprintf(&b, "- **Format:** %s\n", report.Format)
	}
	fmt.Fprintf(&b, "- **Processed:** %s\n", report.ProcessedAt.Format("2006-01-02 15:04:05 UTC"))
	if report.Fetch != nil {
		fmt.Fprintf(&b, "- **Fetched:** HTTP %d", report.Fetch.StatusCode)
		if report.Fetch.ContentType != "" {
			fmt.Fprintf(&b, ", %s", report.Fetch.ContentType)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	r.writeMeasures(&b, report)
	r.writeFactorProfile(&b, report.Decomposition)
	r.writeCanonical(&b, report.Canonical)
	r.writeDefects(&b, report.Defects)

	if md := llm.RenderMarkdown(report.LLM); md != "" {
		b.WriteString(md)
		b.WriteString("\n")
	}

	if r.includeFooter {
		b.WriteString("---\n\n")
		b.WriteString("_Primordia measures how coherently a decomposition represents its input. It never judges whether the input is correct._\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (r *Renderer) writeMeasures(b *strings.Builder, report *model.Report) {
	if len(report.Measures) == 0 {
		return
	}

	b.WriteString("## Coherence Measures\n\n")
	b.WriteString("| Metric | Value | Normalization | Frame |\n")
	b.WriteString("|--------|-------|---------------|-------|\n")
	for _, m := range report.Measures {
		fmt.Fprintf(b, "| %s | %.3f | %s | %s |\n", m.Metric, m.Value, m.Normalization, m.ReferenceFrame)
	}
	b.WriteString("\n")
}

func (r *Renderer) writeFactorProfile(b *strings.Builder, d *model.Decomposition) {
	if d == nil {
		return
	}

	b.WriteString("## Factor Profile\n\n")

	kinds, counts, multiplicities := factorKinds(d)
	if len(kinds) > 0 {
		b.WriteString("| Kind | Factors | Total multiplicity |\n")
		b.WriteString("|------|---------|--------------------|\n")
		for _, k := range kinds {
			fmt.Fprintf(b, "| %s | %d | %d |\n", k, counts[k], multiplicities[k])
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(b, "%d factors via `%s`", len(d.Factors), d.Method)
	if d.UniquenessProofRef != "" {
		fmt.Fprintf(b, ", uniqueness `%s`", d.UniquenessProofRef)
	}
	b.WriteString("\n\n")
}

func (r *Renderer) writeCanonical(b *strings.Builder, c *model.CanonicalRepresentation) {
	if c == nil {
		return
	}

	b.WriteString("## Canonical Form\n\n")
	fmt.Fprintf(b, "- **Kind:** %s\n", c.Kind)
	fmt.Fprintf(b, "- **Coherence norm:** %.3f\n", c.CoherenceNorm)
	if c.MinimalityProofRef != "" {
		fmt.Fprintf(b, "- **Minimality proof:** `%s`\n", c.MinimalityProofRef)
	}
	b.WriteString("\n")

	if snippet := canonicalSnippet(c.Value); snippet != "" {
		b.WriteString("```json\n")
		b.WriteString(snippet)
		b.WriteString("\n```\n\n")
	}
}

func (r *Renderer) writeDefects(b *strings.Builder, defects []model.Defect) {
	if len(defects) == 0 {
		return
	}

	b.WriteString("## Defects\n\n")
	for _, d := range defects {
		fmt.Fprintf(b, "- **%s** %s: %s", d.Severity, d.Code, d.Detail)
		if d.FactorID != "" {
			fmt.Fprintf(b, " (factor `%s`)", d.FactorID)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

// RenderSummary prints a short human summary to the terminal
func (r *Renderer) RenderSummary(report *model.Report) {
	fmt.Fprintf(r.out, "\n")
	fmt.Fprintf(r.out, "Source:  %s\n", report.Source)
	fmt.Fprintf(r.out, "Domain:  %s", report.Domain)
	if report.Format != "" {
		fmt.Fprintf(r.out, " (%s)", report.Format)
	}
	fmt.Fprintf(r.out, "\n")

	if report.Decomposition != nil {
		fmt.Fprintf(r.out, "Factors: %d\n", len(report.Decomposition.Factors))
	}
	if report.Canonical != nil {
		fmt.Fprintf(r.out, "Canonical norm: %.3f\n", report.Canonical.CoherenceNorm)
	}

	if len(report.Measures) > 0 {
		fmt.Fprintf(r.out, "\nMeasures:\n")
		for _, m := range report.Measures {
			fmt.Fprintf(r.out, "  %-30s %.3f  (%s)\n", m.Metric, m.Value, m.Normalization)
		}
	}

	if len(report.Defects) > 0 {
		fmt.Fprintf(r.out, "\nDefects: %d (max severity: %s)\n", len(report.Defects), maxSeverityLabel(report.Defects))
		for _, d := range report.Defects {
			fmt.Fprintf(r.out, "  [%s] %s: %s\n", d.Severity, d.Code, d.Detail)
		}
	}

	if report.LLM != nil && report.LLM.Text != "" {
		fmt.Fprintf(r.out, "\nExplanation (%s):\n%s\n", report.LLM.Provider, report.LLM.Text)
	}

	fmt.Fprintf(r.out, "\n")
}

// factorKinds groups factor ids by their prefix before the first colon
func factorKinds(d *model.Decomposition) ([]string, map[string]int, map[string]int) {
	counts := make(map[string]int)
	multiplicities := make(map[string]int)

	for _, f := range d.Factors {
		kind := f.ID
		if idx := strings.IndexByte(kind, ':'); idx > 0 {
			kind = kind[:idx]
		}
		counts[kind]++
		multiplicities[kind] += f.Multiplicity
	}

	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	return kinds, counts, multiplicities
}

// canonicalSnippet renders the canonical value as indented JSON,
// truncated for readability.
func canonicalSnippet(value any) string {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return ""
	}
	if len(data) > canonicalSnippetLimit {
		return string(data[:canonicalSnippetLimit]) + "\n... (truncated)"
	}
	return string(data)
}

func maxSeverityLabel(defects []model.Defect) string {
	if s := validate.MaxSeverity(defects); s != "" {
		return string(s)
	}
	return "none"
}
