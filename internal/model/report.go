package model

import "time"

// Report is the complete result of processing one input: the
// decomposition, its canonical form, the coherence measures over both,
// and any structural defects found along the way.
type Report struct {
	Source      string      `json:"source"`
	Domain      Domain      `json:"domain"`
	Format      string      `json:"format,omitempty"`
	ProcessedAt time.Time   `json:"processedAt"`
	Fetch       *SourceMeta `json:"fetch,omitempty"`

	Decomposition *Decomposition           `json:"decomposition"`
	Canonical     *CanonicalRepresentation `json:"canonical"`
	Measures      []CoherenceMeasure       `json:"measures"`
	Defects       []Defect                 `json:"defects,omitempty"`

	// LLM is an optional plain-language explanation. It is generated
	// after scoring and never affects any measure.
	LLM *LLMSummary `json:"llm,omitempty"`
}

// Measure returns the named measure from the report, or nil.
func (r *Report) Measure(metric string) *CoherenceMeasure {
	for i := range r.Measures {
		if r.Measures[i].Metric == metric {
			return &r.Measures[i]
		}
	}
	return nil
}

// SourceMeta records HTTP metadata for inputs fetched from a URL.
type SourceMeta struct {
	StatusCode   int    `json:"statusCode"`
	ContentType  string `json:"contentType,omitempty"`
	LastModified string `json:"lastModified,omitempty"`
	ETag         string `json:"etag,omitempty"`
	FinalURL     string `json:"finalUrl,omitempty"`
}

// LLMSummary carries the optional model-generated explanation of a
// report. Clearly separated from scoring by construction: it is
// attached after every measure has been computed.
type LLMSummary struct {
	Enabled  bool     `json:"enabled"`
	Provider string   `json:"provider,omitempty"`
	Model    string   `json:"model,omitempty"`
	Text     string   `json:"text,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}
