package model

// Defect describes a structural irregularity found in a decomposition.
// Defects never abort processing: a duplicate factor id is a coherence
// problem to report, not a hard error.
type Defect struct {
	Code     string         `json:"code"`
	Severity DefectSeverity `json:"severity"`
	Detail   string         `json:"detail"`
	FactorID string         `json:"factorId,omitempty"`
}

// DefectSeverity indicates how much a defect undermines the
// decomposition's usefulness.
type DefectSeverity string

const (
	SeverityInfo     DefectSeverity = "info"
	SeverityWarning  DefectSeverity = "warning"
	SeverityCritical DefectSeverity = "critical"
)

// Defect codes.
const (
	DefectDuplicateID     = "duplicate-id"
	DefectDomainMismatch  = "domain-mismatch"
	DefectBadMultiplicity = "bad-multiplicity"
	DefectMissingMethod   = "missing-method"
	DefectEmptyID         = "empty-id"
)
