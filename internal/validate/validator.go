// Package validate inspects decompositions for structural defects.
// Defects are findings, not failures: they feed the factor-integrity
// score and the report, and never abort processing.
package validate

import (
	"fmt"

	"github.com/ltikhonov/primordia/internal/model"
)

// Check runs every defect rule against a decomposition. The returned
// defects follow factor order; a nil or empty decomposition yields
// none beyond the method check.
func Check(d *model.Decomposition) []model.Defect {
	if d == nil {
		return nil
	}

	var defects []model.Defect
	defects = append(defects, checkMethod(d)...)
	defects = append(defects, checkFactors(d)...)
	return defects
}

func checkMethod(d *model.Decomposition) []model.Defect {
	if d.Method == "" {
		return []model.Defect{{
			Code:     model.DefectMissingMethod,
			Severity: model.SeverityWarning,
			Detail:   "decomposition carries no method tag",
		}}
	}
	if model.DomainOfMethod(d.Method) == "" {
		return []model.Defect{{
			Code:     model.DefectMissingMethod,
			Severity: model.SeverityInfo,
			Detail:   fmt.Sprintf("method tag %q is not in <domain>/<version> form", d.Method),
		}}
	}
	return nil
}

func checkFactors(d *model.Decomposition) []model.Defect {
	domain := model.DomainOfMethod(d.Method)
	seen := make(map[string]bool, len(d.Factors))

	var defects []model.Defect
	for i, f := range d.Factors {
		if f.ID == "" {
			defects = append(defects, model.Defect{
				Code:     model.DefectEmptyID,
				Severity: model.SeverityCritical,
				Detail:   fmt.Sprintf("factor %d has an empty id", i),
			})
			continue
		}
		if seen[f.ID] {
			defects = append(defects, model.Defect{
				Code:     model.DefectDuplicateID,
				Severity: model.SeverityWarning,
				Detail:   fmt.Sprintf("factor id %q appears more than once", f.ID),
				FactorID: f.ID,
			})
		}
		seen[f.ID] = true

		if f.Multiplicity < 1 {
			defects = append(defects, model.Defect{
				Code:     model.DefectBadMultiplicity,
				Severity: model.SeverityWarning,
				Detail:   fmt.Sprintf("multiplicity %d is below 1", f.Multiplicity),
				FactorID: f.ID,
			})
		}
		if domain != "" && f.Domain != domain {
			defects = append(defects, model.Defect{
				Code:     model.DefectDomainMismatch,
				Severity: model.SeverityWarning,
				Detail:   fmt.Sprintf("factor domain %q differs from method domain %q", f.Domain, domain),
				FactorID: f.ID,
			})
		}
	}
	return defects
}

// MaxSeverity returns the highest severity present, or "" for a clean
// decomposition.
func MaxSeverity(defects []model.Defect) model.DefectSeverity {
	rank := map[model.DefectSeverity]int{
		model.SeverityInfo:     1,
		model.SeverityWarning:  2,
		model.SeverityCritical: 3,
	}
	var max model.DefectSeverity
	for _, d := range defects {
		if rank[d.Severity] > rank[max] {
			max = d.Severity
		}
	}
	return max
}
