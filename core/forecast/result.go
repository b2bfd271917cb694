// Package forecast composes the per-region pipeline: clean the history,
// extend the cost curves, find the parity year, project adoption, close the
// residual accounting and certify the result. Regions are independent units
// of work; the Global view is a pure summation over completed regional
// results.
package forecast

import (
	"github.com/kilianp07/parity/core/residual"
)

// NoParityNote is the explicit statement exported when no tipping point was
// found; the result never presents a number in that case.
const NoParityNote = "no cost parity found within horizon"

// CheckResult is the export form of one validation check.
type CheckResult struct {
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// Result is the output contract for one region (or the Global aggregate).
type Result struct {
	RunID  string `json:"run_id"`
	Region string `json:"region"`
	Domain string `json:"domain"`

	Years     []int     `json:"years"`
	Market    []float64 `json:"market"`
	Disruptor []float64 `json:"disruptor"`
	Chimera   []float64 `json:"chimera,omitempty"`
	Incumbent []float64 `json:"incumbent"`

	// TippingPointYear is nil when no parity was found; see Note.
	TippingPointYear *int   `json:"tipping_point_year"`
	TippingBasis     string `json:"tipping_basis,omitempty"`
	// FallbackTier names which rung of the adoption fitting ladder produced
	// the share curve, for audit.
	FallbackTier string `json:"fallback_tier,omitempty"`
	Note         string `json:"note,omitempty"`

	// DataSource records the provenance of each input series:
	// regional, global_fallback or derived_default.
	DataSource map[string]string `json:"data_source,omitempty"`

	// Incumbents and CapacityGW carry the per-technology detail of the
	// energy variant.
	Incumbents map[string][]float64 `json:"incumbents,omitempty"`
	CapacityGW map[string][]float64 `json:"capacity_gw,omitempty"`

	Validation map[string]CheckResult `json:"validation"`
}

// ValidationPassed reports whether every check passed.
func (r Result) ValidationPassed() bool {
	for _, c := range r.Validation {
		if !c.Passed {
			return false
		}
	}
	return true
}

func exportReport(rep residual.Report) map[string]CheckResult {
	out := make(map[string]CheckResult, len(rep.Checks))
	for _, c := range rep.Checks {
		out[c.Name] = CheckResult{Passed: c.Passed, Detail: c.Detail}
	}
	return out
}
