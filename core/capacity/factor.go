package capacity

import (
	"github.com/kilianp07/parity/core/units"
)

// FactorBandMin and FactorBandMax bound every capacity factor to a
// physically plausible range regardless of configuration.
const (
	FactorBandMin = 0.05
	FactorBandMax = 0.70
)

// Factor models a capacity factor that improves additively over time, e.g.
// +0.3 percentage points per year, up to a cap. Improvements are additive
// rather than multiplicative: efficiency gains arrive as increments, not
// compounding returns.
type Factor struct {
	Base               float64
	ImprovementPerYear float64
	Max                float64
	BaseYear           int
}

// At returns the capacity factor for the given year, clamped to the
// configured cap and the global plausibility band.
func (f Factor) At(year int) float64 {
	cf := f.Base
	if year > f.BaseYear {
		cf += f.ImprovementPerYear * float64(year-f.BaseYear)
	}
	max := f.Max
	if max <= 0 || max > FactorBandMax {
		max = FactorBandMax
	}
	if cf > max {
		cf = max
	}
	if cf < FactorBandMin {
		cf = FactorBandMin
	}
	return cf
}

// DeriveGeneration converts installed capacity to annual generation using
// the technology's capacity factor for that year.
func DeriveGeneration(capacity units.Gigawatts, f Factor, year int) units.TerawattHours {
	return units.Generation(capacity, f.At(year))
}
