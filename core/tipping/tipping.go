// Package tipping finds the cost-parity year between two forecast cost
// curves. Detection is a pure function of the two curves.
package tipping

import (
	"github.com/kilianp07/parity/core/costcurve"
	"github.com/kilianp07/parity/core/series"
)

// Basis explains how the tipping year was decided.
type Basis int

const (
	// BasisFirstCrossing marks a regular crossover inside the compared range.
	BasisFirstCrossing Basis = iota
	// BasisAlwaysCheaper means the disruptor was already cheaper at the first
	// compared year; there is no pre-tipping period to model.
	BasisAlwaysCheaper
	// BasisNeverCheaper means no parity was found in the compared range.
	BasisNeverCheaper
)

// String returns the audit name of the basis.
func (b Basis) String() string {
	switch b {
	case BasisFirstCrossing:
		return "first_crossing"
	case BasisAlwaysCheaper:
		return "always_cheaper"
	case BasisNeverCheaper:
		return "never_cheaper"
	default:
		return "unknown"
	}
}

// TippingPoint is the first year the disruptor is strictly cheaper than the
// incumbent, if any. Later re-crossings are deliberately ignored: the first
// parity event is the commercially relevant one.
type TippingPoint struct {
	Year  int
	Found bool
	Basis Basis
}

// YearPtr returns the year as a pointer, nil when no parity was found.
// Matches the null semantics of the exported result contract.
func (t TippingPoint) YearPtr() *int {
	if !t.Found {
		return nil
	}
	y := t.Year
	return &y
}

// Detect compares the two curves over their overlapping years and returns the
// first year the disruptor cost is strictly below the incumbent cost. Curves
// from different regional fallbacks may start at different years, so only the
// intersection of years is ever compared.
func Detect(disruptor, incumbent costcurve.CostCurve) TippingPoint {
	d, i := series.Align(disruptor.Series, incumbent.Series)
	for idx := 0; idx < d.Len(); idx++ {
		if d.Value(idx) < i.Value(idx) {
			basis := BasisFirstCrossing
			if idx == 0 {
				basis = BasisAlwaysCheaper
			}
			return TippingPoint{Year: d.Year(idx), Found: true, Basis: basis}
		}
	}
	return TippingPoint{Basis: BasisNeverCheaper}
}
