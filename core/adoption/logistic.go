// Package adoption converts a cost-parity year and historical adoption-share
// observations into forward share trajectories. Disruptors follow a bounded
// logistic S-curve fit by a seeded differential-evolution search; transitional
// "chimera" technologies follow a rise-then-decay hump. Every ill-posed fit
// falls down an explicit ladder, and the tier that produced the trajectory is
// recorded for audit.
package adoption

import "math"

// Logistic is a bounded S-curve share(t) = Ceiling / (1 + exp(-Steepness*(t-Midpoint))).
type Logistic struct {
	// Ceiling is the saturation share in (0,1].
	Ceiling float64
	// Steepness controls how fast the curve rises.
	Steepness float64
	// Midpoint is the inflection year; share(Midpoint) == Ceiling/2.
	Midpoint float64
}

// Share evaluates the curve at year t. The result is always in [0, Ceiling].
func (l Logistic) Share(t float64) float64 {
	return l.Ceiling / (1 + math.Exp(-l.Steepness*(t-l.Midpoint)))
}
