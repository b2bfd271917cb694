package adoption

import "math"

// Hump models a transitional technology share: a linear rise toward a peak at
// the tipping year, then an exponential decay with the configured half-life.
type Hump struct {
	StartYear  int
	StartShare float64
	PeakYear   int
	PeakShare  float64
	// HalfLife is the post-peak decay half-life in years.
	HalfLife float64
}

// Share evaluates the hump at year t, clamped to [0, 1].
func (h Hump) Share(t float64) float64 {
	var s float64
	switch {
	case t <= float64(h.StartYear):
		s = h.StartShare
	case t < float64(h.PeakYear):
		frac := (t - float64(h.StartYear)) / float64(h.PeakYear-h.StartYear)
		s = h.StartShare + frac*(h.PeakShare-h.StartShare)
	default:
		s = h.PeakShare * math.Pow(0.5, (t-float64(h.PeakYear))/h.HalfLife)
	}
	return clamp01(s)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
