package series

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Smooth applies a centered rolling median of the given window. A median is
// used instead of a mean so single-year spikes and data errors do not leak
// into trend fits. Near the edges the window shrinks symmetrically, so the
// window stays odd and endpoints pass through unchanged. The output has the
// same length and years as the input.
//
// Series with fewer than 2 points are returned unchanged; callers handle thin
// series through their own fallback policy.
func Smooth(s TimeSeries, window int) TimeSeries {
	n := s.Len()
	if n < 2 || window < 2 {
		return s
	}
	half := window / 2
	out := make([]float64, n)
	buf := make([]float64, 0, window)
	for i := 0; i < n; i++ {
		eff := half
		if i < eff {
			eff = i
		}
		if n-1-i < eff {
			eff = n - 1 - i
		}
		buf = buf[:0]
		for j := i - eff; j <= i+eff; j++ {
			buf = append(buf, s.values[j])
		}
		sort.Float64s(buf)
		out[i] = stat.Quantile(0.5, stat.Empirical, buf, nil)
	}
	return TimeSeries{years: append([]int(nil), s.years...), values: out}
}

// InterpolateGaps fills missing years inside the observed range by linear
// interpolation between the nearest known points. Years outside the observed
// range are never fabricated.
func InterpolateGaps(s TimeSeries) TimeSeries {
	n := s.Len()
	if n < 2 {
		return s
	}
	first, last := s.years[0], s.years[n-1]
	if last-first+1 == n {
		return s
	}
	years := make([]int, 0, last-first+1)
	values := make([]float64, 0, last-first+1)
	idx := 0
	for y := first; y <= last; y++ {
		if s.years[idx] == y {
			years = append(years, y)
			values = append(values, s.values[idx])
			idx++
			continue
		}
		// y falls between known points idx-1 and idx
		y0, y1 := s.years[idx-1], s.years[idx]
		v0, v1 := s.values[idx-1], s.values[idx]
		frac := float64(y-y0) / float64(y1-y0)
		years = append(years, y)
		values = append(values, v0+frac*(v1-v0))
	}
	return TimeSeries{years: years, values: values}
}
