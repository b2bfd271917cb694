// Package series provides the immutable annual time series type shared by all
// forecasting components, along with smoothing and gap interpolation used to
// clean historical data before any trend fitting.
package series

import (
	"fmt"
)

// TimeSeries is an ordered sequence of (year, value) pairs. Years are strictly
// increasing with no duplicates. Instances are immutable: transformations
// return new series and accessors return copies.
type TimeSeries struct {
	years  []int
	values []float64
}

// New validates the pairs and builds a TimeSeries.
func New(years []int, values []float64) (TimeSeries, error) {
	if len(years) != len(values) {
		return TimeSeries{}, fmt.Errorf("series: %d years but %d values", len(years), len(values))
	}
	for i := 1; i < len(years); i++ {
		if years[i] <= years[i-1] {
			return TimeSeries{}, fmt.Errorf("series: years not strictly increasing at index %d (%d after %d)", i, years[i], years[i-1])
		}
	}
	ys := make([]int, len(years))
	vs := make([]float64, len(values))
	copy(ys, years)
	copy(vs, values)
	return TimeSeries{years: ys, values: vs}, nil
}

// MustNew is New for literals known to be valid; it panics on invalid input.
func MustNew(years []int, values []float64) TimeSeries {
	s, err := New(years, values)
	if err != nil {
		panic(err)
	}
	return s
}

// Len returns the number of points.
func (s TimeSeries) Len() int { return len(s.years) }

// Year returns the year at index i.
func (s TimeSeries) Year(i int) int { return s.years[i] }

// Value returns the value at index i.
func (s TimeSeries) Value(i int) float64 { return s.values[i] }

// FirstYear returns the earliest year. Panics on an empty series.
func (s TimeSeries) FirstYear() int { return s.years[0] }

// LastYear returns the latest year. Panics on an empty series.
func (s TimeSeries) LastYear() int { return s.years[len(s.years)-1] }

// Years returns a copy of the year slice.
func (s TimeSeries) Years() []int {
	ys := make([]int, len(s.years))
	copy(ys, s.years)
	return ys
}

// Values returns a copy of the value slice.
func (s TimeSeries) Values() []float64 {
	vs := make([]float64, len(s.values))
	copy(vs, s.values)
	return vs
}

// At returns the value for the given year and whether it is present.
func (s TimeSeries) At(year int) (float64, bool) {
	lo, hi := 0, len(s.years)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		switch {
		case s.years[mid] == year:
			return s.values[mid], true
		case s.years[mid] < year:
			lo = mid + 1
		default:
			hi = mid - 1
		}
	}
	return 0, false
}

// Tail returns the last n points as a new series. If the series has fewer
// than n points the whole series is returned.
func (s TimeSeries) Tail(n int) TimeSeries {
	if n >= len(s.years) {
		return s
	}
	start := len(s.years) - n
	return TimeSeries{years: append([]int(nil), s.years[start:]...), values: append([]float64(nil), s.values[start:]...)}
}

// Align restricts both series to the years present in each and returns the
// aligned pair. The result series share the same year axis.
func Align(a, b TimeSeries) (TimeSeries, TimeSeries) {
	var years []int
	var av, bv []float64
	for i, y := range a.years {
		if v, ok := b.At(y); ok {
			years = append(years, y)
			av = append(av, a.values[i])
			bv = append(bv, v)
		}
	}
	return TimeSeries{years: years, values: av}, TimeSeries{years: append([]int(nil), years...), values: bv}
}
