package series

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// LinearTrend extends the series to endYear by ordinary least squares on the
// observed points, clamping projected values to zero from below. Used for
// quantities that drift rather than compound, like market totals and
// non-displaceable baseline generation.
func LinearTrend(s TimeSeries, endYear int) (TimeSeries, error) {
	if s.Len() < 2 {
		return TimeSeries{}, fmt.Errorf("trend needs at least 2 points, have %d", s.Len())
	}
	xs := make([]float64, s.Len())
	for i := range xs {
		xs[i] = float64(s.Year(i))
	}
	alpha, beta := stat.LinearRegression(xs, s.Values(), nil, false)

	years := s.Years()
	values := s.Values()
	for y := s.LastYear() + 1; y <= endYear; y++ {
		v := alpha + beta*float64(y)
		if v < 0 {
			v = 0
		}
		years = append(years, y)
		values = append(values, v)
	}
	return New(years, values)
}
