package costcurve

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/parity/core/series"
)

// theilSenSlope returns the median of all pairwise slopes of the series.
// Robust to a noisy endpoint, which a first-to-last CAGR is not.
func theilSenSlope(s series.TimeSeries) float64 {
	n := s.Len()
	slopes := make([]float64, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dy := s.Value(j) - s.Value(i)
			dx := float64(s.Year(j) - s.Year(i))
			slopes = append(slopes, dy/dx)
		}
	}
	sort.Float64s(slopes)
	return stat.Quantile(0.5, stat.Empirical, slopes, nil)
}
