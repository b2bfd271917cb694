// Package capacity forecasts installed capacity and derives annual
// generation for the energy variant. Renewable buildout at current
// penetration tracks compounding year-over-year growth, not logistic
// saturation, so capacity is projected by averaging historical YoY growth
// rates with a hard per-year ceiling.
package capacity

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/parity/core/series"
	"github.com/kilianp07/parity/core/units"
)

// Technology is the closed set of generation technologies handled by the
// energy pipeline.
type Technology int

const (
	Solar Technology = iota
	OnshoreWind
	OffshoreWind
	Battery
	Coal
	Gas
)

// String returns the config name of the technology.
func (t Technology) String() string {
	switch t {
	case Solar:
		return "solar"
	case OnshoreWind:
		return "onshore_wind"
	case OffshoreWind:
		return "offshore_wind"
	case Battery:
		return "battery"
	case Coal:
		return "coal"
	case Gas:
		return "gas"
	default:
		return "unknown"
	}
}

// ParseTechnology resolves a config name to a Technology.
func ParseTechnology(name string) (Technology, error) {
	for _, t := range []Technology{Solar, OnshoreWind, OffshoreWind, Battery, Coal, Gas} {
		if t.String() == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown technology %q", name)
}

// DefaultGrowthCap bounds any single projected year's capacity growth.
const DefaultGrowthCap = 0.5

// ForecastCapacity extends a historical capacity series (GW) to endYear by
// compounding the mean of all historical year-over-year growth rates.
// Averaging over every year pair dampens single-year anomalies that an
// endpoint CAGR would amplify. Each projected year's growth is clamped to
// [-growthCap, growthCap].
func ForecastCapacity(hist series.TimeSeries, endYear int, growthCap float64) (series.TimeSeries, error) {
	return ForecastCapacityScaled(hist, endYear, growthCap, 1)
}

// ForecastCapacityScaled is ForecastCapacity with the averaged growth rate
// multiplied by scale before the cap, used for scenario displacement-speed
// multipliers. scale <= 0 means 1.
func ForecastCapacityScaled(hist series.TimeSeries, endYear int, growthCap, scale float64) (series.TimeSeries, error) {
	if hist.Len() < 2 {
		return series.TimeSeries{}, fmt.Errorf("capacity history has %d points, need at least 2", hist.Len())
	}
	if growthCap <= 0 {
		growthCap = DefaultGrowthCap
	}
	if scale <= 0 {
		scale = 1
	}

	var rates []float64
	for i := 1; i < hist.Len(); i++ {
		prev := hist.Value(i - 1)
		if prev <= 0 {
			continue
		}
		span := float64(hist.Year(i) - hist.Year(i-1))
		rates = append(rates, (hist.Value(i)/prev-1)/span)
	}
	var growth float64
	if len(rates) > 0 {
		growth = stat.Mean(rates, nil) * scale
	}
	if growth > growthCap {
		growth = growthCap
	}
	if growth < -growthCap {
		growth = -growthCap
	}

	years := hist.Years()
	values := hist.Values()
	last := values[len(values)-1]
	for y := hist.LastYear() + 1; y <= endYear; y++ {
		last *= 1 + growth
		if last < 0 {
			last = 0
		}
		years = append(years, y)
		values = append(values, last)
	}
	return series.New(years, values)
}

// DefaultInclusionThreshold folds a minor technology into "other" when its
// capacity is below this fraction of the dominant technology's.
const DefaultInclusionThreshold = 0.01

// Significant reports whether a minor technology's capacity is large enough,
// relative to the dominant one, to track separately in the aggregate.
func Significant(minor, dominant units.Gigawatts, threshold float64) bool {
	if threshold <= 0 {
		threshold = DefaultInclusionThreshold
	}
	if dominant <= 0 {
		return minor > 0
	}
	return float64(minor) >= threshold*float64(dominant)
}
