package costcurve

import (
	"fmt"
	"math"

	"github.com/kilianp07/parity/core/logger"
	"github.com/kilianp07/parity/core/series"
)

// DataInsufficientError reports a series too thin for the requested
// operation. It always names the offending series so the caller can decide
// whether to supply an external rate or abort that forecast leg.
type DataInsufficientError struct {
	Series string
	Points int
	Min    int
}

func (e *DataInsufficientError) Error() string {
	return fmt.Sprintf("series %s has %d points, need at least %d", e.Series, e.Points, e.Min)
}

// minPointsTheilSen is the threshold below which the fit falls back to a
// simple endpoint CAGR.
const minPointsTheilSen = 4

// Forecaster extends cost series under an exponential trend assumption.
type Forecaster struct {
	// SmoothingWindow is the rolling-median window applied before fitting.
	SmoothingWindow int
	// CAGRCap bounds the absolute fitted annual rate. Zero disables the
	// cap. Explicit scenario rates are never capped.
	CAGRCap float64
	Log     logger.Logger
}

// NewForecaster returns a Forecaster with the given smoothing window and rate cap.
func NewForecaster(window int, cagrCap float64, log logger.Logger) Forecaster {
	if window <= 0 {
		window = 3
	}
	return Forecaster{SmoothingWindow: window, CAGRCap: cagrCap, Log: log}
}

// Forecast extends hist to endYear. Historical years keep their raw values;
// later years compound the fitted annual rate from the last historical value.
// scenarioRate, when non-nil, replaces the fitted rate entirely.
func (f Forecaster) Forecast(name string, hist series.TimeSeries, role Role, basis string, endYear int, scenarioRate *float64) (CostCurve, error) {
	if hist.Len() == 0 {
		return CostCurve{}, &DataInsufficientError{Series: name, Points: 0, Min: 2}
	}
	if hist.Len() < 2 && scenarioRate == nil {
		return CostCurve{}, &DataInsufficientError{Series: name, Points: hist.Len(), Min: 2}
	}
	for i := 0; i < hist.Len(); i++ {
		if hist.Value(i) <= 0 {
			return CostCurve{}, fmt.Errorf("series %s: non-positive cost %v at year %d", name, hist.Value(i), hist.Year(i))
		}
	}

	var rate float64
	var source RateSource
	switch {
	case scenarioRate != nil:
		rate = *scenarioRate
		source = RateScenario
	default:
		clean := series.Smooth(series.InterpolateGaps(hist), f.SmoothingWindow)
		logYears := clean.Years()
		logValues := clean.Values()
		for i, v := range logValues {
			logValues[i] = math.Log(v)
		}
		logSeries := series.MustNew(logYears, logValues)
		if clean.Len() >= minPointsTheilSen {
			rate = math.Exp(theilSenSlope(logSeries)) - 1
			source = RateTheilSen
		} else {
			elapsed := float64(clean.LastYear() - clean.FirstYear())
			rate = math.Exp(math.Log(clean.Value(clean.Len()-1)/clean.Value(0))/elapsed) - 1
			source = RateEndpoint
		}
		if f.CAGRCap > 0 && math.Abs(rate) > f.CAGRCap {
			capped := math.Copysign(f.CAGRCap, rate)
			if f.Log != nil {
				f.Log.Warnf("series %s: fitted rate %.4f capped to %.4f", name, rate, capped)
			}
			rate = capped
		}
	}

	years := hist.Years()
	values := hist.Values()
	last := values[len(values)-1]
	for y := hist.LastYear() + 1; y <= endYear; y++ {
		last *= 1 + rate
		years = append(years, y)
		values = append(values, last)
	}
	ext, err := series.New(years, values)
	if err != nil {
		return CostCurve{}, err
	}
	if f.Log != nil {
		f.Log.Debugw("cost curve forecast", map[string]any{
			"series": name, "role": role.String(), "rate": rate, "rate_source": source.String(), "end_year": endYear,
		})
	}
	return CostCurve{
		Name:          name,
		Role:          role,
		Basis:         basis,
		Series:        ext,
		HistoricalEnd: hist.LastYear(),
		Rate:          rate,
		RateSource:    source,
	}, nil
}
