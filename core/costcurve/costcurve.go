// Package costcurve extends historical technology cost series to a horizon
// year. Costs are modeled as exponential decline or growth: the trend is fit
// on log-transformed values, with a Theil-Sen estimator when enough points
// exist and an endpoint CAGR otherwise. A scenario may pin the rate instead.
package costcurve

import "github.com/kilianp07/parity/core/series"

// Role tags a curve as the declining challenger or the legacy technology.
type Role int

const (
	RoleDisruptor Role = iota
	RoleIncumbent
)

// String returns the config name of the role.
func (r Role) String() string {
	switch r {
	case RoleDisruptor:
		return "disruptor"
	case RoleIncumbent:
		return "incumbent"
	default:
		return "unknown"
	}
}

// RateSource records how the annual rate used for projection was obtained.
type RateSource int

const (
	// RateTheilSen is the median of all pairwise slopes on the log series.
	RateTheilSen RateSource = iota
	// RateEndpoint is a simple first-to-last CAGR, used below 4 points.
	RateEndpoint
	// RateScenario is an explicit per-technology rate from the scenario.
	RateScenario
)

// String returns the audit name of the rate source.
func (r RateSource) String() string {
	switch r {
	case RateTheilSen:
		return "theil_sen"
	case RateEndpoint:
		return "endpoint_cagr"
	case RateScenario:
		return "scenario"
	default:
		return "unknown"
	}
}

// CostCurve is a cost series extended beyond its last historical year.
type CostCurve struct {
	Name  string
	Role  Role
	Basis string // e.g. "$/MWh", "$/mile"

	// Series holds historical values verbatim up to HistoricalEnd and
	// compounded projections after it.
	Series        series.TimeSeries
	HistoricalEnd int

	// Rate is the annual growth rate applied during projection; negative
	// for declining costs.
	Rate       float64
	RateSource RateSource
}

// Historical returns the historical prefix of the curve.
func (c CostCurve) Historical() series.TimeSeries {
	n := 0
	for n < c.Series.Len() && c.Series.Year(n) <= c.HistoricalEnd {
		n++
	}
	years := c.Series.Years()[:n]
	values := c.Series.Values()[:n]
	return series.MustNew(years, values)
}
