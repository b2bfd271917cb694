package config

import (
	"github.com/kilianp07/parity/core/adoption"
	"github.com/kilianp07/parity/core/capacity"
	"github.com/kilianp07/parity/core/displacement"
	"github.com/kilianp07/parity/core/forecast"
	"github.com/kilianp07/parity/core/residual"
	"github.com/kilianp07/parity/core/units"
)

// ScenarioConfig is the operator-tunable half of a run: everything here has a
// working default, so an empty scenario block is a valid baseline run.
type ScenarioConfig struct {
	EndYear         int     `json:"end_year" default:"2040" validate:"gt=2000,lte=2200"`
	SmoothingWindow int     `json:"smoothing_window" default:"3" validate:"gte=1"`
	CAGRCap         float64 `json:"cagr_cap" default:"0.3" validate:"gte=0,lte=1"`

	// CostDeclineRate overrides the fitted annual rate per cost series, keyed
	// by series name (e.g. "disruptor_cost"). Overrides are taken as-is and
	// never capped.
	CostDeclineRate map[string]float64 `json:"cost_decline_rate"`

	// DisplacementSpeedMultiplier scales adoption steepness (vehicle) or
	// capacity growth (energy) for what-if runs. 1 is neutral.
	DisplacementSpeedMultiplier float64 `json:"displacement_speed_multiplier" default:"1" validate:"gte=0"`

	LogisticCeiling float64 `json:"logistic_ceiling" default:"1" validate:"gt=0,lte=1"`
	KMin            float64 `json:"k_min" default:"0.05" validate:"gt=0"`
	KMax            float64 `json:"k_max" default:"1.5" validate:"gt=0"`
	HalfLifeYears   float64 `json:"chimera_half_life_years" default:"3" validate:"gt=0"`

	Seed           int64 `json:"seed" default:"1"`
	MaxIterations  int   `json:"max_iterations" default:"200" validate:"gte=1"`
	PopulationSize int   `json:"population_size" default:"30" validate:"gte=4"`

	SumTolerance  float64 `json:"sum_tolerance" default:"0.001" validate:"gt=0"`
	SmoothnessCap float64 `json:"smoothness_cap" default:"0.5" validate:"gt=0"`

	// Energy-variant knobs. ReserveFloors and CapacityFactor are keyed by
	// technology name (solar, onshore_wind, offshore_wind, battery, coal, gas).
	DisplacementOrder     []string                        `json:"displacement_order"`
	AllowFullDisplacement bool                            `json:"allow_full_displacement"`
	ReserveFloors         map[string]float64              `json:"reserve_floors" validate:"dive,gte=0,lte=1"`
	CapacityFactor        map[string]CapacityFactorConfig `json:"capacity_factor" validate:"dive"`
	InclusionThreshold    float64                         `json:"inclusion_threshold" default:"0.01" validate:"gte=0,lt=1"`
	GrowthCap             float64                         `json:"growth_cap" default:"0.5" validate:"gt=0"`
}

// CapacityFactorConfig configures one technology's capacity factor model.
type CapacityFactorConfig struct {
	Base               float64 `json:"base" validate:"gt=0,lte=1"`
	ImprovementPerYear float64 `json:"improvement_per_year" validate:"gte=0"`
	Max                float64 `json:"max" validate:"gte=0,lte=1"`
	BaseYear           int     `json:"base_year"`
}

// Validate applies the cross-field rules the struct tags cannot express.
func (c ScenarioConfig) Validate() error {
	if c.KMin >= c.KMax {
		return &ConfigurationError{Field: "scenario.k_min", Reason: "must be below k_max"}
	}
	if c.SmoothingWindow%2 == 0 {
		return &ConfigurationError{Field: "scenario.smoothing_window", Reason: "must be odd"}
	}
	for name := range c.ReserveFloors {
		if _, err := capacity.ParseTechnology(name); err != nil {
			return &ConfigurationError{Field: "scenario.reserve_floors", Reason: err.Error()}
		}
	}
	for name := range c.CapacityFactor {
		if _, err := capacity.ParseTechnology(name); err != nil {
			return &ConfigurationError{Field: "scenario.capacity_factor", Reason: err.Error()}
		}
	}
	for _, name := range c.DisplacementOrder {
		if _, err := capacity.ParseTechnology(name); err != nil {
			return &ConfigurationError{Field: "scenario.displacement_order", Reason: err.Error()}
		}
	}
	return nil
}

// Forecast materializes the pipeline configuration.
func (c ScenarioConfig) Forecast() forecast.Config {
	return forecast.Config{
		EndYear:                     c.EndYear,
		SmoothingWindow:             c.SmoothingWindow,
		CAGRCap:                     c.CAGRCap,
		DisplacementSpeedMultiplier: c.DisplacementSpeedMultiplier,
		Adoption: adoption.Config{
			Ceiling:        c.LogisticCeiling,
			KMin:           c.KMin,
			KMax:           c.KMax,
			HalfLifeYears:  c.HalfLifeYears,
			Seed:           c.Seed,
			MaxIterations:  c.MaxIterations,
			PopulationSize: c.PopulationSize,
		},
		Validator: residual.ValidatorConfig{
			SumTolerance:  c.SumTolerance,
			SmoothnessCap: c.SmoothnessCap,
		},
	}
}

// RateOverride returns the scenario rate for a cost series, nil when unset.
func (c ScenarioConfig) RateOverride(series string) *float64 {
	if r, ok := c.CostDeclineRate[series]; ok {
		return &r
	}
	return nil
}

// Order resolves the displacement order. Validate has already vetted the
// names, so resolution cannot fail after a successful load.
func (c ScenarioConfig) Order() []capacity.Technology {
	out := make([]capacity.Technology, 0, len(c.DisplacementOrder))
	for _, name := range c.DisplacementOrder {
		t, err := capacity.ParseTechnology(name)
		if err != nil {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Sequencer builds the displacement sequencer from scenario floors and the
// historical peaks observed in the data.
func (c ScenarioConfig) Sequencer(peaks map[capacity.Technology]units.TerawattHours) displacement.Sequencer {
	floors := make(map[capacity.Technology]float64, len(c.ReserveFloors))
	for name, f := range c.ReserveFloors {
		if t, err := capacity.ParseTechnology(name); err == nil {
			floors[t] = f
		}
	}
	return displacement.Sequencer{
		Order:                 c.Order(),
		Floors:                floors,
		Peaks:                 peaks,
		AllowFullDisplacement: c.AllowFullDisplacement,
	}
}

// Factors resolves the per-technology capacity factor models.
func (c ScenarioConfig) Factors() map[capacity.Technology]capacity.Factor {
	out := make(map[capacity.Technology]capacity.Factor, len(c.CapacityFactor))
	for name, fc := range c.CapacityFactor {
		if t, err := capacity.ParseTechnology(name); err == nil {
			out[t] = capacity.Factor{
				Base:               fc.Base,
				ImprovementPerYear: fc.ImprovementPerYear,
				Max:                fc.Max,
				BaseYear:           fc.BaseYear,
			}
		}
	}
	return out
}
