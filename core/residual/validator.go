package residual

import (
	"fmt"
	"math"

	"github.com/kilianp07/parity/core/capacity"
	"github.com/kilianp07/parity/core/units"
)

// Check is one structured validation result. Checks report, they never
// correct: clamping belongs to generation, so a failure here points at an
// upstream logic defect, not a recoverable runtime condition.
type Check struct {
	Name   string
	Passed bool
	Detail string
}

// Report is the set of checks attached to a completed trajectory. It is
// data, not an error: a trajectory failing one check may still be the best
// available answer, and the caller decides what to do with it.
type Report struct {
	Checks []Check
}

// Passed reports whether every check passed.
func (r Report) Passed() bool {
	for _, c := range r.Checks {
		if !c.Passed {
			return false
		}
	}
	return true
}

// ByName returns the checks keyed by name for the export contract.
func (r Report) ByName() map[string]Check {
	m := make(map[string]Check, len(r.Checks))
	for _, c := range r.Checks {
		m[c.Name] = c
	}
	return m
}

func (r *Report) add(name string, passed bool, detail string) {
	if passed && detail == "" {
		detail = "ok"
	}
	r.Checks = append(r.Checks, Check{Name: name, Passed: passed, Detail: detail})
}

// ValidatorConfig holds the tolerances used by Validate.
type ValidatorConfig struct {
	// SumTolerance is the relative epsilon for the sum-consistency law.
	SumTolerance float64
	// SmoothnessCap bounds year-over-year relative change outside the
	// tipping-year discontinuity.
	SmoothnessCap float64
}

// DefaultValidatorConfig returns the standard tolerances.
func DefaultValidatorConfig() ValidatorConfig {
	return ValidatorConfig{SumTolerance: 0.001, SmoothnessCap: 0.5}
}

// Validate runs the structural checks on a trajectory.
func Validate(tr Trajectory, cfg ValidatorConfig) Report {
	if cfg.SumTolerance <= 0 {
		cfg.SumTolerance = 0.001
	}
	if cfg.SmoothnessCap <= 0 {
		cfg.SmoothnessCap = 0.5
	}
	var rep Report
	passed, detail := checkSum(tr, cfg.SumTolerance)
	rep.add("sum_consistency", passed, detail)
	passed, detail = checkNonNegative(tr)
	rep.add("non_negativity", passed, detail)
	passed, detail = checkSmoothness(tr, cfg.SmoothnessCap)
	rep.add("smoothness", passed, detail)
	return rep
}

func checkSum(tr Trajectory, eps float64) (bool, string) {
	for i, y := range tr.Years {
		sum := tr.Disruptor[i] + tr.Chimera[i] + tr.Incumbent[i]
		limit := tr.Market[i] * (1 + eps)
		if sum > limit {
			return false, fmt.Sprintf("year %d: disruptor+chimera+incumbent %.4f exceeds market %.4f by more than %.1f%%",
				y, sum, tr.Market[i], eps*100)
		}
	}
	return true, ""
}

func checkNonNegative(tr Trajectory) (bool, string) {
	for i, y := range tr.Years {
		for name, v := range map[string]float64{
			"market": tr.Market[i], "disruptor": tr.Disruptor[i],
			"chimera": tr.Chimera[i], "incumbent": tr.Incumbent[i],
		} {
			if v < 0 {
				return false, fmt.Sprintf("year %d: %s is negative (%.4f)", y, name, v)
			}
		}
	}
	return true, ""
}

func checkSmoothness(tr Trajectory, cap float64) (bool, string) {
	series := map[string][]float64{
		"market": tr.Market, "disruptor": tr.Disruptor,
		"chimera": tr.Chimera, "incumbent": tr.Incumbent,
	}
	for name, vs := range series {
		for i := 1; i < len(vs); i++ {
			// The crossover year is an explicitly modeled discontinuity.
			if tr.TippingYear != nil && tr.Years[i] == *tr.TippingYear {
				continue
			}
			prev := vs[i-1]
			if prev <= 0 {
				continue
			}
			change := math.Abs(vs[i]-prev) / prev
			if change > cap {
				return false, fmt.Sprintf("year %d: %s changed %.1f%% year-over-year, cap %.0f%%",
					tr.Years[i], name, change*100, cap*100)
			}
		}
	}
	return true, ""
}

// ValidateReserveFloors checks that each protected incumbent stays at or
// above its absolute floor for every year. Used by the energy variant after
// displacement sequencing.
func ValidateReserveFloors(years []int, gen map[capacity.Technology][]float64, floors map[capacity.Technology]units.TerawattHours) Check {
	for tech, vs := range gen {
		floor := float64(floors[tech])
		for i, v := range vs {
			if v < floor-1e-9 {
				return Check{
					Name:   "reserve_floors",
					Passed: false,
					Detail: fmt.Sprintf("year %d: %s generation %.4f below floor %.4f", years[i], tech, v, floor),
				}
			}
		}
	}
	return Check{Name: "reserve_floors", Passed: true, Detail: "ok"}
}

// ValidateFactorBounds checks that every technology's capacity factor stays
// inside the global plausibility band.
func ValidateFactorBounds(years []int, factors map[capacity.Technology][]float64) Check {
	for tech, vs := range factors {
		for i, v := range vs {
			if v < capacity.FactorBandMin || v > capacity.FactorBandMax {
				return Check{
					Name:   "capacity_factor_bounds",
					Passed: false,
					Detail: fmt.Sprintf("year %d: %s capacity factor %.4f outside [%.2f, %.2f]", years[i], tech, v, capacity.FactorBandMin, capacity.FactorBandMax),
				}
			}
		}
	}
	return Check{Name: "capacity_factor_bounds", Passed: true, Detail: "ok"}
}
