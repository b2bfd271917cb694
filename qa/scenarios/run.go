package scenarios

import (
	"testing"

	"github.com/kilianp07/parity/core/adoption"
	"github.com/kilianp07/parity/core/forecast"
	"github.com/kilianp07/parity/core/residual"
	"github.com/kilianp07/parity/core/series"
	"github.com/kilianp07/parity/infra/logger"
)

// RunScenario executes one case against the vehicle pipeline and checks the
// declared expectations.
func RunScenario(t *testing.T, sc *Scenario) {
	t.Helper()

	get := func(name string) series.TimeSeries {
		ts, err := sc.Series[name].ToSeries()
		if err != nil {
			t.Fatalf("scenario %s series %s: %v", sc.Name, name, err)
		}
		return ts
	}

	cfg := forecast.Config{
		EndYear:                     sc.EndYear,
		SmoothingWindow:             3,
		CAGRCap:                     0.3,
		DisplacementSpeedMultiplier: sc.SpeedMultiplier,
		Adoption:                    adoption.DefaultConfig(),
		Validator:                   residual.DefaultValidatorConfig(),
	}
	in := forecast.Input{
		Region:         sc.Name,
		CostBasis:      "$/unit",
		DisruptorCost:  get("disruptor_cost"),
		IncumbentCost:  get("incumbent_cost"),
		Market:         get("market"),
		DisruptorUnits: get("disruptor_units"),
		ChimeraUnits:   get("chimera_units"),
	}
	for name, rate := range sc.Rates {
		r := rate
		switch name {
		case "disruptor_cost":
			in.DisruptorRate = &r
		case "incumbent_cost":
			in.IncumbentRate = &r
		default:
			t.Fatalf("scenario %s: unknown rate target %s", sc.Name, name)
		}
	}

	res, err := forecast.NewPipeline(cfg, logger.NopLogger{}, nil).Run(in)
	if err != nil {
		t.Fatalf("scenario %s: %v", sc.Name, err)
	}

	exp := sc.Expected
	if exp.NoParity {
		if res.TippingPointYear != nil {
			t.Errorf("scenario %s: tipping year %d, want none", sc.Name, *res.TippingPointYear)
		}
		if res.Note == "" {
			t.Errorf("scenario %s: missing no-parity note", sc.Name)
		}
	}
	if exp.TippingYear != nil {
		if res.TippingPointYear == nil {
			t.Errorf("scenario %s: no tipping year, want %d", sc.Name, *exp.TippingYear)
		} else if *res.TippingPointYear != *exp.TippingYear {
			t.Errorf("scenario %s: tipping year %d, want %d", sc.Name, *res.TippingPointYear, *exp.TippingYear)
		}
	}
	if exp.FallbackTier != "" && res.FallbackTier != exp.FallbackTier {
		t.Errorf("scenario %s: fallback tier %s, want %s", sc.Name, res.FallbackTier, exp.FallbackTier)
	}
	if exp.MaxFinalShare != nil || exp.MinFinalShare != nil {
		last := len(res.Years) - 1
		share := 0.0
		if res.Market[last] > 0 {
			share = res.Disruptor[last] / res.Market[last]
		}
		if exp.MaxFinalShare != nil && share > *exp.MaxFinalShare {
			t.Errorf("scenario %s: final share %.3f above %.3f", sc.Name, share, *exp.MaxFinalShare)
		}
		if exp.MinFinalShare != nil && share < *exp.MinFinalShare {
			t.Errorf("scenario %s: final share %.3f below %.3f", sc.Name, share, *exp.MinFinalShare)
		}
	}
}
