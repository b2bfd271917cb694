package forecast

import (
	"testing"

	"github.com/kilianp07/parity/core/adoption"
	"github.com/kilianp07/parity/core/residual"
	"github.com/kilianp07/parity/core/series"
)

func testConfig(endYear int) Config {
	return Config{
		EndYear:         endYear,
		SmoothingWindow: 3,
		Adoption:        adoption.DefaultConfig(),
		Validator:       residual.DefaultValidatorConfig(),
	}
}

func evScenario() Input {
	incYears := make([]int, 0, 13)
	incValues := make([]float64, 0, 13)
	marketYears := make([]int, 0, 13)
	marketValues := make([]float64, 0, 13)
	for y := 2018; y <= 2030; y++ {
		incYears = append(incYears, y)
		incValues = append(incValues, 45)
		marketYears = append(marketYears, y)
		marketValues = append(marketValues, 1000)
	}
	return Input{
		Region:         "USA",
		CostBasis:      "$/mile",
		DisruptorCost:  series.MustNew([]int{2018, 2019, 2020}, []float64{50, 45, 40}),
		IncumbentCost:  series.MustNew(incYears, incValues),
		Market:         series.MustNew(marketYears, marketValues),
		DisruptorUnits: series.MustNew([]int{2018, 2019, 2020}, []float64{50, 80, 120}),
		DataSource:     map[string]string{"disruptor_cost": "regional"},
	}
}

func TestPipelineEndToEnd(t *testing.T) {
	p := NewPipeline(testConfig(2030), nil, nil)
	res, err := p.Run(evScenario())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if res.TippingPointYear == nil || *res.TippingPointYear != 2020 {
		t.Fatalf("tipping year = %v, want 2020", res.TippingPointYear)
	}
	if res.Years[0] != 2018 || res.Years[len(res.Years)-1] != 2030 {
		t.Fatalf("year axis %v", res.Years)
	}

	// Disruptor volume rises monotonically after the tipping year.
	byYear := make(map[int]float64, len(res.Years))
	for i, y := range res.Years {
		byYear[y] = res.Disruptor[i]
	}
	for y := 2021; y <= 2030; y++ {
		if byYear[y] < byYear[y-1]-1e-9 {
			t.Errorf("disruptor fell from %v to %v at %d", byYear[y-1], byYear[y], y)
		}
	}

	inc := make(map[int]float64, len(res.Years))
	for i, y := range res.Years {
		inc[y] = res.Incumbent[i]
	}
	if inc[2030] >= inc[2020] {
		t.Errorf("incumbent(2030)=%v not below incumbent(2020)=%v", inc[2030], inc[2020])
	}

	// Core accounting invariants always hold.
	if !res.Validation["sum_consistency"].Passed {
		t.Errorf("sum consistency failed: %s", res.Validation["sum_consistency"].Detail)
	}
	if !res.Validation["non_negativity"].Passed {
		t.Errorf("non-negativity failed: %s", res.Validation["non_negativity"].Detail)
	}
	if res.FallbackTier != "fitted" {
		t.Errorf("fallback tier = %s, want fitted for 3 observations", res.FallbackTier)
	}
	if res.RunID == "" {
		t.Errorf("missing run id")
	}
	if res.DataSource["disruptor_cost"] != "regional" {
		t.Errorf("provenance not carried through")
	}
}

func TestPipelineSumLaw(t *testing.T) {
	p := NewPipeline(testConfig(2030), nil, nil)
	in := evScenario()
	in.ChimeraUnits = series.MustNew([]int{2018, 2019, 2020}, []float64{30, 40, 50})
	res, err := p.Run(in)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for i, y := range res.Years {
		sum := res.Disruptor[i] + res.Chimera[i] + res.Incumbent[i]
		if sum > res.Market[i]*1.001 {
			t.Errorf("year %d: sum %v exceeds market %v", y, sum, res.Market[i])
		}
		for _, v := range []float64{res.Disruptor[i], res.Chimera[i], res.Incumbent[i], res.Market[i]} {
			if v < 0 {
				t.Errorf("year %d: negative volume %v", y, v)
			}
		}
	}
}

func TestPipelineNoParityFallback(t *testing.T) {
	in := evScenario()
	// Disruptor cost always above the incumbent's and not declining fast
	// enough to cross before 2030.
	in.DisruptorCost = series.MustNew([]int{2018, 2019, 2020}, []float64{100, 99, 98})
	p := NewPipeline(testConfig(2030), nil, nil)
	res, err := p.Run(in)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.TippingPointYear != nil {
		t.Fatalf("tipping year = %v, want nil", *res.TippingPointYear)
	}
	if res.Note != NoParityNote {
		t.Errorf("note = %q, want %q", res.Note, NoParityNote)
	}
	if res.FallbackTier != "conservative_no_parity" {
		t.Errorf("fallback tier = %s", res.FallbackTier)
	}
	// Slow adoption: the disruptor share in 2030 stays modest.
	last := res.Disruptor[len(res.Disruptor)-1] / res.Market[len(res.Market)-1]
	if last > 0.3 {
		t.Errorf("no-parity trajectory too aggressive: share %v in 2030", last)
	}
}

func TestPipelineInsufficientCostData(t *testing.T) {
	in := evScenario()
	in.DisruptorCost = series.MustNew([]int{2020}, []float64{40})
	p := NewPipeline(testConfig(2030), nil, nil)
	if _, err := p.Run(in); err == nil {
		t.Fatalf("expected error for single-point cost series")
	}
}

func TestPipelineSpeedMultiplier(t *testing.T) {
	slow := NewPipeline(testConfig(2030), nil, nil)
	cfgFast := testConfig(2030)
	cfgFast.DisplacementSpeedMultiplier = 2
	fast := NewPipeline(cfgFast, nil, nil)

	base, err := slow.Run(evScenario())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	boosted, err := fast.Run(evScenario())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	bi := len(base.Years) - 1
	if boosted.Disruptor[bi] < base.Disruptor[bi] {
		t.Errorf("speed multiplier 2 produced slower adoption: %v < %v",
			boosted.Disruptor[bi], base.Disruptor[bi])
	}
}
