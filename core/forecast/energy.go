package forecast

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/parity/core/capacity"
	"github.com/kilianp07/parity/core/costcurve"
	"github.com/kilianp07/parity/core/displacement"
	"github.com/kilianp07/parity/core/logger"
	"github.com/kilianp07/parity/core/metrics"
	"github.com/kilianp07/parity/core/residual"
	"github.com/kilianp07/parity/core/series"
	"github.com/kilianp07/parity/core/tipping"
	"github.com/kilianp07/parity/core/units"
)

// EnergyInput is the fully materialized history for one region of the
// energy-generation variant. Costs are LCOE/SCOE, demand and generation are
// TWh, capacity is GW.
type EnergyInput struct {
	Region string

	DisruptorCost  series.TimeSeries
	DisruptorRate  *float64
	IncumbentCosts map[capacity.Technology]series.TimeSeries
	IncumbentRates map[capacity.Technology]*float64

	// Demand is total generation demand; Baseline the non-displaceable part
	// (nuclear, hydro, other), forecast by trend and never traded off
	// against cost parity.
	Demand   series.TimeSeries
	Baseline series.TimeSeries

	// Capacity holds installed-GW history per disruptor technology. Battery
	// capacity is tracked but contributes no generation.
	Capacity map[capacity.Technology]series.TimeSeries
	Factors  map[capacity.Technology]capacity.Factor

	// IncumbentGen holds historical coal/gas generation.
	IncumbentGen map[capacity.Technology]series.TimeSeries

	Sequencer displacement.Sequencer

	// InclusionThreshold folds a minor technology into "other" below this
	// fraction of the dominant technology's capacity.
	InclusionThreshold float64
	// GrowthCap bounds any single projected year's capacity growth.
	GrowthCap float64

	DataSource map[string]string
}

// EnergyPipeline forecasts capacity buildout and displacement rather than a
// share-of-market S-curve: at current penetration levels renewable buildout
// tracks compounding year-over-year growth, not logistic saturation.
type EnergyPipeline struct {
	cfg        Config
	forecaster costcurve.Forecaster
	log        logger.Logger
	sink       metrics.MetricsSink
}

// NewEnergyPipeline assembles the energy-variant pipeline.
func NewEnergyPipeline(cfg Config, log logger.Logger, sink metrics.MetricsSink) *EnergyPipeline {
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &EnergyPipeline{
		cfg:        cfg,
		forecaster: costcurve.NewForecaster(cfg.SmoothingWindow, cfg.CAGRCap, log),
		log:        log,
		sink:       sink,
	}
}

// Run executes the energy forecast for one region.
func (p *EnergyPipeline) Run(in EnergyInput) (Result, error) {
	start := time.Now()
	if err := in.Sequencer.Validate(); err != nil {
		return Result{}, fmt.Errorf("region %s: %w", in.Region, err)
	}

	tp, err := p.earliestParity(in)
	if err != nil {
		return Result{}, err
	}

	demandF, err := series.LinearTrend(in.Demand, p.cfg.EndYear)
	if err != nil {
		return Result{}, fmt.Errorf("region %s demand: %w", in.Region, err)
	}
	baselineF, err := displacement.BaselineTrend(in.Baseline, p.cfg.EndYear)
	if err != nil {
		return Result{}, fmt.Errorf("region %s baseline: %w", in.Region, err)
	}

	years := demandF.Years()
	capSeries, err := p.forecastCapacities(in)
	if err != nil {
		return Result{}, err
	}
	factors := p.factorSeries(in, years)
	disruptorGen := p.aggregateGeneration(in, capSeries, factors, years)

	// Addressable demand is what disruptor and fossil incumbents compete
	// over once the baseline is served.
	addressable := make([]float64, len(years))
	for i, y := range years {
		d, _ := demandF.At(y)
		b, _ := baselineF.At(y)
		a := d - b
		if a < 0 {
			a = 0
		}
		addressable[i] = a
		if disruptorGen[i] > a {
			disruptorGen[i] = a
		}
	}

	incumbents, incumbentTotal := p.sequenceIncumbents(in, years, addressable, disruptorGen)

	// Floors can force retention beyond the addressable remainder; the
	// excess disruptor generation is curtailed so the sum law holds.
	for i := range years {
		if room := addressable[i] - incumbentTotal[i]; disruptorGen[i] > room {
			if room < 0 {
				room = 0
			}
			disruptorGen[i] = room
		}
	}

	tr := residual.Trajectory{
		Years:       years,
		Market:      addressable,
		Disruptor:   disruptorGen,
		Chimera:     make([]float64, len(years)),
		Incumbent:   incumbentTotal,
		TippingYear: tp.YearPtr(),
	}
	rep := residual.Validate(tr, p.cfg.Validator)
	rep.Checks = append(rep.Checks, p.validateFloors(in, years, incumbents))
	rep.Checks = append(rep.Checks, residual.ValidateFactorBounds(years, factors))

	res := Result{
		RunID:            uuid.NewString(),
		Region:           in.Region,
		Domain:           "energy",
		Years:            years,
		Market:           addressable,
		Disruptor:        disruptorGen,
		Chimera:          tr.Chimera,
		Incumbent:        incumbentTotal,
		TippingPointYear: tp.YearPtr(),
		TippingBasis:     tp.Basis.String(),
		DataSource:       in.DataSource,
		Incumbents:       exportByTech(incumbents),
		CapacityGW:       exportCapacity(capSeries, years),
		Validation:       exportReport(rep),
	}
	if !tp.Found {
		res.Note = NoParityNote
	}
	p.recordEnergy(res, start)
	return res, nil
}

// earliestParity detects the tipping point against each incumbent cost curve
// and keeps the earliest.
func (p *EnergyPipeline) earliestParity(in EnergyInput) (tipping.TippingPoint, error) {
	dCurve, err := p.forecaster.Forecast(in.Region+"/disruptor_lcoe", in.DisruptorCost,
		costcurve.RoleDisruptor, "$/MWh", p.cfg.EndYear, in.DisruptorRate)
	if err != nil {
		return tipping.TippingPoint{}, fmt.Errorf("region %s: %w", in.Region, err)
	}
	best := tipping.TippingPoint{Basis: tipping.BasisNeverCheaper}
	for tech, hist := range in.IncumbentCosts {
		var rate *float64
		if in.IncumbentRates != nil {
			rate = in.IncumbentRates[tech]
		}
		iCurve, err := p.forecaster.Forecast(fmt.Sprintf("%s/%s_scoe", in.Region, tech), hist,
			costcurve.RoleIncumbent, "$/MWh", p.cfg.EndYear, rate)
		if err != nil {
			return tipping.TippingPoint{}, fmt.Errorf("region %s: %w", in.Region, err)
		}
		tp := tipping.Detect(dCurve, iCurve)
		if tp.Found && (!best.Found || tp.Year < best.Year) {
			best = tp
		}
	}
	return best, nil
}

func (p *EnergyPipeline) forecastCapacities(in EnergyInput) (map[capacity.Technology]series.TimeSeries, error) {
	out := make(map[capacity.Technology]series.TimeSeries, len(in.Capacity))
	for tech, hist := range in.Capacity {
		f, err := capacity.ForecastCapacityScaled(hist, p.cfg.EndYear, in.GrowthCap, p.cfg.DisplacementSpeedMultiplier)
		if err != nil {
			return nil, fmt.Errorf("region %s %s capacity: %w", in.Region, tech, err)
		}
		out[tech] = f
	}
	return out, nil
}

func (p *EnergyPipeline) factorSeries(in EnergyInput, years []int) map[capacity.Technology][]float64 {
	out := make(map[capacity.Technology][]float64, len(in.Factors))
	for tech, f := range in.Factors {
		vs := make([]float64, len(years))
		for i, y := range years {
			vs[i] = f.At(y)
		}
		out[tech] = vs
	}
	return out
}

// aggregateGeneration sums per-technology generation, dropping technologies
// whose capacity falls below the inclusion threshold of the dominant one.
func (p *EnergyPipeline) aggregateGeneration(in EnergyInput, caps map[capacity.Technology]series.TimeSeries, factors map[capacity.Technology][]float64, years []int) []float64 {
	total := make([]float64, len(years))
	for i, y := range years {
		var dominant units.Gigawatts
		for _, cs := range caps {
			if v, ok := cs.At(y); ok && units.Gigawatts(v) > dominant {
				dominant = units.Gigawatts(v)
			}
		}
		for tech, cs := range caps {
			if tech == capacity.Battery {
				continue // storage shifts energy, it does not generate
			}
			v, ok := cs.At(y)
			if !ok {
				continue
			}
			if !capacity.Significant(units.Gigawatts(v), dominant, in.InclusionThreshold) {
				continue
			}
			cf := capacity.FactorBandMin
			if fs, ok := factors[tech]; ok {
				cf = fs[i]
			}
			total[i] += float64(units.Generation(units.Gigawatts(v), cf))
		}
	}
	return total
}

// sequenceIncumbents replays history verbatim, then allocates each projected
// year's residual through the displacement order.
func (p *EnergyPipeline) sequenceIncumbents(in EnergyInput, years []int, addressable, disruptorGen []float64) (map[capacity.Technology][]float64, []float64) {
	order := in.Sequencer.Order
	out := make(map[capacity.Technology][]float64, len(order))
	for _, tech := range order {
		out[tech] = make([]float64, len(years))
	}
	total := make([]float64, len(years))

	histEnd := in.Demand.LastYear()
	prior := make(map[capacity.Technology]units.TerawattHours, len(order))
	for i, y := range years {
		if y <= histEnd {
			for _, tech := range order {
				v, _ := in.IncumbentGen[tech].At(y)
				out[tech][i] = v
				prior[tech] = units.TerawattHours(v)
				total[i] += v
			}
			continue
		}
		residualDemand := units.TerawattHours(addressable[i] - disruptorGen[i])
		if residualDemand < 0 {
			residualDemand = 0
		}
		alloc := in.Sequencer.Allocate(residualDemand, prior)
		for _, tech := range order {
			out[tech][i] = float64(alloc[tech])
			prior[tech] = alloc[tech]
			total[i] += float64(alloc[tech])
		}
	}
	return out, total
}

// validateFloors checks reserve floors on projected years only; history is
// reported as observed.
func (p *EnergyPipeline) validateFloors(in EnergyInput, years []int, incumbents map[capacity.Technology][]float64) residual.Check {
	histEnd := in.Demand.LastYear()
	var projYears []int
	proj := make(map[capacity.Technology][]float64, len(incumbents))
	for i, y := range years {
		if y <= histEnd {
			continue
		}
		projYears = append(projYears, y)
		for tech, vs := range incumbents {
			proj[tech] = append(proj[tech], vs[i])
		}
	}
	floors := make(map[capacity.Technology]units.TerawattHours, len(in.Sequencer.Floors))
	if !in.Sequencer.AllowFullDisplacement {
		for tech, f := range in.Sequencer.Floors {
			floors[tech] = units.TerawattHours(f * float64(in.Sequencer.Peaks[tech]))
		}
	}
	return residual.ValidateReserveFloors(projYears, proj, floors)
}

func (p *EnergyPipeline) recordEnergy(res Result, start time.Time) {
	rec := metrics.RunRecord{
		RunID:            res.RunID,
		Region:           res.Region,
		Domain:           res.Domain,
		TippingYear:      res.TippingPointYear,
		ValidationPassed: res.ValidationPassed(),
		Duration:         time.Since(start),
		Time:             time.Now(),
	}
	if err := p.sink.RecordRun(rec); err != nil && p.log != nil {
		p.log.Warnf("record run: %v", err)
	}
	if err := p.sink.RecordSeries(seriesPoints(res)); err != nil && p.log != nil {
		p.log.Warnf("record series: %v", err)
	}
	if p.log != nil {
		p.log.Infof("region %s energy forecast complete: tipping=%v valid=%t",
			res.Region, res.TippingPointYear, res.ValidationPassed())
	}
}

func exportByTech(m map[capacity.Technology][]float64) map[string][]float64 {
	out := make(map[string][]float64, len(m))
	for tech, vs := range m {
		out[tech.String()] = vs
	}
	return out
}

func exportCapacity(caps map[capacity.Technology]series.TimeSeries, years []int) map[string][]float64 {
	out := make(map[string][]float64, len(caps))
	for tech, cs := range caps {
		vs := make([]float64, len(years))
		for i, y := range years {
			v, _ := cs.At(y)
			vs[i] = v
		}
		out[tech.String()] = vs
	}
	return out
}
