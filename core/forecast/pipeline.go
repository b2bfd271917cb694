package forecast

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/parity/core/adoption"
	"github.com/kilianp07/parity/core/costcurve"
	"github.com/kilianp07/parity/core/logger"
	"github.com/kilianp07/parity/core/metrics"
	"github.com/kilianp07/parity/core/residual"
	"github.com/kilianp07/parity/core/series"
	"github.com/kilianp07/parity/core/tipping"
)

// Config holds the already-validated scenario parameters shared by every
// region of a run.
type Config struct {
	EndYear         int
	SmoothingWindow int
	CAGRCap         float64
	// DisplacementSpeedMultiplier scales the fitted adoption steepness
	// (vehicle domain) or the capacity growth rate (energy domain).
	DisplacementSpeedMultiplier float64
	Adoption                    adoption.Config
	Validator                   residual.ValidatorConfig
}

// Input is the fully materialized history for one region. All data is
// loaded by the catalog collaborator before the pipeline runs; the core
// performs no I/O.
type Input struct {
	Region    string
	CostBasis string

	DisruptorCost series.TimeSeries
	IncumbentCost series.TimeSeries
	// DisruptorRate and IncumbentRate are optional scenario overrides that
	// replace the fitted cost decline entirely.
	DisruptorRate *float64
	IncumbentRate *float64

	Market         series.TimeSeries
	DisruptorUnits series.TimeSeries
	ChimeraUnits   series.TimeSeries

	// DataSource maps each input series name to its provenance.
	DataSource map[string]string
}

// Pipeline runs the vehicle/product-domain forecast for one region at a
// time. It holds no per-region state, so distinct regions may run on
// distinct goroutines with separate Input values.
type Pipeline struct {
	cfg        Config
	forecaster costcurve.Forecaster
	model      adoption.Model
	log        logger.Logger
	sink       metrics.MetricsSink
}

// NewPipeline assembles the pipeline from validated configuration.
func NewPipeline(cfg Config, log logger.Logger, sink metrics.MetricsSink) *Pipeline {
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Pipeline{
		cfg:        cfg,
		forecaster: costcurve.NewForecaster(cfg.SmoothingWindow, cfg.CAGRCap, log),
		model:      adoption.New(cfg.Adoption, log),
		log:        log,
		sink:       sink,
	}
}

// Run executes the full forecast for one region.
func (p *Pipeline) Run(in Input) (Result, error) {
	start := time.Now()

	dCurve, err := p.forecaster.Forecast(in.Region+"/disruptor_cost", in.DisruptorCost,
		costcurve.RoleDisruptor, in.CostBasis, p.cfg.EndYear, in.DisruptorRate)
	if err != nil {
		return Result{}, fmt.Errorf("region %s: %w", in.Region, err)
	}
	iCurve, err := p.forecaster.Forecast(in.Region+"/incumbent_cost", in.IncumbentCost,
		costcurve.RoleIncumbent, in.CostBasis, p.cfg.EndYear, in.IncumbentRate)
	if err != nil {
		return Result{}, fmt.Errorf("region %s: %w", in.Region, err)
	}
	tp := tipping.Detect(dCurve, iCurve)

	marketF, err := series.LinearTrend(in.Market, p.cfg.EndYear)
	if err != nil {
		return Result{}, fmt.Errorf("region %s market: %w", in.Region, err)
	}

	obsShares := shareSeries(in.DisruptorUnits, in.Market)
	obsChimera := shareSeries(in.ChimeraUnits, in.Market)

	fit := p.model.FitDisruptor(obsShares, tp, p.cfg.EndYear)
	fit = p.applySpeedMultiplier(fit)

	years := marketF.Years()
	dShares := p.model.Trajectory(fit, obsShares, years)
	cShares := p.model.ChimeraTrajectory(obsChimera, tp, years)

	market := marketF.Values()
	disruptor := make([]float64, len(years))
	chimera := make([]float64, len(years))
	for i := range years {
		disruptor[i] = clampVolume(dShares[i]*market[i], market[i])
		// The chimera never claims volume the disruptor already holds.
		chimera[i] = clampVolume(cShares[i]*market[i], market[i]-disruptor[i])
	}
	incumbent, err := residual.Incumbent(market, disruptor, chimera)
	if err != nil {
		return Result{}, fmt.Errorf("region %s: %w", in.Region, err)
	}

	tr := residual.Trajectory{
		Years:       years,
		Market:      market,
		Disruptor:   disruptor,
		Chimera:     chimera,
		Incumbent:   incumbent,
		TippingYear: tp.YearPtr(),
	}
	rep := residual.Validate(tr, p.cfg.Validator)

	res := Result{
		RunID:            uuid.NewString(),
		Region:           in.Region,
		Domain:           "vehicle",
		Years:            years,
		Market:           market,
		Disruptor:        disruptor,
		Chimera:          chimera,
		Incumbent:        incumbent,
		TippingPointYear: tp.YearPtr(),
		TippingBasis:     tp.Basis.String(),
		FallbackTier:     fit.Tier.String(),
		DataSource:       in.DataSource,
		Validation:       exportReport(rep),
	}
	if !tp.Found {
		res.Note = NoParityNote
	}
	p.record(res, start)
	return res, nil
}

// applySpeedMultiplier scales the fitted steepness, keeping it inside the
// configured bounds. Non-logistic tiers are left alone.
func (p *Pipeline) applySpeedMultiplier(fit adoption.Fit) adoption.Fit {
	m := p.cfg.DisplacementSpeedMultiplier
	if m <= 0 || m == 1 || fit.Tier == adoption.TierLinear {
		return fit
	}
	k := fit.Curve.Steepness * m
	if k < p.cfg.Adoption.KMin {
		k = p.cfg.Adoption.KMin
	}
	if k > p.cfg.Adoption.KMax {
		k = p.cfg.Adoption.KMax
	}
	fit.Curve.Steepness = k
	return fit
}

func (p *Pipeline) record(res Result, start time.Time) {
	rec := metrics.RunRecord{
		RunID:            res.RunID,
		Region:           res.Region,
		Domain:           res.Domain,
		TippingYear:      res.TippingPointYear,
		FallbackTier:     res.FallbackTier,
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
		p.log.Infof("region %s forecast complete: tipping=%v tier=%s valid=%t",
			res.Region, res.TippingPointYear, res.FallbackTier, res.ValidationPassed())
	}
}

func seriesPoints(res Result) []metrics.SeriesPoint {
	named := map[string][]float64{
		"market": res.Market, "disruptor": res.Disruptor,
		"chimera": res.Chimera, "incumbent": res.Incumbent,
	}
	var pts []metrics.SeriesPoint
	for name, vs := range named {
		for i, v := range vs {
			pts = append(pts, metrics.SeriesPoint{
				RunID: res.RunID, Region: res.Region, Series: name,
				Year: res.Years[i], Value: v,
			})
		}
	}
	return pts
}

// shareSeries divides observed units by observed market volume, keeping only
// years present in both with a non-zero market.
func shareSeries(units, market series.TimeSeries) series.TimeSeries {
	var years []int
	var values []float64
	for i := 0; i < units.Len(); i++ {
		y := units.Year(i)
		if m, ok := market.At(y); ok && m > 0 {
			years = append(years, y)
			values = append(values, units.Value(i)/m)
		}
	}
	if len(years) == 0 {
		return series.TimeSeries{}
	}
	return series.MustNew(years, values)
}

func clampVolume(v, max float64) float64 {
	if v < 0 {
		return 0
	}
	if max < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}
