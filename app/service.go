// Package app wires configuration, catalog data, pipelines and sinks into a
// runnable forecast service.
package app

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/kilianp07/parity/catalog"
	"github.com/kilianp07/parity/config"
	"github.com/kilianp07/parity/core/capacity"
	"github.com/kilianp07/parity/core/forecast"
	coremetrics "github.com/kilianp07/parity/core/metrics"
	"github.com/kilianp07/parity/core/series"
	"github.com/kilianp07/parity/core/units"
	"github.com/kilianp07/parity/infra/logger"
	"github.com/kilianp07/parity/infra/metrics"
	"github.com/kilianp07/parity/infra/publish"
	"github.com/kilianp07/parity/internal/eventbus"
)

// Service runs one batch forecast: every configured region in parallel, then
// the Global aggregate.
type Service struct {
	cfg       *config.Config
	cat       *catalog.Catalog
	sink      coremetrics.MetricsSink
	publisher *publish.Publisher
	bus       eventbus.EventBus
	log       logger.Logger
}

// New creates a Service from validated configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")
	cat, err := catalog.Load(cfg.Catalog.Path, logger.New("catalog"))
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	publisher, err := publish.New(cfg.Publish)
	if err != nil {
		return nil, fmt.Errorf("publisher: %w", err)
	}
	return &Service{
		cfg:       cfg,
		cat:       cat,
		sink:      sink,
		publisher: publisher,
		bus:       eventbus.New(),
		log:       logg,
	}, nil
}

// Regions returns the regions this run covers.
func (s *Service) Regions() []string {
	if len(s.cfg.Catalog.Regions) > 0 {
		return s.cfg.Catalog.Regions
	}
	return s.cat.Regions()
}

// Run executes the batch and blocks until every region and the Global
// aggregate are done, returning the completed results. Failed regions are
// logged and skipped; Run only errors when no region completes.
func (s *Service) Run(ctx context.Context) ([]forecast.Result, error) {
	if addr := s.cfg.Metrics.PrometheusPort; addr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, addr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	results, err := s.Forecast(ctx)
	if err != nil {
		return nil, err
	}
	for _, res := range results {
		if err := s.publisher.PublishResult(res); err != nil {
			s.log.Errorf("publish %s: %v", res.Region, err)
		}
	}
	return results, nil
}

// Forecast runs every region concurrently and appends the Global aggregate.
// Each region gets its own pipeline and input, so no mutable state is shared
// across goroutines; results are collected under a single mutex.
func (s *Service) Forecast(ctx context.Context) ([]forecast.Result, error) {
	regions := s.Regions()
	var (
		mu      sync.Mutex
		results []forecast.Result
		wg      sync.WaitGroup
	)
	for _, region := range regions {
		wg.Add(1)
		go func(region string) {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			res, err := s.runRegion(region)
			if err != nil {
				s.log.Errorf("region %s: %v", region, err)
				return
			}
			s.bus.Publish(res)
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
		}(region)
	}
	wg.Wait()
	if len(results) == 0 {
		return nil, fmt.Errorf("no region completed out of %d", len(regions))
	}

	global, err := forecast.Aggregate(results, s.cfg.Scenario.Forecast().Validator)
	if err != nil {
		s.log.Warnf("global aggregate skipped: %v", err)
		return results, nil
	}
	s.bus.Publish(global)
	return append(results, global), nil
}

// Events exposes the result stream for embedders.
func (s *Service) Events() <-chan eventbus.Event {
	return s.bus.Subscribe()
}

func (s *Service) runRegion(region string) (forecast.Result, error) {
	fc := s.cfg.Scenario.Forecast()
	if s.cfg.Catalog.Domain == "energy" {
		in, err := s.energyInput(region)
		if err != nil {
			return forecast.Result{}, err
		}
		return forecast.NewEnergyPipeline(fc, logger.New("energy-pipeline"), s.sink).Run(in)
	}
	in, err := s.vehicleInput(region)
	if err != nil {
		return forecast.Result{}, err
	}
	return forecast.NewPipeline(fc, logger.New("pipeline"), s.sink).Run(in)
}

// vehicleInput resolves the bound series for one region. Bindings pair a
// catalog series name with its forecast role; the _cost/_units suffix
// separates the two disruptor-bound series.
func (s *Service) vehicleInput(region string) (forecast.Input, error) {
	roles := s.cfg.Catalog.Roles()
	var names struct {
		disruptorCost, incumbentCost, market, disruptorUnits, chimeraUnits string
	}
	for name, role := range roles {
		switch role {
		case catalog.RoleDisruptor:
			if strings.HasSuffix(name, "_cost") {
				names.disruptorCost = name
			} else {
				names.disruptorUnits = name
			}
		case catalog.RoleIncumbent:
			names.incumbentCost = name
		case catalog.RoleMarket:
			names.market = name
		case catalog.RoleChimera:
			names.chimeraUnits = name
		}
	}

	provenance := make(map[string]string)
	need := func(name string) (series.TimeSeries, error) {
		ts, prov, err := s.cat.Series(region, name)
		if err != nil {
			return series.TimeSeries{}, err
		}
		provenance[name] = prov.String()
		return ts, nil
	}

	dCost, err := need(names.disruptorCost)
	if err != nil {
		return forecast.Input{}, err
	}
	iCost, err := need(names.incumbentCost)
	if err != nil {
		return forecast.Input{}, err
	}
	market, err := need(names.market)
	if err != nil {
		return forecast.Input{}, err
	}
	dUnits, err := need(names.disruptorUnits)
	if err != nil {
		return forecast.Input{}, err
	}
	chimera, prov := s.cat.SeriesOrDefault(region, names.chimeraUnits, series.TimeSeries{})
	provenance[names.chimeraUnits] = prov.String()

	return forecast.Input{
		Region:         region,
		CostBasis:      "$/unit",
		DisruptorCost:  dCost,
		IncumbentCost:  iCost,
		DisruptorRate:  s.cfg.Scenario.RateOverride(names.disruptorCost),
		IncumbentRate:  s.cfg.Scenario.RateOverride(names.incumbentCost),
		Market:         market,
		DisruptorUnits: dUnits,
		ChimeraUnits:   chimera,
		DataSource:     provenance,
	}, nil
}

// Energy catalogs use conventional names: disruptor_cost, demand, baseline,
// <tech>_cost, <tech>_generation and <tech>_capacity.
func (s *Service) energyInput(region string) (forecast.EnergyInput, error) {
	provenance := make(map[string]string)
	need := func(name string) (series.TimeSeries, error) {
		ts, prov, err := s.cat.Series(region, name)
		if err != nil {
			return series.TimeSeries{}, err
		}
		provenance[name] = prov.String()
		return ts, nil
	}

	dCost, err := need("disruptor_cost")
	if err != nil {
		return forecast.EnergyInput{}, err
	}
	demand, err := need("demand")
	if err != nil {
		return forecast.EnergyInput{}, err
	}
	baseline, err := need("baseline")
	if err != nil {
		return forecast.EnergyInput{}, err
	}

	order := s.cfg.Scenario.Order()
	if len(order) == 0 {
		order = []capacity.Technology{capacity.Coal, capacity.Gas}
	}
	incumbentCosts := make(map[capacity.Technology]series.TimeSeries, len(order))
	incumbentRates := make(map[capacity.Technology]*float64, len(order))
	incumbentGen := make(map[capacity.Technology]series.TimeSeries, len(order))
	peaks := make(map[capacity.Technology]units.TerawattHours, len(order))
	for _, tech := range order {
		cost, err := need(tech.String() + "_cost")
		if err != nil {
			return forecast.EnergyInput{}, err
		}
		gen, err := need(tech.String() + "_generation")
		if err != nil {
			return forecast.EnergyInput{}, err
		}
		incumbentCosts[tech] = cost
		incumbentRates[tech] = s.cfg.Scenario.RateOverride(tech.String() + "_cost")
		incumbentGen[tech] = gen
		peaks[tech] = units.TerawattHours(maxValue(gen))
	}

	caps := make(map[capacity.Technology]series.TimeSeries)
	for _, tech := range []capacity.Technology{capacity.Solar, capacity.OnshoreWind, capacity.OffshoreWind, capacity.Battery} {
		ts, prov, err := s.cat.Series(region, tech.String()+"_capacity")
		if err != nil {
			continue
		}
		provenance[tech.String()+"_capacity"] = prov.String()
		caps[tech] = ts
	}
	if len(caps) == 0 {
		return forecast.EnergyInput{}, fmt.Errorf("region %s: no disruptor capacity series", region)
	}

	seq := s.cfg.Scenario.Sequencer(peaks)
	seq.Order = order

	return forecast.EnergyInput{
		Region:             region,
		DisruptorCost:      dCost,
		DisruptorRate:      s.cfg.Scenario.RateOverride("disruptor_cost"),
		IncumbentCosts:     incumbentCosts,
		IncumbentRates:     incumbentRates,
		Demand:             demand,
		Baseline:           baseline,
		Capacity:           caps,
		Factors:            s.cfg.Scenario.Factors(),
		IncumbentGen:       incumbentGen,
		Sequencer:          seq,
		InclusionThreshold: s.cfg.Scenario.InclusionThreshold,
		GrowthCap:          s.cfg.Scenario.GrowthCap,
		DataSource:         provenance,
	}, nil
}

func maxValue(s series.TimeSeries) float64 {
	var max float64
	for i := 0; i < s.Len(); i++ {
		if v := s.Value(i); v > max {
			max = v
		}
	}
	return max
}

// Close releases the bus and broker connection.
func (s *Service) Close() error {
	s.bus.Close()
	s.publisher.Close()
	return nil
}
