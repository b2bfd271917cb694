package app

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/kilianp07/parity/config"
)

type jsonSeries struct {
	Years  []int     `json:"years"`
	Values []float64 `json:"values"`
}

func writeCatalog(t *testing.T, data map[string]map[string]jsonSeries) string {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal catalog: %v", err)
	}
	path := filepath.Join(t.TempDir(), "catalog.json")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	return path
}

func flat(years int, v float64) jsonSeries {
	ys := make([]int, years)
	vs := make([]float64, years)
	for i := range ys {
		ys[i] = 2018 + i
		vs[i] = v
	}
	return jsonSeries{Years: ys, Values: vs}
}

func vehicleCatalog(t *testing.T) string {
	usa := map[string]jsonSeries{
		"disruptor_cost":  {Years: []int{2018, 2019, 2020}, Values: []float64{50, 45, 40}},
		"incumbent_cost":  flat(13, 45),
		"market":          flat(13, 1000),
		"disruptor_units": {Years: []int{2018, 2019, 2020}, Values: []float64{50, 80, 120}},
	}
	// EU has no regional disruptor cost; the Global dataset backs it.
	eu := map[string]jsonSeries{
		"incumbent_cost":  flat(13, 45),
		"market":          flat(13, 1000),
		"disruptor_units": {Years: []int{2018, 2019, 2020}, Values: []float64{50, 80, 120}},
	}
	global := map[string]jsonSeries{
		"disruptor_cost": {Years: []int{2018, 2019, 2020}, Values: []float64{50, 45, 40}},
	}
	return writeCatalog(t, map[string]map[string]jsonSeries{
		"USA": usa, "EU": eu, "Global": global,
	})
}

func vehicleConfig(t *testing.T, catalogPath string) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Scenario.EndYear = 2030
	cfg.Catalog.Path = catalogPath
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("finalize config: %v", err)
	}
	return cfg
}

func TestServiceForecastAllRegionsPlusGlobal(t *testing.T) {
	cfg := vehicleConfig(t, vehicleCatalog(t))
	svc, err := New(cfg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	defer svc.Close() //nolint:errcheck

	results, err := svc.Forecast(context.Background())
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want USA + EU + Global", len(results))
	}

	byRegion := make(map[string]int, len(results))
	for i, r := range results {
		byRegion[r.Region] = i
	}
	for _, region := range []string{"USA", "EU", "Global"} {
		i, ok := byRegion[region]
		if !ok {
			t.Fatalf("missing result for %s", region)
		}
		if results[i].TippingPointYear == nil || *results[i].TippingPointYear != 2020 {
			t.Errorf("%s tipping year = %v, want 2020", region, results[i].TippingPointYear)
		}
	}

	global := results[byRegion["Global"]]
	if global.Market[0] != 2000 {
		t.Errorf("global market = %v, want summed 2000", global.Market[0])
	}
	eu := results[byRegion["EU"]]
	if eu.DataSource["disruptor_cost"] != "global_fallback" {
		t.Errorf("EU disruptor cost provenance = %q", eu.DataSource["disruptor_cost"])
	}
	usa := results[byRegion["USA"]]
	if usa.DataSource["disruptor_cost"] != "regional" {
		t.Errorf("USA disruptor cost provenance = %q", usa.DataSource["disruptor_cost"])
	}
}

func TestServiceRegionFlagLimitsRun(t *testing.T) {
	cfg := vehicleConfig(t, vehicleCatalog(t))
	cfg.Catalog.Regions = []string{"USA"}
	svc, err := New(cfg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	defer svc.Close() //nolint:errcheck

	results, err := svc.Forecast(context.Background())
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	// One region plus its (trivial) Global aggregate.
	if len(results) != 2 {
		t.Fatalf("got %d results", len(results))
	}
}

func TestServiceSkipsBrokenRegion(t *testing.T) {
	path := vehicleCatalog(t)
	cfg := vehicleConfig(t, path)
	cfg.Catalog.Regions = []string{"USA", "Atlantis"}
	svc, err := New(cfg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	defer svc.Close() //nolint:errcheck

	results, err := svc.Forecast(context.Background())
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	for _, r := range results {
		if r.Region == "Atlantis" {
			t.Errorf("broken region produced a result")
		}
	}
}

func TestServiceEnergyDomain(t *testing.T) {
	solarGen := []float64{17.52, 21.024, 25.2288}
	coal := []float64{240, 235, 230}
	gas := []float64{120, 125, 130}
	demand := make([]float64, 3)
	for i := range demand {
		demand[i] = 100 + coal[i] + gas[i] + solarGen[i]
	}
	path := writeCatalog(t, map[string]map[string]jsonSeries{
		"FRA": {
			"disruptor_cost":  {Years: []int{2018, 2019, 2020}, Values: []float64{60, 50, 40}},
			"coal_cost":       flat(3, 50),
			"gas_cost":        flat(3, 55),
			"demand":          {Years: []int{2018, 2019, 2020}, Values: demand},
			"baseline":        flat(3, 100),
			"coal_generation": {Years: []int{2018, 2019, 2020}, Values: coal},
			"gas_generation":  {Years: []int{2018, 2019, 2020}, Values: gas},
			"solar_capacity":  {Years: []int{2018, 2019, 2020}, Values: []float64{10, 12, 14.4}},
		},
	})

	cfg := &config.Config{}
	cfg.Scenario.EndYear = 2025
	cfg.Scenario.DisplacementOrder = []string{"coal", "gas"}
	cfg.Scenario.ReserveFloors = map[string]float64{"coal": 0.1, "gas": 0.1}
	cfg.Scenario.CapacityFactor = map[string]config.CapacityFactorConfig{
		"solar": {Base: 0.2, BaseYear: 2020},
	}
	cfg.Catalog.Path = path
	cfg.Catalog.Domain = "energy"
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("finalize config: %v", err)
	}

	svc, err := New(cfg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	defer svc.Close() //nolint:errcheck

	results, err := svc.Forecast(context.Background())
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results", len(results))
	}
	res := results[0]
	if res.Region == "Global" {
		res = results[1]
	}
	if res.Domain != "energy" {
		t.Fatalf("domain = %s", res.Domain)
	}
	if res.TippingPointYear == nil || *res.TippingPointYear != 2019 {
		t.Errorf("tipping year = %v, want 2019", res.TippingPointYear)
	}
	coalOut := res.Incumbents["coal"]
	if coalOut[len(coalOut)-1] >= coal[len(coal)-1] {
		t.Errorf("coal not displaced: %v", coalOut)
	}
}
