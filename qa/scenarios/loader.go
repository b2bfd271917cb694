// Package scenarios runs YAML-defined forecast cases end to end against the
// real pipeline. Each *.yaml file in this directory is one case.
package scenarios

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/parity/core/series"
)

type SeriesDef struct {
	Years  []int     `yaml:"years"`
	Values []float64 `yaml:"values"`
}

func (s SeriesDef) ToSeries() (series.TimeSeries, error) {
	if len(s.Years) == 0 {
		return series.TimeSeries{}, nil
	}
	return series.New(s.Years, s.Values)
}

type Expected struct {
	TippingYear   *int     `yaml:"tipping_year,omitempty"`
	NoParity      bool     `yaml:"no_parity,omitempty"`
	FallbackTier  string   `yaml:"fallback_tier,omitempty"`
	MaxFinalShare *float64 `yaml:"max_final_share,omitempty"`
	MinFinalShare *float64 `yaml:"min_final_share,omitempty"`
}

type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	EndYear     int    `yaml:"end_year"`
	// Series names follow the catalog conventions: disruptor_cost,
	// incumbent_cost, market, disruptor_units, chimera_units.
	Series          map[string]SeriesDef `yaml:"series"`
	Rates           map[string]float64   `yaml:"rates,omitempty"`
	SpeedMultiplier float64              `yaml:"speed_multiplier,omitempty"`
	Expected        Expected             `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if sc.EndYear == 0 {
		return nil, fmt.Errorf("%s: end_year is required", path)
	}
	return &sc, nil
}
