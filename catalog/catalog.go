// Package catalog loads the historical curve catalog consumed by the
// forecasting pipeline. Data is keyed by (region, series name). When a
// region lacks a series the Global dataset may back it, but never silently:
// every lookup returns an explicit Provenance that travels all the way to
// the exported result.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kilianp07/parity/core/logger"
	"github.com/kilianp07/parity/core/series"
)

// GlobalRegion is the aggregate dataset used as a fallback for missing
// regional series.
const GlobalRegion = "Global"

// Provenance records where a series' data came from. It is part of the
// output contract, not an implementation detail: a $100/MWh placeholder from
// a fallback dataset must never masquerade as regional observation.
type Provenance int

const (
	SourceRegional Provenance = iota
	SourceGlobalFallback
	SourceDerivedDefault
)

// String returns the export name of the provenance.
func (p Provenance) String() string {
	switch p {
	case SourceRegional:
		return "regional"
	case SourceGlobalFallback:
		return "global_fallback"
	case SourceDerivedDefault:
		return "derived_default"
	default:
		return "unknown"
	}
}

// Role is the closed set of entity roles a named series can play in a
// market. Roles are resolved once at configuration-load time; the
// forecasting kernel never inspects series names.
type Role int

const (
	RoleDisruptor Role = iota
	RoleIncumbent
	RoleChimera
	RoleMarket
)

// ParseRole resolves a config name to a Role.
func ParseRole(name string) (Role, error) {
	switch name {
	case "disruptor":
		return RoleDisruptor, nil
	case "incumbent":
		return RoleIncumbent, nil
	case "chimera":
		return RoleChimera, nil
	case "market":
		return RoleMarket, nil
	default:
		return 0, fmt.Errorf("unknown entity role %q", name)
	}
}

// String returns the config name of the role.
func (r Role) String() string {
	switch r {
	case RoleDisruptor:
		return "disruptor"
	case RoleIncumbent:
		return "incumbent"
	case RoleChimera:
		return "chimera"
	case RoleMarket:
		return "market"
	default:
		return "unknown"
	}
}

type rawSeries struct {
	Years  []int     `json:"years"`
	Values []float64 `json:"values"`
}

// Catalog holds all loaded historical series.
type Catalog struct {
	regions map[string]map[string]series.TimeSeries
	log     logger.Logger
}

// Load reads the catalog from a JSON file or a directory of JSON files.
// Each file maps region name to series name to {years, values}.
func Load(path string, log logger.Logger) (*Catalog, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	c := &Catalog{regions: make(map[string]map[string]series.TimeSeries), log: log}
	if !info.IsDir() {
		if err := c.loadFile(path); err != nil {
			return nil, err
		}
		return c, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		if err := c.loadFile(filepath.Join(path, e.Name())); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Catalog) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("catalog %s: %w", path, err)
	}
	var raw map[string]map[string]rawSeries
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("catalog %s: %w", path, err)
	}
	for region, byName := range raw {
		if c.regions[region] == nil {
			c.regions[region] = make(map[string]series.TimeSeries)
		}
		for name, rs := range byName {
			ts, err := series.New(rs.Years, rs.Values)
			if err != nil {
				return fmt.Errorf("catalog %s: region %s series %s: %w", path, region, name, err)
			}
			c.regions[region][name] = ts
		}
	}
	return nil
}

// Regions returns the sorted region names, Global excluded.
func (c *Catalog) Regions() []string {
	var out []string
	for r := range c.regions {
		if r != GlobalRegion {
			out = append(out, r)
		}
	}
	sort.Strings(out)
	return out
}

// Series returns the named series for the region. When the region lacks it
// the Global dataset is tried and the substitution is reported as
// SourceGlobalFallback.
func (c *Catalog) Series(region, name string) (series.TimeSeries, Provenance, error) {
	if byName, ok := c.regions[region]; ok {
		if ts, ok := byName[name]; ok {
			return ts, SourceRegional, nil
		}
	}
	if byName, ok := c.regions[GlobalRegion]; ok {
		if ts, ok := byName[name]; ok {
			if c.log != nil {
				c.log.Warnf("region %s missing series %s, falling back to Global data", region, name)
			}
			return ts, SourceGlobalFallback, nil
		}
	}
	return series.TimeSeries{}, 0, fmt.Errorf("series %s not found for region %s or Global", name, region)
}

// SeriesOrDefault is Series with a derived default instead of an error. The
// default's provenance is always SourceDerivedDefault.
func (c *Catalog) SeriesOrDefault(region, name string, def series.TimeSeries) (series.TimeSeries, Provenance) {
	if ts, prov, err := c.Series(region, name); err == nil {
		return ts, prov
	}
	return def, SourceDerivedDefault
}
