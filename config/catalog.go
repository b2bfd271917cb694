package config

import (
	"github.com/kilianp07/parity/catalog"
)

// Default series bindings for the vehicle domain. Keys are catalog series
// names, values the role each plays in the forecast.
var defaultBindings = map[string]string{
	"disruptor_cost":  "disruptor",
	"incumbent_cost":  "incumbent",
	"market":          "market",
	"disruptor_units": "disruptor",
	"chimera_units":   "chimera",
}

// CatalogConfig points the run at its data and names the regions to cover.
type CatalogConfig struct {
	// Path is a JSON file or a directory of JSON files.
	Path string `json:"path" validate:"required"`
	// Domain selects the pipeline variant.
	Domain string `json:"domain" default:"vehicle" validate:"oneof=vehicle energy"`
	// Regions limits the run; empty means every region in the catalog.
	Regions []string `json:"regions"`
	// Bindings maps catalog series names to forecast roles. Unset entries
	// fall back to the conventional names.
	Bindings map[string]string `json:"bindings"`
}

// SetDefaults fills the conventional series bindings.
func (c *CatalogConfig) SetDefaults() {
	if c.Bindings == nil {
		c.Bindings = make(map[string]string, len(defaultBindings))
	}
	for name, role := range defaultBindings {
		if _, ok := c.Bindings[name]; !ok {
			c.Bindings[name] = role
		}
	}
}

// Validate checks that every binding names a known role.
func (c CatalogConfig) Validate() error {
	for name, role := range c.Bindings {
		if _, err := catalog.ParseRole(role); err != nil {
			return &ConfigurationError{Field: "catalog.bindings." + name, Reason: err.Error()}
		}
	}
	return nil
}

// Roles resolves the validated bindings to typed roles.
func (c CatalogConfig) Roles() map[string]catalog.Role {
	out := make(map[string]catalog.Role, len(c.Bindings))
	for name, role := range c.Bindings {
		if r, err := catalog.ParseRole(role); err == nil {
			out[name] = r
		}
	}
	return out
}
