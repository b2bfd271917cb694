// Package config loads and validates the run configuration. Configuration
// errors are fatal at load time: a forecast run is batch work, and a half
// valid scenario silently producing numbers is worse than no run at all.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/parity/core/metrics"
	"github.com/kilianp07/parity/infra/publish"
)

// ConfigurationError names the offending field so the operator can fix the
// file without reading code.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

type Config struct {
	Scenario ScenarioConfig `json:"scenario"`
	Catalog  CatalogConfig  `json:"catalog"`
	Metrics  metrics.Config `json:"metrics"`
	Publish  publish.Config `json:"publish"`
}

var validate = validator.New()

// Load reads the config file, applies PARITY_ environment overrides, fills
// defaults and validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides, e.g. PARITY_SCENARIO__END_YEAR=2050.
	// The callback rewrites "__" to the koanf path delimiter, so the
	// provider itself must split on ".".
	if err := k.Load(env.Provider("PARITY_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "parity_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Finalize fills defaults and validates a decoded Config. Split from Load so
// tests and embedders can build configs without a file.
func (c *Config) Finalize() error {
	if err := defaults.Set(c); err != nil {
		return err
	}
	c.Catalog.SetDefaults()
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			e := verrs[0]
			return &ConfigurationError{
				Field:  e.Namespace(),
				Reason: fmt.Sprintf("failed %q constraint (value %v)", e.Tag(), e.Value()),
			}
		}
		return err
	}
	if err := c.Scenario.Validate(); err != nil {
		return err
	}
	if err := c.Catalog.Validate(); err != nil {
		return err
	}
	return nil
}
