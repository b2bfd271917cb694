package metrics

import "github.com/kilianp07/parity/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PrometheusPort is the listen address for the /metrics endpoint, used
	// when a prometheus sink is configured.
	PrometheusPort string `json:"prometheus_port"`
}
