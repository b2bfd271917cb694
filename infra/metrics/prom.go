package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/parity/core/metrics"
)

// PromSink exposes run-level forecast metrics. Per-year series are not
// exported here: a year axis per region per run is unbounded label
// cardinality, and Influx is the sink for that shape of data.
type PromSink struct {
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	tipping  *prometheus.GaugeVec
}

// NewPromSink registers forecast metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using cfg.PrometheusPort.
func NewPromSink() (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "forecast_runs_total",
		Help: "Completed forecast runs",
	}, []string{"region", "domain", "fallback_tier", "valid"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "forecast_run_duration_seconds",
		Help:    "Wall time of one regional forecast",
		Buckets: prometheus.DefBuckets,
	}, []string{"region", "domain"})
	tipping := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "forecast_tipping_year",
		Help: "Detected cost parity year, absent when no parity was found",
	}, []string{"region", "domain"})

	if err := reg.Register(runs); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			runs = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(duration); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			duration = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(tipping); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			tipping = are.ExistingCollector.(*prometheus.GaugeVec)
		} else {
			return nil, err
		}
	}

	return &PromSink{runs: runs, duration: duration, tipping: tipping}, nil
}

// RecordRun counts the run and records its duration and tipping year.
func (s *PromSink) RecordRun(rec coremetrics.RunRecord) error {
	s.runs.WithLabelValues(rec.Region, rec.Domain, rec.FallbackTier,
		strconv.FormatBool(rec.ValidationPassed)).Inc()
	s.duration.WithLabelValues(rec.Region, rec.Domain).Observe(rec.Duration.Seconds())
	if rec.TippingYear != nil {
		s.tipping.WithLabelValues(rec.Region, rec.Domain).Set(float64(*rec.TippingYear))
	}
	return nil
}

// RecordSeries is a no-op for Prometheus.
func (s *PromSink) RecordSeries([]coremetrics.SeriesPoint) error { return nil }
