// Package metrics defines the observability interfaces for the forecasting
// pipeline. Sinks like the Prometheus and InfluxDB implementations record
// completed runs and projected series points and can be combined with
// NewMultiSink; the factory helpers return a MultiSink automatically when
// multiple sinks are configured.
package metrics

import (
	"time"
)

// RunRecord captures one completed regional pipeline run.
type RunRecord struct {
	RunID            string
	Region           string
	Domain           string
	TippingYear      *int
	FallbackTier     string
	ValidationPassed bool
	Duration         time.Duration
	Time             time.Time
}

// SeriesPoint is one projected value of a named output series.
type SeriesPoint struct {
	RunID  string
	Region string
	Series string
	Year   int
	Value  float64
}

// MetricsSink records forecast results for observability purposes.
type MetricsSink interface {
	RecordRun(RunRecord) error
	RecordSeries([]SeriesPoint) error
}

// NopSink discards all records.
type NopSink struct{}

func (NopSink) RecordRun(RunRecord) error        { return nil }
func (NopSink) RecordSeries([]SeriesPoint) error { return nil }

// MultiSink fans records out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordRun forwards the record to all sinks, returning the first error encountered.
func (m *MultiSink) RecordRun(rec RunRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordRun(rec); err != nil {
			return err
		}
	}
	return nil
}

// RecordSeries forwards the points to all sinks.
func (m *MultiSink) RecordSeries(pts []SeriesPoint) error {
	for _, s := range m.Sinks {
		if err := s.RecordSeries(pts); err != nil {
			return err
		}
	}
	return nil
}
