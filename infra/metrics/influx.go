package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/parity/core/metrics"
	"github.com/kilianp07/parity/infra/logger"
)

// InfluxSink writes forecast runs and trajectories to InfluxDB using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a NopSink
// if the health check fails, so a missing database never blocks a run.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordRun writes one completed forecast run.
func (s *InfluxSink) RecordRun(rec coremetrics.RunRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("forecast_run").
		AddTag("run_id", rec.RunID).
		AddTag("region", rec.Region).
		AddTag("domain", rec.Domain).
		AddTag("fallback_tier", rec.FallbackTier).
		AddTag("valid", strconv.FormatBool(rec.ValidationPassed)).
		AddField("duration_ms", round3(rec.Duration.Seconds()*1000)).
		SetTime(rec.Time)
	if rec.TippingYear != nil {
		p = p.AddField("tipping_year", *rec.TippingYear)
	}
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordSeries writes the forecast trajectories as one point per year.
func (s *InfluxSink) RecordSeries(pts []coremetrics.SeriesPoint) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, pt := range pts {
		p := write.NewPointWithMeasurement("forecast_series").
			AddTag("run_id", pt.RunID).
			AddTag("region", pt.Region).
			AddTag("series", pt.Series).
			AddField("year", pt.Year).
			AddField("value", round3(pt.Value)).
			SetTime(time.Date(pt.Year, time.January, 1, 0, 0, 0, 0, time.UTC))
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close shuts down the underlying client.
func (s *InfluxSink) Close() {
	s.client.Close()
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
