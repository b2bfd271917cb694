package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/parity/core/metrics"
)

func TestPromSinkRecordRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	year := 2027
	err = sink.RecordRun(coremetrics.RunRecord{
		RunID:            "r1",
		Region:           "USA",
		Domain:           "vehicle",
		TippingYear:      &year,
		FallbackTier:     "fitted",
		ValidationPassed: true,
		Duration:         120 * time.Millisecond,
		Time:             time.Now(),
	})
	require.NoError(t, err)

	ps := sink.(*PromSink)
	got := testutil.ToFloat64(ps.runs.WithLabelValues("USA", "vehicle", "fitted", "true"))
	require.Equal(t, 1.0, got)
	require.Equal(t, 2027.0, testutil.ToFloat64(ps.tipping.WithLabelValues("USA", "vehicle")))
}

func TestPromSinkNoTippingYear(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	err = sink.RecordRun(coremetrics.RunRecord{
		Region: "EU", Domain: "energy", FallbackTier: "conservative_no_parity",
	})
	require.NoError(t, err)

	// The gauge stays unset when no parity was found.
	ps := sink.(*PromSink)
	require.Equal(t, 0, testutil.CollectAndCount(ps.tipping))
}

func TestPromSinkReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	second, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, first.RecordRun(coremetrics.RunRecord{Region: "USA", Domain: "vehicle", FallbackTier: "fitted"}))
	require.NoError(t, second.RecordRun(coremetrics.RunRecord{Region: "USA", Domain: "vehicle", FallbackTier: "fitted"}))

	ps := second.(*PromSink)
	got := testutil.ToFloat64(ps.runs.WithLabelValues("USA", "vehicle", "fitted", "false"))
	require.Equal(t, 2.0, got)
}

func TestPromSinkIgnoresSeries(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	require.NoError(t, sink.RecordSeries([]coremetrics.SeriesPoint{{Region: "USA", Series: "market", Year: 2030, Value: 1}}))
}
