package metrics

import "testing"

// TestMultiSink ensures records are forwarded to all sinks.

type recordSink struct {
	count int
}

func (r *recordSink) RecordRun(RunRecord) error        { r.count++; return nil }
func (r *recordSink) RecordSeries([]SeriesPoint) error { r.count++; return nil }

func TestMultiSink(t *testing.T) {
	s1 := &recordSink{}
	s2 := &recordSink{}
	m := NewMultiSink(s1, s2)
	if err := m.RecordRun(RunRecord{}); err != nil {
		t.Fatalf("record run: %v", err)
	}
	if err := m.RecordSeries(nil); err != nil {
		t.Fatalf("record series: %v", err)
	}
	if s1.count != 2 || s2.count != 2 {
		t.Fatalf("records not forwarded")
	}
}

func TestNewMetricsSinkEmpty(t *testing.T) {
	s, err := NewMetricsSink(nil)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	if _, ok := s.(NopSink); !ok {
		t.Fatalf("expected NopSink for empty config")
	}
}
