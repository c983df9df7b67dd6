package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/amareshkumar/telemetryhub/internal/ports"
)

func newTestObs() (*Obs, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return New(slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil)), reg), reg
}

func TestCountersRegisteredAndIncremented(t *testing.T) {
	obs, reg := newTestObs()

	obs.IncCounter(MetricSamplesProcessed, 3)
	obs.IncCounter(MetricSamplesDropped, 1)
	obs.SetGauge(MetricQueueDepth, 7)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(mfs) == 0 {
		t.Fatal("no metric families registered")
	}

	if got := testutil.ToFloat64(obs.counters[MetricSamplesProcessed]); got != 3 {
		t.Fatalf("processed counter = %f, want 3", got)
	}
	if got := testutil.ToFloat64(obs.counters[MetricSamplesDropped]); got != 1 {
		t.Fatalf("dropped counter = %f, want 1", got)
	}
	if got := testutil.ToFloat64(obs.gauges[MetricQueueDepth]); got != 7 {
		t.Fatalf("queue gauge = %f, want 7", got)
	}
}

func TestUnknownMetricNamesAreIgnored(t *testing.T) {
	obs, _ := newTestObs()

	// Must not panic or register anything on the fly.
	obs.IncCounter("telemetryhub_not_a_metric", 1)
	obs.SetGauge("telemetryhub_not_a_gauge", 1)
	obs.ObserveLatency("telemetryhub_not_a_histogram", 0.5)
}

func TestLogFieldsReachHandler(t *testing.T) {
	var buf bytes.Buffer
	reg := prometheus.NewRegistry()
	obs := New(slog.New(slog.NewJSONHandler(&buf, nil)), reg)

	obs.LogInfo("pipeline event", ports.Field{Key: "seq", Value: 12})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output not JSON: %v", err)
	}
	if entry["msg"] != "pipeline event" {
		t.Fatalf("unexpected msg: %v", entry["msg"])
	}
	if entry["seq"].(float64) != 12 {
		t.Fatalf("field seq missing: %v", entry)
	}
}

func TestNopObservability(t *testing.T) {
	obs := Nop()
	obs.LogInfo("ignored")
	obs.LogError("ignored", nil)
	obs.IncCounter(MetricSamplesProcessed, 1)
	obs.SetGauge(MetricQueueDepth, 1)
	obs.ObserveLatency(MetricSinkPublishLatency, 0.1)
}

func TestNewLoggerLevels(t *testing.T) {
	logger := NewLogger("debug", "text", "test")
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("debug level not enabled")
	}

	logger = NewLogger("error", "json", "test")
	if logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("info should be filtered at error level")
	}
}
