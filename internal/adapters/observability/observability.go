package observability

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/amareshkumar/telemetryhub/internal/ports"
)

// Metric names shared between the pipeline and the stats CLI.
const (
	MetricSamplesProcessed   = "telemetryhub_samples_processed_total"
	MetricSamplesDropped     = "telemetryhub_samples_dropped_total"
	MetricSamplesConsumed    = "telemetryhub_samples_consumed_total"
	MetricReadFailures       = "telemetryhub_read_failures_total"
	MetricSinkFailures       = "telemetryhub_sink_publish_failures_total"
	MetricQueueDepth         = "telemetryhub_queue_depth"
	MetricSinkPublishLatency = "telemetryhub_sink_publish_latency_seconds"
)

// Obs implements ports.Observability on top of slog and Prometheus.
// Metrics are registered against the given registerer so tests can use
// a private registry instead of the process default.
type Obs struct {
	logger   *slog.Logger
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

// New registers the gateway metric set and wraps the given logger.
// A nil logger falls back to slog.Default().
func New(logger *slog.Logger, reg prometheus.Registerer) *Obs {
	if logger == nil {
		logger = slog.Default()
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	processed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: MetricSamplesProcessed,
		Help: "Samples pushed to the queue by the producer.",
	})
	dropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: MetricSamplesDropped,
		Help: "Samples evicted from the queue head by the drop-oldest policy.",
	})
	consumed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: MetricSamplesConsumed,
		Help: "Samples taken off the queue by the consumer.",
	})
	readFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: MetricReadFailures,
		Help: "Device reads that produced no sample while measuring.",
	})
	sinkFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: MetricSinkFailures,
		Help: "Sink publications that returned an error.",
	})
	queueDepth := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: MetricQueueDepth,
		Help: "Current number of samples buffered in the queue.",
	})
	sinkLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    MetricSinkPublishLatency,
		Help:    "Latency of synchronous sink publications.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	})

	reg.MustRegister(processed, dropped, consumed, readFailures, sinkFailures, queueDepth, sinkLatency)

	return &Obs{
		logger: logger,
		counters: map[string]prometheus.Counter{
			MetricSamplesProcessed: processed,
			MetricSamplesDropped:   dropped,
			MetricSamplesConsumed:  consumed,
			MetricReadFailures:     readFailures,
			MetricSinkFailures:     sinkFailures,
		},
		gauges: map[string]prometheus.Gauge{
			MetricQueueDepth: queueDepth,
		},
		histos: map[string]prometheus.Observer{
			MetricSinkPublishLatency: sinkLatency,
		},
	}
}

func (o *Obs) LogInfo(msg string, fields ...ports.Field) {
	o.logger.Info(msg, attrs(fields)...)
}

func (o *Obs) LogDebug(msg string, fields ...ports.Field) {
	o.logger.Debug(msg, attrs(fields)...)
}

func (o *Obs) LogError(msg string, err error, fields ...ports.Field) {
	args := attrs(fields)
	if err != nil {
		args = append(args, slog.Any("error", err))
	}
	o.logger.Error(msg, args...)
}

func (o *Obs) IncCounter(name string, v float64) {
	if c, ok := o.counters[name]; ok {
		c.Add(v)
	}
}

func (o *Obs) SetGauge(name string, v float64) {
	if g, ok := o.gauges[name]; ok {
		g.Set(v)
	}
}

func (o *Obs) ObserveLatency(name string, seconds float64) {
	if h, ok := o.histos[name]; ok {
		h.Observe(seconds)
	}
}

func attrs(fields []ports.Field) []any {
	args := make([]any, 0, len(fields))
	for _, f := range fields {
		args = append(args, slog.Any(f.Key, f.Value))
	}
	return args
}

// Nop returns an Observability that logs nowhere and registers nothing.
// Handy for tests and examples.
func Nop() ports.Observability { return nopObs{} }

type nopObs struct{}

func (nopObs) LogInfo(string, ...ports.Field)         {}
func (nopObs) LogDebug(string, ...ports.Field)        {}
func (nopObs) LogError(string, error, ...ports.Field) {}
func (nopObs) IncCounter(string, float64)             {}
func (nopObs) SetGauge(string, float64)               {}
func (nopObs) ObserveLatency(string, float64)         {}

var _ ports.Observability = (*Obs)(nil)
