package telemetryhub

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/amareshkumar/telemetryhub/internal/adapters/bus"
	"github.com/amareshkumar/telemetryhub/internal/adapters/observability"
	"github.com/amareshkumar/telemetryhub/internal/adapters/sink"
	"github.com/amareshkumar/telemetryhub/internal/app/config"
	"github.com/amareshkumar/telemetryhub/internal/app/pipeline"
	"github.com/amareshkumar/telemetryhub/internal/device"
)

// GatewayOption customizes the dependencies used by Gateway.
type GatewayOption func(*gatewayOverrides)

type gatewayOverrides struct {
	sink Sink
	obs  Observability
}

// WithSink injects a custom sink so samples can be sent anywhere,
// bypassing the cloud.publisher config block.
func WithSink(s Sink) GatewayOption {
	return func(o *gatewayOverrides) { o.sink = s }
}

// WithObservability plugs in a custom logging/metrics backend.
func WithObservability(obs Observability) GatewayOption {
	return func(o *gatewayOverrides) { o.obs = obs }
}

// Gateway wires the device → queue → sink pipeline together with the
// HTTP control surface and the Prometheus metrics endpoint, exposing
// simple lifecycle hooks for embedding TelemetryHub in any Go service.
type Gateway struct {
	cfg  *Config
	core *pipeline.GatewayCore

	// serial is the UART simulator bound to the owned device; the
	// command surface injects into it.
	serial *bus.SerialPort

	db         *sql.DB
	sinkCloser func()

	// promReg is per-gateway so multiple gateways in one process do
	// not collide on metric registration. Nil when the caller brought
	// its own observability backend.
	promReg *prometheus.Registry

	httpSrv    *http.Server
	metricsSrv *http.Server
}

// NewGateway bootstraps the default adapters from config: a simulated
// device on a UART bus, the bounded telemetry queue, the configured
// cloud publisher, and slog+Prometheus observability. Use
// GatewayOption values to override the sink or observability backend.
func NewGateway(cfg *Config, opts ...GatewayOption) (*Gateway, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	var overrides gatewayOverrides
	for _, opt := range opts {
		if opt != nil {
			opt(&overrides)
		}
	}

	g := &Gateway{cfg: cfg, serial: bus.NewSerialPort()}

	obs := overrides.obs
	if obs == nil {
		logger := observability.NewLogger(cfg.Logging.Level, cfg.Logging.Format, Version)
		g.promReg = prometheus.NewRegistry()
		obs = observability.New(logger, g.promReg)
	}

	snk := overrides.sink
	if snk == nil {
		var err error
		snk, err = g.buildSink()
		if err != nil {
			return nil, err
		}
	}

	faultMode, err := config.ParseFaultMode(cfg.Device.FaultMode)
	if err != nil {
		return nil, err
	}

	g.core = pipeline.NewGatewayCore(
		pipeline.WithSink(snk, cfg.Gateway.CloudSampleInterval),
		pipeline.WithSampleInterval(time.Duration(cfg.Gateway.SamplingIntervalMs)*time.Millisecond),
		pipeline.WithQueueCapacity(cfg.Gateway.QueueSize),
		pipeline.WithFailureThreshold(cfg.Gateway.MaxConsecutiveFailures),
		pipeline.WithObservability(obs),
		pipeline.WithDeviceOptions(
			device.WithFaultAfterSamples(uint32(cfg.Device.FaultAfterSamples)),
			device.WithFaultMode(faultMode, cfg.Device.ErrorProbability),
			device.WithBus(g.serial),
		),
	)

	return g, nil
}

// buildSink constructs the publisher named by cloud.publisher and
// wraps it with retry when enabled.
func (g *Gateway) buildSink() (Sink, error) {
	cloud := g.cfg.Cloud

	var (
		snk Sink
		err error
	)
	switch cloud.Publisher {
	case "stdout":
		snk = sink.NewLogSink(observability.NewLogger(g.cfg.Logging.Level, g.cfg.Logging.Format, Version))

	case "rest":
		snk = sink.NewRESTSink(cloud.REST.BaseURL, nil)

	case "mqtt":
		var m *sink.MQTTSink
		m, err = sink.ConnectMQTT(cloud.MQTT.BrokerURL, cloud.MQTT.ClientID, cloud.MQTT.TopicPrefix, byte(cloud.MQTT.QoS))
		if err == nil {
			snk = m
			g.sinkCloser = m.Close
		}

	case "nats":
		var n *sink.NATSSink
		n, err = sink.ConnectNATS(cloud.NATS.URL, cloud.NATS.Subject, cloud.NATS.TaskType)
		if err == nil {
			snk = n
			g.sinkCloser = n.Close
		}

	case "influx":
		i := sink.NewInfluxSink(cloud.Influx.URL, cloud.Influx.Token, cloud.Influx.Org, cloud.Influx.Bucket, "telemetryhub")
		snk = i
		g.sinkCloser = i.Close

	case "postgres":
		g.db, err = sql.Open("postgres", cloud.Postgres.ConnString)
		if err == nil {
			snk = sink.NewPostgresSink(g.db, cloud.Postgres.SampleTable, cloud.Postgres.StatusTable)
		}

	default:
		err = fmt.Errorf("unknown cloud.publisher %q", cloud.Publisher)
	}
	if err != nil {
		return nil, err
	}

	if cloud.Retry.Enabled {
		snk = sink.NewRetrySink(snk, sink.RetryConfig{
			MaxAttempts:  cloud.Retry.Attempts,
			InitialDelay: cloud.Retry.InitialBackoff,
			MaxDelay:     cloud.Retry.MaxBackoff,
			Multiplier:   2.0,
			AddJitter:    true,
		})
	}

	return snk, nil
}

// Start begins the pipeline and launches the HTTP control surface and
// the metrics endpoint. It returns immediately; call Run to block on
// a context instead.
func (g *Gateway) Start() error {
	if g == nil {
		return fmt.Errorf("gateway is nil")
	}

	g.core.Start()
	g.startMetrics()
	g.startHTTP()
	return nil
}

// Run starts the gateway and blocks until the provided context is
// cancelled, then attempts a graceful shutdown.
func (g *Gateway) Run(ctx context.Context) error {
	if err := g.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return g.Shutdown(shutdownCtx)
}

// Shutdown stops the pipeline, the HTTP servers, and the sink
// transport.
func (g *Gateway) Shutdown(ctx context.Context) error {
	var errs []error

	g.core.Stop()

	if g.httpSrv != nil {
		if err := g.httpSrv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, err)
		}
	}
	if g.metricsSrv != nil {
		if err := g.metricsSrv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, err)
		}
	}

	if g.sinkCloser != nil {
		g.sinkCloser()
	}
	if g.db != nil {
		if err := g.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// StartPipeline starts only the sampling pipeline, without the HTTP
// surfaces. Useful for embedding.
func (g *Gateway) StartPipeline() { g.core.Start() }

// StopPipeline stops the sampling pipeline. Idempotent.
func (g *Gateway) StopPipeline() { g.core.Stop() }

// ResetDevice recovers the device from a latched fault state; refused
// while the pipeline is running.
func (g *Gateway) ResetDevice() bool { return g.core.ResetDevice() }

// DeviceState reports the owned device's current state.
func (g *Gateway) DeviceState() DeviceState { return g.core.DeviceState() }

// LatestSample returns the most recently consumed sample, if any.
func (g *Gateway) LatestSample() (Sample, bool) { return g.core.LatestSample() }

// GetStatus returns the status snapshot.
func (g *Gateway) GetStatus() Status { return g.core.Status() }

// GetMetrics returns a snapshot of pipeline counters.
func (g *Gateway) GetMetrics() Metrics { return g.core.GetMetrics() }

// SendCommand injects a serial command, drives one interpreter round,
// and returns the device reply. ok is false when the command was lost
// (e.g. an injected communication fault or bus overflow).
func (g *Gateway) SendCommand(cmd string) (string, bool) {
	g.serial.Inject(cmd)
	return g.core.ProcessSerialCommands()
}

func (g *Gateway) startMetrics() {
	handler := promhttp.Handler()
	if g.promReg != nil {
		handler = promhttp.HandlerFor(g.promReg, promhttp.HandlerOpts{})
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	g.metricsSrv = &http.Server{
		Addr:    g.cfg.Metrics.Addr,
		Handler: mux,
	}

	go func() {
		if err := g.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("metrics server exited: %v", err)
		}
	}()
}

func (g *Gateway) startHTTP() {
	g.httpSrv = &http.Server{
		Addr:    g.cfg.HTTP.Addr,
		Handler: g.buildRouter(),
	}

	go func() {
		if err := g.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server exited: %v", err)
		}
	}()
}
