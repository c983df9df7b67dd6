package pipeline

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/amareshkumar/telemetryhub/internal/adapters/observability"
	"github.com/amareshkumar/telemetryhub/internal/adapters/queue"
	"github.com/amareshkumar/telemetryhub/internal/device"
	"github.com/amareshkumar/telemetryhub/internal/domain"
	"github.com/amareshkumar/telemetryhub/internal/ports"
)

const defaultSampleInterval = 100 * time.Millisecond

// Option customizes a GatewayCore at construction.
type Option func(*GatewayCore)

// WithSink binds the cloud sink and the publish cadence: every Nth
// accepted sample is published. The sink is shared with the caller and
// must outlive the gateway.
func WithSink(s ports.Sink, everyNth int) Option {
	return func(g *GatewayCore) {
		g.sink = s
		if everyNth < 1 {
			everyNth = 1
		}
		g.cloudSampleInterval = uint64(everyNth)
	}
}

// WithSampleInterval sets the producer pacing between iterations.
func WithSampleInterval(d time.Duration) Option {
	return func(g *GatewayCore) {
		if d >= 0 {
			g.sampleInterval = d
		}
	}
}

// WithQueueCapacity bounds the sample queue. 0 means unbounded.
func WithQueueCapacity(capacity int) Option {
	return func(g *GatewayCore) {
		if capacity >= 0 {
			g.queueCapacity = capacity
		}
	}
}

// WithFailureThreshold sets the circuit breaker: after this many
// consecutive failed reads the device is forced into SafeState.
func WithFailureThreshold(maxFailures int) Option {
	return func(g *GatewayCore) {
		if maxFailures >= 1 {
			g.maxConsecutiveFailures = maxFailures
		}
	}
}

// WithDeviceOptions forwards options to the owned device, e.g. fault
// injection or a serial bus binding.
func WithDeviceOptions(opts ...device.Option) Option {
	return func(g *GatewayCore) {
		g.deviceOpts = append(g.deviceOpts, opts...)
	}
}

// WithObservability injects the logging/metrics backend.
func WithObservability(obs ports.Observability) Option {
	return func(g *GatewayCore) {
		if obs != nil {
			g.obs = obs
		}
	}
}

// Metrics is a point-in-time snapshot of pipeline activity.
type Metrics struct {
	SamplesProcessed uint64 `json:"samples_processed"`
	SamplesDropped   uint64 `json:"samples_dropped"`
	QueueDepth       int    `json:"queue_depth"`
	UptimeSeconds    uint64 `json:"uptime_seconds"`
}

// Status is the read-only snapshot consumed by the status endpoint.
type Status struct {
	State        domain.DeviceState      `json:"-"`
	LatestSample *domain.TelemetrySample `json:"latest_sample"`
}

// GatewayCore owns one Device and one TelemetryQueue and runs the
// sampling pipeline between them: a producer goroutine reads the
// device and pushes into the queue, a consumer goroutine drains the
// queue into the latest-sample cache. Every Nth accepted sample and
// every state transition is published to the bound sink.
//
// Lock ordering: queue mutex → device mutex → latest-sample mutex.
// No code path holds two of these at once.
type GatewayCore struct {
	dev   *device.Device
	queue atomic.Pointer[queue.TelemetryQueue]
	obs   ports.Observability

	sink                ports.Sink
	cloudSampleInterval uint64

	sampleInterval         time.Duration
	queueCapacity          int
	maxConsecutiveFailures int
	deviceOpts             []device.Option

	running      atomic.Bool
	producerDone chan struct{}
	consumerDone chan struct{}

	latestMu sync.Mutex
	latest   *domain.TelemetrySample

	samplesProcessed atomic.Uint64
	samplesDropped   atomic.Uint64
	startTime        time.Time
}

// NewGatewayCore builds an idle gateway. No workers exist until Start.
func NewGatewayCore(opts ...Option) *GatewayCore {
	g := &GatewayCore{
		obs:                    observability.Nop(),
		cloudSampleInterval:    4,
		sampleInterval:         defaultSampleInterval,
		maxConsecutiveFailures: 5,
		startTime:              time.Now(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	g.dev = device.NewDevice(g.deviceOpts...)
	g.queue.Store(queue.NewTelemetryQueue(g.queueCapacity))
	return g
}

// Start transitions the device to Measuring and spawns the producer
// and consumer workers. A second Start while running is a no-op.
func (g *GatewayCore) Start() {
	if !g.running.CompareAndSwap(false, true) {
		return
	}

	g.obs.LogInfo("gateway starting")

	// Queue shutdown is one-way, so a restarted session gets a fresh
	// queue. No workers exist here; the swap is safe.
	q := queue.NewTelemetryQueue(g.queueCapacity)
	g.queue.Store(q)

	prevState := g.dev.State()
	g.dev.Start()

	g.producerDone = make(chan struct{})
	g.consumerDone = make(chan struct{})
	go g.producerLoop(q, prevState, g.producerDone)
	go g.consumerLoop(q, g.consumerDone)
}

// Stop shuts the queue down, stops the device, and joins both workers.
// Safe from any state and idempotent.
func (g *GatewayCore) Stop() {
	if !g.running.CompareAndSwap(true, false) {
		return
	}

	g.obs.LogInfo("gateway stopping")

	g.queue.Load().Shutdown()
	g.dev.Stop()

	<-g.producerDone
	<-g.consumerDone

	g.obs.LogInfo("gateway stopped")
}

// ResetDevice recovers the device from a latched fault state. Refused
// while the pipeline is running.
func (g *GatewayCore) ResetDevice() bool {
	if g.running.Load() {
		return false
	}
	return g.dev.Reset()
}

// DeviceState reports the owned device's current state.
func (g *GatewayCore) DeviceState() domain.DeviceState {
	return g.dev.State()
}

// LatestSample returns the most recently consumed sample, if any.
// Because drops happen at the queue head, this is not necessarily the
// most recently produced sample.
func (g *GatewayCore) LatestSample() (domain.TelemetrySample, bool) {
	g.latestMu.Lock()
	defer g.latestMu.Unlock()
	if g.latest == nil {
		return domain.TelemetrySample{}, false
	}
	return *g.latest, true
}

// Status returns the snapshot consumed by the status endpoint.
func (g *GatewayCore) Status() Status {
	st := Status{State: g.dev.State()}
	if s, ok := g.LatestSample(); ok {
		st.LatestSample = &s
	}
	return st
}

// ProcessSerialCommands drives one round of the device's command
// interpreter. Exposed for the command surface; the caller injects
// into the bus it bound via WithDeviceOptions.
func (g *GatewayCore) ProcessSerialCommands() (string, bool) {
	return g.dev.ProcessSerialCommands()
}

// GetMetrics returns a best-effort snapshot of pipeline counters.
func (g *GatewayCore) GetMetrics() Metrics {
	return Metrics{
		SamplesProcessed: g.samplesProcessed.Load(),
		SamplesDropped:   g.samplesDropped.Load(),
		QueueDepth:       g.queue.Load().Len(),
		UptimeSeconds:    uint64(time.Since(g.startTime).Seconds()),
	}
}

func (g *GatewayCore) producerLoop(q *queue.TelemetryQueue, prevState domain.DeviceState, done chan<- struct{}) {
	defer close(done)

	var (
		acceptedCounter         uint64
		consecutiveReadFailures int
	)

	for g.running.Load() {
		state := g.dev.State()

		if g.sink != nil && state != prevState {
			g.publishStatus(state)
			prevState = state
		}

		if state == domain.StateError || state == domain.StateSafe {
			g.obs.LogInfo("device latched, producer exiting", ports.Field{Key: "state", Value: state.String()})
			return
		}

		if state != domain.StateMeasuring {
			g.pace()
			continue
		}

		if s, ok := g.dev.ReadSample(); ok {
			if dropped := q.Push(s); dropped {
				g.samplesDropped.Add(1)
				g.obs.IncCounter(observability.MetricSamplesDropped, 1)
			}
			g.samplesProcessed.Add(1)
			g.obs.IncCounter(observability.MetricSamplesProcessed, 1)
			g.obs.SetGauge(observability.MetricQueueDepth, float64(q.Len()))

			acceptedCounter++
			consecutiveReadFailures = 0

			if g.sink != nil && acceptedCounter%g.cloudSampleInterval == 0 {
				g.publishSample(s)
			}
		} else if g.dev.State() == domain.StateMeasuring {
			consecutiveReadFailures++
			g.obs.IncCounter(observability.MetricReadFailures, 1)

			if consecutiveReadFailures >= g.maxConsecutiveFailures {
				// Circuit breaker: latch the device; the next iteration
				// observes the terminal state and exits.
				g.obs.LogError("too many consecutive read failures, forcing SafeState", nil,
					ports.Field{Key: "failures", Value: consecutiveReadFailures})
				g.dev.ForceSafeState()
			}
		}

		g.pace()
	}
}

func (g *GatewayCore) consumerLoop(q *queue.TelemetryQueue, done chan<- struct{}) {
	defer close(done)

	for {
		s, ok := q.Pop()
		if !ok {
			return
		}

		g.latestMu.Lock()
		g.latest = &s
		g.latestMu.Unlock()

		g.obs.IncCounter(observability.MetricSamplesConsumed, 1)
		g.obs.LogDebug("sample consumed",
			ports.Field{Key: "seq", Value: s.SequenceID},
			ports.Field{Key: "value", Value: s.Value})
	}
}

// publishSample forwards a sample to the sink. Failures are logged and
// swallowed: sink health never blocks the pipeline.
func (g *GatewayCore) publishSample(s domain.TelemetrySample) {
	start := time.Now()
	if err := g.sink.PushSample(s); err != nil {
		g.obs.IncCounter(observability.MetricSinkFailures, 1)
		g.obs.LogError("sink sample publish failed", err,
			ports.Field{Key: "sink", Value: g.sink.Name()},
			ports.Field{Key: "seq", Value: s.SequenceID})
		return
	}
	g.obs.ObserveLatency(observability.MetricSinkPublishLatency, time.Since(start).Seconds())
}

func (g *GatewayCore) publishStatus(state domain.DeviceState) {
	if err := g.sink.PushStatus(state); err != nil {
		g.obs.IncCounter(observability.MetricSinkFailures, 1)
		g.obs.LogError("sink status publish failed", err,
			ports.Field{Key: "sink", Value: g.sink.Name()},
			ports.Field{Key: "state", Value: state.String()})
	}
}

func (g *GatewayCore) pace() {
	if g.sampleInterval > 0 {
		time.Sleep(g.sampleInterval)
	}
}
