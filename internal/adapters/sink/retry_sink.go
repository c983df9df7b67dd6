package sink

import (
	"math/rand"
	"sync"
	"time"

	"github.com/amareshkumar/telemetryhub/internal/domain"
	"github.com/amareshkumar/telemetryhub/internal/ports"
)

// RetryConfig bounds the backoff schedule of RetrySink.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	AddJitter    bool
}

// DefaultRetryConfig suits short-lived cloud hiccups without stalling
// the producer for long: three attempts, 100ms initial backoff.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		AddJitter:    true,
	}
}

// RetrySink wraps another Sink with bounded exponential backoff. The
// gateway producer itself never retries; callers that want retry
// semantics opt in by wrapping their sink here.
type RetrySink struct {
	inner ports.Sink
	cfg   RetryConfig

	mu  sync.Mutex
	rng *rand.Rand
}

func NewRetrySink(inner ports.Sink, cfg RetryConfig) *RetrySink {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.Multiplier < 1 {
		cfg.Multiplier = 2.0
	}
	return &RetrySink{
		inner: inner,
		cfg:   cfg,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *RetrySink) Name() string { return r.inner.Name() + "+retry" }

func (r *RetrySink) PushSample(s domain.TelemetrySample) error {
	return r.do(func() error { return r.inner.PushSample(s) })
}

func (r *RetrySink) PushStatus(state domain.DeviceState) error {
	return r.do(func() error { return r.inner.PushStatus(state) })
}

func (r *RetrySink) do(fn func() error) error {
	var err error
	delay := r.cfg.InitialDelay

	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == r.cfg.MaxAttempts {
			break
		}

		time.Sleep(r.jitter(delay))

		delay = time.Duration(float64(delay) * r.cfg.Multiplier)
		if r.cfg.MaxDelay > 0 && delay > r.cfg.MaxDelay {
			delay = r.cfg.MaxDelay
		}
	}
	return err
}

// jitter spreads sleeps across [delay/2, delay) to avoid synchronized
// retry storms from multiple gateways.
func (r *RetrySink) jitter(delay time.Duration) time.Duration {
	if !r.cfg.AddJitter || delay <= 0 {
		return delay
	}
	r.mu.Lock()
	f := 0.5 + 0.5*r.rng.Float64()
	r.mu.Unlock()
	return time.Duration(float64(delay) * f)
}

var _ ports.Sink = (*RetrySink)(nil)
