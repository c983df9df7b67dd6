package device

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/amareshkumar/telemetryhub/internal/domain"
	"github.com/amareshkumar/telemetryhub/internal/ports"
)

// Default runtime knobs. The sample rate is adjustable over the serial
// command interface within [minSampleRateMs, maxSampleRateMs].
const (
	defaultSampleRateMs = 100
	minSampleRateMs     = 10
	maxSampleRateMs     = 10000
)

// Option customizes a Device at construction.
type Option func(*Device)

// WithFaultAfterSamples latches the device into SafeState once the
// sequence counter reaches n. Zero disables the deterministic fault.
func WithFaultAfterSamples(n uint32) Option {
	return func(d *Device) { d.samplesBeforeFault = n }
}

// WithFaultMode selects the probabilistic fault injection mode,
// paired with an error probability clamped into [0,1].
func WithFaultMode(mode domain.FaultMode, probability float64) Option {
	return func(d *Device) {
		d.faultMode = mode
		d.errorProbability = clampProbability(probability)
	}
}

// WithBus binds the serial command bus. The device borrows the bus;
// the caller keeps ownership and must outlive the device.
func WithBus(bus ports.Bus) Option {
	return func(d *Device) { d.bus = bus }
}

// WithRandSource seeds the internal generator, making fault draws and
// sample noise reproducible in tests.
func WithRandSource(src rand.Source) Option {
	return func(d *Device) { d.rng = rand.New(src) }
}

// Device is a simulated sensor with a small state machine, fault
// injection, and a byte-oriented command interface. All methods are
// safe for concurrent use; internal state is guarded by a single
// mutex, which stays held while the bound bus is read and written.
type Device struct {
	mu sync.Mutex

	state    domain.DeviceState
	sequence uint32
	rng      *rand.Rand

	// Fault simulation.
	faultMode           domain.FaultMode
	errorProbability    float64
	samplesBeforeFault  uint32 // 0 disables the deterministic fault
	consecutiveFailures int
	errorCounter        int

	// Serial command interface (borrowed, may be nil).
	bus          ports.Bus
	sampleRateMs int
}

// NewDevice creates an Idle device. Without options it never faults
// and has no bus bound.
func NewDevice(opts ...Option) *Device {
	d := &Device{
		state:        domain.StateIdle,
		sampleRateMs: defaultSampleRateMs,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Start transitions Idle → Measuring and zeroes the sequence and
// failure counters. From any other state it is a no-op: a device
// latched into Error or SafeState does not auto-recover.
func (d *Device) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != domain.StateIdle {
		return
	}
	d.resetCountersLocked()
	d.state = domain.StateMeasuring
}

// Stop transitions Measuring → Idle. No-op in any other state.
func (d *Device) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == domain.StateMeasuring {
		d.state = domain.StateIdle
	}
}

// Reset recovers a latched device. It returns true iff the prior state
// was Error or SafeState; the post-state is then Idle.
func (d *Device) Reset() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != domain.StateError && d.state != domain.StateSafe {
		return false
	}
	d.resetCountersLocked()
	d.state = domain.StateIdle
	return true
}

// State reports the current state.
func (d *Device) State() domain.DeviceState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Sequence reports the next sequence id to be assigned.
func (d *Device) Sequence() uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sequence
}

// ConsecutiveFailures reports the current run of failed reads.
func (d *Device) ConsecutiveFailures() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.consecutiveFailures
}

// SampleInterval reports the rate configured via SET_RATE.
func (d *Device) SampleInterval() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return time.Duration(d.sampleRateMs) * time.Millisecond
}

// ForceSafeState latches the device into SafeState. Used by the
// gateway circuit breaker after too many consecutive read failures.
func (d *Device) ForceSafeState() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enterSafeStateLocked()
}

// ReadSample attempts one measurement. Outside Measuring it returns
// false immediately. In Measuring:
//
//  1. An active sensor fault mode may fail the read probabilistically;
//     the failure is counted but does not change state.
//  2. Once the sequence reaches the deterministic fault threshold the
//     device latches into SafeState and the read fails.
//  3. Otherwise a sample is emitted and the failure run resets.
func (d *Device) ReadSample() (domain.TelemetrySample, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != domain.StateMeasuring {
		return domain.TelemetrySample{}, false
	}

	if d.faultMode.InjectsSensorErrors() && d.rng.Float64() < d.errorProbability {
		d.consecutiveFailures++
		return domain.TelemetrySample{}, false
	}

	if d.samplesBeforeFault > 0 && d.sequence >= d.samplesBeforeFault {
		d.enterSafeStateLocked()
		return domain.TelemetrySample{}, false
	}

	d.consecutiveFailures = 0
	return d.makeSampleLocked(), true
}

// makeSampleLocked emits the simulated waveform: a 42-unit baseline
// with a slow sine and Gaussian noise (sigma 0.1).
func (d *Device) makeSampleLocked() domain.TelemetrySample {
	t := float64(d.sequence) / 10.0
	s := domain.TelemetrySample{
		Timestamp:  time.Now(),
		Value:      42.0 + math.Sin(t) + d.rng.NormFloat64()*0.1,
		Unit:       "arb.units",
		SequenceID: d.sequence,
	}
	d.sequence++
	return s
}

func (d *Device) enterSafeStateLocked() {
	d.errorCounter++
	d.state = domain.StateSafe
}

func (d *Device) resetCountersLocked() {
	d.sequence = 0
	d.consecutiveFailures = 0
	d.errorCounter = 0
}

func clampProbability(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}
