package sink

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/amareshkumar/telemetryhub/internal/domain"
	"github.com/amareshkumar/telemetryhub/internal/ports"
)

// flakySink fails the first failures calls, then succeeds.
type flakySink struct {
	mu       sync.Mutex
	failures int
	calls    int
}

func (f *flakySink) Name() string { return "flaky" }

func (f *flakySink) PushSample(domain.TelemetrySample) error { return f.call() }
func (f *flakySink) PushStatus(domain.DeviceState) error     { return f.call() }

func (f *flakySink) call() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return errors.New("transient failure")
	}
	return nil
}

func (f *flakySink) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func quickRetry(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestRetrySinkRecoversFromTransientFailure(t *testing.T) {
	inner := &flakySink{failures: 2}
	r := NewRetrySink(inner, quickRetry(3))

	if err := r.PushSample(domain.TelemetrySample{}); err != nil {
		t.Fatalf("expected recovery within 3 attempts, got %v", err)
	}
	if inner.callCount() != 3 {
		t.Fatalf("expected 3 attempts, got %d", inner.callCount())
	}
}

func TestRetrySinkGivesUpAfterMaxAttempts(t *testing.T) {
	inner := &flakySink{failures: 10}
	r := NewRetrySink(inner, quickRetry(3))

	if err := r.PushStatus(domain.StateIdle); err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if inner.callCount() != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", inner.callCount())
	}
}

func TestRetrySinkNoRetryOnSuccess(t *testing.T) {
	inner := &flakySink{}
	r := NewRetrySink(inner, quickRetry(5))

	if err := r.PushSample(domain.TelemetrySample{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.callCount() != 1 {
		t.Fatalf("success must not be retried, got %d calls", inner.callCount())
	}
}

func TestRetrySinkName(t *testing.T) {
	var _ ports.Sink = NewRetrySink(&flakySink{}, DefaultRetryConfig())
	r := NewRetrySink(&flakySink{}, DefaultRetryConfig())
	if r.Name() != "flaky+retry" {
		t.Fatalf("unexpected name %s", r.Name())
	}
}
