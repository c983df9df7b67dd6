package telemetryhub

import (
	"errors"
	"testing"
	"time"
)

func TestNewCallbackSink(t *testing.T) {
	var (
		samples  []Sample
		statuses []DeviceState
	)
	sink := NewCallbackSink("cb",
		func(s Sample) error {
			samples = append(samples, s)
			return nil
		},
		func(state DeviceState) error {
			statuses = append(statuses, state)
			return nil
		},
	)

	if sink.Name() != "cb" {
		t.Fatalf("unexpected name %s", sink.Name())
	}

	input := Sample{Timestamp: time.Unix(1, 0), Value: 42.5, Unit: "arb.units", SequenceID: 7}
	if err := sink.PushSample(input); err != nil {
		t.Fatalf("PushSample returned error: %v", err)
	}
	if err := sink.PushStatus(StateMeasuring); err != nil {
		t.Fatalf("PushStatus returned error: %v", err)
	}

	if len(samples) != 1 || samples[0].SequenceID != 7 {
		t.Fatalf("sample not delivered: %+v", samples)
	}
	if len(statuses) != 1 || statuses[0] != StateMeasuring {
		t.Fatalf("status not delivered: %+v", statuses)
	}
}

func TestNewCallbackSinkNilHandlers(t *testing.T) {
	sink := NewCallbackSink("", nil, nil)
	if sink.Name() != "callback" {
		t.Fatalf("expected fallback name, got %s", sink.Name())
	}
	if err := sink.PushSample(Sample{}); err != nil {
		t.Fatalf("nil sample handler should be a no-op, got %v", err)
	}
	if err := sink.PushStatus(StateIdle); err != nil {
		t.Fatalf("nil status handler should be a no-op, got %v", err)
	}
}

func TestNewChannelSink(t *testing.T) {
	sink, ch, closeFn := NewChannelSink("chan", 1)
	defer closeFn()

	errCh := make(chan error, 1)
	go func() {
		errCh <- sink.PushSample(Sample{SequenceID: 3})
	}()

	var ev SinkEvent
	select {
	case ev = <-ch:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel event")
	}

	if err := <-errCh; err != nil {
		t.Fatalf("PushSample returned error: %v", err)
	}
	if ev.Sample == nil || ev.Sample.SequenceID != 3 {
		t.Fatalf("unexpected event: %+v", ev)
	}

	closeFn()
	if err := sink.PushSample(Sample{}); !errors.Is(err, ErrChannelSinkClosed) {
		t.Fatalf("expected ErrChannelSinkClosed, got %v", err)
	}
}

func TestChannelSinkDeliversStatus(t *testing.T) {
	sink, ch, closeFn := NewChannelSink("", 2)
	defer closeFn()

	if err := sink.PushStatus(StateSafe); err != nil {
		t.Fatalf("PushStatus returned error: %v", err)
	}

	select {
	case ev := <-ch:
		if ev.State == nil || *ev.State != StateSafe {
			t.Fatalf("unexpected event: %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for status event")
	}
}
