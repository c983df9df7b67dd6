package telemetryhub

import (
	"errors"
	"fmt"
	"sync"
)

// ErrChannelSinkClosed is returned when a channel sink is written to
// after being closed.
var ErrChannelSinkClosed = errors.New("telemetryhub: channel sink closed")

// SampleFunc handles one published sample.
type SampleFunc func(Sample) error

// StatusFunc handles one device state transition.
type StatusFunc func(DeviceState) error

// NewCallbackSink adapts plain functions into a full Sink so callers
// can plug arbitrary handlers without defining structs. Either
// function may be nil; the corresponding publications are ignored.
func NewCallbackSink(name string, onSample SampleFunc, onStatus StatusFunc) Sink {
	if name == "" {
		name = "callback"
	}
	return &callbackSink{name: name, onSample: onSample, onStatus: onStatus}
}

type callbackSink struct {
	name     string
	onSample SampleFunc
	onStatus StatusFunc
}

func (s *callbackSink) Name() string { return s.name }

func (s *callbackSink) PushSample(sample Sample) error {
	if s.onSample == nil {
		return nil
	}
	return s.onSample(sample)
}

func (s *callbackSink) PushStatus(state DeviceState) error {
	if s.onStatus == nil {
		return nil
	}
	return s.onStatus(state)
}

// SinkEvent is one publication delivered by a channel sink: either a
// sample or a state transition.
type SinkEvent struct {
	Sample *Sample
	State  *DeviceState
}

// NewChannelSink exposes publications via a channel; it returns the
// sink, the read-only channel, and a close function the caller should
// invoke during shutdown.
func NewChannelSink(name string, buffer int) (Sink, <-chan SinkEvent, func()) {
	if name == "" {
		name = "channel"
	}
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan SinkEvent, buffer)
	s := &channelSink{
		name:   name,
		ch:     ch,
		closed: make(chan struct{}),
	}
	return s, ch, func() { s.close() }
}

type channelSink struct {
	name   string
	ch     chan SinkEvent
	closed chan struct{}
	once   sync.Once
}

func (s *channelSink) Name() string { return s.name }

func (s *channelSink) PushSample(sample Sample) error {
	return s.send(SinkEvent{Sample: &sample})
}

func (s *channelSink) PushStatus(state DeviceState) error {
	return s.send(SinkEvent{State: &state})
}

func (s *channelSink) send(ev SinkEvent) error {
	select {
	case <-s.closed:
		return fmt.Errorf("%w: %s", ErrChannelSinkClosed, s.name)
	default:
	}

	select {
	case <-s.closed:
		return fmt.Errorf("%w: %s", ErrChannelSinkClosed, s.name)
	case s.ch <- ev:
		return nil
	}
}

func (s *channelSink) close() {
	s.once.Do(func() {
		close(s.closed)
		close(s.ch)
	})
}
