package telemetryhub

import (
	base "github.com/amareshkumar/telemetryhub/pkg/telemetryhub"
)

// Re-exported errors for convenience.
var ErrChannelSinkClosed = base.ErrChannelSinkClosed

// Type aliases so consumers can import github.com/amareshkumar/telemetryhub directly.
type (
	Config        = base.Config
	GatewayConfig = base.GatewayConfig
	DeviceConfig  = base.DeviceConfig
	CloudConfig   = base.CloudConfig
	Gateway       = base.Gateway
	GatewayOption = base.GatewayOption
	Sample        = base.Sample
	DeviceState   = base.DeviceState
	FaultMode     = base.FaultMode
	Sink          = base.Sink
	Bus           = base.Bus
	BusType       = base.BusType
	Observability = base.Observability
	Metrics       = base.Metrics
	Status        = base.Status
	SampleFunc    = base.SampleFunc
	StatusFunc    = base.StatusFunc
	SinkEvent     = base.SinkEvent
)

// Device states.
const (
	StateIdle      = base.StateIdle
	StateMeasuring = base.StateMeasuring
	StateError     = base.StateError
	StateSafe      = base.StateSafe
)

// Fault injection modes.
const (
	FaultNone                 = base.FaultNone
	FaultRandomSensorErrors   = base.FaultRandomSensorErrors
	FaultCommunicationFailure = base.FaultCommunicationFailure
	FaultBoth                 = base.FaultBoth
)

// Version is the TelemetryHub release version.
const Version = base.Version

// LoadConfig loads YAML from disk.
func LoadConfig(path string) (*Config, error) { return base.LoadConfig(path) }

// NewGateway bootstraps a gateway from config.
func NewGateway(cfg *Config, opts ...GatewayOption) (*Gateway, error) {
	return base.NewGateway(cfg, opts...)
}

// WithSink injects a custom sink implementation.
func WithSink(s Sink) GatewayOption { return base.WithSink(s) }

// WithObservability plugs in a custom logging/metrics backend.
func WithObservability(obs Observability) GatewayOption { return base.WithObservability(obs) }

// NewCallbackSink adapts plain functions into a Sink.
func NewCallbackSink(name string, onSample SampleFunc, onStatus StatusFunc) Sink {
	return base.NewCallbackSink(name, onSample, onStatus)
}

// NewChannelSink exposes publications via a channel.
func NewChannelSink(name string, buffer int) (Sink, <-chan SinkEvent, func()) {
	return base.NewChannelSink(name, buffer)
}
