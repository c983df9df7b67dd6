package telemetryhub

import (
	"github.com/amareshkumar/telemetryhub/internal/app/config"
	"github.com/amareshkumar/telemetryhub/internal/app/pipeline"
	"github.com/amareshkumar/telemetryhub/internal/device"
	"github.com/amareshkumar/telemetryhub/internal/domain"
	"github.com/amareshkumar/telemetryhub/internal/ports"
)

// Type aliases so consumers can work with the gateway without touching
// internal packages.
type (
	Sample      = domain.TelemetrySample
	DeviceState = domain.DeviceState
	FaultMode   = domain.FaultMode

	Sink          = ports.Sink
	Bus           = ports.Bus
	BusType       = ports.BusType
	Observability = ports.Observability
	Field         = ports.Field

	Metrics = pipeline.Metrics
	Status  = pipeline.Status

	Config        = config.Config
	GatewayConfig = config.GatewayConfig
	DeviceConfig  = config.DeviceConfig
	CloudConfig   = config.CloudConfig

	DeviceOption = device.Option
)

// Device states.
const (
	StateIdle      = domain.StateIdle
	StateMeasuring = domain.StateMeasuring
	StateError     = domain.StateError
	StateSafe      = domain.StateSafe
)

// Fault injection modes.
const (
	FaultNone                 = domain.FaultNone
	FaultRandomSensorErrors   = domain.FaultRandomSensorErrors
	FaultCommunicationFailure = domain.FaultCommunicationFailure
	FaultBoth                 = domain.FaultBoth
)

// Bus variants.
const (
	BusUART = ports.BusUART
	BusI2C  = ports.BusI2C
	BusSPI  = ports.BusSPI
)

// LoadConfig loads YAML from disk using the internal config reader.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// ParseFaultMode maps a config string onto a FaultMode.
func ParseFaultMode(s string) (FaultMode, error) {
	return config.ParseFaultMode(s)
}
