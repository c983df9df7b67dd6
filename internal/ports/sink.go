package ports

import "github.com/amareshkumar/telemetryhub/internal/domain"

// Sink receives samples and device status transitions from the gateway
// producer. Both calls are synchronous; retry, batching, or breaker
// logic is the implementer's concern. The producer never retries a
// failed call itself — it logs the error and continues.
type Sink interface {
	PushSample(s domain.TelemetrySample) error
	PushStatus(state domain.DeviceState) error
	Name() string
}
