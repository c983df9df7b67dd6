package domain

import "time"

// TelemetrySample is the canonical unit of telemetry in TelemetryHub.
// SequenceID increases monotonically within a single measurement session
// and resets when the device is (re)started.
type TelemetrySample struct {
	Timestamp  time.Time `json:"ts"`
	Value      float64   `json:"value"`
	Unit       string    `json:"unit"`
	SequenceID uint32    `json:"seq"`
}
