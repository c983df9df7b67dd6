// Package sink provides downstream publishers for telemetry samples
// and device status transitions. Every implementation satisfies
// ports.Sink; the gateway producer treats them uniformly and never
// retries a failed call itself.
package sink

import "errors"

var (
	// ErrNotConnected is returned when a publisher is used before its
	// transport connection is established or after it was closed.
	ErrNotConnected = errors.New("sink: not connected")

	// ErrPublishFailed wraps transport-level publication failures.
	ErrPublishFailed = errors.New("sink: publish failed")
)
