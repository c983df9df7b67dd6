package device

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/amareshkumar/telemetryhub/internal/domain"
)

// commandReadLimit bounds one serial read window.
const commandReadLimit = 256

// ProcessSerialCommands reads one command window from the bound bus,
// dispatches it, and writes the reply back as a newline-terminated
// string. The reply is also returned to the caller. It returns false
// when no bus is bound, nothing was buffered, or an injected
// communication fault swallowed the read.
func (d *Device) ProcessSerialCommands() (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.bus == nil {
		return "", false
	}

	// Simulated lost comms: the command stays unread this round.
	if d.faultMode.InjectsCommFailures() && d.rng.Float64() < d.errorProbability {
		return "", false
	}

	raw := d.bus.Read(commandReadLimit)
	if len(raw) == 0 {
		return "", false
	}

	reply := d.dispatchLocked(strings.TrimSpace(string(raw)))

	// An outbound overflow fails the write; the reply is discarded on
	// the wire but still reported to the caller.
	d.bus.Write([]byte(reply + "\n"))
	return reply, true
}

func (d *Device) dispatchLocked(cmd string) string {
	switch {
	case cmd == "":
		return "ERROR: Empty command"

	case cmd == "CALIBRATE":
		if d.state != domain.StateMeasuring {
			return "ERROR: Device not measuring"
		}
		d.sequence = 0
		d.consecutiveFailures = 0
		return "OK: Calibrated"

	case cmd == "GET_STATUS":
		return fmt.Sprintf("STATUS: %s, Seq=%d", d.state, d.sequence)

	case cmd == "RESET":
		d.resetCountersLocked()
		d.state = domain.StateIdle
		return "OK: Reset to Idle"

	case strings.HasPrefix(cmd, "SET_RATE="):
		return d.setRateLocked(strings.TrimPrefix(cmd, "SET_RATE="))

	default:
		return "ERROR: Unknown command"
	}
}

func (d *Device) setRateLocked(arg string) string {
	ms, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return "ERROR: Invalid rate value"
	}
	if ms < minSampleRateMs || ms > maxSampleRateMs {
		return "ERROR: Rate must be 10-10000 ms"
	}
	d.sampleRateMs = ms
	return fmt.Sprintf("OK: Rate set to %d ms", ms)
}
