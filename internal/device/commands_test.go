package device

import (
	"math/rand"
	"testing"
	"time"

	"github.com/amareshkumar/telemetryhub/internal/adapters/bus"
	"github.com/amareshkumar/telemetryhub/internal/domain"
)

func newDeviceWithSerial(t *testing.T, opts ...Option) (*Device, *bus.SerialPort) {
	t.Helper()
	serial := bus.NewSerialPort()
	opts = append(opts, WithBus(serial), WithRandSource(rand.NewSource(1)))
	return NewDevice(opts...), serial
}

// roundTrip injects a command, runs one interpreter round, and returns
// the reply collected from the outbound buffer.
func roundTrip(t *testing.T, d *Device, serial *bus.SerialPort, cmd string) string {
	t.Helper()
	serial.Inject(cmd)
	reply, ok := d.ProcessSerialCommands()
	if !ok {
		t.Fatalf("command %q produced no reply", cmd)
	}
	wire, ok := serial.CollectResponse()
	if !ok {
		t.Fatalf("command %q left nothing on the outbound buffer", cmd)
	}
	if wire != reply {
		t.Fatalf("wire reply %q differs from returned reply %q", wire, reply)
	}
	return reply
}

func TestNoBusBound(t *testing.T) {
	d := NewDevice()
	if _, ok := d.ProcessSerialCommands(); ok {
		t.Fatal("device without a bus must not process commands")
	}
}

func TestEmptyBusWindow(t *testing.T) {
	d, _ := newDeviceWithSerial(t)
	if _, ok := d.ProcessSerialCommands(); ok {
		t.Fatal("empty inbound buffer must yield no reply")
	}
}

func TestGetStatusAfterFiveSamples(t *testing.T) {
	d, serial := newDeviceWithSerial(t)
	d.Start()
	for i := 0; i < 5; i++ {
		if _, ok := d.ReadSample(); !ok {
			t.Fatalf("sample %d failed", i)
		}
	}

	if got := roundTrip(t, d, serial, "GET_STATUS"); got != "STATUS: Measuring, Seq=5" {
		t.Fatalf("unexpected status reply %q", got)
	}
}

func TestCommandWhitespaceEquivalence(t *testing.T) {
	for _, cmd := range []string{"GET_STATUS", "GET_STATUS\n", "  GET_STATUS  "} {
		d, serial := newDeviceWithSerial(t)
		if got := roundTrip(t, d, serial, cmd); got != "STATUS: Idle, Seq=0" {
			t.Fatalf("command %q: unexpected reply %q", cmd, got)
		}
	}
}

func TestCalibrate(t *testing.T) {
	d, serial := newDeviceWithSerial(t)

	if got := roundTrip(t, d, serial, "CALIBRATE"); got != "ERROR: Device not measuring" {
		t.Fatalf("calibrate while idle: %q", got)
	}

	d.Start()
	for i := 0; i < 3; i++ {
		d.ReadSample()
	}
	if got := roundTrip(t, d, serial, "CALIBRATE"); got != "OK: Calibrated" {
		t.Fatalf("calibrate while measuring: %q", got)
	}
	if got := roundTrip(t, d, serial, "GET_STATUS"); got != "STATUS: Measuring, Seq=0" {
		t.Fatalf("calibrate should zero the sequence: %q", got)
	}
}

func TestResetCommandForcesIdle(t *testing.T) {
	d, serial := newDeviceWithSerial(t, WithFaultAfterSamples(1))
	d.Start()
	d.ReadSample()
	d.ReadSample() // latch SafeState

	if d.State() != domain.StateSafe {
		t.Fatalf("setup failed, state %s", d.State())
	}
	if got := roundTrip(t, d, serial, "RESET"); got != "OK: Reset to Idle" {
		t.Fatalf("unexpected reset reply %q", got)
	}
	if d.State() != domain.StateIdle {
		t.Fatalf("expected Idle after RESET, got %s", d.State())
	}
}

func TestSetRate(t *testing.T) {
	cases := []struct {
		cmd   string
		reply string
	}{
		{"SET_RATE=250", "OK: Rate set to 250 ms"},
		{"SET_RATE=10", "OK: Rate set to 10 ms"},
		{"SET_RATE=10000", "OK: Rate set to 10000 ms"},
		{"SET_RATE=5", "ERROR: Rate must be 10-10000 ms"},
		{"SET_RATE=10001", "ERROR: Rate must be 10-10000 ms"},
		{"SET_RATE=abc", "ERROR: Invalid rate value"},
		{"SET_RATE=", "ERROR: Invalid rate value"},
	}

	for _, tc := range cases {
		d, serial := newDeviceWithSerial(t)
		if got := roundTrip(t, d, serial, tc.cmd); got != tc.reply {
			t.Fatalf("%q: expected %q, got %q", tc.cmd, tc.reply, got)
		}
	}
}

func TestSetRateApplies(t *testing.T) {
	d, serial := newDeviceWithSerial(t)
	roundTrip(t, d, serial, "SET_RATE=250")
	if d.SampleInterval() != 250*time.Millisecond {
		t.Fatalf("rate not applied, got %s", d.SampleInterval())
	}

	roundTrip(t, d, serial, "SET_RATE=5")
	if d.SampleInterval() != 250*time.Millisecond {
		t.Fatalf("rejected rate must not apply, got %s", d.SampleInterval())
	}
}

func TestEmptyAndUnknownCommands(t *testing.T) {
	d, serial := newDeviceWithSerial(t)

	if got := roundTrip(t, d, serial, "\n"); got != "ERROR: Empty command" {
		t.Fatalf("empty command: %q", got)
	}
	if got := roundTrip(t, d, serial, "FROBNICATE"); got != "ERROR: Unknown command" {
		t.Fatalf("unknown command: %q", got)
	}
}

func TestCommunicationFaultSwallowsCommand(t *testing.T) {
	serial := bus.NewSerialPort()
	d := NewDevice(
		WithBus(serial),
		WithFaultMode(domain.FaultCommunicationFailure, 1.0),
		WithRandSource(rand.NewSource(1)),
	)

	serial.Inject("GET_STATUS")
	if _, ok := d.ProcessSerialCommands(); ok {
		t.Fatal("p=1.0 comm fault must swallow every round")
	}
	if _, ok := serial.CollectResponse(); ok {
		t.Fatal("no reply may reach the wire during a comm fault")
	}
}

func TestCommandRepliesAreNewlineTerminated(t *testing.T) {
	d, serial := newDeviceWithSerial(t)

	// Two queued replies separate cleanly only if each carries its own
	// terminator.
	serial.Inject("GET_STATUS")
	d.ProcessSerialCommands()
	serial.Inject("FROBNICATE")
	d.ProcessSerialCommands()

	first, ok := serial.CollectResponse()
	if !ok || first != "STATUS: Idle, Seq=0" {
		t.Fatalf("unexpected first reply %q (ok=%v)", first, ok)
	}
	second, ok := serial.CollectResponse()
	if !ok || second != "ERROR: Unknown command" {
		t.Fatalf("unexpected second reply %q (ok=%v)", second, ok)
	}
}
