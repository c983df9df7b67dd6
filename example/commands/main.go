// Demonstrates the serial command round-trip against a measuring
// device: inject a command, run one interpreter round, collect the
// newline-terminated reply from the outbound buffer.
package main

import (
	"fmt"

	"github.com/amareshkumar/telemetryhub/internal/adapters/bus"
	"github.com/amareshkumar/telemetryhub/internal/device"
)

func main() {
	serial := bus.NewSerialPort()
	dev := device.NewDevice(device.WithBus(serial))

	dev.Start()
	for i := 0; i < 5; i++ {
		dev.ReadSample()
	}

	for _, cmd := range []string{"GET_STATUS", "SET_RATE=250", "SET_RATE=5", "CALIBRATE", "BOGUS"} {
		serial.Inject(cmd)
		dev.ProcessSerialCommands()
		if reply, ok := serial.CollectResponse(); ok {
			fmt.Printf("%-14s -> %s\n", cmd, reply)
		}
	}
}
