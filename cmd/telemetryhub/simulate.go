package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/amareshkumar/telemetryhub/internal/adapters/bus"
	"github.com/amareshkumar/telemetryhub/internal/device"
)

// simulateCommand runs an interactive REPL against a simulated device:
// local verbs drive the lifecycle, everything else goes over the
// serial bus to the command interpreter.
func simulateCommand(args []string) error {
	fs := flag.NewFlagSet("simulate", flag.ExitOnError)
	faultAfter := fs.Uint("fault-after", 10, "Latch into SafeState after N samples (0 disables)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	serial := bus.NewSerialPort()
	dev := device.NewDevice(
		device.WithFaultAfterSamples(uint32(*faultAfter)),
		device.WithBus(serial),
	)

	fmt.Println("TelemetryHub device simulator with serial interface")
	printSimulateHelp()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Printf("[%s] > ", dev.State())
		if !scanner.Scan() {
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		switch input {
		case "quit", "exit":
			fmt.Println("Exiting...")
			return nil

		case "help":
			printSimulateHelp()

		case "start":
			dev.Start()
			fmt.Printf("Device started. State: %s\n", dev.State())

		case "stop":
			dev.Stop()
			fmt.Printf("Device stopped. State: %s\n", dev.State())

		case "sample":
			if s, ok := dev.ReadSample(); ok {
				fmt.Printf("Sample: value=%.3f %s, seq=%d\n", s.Value, s.Unit, s.SequenceID)
			} else {
				fmt.Printf("No sample available (device state: %s)\n", dev.State())
			}

		default:
			serial.Inject(input)
			if reply, ok := dev.ProcessSerialCommands(); ok {
				fmt.Println(reply)
				// The reply was also written to the wire; drain it so
				// the outbound buffer cannot fill up.
				serial.CollectResponse()
			} else {
				fmt.Println("(no response)")
			}
		}
	}
}

func printSimulateHelp() {
	fmt.Print(`
Available commands:
  CALIBRATE       - Recalibrate device (resets sequence, only when measuring)
  GET_STATUS      - Get current device state and sequence number
  SET_RATE=<ms>   - Set sampling rate (10-10000 ms)
  RESET           - Reset device to Idle state
  start           - Start device measurement
  stop            - Stop device measurement
  sample          - Read one telemetry sample
  help            - Show this help message
  quit            - Exit program

`)
}
