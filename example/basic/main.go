// Monitors a gateway with a fault-prone device until it latches into
// SafeState, printing the latest consumed sample on each tick.
package main

import (
	"fmt"
	"time"

	"github.com/amareshkumar/telemetryhub/internal/app/pipeline"
	"github.com/amareshkumar/telemetryhub/internal/device"
	"github.com/amareshkumar/telemetryhub/internal/domain"
)

func main() {
	core := pipeline.NewGatewayCore(
		pipeline.WithSampleInterval(50*time.Millisecond),
		pipeline.WithQueueCapacity(64),
		pipeline.WithDeviceOptions(device.WithFaultAfterSamples(8)),
	)

	fmt.Println("Starting TelemetryHub gateway...")
	core.Start()

	for i := 0; i < 50; i++ {
		state := core.DeviceState()

		fmt.Printf("[tick %d] state=%s", i, state)
		if s, ok := core.LatestSample(); ok {
			fmt.Printf(" | latest sample #%d value=%.3f %s", s.SequenceID, s.Value, s.Unit)
		} else {
			fmt.Print(" | no sample yet")
		}
		fmt.Println()

		if state == domain.StateSafe {
			fmt.Println("Device reached SafeState, breaking monitoring loop.")
			break
		}

		time.Sleep(200 * time.Millisecond)
	}

	fmt.Println("Stopping core...")
	core.Stop()

	m := core.GetMetrics()
	fmt.Printf("processed=%d dropped=%d uptime=%ds\n",
		m.SamplesProcessed, m.SamplesDropped, m.UptimeSeconds)
}
