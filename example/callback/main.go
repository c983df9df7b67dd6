// Publishes every 2nd sample through a callback sink built from plain
// functions, the quickest way to see cloud publications locally.
package main

import (
	"context"
	"fmt"
	"time"

	telemetryhub "github.com/amareshkumar/telemetryhub"
)

func main() {
	sink := telemetryhub.NewCallbackSink("printer",
		func(s telemetryhub.Sample) error {
			fmt.Printf("cloud sample: seq=%d value=%.3f %s\n", s.SequenceID, s.Value, s.Unit)
			return nil
		},
		func(state telemetryhub.DeviceState) error {
			fmt.Printf("cloud status: %s\n", state)
			return nil
		},
	)

	cfg := &telemetryhub.Config{}
	cfg.Gateway.SamplingIntervalMs = 50
	cfg.Gateway.QueueSize = 32
	cfg.Gateway.CloudSampleInterval = 2
	cfg.Gateway.MaxConsecutiveFailures = 5
	cfg.Device.FaultMode = "none"
	cfg.HTTP.Addr = ":8080"
	cfg.Metrics.Addr = ":9100"

	gw, err := telemetryhub.NewGateway(cfg, telemetryhub.WithSink(sink))
	if err != nil {
		panic(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := gw.Run(ctx); err != nil {
		panic(err)
	}
}
