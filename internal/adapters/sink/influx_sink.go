package sink

import (
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/amareshkumar/telemetryhub/internal/domain"
	"github.com/amareshkumar/telemetryhub/internal/ports"
)

// InfluxSink records samples as points in an InfluxDB v2 bucket using
// the non-blocking write API; points are batched and sent
// asynchronously, so PushSample itself cannot fail once connected.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	gateway  string
}

// NewInfluxSink creates the client and write API. gateway tags every
// point so multiple gateways can share a bucket.
func NewInfluxSink(url, token, org, bucket, gateway string) *InfluxSink {
	client := influxdb2.NewClientWithOptions(url, token,
		influxdb2.DefaultOptions().
			SetBatchSize(100).
			SetFlushInterval(1000))

	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPI(org, bucket),
		gateway:  gateway,
	}
}

func (i *InfluxSink) Name() string { return "influxdb" }

func (i *InfluxSink) PushSample(s domain.TelemetrySample) error {
	point := write.NewPoint(
		"telemetry",
		map[string]string{
			"gateway": i.gateway,
			"unit":    s.Unit,
		},
		map[string]interface{}{
			"value": s.Value,
			"seq":   int64(s.SequenceID),
		},
		s.Timestamp,
	)
	i.writeAPI.WritePoint(point)
	return nil
}

func (i *InfluxSink) PushStatus(state domain.DeviceState) error {
	point := write.NewPoint(
		"device_status",
		map[string]string{
			"gateway": i.gateway,
		},
		map[string]interface{}{
			"state": state.String(),
		},
		time.Now(),
	)
	i.writeAPI.WritePoint(point)
	return nil
}

// Close flushes pending points and shuts the client down.
func (i *InfluxSink) Close() {
	i.writeAPI.Flush()
	i.client.Close()
}

var _ ports.Sink = (*InfluxSink)(nil)
