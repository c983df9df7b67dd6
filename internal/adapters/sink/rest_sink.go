package sink

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/amareshkumar/telemetryhub/internal/domain"
	"github.com/amareshkumar/telemetryhub/internal/ports"
)

const defaultRESTTimeout = 5 * time.Second

// RESTSink POSTs samples and status transitions as JSON to an HTTP
// ingest endpoint: samples to <base>/samples, status to <base>/status.
type RESTSink struct {
	baseURL string
	client  *http.Client
}

// NewRESTSink creates a sink for the given base URL. A nil client gets
// a default with a 5 second timeout.
func NewRESTSink(baseURL string, client *http.Client) *RESTSink {
	if client == nil {
		client = &http.Client{Timeout: defaultRESTTimeout}
	}
	return &RESTSink{baseURL: baseURL, client: client}
}

func (r *RESTSink) Name() string { return "rest" }

func (r *RESTSink) PushSample(s domain.TelemetrySample) error {
	body := map[string]any{
		"type":  "sample",
		"seq":   s.SequenceID,
		"value": s.Value,
		"unit":  s.Unit,
		"ts":    s.Timestamp.UTC().Format(time.RFC3339Nano),
	}
	return r.post(r.baseURL+"/samples", body)
}

func (r *RESTSink) PushStatus(state domain.DeviceState) error {
	body := map[string]any{
		"type":  "status",
		"state": state.String(),
	}
	return r.post(r.baseURL+"/status", body)
}

func (r *RESTSink) post(url string, body map[string]any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	resp, err := r.client.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: unexpected status %s", ErrPublishFailed, resp.Status)
	}
	return nil
}

var _ ports.Sink = (*RESTSink)(nil)
