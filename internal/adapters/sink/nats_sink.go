package sink

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/amareshkumar/telemetryhub/internal/domain"
	"github.com/amareshkumar/telemetryhub/internal/ports"
)

// taskEnvelope is the wire format consumed by downstream task workers.
type taskEnvelope struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	Priority   string          `json:"priority"`
	MaxRetries int             `json:"max_retries"`
	CreatedAt  string          `json:"created_at"`
}

// NATSSink publishes each sample as a task envelope on a subject, for
// asynchronous processing by worker pools. Status transitions go to
// <subject>.status.
type NATSSink struct {
	conn     *nats.Conn
	subject  string
	taskType string

	mu        sync.Mutex
	published uint64
	failed    uint64
}

// NATSStats is a snapshot of publisher activity.
type NATSStats struct {
	TasksPublished uint64
	TasksFailed    uint64
}

// ConnectNATS dials the server and returns a connected sink. taskType
// tags every envelope (e.g. "telemetry.analyze").
func ConnectNATS(url, subject, taskType string) (*NATSSink, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotConnected, err)
	}
	return &NATSSink{conn: conn, subject: subject, taskType: taskType}, nil
}

func (n *NATSSink) Name() string { return "nats" }

func (n *NATSSink) PushSample(s domain.TelemetrySample) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal sample: %w", err)
	}

	env := taskEnvelope{
		ID:         uuid.NewString(),
		Type:       n.taskType,
		Payload:    payload,
		Priority:   "NORMAL",
		MaxRetries: 3,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}

	if err := n.conn.Publish(n.subject, data); err != nil {
		n.count(false)
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	n.count(true)
	return nil
}

func (n *NATSSink) PushStatus(state domain.DeviceState) error {
	data, err := json.Marshal(map[string]string{"state": state.String()})
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}
	if err := n.conn.Publish(n.subject+".status", data); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}

// PushBatch publishes several samples, returning how many made it out.
func (n *NATSSink) PushBatch(samples []domain.TelemetrySample) int {
	sent := 0
	for _, s := range samples {
		if n.PushSample(s) == nil {
			sent++
		}
	}
	return sent
}

// Stats reports publish activity since construction.
func (n *NATSSink) Stats() NATSStats {
	n.mu.Lock()
	defer n.mu.Unlock()
	return NATSStats{TasksPublished: n.published, TasksFailed: n.failed}
}

func (n *NATSSink) count(ok bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if ok {
		n.published++
	} else {
		n.failed++
	}
}

// Close flushes buffered publications and drops the connection.
func (n *NATSSink) Close() {
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
	}
}

var _ ports.Sink = (*NATSSink)(nil)
