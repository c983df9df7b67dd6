package sink

import (
	"encoding/json"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/amareshkumar/telemetryhub/internal/domain"
	"github.com/amareshkumar/telemetryhub/internal/ports"
)

const (
	mqttConnectTimeout = 10 * time.Second
	mqttPublishTimeout = 5 * time.Second
)

// MQTTSink publishes samples to <topic-prefix>/samples and the device
// state, retained, to <topic-prefix>/status so late subscribers see
// the current state immediately.
type MQTTSink struct {
	client      pahomqtt.Client
	topicPrefix string
	qos         byte
}

// ConnectMQTT dials the broker and returns a connected sink.
func ConnectMQTT(brokerURL, clientID, topicPrefix string, qos byte) (*MQTTSink, error) {
	opts := pahomqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetryInterval(time.Second)

	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		return nil, fmt.Errorf("%w: connect timeout after %v", ErrNotConnected, mqttConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotConnected, err)
	}

	return &MQTTSink{client: client, topicPrefix: topicPrefix, qos: qos}, nil
}

func (m *MQTTSink) Name() string { return "mqtt" }

func (m *MQTTSink) PushSample(s domain.TelemetrySample) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal sample: %w", err)
	}
	return m.publish(m.topicPrefix+"/samples", payload, false)
}

func (m *MQTTSink) PushStatus(state domain.DeviceState) error {
	payload, err := json.Marshal(map[string]string{"state": state.String()})
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}
	return m.publish(m.topicPrefix+"/status", payload, true)
}

func (m *MQTTSink) publish(topic string, payload []byte, retained bool) error {
	if !m.client.IsConnected() {
		return ErrNotConnected
	}
	token := m.client.Publish(topic, m.qos, retained, payload)
	if !token.WaitTimeout(mqttPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, mqttPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}

// Close disconnects from the broker, allowing in-flight work to finish.
func (m *MQTTSink) Close() {
	m.client.Disconnect(250)
}

var _ ports.Sink = (*MQTTSink)(nil)
