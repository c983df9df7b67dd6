package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/amareshkumar/telemetryhub/internal/domain"
)

// Config is the full gateway configuration, loaded from YAML.
type Config struct {
	Gateway GatewayConfig `yaml:"gateway"`
	Device  DeviceConfig  `yaml:"device"`
	Cloud   CloudConfig   `yaml:"cloud"`
	HTTP    HTTPConfig    `yaml:"http"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

type GatewayConfig struct {
	SamplingIntervalMs     int `yaml:"sampling_interval_ms"`
	QueueSize              int `yaml:"queue_size"` // 0 = unbounded
	CloudSampleInterval    int `yaml:"cloud_sample_interval"`
	MaxConsecutiveFailures int `yaml:"max_consecutive_failures"`
}

type DeviceConfig struct {
	FaultAfterSamples int     `yaml:"fault_after_samples"` // 0 disables
	FaultMode         string  `yaml:"fault_mode"`          // none|sensor|comms|both
	ErrorProbability  float64 `yaml:"error_probability"`   // clamped to [0,1]
}

type CloudConfig struct {
	Publisher string         `yaml:"publisher"` // stdout|rest|mqtt|nats|influx|postgres
	Retry     RetryConfig    `yaml:"retry"`
	REST      RESTConfig     `yaml:"rest"`
	MQTT      MQTTConfig     `yaml:"mqtt"`
	NATS      NATSConfig     `yaml:"nats"`
	Influx    InfluxConfig   `yaml:"influx"`
	Postgres  PostgresConfig `yaml:"postgres"`
}

type RetryConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Attempts       int           `yaml:"attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
}

type RESTConfig struct {
	BaseURL string `yaml:"base_url"`
}

type MQTTConfig struct {
	BrokerURL   string `yaml:"broker_url"`
	ClientID    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
	QoS         int    `yaml:"qos"`
}

type NATSConfig struct {
	URL      string `yaml:"url"`
	Subject  string `yaml:"subject"`
	TaskType string `yaml:"task_type"`
}

type InfluxConfig struct {
	URL    string `yaml:"url"`
	Token  string `yaml:"token"`
	Org    string `yaml:"org"`
	Bucket string `yaml:"bucket"`
}

type PostgresConfig struct {
	ConnString  string `yaml:"conn_string"`
	SampleTable string `yaml:"sample_table"`
	StatusTable string `yaml:"status_table"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and validates a YAML config file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Gateway.SamplingIntervalMs == 0 {
		c.Gateway.SamplingIntervalMs = 100
	}
	if c.Gateway.CloudSampleInterval == 0 {
		c.Gateway.CloudSampleInterval = 4
	}
	if c.Gateway.MaxConsecutiveFailures == 0 {
		c.Gateway.MaxConsecutiveFailures = 5
	}
	if c.Device.FaultMode == "" {
		c.Device.FaultMode = "none"
	}
	if c.Device.ErrorProbability < 0 {
		c.Device.ErrorProbability = 0
	}
	if c.Device.ErrorProbability > 1 {
		c.Device.ErrorProbability = 1
	}
	if c.Cloud.Publisher == "" {
		c.Cloud.Publisher = "stdout"
	}
	if c.Cloud.Retry.Attempts == 0 {
		c.Cloud.Retry.Attempts = 3
	}
	if c.Cloud.Retry.InitialBackoff == 0 {
		c.Cloud.Retry.InitialBackoff = 100 * time.Millisecond
	}
	if c.Cloud.Retry.MaxBackoff == 0 {
		c.Cloud.Retry.MaxBackoff = 5 * time.Second
	}
	if c.Cloud.MQTT.ClientID == "" {
		c.Cloud.MQTT.ClientID = "telemetryhub"
	}
	if c.Cloud.MQTT.TopicPrefix == "" {
		c.Cloud.MQTT.TopicPrefix = "telemetryhub"
	}
	if c.Cloud.NATS.Subject == "" {
		c.Cloud.NATS.Subject = "telemetry.tasks"
	}
	if c.Cloud.NATS.TaskType == "" {
		c.Cloud.NATS.TaskType = "telemetry.analyze"
	}
	if c.Cloud.Postgres.SampleTable == "" {
		c.Cloud.Postgres.SampleTable = "telemetry_samples"
	}
	if c.Cloud.Postgres.StatusTable == "" {
		c.Cloud.Postgres.StatusTable = "device_status"
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9100"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
}

func (c *Config) validate() error {
	if c.Gateway.SamplingIntervalMs < 0 {
		return fmt.Errorf("gateway.sampling_interval_ms must be >= 0")
	}
	if c.Gateway.QueueSize < 0 {
		return fmt.Errorf("gateway.queue_size must be >= 0")
	}
	if c.Gateway.CloudSampleInterval < 1 {
		return fmt.Errorf("gateway.cloud_sample_interval must be >= 1")
	}
	if c.Gateway.MaxConsecutiveFailures < 1 {
		return fmt.Errorf("gateway.max_consecutive_failures must be >= 1")
	}
	if c.Device.FaultAfterSamples < 0 {
		return fmt.Errorf("device.fault_after_samples must be >= 0")
	}
	if _, err := ParseFaultMode(c.Device.FaultMode); err != nil {
		return err
	}

	switch c.Cloud.Publisher {
	case "stdout":
	case "rest":
		if c.Cloud.REST.BaseURL == "" {
			return fmt.Errorf("cloud.rest.base_url is required for the rest publisher")
		}
	case "mqtt":
		if c.Cloud.MQTT.BrokerURL == "" {
			return fmt.Errorf("cloud.mqtt.broker_url is required for the mqtt publisher")
		}
	case "nats":
		if c.Cloud.NATS.URL == "" {
			return fmt.Errorf("cloud.nats.url is required for the nats publisher")
		}
	case "influx":
		if c.Cloud.Influx.URL == "" {
			return fmt.Errorf("cloud.influx.url is required for the influx publisher")
		}
	case "postgres":
		if c.Cloud.Postgres.ConnString == "" {
			return fmt.Errorf("cloud.postgres.conn_string is required for the postgres publisher")
		}
	default:
		return fmt.Errorf("unknown cloud.publisher %q", c.Cloud.Publisher)
	}

	return nil
}

// ParseFaultMode maps the config string onto domain.FaultMode.
func ParseFaultMode(s string) (domain.FaultMode, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return domain.FaultNone, nil
	case "sensor", "random_sensor_errors":
		return domain.FaultRandomSensorErrors, nil
	case "comms", "communication_failure":
		return domain.FaultCommunicationFailure, nil
	case "both":
		return domain.FaultBoth, nil
	}
	return domain.FaultNone, fmt.Errorf("unknown device.fault_mode %q", s)
}
