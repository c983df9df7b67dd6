package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/amareshkumar/telemetryhub/internal/domain"
)

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
gateway:
  queue_size: 128
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Gateway.SamplingIntervalMs != 100 {
		t.Fatalf("expected sampling interval default 100, got %d", cfg.Gateway.SamplingIntervalMs)
	}
	if cfg.Gateway.QueueSize != 128 {
		t.Fatalf("expected queue size 128, got %d", cfg.Gateway.QueueSize)
	}
	if cfg.Gateway.CloudSampleInterval != 4 {
		t.Fatalf("expected cloud sample interval default 4, got %d", cfg.Gateway.CloudSampleInterval)
	}
	if cfg.Gateway.MaxConsecutiveFailures != 5 {
		t.Fatalf("expected failure threshold default 5, got %d", cfg.Gateway.MaxConsecutiveFailures)
	}
	if cfg.Cloud.Publisher != "stdout" {
		t.Fatalf("expected default publisher stdout, got %s", cfg.Cloud.Publisher)
	}
	if cfg.Cloud.Retry.InitialBackoff != 100*time.Millisecond {
		t.Fatalf("expected retry backoff default 100ms, got %s", cfg.Cloud.Retry.InitialBackoff)
	}
	if cfg.HTTP.Addr != ":8080" || cfg.Metrics.Addr != ":9100" {
		t.Fatalf("unexpected server defaults: http=%s metrics=%s", cfg.HTTP.Addr, cfg.Metrics.Addr)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadFullGatewayBlock(t *testing.T) {
	path := writeConfig(t, `
gateway:
  sampling_interval_ms: 50
  queue_size: 10
  cloud_sample_interval: 2
  max_consecutive_failures: 3
device:
  fault_after_samples: 8
  fault_mode: sensor
  error_probability: 0.25
cloud:
  publisher: rest
  rest:
    base_url: http://ingest.local/api
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Gateway.SamplingIntervalMs != 50 || cfg.Gateway.CloudSampleInterval != 2 {
		t.Fatalf("gateway block not applied: %+v", cfg.Gateway)
	}
	if cfg.Device.FaultAfterSamples != 8 || cfg.Device.ErrorProbability != 0.25 {
		t.Fatalf("device block not applied: %+v", cfg.Device)
	}

	mode, err := ParseFaultMode(cfg.Device.FaultMode)
	if err != nil || mode != domain.FaultRandomSensorErrors {
		t.Fatalf("fault mode parse: mode=%v err=%v", mode, err)
	}
}

func TestErrorProbabilityClamped(t *testing.T) {
	path := writeConfig(t, `
device:
  error_probability: 3.5
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Device.ErrorProbability != 1 {
		t.Fatalf("expected probability clamped to 1, got %f", cfg.Device.ErrorProbability)
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"negative queue size", "gateway:\n  queue_size: -1\n"},
		{"negative sampling interval", "gateway:\n  sampling_interval_ms: -5\n"},
		{"negative cloud interval", "gateway:\n  cloud_sample_interval: -2\n"},
		{"unknown fault mode", "device:\n  fault_mode: chaos\n"},
		{"unknown publisher", "cloud:\n  publisher: carrier-pigeon\n"},
		{"rest without url", "cloud:\n  publisher: rest\n"},
		{"mqtt without broker", "cloud:\n  publisher: mqtt\n"},
		{"nats without url", "cloud:\n  publisher: nats\n"},
		{"postgres without conn", "cloud:\n  publisher: postgres\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.yaml)
			if _, err := Load(path); err == nil {
				t.Fatalf("expected validation error for %s", tc.name)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestParseFaultModeAliases(t *testing.T) {
	cases := map[string]domain.FaultMode{
		"":                      domain.FaultNone,
		"none":                  domain.FaultNone,
		"sensor":                domain.FaultRandomSensorErrors,
		"random_sensor_errors":  domain.FaultRandomSensorErrors,
		"comms":                 domain.FaultCommunicationFailure,
		"communication_failure": domain.FaultCommunicationFailure,
		"both":                  domain.FaultBoth,
		"BOTH":                  domain.FaultBoth,
	}
	for in, want := range cases {
		got, err := ParseFaultMode(in)
		if err != nil || got != want {
			t.Fatalf("ParseFaultMode(%q) = %v, %v; want %v", in, got, err, want)
		}
	}

	if _, err := ParseFaultMode("chaos"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}
