package telemetryhub

// Version is the TelemetryHub release version.
const Version = "0.1.0"
