package sink

import (
	"log/slog"

	"github.com/amareshkumar/telemetryhub/internal/domain"
	"github.com/amareshkumar/telemetryhub/internal/ports"
)

// LogSink writes publications to the process logger. It is the default
// publisher when no cloud transport is configured and never fails.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (l *LogSink) Name() string { return "stdout" }

func (l *LogSink) PushSample(s domain.TelemetrySample) error {
	l.logger.Info("cloud sample",
		"seq", s.SequenceID,
		"value", s.Value,
		"unit", s.Unit,
	)
	return nil
}

func (l *LogSink) PushStatus(state domain.DeviceState) error {
	l.logger.Info("cloud status", "state", state.String())
	return nil
}

var _ ports.Sink = (*LogSink)(nil)
