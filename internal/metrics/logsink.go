package metrics

import (
	"context"

	"go.uber.org/zap"

	"github.com/Miller-Media/lambda-watchtower/internal/domain"
)

// LogSink writes records to the log instead of an external service. It
// stands in for CloudWatch in local runs.
type LogSink struct {
	Logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{Logger: logger}
}

func (s *LogSink) Submit(ctx context.Context, namespace string, batch []domain.MetricRecord) error {
	for _, m := range batch {
		s.Logger.Info("metric",
			zap.String("namespace", namespace),
			zap.String("name", m.Name),
			zap.String("dimension", m.Dimension),
			zap.Float64("value", m.Value),
			zap.String("unit", m.Unit),
			zap.Time("ts", m.Timestamp),
		)
	}
	return nil
}
