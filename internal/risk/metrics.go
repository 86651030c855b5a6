package risk

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const riskInstrumentationName = "github.com/clauselens/riskcore/internal/risk"

// Metrics holds prediction metrics.
type Metrics struct {
	meter       metric.Meter
	logger      *zap.Logger
	predictions metric.Int64Counter
}

// NewMetrics creates a Metrics instance for the risk classifier.
func NewMetrics(logger *zap.Logger) *Metrics {
	m := &Metrics{
		meter:  otel.Meter(riskInstrumentationName),
		logger: logger,
	}

	var err error
	m.predictions, err = m.meter.Int64Counter(
		"riskcore.risk.predictions_total",
		metric.WithDescription("Total risk predictions by serving path (trained, fallback) and predicted level."),
		metric.WithUnit("{prediction}"),
	)
	if err != nil {
		m.logger.Warn("failed to create predictions counter", zap.Error(err))
	}
	return m
}

// RecordPrediction records one served prediction.
func (m *Metrics) RecordPrediction(ctx context.Context, modelUsed, level string) {
	if m.predictions == nil {
		return
	}
	m.predictions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("model_used", modelUsed),
		attribute.String("level", level),
	))
}
