package vectorstore

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const vectorstoreInstrumentationName = "github.com/clauselens/riskcore/internal/vectorstore"

// Metrics holds clause store metrics.
type Metrics struct {
	meter          metric.Meter
	logger         *zap.Logger
	searchDuration metric.Float64Histogram
	searchResults  metric.Int64Histogram
	clausesAdded   metric.Int64Counter
}

// NewMetrics creates a Metrics instance for the clause store.
func NewMetrics(logger *zap.Logger) *Metrics {
	m := &Metrics{
		meter:  otel.Meter(vectorstoreInstrumentationName),
		logger: logger,
	}

	var err error
	m.searchDuration, err = m.meter.Float64Histogram(
		"riskcore.vectorstore.search_duration_seconds",
		metric.WithDescription("Duration of clause similarity searches in seconds."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0),
	)
	if err != nil {
		m.logger.Warn("failed to create search duration histogram", zap.Error(err))
	}

	m.searchResults, err = m.meter.Int64Histogram(
		"riskcore.vectorstore.search_results",
		metric.WithDescription("Result count per similarity search after filtering."),
		metric.WithUnit("{clause}"),
		metric.WithExplicitBucketBoundaries(0, 1, 2, 5, 10, 25, 50),
	)
	if err != nil {
		m.logger.Warn("failed to create search results histogram", zap.Error(err))
	}

	m.clausesAdded, err = m.meter.Int64Counter(
		"riskcore.vectorstore.clauses_added_total",
		metric.WithDescription("Total clauses added to the index by clause type."),
		metric.WithUnit("{clause}"),
	)
	if err != nil {
		m.logger.Warn("failed to create clauses added counter", zap.Error(err))
	}
	return m
}

// RecordSearch records one similarity search.
func (m *Metrics) RecordSearch(ctx context.Context, duration time.Duration, results int) {
	if m.searchDuration != nil {
		m.searchDuration.Record(ctx, duration.Seconds())
	}
	if m.searchResults != nil {
		m.searchResults.Record(ctx, int64(results))
	}
}

// RecordAdd records one indexed clause.
func (m *Metrics) RecordAdd(ctx context.Context, clauseType string) {
	if m.clausesAdded != nil {
		m.clausesAdded.Add(ctx, 1, metric.WithAttributes(attribute.String("clause_type", clauseType)))
	}
}
