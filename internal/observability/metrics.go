package observability

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/attunehealth/attune-backend/internal/platform/logger"
)

// Metrics carries the content core's instruments. All methods are nil-safe
// so call sites never have to branch on whether metrics are enabled.
type Metrics struct {
	embedLatency    metric.Float64Histogram
	vectorOpLatency metric.Float64Histogram
	retrievalTotal  metric.Int64Counter
	riskFlagTotal   metric.Int64Counter
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	v := strings.TrimSpace(os.Getenv("METRICS_ENABLED"))
	if v == "" {
		return false
	}
	return strings.EqualFold(v, "true") || v == "1" || strings.EqualFold(v, "yes")
}

func Current() *Metrics {
	return instance
}

func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		meter := otel.Meter("attune/content-core")
		m := &Metrics{}
		var err error

		m.embedLatency, err = meter.Float64Histogram(
			"att_embedding_request_duration_seconds",
			metric.WithDescription("Embedding request latency in seconds by status."),
		)
		warnInstrument(log, "att_embedding_request_duration_seconds", err)

		m.vectorOpLatency, err = meter.Float64Histogram(
			"att_vector_store_operation_duration_seconds",
			metric.WithDescription("Vector store operation latency in seconds by provider/operation/status."),
		)
		warnInstrument(log, "att_vector_store_operation_duration_seconds", err)

		m.retrievalTotal, err = meter.Int64Counter(
			"att_retrieval_total",
			metric.WithDescription("Knowledge retrievals by status."),
		)
		warnInstrument(log, "att_retrieval_total", err)

		m.riskFlagTotal, err = meter.Int64Counter(
			"att_risk_flag_total",
			metric.WithDescription("Risk scanner flags by category/severity."),
		)
		warnInstrument(log, "att_risk_flag_total", err)

		instance = m
	})
	return instance
}

func warnInstrument(log *logger.Logger, name string, err error) {
	if err != nil && log != nil {
		log.Warn("metric instrument init failed (continuing)", "instrument", name, "error", err)
	}
}

func (m *Metrics) ObserveEmbedding(status string, dur time.Duration) {
	if m == nil || m.embedLatency == nil {
		return
	}
	m.embedLatency.Record(context.Background(), dur.Seconds(), metric.WithAttributes(
		attribute.String("status", status),
	))
}

func (m *Metrics) ObserveVectorStoreOperation(provider, operation, status string, dur time.Duration) {
	if m == nil || m.vectorOpLatency == nil {
		return
	}
	m.vectorOpLatency.Record(context.Background(), dur.Seconds(), metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("operation", operation),
		attribute.String("status", status),
	))
}

func (m *Metrics) IncRetrieval(status string) {
	if m == nil || m.retrievalTotal == nil {
		return
	}
	m.retrievalTotal.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("status", status),
	))
}

func (m *Metrics) IncRiskFlag(category, severity string) {
	if m == nil || m.riskFlagTotal == nil {
		return
	}
	m.riskFlagTotal.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("category", category),
		attribute.String("severity", severity),
	))
}
