package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/invoiceflow/hook"
	"github.com/xraph/invoiceflow/invoice"
)

// meterName is the instrumentation scope name for lifecycle metrics.
const meterName = "github.com/xraph/invoiceflow/observability"

// Compile-time interface checks.
var (
	_ hook.Extension    = (*MetricsExtension)(nil)
	_ hook.RunStarted   = (*MetricsExtension)(nil)
	_ hook.RunSuspended = (*MetricsExtension)(nil)
	_ hook.RunResumed   = (*MetricsExtension)(nil)
	_ hook.RunCompleted = (*MetricsExtension)(nil)
	_ hook.RunFailed    = (*MetricsExtension)(nil)
	_ hook.RunCancelled = (*MetricsExtension)(nil)
)

// MetricsExtension records run lifecycle metrics via the OTel
// MeterProvider. Register it on the engine's hook registry to track
// start rates, suspension counts, outcomes, and end-to-end run
// duration. Without a configured MeterProvider all instruments are
// noops.
type MetricsExtension struct {
	runsStarted   metric.Int64Counter
	runsSuspended metric.Int64Counter
	runsResumed   metric.Int64Counter
	runsCompleted metric.Int64Counter
	runsFailed    metric.Int64Counter
	runsCancelled metric.Int64Counter
	runDuration   metric.Float64Histogram
}

// NewMetricsExtension creates a MetricsExtension on the global
// MeterProvider.
func NewMetricsExtension() *MetricsExtension {
	return NewMetricsExtensionWithMeter(otel.Meter(meterName))
}

// NewMetricsExtensionWithMeter creates a MetricsExtension with the
// provided meter. Use it to inject a specific MeterProvider in tests.
func NewMetricsExtensionWithMeter(meter metric.Meter) *MetricsExtension {
	m := &MetricsExtension{}

	// On error the OTel API returns noop instruments, so the extension
	// degrades gracefully.
	m.runsStarted, _ = meter.Int64Counter("invoiceflow.run.started",
		metric.WithDescription("Total runs started"),
		metric.WithUnit("{run}"))
	m.runsSuspended, _ = meter.Int64Counter("invoiceflow.run.suspended",
		metric.WithDescription("Total runs suspended for human review"),
		metric.WithUnit("{run}"))
	m.runsResumed, _ = meter.Int64Counter("invoiceflow.run.resumed",
		metric.WithDescription("Total suspended runs resumed"),
		metric.WithUnit("{run}"))
	m.runsCompleted, _ = meter.Int64Counter("invoiceflow.run.completed",
		metric.WithDescription("Total runs reaching a terminal status"),
		metric.WithUnit("{run}"))
	m.runsFailed, _ = meter.Int64Counter("invoiceflow.run.failed",
		metric.WithDescription("Total runs terminated by failure"),
		metric.WithUnit("{run}"))
	m.runsCancelled, _ = meter.Int64Counter("invoiceflow.run.cancelled",
		metric.WithDescription("Total suspended runs cancelled"),
		metric.WithUnit("{run}"))
	m.runDuration, _ = meter.Float64Histogram("invoiceflow.run.duration",
		metric.WithDescription("End-to-end run duration in seconds"),
		metric.WithUnit("s"))

	return m
}

// Name implements hook.Extension.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnRunStarted implements hook.RunStarted.
func (m *MetricsExtension) OnRunStarted(ctx context.Context, _ *invoice.Record) error {
	m.runsStarted.Add(ctx, 1)
	return nil
}

// OnRunSuspended implements hook.RunSuspended.
func (m *MetricsExtension) OnRunSuspended(ctx context.Context, _ *invoice.Record) error {
	m.runsSuspended.Add(ctx, 1)
	return nil
}

// OnRunResumed implements hook.RunResumed.
func (m *MetricsExtension) OnRunResumed(ctx context.Context, _ *invoice.Record, _ *invoice.Decision) error {
	m.runsResumed.Add(ctx, 1)
	return nil
}

// OnRunCompleted implements hook.RunCompleted.
func (m *MetricsExtension) OnRunCompleted(ctx context.Context, rec *invoice.Record, elapsed time.Duration) error {
	attrs := metric.WithAttributes(
		attribute.String("status", string(rec.Status)),
		attribute.String("outcome", string(rec.ApprovalOutcome)),
	)
	m.runsCompleted.Add(ctx, 1, attrs)
	m.runDuration.Record(ctx, elapsed.Seconds(), attrs)
	return nil
}

// OnRunFailed implements hook.RunFailed.
func (m *MetricsExtension) OnRunFailed(ctx context.Context, _ *invoice.Record, _ error) error {
	m.runsFailed.Add(ctx, 1)
	return nil
}

// OnRunCancelled implements hook.RunCancelled.
func (m *MetricsExtension) OnRunCancelled(ctx context.Context, _ *invoice.Record) error {
	m.runsCancelled.Add(ctx, 1)
	return nil
}
