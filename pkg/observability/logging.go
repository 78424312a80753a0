package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/seasr/vtable/pkg/logger"
	"github.com/seasr/vtable/pkg/metrics"
)

// WithSpan adds the trace and span ids of ctx's span to l
func WithSpan(ctx context.Context, l *zap.Logger) *zap.Logger {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return l
	}
	return l.With(
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	)
}

// operationDuration follows the global meter provider, so durations are
// dropped until the host application installs one.
var operationDuration = newOperationDuration()

func newOperationDuration() metric.Float64Histogram {
	h, err := otel.Meter(instrumentationName).Float64Histogram("vtable.operation.duration",
		metric.WithDescription("Duration of table operations"),
		metric.WithUnit("ms"))
	if err != nil {
		return metricnoop.Float64Histogram{}
	}
	return h
}

// Operation ties a span, a logger and the table operation counter to one
// unit of work.
type Operation struct {
	ctx       context.Context
	name      string
	span      trace.Span
	logger    *zap.Logger
	startTime time.Time
}

// StartOperation opens a span and logs the start of the operation
func StartOperation(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, *Operation) {
	ctx, span := StartSpan(ctx, name, attrs...)
	op := &Operation{
		ctx:       ctx,
		name:      name,
		span:      span,
		logger:    WithSpan(ctx, logger.Get()).With(zap.String("operation", name)),
		startTime: time.Now(),
	}
	op.logger.Debug("operation started", zap.String("phase", "start"))
	return ctx, op
}

// Logger returns the operation's logger
func (op *Operation) Logger() *zap.Logger { return op.logger }

// SetAttributes adds attributes to the operation's span
func (op *Operation) SetAttributes(attrs ...attribute.KeyValue) {
	op.span.SetAttributes(attrs...)
}

// End closes the span, counts the operation and logs its outcome
func (op *Operation) End(err error, fields ...zap.Field) {
	elapsed := time.Since(op.startTime)
	fields = append(fields,
		zap.String("phase", "complete"),
		zap.Duration("duration", elapsed),
	)
	if err != nil {
		op.logger.Error("operation failed", append(fields, zap.Error(err))...)
	} else {
		op.logger.Info("operation completed", fields...)
	}
	status := metrics.Status(err)
	metrics.TableOperations.WithLabelValues(op.name, status).Inc()
	operationDuration.Record(op.ctx, float64(elapsed)/float64(time.Millisecond),
		metric.WithAttributes(
			attribute.String("operation", op.name),
			attribute.String("status", status),
		))
	EndSpan(op.span, err)
}
