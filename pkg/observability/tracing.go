// Package observability provides OpenTelemetry tracing for vtable commands
package observability

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const instrumentationName = "github.com/seasr/vtable"

// Config contains tracing configuration
type Config struct {
	Enabled        bool          `yaml:"enabled" mapstructure:"enabled"`
	ServiceName    string        `yaml:"service_name" mapstructure:"service_name"`
	ServiceVersion string        `yaml:"service_version" mapstructure:"service_version"`
	Environment    string        `yaml:"environment" mapstructure:"environment"`
	SamplingRate   float64       `yaml:"sampling_rate" mapstructure:"sampling_rate"`
	PrettyPrint    bool          `yaml:"pretty_print" mapstructure:"pretty_print"`
	BatchTimeout   time.Duration `yaml:"batch_timeout" mapstructure:"batch_timeout"`

	// Output receives exported spans; nil means stdout
	Output io.Writer `yaml:"-" mapstructure:"-"`
}

// DefaultConfig returns a disabled tracing configuration
func DefaultConfig() Config {
	return Config{
		ServiceName:    "vtable",
		ServiceVersion: "dev",
		Environment:    "development",
		SamplingRate:   1.0,
		BatchTimeout:   5 * time.Second,
	}
}

var (
	mu       sync.Mutex
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer = noop.NewTracerProvider().Tracer(instrumentationName)
)

// Initialize installs a tracer provider exporting to stdout. A disabled
// config leaves the no-op tracer in place.
func Initialize(cfg Config) error {
	if !cfg.Enabled {
		return nil
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(cfg.ServiceVersion),
			semconv.DeploymentEnvironmentKey.String(cfg.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	opts := []stdouttrace.Option{stdouttrace.WithWriter(out)}
	if cfg.PrettyPrint {
		opts = append(opts, stdouttrace.WithPrettyPrint())
	}
	exporter, err := stdouttrace.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create stdout exporter: %w", err)
	}

	var sampler sdktrace.Sampler
	switch {
	case cfg.SamplingRate <= 0:
		sampler = sdktrace.NeverSample()
	case cfg.SamplingRate >= 1.0:
		sampler = sdktrace.AlwaysSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(cfg.SamplingRate)
	}

	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = 5 * time.Second
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(batchTimeout)),
	)

	mu.Lock()
	old := provider
	provider = tp
	tracer = tp.Tracer(instrumentationName)
	mu.Unlock()
	otel.SetTracerProvider(tp)

	if old != nil {
		return old.Shutdown(context.Background())
	}
	return nil
}

// Tracer returns the active tracer
func Tracer() trace.Tracer {
	mu.Lock()
	defer mu.Unlock()
	return tracer
}

// StartSpan starts a span named name as a child of any span in ctx
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndSpan records err on span, if any, and ends it
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// Shutdown flushes pending spans and stops the provider
func Shutdown(ctx context.Context) error {
	mu.Lock()
	tp := provider
	provider = nil
	tracer = noop.NewTracerProvider().Tracer(instrumentationName)
	mu.Unlock()

	if tp == nil {
		return nil
	}
	if err := tp.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown tracer: %w", err)
	}
	return nil
}
