package channel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/acheong08/depguardian/internal/channel"

// telemetry holds the instruments for submissions. Without a configured
// provider the global otel API hands out no-op implementations.
type telemetry struct {
	tracer trace.Tracer
	runs   metric.Int64Counter
}

func newTelemetry() *telemetry {
	return newTelemetryWith(otel.GetTracerProvider(), otel.GetMeterProvider())
}

func newTelemetryWith(tp trace.TracerProvider, mp metric.MeterProvider) *telemetry {
	t := &telemetry{tracer: tp.Tracer(instrumentationName)}

	runs, err := mp.Meter(instrumentationName).Int64Counter(
		"depguardian.channel.runs",
		metric.WithDescription("Submissions by terminal outcome"),
		metric.WithUnit("1"),
	)
	if err != nil {
		runs, _ = noop.NewMeterProvider().Meter(instrumentationName).Int64Counter("depguardian.channel.runs")
	}
	t.runs = runs
	return t
}

func (t *telemetry) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// finish records the outcome of a run on its span and the runs counter
func (t *telemetry) finish(ctx context.Context, span trace.Span, state State, err error) {
	outcome := attribute.String("outcome", string(state))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.SetAttributes(outcome)
	span.End()
	t.runs.Add(ctx, 1, metric.WithAttributes(outcome))
}
