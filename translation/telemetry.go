package translation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/pitabwire/langstore/translation"

var (
	tracer = otel.Tracer(instrumentationName)

	missingKeyCounter  = newCounter("langstore.translation.missing_keys", "Keys inserted as their own placeholder translation")
	persistFailCounter = newCounter("langstore.translation.persist_failures", "Failed writes of translation resource files")
)

func newCounter(name, description string) metric.Int64Counter {
	counter, err := otel.Meter(instrumentationName).Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		counter, _ = noop.NewMeterProvider().Meter(instrumentationName).Int64Counter(name)
	}
	return counter
}

func startSpan(ctx context.Context, name string, s *Store) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("langstore.culture", s.cultureCode),
		attribute.String("langstore.path", s.path),
	))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func storeAttributes(s *Store) metric.MeasurementOption {
	return metric.WithAttributes(
		attribute.String("langstore.unit", s.owner.Unit.Name),
		attribute.String("langstore.culture", s.cultureCode),
	)
}
