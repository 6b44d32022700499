package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type otelSink struct {
	tracer    trace.Tracer
	durations metric.Float64Histogram
}

// OTelSink replays completed records as OpenTelemetry spans with their
// original start and end timestamps, and records durations on a histogram.
// meter may be nil.
func OTelSink(tracer trace.Tracer, meter metric.Meter) (Sink, error) {
	s := &otelSink{tracer: tracer}
	if meter != nil {
		hist, err := meter.Float64Histogram("trace.duration",
			metric.WithUnit("ms"),
			metric.WithDescription("Duration of traced operations"),
		)
		if err != nil {
			return nil, fmt.Errorf("create trace duration histogram: %w", err)
		}
		s.durations = hist
	}
	return s, nil
}

func (s *otelSink) Emit(rec Record) {
	attrs := toOTelAttributes(rec.Attributes)
	attrs = append(attrs,
		attribute.String("trace.id", string(rec.TraceID)),
		attribute.String("span.id", string(rec.SpanID)),
	)
	if rec.Service != "" {
		attrs = append(attrs, attribute.String("service.name", rec.Service))
	}

	_, span := s.tracer.Start(context.Background(), rec.Name,
		trace.WithTimestamp(rec.Start),
		trace.WithAttributes(attrs...),
	)
	if rec.Errored {
		desc := "operation failed"
		if rec.Err != nil {
			span.RecordError(rec.Err)
			desc = rec.Err.Error()
		}
		span.SetStatus(codes.Error, desc)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(rec.End()))

	if s.durations != nil {
		s.durations.Record(context.Background(), rec.DurationMs(), metric.WithAttributes(
			attribute.String("name", rec.Name),
			attribute.Bool("error", rec.Errored),
		))
	}
}

func toOTelAttributes(attrs map[string]any) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(attrs)+3)
	for k, v := range attrs {
		switch val := v.(type) {
		case bool:
			out = append(out, attribute.Bool(k, val))
		case int64:
			out = append(out, attribute.Int64(k, val))
		case float64:
			out = append(out, attribute.Float64(k, val))
		case string:
			out = append(out, attribute.String(k, val))
		default:
			out = append(out, attribute.String(k, fmt.Sprint(val)))
		}
	}
	return out
}
