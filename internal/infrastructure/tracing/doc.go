/*
Package tracing instruments operations with timing and attribute capture.

# Overview

Trace wraps a unit of work, measures how long it takes, lets the work
record attributes on its Span, and emits exactly one Record when the work
settles. Failures (returned errors or panics) are marked with the "error"
attribute and surfaced to the caller unchanged; the wrapper never swallows
or transforms them.

Trace and span IDs propagate through the context, so nested traces share a
trace ID and point at their parent span.

# Usage

	tracer := tracing.New("render", logger)

	html, err := tracing.Trace(ctx, tracer, "document.render",
		func(ctx context.Context, span *tracing.Span) (string, error) {
			span.SetAttribute("nodes", len(doc.Nodes))
			return renderer.Render(ctx, doc)
		})

	// Operations without a result
	err := tracer.Run(ctx, "cache.warm", func(ctx context.Context, span *tracing.Span) error {
		return warm(ctx)
	})

	// HTTP middleware
	router.Use(tracing.HTTPMiddleware(tracer))

# Sinks

Completed records go to a Sink:
  - LogSink: "trace <name> <durationMs>ms" through zap (the default)
  - WriterSink: the same line plus attributes on any io.Writer
  - MetricsSink: durations into Prometheus via the monitoring package
  - OTelSink: replayed as OpenTelemetry spans and a duration histogram

Combine them with MultiSink.

# Trace Format

Traces use standard HTTP headers for propagation:
  - X-Trace-ID: Unique identifier for entire request flow
  - X-Span-ID: Identifier for current operation
*/
package tracing
