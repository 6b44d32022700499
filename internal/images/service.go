package images

import (
	"context"

	"go.uber.org/zap"

	"github.com/KexinAnswer/gitbook/internal/infrastructure/tracing"
)

// Resolution outcomes reported to the metrics recorder.
const (
	OutcomeResized     = "resized"
	OutcomePassthrough = "passthrough"
	OutcomeError       = "error"
)

// MetricsRecorder counts resolutions by outcome.
type MetricsRecorder interface {
	RecordResolution(outcome string)
}

// ResolverConfig holds the defaults applied to every resolution.
type ResolverConfig struct {
	Quality    int
	MaxDensity int
}

// Resolver binds Resolve to its collaborators and traces every call.
type Resolver struct {
	cfg     ResolverConfig
	builder URLBuilder
	prober  Prober
	flag    *Flag
	tracer  *tracing.Tracer
	metrics MetricsRecorder
	logger  *zap.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithURLBuilder sets the resize URL builder. Without one, images are
// never resized.
func WithURLBuilder(b URLBuilder) ResolverOption {
	return func(r *Resolver) { r.builder = b }
}

// WithProber sets the size prober.
func WithProber(p Prober) ResolverOption {
	return func(r *Resolver) { r.prober = p }
}

// WithFlag sets the resize feature flag.
func WithFlag(f *Flag) ResolverOption {
	return func(r *Resolver) { r.flag = f }
}

// WithTracer sets the tracer.
func WithTracer(t *tracing.Tracer) ResolverOption {
	return func(r *Resolver) { r.tracer = t }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m MetricsRecorder) ResolverOption {
	return func(r *Resolver) { r.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) ResolverOption {
	return func(r *Resolver) { r.logger = l }
}

// NewResolver creates a resolver.
func NewResolver(cfg ResolverConfig, opts ...ResolverOption) *Resolver {
	r := &Resolver{cfg: cfg}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	if r.tracer == nil {
		r.tracer = tracing.Nop()
	}
	return r
}

type callOptions struct {
	resize     bool
	quality    int
	maxDensity int
}

// CallOption adjusts a single Resolve call.
type CallOption func(*callOptions)

// WithResize disables resizing for one call when false.
func WithResize(resize bool) CallOption {
	return func(o *callOptions) { o.resize = resize }
}

// WithQuality overrides the quality for one call.
func WithQuality(quality int) CallOption {
	return func(o *callOptions) { o.quality = quality }
}

// WithMaxDensity overrides the highest density for one call.
func WithMaxDensity(maxDensity int) CallOption {
	return func(o *callOptions) { o.maxDensity = maxDensity }
}

// Resolve runs Resolve with the resolver's collaborators inside an
// "images.resolve" trace. The feature flag is read once per call.
func (r *Resolver) Resolve(ctx context.Context, src Source, breakpoints []Breakpoint, opts ...CallOption) (Resolved, error) {
	co := callOptions{
		resize:     true,
		quality:    r.cfg.Quality,
		maxDensity: r.cfg.MaxDensity,
	}
	for _, opt := range opts {
		opt(&co)
	}

	enabled := co.resize && r.flag.Enabled()

	return tracing.Trace(ctx, r.tracer, "images.resolve", func(ctx context.Context, span *tracing.Span) (Resolved, error) {
		span.SetAttribute("url", src.URL)
		span.SetAttribute("breakpoints", len(breakpoints))
		span.SetAttribute("resize", enabled)

		res, err := Resolve(ctx, src, breakpoints, Options{
			Quality:       co.quality,
			ResizeEnabled: enabled,
			MaxDensity:    co.maxDensity,
			Probe:         r.prober,
			URLBuilder:    r.builder,
			Logger:        r.logger,
		})
		if err != nil {
			r.record(OutcomeError)
			return res, err
		}

		span.SetAttribute("resized", res.Resized())
		span.SetAttribute("probed", res.Probed)
		if res.Resized() {
			r.record(OutcomeResized)
		} else {
			r.record(OutcomePassthrough)
		}
		return res, nil
	})
}

func (r *Resolver) record(outcome string) {
	if r.metrics != nil {
		r.metrics.RecordResolution(outcome)
	}
}
