package app

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/KexinAnswer/gitbook/internal/document"
	"github.com/KexinAnswer/gitbook/internal/images"
	"github.com/KexinAnswer/gitbook/internal/images/probe"
	"github.com/KexinAnswer/gitbook/internal/images/sizecache"
	"github.com/KexinAnswer/gitbook/internal/infrastructure/config"
	"github.com/KexinAnswer/gitbook/internal/infrastructure/logging"
	"github.com/KexinAnswer/gitbook/internal/infrastructure/monitoring"
	"github.com/KexinAnswer/gitbook/internal/infrastructure/tracing"
)

// App is the wired rendering stack shared by the binaries.
type App struct {
	Config   *config.Config
	Logger   *logging.Logger
	Registry *prometheus.Registry
	Metrics  *monitoring.Metrics
	Tracer   *tracing.Tracer
	Flag     *images.Flag
	Resolver *images.Resolver
	Renderer *document.Renderer
	// Prober is nil when probing is disabled.
	Prober *probe.Prober
	// Cache is nil when the size cache is disabled.
	Cache sizecache.Cache
}

type options struct {
	logger *logging.Logger
	sinks  []tracing.Sink
}

// Option configures New.
type Option func(*options)

// WithLogger replaces the logger built from the configuration.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithTraceSinks adds sinks receiving every trace record.
func WithTraceSinks(sinks ...tracing.Sink) Option {
	return func(o *options) { o.sinks = append(o.sinks, sinks...) }
}

// New builds the stack described by cfg.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = logging.FromLevel(cfg.Tracing.Service, cfg.Logging.Level, cfg.Logging.Development)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := monitoring.NewMetrics(reg)

	sinks := append([]tracing.Sink{
		tracing.LogSink(logger.Logger),
		tracing.MetricsSink(metrics),
	}, o.sinks...)
	if cfg.Tracing.OpenTelemetry {
		sink, err := tracing.OTelSink(otel.Tracer(cfg.Tracing.Service), otel.Meter(cfg.Tracing.Service))
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink)
	}
	tracer := tracing.New(cfg.Tracing.Service, logger.Logger, sinks...)

	var builder images.URLBuilder
	if cfg.Images.Endpoint != "" {
		builder = images.SignedURLBuilder(cfg.Images.Endpoint, []byte(cfg.Images.SigningKey))
	}

	cache, err := sizecache.FromConfig(cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("size cache: %w", err)
	}

	a := &App{
		Config:   cfg,
		Logger:   logger,
		Registry: reg,
		Metrics:  metrics,
		Tracer:   tracer,
		Flag:     images.NewFlag(cfg.Images.ResizeEnabled),
		Cache:    cache,
	}

	resolverOpts := []images.ResolverOption{
		images.WithURLBuilder(builder),
		images.WithFlag(a.Flag),
		images.WithTracer(tracer),
		images.WithMetrics(metrics),
		images.WithLogger(logger.Named("images")),
	}
	if cfg.Probe.Enabled {
		a.Prober = probe.New(probe.Config{
			Timeout:           cfg.Probe.Timeout.Duration,
			MaxBytes:          cfg.Probe.MaxBytes,
			Retries:           cfg.Probe.Retries,
			RequestsPerSecond: cfg.Probe.RequestsPerSecond,
			UserAgent:         cfg.Probe.UserAgent,
		},
			probe.WithResizer(builder),
			probe.WithMetrics(metrics),
			probe.WithLogger(logger.Named("probe")),
		)
		resolverOpts = append(resolverOpts,
			images.WithProber(sizecache.NewProber(a.Prober, cache, metrics, logger.Named("sizecache"))),
		)
	}
	a.Resolver = images.NewResolver(images.ResolverConfig{
		Quality:    cfg.Images.Quality,
		MaxDensity: cfg.Images.MaxDensity,
	}, resolverOpts...)

	renderOpts := []document.Option{
		document.WithTracer(tracer),
		document.WithMetrics(metrics),
		document.WithLogger(logger.Named("document")),
	}
	if cfg.Render.Sanitize {
		renderOpts = append(renderOpts, document.WithSanitizer(document.NewSanitizer()))
	}
	a.Renderer = document.NewRenderer(a.Resolver, nil, renderOpts...)

	logger.Info("rendering stack ready",
		zap.Bool("resize", cfg.Images.ResizeEnabled),
		zap.Bool("resize_endpoint", builder != nil),
		zap.Bool("probe", cfg.Probe.Enabled),
		zap.String("cache", cfg.Cache.Backend),
		zap.Bool("sanitize", cfg.Render.Sanitize),
		zap.Bool("opentelemetry", cfg.Tracing.OpenTelemetry),
	)
	return a, nil
}

// Close releases the cache and flushes the logger.
func (a *App) Close() error {
	var err error
	if a.Cache != nil {
		err = a.Cache.Close()
	}
	_ = a.Logger.Sync()
	return err
}
