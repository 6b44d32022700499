package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/KexinAnswer/gitbook/internal/images"
	"github.com/KexinAnswer/gitbook/internal/infrastructure/monitoring"
	"github.com/KexinAnswer/gitbook/internal/infrastructure/resilience"
)

// Config tunes outbound probing.
type Config struct {
	Timeout           time.Duration
	MaxBytes          int64
	Retries           int
	RequestsPerSecond float64
	UserAgent         string
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:           5 * time.Second,
		MaxBytes:          1 << 20,
		Retries:           2,
		RequestsPerSecond: 20,
		UserAgent:         "gitbook-image-probe/1.0",
	}
}

// Prober fetches the head of remote images and decodes their size. It
// implements images.Prober.
type Prober struct {
	cfg      Config
	resty    *resty.Client
	limiter  *rate.Limiter
	breakers *resilience.Group
	breaker  resilience.Settings
	resize   images.URLBuilder
	metrics  *monitoring.Metrics
	logger   *zap.Logger
}

// Option configures a Prober.
type Option func(*Prober)

// WithResizer makes the prober fetch the resized rendition matching the
// hint width. Only the aspect ratio of such a rendition is reported.
func WithResizer(b images.URLBuilder) Option {
	return func(p *Prober) { p.resize = b }
}

// WithMetrics records probe outcomes.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(p *Prober) { p.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Prober) { p.logger = l }
}

// WithBreakerSettings overrides the per-host circuit breaker settings.
func WithBreakerSettings(s resilience.Settings) Option {
	return func(p *Prober) { p.breaker = s }
}

// New creates a prober.
func New(cfg Config, opts ...Option) *Prober {
	def := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = def.MaxBytes
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}

	p := &Prober{
		cfg:      cfg,
		limiter:  rate.NewLimiter(rate.Inf, 0),
		logger:   zap.NewNop(),
	}
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	for _, opt := range opts {
		opt(p)
	}
	p.breakers = p.newBreakers(p.breaker)

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.Retries
	retryClient.RetryWaitMin = 100 * time.Millisecond
	retryClient.RetryWaitMax = 2 * time.Second
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = leveledLogger{p.logger.Sugar()}

	p.resty = resty.NewWithClient(retryClient.StandardClient()).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "image/*")

	return p
}

func (p *Prober) newBreakers(s resilience.Settings) *resilience.Group {
	if s.ReadyToTrip == nil {
		s.ReadyToTrip = func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5 ||
				(counts.Requests >= 20 && float64(counts.TotalFailures)/float64(counts.Requests) > 0.7)
		}
	}
	if s.IsSuccessful == nil {
		s.IsSuccessful = func(err error) bool { return !countsAgainstBreaker(err) }
	}
	notify := s.OnStateChange
	s.OnStateChange = func(host string, from, to resilience.State) {
		p.logger.Warn("Image host breaker changed state",
			zap.String("host", host),
			zap.Stringer("from", from),
			zap.Stringer("to", to))
		if notify != nil {
			notify(host, from, to)
		}
	}
	return resilience.NewGroup(s)
}

// Probe implements images.Prober. Unknown sizes are reported as errors;
// the resolver treats any error as an unknown size.
func (p *Prober) Probe(ctx context.Context, rawURL string, hint images.Hint) (size *images.Size, err error) {
	timer := monitoring.NewTimer(p.metrics)
	defer func() { timer.StopProbe(err) }()

	target, ratioOnly := p.target(rawURL, hint)

	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("probe: parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("probe %s: unsupported scheme %q", rawURL, u.Scheme)
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("probe rate limit: %w", err)
	}

	data, err := resilience.Execute(p.breakers.Get(u.Host), func() ([]byte, error) {
		return p.fetch(ctx, target)
	})
	if err != nil {
		return nil, err
	}

	size, err = Decode(data)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", rawURL, err)
	}

	if ratioOnly && size.HasDimensions() {
		r := images.Ratio(float64(size.Width) / float64(size.Height))
		size = &r
	}

	p.logger.Debug("probed image size",
		zap.String("url", rawURL),
		zap.Stringer("size", size),
		zap.Bool("resized", ratioOnly),
	)
	return size, nil
}

// BreakerStates reports the circuit state per probed host.
func (p *Prober) BreakerStates() map[string]resilience.State {
	return p.breakers.States()
}

func (p *Prober) target(rawURL string, hint images.Hint) (string, bool) {
	if p.resize == nil || hint.Width <= 0 {
		return rawURL, false
	}

	build, err := p.resize(rawURL)
	if err != nil {
		return rawURL, false
	}
	density := hint.Density
	if density <= 0 {
		density = 1
	}
	resized, err := build(images.ResizeParams{Width: hint.Width, Quality: images.DefaultQuality, Density: density})
	if err != nil {
		return rawURL, false
	}
	return resized, true
}

func (p *Prober) fetch(ctx context.Context, target string) ([]byte, error) {
	resp, err := p.resty.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetHeader("Range", fmt.Sprintf("bytes=0-%d", p.cfg.MaxBytes-1)).
		Get(target)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", target, err)
	}
	body := resp.RawBody()
	defer body.Close()

	if code := resp.StatusCode(); code != http.StatusOK && code != http.StatusPartialContent {
		return nil, &StatusError{URL: target, Code: code}
	}

	data, err := io.ReadAll(io.LimitReader(body, p.cfg.MaxBytes))
	if err != nil {
		return nil, fmt.Errorf("probe %s: read body: %w", target, err)
	}
	return data, nil
}

// leveledLogger adapts zap to retryablehttp.LeveledLogger.
type leveledLogger struct {
	s *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
