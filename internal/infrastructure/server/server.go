package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/KexinAnswer/gitbook/internal/api/http"
	"github.com/KexinAnswer/gitbook/internal/api/middleware"
	"github.com/KexinAnswer/gitbook/internal/app"
	"github.com/KexinAnswer/gitbook/internal/infrastructure/monitoring"
	"github.com/KexinAnswer/gitbook/internal/infrastructure/tracing"
)

// Version is reported by the health endpoint.
var Version = "dev"

// Server wraps the HTTP server and dependencies
type Server struct {
	app     *app.App
	router  *gin.Engine
	handler http.Handler
	logger  *zap.Logger
}

// NewServer creates a new server instance
func NewServer(a *app.App) *Server {
	cfg := a.Config
	logger := a.Logger.Named("server")

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(tracing.HTTPMiddleware(a.Tracer))
	router.Use(monitoring.Middleware(a.Metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	router.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))
	if rl := cfg.RateLimit; rl.GlobalRequestsPerSecond > 0 {
		burst := rl.GlobalBurst
		if burst <= 0 {
			burst = rl.GlobalRequestsPerSecond
		}
		logger.Info("Global rate limiting enabled",
			zap.Int("rps", rl.GlobalRequestsPerSecond),
			zap.Int("burst", burst),
		)
		router.Use(middleware.GlobalRateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: rl.GlobalRequestsPerSecond,
			Burst:             burst,
		}))
	}
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := apihttp.NewHandlers(apihttp.Config{
		Resolver: a.Resolver,
		Renderer: a.Renderer,
		Flag:     a.Flag,
		Metrics:  a.Metrics,
		Breakers: breakers(a),
		Logger:   logger,
		Version:  Version,
	})
	handlers.Register(router)

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{DisableCompression: true})))

	var handler http.Handler = router
	if cfg.Server.Compress {
		handler = gzhttp.GzipHandler(router)
	}

	return &Server{app: a, router: router, handler: handler, logger: logger}
}

// breakers avoids storing a typed nil prober in the interface.
func breakers(a *app.App) apihttp.BreakerReporter {
	if a.Prober == nil {
		return nil
	}
	return a.Prober
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled, then shuts down gracefully within
// the configured timeout.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.app.Config.Server.Address())
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.app.Config.Server.ShutdownTimeout.Duration)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	<-errCh
	return nil
}
