package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/KexinAnswer/gitbook/internal/document"
	"github.com/KexinAnswer/gitbook/internal/images"
	"github.com/KexinAnswer/gitbook/internal/infrastructure/monitoring"
	"github.com/KexinAnswer/gitbook/internal/infrastructure/resilience"
)

// BreakerReporter exposes circuit breaker states, keyed by host.
type BreakerReporter interface {
	BreakerStates() map[string]resilience.State
}

// Handlers contains all HTTP handlers
type Handlers struct {
	resolver *images.Resolver
	renderer *document.Renderer
	flag     *images.Flag
	metrics  *monitoring.Metrics
	breakers BreakerReporter
	logger   *zap.Logger
	version  string
}

// Config wires the handlers to their collaborators.
type Config struct {
	Resolver *images.Resolver
	Renderer *document.Renderer
	// Flag is the resize flag shared with the resolver.
	Flag     *images.Flag
	Metrics  *monitoring.Metrics
	Breakers BreakerReporter
	Logger   *zap.Logger
	Version  string
}

// NewHandlers creates a new handler set
func NewHandlers(cfg Config) *Handlers {
	h := &Handlers{
		resolver: cfg.Resolver,
		renderer: cfg.Renderer,
		flag:     cfg.Flag,
		metrics:  cfg.Metrics,
		breakers: cfg.Breakers,
		logger:   cfg.Logger,
		version:  cfg.Version,
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	if h.resolver == nil {
		h.resolver = images.NewResolver(images.ResolverConfig{})
	}
	if h.renderer == nil {
		h.renderer = document.NewRenderer(h.resolver, nil)
	}
	return h
}

// Register mounts the handlers on r.
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/health", h.Health)

	v1 := r.Group("/v1")
	v1.POST("/render", h.Render)
	v1.POST("/images/resolve", h.ResolveImage)
	v1.POST("/images/picture", h.Picture)
	v1.GET("/stats", h.Stats)
}

// Health handles health check
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"version": h.version,
		"resize":  h.flag.Enabled(),
	})
}

// errorStatus maps domain errors onto HTTP statuses.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, images.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, document.ErrUnknownNode):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) fail(c *gin.Context, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
}
