package server

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KexinAnswer/gitbook/internal/app"
	"github.com/KexinAnswer/gitbook/internal/infrastructure/config"
	"github.com/KexinAnswer/gitbook/internal/infrastructure/logging"
)

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Logging.Development = true
	cfg.Probe.Enabled = false
	if mutate != nil {
		mutate(cfg)
	}
	a, err := app.New(cfg, app.WithLogger(logging.NewNop()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return NewServer(a)
}

func TestRoutes(t *testing.T) {
	s := newTestServer(t, nil)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.NotEmpty(t, w.Header().Get("X-Trace-ID"))

	body := `{"document": {"nodes": [{"object": "block", "type": "paragraph", "nodes": [{"object": "text", "leaves": [{"text": "hi"}]}]}]}}`
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/render", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	s.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"html":"<p>hi</p>"}`, w.Body.String())

	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "gitbook_document_renders_total")
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestGlobalRateLimit(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) {
		c.RateLimit.GlobalRequestsPerSecond = 1
		c.RateLimit.GlobalBurst = 2
	})

	codes := make([]int, 0, 3)
	for _, addr := range []string{"10.0.0.1:1000", "10.0.0.2:1000", "10.0.0.3:1000"} {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestCompression(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))

	s = newTestServer(t, func(c *config.Config) { c.Server.Compress = false })
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Content-Encoding"))
}

func TestServeGracefulShutdown(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.Server.ShutdownTimeout = config.Duration{Duration: time.Second} })

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
