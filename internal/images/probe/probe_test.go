package probe

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/image/bmp"

	"github.com/KexinAnswer/gitbook/internal/images"
	"github.com/KexinAnswer/gitbook/internal/infrastructure/monitoring"
	"github.com/KexinAnswer/gitbook/internal/infrastructure/resilience"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func testConfig() Config {
	return Config{Timeout: 2 * time.Second, MaxBytes: 64 << 10, Retries: 0}
}

func serve(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestProbeRasterImages(t *testing.T) {
	pngData := pngBytes(t, 40, 20)

	var bmpBuf bytes.Buffer
	require.NoError(t, bmp.Encode(&bmpBuf, image.NewGray(image.Rect(0, 0, 7, 3))))

	files := map[string][]byte{
		"/a.png": pngData,
		"/b.bmp": bmpBuf.Bytes(),
	}
	var ranges atomic.Value
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		ranges.Store(r.Header.Get("Range"))
		data, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
	})

	p := New(testConfig())

	size, err := p.Probe(context.Background(), srv.URL+"/a.png", images.Hint{Density: 3})
	require.NoError(t, err)
	assert.Equal(t, images.Dimensions(40, 20), *size)
	assert.Equal(t, "bytes=0-65535", ranges.Load())

	size, err = p.Probe(context.Background(), srv.URL+"/b.bmp", images.Hint{})
	require.NoError(t, err)
	assert.Equal(t, images.Dimensions(7, 3), *size)
}

func TestProbeSVG(t *testing.T) {
	svgs := map[string]string{
		"/sized.svg":   `<?xml version="1.0"?><svg xmlns="http://www.w3.org/2000/svg" width="1248px" height="400"><rect/></svg>`,
		"/viewbox.svg": `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 300 150"></svg>`,
		"/ratio.svg":   `<svg xmlns="http://www.w3.org/2000/svg" width="100%" viewBox="0,0,10.5,3.5"></svg>`,
		"/empty.svg":   `<svg xmlns="http://www.w3.org/2000/svg"></svg>`,
	}
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/svg+xml")
		_, _ = w.Write([]byte(svgs[r.URL.Path]))
	})
	p := New(testConfig())

	size, err := p.Probe(context.Background(), srv.URL+"/sized.svg", images.Hint{})
	require.NoError(t, err)
	assert.Equal(t, images.Dimensions(1248, 400), *size)

	size, err = p.Probe(context.Background(), srv.URL+"/viewbox.svg", images.Hint{})
	require.NoError(t, err)
	assert.Equal(t, images.Dimensions(300, 150), *size)

	size, err = p.Probe(context.Background(), srv.URL+"/ratio.svg", images.Hint{})
	require.NoError(t, err)
	assert.InDelta(t, 3.0, size.AspectRatio, 1e-9)

	_, err = p.Probe(context.Background(), srv.URL+"/empty.svg", images.Hint{})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestProbeResizedVariantReportsRatio(t *testing.T) {
	var requested atomic.Value
	pngData := pngBytes(t, 300, 200)
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		requested.Store(r.URL.RequestURI())
		_, _ = w.Write(pngData)
	})

	resizer := func(src string) (images.URLFunc, error) {
		return func(p images.ResizeParams) (string, error) {
			return srv.URL + "/resized?width=" + strconv.Itoa(p.Width) + "&dpr=" + strconv.Itoa(p.Density), nil
		}, nil
	}
	p := New(testConfig(), WithResizer(resizer))

	size, err := p.Probe(context.Background(), "https://example.com/original.png", images.Hint{Width: 1248, Density: 3})
	require.NoError(t, err)
	assert.InDelta(t, 1.5, size.AspectRatio, 1e-9)
	assert.False(t, size.HasDimensions())
	assert.Equal(t, "/resized?width=1248&dpr=3", requested.Load())
}

func TestProbeErrors(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			http.NotFound(w, r)
		case "/text":
			_, _ = w.Write([]byte("just some text, definitely not an image"))
		}
	})
	p := New(testConfig())

	_, err := p.Probe(context.Background(), srv.URL+"/missing", images.Hint{})
	require.ErrorIs(t, err, ErrStatus)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Code)

	_, err = p.Probe(context.Background(), srv.URL+"/text", images.Hint{})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = p.Probe(context.Background(), "file:///etc/passwd", images.Hint{})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Probe(ctx, srv.URL+"/text", images.Hint{})
	assert.Error(t, err)
}

func TestProbeBreakerOpensOnServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	core, logs := observer.New(zapcore.WarnLevel)
	var opened []string
	p := New(testConfig(), WithLogger(zap.New(core)), WithBreakerSettings(resilience.Settings{
		Timeout: time.Minute,
		ReadyToTrip: func(c resilience.Counts) bool {
			return c.ConsecutiveFailures >= 2
		},
		OnStateChange: func(host string, _, to resilience.State) {
			if to == resilience.StateOpen {
				opened = append(opened, host)
			}
		},
	}))

	for i := 0; i < 3; i++ {
		_, _ = p.Probe(context.Background(), srv.URL+"/missing", images.Hint{})
	}
	for _, state := range p.BreakerStates() {
		assert.Equal(t, resilience.StateClosed, state)
	}

	for i := 0; i < 2; i++ {
		_, err := p.Probe(context.Background(), srv.URL+"/down", images.Hint{})
		assert.ErrorIs(t, err, ErrStatus)
	}

	before := hits.Load()
	_, err := p.Probe(context.Background(), srv.URL+"/down", images.Hint{})
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, before, hits.Load())

	require.Len(t, opened, 1)
	entries := logs.FilterMessage("Image host breaker changed state").All()
	require.Len(t, entries, 1)
	assert.Equal(t, opened[0], entries[0].ContextMap()["host"])
	assert.Equal(t, "open", entries[0].ContextMap()["to"])
}

func TestProbeRecordsMetrics(t *testing.T) {
	pngData := pngBytes(t, 2, 2)
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(pngData)
	})

	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	p := New(testConfig(), WithMetrics(metrics))

	_, err := p.Probe(context.Background(), srv.URL+"/ok.png", images.Hint{})
	require.NoError(t, err)
	_, err = p.Probe(context.Background(), srv.URL+"/missing", images.Hint{})
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ProbeRequests.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ProbeRequests.WithLabelValues("error")))
}

func TestProbeSatisfiesResolver(t *testing.T) {
	pngData := pngBytes(t, 64, 32)
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(pngData)
	})

	var prober images.Prober = New(testConfig())
	res, err := images.Resolve(context.Background(), images.Source{URL: srv.URL + "/img.png"}, []images.Breakpoint{{Width: 64}}, images.Options{
		ResizeEnabled: true,
		URLBuilder: func(src string) (images.URLFunc, error) {
			return func(images.ResizeParams) (string, error) { return src, nil }, nil
		},
		Probe: prober,
	})
	require.NoError(t, err)
	assert.True(t, res.Probed)
	assert.Equal(t, 64, res.Width)
	assert.Equal(t, 32, res.Height)
}
