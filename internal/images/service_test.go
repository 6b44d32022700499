package images

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/KexinAnswer/gitbook/internal/infrastructure/tracing"
)

type traceRecords struct {
	mu      sync.Mutex
	records []tracing.Record
}

func (r *traceRecords) Emit(rec tracing.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
}

func (r *traceRecords) all() []tracing.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]tracing.Record(nil), r.records...)
}

type outcomeCounter struct {
	mu       sync.Mutex
	outcomes []string
}

func (c *outcomeCounter) RecordResolution(outcome string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes = append(c.outcomes, outcome)
}

func newTestResolver(flag *Flag, prober Prober) (*Resolver, *traceRecords, *outcomeCounter) {
	records := &traceRecords{}
	counter := &outcomeCounter{}
	r := NewResolver(ResolverConfig{Quality: 90},
		WithURLBuilder((&countingBuilder{}).Build),
		WithProber(prober),
		WithFlag(flag),
		WithTracer(tracing.New("test", zap.NewNop(), records)),
		WithMetrics(counter),
		WithLogger(zap.NewNop()),
	)
	return r, records, counter
}

func TestResolverTracesResolution(t *testing.T) {
	prober := ProberFunc(func(context.Context, string, Hint) (*Size, error) {
		s := Dimensions(800, 600)
		return &s, nil
	})
	r, records, counter := newTestResolver(NewFlag(true), prober)

	res, err := r.Resolve(context.Background(), Source{URL: testURL}, []Breakpoint{{Width: 640}})
	require.NoError(t, err)

	assert.Equal(t, resizedURL(testURL, ResizeParams{Width: 640, Quality: 90, Density: 1}), res.SourceURL)
	assert.True(t, res.Probed)

	recs := records.all()
	require.Len(t, recs, 1)
	assert.Equal(t, "images.resolve", recs[0].Name)
	assert.False(t, recs[0].Errored)
	assert.Equal(t, testURL, recs[0].Attributes["url"])
	assert.Equal(t, int64(1), recs[0].Attributes["breakpoints"])
	assert.Equal(t, true, recs[0].Attributes["resized"])
	assert.Equal(t, true, recs[0].Attributes["probed"])

	assert.Equal(t, []string{OutcomeResized}, counter.outcomes)
}

func TestResolverHonoursFlag(t *testing.T) {
	flag := NewFlag(false)
	r, _, counter := newTestResolver(flag, nil)

	res, err := r.Resolve(context.Background(), Source{URL: testURL}, []Breakpoint{{Width: 640}})
	require.NoError(t, err)
	assert.Equal(t, testURL, res.SourceURL)
	assert.False(t, res.Resized())

	flag.Set(true)
	res, err = r.Resolve(context.Background(), Source{URL: testURL}, []Breakpoint{{Width: 640}})
	require.NoError(t, err)
	assert.True(t, res.Resized())

	assert.Equal(t, []string{OutcomePassthrough, OutcomeResized}, counter.outcomes)
}

func TestResolverCallOptions(t *testing.T) {
	r, _, _ := newTestResolver(nil, nil)

	res, err := r.Resolve(context.Background(), Source{URL: testURL}, []Breakpoint{{Width: 640}}, WithResize(false))
	require.NoError(t, err)
	assert.False(t, res.Resized())

	res, err = r.Resolve(context.Background(), Source{URL: testURL}, []Breakpoint{{Width: 640}},
		WithQuality(50), WithMaxDensity(1))
	require.NoError(t, err)
	assert.Equal(t, resizedURL(testURL, ResizeParams{Width: 640, Quality: 50, Density: 1})+" 640w", res.SourceSet)
}

func TestResolverTracesFailures(t *testing.T) {
	r, records, counter := newTestResolver(NewFlag(true), nil)

	_, err := r.Resolve(context.Background(), Source{URL: testURL}, []Breakpoint{{Width: -1}})
	require.ErrorIs(t, err, ErrValidation)

	recs := records.all()
	require.Len(t, recs, 1)
	assert.True(t, recs[0].Errored)
	assert.Equal(t, true, recs[0].Attributes[tracing.ErrorAttribute])
	assert.Equal(t, []string{OutcomeError}, counter.outcomes)
}

func TestResolverBuilderErrorUnchanged(t *testing.T) {
	boom := errors.New("unsigned")
	r := NewResolver(ResolverConfig{}, WithURLBuilder(func(string) (URLFunc, error) { return nil, boom }))

	_, err := r.Resolve(context.Background(), Source{URL: testURL}, []Breakpoint{{Width: 640}})
	assert.True(t, err == boom)
}

func TestNilFlagIsEnabled(t *testing.T) {
	var f *Flag
	assert.True(t, f.Enabled())
	assert.False(t, NewFlag(false).Enabled())
}
