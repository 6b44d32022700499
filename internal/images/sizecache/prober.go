package sizecache

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/KexinAnswer/gitbook/internal/images"
)

// SharedProbeTimeout bounds a probe shared by concurrent callers. It runs
// detached from any one caller's cancellation.
const SharedProbeTimeout = 30 * time.Second

// LookupRecorder counts cache hits and misses.
type LookupRecorder interface {
	RecordCacheLookup(backend string, hit bool)
}

// Prober caches the sizes found by another prober and collapses
// concurrent probes of the same image into one.
type Prober struct {
	inner   images.Prober
	cache   Cache
	group   singleflight.Group
	metrics LookupRecorder
	logger  *zap.Logger
}

// NewProber wraps inner. A nil cache only deduplicates.
func NewProber(inner images.Prober, cache Cache, metrics LookupRecorder, logger *zap.Logger) *Prober {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Prober{inner: inner, cache: cache, metrics: metrics, logger: logger}
}

// Probe implements images.Prober. Cache failures fall through to the
// wrapped prober.
func (p *Prober) Probe(ctx context.Context, url string, hint images.Hint) (*images.Size, error) {
	key := cacheKey(url, hint)

	if p.cache != nil {
		size, ok, err := p.cache.Get(ctx, key)
		if err != nil {
			p.logger.Warn("image size cache read failed", zap.String("url", url), zap.Error(err))
		}
		p.recordLookup(ok)
		if ok {
			return size, nil
		}
	}

	ch := p.group.DoChan(key, func() (interface{}, error) {
		probeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), SharedProbeTimeout)
		defer cancel()

		size, err := p.inner.Probe(probeCtx, url, hint)
		if err != nil || size == nil {
			return size, err
		}
		if p.cache != nil {
			if err := p.cache.Set(probeCtx, key, *size); err != nil {
				p.logger.Warn("image size cache write failed", zap.String("url", url), zap.Error(err))
			}
		}
		return size, nil
	})

	var v interface{}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		v = res.Val
	}

	size, _ := v.(*images.Size)
	if size == nil {
		return nil, nil
	}
	out := *size
	return &out, nil
}

func (p *Prober) recordLookup(hit bool) {
	if p.metrics != nil {
		p.metrics.RecordCacheLookup(p.cache.Name(), hit)
	}
}

// cacheKey separates original and resized-rendition probes, which report
// different size forms.
func cacheKey(url string, hint images.Hint) string {
	if hint.Width > 0 {
		return url + "#w=" + strconv.Itoa(hint.Width)
	}
	return url
}
