package document

import (
	"context"
	"errors"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/KexinAnswer/gitbook/internal/images"
	"github.com/KexinAnswer/gitbook/internal/infrastructure/tracing"
)

// RenderRecorder counts rendered documents.
type RenderRecorder interface {
	RecordRender(errored bool, nodes int)
}

// Renderer turns documents into HTML.
type Renderer struct {
	images       *images.Resolver
	refs         RefResolver
	tracer       *tracing.Tracer
	sanitizer    *bluemonday.Policy
	metrics      RenderRecorder
	logger       *zap.Logger
	defaultCover images.Source
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithTracer sets the tracer.
func WithTracer(t *tracing.Tracer) Option {
	return func(r *Renderer) { r.tracer = t }
}

// WithSanitizer filters rendered HTML through policy. A nil policy
// disables sanitation.
func WithSanitizer(policy *bluemonday.Policy) Option {
	return func(r *Renderer) { r.sanitizer = policy }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m RenderRecorder) Option {
	return func(r *Renderer) { r.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Renderer) { r.logger = l }
}

// WithDefaultCover replaces the cover used when a page has none.
func WithDefaultCover(src images.Source) Option {
	return func(r *Renderer) { r.defaultCover = src }
}

// NewRenderer creates a renderer. A nil refs resolves nothing.
func NewRenderer(resolver *images.Resolver, refs RefResolver, opts ...Option) *Renderer {
	if resolver == nil {
		resolver = images.NewResolver(images.ResolverConfig{})
	}
	if refs == nil {
		refs = StaticResolver{}
	}
	r := &Renderer{
		images:       resolver,
		refs:         refs,
		defaultCover: DefaultCover(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.tracer == nil {
		r.tracer = tracing.Nop()
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	return r
}

// NewSanitizer returns the user content policy extended with the
// attributes responsive images need.
func NewSanitizer() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Globally()
	p.AllowAttrs("srcset", "sizes", "loading", "fetchpriority").OnElements("img")
	p.AllowStyles("aspect-ratio").OnElements("img")
	p.AllowAttrs("data-block").OnElements("div")
	p.AllowAttrs("data-emoji").OnElements("span")
	return p
}

// Fragment is a rendered piece of a document.
type Fragment struct {
	Nodes    []*html.Node
	Preloads []images.Preload
}

// HTML serializes the fragment.
func (f Fragment) HTML() (string, error) {
	return renderHTML(f.Nodes)
}

// RenderOptions configures Render.
type RenderOptions struct {
	// Cover renders a page cover before the document when set.
	Cover *CoverProps
	// Refs overrides the renderer's reference resolver for this call.
	Refs RefResolver
}

// Result is a rendered document.
type Result struct {
	HTML     string           `json:"html"`
	Preloads []images.Preload `json:"preloads,omitempty"`
}

// Render renders doc inside a "document.render" trace.
func (r *Renderer) Render(ctx context.Context, doc *Document, opts RenderOptions) (Result, error) {
	if doc == nil {
		return Result{}, fmt.Errorf("render: nil document")
	}
	count := doc.Count()

	res, err := tracing.Trace(ctx, r.tracer, "document.render", func(ctx context.Context, span *tracing.Span) (Result, error) {
		span.SetAttribute("nodes", count)
		span.SetAttribute("sanitize", r.sanitizer != nil)

		p := r.newPass(ctx)
		if opts.Refs != nil {
			p.refs = opts.Refs
		}
		var nodes []*html.Node
		if opts.Cover != nil {
			cover, err := p.pageCover(*opts.Cover)
			if err != nil {
				return Result{}, err
			}
			nodes = append(nodes, cover)
		}

		blocks, err := p.children(doc.Nodes)
		if err != nil {
			return Result{}, err
		}
		nodes = append(nodes, blocks...)

		out, err := renderHTML(nodes)
		if err != nil {
			return Result{}, err
		}
		if r.sanitizer != nil {
			out = r.sanitizer.Sanitize(out)
		}

		span.SetAttribute("preloads", len(p.preloads))
		return Result{HTML: out, Preloads: p.preloads}, nil
	})

	if r.metrics != nil {
		r.metrics.RecordRender(err != nil, count)
	}
	return res, err
}

// Inlines renders a list of inline and text nodes.
func (r *Renderer) Inlines(ctx context.Context, nodes []Node) (Fragment, error) {
	p := r.newPass(ctx)
	out, err := p.inlines(nodes)
	if err != nil {
		return Fragment{}, err
	}
	return Fragment{Nodes: out, Preloads: p.preloads}, nil
}

// Image renders a themed responsive image.
func (r *Renderer) Image(ctx context.Context, props ImageProps) (Fragment, error) {
	p := r.newPass(ctx)
	out, err := p.image(props)
	if err != nil {
		return Fragment{}, err
	}
	return Fragment{Nodes: out, Preloads: p.preloads}, nil
}

// PageCover renders a page cover.
func (r *Renderer) PageCover(ctx context.Context, props CoverProps) (Fragment, error) {
	p := r.newPass(ctx)
	out, err := p.pageCover(props)
	if err != nil {
		return Fragment{}, err
	}
	return Fragment{Nodes: []*html.Node{out}, Preloads: p.preloads}, nil
}

// pass holds the state of one rendering.
type pass struct {
	r        *Renderer
	ctx      context.Context
	refs     RefResolver
	preloads []images.Preload
}

func (r *Renderer) newPass(ctx context.Context) *pass {
	return &pass{r: r, ctx: ctx, refs: r.refs}
}

// resolve returns nil without error for references with no target.
func (p *pass) resolve(ref *ContentRef) (*ResolvedRef, error) {
	if ref == nil {
		return nil, nil
	}
	resolved, err := p.refs.ResolveContentRef(p.ctx, *ref)
	if errors.Is(err, ErrUnresolvedRef) {
		p.r.logger.Debug("content reference not resolved", zap.Stringer("ref", ref))
		return nil, nil
	}
	return resolved, err
}
