package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/KexinAnswer/gitbook/internal/document"
	"github.com/KexinAnswer/gitbook/internal/infrastructure/tracing"
)

// DefaultPattern selects every JSON document below the root.
const DefaultPattern = "**/*.json"

// Renderer renders one document.
type Renderer interface {
	Render(ctx context.Context, doc *document.Document, opts document.RenderOptions) (document.Result, error)
}

// Config selects the documents to render and where the HTML goes.
type Config struct {
	Root    string
	Pattern string
	// OutDir mirrors the source tree; empty writes next to each source.
	OutDir      string
	Concurrency int
	Refs        document.RefResolver
}

// Result is the outcome for one document.
type Result struct {
	Source string
	Output string
	Err    error
}

// Summary is the outcome of a run, ordered by source path.
type Summary struct {
	Results  []Result
	Rendered int
	Failed   int
}

// Err joins the errors of all failed documents.
func (s Summary) Err() error {
	var errs []error
	for _, r := range s.Results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Source, r.Err))
		}
	}
	return errors.Join(errs...)
}

// Runner renders directories of documents.
type Runner struct {
	renderer Renderer
	tracer   *tracing.Tracer
	logger   *zap.Logger
}

// NewRunner creates a runner. A nil tracer or logger discards output.
func NewRunner(renderer Renderer, tracer *tracing.Tracer, logger *zap.Logger) *Runner {
	if tracer == nil {
		tracer = tracing.Nop()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{renderer: renderer, tracer: tracer, logger: logger}
}

// Run renders every document under cfg.Root matching cfg.Pattern. A
// document that fails is reported in the summary and does not stop the
// others; only walk errors and cancellation fail the run.
func (r *Runner) Run(ctx context.Context, cfg Config) (Summary, error) {
	if cfg.Pattern == "" {
		cfg.Pattern = DefaultPattern
	}
	if !doublestar.ValidatePattern(cfg.Pattern) {
		return Summary{}, fmt.Errorf("invalid pattern %q", cfg.Pattern)
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}

	sources, err := r.find(cfg.Root, cfg.Pattern)
	if err != nil {
		return Summary{}, err
	}
	r.logger.Info("rendering documents",
		zap.String("root", cfg.Root),
		zap.String("pattern", cfg.Pattern),
		zap.Int("documents", len(sources)),
	)

	results := make([]Result, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Concurrency)
	for i, rel := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = r.renderFile(gctx, cfg, rel)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	summary := Summary{Results: results}
	for _, res := range results {
		if res.Err != nil {
			summary.Failed++
			r.logger.Warn("document failed", zap.String("source", res.Source), zap.Error(res.Err))
		} else {
			summary.Rendered++
		}
	}
	return summary, nil
}

// find returns the slash separated paths below root matching pattern.
func (r *Runner) find(root, pattern string) ([]string, error) {
	var (
		mu      sync.Mutex
		sources []string
	)

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if ok, _ := doublestar.Match(pattern, rel); !ok {
			return nil
		}
		mu.Lock()
		sources = append(sources, rel)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	sort.Strings(sources)
	return sources, nil
}

func (r *Runner) renderFile(ctx context.Context, cfg Config, rel string) Result {
	res := Result{Source: rel, Output: outputPath(cfg, rel)}

	res.Err = r.tracer.Run(ctx, "batch.render", func(ctx context.Context, span *tracing.Span) error {
		span.SetAttribute("source", rel)

		data, err := os.ReadFile(filepath.Join(cfg.Root, filepath.FromSlash(rel)))
		if err != nil {
			return err
		}
		doc, err := document.Decode(data)
		if err != nil {
			return err
		}
		span.SetAttribute("nodes", doc.Count())

		out, err := r.renderer.Render(ctx, doc, document.RenderOptions{Refs: cfg.Refs})
		if err != nil {
			return err
		}

		if err := os.MkdirAll(filepath.Dir(res.Output), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(res.Output, []byte(out.HTML), 0o644); err != nil {
			return err
		}
		span.SetAttribute("bytes", len(out.HTML))
		return nil
	})
	return res
}

func outputPath(cfg Config, rel string) string {
	base := cfg.Root
	if cfg.OutDir != "" {
		base = cfg.OutDir
	}
	name := strings.TrimSuffix(rel, filepath.Ext(rel)) + ".html"
	return filepath.Join(base, filepath.FromSlash(name))
}
