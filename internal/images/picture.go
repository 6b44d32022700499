package images

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Priority controls how eagerly a browser loads an image.
type Priority string

const (
	// PriorityLazy loads the image only once it nears the viewport.
	PriorityLazy Priority = "lazy"
	// PriorityNormal leaves loading to the browser.
	PriorityNormal Priority = "normal"
	// PriorityHigh fetches early and preloads.
	PriorityHigh Priority = "high"
)

// ParsePriority parses a priority; "" is PriorityNormal.
func ParsePriority(s string) (Priority, error) {
	switch Priority(s) {
	case "", PriorityNormal:
		return PriorityNormal, nil
	case PriorityLazy, PriorityHigh:
		return Priority(s), nil
	default:
		return "", &ValidationError{Field: "priority", Reason: fmt.Sprintf("unknown priority %q", s)}
	}
}

// Sources holds the light and optional dark theme variants of an image.
type Sources struct {
	Light Source  `json:"light"`
	Dark  *Source `json:"dark,omitempty"`
}

// PictureOptions configures Picture.
type PictureOptions struct {
	Breakpoints []Breakpoint
	Quality     int
	NoResize    bool
	Priority    Priority
	// Preload forces a preload hint whatever the priority.
	Preload bool
}

// Variant is one resolved theme variant.
type Variant struct {
	Resolved
	Priority Priority `json:"priority"`
}

// Loading returns the loading attribute value, or "".
func (v Variant) Loading() string {
	if v.Priority == PriorityLazy {
		return "lazy"
	}
	return ""
}

// FetchPriority returns the fetchpriority attribute value, or "".
func (v Variant) FetchPriority() string {
	switch v.Priority {
	case PriorityLazy:
		return "low"
	case PriorityHigh:
		return "high"
	default:
		return ""
	}
}

// Preload is a resource hint for an image.
type Preload struct {
	Href          string `json:"href"`
	SrcSet        string `json:"imageSrcSet,omitempty"`
	Sizes         string `json:"imageSizes,omitempty"`
	FetchPriority string `json:"fetchPriority"`
}

// Picture is a themed image ready to render.
type Picture struct {
	Light    Variant   `json:"light"`
	Dark     *Variant  `json:"dark,omitempty"`
	Preloads []Preload `json:"preloads,omitempty"`
}

// Picture resolves the light and dark variants concurrently. The dark
// variant is always lazy since it is hidden under the default theme.
func (r *Resolver) Picture(ctx context.Context, sources Sources, opts PictureOptions) (Picture, error) {
	priority, err := ParsePriority(string(opts.Priority))
	if err != nil {
		return Picture{}, err
	}

	callOpts := []CallOption{WithResize(!opts.NoResize)}
	if opts.Quality != 0 {
		callOpts = append(callOpts, WithQuality(opts.Quality))
	}

	var light, dark Resolved
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := r.Resolve(gctx, sources.Light, opts.Breakpoints, callOpts...)
		light = res
		return err
	})
	if sources.Dark != nil {
		g.Go(func() error {
			res, err := r.Resolve(gctx, *sources.Dark, opts.Breakpoints, callOpts...)
			dark = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return Picture{}, err
	}

	pic := Picture{Light: Variant{Resolved: light, Priority: priority}}
	if sources.Dark != nil {
		pic.Dark = &Variant{Resolved: dark, Priority: PriorityLazy}
	}

	if priority == PriorityHigh || opts.Preload {
		fetch := "low"
		if priority == PriorityHigh {
			fetch = "high"
		}
		pic.Preloads = append(pic.Preloads, Preload{
			Href:          light.SourceURL,
			SrcSet:        light.SourceSet,
			Sizes:         light.Sizes,
			FetchPriority: fetch,
		})
	}

	return pic, nil
}
