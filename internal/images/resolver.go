package images

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const (
	// DefaultQuality is used when Options.Quality is zero.
	DefaultQuality = 100
	// MaxDensity is the highest pixel density generated when
	// Options.MaxDensity is zero.
	MaxDensity = 4
	// ProbeDensity is the density hint passed to the prober.
	ProbeDensity = 3
	// MaxBreakpointWidth bounds breakpoint widths so that width times
	// density always fits in an int.
	MaxBreakpointWidth = 1 << 16
	// DensityLimit bounds Options.MaxDensity.
	DensityLimit = 16
)

// Options configures a single resolution.
type Options struct {
	Quality       int
	ResizeEnabled bool
	MaxDensity    int
	Probe         Prober
	URLBuilder    URLBuilder
	Logger        *zap.Logger
}

// Resolve computes the responsive attributes for src.
//
// With resizing enabled and a URL builder present, every breakpoint yields
// one source set entry per density from 1 to MaxDensity. The density 1 URL
// of the last breakpoint without a media query becomes SourceURL, and its
// width closes the sizes attribute. Unknown sizes are probed once; probe
// failures only cost the size attributes. URL builder errors are returned
// unchanged. Invalid input fails with a *ValidationError before any
// collaborator is called. src and breakpoints are never modified.
func Resolve(ctx context.Context, src Source, breakpoints []Breakpoint, opts Options) (Resolved, error) {
	if err := validate(src, breakpoints, opts); err != nil {
		return Resolved{}, err
	}

	quality := opts.Quality
	if quality == 0 {
		quality = DefaultQuality
	}
	maxDensity := opts.MaxDensity
	if maxDensity == 0 {
		maxDensity = MaxDensity
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	out := Resolved{SourceURL: src.URL}
	resize := opts.ResizeEnabled && opts.URLBuilder != nil

	var defaultWidth int
	if resize && len(breakpoints) > 0 {
		build, err := opts.URLBuilder(src.URL)
		if err != nil {
			return Resolved{}, err
		}

		srcSet := make([]string, 0, len(breakpoints)*maxDensity)
		var sizes []string
		for _, bp := range breakpoints {
			for density := 1; density <= maxDensity; density++ {
				resized, err := build(ResizeParams{Width: bp.Width, Quality: quality, Density: density})
				if err != nil {
					return Resolved{}, err
				}
				if density == 1 && bp.Media == "" {
					out.SourceURL = resized
				}
				srcSet = append(srcSet, resized+" "+strconv.Itoa(bp.Width*density)+"w")
			}

			if bp.Media == "" {
				defaultWidth = bp.Width
			} else {
				sizes = append(sizes, bp.Media+" "+strconv.Itoa(bp.Width)+"px")
			}
		}

		out.SourceSet = strings.Join(srcSet, ", ")
		if defaultWidth > 0 {
			sizes = append(sizes, strconv.Itoa(defaultWidth)+"px")
			out.Sizes = strings.Join(sizes, ", ")
		}
	}

	if src.Size != nil {
		out.applySize(*src.Size)
		return out, nil
	}

	if resize && opts.Probe != nil {
		size, err := opts.Probe.Probe(ctx, src.URL, Hint{Width: defaultWidth, Density: ProbeDensity})
		switch {
		case err != nil:
			logger.Debug("image size probe failed",
				zap.String("url", src.URL),
				zap.Error(err),
			)
		case size == nil:
			logger.Debug("image size unknown", zap.String("url", src.URL))
		default:
			if verr := size.Validate(); verr != nil {
				logger.Debug("image size probe returned an invalid size",
					zap.String("url", src.URL),
					zap.Error(verr),
				)
				break
			}
			out.applySize(*size)
			out.Probed = true
		}
	}

	return out, nil
}

func validate(src Source, breakpoints []Breakpoint, opts Options) error {
	if src.URL == "" {
		return &ValidationError{Field: "source", Reason: "url is empty"}
	}
	if src.Size != nil {
		if err := src.Size.Validate(); err != nil {
			return err
		}
	}
	for i, bp := range breakpoints {
		if bp.Width <= 0 || bp.Width > MaxBreakpointWidth {
			return &ValidationError{
				Field:  "breakpoints[" + strconv.Itoa(i) + "]",
				Reason: fmt.Sprintf("width %d out of range [1,%d]", bp.Width, MaxBreakpointWidth),
			}
		}
	}
	if opts.Quality < 0 || opts.Quality > 100 {
		return &ValidationError{Field: "quality", Reason: fmt.Sprintf("%d out of range [0,100]", opts.Quality)}
	}
	if opts.MaxDensity < 0 || opts.MaxDensity > DensityLimit {
		return &ValidationError{Field: "maxDensity", Reason: fmt.Sprintf("%d out of range [0,%d]", opts.MaxDensity, DensityLimit)}
	}
	return nil
}
