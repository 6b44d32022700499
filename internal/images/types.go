package images

import (
	"context"
	"fmt"
	"math"
)

// Size is either explicit pixel dimensions or an aspect ratio, never both.
type Size struct {
	Width       int     `json:"width,omitempty"`
	Height      int     `json:"height,omitempty"`
	AspectRatio float64 `json:"aspectRatio,omitempty"`
}

// Dimensions returns a Size with explicit pixel dimensions.
func Dimensions(width, height int) Size {
	return Size{Width: width, Height: height}
}

// Ratio returns a Size known only by its aspect ratio (width / height).
func Ratio(aspectRatio float64) Size {
	return Size{AspectRatio: aspectRatio}
}

// HasDimensions reports whether s carries explicit pixel dimensions.
func (s Size) HasDimensions() bool {
	return s.Width != 0 || s.Height != 0
}

// Validate checks that exactly one form is set and its values are positive.
func (s Size) Validate() error {
	hasDims := s.HasDimensions()
	hasRatio := s.AspectRatio != 0

	switch {
	case hasDims && hasRatio:
		return &ValidationError{Field: "size", Reason: "both dimensions and aspect ratio set"}
	case hasDims:
		if s.Width <= 0 || s.Height <= 0 {
			return &ValidationError{Field: "size", Reason: fmt.Sprintf("dimensions %dx%d must be positive", s.Width, s.Height)}
		}
	case hasRatio:
		if math.IsNaN(s.AspectRatio) || math.IsInf(s.AspectRatio, 0) || s.AspectRatio < 0 {
			return &ValidationError{Field: "size", Reason: fmt.Sprintf("aspect ratio %g must be positive", s.AspectRatio)}
		}
	default:
		return &ValidationError{Field: "size", Reason: "neither dimensions nor aspect ratio set"}
	}
	return nil
}

func (s Size) String() string {
	if s.HasDimensions() {
		return fmt.Sprintf("%dx%d", s.Width, s.Height)
	}
	return fmt.Sprintf("ratio %g", s.AspectRatio)
}

// Source describes an image. A nil Size means the size is unknown.
type Source struct {
	URL  string `json:"src"`
	Size *Size  `json:"size,omitempty"`
}

// Breakpoint pairs a display width with an optional media query. The
// breakpoint without a media query is the default.
type Breakpoint struct {
	Media string `json:"media,omitempty"`
	Width int    `json:"width"`
}

// Hint tells a prober which rendition of the image is of interest.
// Width 0 means no preferred width.
type Hint struct {
	Width   int
	Density int
}

// ResizeParams selects one resized rendition.
type ResizeParams struct {
	Width   int
	Quality int
	Density int
}

// URLFunc returns the URL of one resized rendition.
type URLFunc func(params ResizeParams) (string, error)

// URLBuilder prepares a URLFunc for a source URL.
type URLBuilder func(src string) (URLFunc, error)

// Prober discovers the natural size of a remote image. A nil size with a
// nil error means the size could not be determined.
type Prober interface {
	Probe(ctx context.Context, url string, hint Hint) (*Size, error)
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context, url string, hint Hint) (*Size, error)

// Probe calls f.
func (f ProberFunc) Probe(ctx context.Context, url string, hint Hint) (*Size, error) {
	return f(ctx, url, hint)
}

// Resolved holds the attributes for one rendered image. Zero values mean
// the attribute is absent. Width/Height and AspectRatio are never both set.
type Resolved struct {
	SourceURL   string  `json:"src"`
	SourceSet   string  `json:"srcSet,omitempty"`
	Sizes       string  `json:"sizes,omitempty"`
	Width       int     `json:"width,omitempty"`
	Height      int     `json:"height,omitempty"`
	AspectRatio float64 `json:"aspectRatio,omitempty"`

	// Size is the size the attributes were derived from, including one
	// discovered by the prober, so callers can persist it.
	Size   *Size `json:"size,omitempty"`
	Probed bool  `json:"probed,omitempty"`
}

// Resized reports whether a source set was generated.
func (r Resolved) Resized() bool {
	return r.SourceSet != ""
}

func (r *Resolved) applySize(s Size) {
	if s.HasDimensions() {
		r.Width, r.Height = s.Width, s.Height
	} else {
		r.AspectRatio = s.AspectRatio
	}
	r.Size = &s
}
