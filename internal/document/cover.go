package document

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/KexinAnswer/gitbook/internal/images"
)

// CoverStyle selects how a page cover is laid out.
type CoverStyle string

const (
	// CoverHero is a rounded cover centered above the content.
	CoverHero CoverStyle = "hero"
	// CoverFull spans the full container width.
	CoverFull CoverStyle = "full"
)

// CoverProps configures a page cover.
type CoverProps struct {
	As CoverStyle `json:"as"`
	// Ref points at the cover image. Nil, or a reference that does not
	// resolve, shows the default cover.
	Ref *ContentRef `json:"ref,omitempty"`
}

const coverHeight = "h-[240px]"

var coverBreakpoints = []images.Breakpoint{
	{Media: "(max-width: 768px)", Width: 768},
	{Media: "(max-width: 1024px)", Width: 1024},
	{Width: 1248},
}

// DefaultCover is the vector cover shown on pages without one.
func DefaultCover() images.Source {
	size := images.Dimensions(1990, 480)
	return images.Source{URL: "/static/default-page-cover.svg", Size: &size}
}

// pageCover renders the cover wrapper and image. The default cover is a
// vector image and is never resized.
func (p *pass) pageCover(props CoverProps) (*html.Node, error) {
	resolved, err := p.resolve(props.Ref)
	if err != nil {
		return nil, err
	}

	source := p.r.defaultCover
	if resolved != nil {
		source = images.Source{URL: resolved.Href, Size: resolved.FileDimensions}
	}

	imgs, err := p.image(ImageProps{
		Sources:     images.Sources{Light: source},
		Alt:         "Page cover image",
		Breakpoints: coverBreakpoints,
		NoResize:    resolved == nil,
		Class:       Classes("w-full", "h-full", "object-cover", "object-center"),
	})
	if err != nil {
		return nil, err
	}

	class := Classes(
		coverHeight,
		"overflow-hidden",
		when(props.As == CoverFull, "-mx-4", "sm:-mx-6", "md:-mx-8"),
		when(props.As != CoverFull, "max-w-3xl", "mx-auto", "rounded-md", "mb-8"),
	)
	return wrap(element(atom.Div, attr("class", class)), imgs), nil
}
