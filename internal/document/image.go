package document

import (
	"strconv"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/KexinAnswer/gitbook/internal/images"
)

// ImageProps configures an image.
type ImageProps struct {
	Sources     images.Sources
	Alt         string
	Breakpoints []images.Breakpoint
	Quality     int
	NoResize    bool
	Priority    images.Priority
	Preload     bool
	Class       string
}

// image renders the light variant and, when present, the dark variant.
// The light image is hidden under the dark theme and the dark image is
// shown only there.
func (p *pass) image(props ImageProps) ([]*html.Node, error) {
	pic, err := p.r.images.Picture(p.ctx, props.Sources, images.PictureOptions{
		Breakpoints: props.Breakpoints,
		Quality:     props.Quality,
		NoResize:    props.NoResize,
		Priority:    props.Priority,
		Preload:     props.Preload,
	})
	if err != nil {
		return nil, err
	}
	p.preloads = append(p.preloads, pic.Preloads...)

	out := []*html.Node{
		imgNode(pic.Light, props.Alt, Classes(props.Class, when(pic.Dark != nil, "dark:hidden"))),
	}
	if pic.Dark != nil {
		out = append(out, imgNode(*pic.Dark, props.Alt, Classes(props.Class, "hidden", "dark:block")))
	}
	return out, nil
}

func imgNode(v images.Variant, alt, class string) *html.Node {
	img := element(atom.Img, attr("src", v.SourceURL))
	if v.SourceSet != "" {
		img.Attr = append(img.Attr, attr("srcset", v.SourceSet))
	}
	if v.Sizes != "" {
		img.Attr = append(img.Attr, attr("sizes", v.Sizes))
	}
	img.Attr = append(img.Attr, attr("alt", alt))

	switch {
	case v.Width > 0 && v.Height > 0:
		img.Attr = append(img.Attr,
			attr("width", strconv.Itoa(v.Width)),
			attr("height", strconv.Itoa(v.Height)),
		)
	case v.AspectRatio > 0:
		img.Attr = append(img.Attr, attr("style", "aspect-ratio: "+strconv.FormatFloat(v.AspectRatio, 'g', -1, 64)))
	}

	if loading := v.Loading(); loading != "" {
		img.Attr = append(img.Attr, attr("loading", loading))
	}
	if fetch := v.FetchPriority(); fetch != "" {
		img.Attr = append(img.Attr, attr("fetchpriority", fetch))
	}
	if class != "" {
		img.Attr = append(img.Attr, attr("class", class))
	}
	return img
}
