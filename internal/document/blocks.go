package document

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/KexinAnswer/gitbook/internal/images"
)

var headingElements = map[string]atom.Atom{
	"heading-1": atom.H1,
	"heading-2": atom.H2,
	"heading-3": atom.H3,
}

var containerElements = map[string]atom.Atom{
	"paragraph":      atom.P,
	"blockquote":     atom.Blockquote,
	"list-unordered": atom.Ul,
	"list-ordered":   atom.Ol,
	"list-item":      atom.Li,
}

// Breakpoints of images embedded in the document body.
var blockImageBreakpoints = []images.Breakpoint{
	{Media: "(max-width: 640px)", Width: 640},
	{Width: 768},
}

// children renders a mixed list of blocks, inlines and texts.
func (p *pass) children(nodes []Node) ([]*html.Node, error) {
	var out []*html.Node
	for _, n := range nodes {
		var rendered []*html.Node
		var err error
		switch n.Object {
		case ObjectBlock:
			rendered, err = p.block(n)
		case ObjectInline, ObjectText:
			rendered, err = p.inlines([]Node{n})
		default:
			err = unknownNode(n)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rendered...)
	}
	return out, nil
}

func (p *pass) block(n Node) ([]*html.Node, error) {
	if tag, ok := headingElements[n.Type]; ok {
		el := element(tag)
		if id := n.Data.ID; id != "" {
			el.Attr = append(el.Attr, attr("id", id))
		}
		return p.container(el, n)
	}
	if tag, ok := containerElements[n.Type]; ok {
		return p.container(element(tag), n)
	}

	switch n.Type {
	case "divider":
		return []*html.Node{element(atom.Hr)}, nil

	case "code":
		lines := make([]string, 0, len(n.Nodes))
		for _, line := range n.Nodes {
			lines = append(lines, line.Text())
		}
		code := wrap(element(atom.Code), []*html.Node{textNode(strings.Join(lines, "\n"))})
		return []*html.Node{wrap(element(atom.Pre), []*html.Node{code})}, nil

	case "image":
		return p.imageBlock(n)

	default:
		return p.container(element(atom.Div, attr("data-block", n.Type)), n)
	}
}

func (p *pass) container(el *html.Node, n Node) ([]*html.Node, error) {
	children, err := p.children(n.Nodes)
	if err != nil {
		return nil, err
	}
	return []*html.Node{wrap(el, children)}, nil
}

// imageBlock renders a figure. Blocks whose image cannot be resolved are
// dropped.
func (p *pass) imageBlock(n Node) ([]*html.Node, error) {
	sources, ok, err := p.sources(n.Data)
	if err != nil || !ok {
		return nil, err
	}

	caption, err := p.inlines(n.Nodes)
	if err != nil {
		return nil, err
	}
	alt := n.Data.Alt
	if alt == "" {
		alt = n.Text()
	}

	imgs, err := p.image(ImageProps{
		Sources:     sources,
		Alt:         alt,
		Breakpoints: blockImageBreakpoints,
		Priority:    images.PriorityLazy,
		Class:       "max-w-full",
	})
	if err != nil {
		return nil, err
	}

	figure := wrap(element(atom.Figure), imgs)
	if len(caption) > 0 {
		figure.AppendChild(wrap(element(atom.Figcaption), caption))
	}
	return []*html.Node{figure}, nil
}

// sources resolves the light and dark references of an image node.
func (p *pass) sources(data NodeData) (images.Sources, bool, error) {
	light, err := p.resolve(data.Ref)
	if err != nil || light == nil {
		return images.Sources{}, false, err
	}
	sources := images.Sources{Light: images.Source{URL: light.Href, Size: light.FileDimensions}}

	dark, err := p.resolve(data.RefDark)
	if err != nil {
		return images.Sources{}, false, err
	}
	if dark != nil {
		sources.Dark = &images.Source{URL: dark.Href, Size: dark.FileDimensions}
	}
	return sources, true, nil
}

func unknownNode(n Node) error {
	return fmt.Errorf("node %q with object %q: %w", n.Key, n.Object, ErrUnknownNode)
}
