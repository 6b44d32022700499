package document

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/KexinAnswer/gitbook/internal/images"
)

var inlineImageBreakpoints = []images.Breakpoint{{Width: 128}}

// inlines dispatches each node to Text or to the inline renderer.
func (p *pass) inlines(nodes []Node) ([]*html.Node, error) {
	var out []*html.Node
	for _, n := range nodes {
		switch n.Object {
		case ObjectText:
			out = append(out, Text(n)...)
		case ObjectInline:
			rendered, err := p.inline(n)
			if err != nil {
				return nil, err
			}
			out = append(out, rendered...)
		default:
			return nil, unknownNode(n)
		}
	}
	return out, nil
}

func (p *pass) inline(n Node) ([]*html.Node, error) {
	switch n.Type {
	case "link":
		return p.link(n)

	case "inline-image":
		sources, ok, err := p.sources(n.Data)
		if err != nil || !ok {
			return nil, err
		}
		return p.image(ImageProps{
			Sources:     sources,
			Alt:         n.Data.Alt,
			Breakpoints: inlineImageBreakpoints,
			Priority:    images.PriorityLazy,
			Class:       "inline max-h-[1lh] align-middle",
		})

	case "emoji":
		glyph, ok := parseEmoji(n.Data.Code)
		if !ok {
			return p.inlines(n.Nodes)
		}
		span := element(atom.Span, attr("class", "emoji"), attr("data-emoji", n.Data.Code))
		return []*html.Node{wrap(span, []*html.Node{textNode(glyph)})}, nil

	default:
		return p.inlines(n.Nodes)
	}
}

// link renders an anchor, or only its content when the target is missing.
func (p *pass) link(n Node) ([]*html.Node, error) {
	children, err := p.inlines(n.Nodes)
	if err != nil {
		return nil, err
	}
	target, err := p.resolve(n.Data.Ref)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return children, nil
	}

	a := element(atom.A, attr("href", target.Href))
	if n.Data.Ref.Kind == RefURL {
		a.Attr = append(a.Attr, attr("rel", "noopener noreferrer"))
	}
	if len(children) == 0 && target.Text != "" {
		children = []*html.Node{textNode(target.Text)}
	}
	return []*html.Node{wrap(a, children)}, nil
}

// parseEmoji decodes a dash separated list of hex code points.
func parseEmoji(code string) (string, bool) {
	if code == "" {
		return "", false
	}
	var b strings.Builder
	for _, part := range strings.Split(code, "-") {
		cp, err := strconv.ParseUint(part, 16, 32)
		if err != nil || !utf8.ValidRune(rune(cp)) {
			return "", false
		}
		b.WriteRune(rune(cp))
	}
	return b.String(), true
}
