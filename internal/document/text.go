package document

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var markElements = map[string]atom.Atom{
	"bold":          atom.Strong,
	"italic":        atom.Em,
	"strikethrough": atom.S,
	"code":          atom.Code,
}

// Text renders the leaves of a text node. Marks wrap the text in the order
// they are listed, the first being outermost; unknown marks are ignored.
func Text(node Node) []*html.Node {
	out := make([]*html.Node, 0, len(node.Leaves))
	for _, leaf := range node.Leaves {
		if leaf.Text == "" {
			continue
		}
		n := textNode(leaf.Text)
		for i := len(leaf.Marks) - 1; i >= 0; i-- {
			tag, ok := markElements[leaf.Marks[i].Type]
			if !ok {
				continue
			}
			n = wrap(element(tag), []*html.Node{n})
		}
		out = append(out, n)
	}
	return out
}
