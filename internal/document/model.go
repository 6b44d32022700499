package document

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
)

// Node object kinds.
const (
	ObjectDocument = "document"
	ObjectBlock    = "block"
	ObjectInline   = "inline"
	ObjectText     = "text"
)

var (
	// ErrUnknownNode is returned for nodes whose object kind is not known.
	ErrUnknownNode = errors.New("unknown document node")
	// ErrUnresolvedRef is returned when a content reference has no target.
	ErrUnresolvedRef = errors.New("unresolved content reference")
)

// Document is a JSON document tree.
type Document struct {
	Object string `json:"object,omitempty"`
	Nodes  []Node `json:"nodes"`
}

// Node is a block, an inline or a text node.
type Node struct {
	Object string   `json:"object"`
	Type   string   `json:"type,omitempty"`
	Key    string   `json:"key,omitempty"`
	Data   NodeData `json:"data,omitempty"`
	Nodes  []Node   `json:"nodes,omitempty"`
	Leaves []Leaf   `json:"leaves,omitempty"`
}

// NodeData carries the type specific attributes of a node.
type NodeData struct {
	Ref     *ContentRef `json:"ref,omitempty"`
	RefDark *ContentRef `json:"refDark,omitempty"`
	Alt     string      `json:"alt,omitempty"`
	Code    string      `json:"code,omitempty"`
	ID      string      `json:"id,omitempty"`
}

// Leaf is a run of text sharing the same marks.
type Leaf struct {
	Text  string `json:"text"`
	Marks []Mark `json:"marks,omitempty"`
}

// Mark is a text decoration.
type Mark struct {
	Type string `json:"type"`
}

// Reference kinds.
const (
	RefURL    = "url"
	RefFile   = "file"
	RefPage   = "page"
	RefAnchor = "anchor"
)

// ContentRef points at a URL, an uploaded file, a page or an anchor.
type ContentRef struct {
	Kind   string `json:"kind"`
	URL    string `json:"url,omitempty"`
	File   string `json:"file,omitempty"`
	Page   string `json:"page,omitempty"`
	Anchor string `json:"anchor,omitempty"`
}

func (r ContentRef) String() string {
	switch r.Kind {
	case RefURL:
		return "url:" + r.URL
	case RefFile:
		return "file:" + r.File
	case RefPage:
		if r.Anchor != "" {
			return "page:" + r.Page + "#" + r.Anchor
		}
		return "page:" + r.Page
	case RefAnchor:
		return "anchor:" + r.Anchor
	default:
		return r.Kind
	}
}

// Text returns the concatenated text of the node and its descendants.
func (n Node) Text() string {
	var out []byte
	for _, leaf := range n.Leaves {
		out = append(out, leaf.Text...)
	}
	for _, child := range n.Nodes {
		out = append(out, child.Text()...)
	}
	return string(out)
}

// Decode parses a JSON document.
func Decode(data []byte) (*Document, error) {
	var doc Document
	if err := sonic.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if doc.Object != "" && doc.Object != ObjectDocument {
		return nil, fmt.Errorf("decode document: root object %q: %w", doc.Object, ErrUnknownNode)
	}
	return &doc, nil
}

// Count returns the number of nodes in the document, leaves excluded.
func (d *Document) Count() int {
	return countNodes(d.Nodes)
}

func countNodes(nodes []Node) int {
	n := len(nodes)
	for _, node := range nodes {
		n += countNodes(node.Nodes)
	}
	return n
}
