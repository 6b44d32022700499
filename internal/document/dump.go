package document

import (
	"strconv"
	"strings"

	"github.com/xlab/treeprint"
)

// Dump returns a tree view of the document for debugging.
func Dump(doc *Document) string {
	tree := treeprint.New()
	root := tree.AddBranch(ObjectDocument)
	for _, n := range doc.Nodes {
		dumpNode(root, n)
	}
	return tree.String()
}

func dumpNode(tree treeprint.Tree, n Node) {
	if n.Object == ObjectText {
		for _, leaf := range n.Leaves {
			tree.AddNode(leafLabel(leaf))
		}
		return
	}

	label := n.Object + ":" + n.Type
	if n.Key != "" {
		label += " [" + n.Key + "]"
	}
	if n.Data.Ref != nil {
		label += " -> " + n.Data.Ref.String()
	}
	if len(n.Nodes) == 0 {
		tree.AddNode(label)
		return
	}

	branch := tree.AddBranch(label)
	for _, child := range n.Nodes {
		dumpNode(branch, child)
	}
}

func leafLabel(leaf Leaf) string {
	label := strconv.Quote(leaf.Text)
	if len(leaf.Marks) == 0 {
		return label
	}
	marks := make([]string, len(leaf.Marks))
	for i, m := range leaf.Marks {
		marks[i] = m.Type
	}
	return label + " (" + strings.Join(marks, ",") + ")"
}
