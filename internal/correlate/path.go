package correlate

import (
	"golang.org/x/net/html"
)

// Step addresses one level of descent: an element tag name and the zero-based
// index of the element among siblings sharing that tag name. Interleaved
// text and comment nodes never contribute to the index.
type Step struct {
	Tag   string
	Index int
}

// Path is the ordered step sequence from the document root down to a node.
// It is the shared address space between two independently parsed trees of
// the same source text: equal paths locate structurally equivalent nodes.
type Path []Step

// PathOf computes the structural path of an element node by walking parent
// links up to the document node. It returns false for nodes that are not
// addressable (detached nodes, non-element nodes).
func PathOf(n *html.Node) (Path, bool) {
	if n == nil || n.Type != html.ElementNode {
		return nil, false
	}

	var reversed Path
	for cur := n; cur != nil && cur.Type != html.DocumentNode; cur = cur.Parent {
		if cur.Type != html.ElementNode {
			return nil, false
		}
		idx := 0
		for sib := cur.PrevSibling; sib != nil; sib = sib.PrevSibling {
			if sib.Type == html.ElementNode && sib.Data == cur.Data {
				idx++
			}
		}
		reversed = append(reversed, Step{Tag: cur.Data, Index: idx})
		if cur.Parent == nil {
			// Never reached the document node: detached subtree.
			return nil, false
		}
	}

	path := make(Path, len(reversed))
	for i, step := range reversed {
		path[len(reversed)-1-i] = step
	}
	return path, true
}

// Resolve re-walks a tree from its document root one step at a time. At each
// level the current node's element children are filtered to the step's tag
// name and the child at the step's recorded index is selected. Returns nil
// when any step has no such child.
func Resolve(root *html.Node, path Path) *html.Node {
	cur := root
	for _, step := range path {
		var next *html.Node
		i := 0
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode || c.Data != step.Tag {
				continue
			}
			if i == step.Index {
				next = c
				break
			}
			i++
		}
		if next == nil {
			return nil
		}
		cur = next
	}
	return cur
}
