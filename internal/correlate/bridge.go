package correlate

import (
	"fmt"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// Bridge projects XPath results evaluated on a secondary tree onto the
// primary tree of the same document. Both roots must be document nodes
// parsed from identical source text.
//
// Namespace-qualified expressions receive no special handling; they are
// passed to the XPath engine untouched.
type Bridge struct {
	primaryRoot *html.Node
	secondary   *html.Node
}

// New creates a bridge over the two tree roots.
func New(primaryRoot, secondary *html.Node) *Bridge {
	return &Bridge{
		primaryRoot: primaryRoot,
		secondary:   secondary,
	}
}

// Query evaluates expr against the secondary tree and returns the matched
// nodes projected onto the primary tree, in document order.
//
// contextNode, when non-nil, is a primary-tree node scoping the evaluation;
// it is mapped into the secondary tree through its structural path first.
// A context node with no secondary equivalent yields an empty result.
//
// Each match is projected independently: a match with no positional
// equivalent in the primary tree is dropped without affecting the rest.
// Results are never cached; every call re-evaluates against the secondary
// tree.
func (b *Bridge) Query(expr string, contextNode *html.Node) (*Result, error) {
	ctx := b.secondary
	if contextNode != nil {
		path, ok := PathOf(contextNode)
		if !ok {
			return &Result{}, nil
		}
		mapped := Resolve(b.secondary, path)
		if mapped == nil {
			return &Result{}, nil
		}
		ctx = mapped
	}

	matches, err := htmlquery.QueryAll(ctx, expr)
	if err != nil {
		return nil, fmt.Errorf("xpath query failed: %w", err)
	}

	result := &Result{nodes: make([]*html.Node, 0, len(matches))}
	for _, m := range matches {
		projected := b.project(m)
		if projected != nil {
			result.nodes = append(result.nodes, projected)
		}
	}
	return result, nil
}

// project maps one secondary-tree node to its primary-tree equivalent, or
// nil when the trees diverge along the node's path.
//
// Text matches (text() steps) are addressed through their parent element,
// since only elements carry a structural path.
func (b *Bridge) project(n *html.Node) *html.Node {
	if n.Type == html.TextNode {
		n = n.Parent
	}
	path, ok := PathOf(n)
	if !ok {
		return nil
	}
	return Resolve(b.primaryRoot, path)
}
