package correlate

import (
	"golang.org/x/net/html"
)

// Result is an ordered set of projected primary-tree nodes. It supports
// single-step iteration, first-match access and indexed access. Iteration
// state restarts with Reset; re-querying the bridge produces a fresh set.
type Result struct {
	nodes []*html.Node
	pos   int
}

// Len returns the number of projected nodes.
func (r *Result) Len() int {
	return len(r.nodes)
}

// Next advances the iterator and returns the next node, or nil when the set
// is exhausted.
func (r *Result) Next() *html.Node {
	if r.pos >= len(r.nodes) {
		return nil
	}
	n := r.nodes[r.pos]
	r.pos++
	return n
}

// First returns the first node without advancing, or nil for an empty set.
func (r *Result) First() *html.Node {
	if len(r.nodes) == 0 {
		return nil
	}
	return r.nodes[0]
}

// At returns the node at index i, or nil when out of range.
func (r *Result) At(i int) *html.Node {
	if i < 0 || i >= len(r.nodes) {
		return nil
	}
	return r.nodes[i]
}

// Nodes returns a snapshot copy of the full set in document order.
func (r *Result) Nodes() []*html.Node {
	return append([]*html.Node{}, r.nodes...)
}

// Reset restarts iteration from the first node.
func (r *Result) Reset() {
	r.pos = 0
}
