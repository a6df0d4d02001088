package sandbox

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dop251/goja"
	"golang.org/x/net/html"

	"github.com/bibharvest/bibharvest/internal/correlate"
	"github.com/bibharvest/bibharvest/internal/document"
	"github.com/bibharvest/bibharvest/internal/textutil"
)

// documentValue builds the JS proxy handed to translator entry points. Each
// proxied document carries its own correlation bridge.
func (r *Runtime) documentValue(doc *document.Document) goja.Value {
	if doc == nil {
		return goja.Null()
	}
	bridge := correlate.New(doc.Root(), doc.Secondary())
	idx := r.addRef(doc.Root(), bridge)

	obj := r.vm.NewObject()
	obj.Set("__ref", idx)
	obj.Set("title", doc.Title())

	href := ""
	if doc.URL() != nil {
		href = doc.URL().String()
	}
	location := r.vm.NewObject()
	location.Set("href", href)
	obj.Set("location", location)

	obj.Set("querySelector", r.makeQuerySelector(idx, true))
	obj.Set("querySelectorAll", r.makeQuerySelector(idx, false))
	return obj
}

// elementValue builds the JS proxy for one primary-tree element.
func (r *Runtime) elementValue(n *html.Node, bridge *correlate.Bridge) goja.Value {
	if n == nil {
		return goja.Null()
	}
	idx := r.addRef(n, bridge)

	obj := r.vm.NewObject()
	obj.Set("__ref", idx)
	obj.Set("tagName", strings.ToUpper(n.Data))
	obj.Set("textContent", nodeText(n))
	obj.Set("innerText", textutil.TrimInternal(nodeText(n)))
	obj.Set("innerHTML", innerHTML(n))
	obj.Set("getAttribute", func(call goja.FunctionCall) goja.Value {
		name := call.Argument(0).String()
		for _, a := range n.Attr {
			if a.Key == name {
				return r.vm.ToValue(a.Val)
			}
		}
		return goja.Null()
	})
	obj.Set("hasAttribute", func(call goja.FunctionCall) goja.Value {
		name := call.Argument(0).String()
		for _, a := range n.Attr {
			if a.Key == name {
				return r.vm.ToValue(true)
			}
		}
		return r.vm.ToValue(false)
	})
	obj.Set("querySelector", r.makeQuerySelector(idx, true))
	obj.Set("querySelectorAll", r.makeQuerySelector(idx, false))
	return obj
}

// makeQuerySelector builds a CSS query function scoped to the handle's node.
func (r *Runtime) makeQuerySelector(refIdx int, single bool) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		if refIdx < 0 || refIdx >= len(r.refs) {
			return goja.Null()
		}
		ref := r.refs[refIdx]
		selector := call.Argument(0).String()

		sel := goquery.NewDocumentFromNode(ref.node).Find(selector)
		if single {
			if sel.Length() == 0 {
				return goja.Null()
			}
			return r.elementValue(sel.Get(0), ref.bridge)
		}

		values := make([]interface{}, 0, sel.Length())
		for _, node := range sel.Nodes {
			values = append(values, r.elementValue(node, ref.bridge))
		}
		return r.vm.NewArray(values...)
	}
}

// attrAccessor resolves a CSS selector against a proxied node and returns
// the named attribute of the index-th match, or null when absent.
func (r *Runtime) attrAccessor(call goja.FunctionCall) goja.Value {
	ref := r.refFromValue(call.Argument(0))
	if ref == nil {
		return goja.Null()
	}
	selector := call.Argument(1).String()
	name := call.Argument(2).String()
	index := 0
	if len(call.Arguments) > 3 {
		index = int(call.Argument(3).ToInteger())
	}

	sel := goquery.NewDocumentFromNode(ref.node).Find(selector).Eq(index)
	if sel.Length() == 0 {
		return goja.Null()
	}
	if v, ok := sel.Attr(name); ok {
		return r.vm.ToValue(v)
	}
	return goja.Null()
}

// textAccessor resolves a CSS selector against a proxied node and returns
// the index-th match's normalized text, or null when nothing matched.
func (r *Runtime) textAccessor(call goja.FunctionCall) goja.Value {
	ref := r.refFromValue(call.Argument(0))
	if ref == nil {
		return goja.Null()
	}
	selector := call.Argument(1).String()
	index := 0
	if len(call.Arguments) > 2 {
		index = int(call.Argument(2).ToInteger())
	}

	sel := goquery.NewDocumentFromNode(ref.node).Find(selector).Eq(index)
	if sel.Length() == 0 {
		return goja.Null()
	}
	return r.vm.ToValue(textutil.TrimInternal(sel.Text()))
}

// nodeText concatenates the text nodes under n.
func nodeText(n *html.Node) string {
	var buf bytes.Buffer
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(buf.String())
}

// innerHTML renders the children of n.
func innerHTML(n *html.Node) string {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return ""
		}
	}
	return buf.String()
}
