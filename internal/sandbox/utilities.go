package sandbox

import (
	"strings"

	"github.com/dop251/goja"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/bibharvest/bibharvest/internal/document"
	"github.com/bibharvest/bibharvest/internal/record"
	"github.com/bibharvest/bibharvest/internal/textutil"
)

// setupUtils installs the utility namespace: text normalization, name
// parsing, date and identifier cleaning, schema lookups, path queries and
// the networked fetch helpers. Everything the translator can reach is
// enumerated here.
func (r *Runtime) setupUtils() error {
	u := r.vm.NewObject()

	// Pure text helpers.
	u.Set("trimInternal", textutil.TrimInternal)
	u.Set("capitalizeTitle", textutil.CapitalizeTitle)
	u.Set("unescapeHTML", textutil.UnescapeHTML)
	u.Set("cleanDOI", textutil.CleanDOI)
	u.Set("cleanISBN", textutil.CleanISBN)
	u.Set("cleanISSN", textutil.CleanISSN)
	u.Set("strToISO", textutil.DateToISO)
	u.Set("cleanAuthor", r.cleanAuthor)

	// Schema lookups.
	u.Set("fieldIsValidForType", record.FieldValidForType)
	u.Set("getCreatorsForType", record.CreatorTypesForItemType)
	u.Set("itemTypeExists", record.ValidItemType)

	// Path queries through the correlation bridge.
	u.Set("xpath", r.xpathEval)
	u.Set("xpathText", r.xpathText)

	// Networked helpers.
	u.Set("request", r.request)
	u.Set("requestText", r.requestText)
	u.Set("requestJSON", r.requestJSON)
	u.Set("requestDocument", r.requestDocument)
	u.Set("processDocuments", r.processDocuments)

	r.vm.Set("utils", u)
	return nil
}

// cleanAuthor parses a raw name into a creator object. Third argument
// selects "Last, First" comma order.
func (r *Runtime) cleanAuthor(call goja.FunctionCall) goja.Value {
	raw := call.Argument(0).String()
	creatorType := "author"
	if len(call.Arguments) > 1 && !goja.IsUndefined(call.Arguments[1]) {
		creatorType = call.Argument(1).String()
	}
	useComma := false
	if len(call.Arguments) > 2 {
		useComma = call.Argument(2).ToBoolean()
	}

	name := textutil.ParseName(raw, useComma)
	obj := r.vm.NewObject()
	obj.Set("firstName", name.FirstName)
	obj.Set("lastName", name.LastName)
	obj.Set("creatorType", creatorType)
	if name.SingleField {
		obj.Set("fieldMode", 1)
	}
	return obj
}

// xpathEval evaluates a path query scoped to a proxied node and returns the
// projected matches as element proxies. A bad expression throws into the
// translator, where it degrades to a per-candidate fault.
func (r *Runtime) xpathEval(call goja.FunctionCall) goja.Value {
	ref := r.refFromValue(call.Argument(0))
	if ref == nil {
		return r.vm.NewArray()
	}
	expr := call.Argument(1).String()

	ctxNode := ref.node
	if ctxNode != nil && ctxNode.Type == html.DocumentNode {
		ctxNode = nil
	}

	result, err := ref.bridge.Query(expr, ctxNode)
	if err != nil {
		r.throw("xpath: %v", err)
	}

	values := make([]interface{}, 0, result.Len())
	for n := result.Next(); n != nil; n = result.Next() {
		values = append(values, r.elementValue(n, ref.bridge))
	}
	return r.vm.NewArray(values...)
}

// xpathText evaluates a path query and returns the joined normalized text of
// all matches, or null when nothing matched. Optional third argument is the
// join delimiter (default ", ").
func (r *Runtime) xpathText(call goja.FunctionCall) goja.Value {
	ref := r.refFromValue(call.Argument(0))
	if ref == nil {
		return goja.Null()
	}
	expr := call.Argument(1).String()
	delim := ", "
	if len(call.Arguments) > 2 && !goja.IsUndefined(call.Arguments[2]) {
		delim = call.Argument(2).String()
	}

	ctxNode := ref.node
	if ctxNode != nil && ctxNode.Type == html.DocumentNode {
		ctxNode = nil
	}

	result, err := ref.bridge.Query(expr, ctxNode)
	if err != nil {
		r.throw("xpath: %v", err)
	}
	if result.Len() == 0 {
		return goja.Null()
	}

	parts := make([]string, 0, result.Len())
	for n := result.Next(); n != nil; n = result.Next() {
		parts = append(parts, textutil.TrimInternal(nodeText(n)))
	}
	return r.vm.ToValue(strings.Join(parts, delim))
}

// request fetches a URL (resolved against the page URL) and returns the raw
// response as {status, headers, body}. Unlike the typed helpers, an error
// status is not thrown; translators branch on the status code.
func (r *Runtime) request(call goja.FunctionCall) goja.Value {
	resolved := r.resolveOrThrow(call.Argument(0).String())

	resp, err := r.fetcher.Do(r.ctx, resolved)
	if err != nil {
		r.throw("request failed: %v", err)
	}

	headers := r.vm.NewObject()
	for name := range resp.Header() {
		headers.Set(name, resp.Header().Get(name))
	}

	obj := r.vm.NewObject()
	obj.Set("status", resp.StatusCode())
	obj.Set("headers", headers)
	obj.Set("body", resp.String())
	return obj
}

// requestText fetches a URL (resolved against the page URL) and returns the
// body text. An optional callback receives the text before it is returned.
func (r *Runtime) requestText(call goja.FunctionCall) goja.Value {
	resolved := r.resolveOrThrow(call.Argument(0).String())

	text, err := r.fetcher.Text(r.ctx, resolved)
	if err != nil {
		r.throw("request failed: %v", err)
	}

	if cb, ok := goja.AssertFunction(call.Argument(1)); ok {
		if _, err := cb(goja.Undefined(), r.vm.ToValue(text)); err != nil {
			r.rethrow(err)
		}
	}
	return r.vm.ToValue(text)
}

// requestJSON fetches a URL and returns the decoded JSON value.
func (r *Runtime) requestJSON(call goja.FunctionCall) goja.Value {
	resolved := r.resolveOrThrow(call.Argument(0).String())

	value, err := r.fetcher.JSON(r.ctx, resolved)
	if err != nil {
		r.throw("request failed: %v", err)
	}
	return r.vm.ToValue(value)
}

// requestDocument fetches a URL and returns a parsed document proxy with
// its own correlation bridge.
func (r *Runtime) requestDocument(call goja.FunctionCall) goja.Value {
	resolved := r.resolveOrThrow(call.Argument(0).String())

	doc, err := r.fetcher.Document(r.ctx, resolved)
	if err != nil {
		r.throw("request failed: %v", err)
	}
	return r.documentValue(doc)
}

// processDocuments sequentially fetches, parses and visits each URL, then
// signals completion exactly once. Per-item faults are logged and do not
// abort remaining items.
func (r *Runtime) processDocuments(call goja.FunctionCall) goja.Value {
	urls := stringList(call.Argument(0))

	visitor, ok := goja.AssertFunction(call.Argument(1))
	if !ok {
		r.throw("processDocuments: visitor function required")
	}

	var onDone goja.Callable
	if cb, ok := goja.AssertFunction(call.Argument(2)); ok {
		onDone = cb
	}

	visit := func(doc *document.Document, url string) error {
		_, err := visitor(goja.Undefined(), r.documentValue(doc), r.vm.ToValue(url))
		return err
	}
	done := func() {
		if onDone == nil {
			return
		}
		if _, err := onDone(goja.Undefined()); err != nil {
			r.log.Warn("batch completion callback failed", zap.Error(err))
		}
	}

	r.fetcher.ProcessDocuments(r.ctx, r.pageURL, urls, visit, done)
	return goja.Undefined()
}

// resolveOrThrow resolves a possibly-relative URL against the page URL
// before any network access happens.
func (r *Runtime) resolveOrThrow(ref string) string {
	resolved, err := r.fetcher.ResolveURL(r.pageURL, ref)
	if err != nil {
		r.throw("%v", err)
	}
	return resolved
}

// stringList accepts a JS string or array of strings.
func stringList(v goja.Value) []string {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	switch exported := v.Export().(type) {
	case string:
		return []string{exported}
	case []interface{}:
		out := make([]string, 0, len(exported))
		for _, item := range exported {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
