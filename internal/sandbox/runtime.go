package sandbox

import (
	"context"
	"fmt"
	"net/url"

	"github.com/dop251/goja"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/bibharvest/bibharvest/internal/correlate"
	"github.com/bibharvest/bibharvest/internal/document"
	"github.com/bibharvest/bibharvest/internal/logging"
	"github.com/bibharvest/bibharvest/internal/record"
)

// Runtime is one isolated goja VM prepared for a single translator
// invocation. The capability surface is injected as explicit named bindings;
// nothing else from the host is reachable.
//
// A Runtime is confined to one goroutine. Interrupt is the only method safe
// to call concurrently with a running script.
type Runtime struct {
	vm      *goja.Runtime
	ctx     context.Context
	log     *logging.Logger
	fetcher *Fetcher
	emit    func(record.Snapshot)

	doc     *document.Document
	docVal  goja.Value
	pageURL *url.URL
	rawURL  string

	// refs maps element-proxy handles back to primary-tree nodes and the
	// bridge of the document owning them.
	refs []nodeRef
}

type nodeRef struct {
	node   *html.Node
	bridge *correlate.Bridge
}

// Options configures a Runtime.
type Options struct {
	// Ctx bounds network access performed by fetch helpers. Defaults to
	// context.Background.
	Ctx      context.Context
	Document *document.Document
	PageURL  string
	Fetcher  *Fetcher
	Emit     func(record.Snapshot)
	Log      *logging.Logger
}

// NewRuntime creates a fresh VM with the capability surface installed and
// the page document proxied in.
func NewRuntime(opts Options) (*Runtime, error) {
	r := &Runtime{
		vm:      goja.New(),
		ctx:     opts.Ctx,
		log:     opts.Log,
		fetcher: opts.Fetcher,
		emit:    opts.Emit,
		doc:     opts.Document,
		rawURL:  opts.PageURL,
	}
	if r.ctx == nil {
		r.ctx = context.Background()
	}
	if r.log == nil {
		r.log = logging.NewNop()
	}
	if u, err := url.Parse(opts.PageURL); err == nil && u.IsAbs() {
		r.pageURL = u
	}

	r.vm.SetMaxCallStackSize(1024)

	if err := r.setupGlobals(); err != nil {
		return nil, err
	}
	r.docVal = r.documentValue(opts.Document)
	return r, nil
}

// Load evaluates the translator body, defining its entry points.
func (r *Runtime) Load(body string) error {
	if _, err := r.vm.RunString(body); err != nil {
		return fmt.Errorf("translator load failed: %w", err)
	}
	return nil
}

// Probe invokes the detection entry point with (document, url). The returned
// token is the translator's advisory capability kind. positive is false for
// a falsy or absent result; err carries thrown faults.
func (r *Runtime) Probe() (token string, positive bool, err error) {
	fn, ok := goja.AssertFunction(r.vm.Get("detect"))
	if !ok {
		return "", false, fmt.Errorf("no detection entry point")
	}

	val, err := fn(goja.Undefined(), r.docVal, r.vm.ToValue(r.rawURL))
	if err != nil {
		return "", false, err
	}
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) || !val.ToBoolean() {
		return "", false, nil
	}
	return val.String(), true, nil
}

// Extract invokes the extraction entry point with (document, url). Emitted
// records reach the emit callback as each builder completes.
func (r *Runtime) Extract() error {
	fn, ok := goja.AssertFunction(r.vm.Get("extract"))
	if !ok {
		return fmt.Errorf("no extraction entry point")
	}

	if _, err := fn(goja.Undefined(), r.docVal, r.vm.ToValue(r.rawURL)); err != nil {
		return err
	}
	return nil
}

// Interrupt stops the running script. Safe to call from another goroutine.
func (r *Runtime) Interrupt(reason string) {
	r.vm.Interrupt(reason)
}

// setupGlobals strips ambient host access and installs the capability
// surface: Item constructor, utils namespace, attr/text accessors, debug.
func (r *Runtime) setupGlobals() error {
	// No ambient host access beyond the enumerated bindings.
	r.vm.Set("require", goja.Undefined())
	r.vm.Set("process", goja.Undefined())
	r.vm.Set("module", goja.Undefined())
	r.vm.Set("exports", goja.Undefined())
	r.vm.Set("globalThis", goja.Undefined())

	// Timers are no-ops: scheduling is cooperative and synchronous.
	noop := func(call goja.FunctionCall) goja.Value { return goja.Undefined() }
	r.vm.Set("setTimeout", noop)
	r.vm.Set("setInterval", noop)

	console := r.vm.NewObject()
	console.Set("log", r.makeDebugFunc("log"))
	console.Set("warn", r.makeDebugFunc("warn"))
	console.Set("error", r.makeDebugFunc("error"))
	r.vm.Set("console", console)
	r.vm.Set("debug", r.makeDebugFunc("debug"))

	r.vm.Set("Item", r.itemConstructor)

	if err := r.setupUtils(); err != nil {
		return err
	}

	r.vm.Set("attr", r.attrAccessor)
	r.vm.Set("text", r.textAccessor)
	return nil
}

// makeDebugFunc routes script console output into the structured log.
func (r *Runtime) makeDebugFunc(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		msg := ""
		for i, arg := range call.Arguments {
			if i > 0 {
				msg += " "
			}
			msg += arg.String()
		}
		r.log.Debug("translator output", zap.String("level", level), zap.String("message", msg))
		return goja.Undefined()
	}
}

// throw raises a JS exception inside the VM.
func (r *Runtime) throw(format string, args ...interface{}) {
	panic(r.vm.ToValue(fmt.Sprintf(format, args...)))
}

// rethrow re-raises an error from a nested callable as a JS exception.
func (r *Runtime) rethrow(err error) {
	if ex, ok := err.(*goja.Exception); ok {
		panic(r.vm.ToValue(ex.Value()))
	}
	panic(r.vm.ToValue(err.Error()))
}

// addRef registers a node handle and returns its index.
func (r *Runtime) addRef(n *html.Node, bridge *correlate.Bridge) int {
	r.refs = append(r.refs, nodeRef{node: n, bridge: bridge})
	return len(r.refs) - 1
}

// refFromValue recovers a node handle from a proxy object passed back by
// script code. Returns nil for anything that is not a proxy.
func (r *Runtime) refFromValue(v goja.Value) *nodeRef {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	obj, ok := v.(*goja.Object)
	if !ok {
		return nil
	}
	h := obj.Get("__ref")
	if h == nil || goja.IsUndefined(h) {
		return nil
	}
	idx := int(h.ToInteger())
	if idx < 0 || idx >= len(r.refs) {
		return nil
	}
	return &r.refs[idx]
}
