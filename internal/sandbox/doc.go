/*
Package sandbox executes translator code inside isolated goja VMs.

# Isolation model

One fresh VM is created per translator invocation. Isolation is a capability
allowlist, not an OS security boundary: the only host access is the set of
bindings installed by setupGlobals, and require/process/module/exports plus
the timers are removed up front.

# Injected bindings

  - Item: record-builder constructor; complete() finalizes a snapshot into
    the run's emit pipeline (idempotent)
  - utils: text/name/date/identifier helpers, schema lookups, xpath query
    evaluation through the correlation bridge, fetch helpers (request for
    the raw status/headers/body, requestText/requestJSON/requestDocument
    for typed access) and processDocuments
  - attr/text: selector-scoped attribute and normalized-text accessors
  - console/debug: routed into the structured log

# Entry points

Translator sources define detect(doc, url) and extract(doc, url). A falsy
detect result or a thrown fault is a negative probe. Network helpers resolve
relative URLs against the page URL before any request, and processDocuments
visits URLs strictly one at a time, signalling completion exactly once.
*/
package sandbox
