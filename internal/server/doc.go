// Package server exposes the extraction engine over HTTP: POST /extract for
// orchestration, catalog listing under /translators, plus health and
// Prometheus metrics endpoints. The service is stateless per invocation;
// the only long-lived state is the load-once translator catalog.
package server
