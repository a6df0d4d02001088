// Package record holds the bibliographic record model: the mutable Builder
// owned by a running extraction, the immutable Snapshot produced on
// completion, the static item-type schema table, and the per-run Aggregator
// that collects finalized snapshots.
//
// Completion is idempotent and transfers ownership: once Complete runs, the
// snapshot belongs to the aggregator and the builder is inert.
package record
