// Package engine orchestrates translator resolution and two-phase execution
// against one page document.
//
// For each URL the engine resolves the priority-ordered candidate list, then
// walks it strictly sequentially: probe, and on a positive probe, extract.
// The first candidate finishing extraction with at least one finalized
// record wins. Per-candidate faults (bad load, thrown probe or extraction
// errors, timeouts) are recovered locally so one broken translator never
// blocks the others. Only two outcomes surface to callers as errors:
// ErrNoMatch and ErrNoExtraction.
package engine
