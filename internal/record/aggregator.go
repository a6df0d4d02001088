package record

import (
	"sync"
)

// Aggregator collects finalized snapshots from one extraction run. It is the
// sole owner of records after completion.
type Aggregator struct {
	mu      sync.Mutex
	records []Snapshot
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Add appends a finalized snapshot.
func (a *Aggregator) Add(s Snapshot) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, s)
}

// Records returns a copy of the collected snapshots in emission order.
func (a *Aggregator) Records() []Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Snapshot{}, a.records...)
}

// Count returns the number of collected snapshots.
func (a *Aggregator) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.records)
}
