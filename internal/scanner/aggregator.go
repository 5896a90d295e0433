package scanner

import (
	"sync"
	"time"

	"github.com/DapperHoldings/streamhunter/internal/model"
	"github.com/DapperHoldings/streamhunter/internal/probe"
)

// Aggregator accumulates confirmed streams for the lifetime of one scan.
// Insertion order equals discovery order, entries are deduplicated by exact
// URL string, and nothing is ever removed during a scan.
//
// Safe for concurrent use; the engine additionally serializes Record calls
// under its progress lock to keep event ordering deterministic.
type Aggregator struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	streams []model.Stream
}

// NewAggregator creates an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		seen:    make(map[string]struct{}),
		streams: make([]model.Stream, 0),
	}
}

// Record records a probe outcome. Found results insert their URL unless it
// is already present; NotFound and error outcomes are no-ops. It returns
// the inserted stream and true on a first-seen URL, nil and false otherwise.
func (a *Aggregator) Record(result *probe.Result) (*model.Stream, bool) {
	if result == nil || !result.Found {
		return nil, false
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, dup := a.seen[result.URL]; dup {
		return nil, false
	}

	stream := result.Stream(time.Now())
	a.seen[result.URL] = struct{}{}
	a.streams = append(a.streams, stream)
	return &stream, true
}

// Snapshot returns a copy of the accumulated streams in discovery order.
// Valid at any point during a scan; used for both live sink notification
// and the final result.
func (a *Aggregator) Snapshot() []model.Stream {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]model.Stream, len(a.streams))
	copy(out, a.streams)
	return out
}

// Len returns the number of distinct streams recorded so far.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.streams)
}
