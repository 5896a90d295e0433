package model

// ProgressEvent reports the completion of one work unit.
// Exactly one event is emitted per resolved unit, and Completed is
// strictly increasing across the emitted sequence regardless of the
// order in which probes actually finish.
type ProgressEvent struct {
	// Completed is the number of work units resolved so far.
	Completed int

	// Total is the total number of work units in this scan.
	// It is fixed before the first probe is dispatched.
	Total int

	// LastFound is the stream discovered by the unit that just completed,
	// or nil if the unit resolved to NotFound, an error, or a duplicate URL.
	LastFound *Stream
}

// Percent returns the completion percentage in [0, 100].
// A scan with zero work units reports 100.
func (e ProgressEvent) Percent() float64 {
	if e.Total == 0 {
		return 100
	}
	return float64(e.Completed) / float64(e.Total) * 100
}
