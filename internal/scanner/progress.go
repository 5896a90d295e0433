package scanner

import "github.com/DapperHoldings/streamhunter/internal/model"

// ProgressSink receives one event per resolved work unit.
//
// The sink is invoked while the engine holds its progress lock, which is
// what guarantees the monotonically increasing completed count. Sinks must
// therefore return quickly; slow rendering should buffer internally.
type ProgressSink interface {
	Progress(event model.ProgressEvent)
}

// ProgressFunc adapts a plain function to the ProgressSink interface.
type ProgressFunc func(event model.ProgressEvent)

// Progress implements ProgressSink.
func (f ProgressFunc) Progress(event model.ProgressEvent) {
	f(event)
}

// nopSink discards progress events. Used when no sink is configured.
type nopSink struct{}

func (nopSink) Progress(model.ProgressEvent) {}
