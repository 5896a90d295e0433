package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"net/netip"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/DapperHoldings/streamhunter/internal/model"
	"github.com/DapperHoldings/streamhunter/internal/probe"
)

// DefaultConcurrency is the default bound on in-flight probes.
// Tens of simultaneous probes amortize LAN latency without flooding the
// local link; the original reference used the same order of magnitude.
const DefaultConcurrency = 50

// Engine executes one scan over a host list.
// Each scan owns a fresh aggregator and counter; no state persists between
// Run invocations, so an Engine may be reused for successive scans.
type Engine struct {
	// matrix supplies the work-unit cross product.
	matrix *probe.Matrix

	// probers maps each matrix protocol to its handshake implementation.
	probers probe.Registry

	// concurrency bounds simultaneous in-flight probes.
	concurrency int

	// progress receives one event per resolved unit.
	progress ProgressSink

	// logger is used for per-unit debug output.
	logger *slog.Logger
}

// Option configures an Engine.
// This follows the functional options pattern for clean API design.
type Option func(*Engine)

// WithConcurrency sets the maximum number of in-flight probes.
// Values below one are ignored, keeping the default.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithProgressSink sets the sink notified after each resolved unit.
func WithProgressSink(sink ProgressSink) Option {
	return func(e *Engine) {
		if sink != nil {
			e.progress = sink
		}
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an Engine over the given matrix and probers.
func New(matrix *probe.Matrix, probers probe.Registry, opts ...Option) *Engine {
	e := &Engine{
		matrix:      matrix,
		probers:     probers,
		concurrency: DefaultConcurrency,
		progress:    nopSink{},
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = slog.Default()
	}

	return e
}

// Run drives the full work-unit sequence for the given hosts to completion.
//
// Every unit resolves to exactly one outcome, each completion emits one
// progress event with a strictly increasing completed count, and Found
// outcomes are recorded in discovery order with exact-URL deduplication.
//
// Cancelling ctx stops dispatch; in-flight probes finish within their own
// per-probe timeout and the partial result is returned with ScanCancelled.
// The error return is reserved for pre-dispatch misconfiguration: an
// unresolvable protocol or an invalid concurrency bound.
func (e *Engine) Run(ctx context.Context, hosts []netip.Addr) (*model.ScanResult, error) {
	if e.matrix == nil {
		return nil, fmt.Errorf("scanner: no port matrix configured")
	}
	if e.concurrency < 1 {
		return nil, fmt.Errorf("scanner: concurrency must be positive, got %d", e.concurrency)
	}
	for _, protocol := range e.matrix.Protocols() {
		if _, ok := e.probers.For(protocol); !ok {
			return nil, fmt.Errorf("scanner: no prober registered for %s", protocol)
		}
	}

	units := e.matrix.WorkUnits(hosts)
	started := time.Now()
	result := &model.ScanResult{
		Status:     model.ScanCompleted,
		TotalUnits: len(units),
		StartedAt:  started,
	}

	// Nothing to do; complete without dispatching workers.
	if len(units) == 0 {
		result.Streams = []model.Stream{}
		result.Duration = time.Since(started)
		return result, nil
	}

	e.logger.Info("starting scan",
		"hosts", len(hosts),
		"units", len(units),
		"concurrency", e.concurrency,
	)

	agg := NewAggregator()

	// progressMu orders counter increments, aggregator insertion, and sink
	// notification as one atomic step per unit.
	var progressMu sync.Mutex
	completed := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	dispatched := 0
	for _, unit := range units {
		// Stop dispatching once cancellation is observed. g.Go blocks while
		// all slots are busy, so this check runs between dispatches.
		if ctx.Err() != nil {
			break
		}
		dispatched++

		g.Go(func() error {
			select {
			case <-gctx.Done():
				// Claimed a slot after cancellation; leave the unit unresolved.
				return nil
			default:
			}

			outcome := e.probeUnit(gctx, unit)

			progressMu.Lock()
			completed++
			stream, added := agg.Record(outcome)
			event := model.ProgressEvent{
				Completed: completed,
				Total:     len(units),
			}
			if added {
				event.LastFound = stream
			}
			e.progress.Progress(event)
			progressMu.Unlock()

			if added {
				e.logger.Info("stream found",
					"url", stream.URL,
					"protocol", stream.Protocol.String(),
				)
			}
			return nil
		})
	}

	// Workers never return errors; Wait is for draining in-flight probes.
	_ = g.Wait()

	progressMu.Lock()
	result.CompletedUnits = completed
	progressMu.Unlock()

	if ctx.Err() != nil || result.CompletedUnits < result.TotalUnits {
		result.Status = model.ScanCancelled
	}
	result.Streams = agg.Snapshot()
	result.Duration = time.Since(started)

	e.logger.Info("scan finished",
		"status", result.Status.String(),
		"completed", result.CompletedUnits,
		"total", result.TotalUnits,
		"streams", len(result.Streams),
		"elapsed", result.Duration,
	)

	return result, nil
}

// probeUnit resolves one unit, collapsing prober errors into an error
// outcome so a single fault can never abort the scan.
func (e *Engine) probeUnit(ctx context.Context, unit model.WorkUnit) *probe.Result {
	prober, _ := e.probers.For(unit.Protocol)

	outcome, err := prober.Probe(ctx, unit.Host, unit.Port)
	if err != nil {
		e.logger.Debug("probe error", "unit", unit.String(), "error", err)
		outcome = probe.NewResult(unit.Protocol, unit.Host, unit.Port)
		outcome.ErrKind = probe.Classify(err)
	}
	if outcome == nil {
		outcome = probe.NewResult(unit.Protocol, unit.Host, unit.Port)
	}

	if !outcome.Found && outcome.ErrKind != probe.ErrorNone {
		e.logger.Debug("probe negative",
			"unit", unit.String(),
			"kind", outcome.ErrKind.String(),
		)
	}
	return outcome
}
