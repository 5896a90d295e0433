// Package scanner drives a full scan: it crosses the enumerated hosts with
// the port/protocol matrix, dispatches probes with bounded concurrency,
// emits one progress event per resolved work unit, and aggregates confirmed
// streams into an ordered, deduplicated result.
//
// # Concurrency Model
//
// The engine uses an errgroup with a concurrency limit: each work unit runs
// in its own goroutine, but at most N run simultaneously. Workers block only
// on their own network I/O; a stalled probe never delays another worker
// beyond occupying one concurrency slot for its timeout.
//
// Shared mutable state is confined to the engine's progress lock (completed
// counter plus aggregator insertion plus sink notification), so the emitted
// progress stream is strictly increasing even though probes complete out of
// enumeration order.
//
// # Cancellation
//
// Cancellation is cooperative. Once the context is cancelled the engine
// stops dispatching new units; in-flight probes finish within their own
// per-probe timeout. The partial result accumulated so far is returned
// with ScanCancelled rather than an error.
package scanner
