// Package model defines the core data structures used throughout streamhunter.
//
// This package contains the following main types:
//   - Protocol: Closed enumeration of probed streaming protocols
//   - WorkUnit: One (host, port, protocol) probe task
//   - Stream: A confirmed streaming endpoint
//   - ProgressEvent: Per-unit progress notification
//   - ScanResult: The final, ordered set of discovered streams
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (probe, scanner, report, database) need to
// use these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
