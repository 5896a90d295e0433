// Package probe provides protocol-specific probers for detecting active
// media-streaming endpoints on a local network.
//
// # Architecture
//
// Each supported protocol implements the Prober interface, allowing the
// scan engine to resolve work units uniformly. The package also owns the
// static port/protocol matrix that turns a host list into the ordered
// work-unit sequence.
//
// Design decision: Each prober is implemented as a separate type rather
// than a single generic prober because:
//  1. Handshake logic varies significantly between protocols
//  2. Type safety - each prober can carry protocol-specific defaults
//  3. Easier testing - each protocol can be tested in isolation
//
// # Supported Protocols
//
//   - RTSP (ports 554/8554): OPTIONS handshake over raw TCP
//   - HLS (ports 1935/8080/8081): HTTP GET against .m3u8 manifest paths
//   - DASH (ports 80/8080): HTTP GET against .mpd manifest paths
//   - RTMP (ports 1935/1936): C0/C1 handshake byte exchange
//
// # Fault Isolation
//
// A probe failure never aborts the scan. Every failure collapses into the
// Result's error kind (timeout, connection refused, unreachable host, or
// protocol mismatch); the engine records it and moves on. Probers confirm
// existence only - they never authenticate or consume stream content.
package probe
