// Package monitor periodically rechecks discovered streams and records
// their liveness. A stream that keeps failing for longer than the
// inactivity window is marked inactive in the store; a stream that
// answers again is refreshed. The monitor runs until its context is
// cancelled and tolerates transient failures between sweeps.
package monitor
