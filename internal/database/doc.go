// Package database provides SQLite-based persistence for discovered
// streams and scan history. Streams are keyed by URL so repeated scans
// update liveness instead of accumulating duplicates, which lets the
// monitor and later scans compare against what was seen before.
package database
