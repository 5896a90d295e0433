// Package netrange expands an IPv4 subnet descriptor into the ordered
// sequence of usable host addresses to scan.
//
// The network and broadcast addresses are excluded, and hosts are produced
// in ascending numeric order. The ordering matters only for reproducible
// progress percentages and deterministic work-unit counts, not correctness.
package netrange
