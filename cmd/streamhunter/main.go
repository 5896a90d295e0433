// Package main provides the entry point for the StreamHunter CLI.
//
// StreamHunter discovers media streaming endpoints (RTSP, HLS, DASH, RTMP)
// on local networks by probing every host in a subnet across a matrix of
// well-known ports.
//
// Usage:
//
//	streamhunter scan 192.168.1.0/24
//	streamhunter scan --mdns
//
// See --help for all available options.
package main

// main is the entry point for StreamHunter.
func main() {
	Execute()
}
