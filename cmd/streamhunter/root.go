// Package main provides the entry point for the StreamHunter CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for StreamHunter.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "streamhunter",
		Short: "LAN media stream discovery tool",
		Long: `StreamHunter discovers media streaming endpoints on local networks.
It probes every host in a subnet across a matrix of well-known ports,
confirming RTSP, HLS, DASH, and RTMP endpoints with protocol-level
handshakes rather than bare port checks.

Discovered stream URLs are written to streams.txt and recorded in a
local SQLite database so later scans and the monitor can track liveness.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
