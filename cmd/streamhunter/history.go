package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/DapperHoldings/streamhunter/internal/config"
	"github.com/DapperHoldings/streamhunter/internal/database"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past scans and known streams",
		Long: `History lists the scans and streams recorded in the local database.

By default it prints past scans, most recent first. Use --streams to list
every stream ever confirmed, including ones that have since gone inactive.

Examples:
  # List past scans
  streamhunter history

  # List every known stream
  streamhunter history --streams

  # List only streams that were alive at last check
  streamhunter history --streams --active`,
		RunE: runHistoryCmd,
	}

	cmd.Flags().Bool("streams", false, "List known streams instead of scans")
	cmd.Flags().Bool("active", false, "With --streams, list only currently active streams")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	listStreams, err := cmd.Flags().GetBool("streams")
	if err != nil {
		return err
	}
	activeOnly, err := cmd.Flags().GetBool("active")
	if err != nil {
		return err
	}

	// Open read-only: history never creates a database
	db, err := database.Open(config.XDGDataDir(), database.Options{EnableWAL: true})
	if err != nil {
		return fmt.Errorf("no scan history yet (run a scan first): %w", err)
	}
	defer db.Close() //nolint:errcheck // Best effort cleanup

	ctx := context.Background()
	out := cmd.OutOrStdout()

	if listStreams {
		records, err := db.ListStreams(ctx, activeOnly)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Fprintln(out, "No streams recorded.")
			return nil
		}
		for _, rec := range records {
			state := "active"
			if !rec.Active {
				state = "inactive"
			}
			fmt.Fprintf(out, "%-8s %-8s %s (first seen %s, last seen %s)\n",
				state, rec.Protocol, rec.URL,
				rec.FirstSeen.Local().Format("2006-01-02 15:04"),
				rec.LastSeen.Local().Format("2006-01-02 15:04"),
			)
		}
		return nil
	}

	scans, err := db.ListScans(ctx)
	if err != nil {
		return err
	}
	if len(scans) == 0 {
		fmt.Fprintln(out, "No scans recorded.")
		return nil
	}
	for _, scan := range scans {
		fmt.Fprintf(out, "%s  %-20s %4d stream(s)  %d/%d probes  %s  %s\n",
			scan.StartedAt.Local().Format("2006-01-02 15:04"),
			scan.Target,
			scan.StreamsFound,
			scan.CompletedUnits,
			scan.TotalUnits,
			scan.Duration.Round(time.Millisecond),
			scan.Status,
		)
	}
	return nil
}
