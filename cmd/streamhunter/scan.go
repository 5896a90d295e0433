package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/DapperHoldings/streamhunter/internal/config"
	"github.com/DapperHoldings/streamhunter/internal/database"
	"github.com/DapperHoldings/streamhunter/internal/discovery"
	"github.com/DapperHoldings/streamhunter/internal/model"
	"github.com/DapperHoldings/streamhunter/internal/monitor"
	"github.com/DapperHoldings/streamhunter/internal/netrange"
	"github.com/DapperHoldings/streamhunter/internal/probe"
	"github.com/DapperHoldings/streamhunter/internal/report"
	"github.com/DapperHoldings/streamhunter/internal/scanner"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [subnet]",
		Short: "Scan a subnet for media streaming endpoints",
		Long: `Scan probes every host in the given subnet across a matrix of
well-known streaming ports and confirms endpoints with protocol-level
handshakes:

- RTSP: OPTIONS request, any valid RTSP status line confirms
- HLS:  HTTP GET for playlist paths, #EXTM3U or playlist content type confirms
- DASH: HTTP GET for manifest paths, <MPD or dash+xml content type confirms
- RTMP: C0/C1 handshake, matching S0 version byte confirms

Examples:
  # Scan a /24 subnet
  streamhunter scan 192.168.1.0/24

  # Discover hosts via mDNS instead of sweeping a subnet
  streamhunter scan --mdns

  # Combine a subnet sweep with mDNS discovery
  streamhunter scan --mdns 192.168.1.0/24

  # Faster scan with a bigger probe budget
  streamhunter scan --concurrency 100 --timeout 1s 10.0.0.0/24

  # Keep running and monitor discovered streams for liveness
  streamhunter scan --monitor 192.168.1.0/24

  # Output a Markdown report to a file
  streamhunter scan --markdown --report report.md 192.168.1.0/24

Configuration file (.streamhunter) example:
  ports:
    rtsp: [554, 8554, 10554]
    hls: [8080]
  paths:
    hls:
      - "cam/index.m3u8"
  rtspPath: "live.sdp"
  rtmpApp: "broadcast"`,
		Args: cobra.MaximumNArgs(1),
		RunE: runScanCmd,
	}

	// Scan behavior flags
	cmd.Flags().IntP("concurrency", "b", config.DefaultConcurrency,
		"Maximum number of simultaneous probes")
	cmd.Flags().DurationP("timeout", "t", config.DefaultProbeTimeout,
		"Connection and handshake timeout for each probe")

	// Host discovery flags
	cmd.Flags().Bool("mdns", false,
		"Discover candidate hosts via mDNS/Bonjour")
	cmd.Flags().Duration("mdns-timeout", config.DefaultMDNSTimeout,
		"Browse window for mDNS discovery")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .streamhunter in current or home directory)")

	// Output flags
	cmd.Flags().StringP("output", "o", config.DefaultOutputFile,
		"File receiving one stream URL per line (use '-' to disable)")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("report", "r", "",
		"Write report to specified file path (creates directories if needed)")

	// Persistence flags
	cmd.Flags().Bool("no-db", false,
		"Skip recording results in the local database")

	// Monitoring flags
	cmd.Flags().Bool("monitor", false,
		"Keep running after the scan and recheck discovered streams")
	cmd.Flags().Duration("monitor-interval", config.DefaultMonitorInterval,
		"Pause between monitor liveness sweeps")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	// Build config from flags
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging
	verbose := getVerboseFlag(cmd)
	logger := setupLogger(verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runScan(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	if len(args) > 0 {
		cfg.Subnet = args[0]
	}

	var err error

	cfg.Concurrency, err = cmd.Flags().GetInt("concurrency")
	if err != nil {
		return nil, err
	}

	cfg.ProbeTimeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.UseMDNS, err = cmd.Flags().GetBool("mdns")
	if err != nil {
		return nil, err
	}

	cfg.MDNSTimeout, err = cmd.Flags().GetDuration("mdns-timeout")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load probe overrides from the config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty overrides if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.Overrides, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		// User explicitly specified a config file that doesn't exist
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	cfg.OutputFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("report")
	if err != nil {
		return nil, err
	}

	noDB, err := cmd.Flags().GetBool("no-db")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noDB

	cfg.Monitor, err = cmd.Flags().GetBool("monitor")
	if err != nil {
		return nil, err
	}

	cfg.MonitorInterval, err = cmd.Flags().GetDuration("monitor-interval")
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// setupLogger creates a structured logger based on verbosity setting.
func setupLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	handler := slog.NewTextHandler(os.Stderr, opts)
	return slog.New(handler)
}

// runScan executes the scan.
func runScan(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	matrix, err := cfg.Overrides.Matrix()
	if err != nil {
		return err
	}

	hosts, target, err := collectHosts(ctx, cfg, logger)
	if err != nil {
		return err
	}

	logger.Info("starting scan",
		"target", target,
		"hosts", len(hosts),
		"concurrency", cfg.Concurrency,
		"saveToDB", cfg.SaveToDB,
	)

	// Open database connection if saving is enabled
	var db *database.StreamDB
	if cfg.SaveToDB {
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close() //nolint:errcheck // Best effort cleanup
		logger.Info("database opened", "dir", cfg.DBDir)
	}

	fmt.Printf("Scanning %s (%d hosts, %d probes per host)...\n",
		target, len(hosts), matrix.UnitsPerHost())

	engine := scanner.New(matrix, buildRegistry(cfg),
		scanner.WithConcurrency(cfg.Concurrency),
		scanner.WithProgressSink(&consoleProgress{out: os.Stdout}),
		scanner.WithLogger(logger),
	)

	result, err := engine.Run(ctx, hosts)
	if err != nil {
		return err
	}
	result.Target = target
	fmt.Printf("\nScan %s in %s\n\n", result.Status, result.Duration.Round(time.Millisecond))

	// Write the plain-text URL sink
	if cfg.OutputFile != "-" {
		if err := writeOutputFile(cfg.OutputFile, result); err != nil {
			logger.Error("failed to write output file", "path", cfg.OutputFile, "error", err)
		} else {
			fmt.Printf("Stream URLs written to %s\n\n", cfg.OutputFile)
		}
	}

	// Generate and output report
	if err := outputReport(cfg, result); err != nil {
		logger.Error("report failed", "error", err)
	}

	// Save to database if enabled
	if db != nil {
		if err := db.SaveScan(ctx, result); err != nil {
			logger.Error("failed to save scan", "error", err)
		} else {
			logger.Info("scan saved to database", "target", target)
		}
	}

	// Keep rechecking discovered streams if monitoring is enabled
	if cfg.Monitor {
		return runMonitor(ctx, cfg, db, result, logger)
	}

	return nil
}

// collectHosts builds the scan host list from the subnet and mDNS discovery.
// mDNS hosts already covered by the subnet are not duplicated.
func collectHosts(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]netip.Addr, string, error) {
	var (
		hosts  []netip.Addr
		r      *netrange.Range
		labels []string
	)

	if cfg.Subnet != "" {
		var err error
		r, err = netrange.Parse(cfg.Subnet)
		if err != nil {
			return nil, "", err
		}
		hosts = r.Hosts()
		labels = append(labels, r.String())
	}

	if cfg.UseMDNS {
		browser := discovery.NewBrowser(discovery.WithBrowseTimeout(cfg.MDNSTimeout))
		found, err := browser.Hosts(ctx)
		if err != nil {
			return nil, "", fmt.Errorf("mdns discovery failed: %w", err)
		}
		logger.Info("mdns discovery finished", "hosts", len(found))

		for _, addr := range found {
			if r != nil && r.Contains(addr) {
				continue
			}
			if !slices.Contains(hosts, addr) {
				hosts = append(hosts, addr)
			}
		}
		labels = append(labels, "mdns")
	}

	return hosts, strings.Join(labels, "+"), nil
}

// buildRegistry creates the prober registry honoring config file overrides.
func buildRegistry(cfg *config.Config) probe.Registry {
	dialer := &net.Dialer{}
	client := &http.Client{}

	rtspOpts := []probe.RTSPOption{probe.WithRTSPTimeout(cfg.ProbeTimeout)}
	hlsOpts := []probe.HLSOption{probe.WithHLSTimeout(cfg.ProbeTimeout)}
	dashOpts := []probe.DASHOption{probe.WithDASHTimeout(cfg.ProbeTimeout)}
	rtmpOpts := []probe.RTMPOption{probe.WithRTMPTimeout(cfg.ProbeTimeout)}

	if cfg.Overrides != nil {
		if cfg.Overrides.RTSPPath != "" {
			rtspOpts = append(rtspOpts, probe.WithRTSPPath(cfg.Overrides.RTSPPath))
		}
		if len(cfg.Overrides.Paths.HLS) > 0 {
			hlsOpts = append(hlsOpts, probe.WithHLSPaths(cfg.Overrides.Paths.HLS))
		}
		if len(cfg.Overrides.Paths.DASH) > 0 {
			dashOpts = append(dashOpts, probe.WithDASHPaths(cfg.Overrides.Paths.DASH))
		}
		if cfg.Overrides.RTMPApp != "" {
			rtmpOpts = append(rtmpOpts, probe.WithRTMPApp(cfg.Overrides.RTMPApp))
		}
	}

	return probe.NewRegistry(
		probe.NewRTSPProber(dialer, rtspOpts...),
		probe.NewHLSProber(client, hlsOpts...),
		probe.NewDASHProber(client, dashOpts...),
		probe.NewRTMPProber(dialer, rtmpOpts...),
	)
}

// consoleProgress renders the scan progress line and found-stream notices.
type consoleProgress struct {
	out *os.File
}

// Progress implements scanner.ProgressSink.
// Events are already serialized by the engine, so no locking is needed.
func (c *consoleProgress) Progress(event model.ProgressEvent) {
	if event.LastFound != nil {
		fmt.Fprintf(c.out, "\r\033[KFound %s stream: %s\n",
			strings.ToUpper(event.LastFound.Protocol.String()), event.LastFound.URL)
	}
	fmt.Fprintf(c.out, "\rScanning progress: %.1f%% (%d/%d)",
		event.Percent(), event.Completed, event.Total)
}

// writeOutputFile writes the one-URL-per-line sink.
func writeOutputFile(path string, result *model.ScanResult) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close() //nolint:errcheck // write errors surface below

	if _, err := report.NewTextWriter(f).Write(result); err != nil {
		return err
	}
	return f.Sync()
}

// outputReport outputs the scan report in the requested format.
func outputReport(cfg *config.Config, result *model.ScanResult) error {
	// Determine output destination
	var output *os.File
	if cfg.ReportFile != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer f.Close() //nolint:errcheck // Best effort cleanup
		output = f
	} else {
		output = os.Stdout
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewJSONWriter(output, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	default:
		writer = report.NewSimpleWriter(output)
	}

	_, err := writer.Write(result)
	return err
}

// runMonitor keeps rechecking the discovered streams until interrupted.
func runMonitor(ctx context.Context, cfg *config.Config, db *database.StreamDB, result *model.ScanResult, logger *slog.Logger) error {
	if len(result.Streams) == 0 {
		fmt.Println("No streams to monitor.")
		return nil
	}
	if db == nil {
		return fmt.Errorf("monitoring requires the database (remove --no-db)")
	}

	fmt.Printf("Monitoring %d stream(s) every %s (Ctrl+C to stop)...\n",
		len(result.Streams), cfg.MonitorInterval)

	m := monitor.New(db,
		monitor.WithInterval(cfg.MonitorInterval),
		monitor.WithCheckTimeout(cfg.ProbeTimeout),
		monitor.WithLogger(logger),
	)
	return m.Run(ctx, result.Streams)
}
