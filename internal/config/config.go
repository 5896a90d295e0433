package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These values are chosen for typical home and small-office LANs where
// media endpoints (IP cameras, set-top boxes, media servers) live.
const (
	// DefaultConcurrency of 50 simultaneous probes saturates a /24 subnet
	// quickly without exhausting file descriptors or tripping consumer
	// router connection-tracking tables. Larger networks may increase this
	// via the --concurrency CLI flag.
	DefaultConcurrency = 50

	// DefaultProbeTimeout is set to 3 seconds because LAN round trips are
	// measured in milliseconds; a host that has not answered a TCP SYN or
	// a protocol handshake within 3 seconds is almost certainly down or
	// firewalled. A longer timeout would make full-subnet scans crawl.
	DefaultProbeTimeout = 3 * time.Second

	// DefaultOutputFile is the plain-text sink that receives one stream URL
	// per line after every scan. Kept deliberately simple so the file can be
	// fed straight into players such as VLC or ffplay.
	DefaultOutputFile = "streams.txt"

	// DefaultMDNSTimeout is the browse window for mDNS/Bonjour discovery.
	// Most responders answer within 2-3 seconds; 10 seconds catches slow
	// or sleepy devices without stalling the scan noticeably.
	DefaultMDNSTimeout = 10 * time.Second

	// DefaultMonitorInterval is the pause between liveness sweeps when
	// monitoring previously discovered streams. 10 seconds keeps the
	// monitor responsive without hammering the endpoints.
	DefaultMonitorInterval = 10 * time.Second

	// DefaultMonitorWindow is how long a stream may stay unreachable before
	// the monitor marks it inactive. Five minutes tolerates reboots and
	// brief network blips while still converging on the truth.
	DefaultMonitorWindow = 5 * time.Minute

	// AppName is the application name used for XDG directory paths.
	AppName = "streamhunter"
)

// Config holds all configuration options for StreamHunter.
// This struct is designed to be populated from CLI flags and passed through
// the application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., ScanConfig, ReportConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
// If the configuration grows significantly, consider refactoring into sub-structs.
type Config struct {
	// Subnet is the CIDR range to scan, e.g. "192.168.1.0/24".
	// Required unless mDNS discovery is used as the sole host source.
	Subnet string

	// Concurrency is the maximum number of simultaneous probes.
	// Higher values increase throughput but use more sockets and may
	// overwhelm consumer network gear.
	Concurrency int

	// ProbeTimeout is the per-probe connection and handshake deadline.
	// This applies to individual probes, not the overall scan duration.
	ProbeTimeout time.Duration

	// OutputFile is the path of the plain-text URL sink written after
	// every scan. Set to "-" to suppress the file entirely.
	OutputFile string

	// JSONReport enables JSON report output instead of human-readable format.
	// When true, outputs the full scan result with all discovered streams.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of human-readable
	// format. When true, outputs GitHub Flavored Markdown with summary and
	// stream tables. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	// Directories are created automatically if they don't exist.
	ReportFile string

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .streamhunter in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// Overrides holds the probe-matrix overrides loaded from the config file.
	// This is populated by LoadConfigFile and used to build the port matrix.
	Overrides *File

	// UseMDNS enables mDNS/Bonjour discovery of candidate hosts in addition
	// to (or instead of) the CIDR sweep.
	UseMDNS bool

	// MDNSTimeout is the browse window for mDNS discovery.
	// Only used when UseMDNS is true.
	MDNSTimeout time.Duration

	// SaveToDB indicates whether to save scan results to the database.
	// Enabled by default; disable with --no-db for one-off scans.
	SaveToDB bool

	// DBDir is the directory path for storing the SQLite database.
	// Defaults to the XDG data directory (~/.local/share/streamhunter on Linux).
	DBDir string

	// Monitor keeps the process alive after the scan and periodically
	// rechecks discovered streams, recording liveness in the database.
	Monitor bool

	// MonitorInterval is the pause between monitor liveness sweeps.
	// Only used when Monitor is true.
	MonitorInterval time.Duration

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use cases.
// Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeout, concurrency).
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		Concurrency:     DefaultConcurrency,
		ProbeTimeout:    DefaultProbeTimeout,
		OutputFile:      DefaultOutputFile,
		MDNSTimeout:     DefaultMDNSTimeout,
		SaveToDB:        true,
		DBDir:           XDGDataDir(),
		MonitorInterval: DefaultMonitorInterval,
	}
}

// XDGDataDir returns the XDG data directory for StreamHunter.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/streamhunter
// On macOS: ~/Library/Application Support/streamhunter
// On Windows: %LOCALAPPDATA%\streamhunter
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for StreamHunter.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.config/streamhunter
// On macOS: ~/Library/Application Support/streamhunter
// On Windows: %APPDATA%\streamhunter
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any scanning begins.
//
// We chose to return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	// We need at least one host source: a subnet or mDNS discovery
	if c.Subnet == "" && !c.UseMDNS {
		return ErrNoTarget
	}

	// Concurrency must be positive; zero would mean no scanning
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	// Timeout must be positive; zero timeout would cause immediate failures
	if c.ProbeTimeout <= 0 {
		return ErrInvalidTimeout
	}

	// JSONReport and MarkdownReport are mutually exclusive
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	// The monitor needs a positive interval to make progress
	if c.Monitor && c.MonitorInterval <= 0 {
		return ErrInvalidMonitorInterval
	}

	return nil
}
