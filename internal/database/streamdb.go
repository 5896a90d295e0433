package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/DapperHoldings/streamhunter/internal/model"
)

// StreamDB provides SQLite-based storage for discovered streams and scan
// history. It manages connection pooling and provides methods for CRUD
// operations.
//
// Design decision: We use a single database file for all scans rather than
// one file per subnet. Streams are keyed by URL, so history across repeated
// scans of the same network accumulates naturally in one place.
type StreamDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures StreamDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a StreamDB at the specified path.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*StreamDB, error) {
	dbPath := filepath.Join(dbDir, "streamhunter.db")

	// Check if we should create the database or require it to exist
	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Build connection string
	// We use modernc.org/sqlite which uses a different connection string format.
	// When CreateIfNotExists is false, we use mode=rw to prevent creating new files.
	// When CreateIfNotExists is true, we use mode=rwc to allow creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	// SQLite doesn't benefit from multiple connections for writes,
	// but multiple readers can improve performance
	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &StreamDB{
		db:     db,
		dbPath: dbPath,
	}

	// Enable WAL mode if requested
	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	// Create tables
	if err := sdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return sdb, nil
}

// Close closes the database connection.
func (sdb *StreamDB) Close() error {
	return sdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (sdb *StreamDB) createTables() error {
	schema := `
	-- Streams store every endpoint ever confirmed, keyed by URL
	CREATE TABLE IF NOT EXISTS streams (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL UNIQUE,
		protocol TEXT NOT NULL,
		host TEXT NOT NULL,
		port INTEGER NOT NULL,
		first_seen DATETIME DEFAULT CURRENT_TIMESTAMP,
		last_seen DATETIME DEFAULT CURRENT_TIMESTAMP,
		active INTEGER NOT NULL DEFAULT 1
	);

	CREATE INDEX IF NOT EXISTS idx_streams_host ON streams(host);
	CREATE INDEX IF NOT EXISTS idx_streams_protocol ON streams(protocol);
	CREATE INDEX IF NOT EXISTS idx_streams_active ON streams(active);

	-- Scans record one row per completed or cancelled sweep
	CREATE TABLE IF NOT EXISTS scans (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		target TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		duration_ms INTEGER NOT NULL,
		total_units INTEGER NOT NULL,
		completed_units INTEGER NOT NULL,
		streams_found INTEGER NOT NULL,
		status TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_scans_target ON scans(target);
	CREATE INDEX IF NOT EXISTS idx_scans_started ON scans(started_at);
	`

	_, err := sdb.db.ExecContext(context.Background(), schema)
	return err
}

// StreamRecord represents a stored stream with its liveness history.
type StreamRecord struct {
	ID        int64
	URL       string
	Protocol  string
	Host      string
	Port      uint16
	FirstSeen time.Time
	LastSeen  time.Time
	Active    bool
}

// UpsertStream inserts a newly discovered stream or refreshes an existing
// one. On conflict the row keeps its first_seen, bumps last_seen, and is
// marked active again, so a stream that disappeared and came back shows a
// continuous history.
func (sdb *StreamDB) UpsertStream(ctx context.Context, stream model.Stream) error {
	query := `
	INSERT INTO streams (url, protocol, host, port, first_seen, last_seen, active)
	VALUES (?, ?, ?, ?, ?, ?, 1)
	ON CONFLICT(url) DO UPDATE SET
		last_seen = excluded.last_seen,
		active = 1
	`

	now := stream.FoundAt
	if now.IsZero() {
		now = time.Now()
	}

	_, err := sdb.db.ExecContext(ctx, query,
		stream.URL,
		stream.Protocol.String(),
		stream.Host,
		stream.Port,
		now.UTC().Format(time.RFC3339),
		now.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert stream: %w", err)
	}

	return nil
}

// MarkInactive flags a stream as no longer reachable.
// The row is kept so history survives; last_seen is left untouched and
// records the last moment the stream actually answered.
func (sdb *StreamDB) MarkInactive(ctx context.Context, url string) error {
	query := `UPDATE streams SET active = 0 WHERE url = ?`

	if _, err := sdb.db.ExecContext(ctx, query, url); err != nil {
		return fmt.Errorf("failed to mark stream inactive: %w", err)
	}

	return nil
}

// ListStreams returns stored streams ordered by first discovery.
// When activeOnly is true, streams currently marked inactive are skipped.
func (sdb *StreamDB) ListStreams(ctx context.Context, activeOnly bool) ([]StreamRecord, error) {
	query := `
	SELECT id, url, protocol, host, port, first_seen, last_seen, active
	FROM streams
	`
	if activeOnly {
		query += " WHERE active = 1"
	}
	query += " ORDER BY first_seen, id"

	rows, err := sdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list streams: %w", err)
	}
	defer rows.Close()

	var records []StreamRecord
	for rows.Next() {
		var (
			rec                 StreamRecord
			firstSeen, lastSeen string
			active              int
		)
		err := rows.Scan(
			&rec.ID,
			&rec.URL,
			&rec.Protocol,
			&rec.Host,
			&rec.Port,
			&firstSeen,
			&lastSeen,
			&active,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stream: %w", err)
		}

		rec.FirstSeen = parseTimestamp(firstSeen)
		rec.LastSeen = parseTimestamp(lastSeen)
		rec.Active = active != 0
		records = append(records, rec)
	}

	return records, rows.Err()
}

// GetStream retrieves a single stream by URL.
// Returns nil without error when the URL has never been recorded.
func (sdb *StreamDB) GetStream(ctx context.Context, url string) (*StreamRecord, error) {
	query := `
	SELECT id, url, protocol, host, port, first_seen, last_seen, active
	FROM streams
	WHERE url = ?
	`

	var (
		rec                 StreamRecord
		firstSeen, lastSeen string
		active              int
	)
	err := sdb.db.QueryRowContext(ctx, query, url).Scan(
		&rec.ID,
		&rec.URL,
		&rec.Protocol,
		&rec.Host,
		&rec.Port,
		&firstSeen,
		&lastSeen,
		&active,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stream: %w", err)
	}

	rec.FirstSeen = parseTimestamp(firstSeen)
	rec.LastSeen = parseTimestamp(lastSeen)
	rec.Active = active != 0

	return &rec, nil
}

// SaveScan records a completed or cancelled scan and upserts every stream
// it found. The scan row and the stream upserts are not wrapped in one
// transaction; a partial save after a crash only costs history, never
// correctness.
func (sdb *StreamDB) SaveScan(ctx context.Context, result *model.ScanResult) error {
	query := `
	INSERT INTO scans (target, started_at, duration_ms, total_units, completed_units, streams_found, status)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := sdb.db.ExecContext(ctx, query,
		result.Target,
		result.StartedAt.UTC().Format(time.RFC3339),
		result.Duration.Milliseconds(),
		result.TotalUnits,
		result.CompletedUnits,
		len(result.Streams),
		result.Status.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to save scan: %w", err)
	}

	for _, stream := range result.Streams {
		if err := sdb.UpsertStream(ctx, stream); err != nil {
			return err
		}
	}

	return nil
}

// ScanRecord contains summary information about a past scan.
type ScanRecord struct {
	ID             int64
	Target         string
	StartedAt      time.Time
	Duration       time.Duration
	TotalUnits     int
	CompletedUnits int
	StreamsFound   int
	Status         string
}

// ListScans returns past scans, most recent first.
func (sdb *StreamDB) ListScans(ctx context.Context) ([]ScanRecord, error) {
	query := `
	SELECT id, target, started_at, duration_ms, total_units, completed_units, streams_found, status
	FROM scans
	ORDER BY started_at DESC, id DESC
	`

	rows, err := sdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list scans: %w", err)
	}
	defer rows.Close()

	var records []ScanRecord
	for rows.Next() {
		var (
			rec        ScanRecord
			startedAt  string
			durationMS int64
		)
		err := rows.Scan(
			&rec.ID,
			&rec.Target,
			&startedAt,
			&durationMS,
			&rec.TotalUnits,
			&rec.CompletedUnits,
			&rec.StreamsFound,
			&rec.Status,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}

		rec.StartedAt = parseTimestamp(startedAt)
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		records = append(records, rec)
	}

	return records, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339,              // our own writes
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
