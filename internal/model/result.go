package model

import (
	"fmt"
	"time"
)

// ScanStatus distinguishes fully completed scans from partial ones.
type ScanStatus int

const (
	// ScanCompleted means every work unit was resolved.
	ScanCompleted ScanStatus = iota

	// ScanCancelled means the scan was stopped early; the result holds
	// everything accumulated up to the cancellation point and is valid.
	ScanCancelled
)

// String returns the status name.
func (s ScanStatus) String() string {
	switch s {
	case ScanCompleted:
		return "completed"
	case ScanCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s ScanStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *ScanStatus) UnmarshalText(text []byte) error {
	switch string(text) {
	case "completed":
		*s = ScanCompleted
	case "cancelled":
		*s = ScanCancelled
	default:
		return fmt.Errorf("unknown scan status %q", string(text))
	}
	return nil
}

// ScanResult is the outcome of one scan run: the ordered set of discovered
// streams plus completion bookkeeping. Insertion order equals discovery
// order, and entries are never removed during a scan.
type ScanResult struct {
	// Target describes what was scanned (CIDR or "mdns").
	Target string `json:"target"`

	// Streams holds discovered endpoints in first-seen order,
	// deduplicated by exact URL.
	Streams []Stream `json:"streams"`

	// Status reports whether the scan ran to completion.
	Status ScanStatus `json:"status"`

	// TotalUnits is |hosts| x |work units per host|.
	TotalUnits int `json:"total_units"`

	// CompletedUnits is the number of units resolved before the scan
	// ended. Equal to TotalUnits on an uncancelled run.
	CompletedUnits int `json:"completed_units"`

	// StartedAt is when the scan began.
	StartedAt time.Time `json:"started_at"`

	// Duration is the total scan wall time.
	Duration time.Duration `json:"duration"`
}

// URLs returns the discovered stream URLs in discovery order.
func (r *ScanResult) URLs() []string {
	urls := make([]string, len(r.Streams))
	for i, s := range r.Streams {
		urls[i] = s.URL
	}
	return urls
}

// Completed reports whether every work unit was resolved.
func (r *ScanResult) Completed() bool {
	return r.Status == ScanCompleted && r.CompletedUnits == r.TotalUnits
}
