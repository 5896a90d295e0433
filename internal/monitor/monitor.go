package monitor

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/net/proxy"
	"golang.org/x/sync/errgroup"

	"github.com/DapperHoldings/streamhunter/internal/model"
)

// Default monitor tuning.
const (
	// DefaultInterval is the pause between liveness sweeps.
	DefaultInterval = 10 * time.Second

	// DefaultWindow is how long a stream may stay unreachable before it
	// is marked inactive. Tolerates reboots and short network blips.
	DefaultWindow = 5 * time.Minute

	// DefaultCheckTimeout bounds each individual liveness check.
	DefaultCheckTimeout = 3 * time.Second

	// DefaultConcurrency limits simultaneous checks per sweep.
	DefaultConcurrency = 10
)

// Store persists liveness transitions observed by the monitor.
// *database.StreamDB satisfies this interface.
type Store interface {
	// UpsertStream refreshes a stream that answered a liveness check.
	UpsertStream(ctx context.Context, stream model.Stream) error

	// MarkInactive flags a stream that exceeded the inactivity window.
	MarkInactive(ctx context.Context, url string) error
}

// Monitor rechecks a fixed set of streams on a timer.
type Monitor struct {
	store       Store
	client      *http.Client
	dialer      proxy.Dialer
	interval    time.Duration
	window      time.Duration
	timeout     time.Duration
	concurrency int
	logger      *slog.Logger

	// lastSeen tracks the last successful check per URL.
	// Guarded by mu; sweeps run checks concurrently.
	mu       sync.Mutex
	lastSeen map[string]time.Time
	inactive map[string]bool
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithInterval sets the pause between sweeps.
func WithInterval(interval time.Duration) Option {
	return func(m *Monitor) {
		if interval > 0 {
			m.interval = interval
		}
	}
}

// WithWindow sets the inactivity window after which a stream is marked
// inactive.
func WithWindow(window time.Duration) Option {
	return func(m *Monitor) {
		if window > 0 {
			m.window = window
		}
	}
}

// WithCheckTimeout sets the per-check deadline.
func WithCheckTimeout(timeout time.Duration) Option {
	return func(m *Monitor) {
		if timeout > 0 {
			m.timeout = timeout
		}
	}
}

// WithHTTPClient replaces the HTTP client used for HLS and DASH checks.
func WithHTTPClient(client *http.Client) Option {
	return func(m *Monitor) {
		if client != nil {
			m.client = client
		}
	}
}

// WithDialer replaces the dialer used for RTSP and RTMP checks.
func WithDialer(dialer proxy.Dialer) Option {
	return func(m *Monitor) {
		if dialer != nil {
			m.dialer = dialer
		}
	}
}

// WithLogger sets the structured logger for sweep events.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Monitor) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New creates a Monitor that records liveness transitions in store.
func New(store Store, opts ...Option) *Monitor {
	m := &Monitor{
		store:       store,
		client:      &http.Client{},
		dialer:      &net.Dialer{},
		interval:    DefaultInterval,
		window:      DefaultWindow,
		timeout:     DefaultCheckTimeout,
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
		lastSeen:    make(map[string]time.Time),
		inactive:    make(map[string]bool),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run sweeps the given streams until ctx is cancelled.
// Every stream starts the clock as just-seen, so a stream must actually
// stay silent for a full window before being marked inactive.
// Cancellation is the normal way to stop the monitor and returns nil.
func (m *Monitor) Run(ctx context.Context, streams []model.Stream) error {
	now := time.Now()
	m.mu.Lock()
	for _, stream := range streams {
		m.lastSeen[stream.URL] = now
	}
	m.mu.Unlock()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.sweep(ctx, streams)
		}
	}
}

// sweep checks every stream once and records transitions.
func (m *Monitor) sweep(ctx context.Context, streams []model.Stream) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)

	for _, stream := range streams {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			m.checkOne(gctx, stream)
			return nil
		})
	}

	_ = g.Wait() //nolint:errcheck // workers never return errors
}

// checkOne performs a single liveness check and updates the store.
func (m *Monitor) checkOne(ctx context.Context, stream model.Stream) {
	alive := m.probe(ctx, stream)
	now := time.Now()

	if alive {
		m.mu.Lock()
		wasInactive := m.inactive[stream.URL]
		m.lastSeen[stream.URL] = now
		m.inactive[stream.URL] = false
		m.mu.Unlock()

		stream.FoundAt = now
		if err := m.store.UpsertStream(ctx, stream); err != nil {
			m.logger.Warn("failed to refresh stream", "url", stream.URL, "error", err)
			return
		}
		if wasInactive {
			m.logger.Info("stream is back", "url", stream.URL)
		}
		return
	}

	m.mu.Lock()
	last := m.lastSeen[stream.URL]
	expired := now.Sub(last) > m.window
	alreadyInactive := m.inactive[stream.URL]
	if expired {
		m.inactive[stream.URL] = true
	}
	m.mu.Unlock()

	if !expired || alreadyInactive {
		return
	}

	if err := m.store.MarkInactive(ctx, stream.URL); err != nil {
		m.logger.Warn("failed to mark stream inactive", "url", stream.URL, "error", err)
		return
	}
	m.logger.Info("stream went inactive", "url", stream.URL, "last_seen", last)
}

// probe checks reachability with the cheapest test that makes sense for
// the protocol: an HTTP GET for manifest-based streams, a TCP dial for
// session-based ones. A full handshake replay is unnecessary here; the
// scan already confirmed the protocol once.
func (m *Monitor) probe(ctx context.Context, stream model.Stream) bool {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	switch stream.Protocol {
	case model.ProtocolHLS, model.ProtocolDASH:
		return m.probeHTTP(ctx, stream.URL)
	default:
		return m.probeTCP(ctx, stream)
	}
}

func (m *Monitor) probeHTTP(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close() //nolint:errcheck // nothing useful to do on close failure
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func (m *Monitor) probeTCP(ctx context.Context, stream model.Stream) bool {
	addr := net.JoinHostPort(stream.Host, strconv.Itoa(int(stream.Port)))

	var conn net.Conn
	var err error
	if cd, ok := m.dialer.(proxy.ContextDialer); ok {
		conn, err = cd.DialContext(ctx, "tcp", addr)
	} else {
		conn, err = m.dialer.Dial("tcp", addr)
	}
	if err != nil {
		return false
	}
	_ = conn.Close() //nolint:errcheck // liveness check only needs the dial
	return true
}
