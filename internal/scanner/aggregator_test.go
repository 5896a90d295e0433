package scanner

import (
	"net/netip"
	"testing"

	"github.com/DapperHoldings/streamhunter/internal/model"
	"github.com/DapperHoldings/streamhunter/internal/probe"
)

func foundResult(url string) *probe.Result {
	r := probe.NewResult(model.ProtocolRTSP, netip.MustParseAddr("192.168.1.1"), 554)
	r.Found = true
	r.URL = url
	return r
}

// TestAggregator tests the dedup and ordering laws.
func TestAggregator(t *testing.T) {
	t.Parallel()

	t.Run("recording the same URL twice yields one entry", func(t *testing.T) {
		t.Parallel()

		agg := NewAggregator()

		stream, added := agg.Record(foundResult("rtsp://192.168.1.1:554/stream"))
		if !added || stream == nil {
			t.Fatal("expected first record to insert")
		}

		stream, added = agg.Record(foundResult("rtsp://192.168.1.1:554/stream"))
		if added || stream != nil {
			t.Error("expected duplicate record to be a no-op")
		}

		if agg.Len() != 1 {
			t.Errorf("expected 1 stream, got %d", agg.Len())
		}
	})

	t.Run("preserves first-seen order", func(t *testing.T) {
		t.Parallel()

		agg := NewAggregator()
		urls := []string{
			"rtsp://192.168.1.3:554/stream",
			"rtsp://192.168.1.1:554/stream",
			"rtsp://192.168.1.2:554/stream",
		}
		for _, url := range urls {
			agg.Record(foundResult(url))
		}

		snapshot := agg.Snapshot()
		if len(snapshot) != 3 {
			t.Fatalf("expected 3 streams, got %d", len(snapshot))
		}
		for i, url := range urls {
			if snapshot[i].URL != url {
				t.Errorf("position %d: expected %q, got %q", i, url, snapshot[i].URL)
			}
		}
	})

	t.Run("ignores not-found and error outcomes", func(t *testing.T) {
		t.Parallel()

		agg := NewAggregator()

		miss := probe.NewResult(model.ProtocolHLS, netip.MustParseAddr("192.168.1.1"), 8080)
		if _, added := agg.Record(miss); added {
			t.Error("not-found outcome must not insert")
		}

		fault := probe.NewResult(model.ProtocolHLS, netip.MustParseAddr("192.168.1.1"), 8080)
		fault.ErrKind = probe.ErrorTimeout
		if _, added := agg.Record(fault); added {
			t.Error("error outcome must not insert")
		}

		if _, added := agg.Record(nil); added {
			t.Error("nil outcome must not insert")
		}

		if agg.Len() != 0 {
			t.Errorf("expected empty aggregator, got %d entries", agg.Len())
		}
	})

	t.Run("snapshot is isolated from later mutation", func(t *testing.T) {
		t.Parallel()

		agg := NewAggregator()
		agg.Record(foundResult("rtsp://192.168.1.1:554/stream"))

		snapshot := agg.Snapshot()
		agg.Record(foundResult("rtsp://192.168.1.2:554/stream"))

		if len(snapshot) != 1 {
			t.Errorf("expected earlier snapshot to stay at 1 entry, got %d", len(snapshot))
		}
	})
}
