package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/DapperHoldings/streamhunter/internal/model"
)

// SimpleWriter outputs a human-readable scan summary.
// This is the default console output: a short header, the discovered
// stream URLs grouped by protocol, and a one-line closing summary.
type SimpleWriter struct {
	baseWriter
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer) *SimpleWriter {
	return &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the human-readable summary.
func (w *SimpleWriter) Write(result *model.ScanResult) (int, error) {
	var sb strings.Builder

	sb.WriteString("--- Scan Summary ---\n")
	fmt.Fprintf(&sb, "Target:   %s\n", result.Target)
	fmt.Fprintf(&sb, "Probes:   %d/%d\n", result.CompletedUnits, result.TotalUnits)
	fmt.Fprintf(&sb, "Duration: %s\n", result.Duration.Round(10*time.Millisecond))
	fmt.Fprintf(&sb, "Status:   %s\n", result.Status)
	sb.WriteString("\n")

	if len(result.Streams) == 0 {
		sb.WriteString("No streaming endpoints detected.\n")
	} else {
		fmt.Fprintf(&sb, "Discovered %d stream(s):\n", len(result.Streams))
		for _, protocol := range model.Protocols() {
			for _, stream := range result.Streams {
				if stream.Protocol != protocol {
					continue
				}
				fmt.Fprintf(&sb, "  [%s] %s\n", strings.ToUpper(protocol.String()), stream.URL)
			}
		}
	}

	return w.output.Write([]byte(sb.String()))
}
