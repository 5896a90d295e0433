package report

import (
	"io"
	"strings"

	"github.com/DapperHoldings/streamhunter/internal/model"
)

// TextWriter outputs one stream URL per line.
// This is the format of the streams.txt sink: no headers, no counts,
// just URLs, so the file can be piped directly into players such as
// VLC or ffplay, or diffed between scans.
type TextWriter struct {
	baseWriter
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer) *TextWriter {
	return &TextWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the discovered stream URLs, one per line, in discovery
// order. An empty result produces an empty output rather than a header,
// keeping the file trivially machine-readable.
func (w *TextWriter) Write(result *model.ScanResult) (int, error) {
	urls := result.URLs()
	if len(urls) == 0 {
		return 0, nil
	}

	var sb strings.Builder
	for _, url := range urls {
		sb.WriteString(url)
		sb.WriteByte('\n')
	}

	return w.output.Write([]byte(sb.String()))
}
