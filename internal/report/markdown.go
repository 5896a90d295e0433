package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"

	"github.com/DapperHoldings/streamhunter/internal/model"
)

// MarkdownWriter outputs scan results in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the scan result in Markdown format.
func (w *MarkdownWriter) Write(result *model.ScanResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, result)
	w.writeStreams(md, result)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with scan information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, result *model.ScanResult) {
	md.H1("StreamHunter Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Target", "`" + result.Target + "`"},
			{"Scan Date", result.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", result.Duration.Round(10 * time.Millisecond).String()},
			{"Probes", strconv.Itoa(result.CompletedUnits) + " / " + strconv.Itoa(result.TotalUnits)},
			{"Streams Found", strconv.Itoa(len(result.Streams))},
			{"Status", statusText(result)},
		},
	})
	md.PlainText("")

	if result.Status == model.ScanCancelled {
		md.Warningf(
			"Scan was cancelled after %d of %d probes. Results below are partial.",
			result.CompletedUnits, result.TotalUnits,
		)
		md.PlainText("")
	}
}

// statusText returns the status text based on scan outcome.
func statusText(result *model.ScanResult) string {
	if result.Status == model.ScanCancelled {
		return "⚠️ Cancelled (partial results)"
	}
	return "✅ Complete"
}

// writeStreams writes the discovered streams section.
func (w *MarkdownWriter) writeStreams(md *markdown.Markdown, result *model.ScanResult) {
	md.H2("Discovered Streams")
	md.PlainText("")

	if len(result.Streams) == 0 {
		md.PlainText("No streaming endpoints detected.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(result.Streams))
	for i, stream := range result.Streams {
		rows[i] = []string{
			"`" + stream.URL + "`",
			stream.Protocol.String(),
			stream.Host,
			strconv.Itoa(int(stream.Port)),
			stream.FoundAt.Format("15:04:05"),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"URL", "Protocol", "Host", "Port", "Found At"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [StreamHunter](https://github.com/DapperHoldings/streamhunter)*")
}
