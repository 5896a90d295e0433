// Package report provides output formatting for scan results.
// It supports plain text (one stream URL per line, suitable for feeding
// straight into media players), JSON for tool integration, and GitHub
// Flavored Markdown for documentation and sharing.
package report
