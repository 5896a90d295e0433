package main

import (
	"bytes"
	"strings"
	"testing"
)

// TestNewVersionCmd tests the version command.
func TestNewVersionCmd(t *testing.T) {
	t.Parallel()

	t.Run("prints version information", func(t *testing.T) {
		t.Parallel()

		cmd := NewVersionCmd()
		var buf bytes.Buffer
		cmd.SetOut(&buf)

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		out := buf.String()
		if !strings.Contains(out, "streamhunter version") {
			t.Errorf("expected version line, got %q", out)
		}
		if !strings.Contains(out, "commit:") {
			t.Errorf("expected commit line, got %q", out)
		}
		if !strings.Contains(out, "built:") {
			t.Errorf("expected built line, got %q", out)
		}
	})
}

// TestGetVersion tests version string resolution.
func TestGetVersion(t *testing.T) {
	if got := getVersion(); got == "" {
		t.Error("expected non-empty version string")
	}
}
