package logger

import (
	"bytes"
	"strings"
	"testing"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(nil)
		SetVerbose(false)
	})
	return &buf
}

func TestDebugAndInfoRequireVerbose(t *testing.T) {
	buf := capture(t)
	SetVerbose(false)

	Debug("hidden %d", 1)
	Info("hidden %d", 2)
	Section("Hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected no output without verbose mode, got %q", buf.String())
	}

	SetVerbose(true)
	Debug("shown %d", 1)
	Info("shown %d", 2)
	Section("Scan")

	out := buf.String()
	for _, want := range []string{"[DEBUG] shown 1", "[INFO] shown 2", "=== Scan ==="} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %q, got %q", want, out)
		}
	}
}

func TestWarnAndErrorAlwaysWrite(t *testing.T) {
	buf := capture(t)
	SetVerbose(false)

	Warn("skipping %s", "a.md")
	Error("boom")

	out := buf.String()
	if !strings.Contains(out, "[WARN] skipping a.md") {
		t.Fatalf("expected warning line, got %q", out)
	}
	if !strings.Contains(out, "[ERROR] boom") {
		t.Fatalf("expected error line, got %q", out)
	}
}
