package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestLogLevelFiltering(t *testing.T) {
	tests := []struct {
		name        string
		configured  string
		logAt       func(*ConsoleLogger, string)
		wantVisible bool
	}{
		{"info shows info", "info", (*ConsoleLogger).LogInfo, true},
		{"info hides debug", "info", (*ConsoleLogger).LogDebug, false},
		{"info hides trace", "info", (*ConsoleLogger).LogTrace, false},
		{"info shows warn", "info", (*ConsoleLogger).LogWarn, true},
		{"error hides warn", "error", (*ConsoleLogger).LogWarn, false},
		{"error shows error", "error", (*ConsoleLogger).LogError, true},
		{"trace shows everything", "trace", (*ConsoleLogger).LogTrace, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			cl := NewConsoleLogger(&buf, tt.configured)
			tt.logAt(cl, "hello")

			got := strings.Contains(buf.String(), "hello")
			if got != tt.wantVisible {
				t.Errorf("visible = %v, want %v (output %q)", got, tt.wantVisible, buf.String())
			}
		})
	}
}

func TestInvalidLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	cl := NewConsoleLogger(&buf, "shout")

	cl.LogDebug("hidden")
	cl.LogInfo("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug message should be filtered at default level")
	}
	if !strings.Contains(out, "shown") {
		t.Error("info message should pass at default level")
	}
}

func TestNilWriterDiscards(t *testing.T) {
	cl := NewConsoleLogger(nil, "info")
	// Must not panic.
	cl.LogInfo("into the void")
}

func TestMessageFormat(t *testing.T) {
	var buf bytes.Buffer
	cl := NewConsoleLogger(&buf, "info")

	cl.LogWarn("disk almost full")

	out := buf.String()
	if !strings.Contains(out, "[WARN]") {
		t.Errorf("output %q missing level tag", out)
	}
	if !strings.HasPrefix(out, "[") {
		t.Errorf("output %q missing timestamp prefix", out)
	}
}
