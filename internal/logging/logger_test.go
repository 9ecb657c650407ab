package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{" info ", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
		{"verbose", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q): got %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLogger_FormatsKeyValues(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "pipeline", LevelDebug, 0)

	l.Info("sign located", "label", 3, "count", 4200, "dangling")

	got := buf.String()
	want := "[pipeline] [INFO] sign located label=3 count=4200\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestLogger_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "test", LevelWarn, 0)

	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown")
	l.Error("shown too")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("below-level messages written: %q", out)
	}
	if strings.Count(out, "\n") != 2 {
		t.Errorf("got %d lines, want 2: %q", strings.Count(out, "\n"), out)
	}
}

func TestLogger_NilAndDiscard(t *testing.T) {
	var l *Logger
	l.Info("no panic")
	if l.Enabled(LevelError) {
		t.Error("nil logger reports enabled")
	}

	d := Discard()
	d.Error("nothing")
	if d.Enabled(LevelError) {
		t.Error("discard logger reports enabled")
	}
}
