package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestPrefixWriter(t *testing.T) {
	tests := []struct {
		name   string
		writes []string
		want   string
	}{
		{
			name:   "single line",
			writes: []string{"hello\n"},
			want:   "> hello\n",
		},
		{
			name:   "two lines in one write",
			writes: []string{"a\nb\n"},
			want:   "> a\n> b\n",
		},
		{
			name:   "line split across writes",
			writes: []string{"hel", "lo\nwor", "ld\n"},
			want:   "> hello\n> world\n",
		},
		{
			name:   "partial line held back",
			writes: []string{"pending"},
			want:   "",
		},
		{
			name:   "partial line completed later",
			writes: []string{"pend", "ing", "\n"},
			want:   "> pending\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			pw := NewPrefixWriter("> ", &out)
			for _, w := range tt.writes {
				n, err := pw.Write([]byte(w))
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if n != len(w) {
					t.Errorf("Write returned %d, want %d", n, len(w))
				}
			}
			if got := out.String(); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveLevel(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	if got := ResolveLevel(""); got != "warn" {
		t.Errorf("default level = %q, want warn", got)
	}

	t.Setenv(EnvLogLevel, "debug")
	if got := ResolveLevel(""); got != "debug" {
		t.Errorf("env level = %q, want debug", got)
	}
	if got := ResolveLevel("trace"); got != "trace" {
		t.Errorf("flag level = %q, want trace", got)
	}
}

func TestNewLoggerEmitsWholeLines(t *testing.T) {
	t.Setenv(EnvJSONLog, "")
	var out bytes.Buffer
	logger := NewLogger("test", "info", &out)
	logger.Info("first", "key", "value")
	logger.Warn("second")

	got := out.String()
	if !strings.HasSuffix(got, "\n") {
		t.Fatalf("output %q has a held-back partial line", got)
	}
	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), got)
	}
	for _, line := range lines {
		if !strings.HasPrefix(line, linePrefix) {
			t.Errorf("line %q lacks prefix %q", line, linePrefix)
		}
	}
}
