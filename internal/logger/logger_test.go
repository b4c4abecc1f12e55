package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"", zerolog.WarnLevel},
		{"   nonsense   ", zerolog.WarnLevel},
	}
	for _, c := range cases {
		if got := parseLevel(c.in); got != c.want {
			t.Fatalf("parseLevel(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log := Named(New(Options{Level: "debug", Format: "json", Service: "eventsift", Writer: &buf}), "extract")

	log.Debug().Str("stage", "unwrapping").Msg("transition")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected one JSON line, got %q: %v", buf.String(), err)
	}
	if line["service"] != "eventsift" || line["component"] != "extract" || line["stage"] != "unwrapping" || line["message"] != "transition" {
		t.Fatalf("unexpected fields: %v", line)
	}
	if n := strings.Count(buf.String(), `"component"`); n != 1 {
		t.Fatalf("component key written %d times: %s", n, buf.String())
	}
}

func TestNewConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var buf bytes.Buffer
			New(Options{Level: "info", Format: "json", Writer: &buf}).Info().Msg("x")
		}()
	}
	wg.Wait()
	if zerolog.TimeFieldFormat != time.RFC3339Nano {
		t.Fatalf("TimeFieldFormat = %q", zerolog.TimeFieldFormat)
	}
}

func TestNewFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: "warn", Format: "json", Writer: &buf})
	log.Info().Msg("hidden")
	log.Warn().Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestNamedAndConsole(t *testing.T) {
	var buf bytes.Buffer
	log := Named(New(Options{Level: "info", Format: "console", Writer: &buf}), "mcp")
	log.Info().Msg("named-msg")

	out := buf.String()
	if !strings.Contains(out, "named-msg") || !strings.Contains(out, "component=") {
		t.Fatalf("unexpected console output %q", out)
	}
}
