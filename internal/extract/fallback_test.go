package extract

import (
	"strings"
	"testing"
	"time"
)

func TestFallback(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		path  FallbackPath
		start time.Time
		conf  float64
	}{
		{"relative date and time", "明天下午3點開會", FallbackNoJSON, at(2024, 1, 2, 15, 0), confidenceNoJSON},
		{"english phrase", "dinner next tuesday 7pm", FallbackRejected, at(2024, 1, 9, 19, 0), confidenceRejected},
		{"date only", "dentist on friday", FallbackNoJSON, at(2024, 1, 5, 9, 0), confidenceNoJSON},
		{"time only, later today", "call at 15:30", FallbackNoJSON, at(2024, 1, 1, 15, 30), confidenceNoJSON},
		{"time only, already passed", "call at 8am", FallbackNoJSON, at(2024, 1, 2, 8, 0), confidenceNoJSON},
		{"today at a passed hour", "today 8am standup", FallbackNoJSON, at(2024, 1, 2, 8, 0), confidenceNoJSON},
		{"no cue", "buy flowers", FallbackNoJSON, at(2024, 1, 2, 9, 0), confidenceNoJSON},
		{"parse error with cue", "明天 review", FallbackParseError, at(2024, 1, 2, 9, 0), confidenceParseCue},
		{"parse error without cue", "review the doc", FallbackParseError, at(2024, 1, 2, 9, 0), confidenceParseNoCue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := Fallback(tt.text, ref, tt.path)
			if ev == nil {
				t.Fatal("Fallback returned nil")
			}
			if !ev.StartTime.Equal(tt.start) {
				t.Errorf("start = %v, want %v", ev.StartTime, tt.start)
			}
			if ev.EndTime.Sub(ev.StartTime) != time.Hour {
				t.Errorf("duration = %v", ev.EndTime.Sub(ev.StartTime))
			}
			if ev.StartTime.Before(ref) {
				t.Errorf("start %v lies before ref", ev.StartTime)
			}
			if ev.Confidence != tt.conf {
				t.Errorf("confidence = %v, want %v", ev.Confidence, tt.conf)
			}
			if ev.Title != tt.text || ev.Description != tt.text {
				t.Errorf("title/description = %q / %q", ev.Title, ev.Description)
			}
		})
	}
}

func TestFallbackEmpty(t *testing.T) {
	for _, s := range []string{"", "  ", "\n\t"} {
		if ev := Fallback(s, ref, FallbackNoJSON); ev != nil {
			t.Errorf("Fallback(%q) = %+v, want nil", s, ev)
		}
	}
}

func TestTruncateTitle(t *testing.T) {
	long := strings.Repeat("會", 60)
	got := truncateTitle(long)
	if want := strings.Repeat("會", MaxTitleLength) + "..."; got != want {
		t.Errorf("truncateTitle = %q, want %q", got, want)
	}
	if got := truncateTitle("line one\nline   two"); got != "line one line two" {
		t.Errorf("whitespace not collapsed: %q", got)
	}
	exact := strings.Repeat("a", MaxTitleLength)
	if got := truncateTitle(exact); got != exact {
		t.Errorf("title at the limit was cut: %q", got)
	}
}

func TestFallbackPathString(t *testing.T) {
	for p, want := range map[FallbackPath]string{
		FallbackNoJSON:     "no_json",
		FallbackParseError: "parse_error",
		FallbackRejected:   "rejected",
		FallbackPath(42):   "unknown",
	} {
		if got := p.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(p), got, want)
		}
	}
}
