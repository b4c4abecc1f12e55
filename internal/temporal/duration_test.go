package temporal

import (
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", time.Hour},
		{"0", time.Hour},
		{"nonsense", time.Hour},
		{"45", 45 * time.Minute},
		{"90 min", 90 * time.Minute},
		{"1.5 hours", 90 * time.Minute},
		{"2 hrs", 2 * time.Hour},
		{"1 hr 30 min", 90 * time.Minute},
		{"1h30m", 90 * time.Minute},
		{"half an hour", 30 * time.Minute},
		{"an hour", time.Hour},
		{"2小時30分", 150 * time.Minute},
		{"半小時", 30 * time.Minute},
		{"一個半小時", 90 * time.Minute},
		{"三小时", 3 * time.Hour},
		{"2時間", 2 * time.Hour},
		{"45分鐘", 45 * time.Minute},
	}
	for _, tt := range tests {
		if got := ParseDuration(tt.in); got != tt.want {
			t.Errorf("ParseDuration(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestEndFor(t *testing.T) {
	start := time.Date(2024, 1, 5, 7, 0, 0, 0, time.UTC)

	if got := EndFor(start, "", 0); !got.Equal(start.Add(time.Hour)) {
		t.Fatalf("expected default hour, got %s", got)
	}
	if got := EndFor(start, "", 30*time.Minute); !got.Equal(start.Add(30 * time.Minute)) {
		t.Fatalf("expected fallback duration, got %s", got)
	}
	if got := EndFor(start, "2h", 30*time.Minute); !got.Equal(start.Add(2 * time.Hour)) {
		t.Fatalf("expected explicit duration to win, got %s", got)
	}
}
