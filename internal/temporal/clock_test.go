package temporal

import "testing"

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"7", 7, true},
		{"三", 3, true},
		{"兩", 2, true},
		{"十", 10, true},
		{"十二", 12, true},
		{"二十", 20, true},
		{"二十三", 23, true},
		{"二三", 0, false},
		{"", 0, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseNumber(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseNumber(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestApplyPeriod(t *testing.T) {
	tests := []struct {
		hour int
		p    period
		want int
	}{
		{3, periodAfternoon, 15},
		{12, periodAfternoon, 12},
		{8, periodEvening, 20},
		{12, periodMorning, 0},
		{9, periodMorning, 9},
		{12, periodDawn, 0},
		{1, periodNoon, 12},
		{5, periodNone, 5},
	}
	for _, tt := range tests {
		if got := applyPeriod(tt.hour, tt.p); got != tt.want {
			t.Errorf("applyPeriod(%d, %d) = %d, want %d", tt.hour, tt.p, got, tt.want)
		}
	}
}

func TestFindClock(t *testing.T) {
	tests := []struct {
		in   string
		want Clock
		ok   bool
	}{
		{"明天下午3點開會", Clock{Hour: 15}, true},
		{"lunch at 12:30 with bob", Clock{Hour: 12, Minute: 30}, true},
		{"call mom at 3:30 pm", Clock{Hour: 15, Minute: 30}, true},
		{"2024-13-45T15:00:00", Clock{Hour: 15}, true},
		{"dinner tonight at 7", Clock{Hour: 19}, true},
		{"tomorrow at 3", Clock{Hour: 15}, true},
		{"breakfast at 8 o'clock", Clock{Hour: 8}, true},
		{"at 10", Clock{Hour: 10}, true},
		{"at 25", Clock{}, false},
		{"room 1234", Clock{}, false},
		{"no time here", Clock{}, false},
	}
	for _, tt := range tests {
		got, ok := FindClock(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("FindClock(%q) = %+v, %v; want %+v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseClockRequiresWholeString(t *testing.T) {
	if _, _, ok := ParseClock("meet at 15:30"); ok {
		t.Fatal("expected surrounding text to prevent a full match")
	}
	c, name, ok := ParseClock("15:30")
	if !ok || name != "clock_24h" || c.Hour != 15 || c.Minute != 30 {
		t.Fatalf("unexpected result %+v %q %v", c, name, ok)
	}
}
