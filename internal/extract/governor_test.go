package extract

import (
	"fmt"
	"testing"
	"time"

	"github.com/hearthside/eventsift/internal/model"
)

func govEvent(title string, hour int, conf float64) model.NormalizedEvent {
	start := at(2024, 1, 5, hour, 0)
	return model.NormalizedEvent{Title: title, StartTime: start, EndTime: start.Add(time.Hour), Confidence: conf}
}

func TestGovernor_DropMarkdownJunk(t *testing.T) {
	gov := NewGovernor(DefaultGovernorConfig())

	junk := []model.NormalizedEvent{
		govEvent("**", 9, 0.9),
		govEvent("---", 9, 0.9),
		govEvent("|---|---|", 9, 0.9),
		govEvent("```", 9, 0.9),
		govEvent("## ", 9, 0.9),
	}
	if result := gov.Apply(junk); len(result) != 0 {
		t.Errorf("expected 0 events after filtering junk, got %d: %+v", len(result), result)
	}
}

func TestGovernor_DropGenericTitles(t *testing.T) {
	gov := NewGovernor(DefaultGovernorConfig())

	events := []model.NormalizedEvent{
		govEvent("Untitled", 9, 0.9),
		govEvent("N/A", 10, 0.9),
		govEvent("未命名", 11, 0.9),
		govEvent("Dentist", 12, 0.9),
	}
	result := gov.Apply(events)
	if len(result) != 1 || result[0].Title != "Dentist" {
		t.Errorf("expected only Dentist, got %+v", result)
	}
}

func TestGovernor_Dedupe(t *testing.T) {
	gov := NewGovernor(DefaultGovernorConfig())

	events := []model.NormalizedEvent{
		govEvent("Gym", 7, 0.6),
		govEvent("Lunch", 12, 0.8),
		govEvent("  GYM", 7, 0.9),
		govEvent("Gym", 18, 0.5), // different start
	}
	result := gov.Apply(events)
	if len(result) != 3 {
		t.Fatalf("expected 3 events, got %d: %+v", len(result), result)
	}
	if result[0].Confidence != 0.9 || result[1].Title != "Lunch" || result[2].StartTime.Hour() != 18 {
		t.Errorf("unexpected order or winner: %+v", result)
	}
}

func TestGovernor_Cap(t *testing.T) {
	cfg := DefaultGovernorConfig()
	cfg.MaxEvents = 3
	gov := NewGovernor(cfg)

	events := make([]model.NormalizedEvent, 10)
	for i := range events {
		events[i] = govEvent(fmt.Sprintf("event %d", i), i+1, 0.5+float64(i)*0.05)
	}
	result := gov.Apply(events)
	if len(result) != 3 {
		t.Fatalf("expected 3 events (capped), got %d", len(result))
	}
	// the three most confident, in input order
	for i, want := range []string{"event 7", "event 8", "event 9"} {
		if result[i].Title != want {
			t.Errorf("result[%d] = %q, want %q", i, result[i].Title, want)
		}
	}
}

func TestGovernor_Unlimited(t *testing.T) {
	gov := NewGovernor(GovernorConfig{})
	events := make([]model.NormalizedEvent, 80)
	for i := range events {
		events[i] = govEvent(fmt.Sprintf("e%d", i), i%24, 0.8)
		events[i].StartTime = events[i].StartTime.AddDate(0, 0, i)
	}
	if result := gov.Apply(events); len(result) != 80 {
		t.Errorf("expected 80 events, got %d", len(result))
	}
}

func TestQualityScore(t *testing.T) {
	base := govEvent("Dentist", 9, 0.8)
	withLoc := base
	withLoc.Location = "Clinic"
	if qualityScore(withLoc) <= qualityScore(base) {
		t.Error("location should raise the score")
	}
	short := govEvent("Hi", 9, 0.8)
	if qualityScore(short) >= qualityScore(base) {
		t.Error("short titles should lower the score")
	}
	top := govEvent("Dentist", 9, 1)
	top.Location, top.Description = "x", "y"
	if qualityScore(top) != 1 {
		t.Errorf("score not clamped: %v", qualityScore(top))
	}
}
