package extract

import (
	"strings"
	"time"

	"github.com/hearthside/eventsift/internal/model"
	"github.com/hearthside/eventsift/internal/temporal"
)

// FallbackPath names why the structured path was abandoned.
type FallbackPath int

const (
	// FallbackNoJSON: the response carried no JSON at all.
	FallbackNoJSON FallbackPath = iota
	// FallbackParseError: JSON was located but could not be decoded, or a
	// stage failed unexpectedly.
	FallbackParseError
	// FallbackRejected: candidates existed but none survived.
	FallbackRejected
)

func (p FallbackPath) String() string {
	switch p {
	case FallbackNoJSON:
		return "no_json"
	case FallbackParseError:
		return "parse_error"
	case FallbackRejected:
		return "rejected"
	}
	return "unknown"
}

// confidence is the stage default for a fallback record. Parse failures
// score higher when the text carried a date or time cue.
func (p FallbackPath) confidence(cue bool) float64 {
	switch p {
	case FallbackNoJSON:
		return confidenceNoJSON
	case FallbackRejected:
		return confidenceRejected
	}
	if cue {
		return confidenceParseCue
	}
	return confidenceParseNoCue
}

// Fallback builds one best-effort event from free text. The title is the
// text cut to MaxTitleLength runes and the description is the full text.
// The start is tomorrow at temporal.DefaultHour unless the text names a
// relative date or a time of day, and never lies before ref. Empty text
// yields nil, and so does any internal failure.
func Fallback(text string, ref time.Time, path FallbackPath) (ev *model.NormalizedEvent) {
	defer func() {
		if recover() != nil {
			ev = nil
		}
	}()

	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	start, cue := fallbackStart(text, ref)
	return &model.NormalizedEvent{
		ID:          model.NewID(),
		Title:       truncateTitle(text),
		Description: text,
		StartTime:   start,
		EndTime:     start.Add(temporal.DefaultDuration),
		Confidence:  path.confidence(cue),
	}
}

func fallbackStart(text string, ref time.Time) (time.Time, bool) {
	rd, hasDate := temporal.ResolveRelativeDate(text, ref)
	clock, hasClock := temporal.FindClock(text)

	var start time.Time
	switch {
	case hasDate && hasClock:
		start = temporal.At(rd.Date, clock.Hour, clock.Minute)
	case hasDate:
		start = temporal.At(rd.Date, temporal.DefaultHour, 0)
	case hasClock:
		return temporal.InferDate(clock.Hour, clock.Minute, ref), true
	default:
		tomorrow := ref.AddDate(0, 0, 1)
		return temporal.At(tomorrow, temporal.DefaultHour, 0), false
	}
	// "today" with an hour that already passed
	if start.Before(ref) {
		start = start.AddDate(0, 0, 1)
	}
	return start, true
}
