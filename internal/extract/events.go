package extract

import (
	"fmt"
	"time"

	"github.com/spf13/cast"

	"github.com/hearthside/eventsift/internal/model"
	"github.com/hearthside/eventsift/internal/recurrence"
	"github.com/hearthside/eventsift/internal/temporal"
)

// eventDraft is an event candidate with its start resolved but not yet
// validated.
type eventDraft struct {
	c        candidate
	startRaw string
	start    temporal.Resolved
	startErr error
}

var eventKind = kind[eventDraft, model.NormalizedEvent]{
	noun:       "event",
	schema:     eventSchema,
	resolve:    resolveEvent,
	validate:   validateEvent,
	finish:     governEvents,
	fallback:   fallbackEvents,
	confidence: func(e model.NormalizedEvent) float64 { return e.Confidence },
}

// Events extracts calendar events from raw, the text a model returned for
// userInput. ref is the reference instant every relative expression is
// resolved against. Events never fails; see model.Envelope.
func (p *Pipeline) Events(raw, userInput string, ref time.Time) model.Envelope[model.NormalizedEvent] {
	return execute(p.newRun("event", raw, userInput, ref), eventKind)
}

func resolveEvent(r *run, c candidate) (eventDraft, error) {
	d := eventDraft{c: c, startRaw: c.str("startTime")}
	d.start, d.startErr = temporal.Resolve(d.startRaw, r.ref)
	if d.startErr != nil {
		r.log.Debug().Str("input", d.startRaw).Err(d.startErr).Msg("start time unresolved")
		return d, nil
	}
	if d.start.TimeOnly {
		t := d.start.Time
		if day, ok := r.contextDate(c); ok {
			d.start.Time = temporal.OnDate(t, day)
		} else {
			d.start.Time = temporal.InferDate(t.Hour(), t.Minute(), r.ref)
		}
	}
	return d, nil
}

// contextDate finds a calendar day for a time-only start: the candidate's
// own date field, else a relative-date phrase in the user input.
func (r *run) contextDate(c candidate) (time.Time, bool) {
	if raw := c.str("date"); raw != "" {
		if res, err := temporal.Resolve(raw, r.ref); err == nil && !res.TimeOnly {
			return res.Time, true
		}
	}
	if rd, ok := temporal.ResolveRelativeDate(r.userInput, r.ref); ok {
		return rd.Date, true
	}
	return time.Time{}, false
}

func validateEvent(r *run, d eventDraft) (model.NormalizedEvent, error) {
	c := d.c
	start := d.start.Time
	var checked temporal.Resolved
	if d.startErr == nil {
		checked = d.start
	}
	if err := temporal.Check(d.startRaw, checked, r.ref); err != nil {
		repaired, ok := temporal.RepairTimeOfDay(d.startRaw, r.ref)
		if !ok || temporal.ValidateTime(repaired, r.ref) != nil {
			return model.NormalizedEvent{}, fmt.Errorf("start %q: %w", d.startRaw, err)
		}
		r.log.Debug().Str("input", d.startRaw).Str("reason", string(temporal.ReasonOf(err))).
			Time("repaired", repaired).Msg("start time repaired")
		start = repaired
	}

	ev := model.NormalizedEvent{
		ID:          r.p.newID(),
		Title:       c.str("title"),
		Description: c.str("description"),
		Location:    c.str("location"),
		StartTime:   start,
		Confidence:  DefaultConfidence,
		Extra:       c.extra,
	}
	if f, ok := confidenceOf(c.fields["confidence"]); ok {
		ev.Confidence = f
	}

	end, ok := r.resolveEnd(c.str("endTime"), start)
	if !ok {
		end = temporal.EndFor(start, c.str("duration"), r.p.durationFor(ev.Title, ev.Description))
	}
	ev.EndTime = end

	r.applyRecurrence(&ev, c)
	return ev, nil
}

// resolveEnd reads an explicit end time. A time-only end is placed on the
// start's day, rolling past midnight when needed. An end that does not
// resolve, fails validation or is not after start is discarded.
func (r *run) resolveEnd(raw string, start time.Time) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	res, err := temporal.Resolve(raw, r.ref)
	if err != nil {
		r.log.Debug().Str("input", raw).Err(err).Msg("end time unresolved, inferring")
		return time.Time{}, false
	}
	end := res.Time
	if res.TimeOnly {
		end = temporal.OnDate(end, start)
		if !end.After(start) {
			end = end.AddDate(0, 0, 1)
		}
	} else if err := temporal.Check(raw, res, r.ref); err != nil {
		r.log.Debug().Str("input", raw).Err(err).Msg("end time invalid, inferring")
		return time.Time{}, false
	}
	if !end.After(start) {
		r.log.Debug().Str("input", raw).Msg("end time not after start, inferring")
		return time.Time{}, false
	}
	return end, true
}

func (r *run) applyRecurrence(ev *model.NormalizedEvent, c candidate) {
	pattern := c.str("recurringPattern")
	var rule *model.RecurrenceRule
	if v, ok := c.fields["recurrenceRule"]; ok {
		rule, _ = recurrence.Normalize(v, r.ref)
		if s, isString := v.(string); isString && pattern == "" {
			pattern = s
		}
	}
	if rule == nil && pattern != "" {
		rule, _ = recurrence.Normalize(pattern, r.ref)
	}
	if rule == nil && (c.has("recurrenceRule") || pattern != "") {
		r.log.Debug().Str("pattern", pattern).Msg("recurrence dropped")
	}

	ev.RecurrenceRule = rule
	ev.RecurringPattern = pattern
	ev.IsRecurring = rule != nil || pattern != "" || c.present("recurrenceRule") || cast.ToBool(c.fields["isRecurring"])
}

func governEvents(r *run, recs []model.NormalizedEvent) []model.NormalizedEvent {
	if r.p.governor == nil {
		return recs
	}
	return r.p.governor.Apply(recs)
}

func fallbackEvents(r *run, text string, path FallbackPath) []model.NormalizedEvent {
	ev := Fallback(text, r.ref, path)
	if ev == nil {
		return nil
	}
	ev.ID = r.p.newID()
	return []model.NormalizedEvent{*ev}
}
