package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/hearthside/eventsift/internal/ics"
	"github.com/hearthside/eventsift/internal/model"
	"github.com/hearthside/eventsift/internal/recurrence"
	"github.com/hearthside/eventsift/internal/temporal"
)

const (
	formatJSON = "json"
	formatICS  = "ics"
)

// writeEnvelope renders env as indented JSON or, for events and to-dos,
// as an iCalendar document.
func writeEnvelope(w io.Writer, env any, format string, stamp time.Time) error {
	switch format {
	case formatJSON, "":
		b, err := json.MarshalIndent(env, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding envelope: %w", err)
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case formatICS:
		switch e := env.(type) {
		case model.Envelope[model.NormalizedEvent]:
			return ics.Write(w, ics.Events(e.Records, "eventsift", stamp))
		case model.Envelope[model.TodoItem]:
			return ics.Write(w, ics.Todos(e.Records, "eventsift", stamp))
		}
		return fmt.Errorf("ics output supports events and todos only")
	}
	return fmt.Errorf("unknown format %q (supported: json, ics)", format)
}

// writePreview lists the next n occurrences of every recurring event.
func writePreview(w io.Writer, env any, n int) error {
	e, ok := env.(model.Envelope[model.NormalizedEvent])
	if !ok || n <= 0 {
		return nil
	}
	for _, ev := range e.Records {
		if ev.RecurrenceRule == nil {
			continue
		}
		times, err := recurrence.Occurrences(ev.RecurrenceRule, ev.StartTime, n)
		if err != nil {
			return fmt.Errorf("expanding %q: %w", ev.Title, err)
		}
		fmt.Fprintf(w, "%s (%s):\n", ev.Title, recurrence.Format(ev.RecurrenceRule))
		for _, t := range times {
			fmt.Fprintf(w, "  %s  %s\n", temporal.Format(t), t.Weekday().String()[:3])
		}
	}
	return nil
}
