// Package ics renders extraction results as iCalendar documents and reads
// them back. Events become VEVENTs (with RRULE when recurring), to-dos
// become VTODOs.
package ics

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/rs/zerolog"

	"github.com/hearthside/eventsift/internal/model"
	"github.com/hearthside/eventsift/internal/recurrence"
)

const (
	service = "eventsift"
	// uidSuffix qualifies record IDs into globally unique UIDs.
	uidSuffix = "@" + service

	propConfidence = ical.ComponentProperty("X-EVENTSIFT-CONFIDENCE")
	propPattern    = ical.ComponentProperty("X-EVENTSIFT-PATTERN")
)

// Events builds a PUBLISH calendar holding one VEVENT per event. stamp is
// written as DTSTAMP on every component.
func Events(events []model.NormalizedEvent, name string, stamp time.Time) *ical.Calendar {
	cal := newCalendar(name)
	for _, ev := range events {
		ve := cal.AddEvent(ev.ID + uidSuffix)
		ve.SetDtStampTime(stamp)
		ve.SetSummary(ev.Title)
		ve.SetStartAt(ev.StartTime)
		ve.SetEndAt(ev.EndTime)
		if ev.Description != "" {
			ve.SetDescription(ev.Description)
		}
		if ev.Location != "" {
			ve.SetLocation(ev.Location)
		}
		if rule := recurrence.Format(ev.RecurrenceRule); rule != "" {
			ve.AddRrule(rule)
		}
		if ev.RecurringPattern != "" {
			ve.SetProperty(propPattern, ev.RecurringPattern)
		}
		ve.SetProperty(propConfidence, strconv.FormatFloat(ev.Confidence, 'f', -1, 64))
	}
	return cal
}

// Todos builds a PUBLISH calendar holding one VTODO per item.
func Todos(items []model.TodoItem, name string, stamp time.Time) *ical.Calendar {
	cal := newCalendar(name)
	for _, it := range items {
		vt := cal.AddTodo(it.ID + uidSuffix)
		vt.SetDtStampTime(stamp)
		vt.SetSummary(it.Title)
		if it.Description != "" {
			vt.SetDescription(it.Description)
		}
		if it.DueDate != nil {
			vt.SetAllDayDueAt(*it.DueDate)
		}
		vt.SetPriority(priorityLevel(it.Priority))
		if it.Completed {
			vt.SetStatus(ical.ObjectStatusCompleted)
		} else {
			vt.SetStatus(ical.ObjectStatusNeedsAction)
		}
		vt.SetProperty(propConfidence, strconv.FormatFloat(it.Confidence, 'f', -1, 64))
	}
	return cal
}

func newCalendar(name string) *ical.Calendar {
	cal := ical.NewCalendarFor(service)
	cal.SetMethod(ical.MethodPublish)
	if name != "" {
		cal.SetXWRCalName(name)
	}
	return cal
}

// priorityLevel maps to RFC 5545 PRIORITY: 1 highest, 9 lowest.
func priorityLevel(p string) int {
	switch p {
	case model.PriorityHigh:
		return 1
	case model.PriorityLow:
		return 9
	default:
		return 5
	}
}

// Write serializes cal with CRLF line endings.
func Write(w io.Writer, cal *ical.Calendar) error {
	if err := cal.SerializeTo(w, ical.WithNewLineWindows); err != nil {
		return fmt.Errorf("serializing calendar: %w", err)
	}
	return nil
}

// Parse reads the VEVENTs of an iCalendar document back into events.
// VEVENTs without a UID or a usable DTSTART are logged and skipped so one
// bad component does not lose the rest of the calendar.
func Parse(body []byte, log zerolog.Logger) ([]model.NormalizedEvent, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errors.New("empty ICS body")
	}
	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing calendar: %w", err)
	}

	events := make([]model.NormalizedEvent, 0)
	for _, ve := range cal.Events() {
		ev, err := parseVEvent(ve)
		if err != nil {
			log.Warn().Err(err).Str("uid", ve.Id()).Msg("skipping vevent")
			continue
		}
		events = append(events, ev)
	}
	log.Debug().Int("event_count", len(events)).Msg("ics parse completed")
	return events, nil
}

func parseVEvent(ve *ical.VEvent) (model.NormalizedEvent, error) {
	var out model.NormalizedEvent

	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || uid.Value == "" {
		return out, errors.New("missing UID")
	}
	out.ID = strings.TrimSuffix(uid.Value, uidSuffix)

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Title = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.Description = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		out.Location = p.Value
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return out, fmt.Errorf("DTSTART: %w", err)
	}
	out.StartTime = start
	if end, err := ve.GetEndAt(); err == nil && end.After(start) {
		out.EndTime = end
	} else {
		out.EndTime = start.Add(time.Hour)
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		if rule, ok := recurrence.Normalize(p.Value, start); ok {
			out.RecurrenceRule = rule
			out.IsRecurring = true
		}
	}
	if p := ve.GetProperty(propPattern); p != nil {
		out.RecurringPattern = p.Value
	}

	out.Confidence = 1
	if p := ve.GetProperty(propConfidence); p != nil {
		if c, err := strconv.ParseFloat(p.Value, 64); err == nil && c >= 0 && c <= 1 {
			out.Confidence = c
		}
	}
	return out, nil
}
