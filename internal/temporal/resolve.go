// Package temporal turns date and time strings into absolute instants.
//
// Every function takes the reference instant explicitly; nothing here reads
// the wall clock. Results are expressed in the reference's location.
package temporal

import (
	"regexp"
	"strings"
	"time"
)

// CanonicalLayout is the exact date-time shape exchanged with AI callers.
const CanonicalLayout = "2006-01-02 15:04:05"

// DefaultHour is the time given to a date that arrives without one.
const DefaultHour = 9

// Resolved is a successfully resolved temporal string.
type Resolved struct {
	Time time.Time
	// Rule names the pattern that matched.
	Rule string
	// TimeOnly is set when the input carried no date and Time sits on the
	// reference date.
	TimeOnly bool
}

type rule struct {
	name    string
	pattern *regexp.Regexp
	handle  func(m []string, s string, ref time.Time) (time.Time, bool)
}

// rules hold the absolute date shapes. Time-of-day and relative phrases
// are tried after them, in that order.
var rules = []rule{
	{name: "canonical", pattern: regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2}) (\d{2}):(\d{2}):(\d{2})$`), handle: handleComponents},
	{name: "iso_local", pattern: regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})t(\d{2}):(\d{2})(?::(\d{2})(?:\.\d+)?)?$`), handle: handleComponents},
	{name: "iso_zoned", pattern: isoZoned, handle: handleZoned},
	{name: "date_minute", pattern: regexp.MustCompile(`^(\d{4})[-/.](\d{1,2})[-/.](\d{1,2})[ t](\d{1,2}):(\d{2})(?::(\d{2}))?$`), handle: handleComponents},
	{name: "date_only", pattern: regexp.MustCompile(`^(\d{4})[-/.](\d{1,2})[-/.](\d{1,2})$`), handle: handleDateOnly},
}

var isoZoned = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[t ]\d{2}:\d{2}(?::\d{2}(?:\.\d+)?)?(?:z|[+-]\d{2}:?\d{2})$`)

var zonedLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04Z0700",
}

// Resolve converts s to an absolute instant relative to ref. Rules are
// tried in order and the first that matches with in-range components wins:
// the canonical "YYYY-MM-DD HH:mm:ss" shape, ISO 8601 without and with a
// zone, date-only forms, a bare time-of-day on ref's date, and finally a
// relative-date phrase with an optional time-of-day.
func Resolve(s string, ref time.Time) (Resolved, error) {
	f := fold(s)
	if f == "" {
		return Resolved{}, newError(ReasonEmpty, s)
	}
	for _, r := range rules {
		m := r.pattern.FindStringSubmatch(f)
		if m == nil {
			continue
		}
		if t, ok := r.handle(m, f, ref); ok {
			return Resolved{Time: t, Rule: r.name}, nil
		}
	}
	if c, name, ok := ParseClock(f); ok {
		y, mon, d := ref.Date()
		t := time.Date(y, mon, d, c.Hour, c.Minute, c.Second, 0, ref.Location())
		return Resolved{Time: t, Rule: name, TimeOnly: true}, nil
	}
	if t, ok := resolveRelative(f, ref); ok {
		return Resolved{Time: t, Rule: "relative"}, nil
	}
	return Resolved{}, newError(ReasonUnrecognized, s)
}

// Format renders t in the canonical layout.
func Format(t time.Time) string {
	return t.Format(CanonicalLayout)
}

func handleComponents(m []string, _ string, ref time.Time) (time.Time, bool) {
	c, ok := readComponents(m)
	if !ok || c.check(ref.Year(), false) != "" {
		return time.Time{}, false
	}
	return c.in(ref.Location()), true
}

func handleDateOnly(m []string, _ string, ref time.Time) (time.Time, bool) {
	c, ok := readComponents(m)
	if !ok || c.check(ref.Year(), false) != "" {
		return time.Time{}, false
	}
	c.hour = DefaultHour
	return c.in(ref.Location()), true
}

func handleZoned(_ []string, s string, ref time.Time) (time.Time, bool) {
	u := strings.ToUpper(strings.Replace(s, " ", "T", 1))
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, u); err == nil {
			return t.In(ref.Location()), true
		}
	}
	return time.Time{}, false
}

// resolveRelative reads "明天下午3點" or "next tuesday 7pm". A phrase with
// no time-of-day lands on DefaultHour.
func resolveRelative(s string, ref time.Time) (time.Time, bool) {
	rd, ok := ResolveRelativeDate(s, ref)
	if !ok {
		return time.Time{}, false
	}
	if c, ok := FindClock(s); ok {
		return At(rd.Date, c.Hour, c.Minute), true
	}
	return At(rd.Date, DefaultHour, 0), true
}
