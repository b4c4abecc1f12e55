package temporal

import (
	"regexp"
	"strconv"
	"time"
)

// MaxDistance bounds how far a resolved instant may sit from now, in either
// direction.
const MaxDistance = 365 * 24 * time.Hour

// Year window relative to the reference year.
const (
	yearsBack    = 1
	yearsForward = 10
)

type components struct {
	year, month, day, hour, minute, second int
}

func readComponents(m []string) (components, bool) {
	var v [6]int
	for i := 1; i < len(m) && i <= 6; i++ {
		if m[i] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i])
		if err != nil {
			return components{}, false
		}
		v[i-1] = n
	}
	return components{v[0], v[1], v[2], v[3], v[4], v[5]}, true
}

// check returns the first failing reason, or "" when every component is in
// range. The year window is only applied when window is set.
func (c components) check(refYear int, window bool) Reason {
	switch {
	case window && (c.year < refYear-yearsBack || c.year > refYear+yearsForward):
		return ReasonYearOutOfRange
	case c.month < 1 || c.month > 12:
		return ReasonMonthOutOfRange
	case c.day < 1 || c.day > daysIn(c.year, time.Month(c.month)):
		return ReasonDayOutOfRange
	case c.hour < 0 || c.hour > 23:
		return ReasonHourOutOfRange
	case c.minute < 0 || c.minute > 59:
		return ReasonMinuteOutOfRange
	case c.second < 0 || c.second > 59:
		return ReasonSecondOutOfRange
	}
	return ""
}

func (c components) in(loc *time.Location) time.Time {
	return time.Date(c.year, time.Month(c.month), c.day, c.hour, c.minute, c.second, 0, loc)
}

var shapeRE = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})[ t](\d{1,2}):(\d{1,2})(?::(\d{1,2}))?(?:\.\d+)?(z|[+-]\d{2}:?\d{2})?$`)

// ValidateString checks a canonical or ISO date-time string component by
// component, then checks the resulting instant with ValidateTime. Strings
// without a zone are read in now's location.
func ValidateString(s string, now time.Time) (time.Time, error) {
	f := fold(s)
	if f == "" {
		return time.Time{}, newError(ReasonEmpty, s)
	}
	m := shapeRE.FindStringSubmatch(f)
	if m == nil {
		return time.Time{}, newError(ReasonUnrecognized, s)
	}
	c, ok := readComponents(m)
	if !ok {
		return time.Time{}, newError(ReasonUnrecognized, s)
	}
	if reason := c.check(now.Year(), true); reason != "" {
		return time.Time{}, newError(reason, s)
	}

	t := c.in(now.Location())
	if m[7] != "" {
		zoned, ok := handleZoned(nil, f, now)
		if !ok {
			return time.Time{}, newError(ReasonUnrecognized, s)
		}
		t = zoned
	}
	if err := ValidateTime(t, now); err != nil {
		return time.Time{}, newError(ReasonOf(err), s)
	}
	return t, nil
}

// ValidateTime applies the year window and the distance bound to an
// already resolved instant.
func ValidateTime(t, now time.Time) error {
	y := t.In(now.Location()).Year()
	if y < now.Year()-yearsBack || y > now.Year()+yearsForward {
		return newError(ReasonYearOutOfRange, Format(t))
	}
	d := t.Sub(now)
	if d < 0 {
		d = -d
	}
	if d > MaxDistance {
		return newError(ReasonTooFarFromNow, Format(t))
	}
	return nil
}

// looksAbsolute reports whether s has the date-time shape ValidateString
// understands.
func looksAbsolute(s string) bool {
	return shapeRE.MatchString(fold(s))
}

// Check validates raw against now, given its resolution r. r is the zero
// value when resolution failed. Strings in the absolute date-time shape are
// component-checked first so the error names the specific out-of-range field.
func Check(raw string, r Resolved, now time.Time) error {
	if looksAbsolute(raw) {
		if _, err := ValidateString(raw, now); err != nil {
			return err
		}
	}
	if r.Time.IsZero() {
		return newError(ReasonUnrecognized, raw)
	}
	return ValidateTime(r.Time, now)
}

// Accept resolves s and validates the result against now.
func Accept(s string, now time.Time) (Resolved, error) {
	r, err := Resolve(s, now)
	if err != nil && !looksAbsolute(s) {
		return Resolved{}, err
	}
	if err := Check(s, r, now); err != nil {
		return Resolved{}, err
	}
	return r, nil
}
