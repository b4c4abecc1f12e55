package temporal

import (
	"regexp"
	"strings"
	"time"
)

// Kinds of relative-date phrase.
const (
	KindDayOffset  = "day_offset"
	KindWeekday    = "weekday"
	KindWeekend    = "weekend"
	KindWorkday    = "workday"
	KindInDays     = "in_days"
	KindMonthDay   = "month_day"
	KindDayOfMonth = "day_of_month"
	KindDate       = "date"
)

// RelativeDate is a calendar date resolved from a phrase such as
// "next tuesday" or "下週三". Date is midnight in the reference location.
type RelativeDate struct {
	Date   time.Time
	Phrase string
	Kind   string
}

// DaysUntilWeekday returns how many days after current the target weekday
// falls. The base distance is (target - current + 7) mod 7. For a "this"
// reading a zero distance means a week from today, never today itself.
// weekOffset adds whole weeks: 1 for "next", 2 for "next-next".
func DaysUntilWeekday(current, target time.Weekday, weekOffset int, this bool) int {
	d := (int(target) - int(current) + 7) % 7
	if this && d == 0 {
		d = 7
	}
	return d + 7*weekOffset
}

type relRule struct {
	kind    string
	pattern *regexp.Regexp
	handle  func(m []string, today time.Time) (time.Time, bool)
}

const (
	zhWeekPrefix = `(?:週|周|星期|禮拜|礼拜)`
	zhDay        = `([一二三四五六日天])`
	jaDay        = `([月火水木金土日])`
	enDayFull    = `(sunday|monday|tuesday|wednesday|thursday|friday|saturday)`
	enDayAny     = `(sunday|monday|tuesday|wednesday|thursday|friday|saturday|sun|mon|tues|tue|weds|wed|thurs|thur|thu|fri|sat)`
	enMonth      = `(january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec)`
	ordSuffix    = `(?:st|nd|rd|th)`
)

// datedRules match dates that carry their own year. They are tried before
// relRules, and a match with an impossible date ends the search instead of
// falling through to a month/day or day-only reading.
var datedRules = []relRule{
	{KindDate, regexp.MustCompile(`(\d{4})\s*年\s*(\d{1,2}|[一二三四五六七八九十]{1,2})\s*月\s*(\d{1,2}|` + cnNum + `)\s*(?:日|號|号)?`), yearMonthDay},
	{KindDate, regexp.MustCompile(`(?:^|[^\d/])(\d{1,2})/(\d{1,2})/(\d{4})(?:$|[^\d/])`), monthDayYear},
	{KindDate, regexp.MustCompile(`\b` + enMonth + `\.?\s+(\d{1,2})` + ordSuffix + `?,?\s+(\d{4})\b`), monthDayYearEnglish},
	{KindDate, regexp.MustCompile(`\b(\d{1,2})` + ordSuffix + `?\s+(?:of\s+)?` + enMonth + `,?\s+(\d{4})\b`), dayMonthYearEnglish},
}

// relRules are tried in order; the first rule whose pattern appears
// anywhere in the text wins. Longer phrases precede their substrings.
var relRules = []relRule{
	{KindDayOffset, regexp.MustCompile(`大後天|大后天|day\s+after\s+the\s+day\s+after\s+tomorrow`), offsetDays(3)},
	{KindDayOffset, regexp.MustCompile(`明後日|後天|后天|あさって|day\s+after\s+tomorrow|overmorrow`), offsetDays(2)},
	{KindDayOffset, regexp.MustCompile(`明天|明日|あした|\btomorrow\b|\btmrw?\b`), offsetDays(1)},
	{KindDayOffset, regexp.MustCompile(`今天|今日|今晚|今夜|きょう|\btoday\b|\btonight\b`), offsetDays(0)},

	{KindInDays, regexp.MustCompile(`(\d{1,3}|` + cnNum + `)\s*(?:天|日)\s*(?:後|后|以後|以后)|\bin\s+(\d{1,3})\s+days?\b|\b(\d{1,3})\s+days?\s+(?:from\s+now|later)\b`), inDays},

	{KindWeekday, regexp.MustCompile(`下下(?:個|个)?` + zhWeekPrefix + zhDay + `|再来週の?` + jaDay + `|\b` + enDayAny + `\s+after\s+next\b|\bnext\s+next\s+` + enDayAny + `\b`), weekday(2, false)},
	{KindWeekend, regexp.MustCompile(`下下(?:個|个)?(?:週末|周末)|再来週末|\bweekend\s+after\s+next\b`), weekend(2)},
	{KindWeekend, regexp.MustCompile(`下(?:個|个)?(?:週末|周末)|来週末|\bnext\s+weekend\b`), weekend(1)},
	{KindWeekday, regexp.MustCompile(`下(?:個|个)?` + zhWeekPrefix + zhDay + `|来週の?` + jaDay + `|\bnext\s+` + enDayAny + `\b`), weekday(1, false)},
	{KindWeekend, regexp.MustCompile(`週末|周末|\bweekend\b`), weekend(0)},
	{KindWorkday, regexp.MustCompile(`工作日|平日|\bworkday\b|\bweekday\b|\bbusiness\s+day\b`), workday},
	{KindWeekday, regexp.MustCompile(`(?:這|这|本|今)?(?:個|个)?` + zhWeekPrefix + zhDay + `|(?:今週の?)?` + jaDay + `曜|\bthis\s+` + enDayAny + `\b|\b` + enDayFull + `\b`), weekday(0, true)},

	{KindMonthDay, regexp.MustCompile(`(\d{1,2}|[一二三四五六七八九十]{1,2})\s*月\s*(\d{1,2}|` + cnNum + `)\s*(?:日|號|号)?`), monthDayNumeric},
	{KindMonthDay, regexp.MustCompile(`(?:^|[^\d/])(\d{1,2})/(\d{1,2})(?:$|[^\d/])`), monthDayNumeric},
	{KindMonthDay, regexp.MustCompile(`\b` + enMonth + `\.?\s+(\d{1,2})` + ordSuffix + `?\b`), monthDayEnglish},
	{KindMonthDay, regexp.MustCompile(`\b(\d{1,2})` + ordSuffix + `?\s+(?:of\s+)?` + enMonth + `\b`), dayMonthEnglish},
	{KindDayOfMonth, regexp.MustCompile(`(\d{1,2})\s*(?:號|号|日)|\b(\d{1,2})` + ordSuffix + `\b`), dayOfMonth},
}

// ResolveRelativeDate finds the first calendar-relative phrase in text and
// resolves it against today. Only today's date and location are used.
func ResolveRelativeDate(text string, today time.Time) (RelativeDate, bool) {
	s := fold(text)
	if s == "" {
		return RelativeDate{}, false
	}
	day := midnight(today)
	for _, r := range datedRules {
		loc := r.pattern.FindStringSubmatchIndex(s)
		if loc == nil {
			continue
		}
		m := submatches(s, loc)
		d, ok := r.handle(m, day)
		if !ok {
			return RelativeDate{}, false
		}
		return RelativeDate{Date: d, Phrase: strings.Trim(m[0], " /,.-"), Kind: r.kind}, true
	}
	for _, r := range relRules {
		loc := r.pattern.FindStringSubmatchIndex(s)
		if loc == nil {
			continue
		}
		m := submatches(s, loc)
		d, ok := r.handle(m, day)
		if !ok {
			continue
		}
		return RelativeDate{
			Date:   d,
			Phrase: strings.Trim(m[0], " /,.-"),
			Kind:   r.kind,
		}, true
	}
	return RelativeDate{}, false
}

func submatches(s string, loc []int) []string {
	m := make([]string, len(loc)/2)
	for i := range m {
		if loc[2*i] >= 0 {
			m[i] = s[loc[2*i]:loc[2*i+1]]
		}
	}
	return m
}

// firstGroup returns the first non-empty capture group.
func firstGroup(m []string) string {
	for _, g := range m[1:] {
		if g != "" {
			return g
		}
	}
	return ""
}

func offsetDays(n int) func([]string, time.Time) (time.Time, bool) {
	return func(_ []string, today time.Time) (time.Time, bool) {
		return today.AddDate(0, 0, n), true
	}
}

func inDays(m []string, today time.Time) (time.Time, bool) {
	n, ok := ParseNumber(firstGroup(m))
	if !ok {
		return time.Time{}, false
	}
	return today.AddDate(0, 0, n), true
}

func weekday(offset int, this bool) func([]string, time.Time) (time.Time, bool) {
	return func(m []string, today time.Time) (time.Time, bool) {
		target, ok := LookupWeekday(firstGroup(m))
		if !ok {
			return time.Time{}, false
		}
		return today.AddDate(0, 0, DaysUntilWeekday(today.Weekday(), target, offset, this)), true
	}
}

// weekend resolves to Saturday by the "this" rule, so on a Saturday
// "weekend" means the following one. Each offset adds a week on top, which
// keeps "next weekend" a week after "weekend" on every day.
func weekend(offset int) func([]string, time.Time) (time.Time, bool) {
	return func(_ []string, today time.Time) (time.Time, bool) {
		return today.AddDate(0, 0, DaysUntilWeekday(today.Weekday(), time.Saturday, offset, true)), true
	}
}

func workday(_ []string, today time.Time) (time.Time, bool) {
	switch today.Weekday() {
	case time.Saturday, time.Sunday:
		return today.AddDate(0, 0, DaysUntilWeekday(today.Weekday(), time.Monday, 0, true)), true
	}
	return today, true
}

func monthDayNumeric(m []string, today time.Time) (time.Time, bool) {
	month, ok1 := ParseNumber(m[1])
	day, ok2 := ParseNumber(m[2])
	if !ok1 || !ok2 {
		return time.Time{}, false
	}
	return nextMonthDay(time.Month(month), day, today)
}

func monthDayEnglish(m []string, today time.Time) (time.Time, bool) {
	return nextMonthDay(monthNames[m[1]], atoi(m[2]), today)
}

func dayMonthEnglish(m []string, today time.Time) (time.Time, bool) {
	return nextMonthDay(monthNames[m[2]], atoi(m[1]), today)
}

func yearMonthDay(m []string, today time.Time) (time.Time, bool) {
	month, ok1 := ParseNumber(m[2])
	day, ok2 := ParseNumber(m[3])
	if !ok1 || !ok2 {
		return time.Time{}, false
	}
	return exactDate(atoi(m[1]), time.Month(month), day, today)
}

func monthDayYear(m []string, today time.Time) (time.Time, bool) {
	return exactDate(atoi(m[3]), time.Month(atoi(m[1])), atoi(m[2]), today)
}

func monthDayYearEnglish(m []string, today time.Time) (time.Time, bool) {
	return exactDate(atoi(m[3]), monthNames[m[1]], atoi(m[2]), today)
}

func dayMonthYearEnglish(m []string, today time.Time) (time.Time, bool) {
	return exactDate(atoi(m[3]), monthNames[m[2]], atoi(m[1]), today)
}

// exactDate builds a date whose year was given explicitly. It never rolls;
// the year window is left to the validator.
func exactDate(year int, month time.Month, day int, today time.Time) (time.Time, bool) {
	if year < 1 || month < time.January || month > time.December {
		return time.Time{}, false
	}
	if day < 1 || day > daysIn(year, month) {
		return time.Time{}, false
	}
	return time.Date(year, month, day, 0, 0, 0, 0, today.Location()), true
}

// nextMonthDay validates month/day against the current year and moves to
// the following year when the date has already passed.
func nextMonthDay(month time.Month, day int, today time.Time) (time.Time, bool) {
	if month < time.January || month > time.December {
		return time.Time{}, false
	}
	y := today.Year()
	if day < 1 || day > daysIn(y, month) {
		return time.Time{}, false
	}
	d := time.Date(y, month, day, 0, 0, 0, 0, today.Location())
	if d.Before(today) {
		y++
		if day > daysIn(y, month) {
			return time.Time{}, false
		}
		d = time.Date(y, month, day, 0, 0, 0, 0, today.Location())
	}
	return d, true
}

// dayOfMonth reads a bare day number as this month, or next month when the
// day has passed or this month is too short.
func dayOfMonth(m []string, today time.Time) (time.Time, bool) {
	day := atoi(firstGroup(m))
	if day < 1 || day > 31 {
		return time.Time{}, false
	}
	y, mon, _ := today.Date()
	if day <= daysIn(y, mon) {
		d := time.Date(y, mon, day, 0, 0, 0, 0, today.Location())
		if !d.Before(today) {
			return d, true
		}
	}
	next := time.Date(y, mon+1, 1, 0, 0, 0, 0, today.Location())
	if day > daysIn(next.Year(), next.Month()) {
		return time.Time{}, false
	}
	return time.Date(next.Year(), next.Month(), day, 0, 0, 0, 0, today.Location()), true
}
