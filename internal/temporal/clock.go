package temporal

import (
	"regexp"
	"strconv"
)

// period is a day-part word that shifts an hour reading.
type period int

const (
	periodNone period = iota
	periodMorning
	periodDawn
	periodNoon
	periodAfternoon
	periodEvening
)

var periodWords = map[string]period{
	"上午": periodMorning, "早上": periodMorning, "早晨": periodMorning, "清晨": periodMorning, "午前": periodMorning,
	"凌晨": periodDawn,
	"中午": periodNoon, "正午": periodNoon,
	"下午": periodAfternoon, "午後": periodAfternoon,
	"晚上": periodEvening, "傍晚": periodEvening, "夜晚": periodEvening, "夜裡": periodEvening, "夜里": periodEvening,
	"今晚": periodEvening, "今夜": periodEvening,

	"morning": periodMorning, "this morning": periodMorning,
	"dawn": periodDawn,
	"noon": periodNoon, "midday": periodNoon,
	"afternoon": periodAfternoon, "this afternoon": periodAfternoon,
	"evening": periodEvening, "this evening": periodEvening, "night": periodEvening, "tonight": periodEvening,
}

// applyPeriod shifts hour according to p: afternoon and evening add 12 to
// hours before noon, morning and dawn map 12 to 0, noon forces 12.
func applyPeriod(hour int, p period) int {
	switch p {
	case periodAfternoon, periodEvening:
		if hour < 12 {
			return hour + 12
		}
	case periodMorning, periodDawn:
		if hour == 12 {
			return 0
		}
	case periodNoon:
		return 12
	}
	return hour
}

// Clock is a time-of-day reading without a date.
type Clock struct {
	Hour, Minute, Second int
}

func (c Clock) valid() bool {
	return c.Hour >= 0 && c.Hour <= 23 &&
		c.Minute >= 0 && c.Minute <= 59 &&
		c.Second >= 0 && c.Second <= 59
}

// clockRule is one time-of-day shape. search is used to locate the shape
// anywhere in a longer string; full requires it to cover the whole input.
type clockRule struct {
	name       string
	search     *regexp.Regexp
	full       *regexp.Regexp
	searchable bool
	parse      func(m []string) (Clock, bool)
}

func newClockRule(name, pattern string, searchable bool, parse func(m []string) (Clock, bool)) clockRule {
	return clockRule{
		name:       name,
		search:     regexp.MustCompile(pattern),
		full:       regexp.MustCompile(`^(?:` + pattern + `)$`),
		searchable: searchable,
		parse:      parse,
	}
}

const (
	cnNum      = `[零〇一二兩两三四五六七八九十]{1,3}`
	zhPeriods  = `上午|早上|早晨|清晨|午前|凌晨|中午|正午|下午|午後|晚上|傍晚|夜晚|夜裡|夜里|今晚|今夜`
	enPeriods  = `this\s+morning|this\s+afternoon|this\s+evening|tonight|morning|afternoon|evening|night|noon|midday|dawn`
	hourMarker = `[點点時时]`
)

// clockRules are tried in order. More specific shapes come first so a
// search for "3:30 pm" reads the meridiem before the bare 24-hour clock.
var clockRules = []clockRule{
	newClockRule("period_zh",
		`(`+zhPeriods+`)\s*(\d{1,2}|`+cnNum+`)\s*(?:`+hourMarker+`\s*(?:(\d{1,2}|`+cnNum+`)\s*分?|(半))?|:(\d{2}))`,
		true, parsePeriodZH),
	newClockRule("hour_zh",
		`(\d{1,2}|`+cnNum+`)\s*`+hourMarker+`\s*(?:(\d{1,2}|`+cnNum+`)\s*分?|(半))?`,
		true, parseHourZH),
	newClockRule("period_en_prefix",
		`(`+enPeriods+`)\s+(?:at\s+)?(\d{1,2})(?::(\d{2}))?`,
		true, parsePeriodENPrefix),
	newClockRule("period_en_suffix",
		`(\d{1,2})(?::(\d{2}))?\s*(?:o'?clock\s*)?(?:in\s+the\s+|at\s+)?(morning|afternoon|evening|night)`,
		true, parsePeriodENSuffix),
	newClockRule("clock_12h",
		`(\d{1,2})(?::(\d{2}))?\s*(a\.m\.|p\.m\.|am\b|pm\b)`,
		true, parse12h),
	newClockRule("half_past",
		`half\s+past\s+(\d{1,2})`,
		true, parseHalfPast),
	newClockRule("clock_24h",
		`(\d{1,2}):(\d{2})(?::(\d{2}))?`,
		true, parse24h),
	newClockRule("at_hour",
		`\bat\s+(\d{1,2})(?:\s*o'?clock)?\b`,
		true, parseAtHour),
	newClockRule("noon_word",
		`中午|正午|noon|midday|midnight|午夜`,
		true, parseNoonWord),
	newClockRule("hhmm",
		`(\d{3,4})`,
		false, parseHHMM),
}

// ParseClock reads s as a bare time-of-day. The whole string must match
// one of the shapes; the returned name identifies which.
func ParseClock(s string) (Clock, string, bool) {
	s = fold(s)
	for _, r := range clockRules {
		m := r.full.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		if c, ok := r.parse(m); ok && c.valid() {
			return c, r.name, true
		}
	}
	return Clock{}, "", false
}

// FindClock locates a time-of-day anywhere in s ("明天下午3點開會",
// "lunch at 12:30 with Bob"). Bare digit runs are never read as HHMM here.
func FindClock(s string) (Clock, bool) {
	s = fold(s)
	for _, r := range clockRules {
		if !r.searchable {
			continue
		}
		for _, m := range r.search.FindAllStringSubmatch(s, -1) {
			if c, ok := r.parse(m); ok && c.valid() {
				return c, true
			}
		}
	}
	return Clock{}, false
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// minuteOf reads an optional minute group, with 半 or an empty group.
func minuteOf(num, half string) (int, bool) {
	switch {
	case half != "":
		return 30, true
	case num == "":
		return 0, true
	}
	return ParseNumber(num)
}

func parsePeriodZH(m []string) (Clock, bool) {
	h, ok := ParseNumber(m[2])
	if !ok || h > 12 {
		return Clock{}, false
	}
	minute := 0
	if m[5] != "" {
		minute = atoi(m[5])
	} else if minute, ok = minuteOf(m[3], m[4]); !ok {
		return Clock{}, false
	}
	return Clock{Hour: applyPeriod(h, periodWords[m[1]]), Minute: minute}, true
}

func parseHourZH(m []string) (Clock, bool) {
	h, ok := ParseNumber(m[1])
	if !ok {
		return Clock{}, false
	}
	minute, ok := minuteOf(m[2], m[3])
	if !ok {
		return Clock{}, false
	}
	return Clock{Hour: h, Minute: minute}, true
}

func parsePeriodENPrefix(m []string) (Clock, bool) {
	h := atoi(m[2])
	if h > 12 {
		return Clock{}, false
	}
	p := periodWords[collapseSpace(m[1])]
	return Clock{Hour: applyPeriod(h, p), Minute: atoi(m[3])}, true
}

func parsePeriodENSuffix(m []string) (Clock, bool) {
	h := atoi(m[1])
	if h > 12 {
		return Clock{}, false
	}
	return Clock{Hour: applyPeriod(h, periodWords[m[3]]), Minute: atoi(m[2])}, true
}

func parse12h(m []string) (Clock, bool) {
	h := atoi(m[1])
	if h < 1 || h > 12 {
		return Clock{}, false
	}
	pm := m[3][0] == 'p'
	switch {
	case pm && h < 12:
		h += 12
	case !pm && h == 12:
		h = 0
	}
	return Clock{Hour: h, Minute: atoi(m[2])}, true
}

func parseHalfPast(m []string) (Clock, bool) {
	return Clock{Hour: atoi(m[1]), Minute: 30}, true
}

// parseAtHour reads "at 3" without a meridiem. Hours 1 to 6 are taken as
// afternoon, since appointments at 3am are rarely meant.
func parseAtHour(m []string) (Clock, bool) {
	h := atoi(m[1])
	if h >= 1 && h <= 6 {
		h += 12
	}
	return Clock{Hour: h}, true
}

func parse24h(m []string) (Clock, bool) {
	return Clock{Hour: atoi(m[1]), Minute: atoi(m[2]), Second: atoi(m[3])}, true
}

func parseNoonWord(m []string) (Clock, bool) {
	if m[0] == "midnight" || m[0] == "午夜" {
		return Clock{}, true
	}
	return Clock{Hour: 12}, true
}

func parseHHMM(m []string) (Clock, bool) {
	s := m[1]
	if len(s) == 3 {
		s = "0" + s
	}
	return Clock{Hour: atoi(s[:2]), Minute: atoi(s[2:])}, true
}

var spaceRE = regexp.MustCompile(`\s+`)

func collapseSpace(s string) string {
	return spaceRE.ReplaceAllString(s, " ")
}
