package temporal

import (
	"regexp"
	"strconv"
	"time"
)

// DefaultDuration is used when no duration can be read.
const DefaultDuration = time.Hour

var (
	bareMinutesRE = regexp.MustCompile(`^\d{1,4}$`)

	// hour-and-a-half forms first; they overlap the plain hour patterns
	zhHourHalfRE = regexp.MustCompile(`(\d{1,2}|` + cnNum + `)\s*(?:個|个)?半\s*(?:小時|小时|鐘頭|钟头|時間)`)
	zhHalfHourRE = regexp.MustCompile(`半\s*(?:個|个)?\s*(?:小時|小时|鐘頭|钟头|時間)`)
	zhHoursRE    = regexp.MustCompile(`(\d+(?:\.\d+)?|` + cnNum + `)\s*(?:個|个)?\s*(?:小時|小时|鐘頭|钟头|時間)`)
	zhMinutesRE  = regexp.MustCompile(`(\d{1,4}|` + cnNum + `)\s*(?:分鐘|分钟|分)`)

	enHalfHourRE = regexp.MustCompile(`\bhalf\s+(?:an\s+)?hour\b`)
	enAnHourRE   = regexp.MustCompile(`\b(?:an|one)\s+hour\b`)
	enHoursRE    = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:hours?|hrs?|h)\b`)
	enMinutesRE  = regexp.MustCompile(`(\d{1,4})\s*(?:minutes?|mins?|m)\b`)
)

// ParseDuration reads an hour/minute count from s in English, Chinese or
// Japanese ("1.5 hours", "90 min", "2小時30分", "1h30m", "半小時",
// "一個半小時", or a bare number of minutes). When nothing is found, or the
// total is zero, DefaultDuration is returned.
func ParseDuration(s string) time.Duration {
	if d, ok := parseDuration(s); ok {
		return d
	}
	return DefaultDuration
}

func parseDuration(s string) (time.Duration, bool) {
	f := fold(s)
	if f == "" {
		return 0, false
	}
	if d, err := time.ParseDuration(f); err == nil {
		return d, d > 0
	}
	if bareMinutesRE.MatchString(f) {
		n, _ := strconv.Atoi(f)
		return time.Duration(n) * time.Minute, n > 0
	}

	var total time.Duration
	switch {
	case zhHourHalfRE.MatchString(f):
		m := zhHourHalfRE.FindStringSubmatch(f)
		if h, ok := ParseNumber(m[1]); ok {
			total += time.Duration(h)*time.Hour + 30*time.Minute
		}
	case zhHalfHourRE.MatchString(f):
		total += 30 * time.Minute
	case zhHoursRE.MatchString(f):
		total += hours(zhHoursRE.FindStringSubmatch(f)[1])
	case enHalfHourRE.MatchString(f):
		total += 30 * time.Minute
	case enHoursRE.MatchString(f):
		total += hours(enHoursRE.FindStringSubmatch(f)[1])
	case enAnHourRE.MatchString(f):
		total += time.Hour
	}

	if m := zhMinutesRE.FindStringSubmatch(f); m != nil {
		if n, ok := ParseNumber(m[1]); ok {
			total += time.Duration(n) * time.Minute
		}
	} else if m := enMinutesRE.FindStringSubmatch(f); m != nil {
		total += time.Duration(atoi(m[1])) * time.Minute
	}
	return total, total > 0
}

func hours(s string) time.Duration {
	if h, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(h * float64(time.Hour))
	}
	if h, ok := ParseNumber(s); ok {
		return time.Duration(h) * time.Hour
	}
	return 0
}

// EndFor derives an end time from start. A duration string wins when it
// parses to a positive span; otherwise fallback is used, and when fallback
// is zero, DefaultDuration.
func EndFor(start time.Time, duration string, fallback time.Duration) time.Time {
	if d, ok := parseDuration(duration); ok {
		return start.Add(d)
	}
	if fallback <= 0 {
		fallback = DefaultDuration
	}
	return start.Add(fallback)
}
