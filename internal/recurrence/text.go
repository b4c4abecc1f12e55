package recurrence

import (
	"regexp"
	"strings"

	"github.com/hearthside/eventsift/internal/model"
	"github.com/hearthside/eventsift/internal/temporal"
)

// frequencyWord maps a loose frequency name ("weekly", "Week", "每週",
// "monthly") to its canonical value, or "" when unknown.
func frequencyWord(s string) model.Frequency {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "daily", "day", "days", "everyday", "每天", "每日", "毎日":
		return model.FrequencyDaily
	case "weekly", "week", "weeks", "每週", "每周", "毎週":
		return model.FrequencyWeekly
	case "monthly", "month", "months", "每月", "毎月":
		return model.FrequencyMonthly
	case "yearly", "annually", "annual", "year", "years", "每年", "毎年":
		return model.FrequencyYearly
	}
	return ""
}

type textRule struct {
	freq    model.Frequency
	pattern *regexp.Regexp
}

const (
	zhNum    = `\d{1,2}|[一二兩两三四五六七八九十]{1,3}`
	enDayAll = `sunday|monday|tuesday|wednesday|thursday|friday|saturday`
)

var (
	everyNRE = regexp.MustCompile(`\bevery\s+(\d{1,2})\s+(day|week|month|year)s?\b|每(?:隔)?(` + zhNum + `)\s*(?:個|个)?\s*(天|日|週|周|星期|禮拜|礼拜|月|年)`)
	otherRE  = regexp.MustCompile(`\bevery\s+other\b|每隔一`)

	workdayRE = regexp.MustCompile(`\bweekdays\b|\bevery\s+weekday\b|每(?:個|个)?工作日|平日|毎平日`)

	// ordered: weekly before daily so "每週日" is not read as "每日"
	textRules = []textRule{
		{model.FrequencyWeekly, regexp.MustCompile(`每(?:個|个)?(?:週|周|星期|禮拜|礼拜)|毎週|\bweekly\b|\bevery\s+week\b|\bevery\s+(?:other\s+)?(?:` + enDayAll + `)\b|\b(?:` + enDayAll + `)s\b`)},
		{model.FrequencyMonthly, regexp.MustCompile(`每(?:個|个)?月|毎月|\bmonthly\b|\bevery\s+(?:other\s+)?month\b`)},
		{model.FrequencyYearly, regexp.MustCompile(`每年|毎年|\byearly\b|\bannually\b|\bevery\s+(?:other\s+)?year\b`)},
		{model.FrequencyDaily, regexp.MustCompile(`每天|每日|毎日|\bdaily\b|\bevery\s*day\b|\beveryday\b|\bevery\s+(?:other\s+)?day\b`)},
	}

	zhDaysRE    = regexp.MustCompile(`(?:週|周|星期|禮拜|礼拜)([一二三四五六日天、,，和及与與]+)`)
	jaDaysRE    = regexp.MustCompile(`([月火水木金土日])曜`)
	enDaysRE    = regexp.MustCompile(`\b(` + enDayAll + `|mon|tue|tues|wed|thu|thur|thurs|fri|sat|sun)s?\b`)
	monthDaysRE = regexp.MustCompile(`(\d{1,2}|[一二三四五六七八九十]{1,3})\s*(?:號|号|日)|\b(\d{1,2})(?:st|nd|rd|th)\b|\bday\s+(\d{1,2})\b`)
)

var unitFreq = map[string]model.Frequency{
	"day": model.FrequencyDaily, "天": model.FrequencyDaily, "日": model.FrequencyDaily,
	"week": model.FrequencyWeekly, "週": model.FrequencyWeekly, "周": model.FrequencyWeekly,
	"星期": model.FrequencyWeekly, "禮拜": model.FrequencyWeekly, "礼拜": model.FrequencyWeekly,
	"month": model.FrequencyMonthly, "月": model.FrequencyMonthly,
	"year": model.FrequencyYearly, "年": model.FrequencyYearly,
}

// fromText reads a free-text recurrence description in English, Chinese
// or Japanese.
func fromText(s string) (*model.RecurrenceRule, bool) {
	t := strings.ToLower(s)
	rule := &model.RecurrenceRule{Interval: 1}

	switch {
	case everyNRE.MatchString(t):
		m := everyNRE.FindStringSubmatch(t)
		num, unit := m[1], m[2]
		if num == "" {
			num, unit = m[3], m[4]
		}
		rule.Frequency = unitFreq[unit]
		rule.Interval = number(num)
	case workdayRE.MatchString(t):
		rule.Frequency = model.FrequencyWeekly
		rule.ByDay = []string{"MO", "TU", "WE", "TH", "FR"}
		return rule, true
	default:
		for _, r := range textRules {
			if r.pattern.MatchString(t) {
				rule.Frequency = r.freq
				break
			}
		}
	}
	if rule.Frequency == "" {
		return nil, false
	}
	if otherRE.MatchString(t) && rule.Interval == 1 {
		rule.Interval = 2
	}

	switch rule.Frequency {
	case model.FrequencyWeekly:
		rule.ByDay = weekdaysIn(t)
	case model.FrequencyMonthly:
		for _, m := range monthDaysRE.FindAllStringSubmatch(t, -1) {
			if d := number(firstNonEmpty(m[1:]...)); d >= 1 && d <= 31 {
				rule.ByMonthDay = append(rule.ByMonthDay, d)
			}
		}
	}
	return rule, true
}

// weekdaysIn collects weekday codes in order of appearance, without
// duplicates.
func weekdaysIn(t string) []string {
	var out []string
	seen := map[string]bool{}
	add := func(name string) {
		wd, ok := temporal.LookupWeekday(name)
		if !ok {
			return
		}
		if code := codeFor(wd); !seen[code] {
			seen[code] = true
			out = append(out, code)
		}
	}
	for _, m := range zhDaysRE.FindAllStringSubmatch(t, -1) {
		for _, r := range m[1] {
			add(string(r))
		}
	}
	for _, m := range jaDaysRE.FindAllStringSubmatch(t, -1) {
		add(m[1])
	}
	for _, m := range enDaysRE.FindAllStringSubmatch(t, -1) {
		add(m[1])
	}
	return out
}

func number(s string) int {
	n, _ := temporal.ParseNumber(s)
	return n
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
