package temporal

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/width"
)

// fold narrows full-width digits, letters and punctuation to ASCII,
// lowercases, and trims. Speech-to-text and OCR output from CJK keyboards
// routinely carries "１５：３０" style input.
func fold(s string) string {
	s = width.Narrow.String(s)
	s = strings.ReplaceAll(s, "　", " ")
	return strings.TrimSpace(strings.ToLower(s))
}

var cnDigits = map[rune]int{
	'零': 0, '〇': 0, '一': 1, '二': 2, '兩': 2, '两': 2, '三': 3, '四': 4,
	'五': 5, '六': 6, '七': 7, '八': 8, '九': 9,
}

// ParseNumber accepts ASCII digits or a Chinese numeral up to 99
// (十, 十二, 二十, 二十三, 兩).
func ParseNumber(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	runes := []rune(s)
	tens, ones := 0, 0
	seenTen := false
	for i, r := range runes {
		if r == '十' {
			if seenTen {
				return 0, false
			}
			seenTen = true
			if i == 0 {
				tens = 1
			} else {
				tens = ones
			}
			ones = 0
			continue
		}
		d, ok := cnDigits[r]
		if !ok {
			return 0, false
		}
		if !seenTen && i > 0 {
			// "二三" is not a number
			return 0, false
		}
		ones = d
	}
	return tens*10 + ones, true
}

// weekdayNames maps every supported spelling to a time.Weekday.
var weekdayNames = map[string]time.Weekday{
	"日": time.Sunday, "天": time.Sunday, "一": time.Monday, "二": time.Tuesday,
	"三": time.Wednesday, "四": time.Thursday, "五": time.Friday, "六": time.Saturday,
	"月": time.Monday, "火": time.Tuesday, "水": time.Wednesday, "木": time.Thursday,
	"金": time.Friday, "土": time.Saturday,

	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "tues": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday, "weds": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

// LookupWeekday resolves a weekday name in English, Chinese or Japanese.
// The Japanese-only form 日 is read as Sunday.
func LookupWeekday(s string) (time.Weekday, bool) {
	s = strings.TrimSuffix(strings.TrimSuffix(fold(s), "."), "曜日")
	s = strings.TrimSuffix(s, "曜")
	for _, p := range []string{"星期", "禮拜", "礼拜", "週", "周"} {
		s = strings.TrimPrefix(s, p)
	}
	wd, ok := weekdayNames[s]
	return wd, ok
}

var monthNames = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may": time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September, "sept": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

// daysIn returns the number of days in month m of year y.
func daysIn(y int, m time.Month) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// midnight truncates t to the start of its calendar day in t's location.
func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// At returns date's calendar day at hour:minute in date's location.
func At(date time.Time, hour, minute int) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, hour, minute, 0, 0, date.Location())
}
