// Package recurrence normalizes the many ways an AI or a user describes a
// repeating event into a model.RecurrenceRule, and renders and expands
// those rules with rrule-go.
package recurrence

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/teambition/rrule-go"

	"github.com/hearthside/eventsift/internal/model"
	"github.com/hearthside/eventsift/internal/temporal"
)

// Normalize converts v into a canonical rule. v may be a structured object
// (map with loosely named keys), an RRULE string ("FREQ=WEEKLY;BYDAY=MO",
// with or without the "RRULE:" prefix) or a free-text description such as
// "every monday" or "每月15號". An until value that cannot be resolved is
// dropped rather than kept half-parsed. Rules rrule-go rejects are dropped
// entirely.
func Normalize(v any, ref time.Time) (*model.RecurrenceRule, bool) {
	var (
		rule *model.RecurrenceRule
		ok   bool
	)
	switch x := v.(type) {
	case nil:
		return nil, false
	case *model.RecurrenceRule:
		if x == nil {
			return nil, false
		}
		cp := *x
		rule, ok = &cp, true
	case model.RecurrenceRule:
		rule, ok = &x, true
	case map[string]any:
		rule, ok = fromObject(x, ref)
	case string:
		rule, ok = FromString(x, ref)
	default:
		return nil, false
	}
	if !ok {
		return nil, false
	}
	if rule.Interval < 1 {
		rule.Interval = 1
	}
	if rule.Count < 0 {
		rule.Count = 0
	}
	if err := Check(rule); err != nil {
		return nil, false
	}
	return rule, true
}

// FromString reads an RRULE string or a free-text description.
func FromString(s string, ref time.Time) (*model.RecurrenceRule, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	if strings.Contains(strings.ToUpper(s), "FREQ=") {
		return fromRRule(s, ref)
	}
	return fromText(s)
}

// Check validates rule against the model's struct constraints and by
// building an rrule.RRule from it.
func Check(rule *model.RecurrenceRule) error {
	if err := model.Validate(rule); err != nil {
		return fmt.Errorf("invalid recurrence rule: %w", err)
	}
	opt, err := toOption(rule)
	if err != nil {
		return err
	}
	if _, err := rrule.NewRRule(opt); err != nil {
		return fmt.Errorf("invalid recurrence rule: %w", err)
	}
	return nil
}

// Format renders rule as RRULE text without the "RRULE:" prefix.
func Format(rule *model.RecurrenceRule) string {
	if rule == nil {
		return ""
	}
	opt, err := toOption(rule)
	if err != nil {
		return ""
	}
	return opt.RRuleString()
}

// Occurrences returns up to limit instances of rule starting at start.
func Occurrences(rule *model.RecurrenceRule, start time.Time, limit int) ([]time.Time, error) {
	if rule == nil || limit <= 0 {
		return nil, nil
	}
	opt, err := toOption(rule)
	if err != nil {
		return nil, err
	}
	opt.Dtstart = start
	r, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, fmt.Errorf("build rrule: %w", err)
	}

	out := make([]time.Time, 0, limit)
	next := r.Iterator()
	for len(out) < limit {
		t, ok := next()
		if !ok {
			break
		}
		out = append(out, t)
	}
	return out, nil
}

var freqs = map[model.Frequency]rrule.Frequency{
	model.FrequencyDaily:   rrule.DAILY,
	model.FrequencyWeekly:  rrule.WEEKLY,
	model.FrequencyMonthly: rrule.MONTHLY,
	model.FrequencyYearly:  rrule.YEARLY,
}

var weekdayCodes = map[string]rrule.Weekday{
	"MO": rrule.MO, "TU": rrule.TU, "WE": rrule.WE, "TH": rrule.TH,
	"FR": rrule.FR, "SA": rrule.SA, "SU": rrule.SU,
}

var byDayRE = regexp.MustCompile(`^([+-]?\d{1,2})?(MO|TU|WE|TH|FR|SA|SU)$`)

func toOption(rule *model.RecurrenceRule) (rrule.ROption, error) {
	f, ok := freqs[rule.Frequency]
	if !ok {
		return rrule.ROption{}, fmt.Errorf("unsupported frequency %q", rule.Frequency)
	}
	opt := rrule.ROption{
		Freq:       f,
		Interval:   rule.Interval,
		Count:      rule.Count,
		Bymonthday: rule.ByMonthDay,
	}
	if rule.Until != nil {
		opt.Until = *rule.Until
	}
	for _, code := range rule.ByDay {
		w, err := toWeekday(code)
		if err != nil {
			return rrule.ROption{}, err
		}
		opt.Byweekday = append(opt.Byweekday, w)
	}
	return opt, nil
}

func toWeekday(code string) (rrule.Weekday, error) {
	m := byDayRE.FindStringSubmatch(code)
	if m == nil {
		return rrule.Weekday{}, fmt.Errorf("invalid weekday code %q", code)
	}
	w := weekdayCodes[m[2]]
	if m[1] != "" {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return rrule.Weekday{}, fmt.Errorf("invalid weekday ordinal %q: %w", code, err)
		}
		w = w.Nth(n)
	}
	return w, nil
}

func fromRRule(s string, ref time.Time) (*model.RecurrenceRule, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if i := strings.Index(s, "RRULE:"); i >= 0 {
		s = s[i+len("RRULE:"):]
	}
	opt, err := rrule.StrToROptionInLocation(s, ref.Location())
	if err != nil {
		// rrule-go only reads compact UNTIL forms; retry without it and
		// resolve the value on its own, dropping it when that fails too.
		rest, until, found := cutUntil(s)
		if !found {
			return nil, false
		}
		if opt, err = rrule.StrToROptionInLocation(rest, ref.Location()); err != nil {
			return nil, false
		}
		if u := untilOf(until, ref); u != nil {
			opt.Until = *u
		}
	}
	var freq model.Frequency
	for k, v := range freqs {
		if v == opt.Freq {
			freq = k
		}
	}
	if freq == "" {
		return nil, false
	}
	rule := &model.RecurrenceRule{
		Frequency:  freq,
		Interval:   opt.Interval,
		Count:      opt.Count,
		ByMonthDay: opt.Bymonthday,
	}
	for _, w := range opt.Byweekday {
		rule.ByDay = append(rule.ByDay, w.String())
	}
	if !opt.Until.IsZero() {
		u := opt.Until
		rule.Until = &u
	}
	return rule, true
}

// cutUntil removes the UNTIL part from an RRULE string.
func cutUntil(s string) (rest, until string, found bool) {
	parts := strings.Split(s, ";")
	kept := parts[:0]
	for _, p := range parts {
		if v, ok := strings.CutPrefix(strings.TrimSpace(p), "UNTIL="); ok {
			until, found = v, true
			continue
		}
		kept = append(kept, p)
	}
	return strings.Join(kept, ";"), until, found
}

// objectKeys maps folded key spellings to canonical rule fields.
var objectKeys = map[string]string{
	"frequency": "frequency", "freq": "frequency", "type": "frequency", "repeat": "frequency",
	"interval": "interval", "every": "interval",
	"byday": "byDay", "days": "byDay", "weekdays": "byDay", "dayofweek": "byDay", "daysofweek": "byDay",
	"bymonthday": "byMonthDay", "monthday": "byMonthDay", "monthdays": "byMonthDay", "daysofmonth": "byMonthDay",
	"count": "count", "times": "count", "occurrences": "count",
	"until": "until", "enddate": "until", "end": "until", "untildate": "until",
}

func foldKey(k string) string {
	k = strings.ToLower(strings.TrimSpace(k))
	return strings.NewReplacer("_", "", "-", "", " ", "").Replace(k)
}

func fromObject(obj map[string]any, ref time.Time) (*model.RecurrenceRule, bool) {
	fields := make(map[string]any, len(obj))
	for k, v := range obj {
		if canon, ok := objectKeys[foldKey(k)]; ok {
			fields[canon] = v
		}
	}

	rule := &model.RecurrenceRule{}
	if v, ok := fields["frequency"]; ok {
		rule.Frequency = frequencyWord(cast.ToString(v))
	}
	if v, ok := fields["interval"]; ok {
		rule.Interval = cast.ToInt(v)
	}
	if v, ok := fields["count"]; ok {
		rule.Count = cast.ToInt(v)
	}
	if v, ok := fields["byDay"]; ok {
		for _, item := range listOf(v) {
			if code, ok := weekdayCode(cast.ToString(item)); ok {
				rule.ByDay = append(rule.ByDay, code)
			}
		}
	}
	if v, ok := fields["byMonthDay"]; ok {
		for _, item := range listOf(v) {
			if n, err := cast.ToIntE(strings.TrimSpace(cast.ToString(item))); err == nil {
				rule.ByMonthDay = append(rule.ByMonthDay, n)
			}
		}
	}
	if v, ok := fields["until"]; ok {
		rule.Until = untilOf(v, ref)
	}

	if rule.Frequency == "" {
		switch {
		case len(rule.ByDay) > 0:
			rule.Frequency = model.FrequencyWeekly
		case len(rule.ByMonthDay) > 0:
			rule.Frequency = model.FrequencyMonthly
		default:
			return nil, false
		}
	}
	return rule, true
}

// listOf accepts a JSON array or a comma separated string.
func listOf(v any) []any {
	switch x := v.(type) {
	case []any:
		return x
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out
	case string:
		parts := strings.FieldsFunc(x, func(r rune) bool { return r == ',' || r == '、' || r == ' ' || r == '，' })
		out := make([]any, len(parts))
		for i, p := range parts {
			out[i] = p
		}
		return out
	}
	return []any{v}
}

func untilOf(v any, ref time.Time) *time.Time {
	switch x := v.(type) {
	case time.Time:
		if x.IsZero() {
			return nil
		}
		return &x
	case string:
		r, err := temporal.Resolve(x, ref)
		if err != nil {
			return nil
		}
		return &r.Time
	}
	return nil
}

// weekdayCode turns "MO", "+2MO", "monday", "週一" or "月曜日" into an
// RFC 5545 BYDAY value.
func weekdayCode(s string) (string, bool) {
	u := strings.ToUpper(strings.TrimSpace(s))
	if model.IsValidWeekdayCode(u) {
		w, err := toWeekday(u)
		if err != nil {
			return "", false
		}
		return w.String(), true
	}
	wd, ok := temporal.LookupWeekday(s)
	if !ok {
		return "", false
	}
	return codeFor(wd), true
}

func codeFor(wd time.Weekday) string {
	return [...]string{"SU", "MO", "TU", "WE", "TH", "FR", "SA"}[wd]
}
