package extract

import (
	"sort"
	"strings"

	"github.com/spf13/cast"
)

// aliasRule maps every spelling in names onto one canonical field.
type aliasRule struct {
	field string
	names []string
}

// schema describes how a record kind is laid out in model output.
type schema struct {
	// plural keys whose array value holds the records
	wrappers []string
	// singular keys whose object value is a lone record
	singular []string
	aliases  []aliasRule
	// fields a candidate must carry, checked after merge
	required []string
	// merge, when set, runs before the required check
	merge func(c *candidate)
}

// candidate is one record-shaped object after key normalization.
type candidate struct {
	fields map[string]any
	extra  map[string]any
}

func (c *candidate) str(field string) string {
	v, ok := c.fields[field]
	if !ok || v == nil {
		return ""
	}
	switch v.(type) {
	case map[string]any, []any:
		return ""
	}
	return strings.TrimSpace(cast.ToString(v))
}

func (c *candidate) has(field string) bool {
	_, ok := c.fields[field]
	return ok
}

// present reports whether field holds a usable value: a non-blank scalar
// or a non-empty list or object.
func (c *candidate) present(field string) bool {
	switch v := c.fields[field].(type) {
	case nil:
		return false
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	}
	return c.str(field) != ""
}

// payloadMeta carries envelope-level values some models put beside the
// records.
type payloadMeta struct {
	summary    string
	confidence float64
	hasConf    bool
}

var commonWrappers = []string{"items", "records", "results", "data", "entries"}

var eventSchema = schema{
	wrappers: append([]string{"events", "calendarevents", "schedule"}, commonWrappers...),
	singular: []string{"event", "calendarevent", "record", "item", "result"},
	aliases: []aliasRule{
		{"title", []string{"title", "event", "eventname", "eventtitle", "name", "summary", "subject", "標題", "标题", "事件", "活動", "活动", "タイトル", "件名"}},
		{"startTime", []string{"starttime", "start", "begin", "startdate", "startdatetime", "開始時間", "开始时间", "開始"}},
		{"endTime", []string{"endtime", "end", "finish", "enddate", "enddatetime", "結束時間", "结束时间", "終了"}},
		{"description", []string{"description", "desc", "details", "note", "notes", "描述", "備註", "备注", "説明"}},
		{"location", []string{"location", "place", "venue", "where", "address", "地點", "地点", "場所"}},
		{"date", []string{"date", "day", "日期", "日付"}},
		{"time", []string{"time", "時間", "时间"}},
		{"duration", []string{"duration", "length", "時長", "时长", "所要時間"}},
		{"isRecurring", []string{"isrecurring", "recurring", "repeat", "repeats", "isrepeat"}},
		{"recurringPattern", []string{"recurringpattern", "recurrencepattern", "pattern", "frequencytext", "repeatpattern"}},
		{"recurrenceRule", []string{"recurrencerule", "recurrence", "rrule", "rule"}},
		{"confidence", []string{"confidence", "score"}},
	},
	required: []string{"title", "startTime"},
	merge:    mergeDateTime,
}

// mergeDateTime builds startTime from separate date and time fields when
// the model split them.
func mergeDateTime(c *candidate) {
	if c.str("startTime") != "" {
		return
	}
	joined := strings.TrimSpace(c.str("date") + " " + c.str("time"))
	if joined != "" {
		c.fields["startTime"] = joined
		delete(c.fields, "date")
	}
}

// foldKey lowercases k and drops '_', '-' and spaces.
func foldKey(k string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '_', '-', ' ', '　':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(k)))
}

type aliasHit struct {
	field string
	rank  int
}

func (s schema) lookup(key string) (aliasHit, bool) {
	k := foldKey(key)
	for _, rule := range s.aliases {
		for rank, name := range rule.names {
			if k == foldKey(name) {
				return aliasHit{rule.field, rank}, true
			}
		}
	}
	return aliasHit{}, false
}

// normalize maps obj's keys onto canonical fields. When two keys map to
// the same field the spelling earlier in the alias list wins. Keys that
// match nothing are kept in extra.
func (s schema) normalize(obj map[string]any) candidate {
	c := candidate{fields: map[string]any{}}
	ranks := map[string]int{}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := obj[k]
		hit, ok := s.lookup(k)
		if !ok {
			if c.extra == nil {
				c.extra = map[string]any{}
			}
			c.extra[k] = v
			continue
		}
		if prev, seen := ranks[hit.field]; seen && prev <= hit.rank {
			continue
		}
		ranks[hit.field] = hit.rank
		c.fields[hit.field] = v
	}
	if s.merge != nil {
		s.merge(&c)
	}
	return c
}

// missing returns the first required field c lacks, or "".
func (s schema) missing(c candidate) string {
	for _, f := range s.required {
		if !c.present(f) {
			return f
		}
	}
	return ""
}

// records lifts the record objects out of a decoded payload: a bare
// object, an array of objects, or an object wrapping either under one of
// the schema's wrapper keys. Non-object array elements are counted as
// skipped.
func (s schema) records(payload any) (objs []map[string]any, meta payloadMeta, skipped int) {
	switch v := payload.(type) {
	case []any:
		objs, skipped = objectsIn(v)
		return objs, meta, skipped
	case map[string]any:
		meta = metaOf(v)
		if inner, ok := s.wrapped(v); ok {
			switch w := inner.(type) {
			case []any:
				objs, skipped = objectsIn(w)
			case map[string]any:
				// {"data": {"events": [...]}}
				if nested, ok := s.wrapped(w); ok {
					return s.records(nested)
				}
				objs = []map[string]any{w}
			}
			return objs, meta, skipped
		}
		return []map[string]any{v}, payloadMeta{}, 0
	}
	return nil, meta, 0
}

// wrapped finds the first wrapper key present in obj, plural keys first.
func (s schema) wrapped(obj map[string]any) (any, bool) {
	folded := make(map[string]any, len(obj))
	for k, v := range obj {
		folded[foldKey(k)] = v
	}
	for _, w := range s.wrappers {
		if v, ok := folded[w]; ok {
			switch v.(type) {
			case []any, map[string]any:
				return v, true
			}
		}
	}
	for _, w := range s.singular {
		if v, ok := folded[w].(map[string]any); ok {
			return v, true
		}
	}
	return nil, false
}

func objectsIn(arr []any) ([]map[string]any, int) {
	out := make([]map[string]any, 0, len(arr))
	skipped := 0
	for _, e := range arr {
		if m, ok := e.(map[string]any); ok {
			out = append(out, m)
			continue
		}
		skipped++
	}
	return out, skipped
}

func metaOf(obj map[string]any) payloadMeta {
	var m payloadMeta
	for k, v := range obj {
		switch foldKey(k) {
		case "summary", "message":
			if s, ok := v.(string); ok {
				m.summary = strings.TrimSpace(s)
			}
		case "confidence":
			if f, ok := confidenceOf(v); ok {
				m.confidence, m.hasConf = f, true
			}
		}
	}
	return m
}

// confidenceOf coerces v to a confidence in [0,1]. Percentages are scaled.
func confidenceOf(v any) (float64, bool) {
	if v == nil {
		return 0, false
	}
	s, isString := v.(string)
	if isString {
		s = strings.TrimSpace(s)
		pct := strings.HasSuffix(s, "%")
		f, err := cast.ToFloat64E(strings.TrimSuffix(s, "%"))
		if err != nil {
			return 0, false
		}
		if pct {
			f /= 100
		}
		v = f
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || f < 0 {
		return 0, false
	}
	if f > 1 && f <= 100 {
		f /= 100
	}
	if f > 1 {
		return 0, false
	}
	return f, true
}
