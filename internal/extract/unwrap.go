package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoJSON is returned by Unwrap when the response carries no JSON payload.
var ErrNoJSON = errors.New("no JSON found in response")

// ParseError reports a located payload that is not valid JSON.
type ParseError struct {
	Payload string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid JSON from LLM: %v (payload: %s)", e.Err, truncateForError(e.Payload, 120))
}

func (e *ParseError) Unwrap() error { return e.Err }

// fenceRE matches a markdown code fence, optionally labelled json.
var fenceRE = regexp.MustCompile("(?s)```[ \\t]*(?:json|JSON|javascript|js)?[ \\t]*\\r?\\n?(.*?)```")

// Unwrap locates the best JSON candidate in a raw AI response. It tries, in
// order: a fenced code block whose body contains '{' or '['; a top-level
// array when the text itself starts with '['; the first balanced {...}
// span. A string-aware brace matcher is used, and an unbalanced object
// falls back to the span from the first '{' to the last '}'.
func Unwrap(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", ErrNoJSON
	}

	for _, m := range fenceRE.FindAllStringSubmatch(text, -1) {
		body := strings.TrimSpace(m[1])
		if strings.ContainsAny(body, "{[") {
			return body, nil
		}
	}
	// an opening fence the model never closed
	if i := strings.Index(text, "```"); i >= 0 && strings.Count(text, "```") == 1 {
		body := text[i+3:]
		if nl := strings.IndexByte(body, '\n'); nl >= 0 && !strings.ContainsAny(body[:nl], "{[") {
			body = body[nl+1:]
		}
		if body = strings.TrimSpace(body); strings.ContainsAny(body, "{[") {
			text = body
		}
	}

	if strings.HasPrefix(text, "[") {
		if span, ok := balancedSpan(text, 0, '[', ']'); ok {
			return span, nil
		}
	}

	open := strings.IndexByte(text, '{')
	if open < 0 {
		return "", ErrNoJSON
	}
	if span, ok := balancedSpan(text, open, '{', '}'); ok {
		return span, nil
	}
	if last := strings.LastIndexByte(text, '}'); last > open {
		return text[open : last+1], nil
	}
	return "", ErrNoJSON
}

// balancedSpan returns text[start:end] where end closes the bracket opened
// at start. Brackets inside string literals are ignored.
func balancedSpan(text string, start int, open, close byte) (string, bool) {
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

var trailingCommaRE = regexp.MustCompile(`,(\s*[}\]])`)

// decode parses payload. Trailing commas and typographic quotes, two
// defects models commonly emit, are repaired before giving up.
func decode(payload string) (any, error) {
	var v any
	err := json.Unmarshal([]byte(payload), &v)
	if err == nil {
		return v, nil
	}
	repaired := trailingCommaRE.ReplaceAllString(payload, "$1")
	repaired = strings.NewReplacer("“", `"`, "”", `"`).Replace(repaired)
	if repaired != payload {
		if err2 := json.Unmarshal([]byte(repaired), &v); err2 == nil {
			return v, nil
		}
	}
	return nil, &ParseError{Payload: payload, Err: err}
}

// truncateForError truncates a string for error messages.
func truncateForError(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
