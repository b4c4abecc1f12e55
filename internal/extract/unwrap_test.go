package extract

import (
	"errors"
	"strings"
	"testing"
)

func TestUnwrap(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"bare object", `{"title":"Gym"}`, `{"title":"Gym"}`},
		{"json fence", "Here you go:\n```json\n{\"events\":[]}\n```\nAnything else?", `{"events":[]}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"fence without braces skipped", "```\nno json\n```\n{\"a\":1}", `{"a":1}`},
		{"unclosed fence", "```json\n{\"a\":1}", `{"a":1}`},
		{"prose around object", `Sure! {"a":{"b":2}} hope that helps`, `{"a":{"b":2}}`},
		{"braces inside strings", `x {"t":"a } b","u":"{"} y`, `{"t":"a } b","u":"{"}`},
		{"escaped quote", `{"t":"say \"}\" now"} tail`, `{"t":"say \"}\" now"}`},
		{"leading array", `[{"title":"A"},{"title":"B"}]`, `[{"title":"A"},{"title":"B"}]`},
		{"unbalanced uses last brace", `{"a": {"b": 1} x`, `{"a": {"b": 1}`},
		{"first of two objects", `{"a":1} and {"b":2}`, `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Unwrap(tt.raw)
			if err != nil {
				t.Fatalf("Unwrap(%q) error: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("Unwrap(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestUnwrapNoJSON(t *testing.T) {
	for _, raw := range []string{"", "   ", "明天下午3點開會", "no braces at all", "only an opener {"} {
		if _, err := Unwrap(raw); !errors.Is(err, ErrNoJSON) {
			t.Errorf("Unwrap(%q) error = %v, want ErrNoJSON", raw, err)
		}
	}
}

func TestDecode(t *testing.T) {
	v, err := decode(`{"events":[{"title":"A",},],}`)
	if err != nil {
		t.Fatalf("trailing commas not repaired: %v", err)
	}
	events := v.(map[string]any)["events"].([]any)
	if len(events) != 1 {
		t.Errorf("expected 1 event, got %d", len(events))
	}

	if _, err := decode(`{“title”: “A”}`); err != nil {
		t.Errorf("typographic quotes not repaired: %v", err)
	}

	_, err = decode(`{"title" "A"}`)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %T %v", err, err)
	}
	if !strings.Contains(pe.Error(), "invalid JSON from LLM") {
		t.Errorf("unexpected message: %s", pe.Error())
	}
	if pe.Unwrap() == nil {
		t.Error("ParseError should wrap the decoder error")
	}
}

func TestTruncateForError(t *testing.T) {
	if got := truncateForError("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}
	if got := truncateForError("0123456789abc", 10); got != "0123456789..." {
		t.Errorf("got %q", got)
	}
}
