package extract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hearthside/eventsift/internal/llm"
	"github.com/hearthside/eventsift/internal/temporal"
)

const (
	// requestTimeout is the maximum time for a single extraction call.
	requestTimeout = 2 * time.Minute

	// requestMaxInputLen caps the user text sent to the model, in runes.
	requestMaxInputLen = 4000
)

// Kind selects the record type requested from the model.
type Kind string

const (
	KindEvents   Kind = "events"
	KindExpenses Kind = "expenses"
	KindTodos    Kind = "todos"
	KindMeals    Kind = "meals"
)

// Kinds lists every supported record type.
var Kinds = []Kind{KindEvents, KindExpenses, KindTodos, KindMeals}

// ParseKind accepts a kind name in singular or plural form.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "event", "events":
		return KindEvents, nil
	case "expense", "expenses":
		return KindExpenses, nil
	case "todo", "todos", "task", "tasks":
		return KindTodos, nil
	case "meal", "meals":
		return KindMeals, nil
	}
	return "", fmt.Errorf("unknown record kind %q (supported: events, expenses, todos, meals)", s)
}

// Process runs raw through the pipeline for kind and returns the envelope.
func (p *Pipeline) Process(k Kind, raw, userInput string, ref time.Time) any {
	switch k {
	case KindExpenses:
		return p.Expenses(raw, userInput, ref)
	case KindTodos:
		return p.Todos(raw, userInput, ref)
	case KindMeals:
		return p.Meals(raw, userInput, ref)
	}
	return p.Events(raw, userInput, ref)
}

const systemPromptHeader = `You extract structured records from a user's free-form text (speech transcripts, OCR, chat).
The current local date-time is %s (%s).

RULES:
- Return ONLY a JSON object, no prose
- Copy relative expressions ("tomorrow 3pm", "下週二") as written; they are resolved later
- Use "YYYY-MM-DD HH:mm:ss" when the text gives an absolute date and time
- Use confidence 0.0-1.0 based on how clearly the record was stated
- If nothing matches, return an empty array
`

var kindSchemas = map[Kind]string{
	KindEvents: `Return a JSON object matching this schema:
{
  "events": [
    {
      "title": "short title",
      "startTime": "YYYY-MM-DD HH:mm:ss or the phrase used",
      "endTime": "optional",
      "duration": "optional, e.g. 90 min",
      "location": "optional",
      "description": "optional",
      "isRecurring": false,
      "recurringPattern": "optional phrase, e.g. every Monday",
      "recurrenceRule": "optional RRULE, e.g. FREQ=WEEKLY;BYDAY=MO",
      "confidence": 0.9
    }
  ],
  "summary": "one sentence"
}`,
	KindExpenses: `Return a JSON object matching this schema:
{
  "expenses": [
    {"amount": 12.5, "currency": "USD", "category": "food", "description": "lunch", "date": "YYYY-MM-DD", "paidBy": "optional", "confidence": 0.9}
  ],
  "summary": "one sentence"
}`,
	KindTodos: `Return a JSON object matching this schema:
{
  "todos": [
    {"title": "task", "description": "optional", "dueDate": "YYYY-MM-DD", "priority": "low|medium|high", "assignee": "optional", "completed": false, "confidence": 0.9}
  ],
  "summary": "one sentence"
}`,
	KindMeals: `Return a JSON object matching this schema:
{
  "meals": [
    {"mealType": "breakfast|lunch|dinner|snack", "foods": ["rice", "soup"], "calories": 650, "date": "YYYY-MM-DD", "notes": "optional", "confidence": 0.9}
  ],
  "summary": "one sentence"
}`,
}

// SystemPrompt builds the instructions sent with every request for kind.
func SystemPrompt(k Kind, ref time.Time) string {
	schema, ok := kindSchemas[k]
	if !ok {
		schema = kindSchemas[KindEvents]
	}
	return fmt.Sprintf(systemPromptHeader, temporal.Format(ref), ref.Weekday()) + "\n" + schema
}

// Request asks provider for kind records found in userInput and returns
// the raw response text, which is meant for the pipeline. When progress
// is set and the provider can stream, each received fragment is passed to
// progress as it arrives.
func Request(ctx context.Context, provider llm.Provider, k Kind, userInput string, ref time.Time, progress func(delta string)) (string, error) {
	if provider == nil {
		return "", fmt.Errorf("LLM provider is nil")
	}
	text := strings.TrimSpace(userInput)
	if text == "" {
		return "", fmt.Errorf("empty input")
	}
	if r := []rune(text); len(r) > requestMaxInputLen {
		text = string(r[:requestMaxInputLen])
	}

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	opts := llm.CompletionOpts{
		Temperature: 0.1,
		MaxTokens:   2048,
		Format:      "json",
		System:      SystemPrompt(k, ref),
	}

	if sp, ok := provider.(llm.StreamingProvider); ok && progress != nil {
		response, err := sp.Stream(reqCtx, text, opts, progress)
		if err != nil {
			return "", fmt.Errorf("LLM extraction stream failed: %w", err)
		}
		return response, nil
	}

	response, err := provider.Complete(reqCtx, text, opts)
	if err != nil {
		return "", fmt.Errorf("LLM extraction call failed: %w", err)
	}
	return response, nil
}
