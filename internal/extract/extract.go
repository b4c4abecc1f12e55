// Package extract turns the text an AI model returned for an extraction
// request into validated records.
//
// The pipeline copes with approximately-JSON output, inconsistent field
// names, multi-language date and time expressions and outright failures.
// It never reports a parsing failure as an error: every call returns an
// envelope, degrading to a low-confidence best-effort record when the
// structured path fails.
//
//   - Events: calendar events with start/end times and recurrence
//   - Expenses, to-dos and meals: the same unwrapping and key
//     normalization with a simpler field schema
package extract

import (
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hearthside/eventsift/internal/model"
)

// Stage default confidences.
const (
	DefaultConfidence = 0.85

	confidenceNoJSON      = 0.5
	confidenceRejected    = 0.4
	confidenceParseCue    = 0.3
	confidenceParseNoCue  = 0.2
	confidenceSiblingFall = 0.3
)

// MaxTitleLength caps fallback titles, in runes. Longer text is cut and
// marked with an ellipsis.
const MaxTitleLength = 50

// Pipeline converts raw model output into record envelopes. A Pipeline is
// immutable after construction and safe for concurrent use.
type Pipeline struct {
	log             zerolog.Logger
	newID           func() string
	durations       []categoryDuration
	defaultCurrency string
	governor        *Governor // nil disables record governance
}

type categoryDuration struct {
	keyword  string
	duration time.Duration
}

// PipelineOption configures the extraction pipeline.
type PipelineOption func(*Pipeline)

// WithLogger sets the logger stage transitions, drops and repairs are
// reported to.
func WithLogger(l zerolog.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.log = l
	}
}

// WithIDFunc replaces the record ID generator.
func WithIDFunc(fn func() string) PipelineOption {
	return func(p *Pipeline) {
		if fn != nil {
			p.newID = fn
		}
	}
}

// WithCategoryDurations sets default event lengths keyed by a keyword
// matched case-insensitively against title and description. It is
// consulted only when an event has neither a usable end time nor a
// duration.
func WithCategoryDurations(m map[string]time.Duration) PipelineOption {
	return func(p *Pipeline) {
		p.durations = p.durations[:0]
		for k, d := range m {
			k = strings.ToLower(strings.TrimSpace(k))
			if k == "" || d <= 0 {
				continue
			}
			p.durations = append(p.durations, categoryDuration{keyword: k, duration: d})
		}
		// longest keyword first so "team meeting" beats "meeting"
		sort.Slice(p.durations, func(i, j int) bool {
			a, b := p.durations[i], p.durations[j]
			if len(a.keyword) != len(b.keyword) {
				return len(a.keyword) > len(b.keyword)
			}
			return a.keyword < b.keyword
		})
	}
}

// WithDefaultCurrency sets the currency given to expenses that carry none.
func WithDefaultCurrency(code string) PipelineOption {
	return func(p *Pipeline) {
		p.defaultCurrency = strings.ToUpper(strings.TrimSpace(code))
	}
}

// WithGovernor enables record governance on event output.
func WithGovernor(cfg GovernorConfig) PipelineOption {
	return func(p *Pipeline) {
		p.governor = NewGovernor(cfg)
	}
}

// NewPipeline creates a pipeline with functional options.
func NewPipeline(opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		log:   zerolog.Nop(),
		newID: model.NewID,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var defaultPipeline = NewPipeline()

// ResolveTemporalExtraction runs the default pipeline over one model
// response for events.
func ResolveTemporalExtraction(raw string, ref time.Time) model.Envelope[model.NormalizedEvent] {
	return defaultPipeline.Events(raw, "", ref)
}

// ExtractExpenses runs the default pipeline over one model response for
// expenses.
func ExtractExpenses(raw, userInput string, ref time.Time) model.Envelope[model.Expense] {
	return defaultPipeline.Expenses(raw, userInput, ref)
}

// ExtractTodos runs the default pipeline over one model response for
// to-do items.
func ExtractTodos(raw, userInput string, ref time.Time) model.Envelope[model.TodoItem] {
	return defaultPipeline.Todos(raw, userInput, ref)
}

// ExtractMeals runs the default pipeline over one model response for meal
// records.
func ExtractMeals(raw, userInput string, ref time.Time) model.Envelope[model.MealRecord] {
	return defaultPipeline.Meals(raw, userInput, ref)
}

// durationFor returns the configured length for the first keyword found in
// the event's text, or 0.
func (p *Pipeline) durationFor(texts ...string) time.Duration {
	if len(p.durations) == 0 {
		return 0
	}
	hay := strings.ToLower(strings.Join(texts, " "))
	for _, cd := range p.durations {
		if strings.Contains(hay, cd.keyword) {
			return cd.duration
		}
	}
	return 0
}

// truncateTitle cuts s to MaxTitleLength runes, appending "..." when cut.
func truncateTitle(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= MaxTitleLength {
		return s
	}
	return string(r[:MaxTitleLength]) + "..."
}
