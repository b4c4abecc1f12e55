// Package model holds the canonical record shapes produced by the
// extraction pipeline: calendar events and their simpler siblings
// (expenses, to-dos, meals), plus the envelope that carries them back to
// the caller.
package model

import "time"

// Frequency is the canonical recurrence frequency.
type Frequency string

const (
	FrequencyDaily   Frequency = "DAILY"
	FrequencyWeekly  Frequency = "WEEKLY"
	FrequencyMonthly Frequency = "MONTHLY"
	FrequencyYearly  Frequency = "YEARLY"
)

// RecurrenceRule is the structured form of a repeating event.
// ByDay holds RFC 5545 weekday codes (MO..SU, optionally with an ordinal
// prefix such as "1MO" or "-1FR").
type RecurrenceRule struct {
	Frequency  Frequency  `json:"frequency" validate:"required,oneof=DAILY WEEKLY MONTHLY YEARLY"`
	Interval   int        `json:"interval" validate:"gte=1"`
	ByDay      []string   `json:"byDay,omitempty" validate:"omitempty,dive,byday"`
	ByMonthDay []int      `json:"byMonthDay,omitempty" validate:"omitempty,dive,min=-31,max=31,ne=0"`
	Count      int        `json:"count,omitempty" validate:"gte=0"`
	Until      *time.Time `json:"until,omitempty"`
}

// NormalizedEvent is the canonical output unit of event extraction.
type NormalizedEvent struct {
	ID          string    `json:"id" validate:"required"`
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	StartTime   time.Time `json:"startTime" validate:"required"`
	EndTime     time.Time `json:"endTime" validate:"required,gtfield=StartTime"`

	IsRecurring bool `json:"isRecurring"`
	// RecurringPattern echoes the original recurrence phrase for display.
	RecurringPattern string          `json:"recurringPattern,omitempty"`
	RecurrenceRule   *RecurrenceRule `json:"recurrenceRule,omitempty"`

	Confidence float64 `json:"confidence" validate:"gte=0,lte=1"`

	// Extra carries candidate keys the normalizer did not recognize.
	Extra map[string]any `json:"extra,omitempty"`
}

// Duration returns EndTime - StartTime.
func (e NormalizedEvent) Duration() time.Duration {
	return e.EndTime.Sub(e.StartTime)
}

// Expense is a single spending record.
type Expense struct {
	ID          string    `json:"id" validate:"required"`
	Amount      float64   `json:"amount" validate:"gt=0"`
	Currency    string    `json:"currency,omitempty"`
	Category    string    `json:"category" validate:"required"`
	Description string    `json:"description,omitempty"`
	Date        time.Time `json:"date" validate:"required"`
	PaidBy      string    `json:"paidBy,omitempty"`
	Confidence  float64   `json:"confidence" validate:"gte=0,lte=1"`
}

// Priority levels for to-do items.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// TodoItem is a single task.
type TodoItem struct {
	ID          string     `json:"id" validate:"required"`
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Priority    string     `json:"priority" validate:"oneof=low medium high"`
	Assignee    string     `json:"assignee,omitempty"`
	Completed   bool       `json:"completed"`
	Confidence  float64    `json:"confidence" validate:"gte=0,lte=1"`
}

// Meal types.
const (
	MealBreakfast = "breakfast"
	MealLunch     = "lunch"
	MealDinner    = "dinner"
	MealSnack     = "snack"
)

// MealRecord is a single logged meal.
type MealRecord struct {
	ID         string    `json:"id" validate:"required"`
	MealType   string    `json:"mealType" validate:"oneof=breakfast lunch dinner snack"`
	Foods      []string  `json:"foods" validate:"min=1,dive,required"`
	Calories   int       `json:"calories,omitempty" validate:"gte=0"`
	Date       time.Time `json:"date" validate:"required"`
	Notes      string    `json:"notes,omitempty"`
	Confidence float64   `json:"confidence" validate:"gte=0,lte=1"`
}

// Pipeline stages that can produce an envelope.
const (
	StageDone     = "done"
	StageFallback = "fallback"
)

// Envelope is the uniform result of one extraction run. An empty Records
// slice is a successful "nothing found", not a failure; degradation is
// reported through Confidence and Summary.
type Envelope[T any] struct {
	Records     []T     `json:"records"`
	Summary     string  `json:"summary"`
	Confidence  float64 `json:"confidence"`
	RawResponse string  `json:"rawResponse"`
	UserInput   string  `json:"userInput,omitempty"`

	// Stage is the last pipeline state before DONE: "done" for the
	// structured path, "fallback" when the degrade path produced the result.
	Stage string `json:"stage"`
	// Dropped counts candidates rejected during normalization or validation.
	Dropped int `json:"dropped"`
}

// Len returns the number of records.
func (e Envelope[T]) Len() int { return len(e.Records) }
