package extract

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/hearthside/eventsift/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestExpenses(t *testing.T) {
	raw := "```json\n" + `{"expenses":[
		{"amount":"NT$1,250","category":"Food","item":"team lunch","date":"2024-01-02","payer":"Ann"},
		{"price":12.5,"currency":"usd"},
		{"amount":0,"category":"gift"},
		{"amount":"free"},
		{"category":"transport"}
	]}` + "\n```"
	env := testPipeline(WithDefaultCurrency("twd")).Expenses(raw, "", ref)

	want := []model.Expense{
		{ID: "id-1", Amount: 1250, Currency: "TWD", Category: "food", Description: "team lunch",
			Date: day(2024, 1, 2), PaidBy: "Ann", Confidence: DefaultConfidence},
		{ID: "id-2", Amount: 12.5, Currency: "USD", Category: CategoryOther,
			Date: day(2024, 1, 1), Confidence: DefaultConfidence},
	}
	if diff := cmp.Diff(want, env.Records); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
	if env.Dropped != 3 {
		t.Errorf("dropped = %d, want 3", env.Dropped)
	}
	if env.Stage != model.StageDone {
		t.Errorf("stage = %q", env.Stage)
	}
}

func TestExpensesDefaultCurrency(t *testing.T) {
	env := testPipeline(WithDefaultCurrency("jpy")).Expenses(`{"amount":300,"date":"01/02/2024"}`, "", ref)
	if len(env.Records) != 1 {
		t.Fatalf("got %d records", len(env.Records))
	}
	e := env.Records[0]
	if e.Currency != "JPY" {
		t.Errorf("currency = %q", e.Currency)
	}
	// only YYYY-MM-DD is accepted; anything else falls back to the reference day
	if !e.Date.Equal(day(2024, 1, 1)) {
		t.Errorf("date = %v", e.Date)
	}

	env = testPipeline().Expenses(`{"amount":300}`, "", ref)
	if env.Records[0].Currency != "" {
		t.Errorf("currency = %q, want empty without a default", env.Records[0].Currency)
	}
}

func TestExpensesFallback(t *testing.T) {
	env := testPipeline().Expenses("I could not find anything", "coffee $4.50 this morning", ref)
	if env.Stage != model.StageFallback || len(env.Records) != 1 {
		t.Fatalf("stage %q, %d records", env.Stage, len(env.Records))
	}
	e := env.Records[0]
	if e.Amount != 4.5 || e.Currency != "USD" || e.Category != CategoryOther {
		t.Errorf("expense = %+v", e)
	}
	if e.Confidence != confidenceSiblingFall {
		t.Errorf("confidence = %v", e.Confidence)
	}

	env = testPipeline().Expenses("nothing", "no money mentioned", ref)
	if len(env.Records) != 0 || env.Stage != model.StageFallback {
		t.Errorf("stage %q, %d records", env.Stage, len(env.Records))
	}
}

func TestAmountOf(t *testing.T) {
	tests := []struct {
		in       any
		amount   float64
		currency string
		ok       bool
	}{
		{12.5, 12.5, "", true},
		{"12.50", 12.5, "", true},
		{"$1,200.00", 1200, "USD", true},
		{"NT$300", 300, "TWD", true},
		{"€9", 9, "EUR", true},
		{"500円", 500, "JPY", true},
		{"42 GBP", 42, "GBP", true},
		{"-5", 0, "", false},
		{0, 0, "", false},
		{"abc", 0, "", false},
		{nil, 0, "", false},
	}
	for _, tt := range tests {
		amount, currency, ok := amountOf(tt.in)
		if ok != tt.ok || amount != tt.amount || currency != tt.currency {
			t.Errorf("amountOf(%v) = %v, %q, %v; want %v, %q, %v", tt.in, amount, currency, ok, tt.amount, tt.currency, tt.ok)
		}
	}
}

func TestTodos(t *testing.T) {
	raw := `{"tasks":[
		{"task":"File taxes","deadline":"2024-04-15","priority":"高","owner":"me","status":"done"},
		{"title":"Call bank","due":"next week","importance":"whatever"},
		{"description":"no title"}
	]}`
	env := testPipeline().Todos(raw, "", ref)
	if len(env.Records) != 2 {
		t.Fatalf("got %d records: %+v", len(env.Records), env.Records)
	}

	first := env.Records[0]
	if first.Title != "File taxes" || first.Priority != model.PriorityHigh || first.Assignee != "me" || !first.Completed {
		t.Errorf("first = %+v", first)
	}
	if first.DueDate == nil || !first.DueDate.Equal(day(2024, 4, 15)) {
		t.Errorf("due = %v", first.DueDate)
	}

	second := env.Records[1]
	if second.DueDate != nil {
		t.Errorf("unparsable due date kept: %v", second.DueDate)
	}
	if second.Priority != model.PriorityMedium || second.Completed {
		t.Errorf("second = %+v", second)
	}
	if env.Dropped != 1 {
		t.Errorf("dropped = %d", env.Dropped)
	}
}

func TestTodosFallback(t *testing.T) {
	env := testPipeline().Todos("sorry, I can't help", "remember to renew passport", ref)
	if len(env.Records) != 1 {
		t.Fatalf("got %d records", len(env.Records))
	}
	todo := env.Records[0]
	if todo.Title != "remember to renew passport" || todo.Confidence != confidenceNoJSON {
		t.Errorf("todo = %+v", todo)
	}
}

func TestPriorityOf(t *testing.T) {
	for in, want := range map[string]string{
		"HIGH": model.PriorityHigh, "urgent": model.PriorityHigh, "1": model.PriorityHigh,
		"Low": model.PriorityLow, "低": model.PriorityLow,
		"": model.PriorityMedium, "meh": model.PriorityMedium,
	} {
		if got := priorityOf(in); got != want {
			t.Errorf("priorityOf(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMeals(t *testing.T) {
	raw := `{"meals":[
		{"meal":"午餐","foods":"rice, soup、tofu","calories":"650 kcal","date":"2024-01-01"},
		{"type":"dinner","items":[{"name":"pasta"},"salad"],"calories":-5},
		{"foods":[]},
		{"food":"toast"}
	]}`
	env := testPipeline().Meals(raw, "", ref)

	want := []model.MealRecord{
		{ID: "id-1", MealType: model.MealLunch, Foods: []string{"rice", "soup", "tofu"}, Calories: 650,
			Date: day(2024, 1, 1), Confidence: DefaultConfidence},
		{ID: "id-2", MealType: model.MealDinner, Foods: []string{"pasta", "salad"},
			Date: day(2024, 1, 1), Confidence: DefaultConfidence},
		// 10:00 reference: breakfast
		{ID: "id-3", MealType: model.MealBreakfast, Foods: []string{"toast"},
			Date: day(2024, 1, 1), Confidence: DefaultConfidence},
	}
	if diff := cmp.Diff(want, env.Records); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
	if env.Dropped != 1 {
		t.Errorf("dropped = %d", env.Dropped)
	}
}

func TestMealTypeOf(t *testing.T) {
	tests := []struct {
		word string
		hour int
		want string
	}{
		{"Breakfast", 20, model.MealBreakfast},
		{"宵夜", 12, model.MealSnack},
		{"", 7, model.MealBreakfast},
		{"", 12, model.MealLunch},
		{"", 16, model.MealSnack},
		{"", 19, model.MealDinner},
		{"", 23, model.MealSnack},
	}
	for _, tt := range tests {
		r := time.Date(2024, 1, 1, tt.hour, 0, 0, 0, time.UTC)
		if got := mealTypeOf(tt.word, r); got != tt.want {
			t.Errorf("mealTypeOf(%q, %02d:00) = %q, want %q", tt.word, tt.hour, got, tt.want)
		}
	}
}

func TestMealsNoJSONIsEmpty(t *testing.T) {
	env := ExtractMeals("no meals here", "had some noodles", ref)
	if len(env.Records) != 0 || env.Stage != model.StageFallback {
		t.Errorf("stage %q, %d records", env.Stage, len(env.Records))
	}
}
