package extract

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/hearthside/eventsift/internal/model"
)

// DateLayout is the single date format sibling records accept.
const DateLayout = "2006-01-02"

// CategoryOther is the expense category used when none is given.
const CategoryOther = "other"

var (
	expenseSchema = schema{
		wrappers: append([]string{"expenses", "transactions", "spending", "payments"}, commonWrappers...),
		singular: []string{"expense", "transaction", "payment", "record"},
		aliases: []aliasRule{
			{"amount", []string{"amount", "price", "cost", "total", "money", "sum", "金額", "金额", "價格", "价格", "費用", "费用", "値段"}},
			{"currency", []string{"currency", "curr", "幣別", "币种", "货币", "貨幣", "通貨"}},
			{"category", []string{"category", "type", "kind", "類別", "类别", "分類", "分类", "カテゴリ"}},
			{"description", []string{"description", "desc", "item", "name", "title", "note", "notes", "memo", "描述", "項目", "项目", "備註", "备注", "内容"}},
			{"date", []string{"date", "day", "spentat", "paidat", "日期", "日付"}},
			{"paidBy", []string{"paidby", "payer", "paid", "付款人", "支払者"}},
			{"confidence", []string{"confidence", "score"}},
		},
		required: []string{"amount"},
	}

	todoSchema = schema{
		wrappers: append([]string{"todos", "tasks", "todoitems", "todolist"}, commonWrappers...),
		singular: []string{"todo", "task", "record"},
		aliases: []aliasRule{
			{"title", []string{"title", "task", "todo", "name", "summary", "subject", "content", "標題", "标题", "任務", "任务", "タスク"}},
			{"description", []string{"description", "desc", "details", "note", "notes", "描述", "備註", "备注"}},
			{"dueDate", []string{"duedate", "due", "deadline", "dueby", "date", "截止日期", "期限"}},
			{"priority", []string{"priority", "importance", "urgency", "優先級", "优先级", "優先度"}},
			{"assignee", []string{"assignee", "owner", "assignedto", "who", "負責人", "负责人", "担当"}},
			{"completed", []string{"completed", "done", "finished", "status", "完成"}},
			{"confidence", []string{"confidence", "score"}},
		},
		required: []string{"title"},
	}

	// "items" is a food alias here, so it is not a wrapper.
	mealSchema = schema{
		wrappers: []string{"meals", "mealrecords", "records", "results", "data", "entries"},
		singular: []string{"meal", "record"},
		aliases: []aliasRule{
			{"mealType", []string{"mealtype", "meal", "type", "餐別", "餐别", "餐次", "食事"}},
			{"foods", []string{"foods", "food", "items", "dishes", "menu", "食物", "菜色", "料理"}},
			{"calories", []string{"calories", "kcal", "cal", "熱量", "热量", "卡路里", "カロリー"}},
			{"date", []string{"date", "day", "日期", "日付"}},
			{"notes", []string{"notes", "note", "description", "desc", "備註", "备注", "メモ"}},
			{"confidence", []string{"confidence", "score"}},
		},
		required: []string{"foods"},
	}
)

var (
	expenseKind = kind[model.Expense, model.Expense]{
		noun:       "expense",
		schema:     expenseSchema,
		resolve:    resolveExpense,
		validate:   passThrough[model.Expense],
		fallback:   fallbackExpenses,
		confidence: func(e model.Expense) float64 { return e.Confidence },
	}
	todoKind = kind[model.TodoItem, model.TodoItem]{
		noun:       "todo",
		schema:     todoSchema,
		resolve:    resolveTodo,
		validate:   passThrough[model.TodoItem],
		fallback:   fallbackTodos,
		confidence: func(t model.TodoItem) float64 { return t.Confidence },
	}
	mealKind = kind[model.MealRecord, model.MealRecord]{
		noun:       "meal",
		schema:     mealSchema,
		resolve:    resolveMeal,
		validate:   passThrough[model.MealRecord],
		confidence: func(m model.MealRecord) float64 { return m.Confidence },
	}
)

// Expenses extracts spending records from raw. Dates default to ref's day
// and currency to the pipeline default.
func (p *Pipeline) Expenses(raw, userInput string, ref time.Time) model.Envelope[model.Expense] {
	return execute(p.newRun("expense", raw, userInput, ref), expenseKind)
}

// Todos extracts to-do items from raw.
func (p *Pipeline) Todos(raw, userInput string, ref time.Time) model.Envelope[model.TodoItem] {
	return execute(p.newRun("todo", raw, userInput, ref), todoKind)
}

// Meals extracts meal records from raw. A missing meal type is inferred
// from ref's hour.
func (p *Pipeline) Meals(raw, userInput string, ref time.Time) model.Envelope[model.MealRecord] {
	return execute(p.newRun("meal", raw, userInput, ref), mealKind)
}

func passThrough[T any](_ *run, rec T) (T, error) { return rec, nil }

// dateOf reads a YYYY-MM-DD date, or returns ref's day.
func (r *run) dateOf(raw string) time.Time {
	if raw != "" {
		if t, err := time.ParseInLocation(DateLayout, raw, r.ref.Location()); err == nil {
			return t
		}
		r.log.Debug().Str("input", raw).Msg("date unparsable, using reference date")
	}
	y, m, d := r.ref.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, r.ref.Location())
}

func confidenceOr(c candidate, def float64) float64 {
	if f, ok := confidenceOf(c.fields["confidence"]); ok {
		return f
	}
	return def
}

var errNoAmount = errors.New("amount is not a positive number")

func resolveExpense(r *run, c candidate) (model.Expense, error) {
	amount, symbol, ok := amountOf(c.fields["amount"])
	if !ok {
		return model.Expense{}, fmt.Errorf("%w: %v", errNoAmount, c.fields["amount"])
	}
	currency := strings.ToUpper(c.str("currency"))
	if currency == "" {
		currency = symbol
	}
	if currency == "" {
		currency = r.p.defaultCurrency
	}
	category := strings.ToLower(c.str("category"))
	if category == "" {
		category = CategoryOther
	}
	return model.Expense{
		ID:          r.p.newID(),
		Amount:      amount,
		Currency:    currency,
		Category:    category,
		Description: c.str("description"),
		Date:        r.dateOf(c.str("date")),
		PaidBy:      c.str("paidBy"),
		Confidence:  confidenceOr(c, DefaultConfidence),
	}, nil
}

var (
	amountRE = regexp.MustCompile(`-?\d{1,3}(?:,\d{3})+(?:\.\d+)?|-?\d+(?:\.\d+)?`)

	// ordered: "NT$" must be seen before "$"
	currencySymbols = []struct{ symbol, code string }{
		{"NT$", "TWD"},
		{"HK$", "HKD"},
		{"US$", "USD"},
		{"€", "EUR"},
		{"£", "GBP"},
		{"円", "JPY"},
		{"¥", "JPY"},
		{"₩", "KRW"},
		{"$", "USD"},
	}
	currencyCodeRE = regexp.MustCompile(`\b([A-Z]{3})\b`)
)

// amountOf coerces v to a positive amount. String amounts may carry
// thousands separators and a currency symbol or code, which is returned.
func amountOf(v any) (float64, string, bool) {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		num := amountRE.FindString(s)
		if num == "" {
			return 0, "", false
		}
		f, err := cast.ToFloat64E(strings.ReplaceAll(num, ",", ""))
		if err != nil || f <= 0 {
			return 0, "", false
		}
		return f, currencyIn(s), true
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || f <= 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, "", false
	}
	return f, "", true
}

func currencyIn(s string) string {
	for _, cs := range currencySymbols {
		if strings.Contains(s, cs.symbol) {
			return cs.code
		}
	}
	if m := currencyCodeRE.FindStringSubmatch(strings.ToUpper(s)); m != nil {
		return m[1]
	}
	return ""
}

// moneyRE finds an amount with an explicit currency marker in free text.
var moneyRE = regexp.MustCompile(`(?i)(?:NT\$|HK\$|US\$|[$€£¥₩])\s?\d[\d,]*(?:\.\d+)?|\d[\d,]*(?:\.\d+)?\s?(?:元|塊|块|円|dollars?|usd|twd|eur|jpy)`)

// fallbackExpenses salvages a single expense when the text names an
// amount with a currency marker.
func fallbackExpenses(r *run, text string, _ FallbackPath) []model.Expense {
	m := moneyRE.FindString(text)
	if m == "" {
		return nil
	}
	amount, symbol, ok := amountOf(m)
	if !ok {
		return nil
	}
	currency := symbol
	if currency == "" && strings.Contains(strings.ToLower(m), "dollar") {
		currency = "USD"
	}
	if currency == "" {
		currency = r.p.defaultCurrency
	}
	return []model.Expense{{
		ID:          r.p.newID(),
		Amount:      amount,
		Currency:    currency,
		Category:    CategoryOther,
		Description: truncateTitle(text),
		Date:        r.dateOf(""),
		Confidence:  confidenceSiblingFall,
	}}
}

func resolveTodo(r *run, c candidate) (model.TodoItem, error) {
	t := model.TodoItem{
		ID:          r.p.newID(),
		Title:       c.str("title"),
		Description: c.str("description"),
		Priority:    priorityOf(c.str("priority")),
		Assignee:    c.str("assignee"),
		Completed:   completedOf(c.fields["completed"]),
		Confidence:  confidenceOr(c, DefaultConfidence),
	}
	if raw := c.str("dueDate"); raw != "" {
		if due, err := time.ParseInLocation(DateLayout, raw, r.ref.Location()); err == nil {
			t.DueDate = &due
		} else {
			r.log.Debug().Str("input", raw).Msg("due date unparsable, dropped")
		}
	}
	return t, nil
}

var priorityWords = map[string]string{
	"high": model.PriorityHigh, "h": model.PriorityHigh, "urgent": model.PriorityHigh,
	"critical": model.PriorityHigh, "p1": model.PriorityHigh, "1": model.PriorityHigh,
	"高": model.PriorityHigh, "緊急": model.PriorityHigh, "紧急": model.PriorityHigh,
	"medium": model.PriorityMedium, "m": model.PriorityMedium, "normal": model.PriorityMedium,
	"p2": model.PriorityMedium, "2": model.PriorityMedium, "中": model.PriorityMedium,
	"low": model.PriorityLow, "l": model.PriorityLow, "p3": model.PriorityLow,
	"3": model.PriorityLow, "低": model.PriorityLow,
}

func priorityOf(s string) string {
	if p, ok := priorityWords[strings.ToLower(strings.TrimSpace(s))]; ok {
		return p
	}
	return model.PriorityMedium
}

func completedOf(v any) bool {
	if b, err := cast.ToBoolE(v); err == nil {
		return b
	}
	switch strings.ToLower(strings.TrimSpace(cast.ToString(v))) {
	case "done", "completed", "complete", "finished", "yes", "完成", "已完成", "完了":
		return true
	}
	return false
}

func fallbackTodos(r *run, text string, path FallbackPath) []model.TodoItem {
	text = strings.TrimSpace(text)
	if !nonTrivial(text) {
		return nil
	}
	conf := confidenceSiblingFall
	if path == FallbackNoJSON {
		conf = confidenceNoJSON
	}
	return []model.TodoItem{{
		ID:          r.p.newID(),
		Title:       truncateTitle(text),
		Description: text,
		Priority:    model.PriorityMedium,
		Confidence:  conf,
	}}
}

func resolveMeal(r *run, c candidate) (model.MealRecord, error) {
	foods := foodsOf(c.fields["foods"])
	if len(foods) == 0 {
		return model.MealRecord{}, errors.New("no foods listed")
	}
	calories, err := caloriesOf(c.fields["calories"])
	if err != nil {
		r.log.Debug().Err(err).Msg("calories dropped")
	}
	return model.MealRecord{
		ID:         r.p.newID(),
		MealType:   mealTypeOf(c.str("mealType"), r.ref),
		Foods:      foods,
		Calories:   calories,
		Date:       r.dateOf(c.str("date")),
		Notes:      c.str("notes"),
		Confidence: confidenceOr(c, DefaultConfidence),
	}, nil
}

var foodSplitRE = regexp.MustCompile(`\s*(?:[,，、;；/]|\band\b|和|跟)\s*`)

func foodsOf(v any) []string {
	var raw []string
	switch t := v.(type) {
	case []any:
		for _, e := range t {
			if m, ok := e.(map[string]any); ok {
				// [{"name": "rice"}]
				e = m["name"]
			}
			raw = append(raw, cast.ToString(e))
		}
	case string:
		raw = foodSplitRE.Split(t, -1)
	default:
		raw = []string{cast.ToString(t)}
	}
	foods := make([]string, 0, len(raw))
	for _, f := range raw {
		if f = strings.TrimSpace(f); f != "" {
			foods = append(foods, f)
		}
	}
	return foods
}

var calorieRE = regexp.MustCompile(`\d+(?:\.\d+)?`)

func caloriesOf(v any) (int, error) {
	if v == nil {
		return 0, nil
	}
	if s, ok := v.(string); ok {
		v = calorieRE.FindString(s)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, fmt.Errorf("calories %v: %w", v, err)
	}
	if f < 0 {
		return 0, fmt.Errorf("calories %v: negative", v)
	}
	return int(math.Round(f)), nil
}

var mealWords = map[string]string{
	"breakfast": model.MealBreakfast, "早餐": model.MealBreakfast, "早飯": model.MealBreakfast,
	"早饭": model.MealBreakfast, "朝食": model.MealBreakfast, "朝ごはん": model.MealBreakfast,
	"lunch": model.MealLunch, "brunch": model.MealLunch, "午餐": model.MealLunch,
	"午飯": model.MealLunch, "午饭": model.MealLunch, "中餐": model.MealLunch, "昼食": model.MealLunch,
	"dinner": model.MealDinner, "supper": model.MealDinner, "晚餐": model.MealDinner,
	"晚飯": model.MealDinner, "晚饭": model.MealDinner, "夕食": model.MealDinner,
	"snack": model.MealSnack, "點心": model.MealSnack, "点心": model.MealSnack,
	"零食": model.MealSnack, "宵夜": model.MealSnack, "間食": model.MealSnack,
}

// mealTypeOf maps s to a meal type, inferring one from ref's hour when s
// names none.
func mealTypeOf(s string, ref time.Time) string {
	if mt, ok := mealWords[strings.ToLower(strings.TrimSpace(s))]; ok {
		return mt
	}
	switch h := ref.Hour(); {
	case h >= 4 && h < 11:
		return model.MealBreakfast
	case h >= 11 && h < 15:
		return model.MealLunch
	case h >= 17 && h < 22:
		return model.MealDinner
	}
	return model.MealSnack
}
