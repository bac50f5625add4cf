package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format used in persisted stores and the API.
const DateLayout = "2006-01-02"

const (
	SaveMoney           GoalKind = "save_money"
	SpendLessInCategory GoalKind = "spend_less_in_category"
)

const (
	maxGoalNameLength     = 200
	maxCategoryNameLength = 100
)

// DefaultCategories seeds the registry when nothing is persisted.
var DefaultCategories = []string{"Food", "Transport", "Entertainment", "Other"}

type (
	GoalKind string

	// Date is a calendar date stored as midnight UTC. The zero value means
	// unset.
	Date struct {
		time.Time
	}

	ExpenseRecord struct {
		ID       string
		Amount   decimal.Decimal
		Category string
		Date     Date
	}

	// ExpenseUpdate carries the mutable fields of an expense. Nil fields are
	// left untouched.
	ExpenseUpdate struct {
		ID       string
		Amount   *decimal.Decimal
		Category *string
	}

	BudgetState struct {
		CategoryBudget  map[string]decimal.Decimal
		RemainingBudget decimal.Decimal
		Income          decimal.Decimal
	}

	// Snapshot is the cumulative savings total recorded at a deposit.
	Snapshot struct {
		Date   Date
		Amount decimal.Decimal
	}

	SavingsState struct {
		TotalSavings decimal.Decimal
		History      []Snapshot
	}

	Goal struct {
		ID         string
		Name       string
		Kind       GoalKind
		Target     decimal.Decimal
		TargetDate Date
		Category   string // required for SpendLessInCategory
	}

	// CategoryAmount represents an amount aggregated by category name.
	CategoryAmount struct {
		Name   string
		Amount decimal.Decimal
	}
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string. 0001-01-01 is refused because it
// is the zero Date.
func ParseDate(s string) (Date, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	if t.IsZero() {
		return Date{}, fmt.Errorf("parse date %q: %w", s, ErrInvalidDay)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalJSON overrides the promoted time.Time encoding so dates travel as
// YYYY-MM-DD.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	return d.UnmarshalText([]byte(s))
}

// AddDays returns the date n calendar days later.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// Equal compares calendar days.
func (d Date) Equal(o Date) bool {
	return d.Time.Equal(o.Time)
}

func (d Date) After(o Date) bool {
	return d.Time.After(o.Time)
}

func (d Date) Before(o Date) bool {
	return d.Time.Before(o.Time)
}

// Validate rejects the zero Date, which stands for "not set". Any other
// value is a real calendar day.
func (d Date) Validate() error {
	if d.IsZero() {
		return Reject(ErrInvalidDay, "date", "unset")
	}
	return nil
}

// ValidateAmount rejects non-positive amounts.
func ValidateAmount(field string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return Reject(ErrInvalidAmount, field, amount.String())
	}
	return nil
}

// ValidateCategory rejects blank or oversized category names. Names are
// otherwise taken verbatim.
func ValidateCategory(name string) error {
	if strings.TrimSpace(name) == "" {
		return Reject(ErrEmptyCategory, "category", name)
	}
	if len(name) > maxCategoryNameLength {
		return Reject(ErrEmptyCategory, "category", "too long")
	}
	return nil
}

// Validate checks a record against the creation rules; today bounds the date.
func (e ExpenseRecord) Validate(today Date) error {
	if err := ValidateAmount("amount", e.Amount); err != nil {
		return err
	}
	if err := ValidateCategory(e.Category); err != nil {
		return err
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if e.Date.After(today) {
		return Reject(ErrFutureDate, "date", e.Date.String())
	}
	return nil
}

func (k GoalKind) IsValid() bool {
	switch k {
	case SaveMoney, SpendLessInCategory:
		return true
	default:
		return false
	}
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return Reject(ErrInvalidGoal, "name", g.Name)
	}
	if len(g.Name) > maxGoalNameLength {
		return Reject(ErrInvalidGoal, "name", "too long")
	}
	if !g.Kind.IsValid() {
		return Reject(ErrInvalidGoal, "kind", string(g.Kind))
	}
	if !g.Target.IsPositive() {
		return Reject(ErrInvalidGoal, "target", g.Target.String())
	}
	if g.TargetDate.IsZero() {
		return Reject(ErrInvalidGoal, "date", "missing")
	}
	if g.Kind == SpendLessInCategory && strings.TrimSpace(g.Category) == "" {
		return Reject(ErrInvalidGoal, "category", g.Category)
	}
	return nil
}

// Sum adds up a set of amounts.
func Sum(values map[string]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
