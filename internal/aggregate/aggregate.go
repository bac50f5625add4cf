// Package aggregate slices expense records by time window and category and
// shapes them into chart-ready series. It never mutates records and never
// touches storage.
package aggregate

import (
	"cmp"
	"maps"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

const (
	// CategoryTotal sums every category into one line.
	CategoryTotal = "Total"
	// CategoryAll draws one line per category.
	CategoryAll = "All"
)

type AlertStatus string

const (
	Under AlertStatus = "under"
	Exact AlertStatus = "exact"
	Over  AlertStatus = "over"
)

type (
	Point struct {
		Date   core.Date
		Amount decimal.Decimal
	}

	Series struct {
		Name   string
		Points []Point
	}

	// LineSeries is gap-filled: every series has one point per day of Window.
	LineSeries struct {
		Window Window
		Series []Series
	}

	BarEntry struct {
		Category  string
		Allocated decimal.Decimal
		Spent     decimal.Decimal
	}

	// Alert classifies spend against an allocation. Delta is spent minus
	// allocated, so it is positive when over.
	Alert struct {
		Category  string
		Status    AlertStatus
		Allocated decimal.Decimal
		Spent     decimal.Decimal
		Delta     decimal.Decimal
	}
)

// Aggregator resolves relative selectors ("this year", "today") with its
// clock; everything else is a pure function of the inputs.
type Aggregator struct {
	now func() time.Time
}

type Option func(*Aggregator)

func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

func New(opts ...Option) *Aggregator {
	a := &Aggregator{now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Aggregator) today() core.Date {
	return core.DateOf(a.now())
}

// WindowFor derives the date window for mode and sel. records is only read
// for All, whose window spans the earliest to the latest record.
func (a *Aggregator) WindowFor(records []core.ExpenseRecord, mode Mode, sel Selector) (Window, error) {
	today := a.today()
	switch mode {
	case Daily:
		if sel.Day.IsZero() {
			return dayWindow(today), nil
		}
		return dayWindow(sel.Day), nil
	case Weekly:
		year, week := today.ISOWeek()
		if sel.Year != 0 {
			year = sel.Year
		}
		if sel.Week != 0 {
			week = sel.Week
		}
		return isoWeekWindow(year, week)
	case Monthly:
		year, month := today.Year(), int(today.Month())
		if sel.Year != 0 {
			year = sel.Year
		}
		if sel.Month != 0 {
			month = sel.Month
		}
		return monthWindow(year, month)
	case Yearly:
		year := today.Year()
		if sel.Year != 0 {
			year = sel.Year
		}
		return yearWindow(year)
	case Custom:
		return customWindow(sel.Start, sel.End)
	case All, "":
		return spanOf(records), nil
	default:
		return Window{}, core.Reject(core.ErrInvalidRange, "mode", string(mode))
	}
}

// FilterByPeriod keeps the records dated inside the window. An invalid
// selector yields an empty, non-nil slice together with the error so the
// caller can report it and still render "no data".
func (a *Aggregator) FilterByPeriod(records []core.ExpenseRecord, mode Mode, sel Selector) ([]core.ExpenseRecord, error) {
	w, err := a.WindowFor(records, mode, sel)
	if err != nil {
		return []core.ExpenseRecord{}, err
	}
	return filterWindow(records, w), nil
}

func filterWindow(records []core.ExpenseRecord, w Window) []core.ExpenseRecord {
	out := make([]core.ExpenseRecord, 0)
	for _, r := range records {
		if w.Contains(r.Date) {
			out = append(out, r)
		}
	}
	return out
}

// GroupForLineChart sums records per day over the selected window.
// categoryMode is CategoryTotal, CategoryAll or a single category name.
// An All window longer than MaxWindowDays keeps only its most recent days.
func (a *Aggregator) GroupForLineChart(records []core.ExpenseRecord, mode Mode, sel Selector, categoryMode string) (LineSeries, error) {
	w, err := a.WindowFor(records, mode, sel)
	if err != nil {
		return LineSeries{Window: Window{Empty: true}}, err
	}
	w = w.latest(MaxWindowDays)
	filtered := filterWindow(records, w)
	days := w.Days()

	out := LineSeries{Window: w}
	switch categoryMode {
	case CategoryTotal, "":
		out.Series = []Series{gapFill(CategoryTotal, days, filtered)}
	case CategoryAll:
		byCat := make(map[string][]core.ExpenseRecord)
		for _, r := range filtered {
			byCat[r.Category] = append(byCat[r.Category], r)
		}
		for _, name := range slices.Sorted(maps.Keys(byCat)) {
			out.Series = append(out.Series, gapFill(name, days, byCat[name]))
		}
	default:
		var only []core.ExpenseRecord
		for _, r := range filtered {
			if r.Category == categoryMode {
				only = append(only, r)
			}
		}
		out.Series = []Series{gapFill(categoryMode, days, only)}
	}
	return out, nil
}

func gapFill(name string, days []core.Date, records []core.ExpenseRecord) Series {
	perDay := make(map[string]decimal.Decimal, len(records))
	for _, r := range records {
		k := r.Date.String()
		perDay[k] = perDay[k].Add(r.Amount)
	}
	s := Series{Name: name, Points: make([]Point, len(days))}
	for i, d := range days {
		s.Points[i] = Point{Date: d, Amount: perDay[d.String()]}
	}
	return s
}

// GroupForPieChart sums filtered records per category, largest first. No
// records means no slices, which callers render as "no data".
func GroupForPieChart(filtered []core.ExpenseRecord) []core.CategoryAmount {
	totals := make(map[string]decimal.Decimal)
	for _, r := range filtered {
		totals[r.Category] = totals[r.Category].Add(r.Amount)
	}
	out := make([]core.CategoryAmount, 0, len(totals))
	for name, amt := range totals {
		out = append(out, core.CategoryAmount{Name: name, Amount: amt})
	}
	slices.SortFunc(out, func(x, y core.CategoryAmount) int {
		if c := y.Amount.Cmp(x.Amount); c != 0 {
			return c
		}
		return cmp.Compare(x.Name, y.Name)
	})
	return out
}

// BudgetVsSpent pairs each budgeted category with its spend, ordered by
// category name.
func BudgetVsSpent(categoryBudget, categorySpend map[string]decimal.Decimal) []BarEntry {
	out := make([]BarEntry, 0, len(categoryBudget))
	for _, name := range slices.Sorted(maps.Keys(categoryBudget)) {
		out = append(out, BarEntry{
			Category:  name,
			Allocated: categoryBudget[name],
			Spent:     categorySpend[name],
		})
	}
	return out
}

// OverspendAlerts classifies every budgeted category. Spend in categories
// without an allocation is not reported.
func OverspendAlerts(categoryBudget, categorySpend map[string]decimal.Decimal) []Alert {
	bars := BudgetVsSpent(categoryBudget, categorySpend)
	out := make([]Alert, len(bars))
	for i, b := range bars {
		delta := b.Spent.Sub(b.Allocated)
		status := Under
		switch delta.Sign() {
		case 1:
			status = Over
		case 0:
			status = Exact
		}
		out[i] = Alert{
			Category:  b.Category,
			Status:    status,
			Allocated: b.Allocated,
			Spent:     b.Spent,
			Delta:     delta,
		}
	}
	return out
}

// SavingsLine plots the cumulative savings snapshots in recorded order.
// Snapshots are not gap-filled: each one is a point in time, not a daily sum.
func SavingsLine(history []core.Snapshot) []Point {
	out := make([]Point, len(history))
	for i, s := range history {
		out[i] = Point{Date: s.Date, Amount: s.Amount}
	}
	return out
}

// SavingsVsSpending compares total savings with total spend.
func SavingsVsSpending(savings, spending decimal.Decimal) []core.CategoryAmount {
	return []core.CategoryAmount{
		{Name: "Savings", Amount: savings},
		{Name: "Expenses", Amount: spending},
	}
}
