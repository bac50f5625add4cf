package ledger

import (
	"context"
	"maps"
	"slices"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

var hundred = decimal.NewFromInt(100)

// BudgetAllocator splits a declared income across categories and rolls the
// unallocated leftover into savings on reset.
type BudgetAllocator struct {
	l *Ledger
}

type (
	// CategoryProgress compares spend against a budget line. Remaining is
	// negative when the line is overspent.
	CategoryProgress struct {
		Category   string
		Budgeted   decimal.Decimal
		Spent      decimal.Decimal
		Remaining  decimal.Decimal
		Percent    decimal.Decimal // spent/budgeted, clamped to 0-100
		OverBudget bool
	}

	BudgetProgress struct {
		Categories []CategoryProgress
		Total      CategoryProgress
	}
)

func (b *BudgetAllocator) State() core.BudgetState {
	s := b.l.bs.budget
	s.CategoryBudget = maps.Clone(s.CategoryBudget)
	if s.CategoryBudget == nil {
		s.CategoryBudget = map[string]decimal.Decimal{}
	}
	return s
}

// Allocate validates and stores a new allocation of income. On any
// validation failure nothing is written and the previous state stays.
func (b *BudgetAllocator) Allocate(ctx context.Context, income decimal.Decimal, allocations map[string]decimal.Decimal) (core.BudgetState, error) {
	if err := core.ValidateAmount("income", income); err != nil {
		return core.BudgetState{}, err
	}
	names := slices.Sorted(maps.Keys(allocations))
	for _, name := range names {
		if err := core.ValidateCategory(name); err != nil {
			return core.BudgetState{}, err
		}
		if v := allocations[name]; v.IsNegative() {
			return core.BudgetState{}, core.Reject(core.ErrInvalidAmount, "allocation."+name, v.String())
		}
	}
	allocated := core.Sum(allocations)
	if allocated.GreaterThan(income) {
		return core.BudgetState{}, core.Reject(core.ErrOverAllocation, "allocated", allocated.String())
	}

	next := b.l.bs
	next.budget = core.BudgetState{
		CategoryBudget:  maps.Clone(allocations),
		RemainingBudget: income.Sub(allocated),
		Income:          income,
	}
	if next.budget.CategoryBudget == nil {
		next.budget.CategoryBudget = map[string]decimal.Decimal{}
	}
	if err := b.l.persistBudgetSavings(ctx, next); err != nil {
		return core.BudgetState{}, err
	}
	b.l.bs = next
	b.l.Categories.register(ctx, b.l.Categories.missing(names...))

	b.l.logger.InfoContext(ctx, "Budget allocated",
		applog.FieldOperation, applog.OpAllocate,
		"income", income.String(),
		"allocated", allocated.String(),
		"remaining", next.budget.RemainingBudget.String(),
		"categories", len(names))
	return b.State(), nil
}

// Reset closes the period: the remaining budget is deposited into savings
// and set to zero. Category allocations carry over unchanged.
func (b *BudgetAllocator) Reset(ctx context.Context) (decimal.Decimal, error) {
	moved := b.l.bs.budget.RemainingBudget

	next := b.l.bs
	if moved.IsPositive() {
		next.savings = deposit(next.savings, moved, b.l.Today())
	} else {
		moved = decimal.Zero
	}
	next.budget.RemainingBudget = decimal.Zero
	if err := b.l.persistBudgetSavings(ctx, next); err != nil {
		return decimal.Zero, err
	}
	b.l.bs = next

	b.l.logger.InfoContext(ctx, "Budget reset",
		applog.FieldOperation, applog.OpReset,
		"moved_to_savings", moved.String(),
		"total_savings", next.savings.TotalSavings.String())
	return moved, nil
}

// ResetDue reports whether today starts a new monthly period.
func (b *BudgetAllocator) ResetDue(today core.Date) bool {
	return today.Day() == 1
}

// Progress compares expenseTotals (spend per category) with the current
// allocation. The aggregate line counts all spend, budgeted or not.
func (b *BudgetAllocator) Progress(expenseTotals map[string]decimal.Decimal) BudgetProgress {
	budget := b.l.bs.budget.CategoryBudget
	out := BudgetProgress{Categories: make([]CategoryProgress, 0, len(budget))}
	for _, name := range slices.Sorted(maps.Keys(budget)) {
		out.Categories = append(out.Categories, progressLine(name, budget[name], expenseTotals[name]))
	}
	out.Total = progressLine("", core.Sum(budget), core.Sum(expenseTotals))
	return out
}

func progressLine(name string, budgeted, spent decimal.Decimal) CategoryProgress {
	return CategoryProgress{
		Category:   name,
		Budgeted:   budgeted,
		Spent:      spent,
		Remaining:  budgeted.Sub(spent),
		Percent:    percentOf(spent, budgeted),
		OverBudget: spent.GreaterThan(budgeted),
	}
}

// percentOf returns part/whole*100 clamped to [0, 100], or 0 when whole is
// not positive.
func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	p := part.Div(whole).Mul(hundred)
	if p.GreaterThan(hundred) {
		p = hundred
	}
	if p.IsNegative() {
		p = decimal.Zero
	}
	return p.Round(2)
}
