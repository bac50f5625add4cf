package ledger

import (
	"context"
	"slices"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

var (
	savingsProjectionMonths = []int{3, 6, 12, 18, 24}
	budgetBreakdownMonths   = []int{6, 12, 18, 24}
)

// GoalTracker stores named savings and spending targets. Progress is always
// derived from current totals, never stored.
type GoalTracker struct {
	l     *Ledger
	goals []core.Goal
}

type (
	GoalProgress struct {
		Current   decimal.Decimal
		Percent   decimal.Decimal // 0-100
		Remaining decimal.Decimal // never negative
		Complete  bool
		// OverLimit is only set for spend-less goals whose spend passed the cap.
		OverLimit bool
	}

	// Projection is an amount reached, or needed, over a number of months.
	Projection struct {
		Months int
		Amount decimal.Decimal
	}
)

func (t *GoalTracker) Create(ctx context.Context, g core.Goal) (core.Goal, error) {
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	g.ID = t.l.newID()

	next := append(slices.Clone(t.goals), g)
	if err := t.l.persistGoals(ctx, next); err != nil {
		return core.Goal{}, err
	}
	t.goals = next

	t.l.logger.InfoContext(ctx, "Goal created",
		applog.FieldOperation, applog.OpCreate,
		applog.FieldRecordID, g.ID,
		"kind", string(g.Kind),
		"target", g.Target.String(),
		"date", g.TargetDate.String())
	return g, nil
}

func (t *GoalTracker) List() []core.Goal {
	return slices.Clone(t.goals)
}

func (t *GoalTracker) Get(id string) (core.Goal, error) {
	for _, g := range t.goals {
		if g.ID == id {
			return g, nil
		}
	}
	return core.Goal{}, core.Reject(core.ErrGoalNotFound, "id", id)
}

func (t *GoalTracker) Delete(ctx context.Context, id string) error {
	i := slices.IndexFunc(t.goals, func(g core.Goal) bool { return g.ID == id })
	if i < 0 {
		return core.Reject(core.ErrGoalNotFound, "id", id)
	}
	next := slices.Delete(slices.Clone(t.goals), i, i+1)
	if err := t.l.persistGoals(ctx, next); err != nil {
		return err
	}
	t.goals = next

	t.l.logger.InfoContext(ctx, "Goal deleted",
		applog.FieldOperation, applog.OpDelete,
		applog.FieldRecordID, id)
	return nil
}

// Progress evaluates g against the given totals. Savings goals measure the
// savings total; spend-less goals treat the target as a spending cap and
// measure categorySpend against it.
func (t *GoalTracker) Progress(g core.Goal, savingsTotal, categorySpend decimal.Decimal) GoalProgress {
	current := savingsTotal
	if g.Kind == core.SpendLessInCategory {
		current = categorySpend
	}
	p := GoalProgress{
		Current:   current,
		Percent:   percentOf(current, g.Target),
		Remaining: decimal.Max(g.Target.Sub(current), decimal.Zero),
		Complete:  g.Target.IsPositive() && current.GreaterThanOrEqual(g.Target),
	}
	if g.Kind == core.SpendLessInCategory {
		p.OverLimit = current.GreaterThan(g.Target)
	}
	return p
}

// Evaluate computes progress from the ledger's own totals. Spend-less goals
// count every expense recorded in the category to date.
func (t *GoalTracker) Evaluate(g core.Goal) GoalProgress {
	spend := decimal.Zero
	if g.Kind == core.SpendLessInCategory {
		spend = Total(t.l.Expenses.ByCategory(g.Category))
	}
	return t.Progress(g, t.l.Savings.Total(), spend)
}

// ProjectSavings shows how much a fixed monthly saving accumulates to.
func (t *GoalTracker) ProjectSavings(monthly decimal.Decimal) ([]Projection, error) {
	if err := core.ValidateAmount("monthly", monthly); err != nil {
		return nil, err
	}
	out := make([]Projection, len(savingsProjectionMonths))
	for i, n := range savingsProjectionMonths {
		out[i] = Projection{Months: n, Amount: monthly.Mul(decimal.NewFromInt(int64(n)))}
	}
	return out, nil
}

// BreakdownBudget spreads a total target evenly over several horizons.
func (t *GoalTracker) BreakdownBudget(total decimal.Decimal) ([]Projection, error) {
	if err := core.ValidateAmount("total", total); err != nil {
		return nil, err
	}
	out := make([]Projection, len(budgetBreakdownMonths))
	for i, n := range budgetBreakdownMonths {
		out[i] = Projection{Months: n, Amount: total.Div(decimal.NewFromInt(int64(n))).Round(2)}
	}
	return out, nil
}
