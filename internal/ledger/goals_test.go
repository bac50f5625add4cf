package ledger

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/store/memory"
)

func TestCreateGoal(t *testing.T) {
	st := memory.New()
	l := newTestLedger(t, st)

	g, err := l.Goals.Create(context.Background(), core.Goal{
		Name:       "Holiday",
		Kind:       core.SaveMoney,
		Target:     dec("1200"),
		TargetDate: core.NewDate(2026, 1, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, "id-1", g.ID)

	reloaded := newTestLedger(t, st)
	got, err := reloaded.Goals.Get("id-1")
	require.NoError(t, err)
	assert.Equal(t, g, got)
}

func TestCreateGoalRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		goal core.Goal
	}{
		{"blank name", core.Goal{Name: "", Kind: core.SaveMoney, Target: dec("1"), TargetDate: core.NewDate(2026, 1, 1)}},
		{"unknown kind", core.Goal{Name: "x", Kind: "other", Target: dec("1"), TargetDate: core.NewDate(2026, 1, 1)}},
		{"zero target", core.Goal{Name: "x", Kind: core.SaveMoney, Target: decimal.Zero, TargetDate: core.NewDate(2026, 1, 1)}},
		{"spend-less without category", core.Goal{Name: "x", Kind: core.SpendLessInCategory, Target: dec("1"), TargetDate: core.NewDate(2026, 1, 1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := memory.New()
			l := newTestLedger(t, st)
			_, err := l.Goals.Create(context.Background(), tt.goal)
			assert.ErrorIs(t, err, core.ErrInvalidGoal)
			assert.Zero(t, st.Saves())
		})
	}
}

func TestDeleteGoal(t *testing.T) {
	l := newTestLedger(t, memory.New())
	ctx := context.Background()
	g, err := l.Goals.Create(ctx, core.Goal{Name: "Car", Kind: core.SaveMoney, Target: dec("5000"), TargetDate: core.NewDate(2027, 1, 1)})
	require.NoError(t, err)

	require.NoError(t, l.Goals.Delete(ctx, g.ID))
	assert.Empty(t, l.Goals.List())
	assert.ErrorIs(t, l.Goals.Delete(ctx, g.ID), core.ErrGoalNotFound)
}

func TestGoalProgressZeroTarget(t *testing.T) {
	l := newTestLedger(t, memory.New())

	p := l.Goals.Progress(core.Goal{Kind: core.SaveMoney, Target: decimal.Zero}, dec("100"), decimal.Zero)
	assert.True(t, p.Percent.IsZero())
	assert.False(t, p.Complete)
}

func TestSaveMoneyGoalProgress(t *testing.T) {
	l := newTestLedger(t, memory.New())
	ctx := context.Background()
	g, err := l.Goals.Create(ctx, core.Goal{Name: "Fund", Kind: core.SaveMoney, Target: dec("200"), TargetDate: core.NewDate(2026, 1, 1)})
	require.NoError(t, err)

	_, err = l.Savings.Deposit(ctx, dec("50"))
	require.NoError(t, err)
	p := l.Goals.Evaluate(g)
	assert.True(t, p.Percent.Equal(dec("25")))
	assert.True(t, p.Remaining.Equal(dec("150")))
	assert.False(t, p.Complete)

	_, err = l.Savings.Deposit(ctx, dec("250"))
	require.NoError(t, err)
	p = l.Goals.Evaluate(g)
	assert.True(t, p.Percent.Equal(dec("100")))
	assert.True(t, p.Remaining.IsZero())
	assert.True(t, p.Complete)
	assert.False(t, p.OverLimit)
}

func TestSpendLessGoalProgress(t *testing.T) {
	l := newTestLedger(t, memory.New())
	ctx := context.Background()
	g, err := l.Goals.Create(ctx, core.Goal{
		Name:       "Less takeaway",
		Kind:       core.SpendLessInCategory,
		Target:     dec("100"),
		TargetDate: core.NewDate(2025, 12, 31),
		Category:   "Food",
	})
	require.NoError(t, err)

	_, err = l.Expenses.Add(ctx, dec("60"), "Food", core.NewDate(2025, 6, 1))
	require.NoError(t, err)
	_, err = l.Expenses.Add(ctx, dec("500"), "Transport", core.NewDate(2025, 6, 1))
	require.NoError(t, err)

	p := l.Goals.Evaluate(g)
	assert.True(t, p.Current.Equal(dec("60")))
	assert.False(t, p.OverLimit)

	_, err = l.Expenses.Add(ctx, dec("50"), "Food", core.NewDate(2025, 6, 2))
	require.NoError(t, err)
	p = l.Goals.Evaluate(g)
	assert.True(t, p.OverLimit)
	assert.True(t, p.Percent.Equal(dec("100")))
}

func TestProjections(t *testing.T) {
	l := newTestLedger(t, memory.New())

	proj, err := l.Goals.ProjectSavings(dec("100"))
	require.NoError(t, err)
	require.Len(t, proj, 5)
	assert.Equal(t, 3, proj[0].Months)
	assert.True(t, proj[0].Amount.Equal(dec("300")))
	assert.True(t, proj[4].Amount.Equal(dec("2400")))

	breakdown, err := l.Goals.BreakdownBudget(dec("1000"))
	require.NoError(t, err)
	require.Len(t, breakdown, 4)
	assert.True(t, breakdown[0].Amount.Equal(dec("166.67")))
	assert.True(t, breakdown[1].Amount.Equal(dec("83.33")))

	_, err = l.Goals.ProjectSavings(decimal.Zero)
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
}
