package ledger

import (
	"context"
	"slices"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

// SavingsLedger tracks the cumulative savings total and a snapshot of it
// after every deposit. It shares the budgetSavings store with the budget.
type SavingsLedger struct {
	l *Ledger
}

// Deposit adds a positive amount and records the new total dated today.
func (s *SavingsLedger) Deposit(ctx context.Context, amount decimal.Decimal) (core.Snapshot, error) {
	if err := core.ValidateAmount("amount", amount); err != nil {
		return core.Snapshot{}, err
	}

	next := s.l.bs
	next.savings = deposit(next.savings, amount, s.l.Today())
	if err := s.l.persistBudgetSavings(ctx, next); err != nil {
		return core.Snapshot{}, err
	}
	s.l.bs = next

	snap := next.savings.History[len(next.savings.History)-1]
	s.l.logger.InfoContext(ctx, "Savings deposited",
		applog.FieldOperation, applog.OpDeposit,
		applog.FieldAmount, amount.String(),
		"total", snap.Amount.String())
	return snap, nil
}

func (s *SavingsLedger) Total() decimal.Decimal {
	return s.l.bs.savings.TotalSavings
}

// History is in deposit order, which is chronological order.
func (s *SavingsLedger) History() []core.Snapshot {
	return slices.Clone(s.l.bs.savings.History)
}

func (s *SavingsLedger) State() core.SavingsState {
	return core.SavingsState{
		TotalSavings: s.Total(),
		History:      s.History(),
	}
}

// deposit returns a new state; the input history is not modified.
func deposit(state core.SavingsState, amount decimal.Decimal, today core.Date) core.SavingsState {
	total := state.TotalSavings.Add(amount)
	history := make([]core.Snapshot, len(state.History), len(state.History)+1)
	copy(history, state.History)
	return core.SavingsState{
		TotalSavings: total,
		History:      append(history, core.Snapshot{Date: today, Amount: total}),
	}
}
