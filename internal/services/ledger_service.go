package services

import (
	"context"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	applog "fintrack/internal/log"
	"fintrack/internal/store"
)

// EventPublisher is satisfied by *amqp.Client.
type EventPublisher interface {
	Publish(ctx context.Context, event *amqp.LedgerEvent) error
}

// GoalStatus pairs a goal with its derived progress.
type GoalStatus struct {
	Goal     core.Goal
	Progress ledger.GoalProgress
}

// Totals is the overall and per-category expense sum.
type Totals struct {
	Total      decimal.Decimal
	ByCategory map[string]decimal.Decimal
}

// LedgerService serializes access to the ledger engine and announces every
// committed mutation. The ledger persists first; events are best-effort.
type LedgerService struct {
	mu        sync.Mutex
	ledger    *ledger.Ledger
	publisher EventPublisher
	logger    *slog.Logger
	onChange  []func()

	// generation counts committed mutations; guarded by mu.
	generation uint64
}

// NewLedgerService wraps an already loaded ledger. publisher may be nil when
// AMQP is not configured.
func NewLedgerService(l *ledger.Ledger, publisher EventPublisher, logger *slog.Logger) *LedgerService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LedgerService{
		ledger:    l,
		publisher: publisher,
		logger:    logger,
	}
}

// OnChange registers fn to run after every successful mutation. Register
// hooks before serving requests.
func (s *LedgerService) OnChange(fn func()) {
	s.onChange = append(s.onChange, fn)
}

// mutate runs fn under the lock. On success it notifies hooks and publishes
// the event built by fn.
func (s *LedgerService) mutate(ctx context.Context, fn func() (*amqp.LedgerEvent, error)) error {
	s.mu.Lock()
	event, err := fn()
	if err == nil {
		s.generation++
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}

	for _, hook := range s.onChange {
		hook()
	}
	if event != nil {
		s.publish(ctx, event)
	}
	return nil
}

func (s *LedgerService) publish(ctx context.Context, event *amqp.LedgerEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		fields := applog.NewFields().
			WithOperation(applog.OpPublish).
			WithRecord(event.Store, event.ID).
			WithError(err)
		s.logger.ErrorContext(ctx, "Failed to publish ledger event",
			append(fields.ToSlice(), applog.FieldEventType, string(event.Type))...)
		// Don't fail the request - the change is already persisted
	}
}

func (s *LedgerService) read(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

// Today is the ledger's current calendar date.
func (s *LedgerService) Today() core.Date {
	return s.ledger.Today()
}

// Generation changes after every committed mutation.
func (s *LedgerService) Generation() uint64 {
	var g uint64
	s.read(func() { g = s.generation })
	return g
}

// expensesAt returns every expense together with the generation they were
// read at.
func (s *LedgerService) expensesAt() ([]core.ExpenseRecord, uint64) {
	var (
		out []core.ExpenseRecord
		gen uint64
	)
	s.read(func() {
		out = s.ledger.Expenses.All()
		gen = s.generation
	})
	return out, gen
}

// Snapshot returns a copy of the whole ledger state.
func (s *LedgerService) Snapshot() ledger.View {
	var v ledger.View
	s.read(func() { v = s.ledger.View() })
	return v
}

func (s *LedgerService) Categories() []string {
	var out []string
	s.read(func() { out = s.ledger.Categories.List() })
	return out
}

func (s *LedgerService) AddCategory(ctx context.Context, name string) (string, error) {
	var added string
	err := s.mutate(ctx, func() (*amqp.LedgerEvent, error) {
		known := s.ledger.Categories.Contains(name)
		var err error
		added, err = s.ledger.Categories.Ensure(ctx, name)
		if err != nil || known {
			return nil, err
		}
		return amqp.NewLedgerEvent(amqp.EventCategoryAdded, store.KeyCategories, name, ""), nil
	})
	return added, err
}

func (s *LedgerService) AddExpense(ctx context.Context, amount decimal.Decimal, category string, date core.Date) (core.ExpenseRecord, error) {
	var rec core.ExpenseRecord
	err := s.mutate(ctx, func() (*amqp.LedgerEvent, error) {
		var err error
		rec, err = s.ledger.Expenses.Add(ctx, amount, category, date)
		if err != nil {
			return nil, err
		}
		return amqp.NewLedgerEvent(amqp.EventExpenseAdded, store.KeyExpenses, rec.ID, rec.Amount.String()), nil
	})
	return rec, err
}

// ListExpenses filters by category and date when they are set.
func (s *LedgerService) ListExpenses(category string, date *core.Date) []core.ExpenseRecord {
	var out []core.ExpenseRecord
	s.read(func() {
		switch {
		case category != "":
			out = s.ledger.Expenses.ByCategory(category)
		default:
			out = s.ledger.Expenses.All()
		}
	})
	if date == nil {
		return out
	}
	filtered := make([]core.ExpenseRecord, 0, len(out))
	for _, r := range out {
		if r.Date.Equal(*date) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

func (s *LedgerService) GetExpense(id string) (core.ExpenseRecord, error) {
	var (
		rec core.ExpenseRecord
		err error
	)
	s.read(func() { rec, err = s.ledger.Expenses.Get(id) })
	return rec, err
}

func (s *LedgerService) UpdateExpense(ctx context.Context, id string, u core.ExpenseUpdate) (core.ExpenseRecord, error) {
	var rec core.ExpenseRecord
	err := s.mutate(ctx, func() (*amqp.LedgerEvent, error) {
		var err error
		rec, err = s.ledger.Expenses.Update(ctx, id, u)
		if err != nil {
			return nil, err
		}
		return amqp.NewLedgerEvent(amqp.EventExpensesChanged, store.KeyExpenses, rec.ID, rec.Amount.String()), nil
	})
	return rec, err
}

func (s *LedgerService) DeleteExpense(ctx context.Context, id string) error {
	return s.mutate(ctx, func() (*amqp.LedgerEvent, error) {
		if _, err := s.ledger.Expenses.Get(id); err != nil {
			return nil, err
		}
		if err := s.ledger.Expenses.Delete(ctx, id); err != nil {
			return nil, err
		}
		return amqp.NewLedgerEvent(amqp.EventExpensesChanged, store.KeyExpenses, id, ""), nil
	})
}

// CommitExpenses applies a batch of edits and deletions atomically.
func (s *LedgerService) CommitExpenses(ctx context.Context, updates []core.ExpenseUpdate, deletions []string) error {
	return s.mutate(ctx, func() (*amqp.LedgerEvent, error) {
		if err := s.ledger.Expenses.Commit(ctx, updates, deletions); err != nil {
			return nil, err
		}
		return amqp.NewLedgerEvent(amqp.EventExpensesChanged, store.KeyExpenses, "", ""), nil
	})
}

func (s *LedgerService) ExpenseTotals() Totals {
	var t Totals
	s.read(func() {
		t = Totals{
			Total:      s.ledger.Expenses.Total(),
			ByCategory: s.ledger.Expenses.TotalByCategory(),
		}
	})
	return t
}

func (s *LedgerService) Budget() core.BudgetState {
	var b core.BudgetState
	s.read(func() { b = s.ledger.Budget.State() })
	return b
}

func (s *LedgerService) AllocateBudget(ctx context.Context, income decimal.Decimal, allocations map[string]decimal.Decimal) (core.BudgetState, error) {
	var state core.BudgetState
	err := s.mutate(ctx, func() (*amqp.LedgerEvent, error) {
		var err error
		state, err = s.ledger.Budget.Allocate(ctx, income, allocations)
		if err != nil {
			return nil, err
		}
		return amqp.NewLedgerEvent(amqp.EventBudgetAllocated, store.KeyBudgetSavings, "", income.String()), nil
	})
	return state, err
}

// ResetBudget moves the remaining budget into savings and returns the amount moved.
func (s *LedgerService) ResetBudget(ctx context.Context) (decimal.Decimal, error) {
	var moved decimal.Decimal
	err := s.mutate(ctx, func() (*amqp.LedgerEvent, error) {
		var err error
		moved, err = s.ledger.Budget.Reset(ctx)
		if err != nil {
			return nil, err
		}
		return amqp.NewLedgerEvent(amqp.EventBudgetReset, store.KeyBudgetSavings, "", moved.String()), nil
	})
	return moved, err
}

// ResetDue reports whether today is the first day of a budget period.
func (s *LedgerService) ResetDue() bool {
	return s.ledger.Budget.ResetDue(s.ledger.Today())
}

func (s *LedgerService) BudgetProgress() ledger.BudgetProgress {
	var p ledger.BudgetProgress
	s.read(func() { p = s.ledger.Budget.Progress(s.ledger.Expenses.TotalByCategory()) })
	return p
}

func (s *LedgerService) Savings() core.SavingsState {
	var st core.SavingsState
	s.read(func() { st = s.ledger.Savings.State() })
	return st
}

func (s *LedgerService) Deposit(ctx context.Context, amount decimal.Decimal) (core.Snapshot, error) {
	var snap core.Snapshot
	err := s.mutate(ctx, func() (*amqp.LedgerEvent, error) {
		var err error
		snap, err = s.ledger.Savings.Deposit(ctx, amount)
		if err != nil {
			return nil, err
		}
		return amqp.NewLedgerEvent(amqp.EventSavingsDeposited, store.KeyBudgetSavings, "", amount.String()), nil
	})
	return snap, err
}

func (s *LedgerService) Goals() []core.Goal {
	var out []core.Goal
	s.read(func() { out = s.ledger.Goals.List() })
	return out
}

func (s *LedgerService) CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	var created core.Goal
	err := s.mutate(ctx, func() (*amqp.LedgerEvent, error) {
		var err error
		created, err = s.ledger.Goals.Create(ctx, g)
		if err != nil {
			return nil, err
		}
		return amqp.NewLedgerEvent(amqp.EventGoalCreated, store.KeyGoals, created.ID, created.Target.String()), nil
	})
	return created, err
}

func (s *LedgerService) DeleteGoal(ctx context.Context, id string) error {
	return s.mutate(ctx, func() (*amqp.LedgerEvent, error) {
		if err := s.ledger.Goals.Delete(ctx, id); err != nil {
			return nil, err
		}
		return amqp.NewLedgerEvent(amqp.EventGoalDeleted, store.KeyGoals, id, ""), nil
	})
}

// GoalProgress evaluates every goal against current totals.
func (s *LedgerService) GoalProgress() []GoalStatus {
	var out []GoalStatus
	s.read(func() {
		goals := s.ledger.Goals.List()
		out = make([]GoalStatus, 0, len(goals))
		for _, g := range goals {
			out = append(out, GoalStatus{Goal: g, Progress: s.ledger.Goals.Evaluate(g)})
		}
	})
	return out
}

func (s *LedgerService) ProjectSavings(monthly decimal.Decimal) ([]ledger.Projection, error) {
	return s.ledger.Goals.ProjectSavings(monthly)
}

func (s *LedgerService) BreakdownBudget(total decimal.Decimal) ([]ledger.Projection, error) {
	return s.ledger.Goals.BreakdownBudget(total)
}
