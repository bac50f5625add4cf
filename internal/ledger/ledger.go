// Package ledger is the personal-finance engine: it owns categories,
// expenses, the budget allocation, savings and goals, and persists each
// collection as a whole through a store.Store.
//
// A Ledger is built once per session with New, filled with Load, and then
// mutated through its components. Every mutation is a read-modify-write of
// the full collection; the Ledger holds no locks and expects one caller at a
// time.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/store"
)

type Ledger struct {
	store  store.Store
	now    func() time.Time
	newID  func() string
	logger *slog.Logger

	bs budgetSavings

	Categories *CategoryRegistry
	Expenses   *ExpenseLedger
	Budget     *BudgetAllocator
	Savings    *SavingsLedger
	Goals      *GoalTracker
}

type Option func(*Ledger)

// WithClock overrides time.Now; "today" is the calendar day of the result.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithIDGenerator overrides the uuid generator used for new records.
func WithIDGenerator(newID func() string) Option {
	return func(l *Ledger) { l.newID = newID }
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// New returns an empty ledger: default categories, no records. Call Load to
// read persisted state.
func New(st store.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:  st,
		now:    time.Now,
		newID:  uuid.NewString,
		logger: slog.Default(),
		bs:     emptyBudgetSavings(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.Categories = &CategoryRegistry{l: l, names: slices.Clone(core.DefaultCategories)}
	l.Expenses = &ExpenseLedger{l: l}
	l.Budget = &BudgetAllocator{l: l}
	l.Savings = &SavingsLedger{l: l}
	l.Goals = &GoalTracker{l: l}
	return l
}

// Today is the current calendar date according to the ledger clock.
func (l *Ledger) Today() core.Date {
	return core.DateOf(l.now())
}

// Load replaces in-memory state with the persisted stores. Missing or
// corrupt stores fall back to defaults; only storage I/O errors are returned.
func (l *Ledger) Load(ctx context.Context) error {
	var repair []string

	if b, ok, err := l.loadRaw(ctx, store.KeyCategories); err != nil {
		return err
	} else if ok {
		res, err := decodeCategories(b)
		if l.recovered(ctx, store.KeyCategories, err) {
			l.Categories.names = slices.Clone(core.DefaultCategories)
		} else {
			l.Categories.names = res.value
			l.reportDropped(ctx, store.KeyCategories, res.dropped)
			if res.changed {
				repair = append(repair, store.KeyCategories)
			}
		}
	} else {
		l.Categories.names = slices.Clone(core.DefaultCategories)
	}

	l.Expenses.records = nil
	if b, ok, err := l.loadRaw(ctx, store.KeyExpenses); err != nil {
		return err
	} else if ok {
		res, err := decodeExpenses(b, l.newID)
		if !l.recovered(ctx, store.KeyExpenses, err) {
			l.Expenses.records = res.value
			l.reportDropped(ctx, store.KeyExpenses, res.dropped)
			if res.changed {
				repair = append(repair, store.KeyExpenses)
			}
		}
	}

	l.bs = emptyBudgetSavings()
	if b, ok, err := l.loadRaw(ctx, store.KeyBudgetSavings); err != nil {
		return err
	} else if ok {
		res, err := decodeBudgetSavings(b)
		if !l.recovered(ctx, store.KeyBudgetSavings, err) {
			l.bs = res.value
			l.reportDropped(ctx, store.KeyBudgetSavings, res.dropped)
		}
	}

	l.Goals.goals = nil
	if b, ok, err := l.loadRaw(ctx, store.KeyGoals); err != nil {
		return err
	} else if ok {
		res, err := decodeGoals(b, l.newID)
		if !l.recovered(ctx, store.KeyGoals, err) {
			l.Goals.goals = res.value
			l.reportDropped(ctx, store.KeyGoals, res.dropped)
			if res.changed {
				repair = append(repair, store.KeyGoals)
			}
		}
	}

	// Categories follow the records that use them.
	if missing := l.Categories.missing(referencedCategories(l.Expenses.records, l.bs.budget.CategoryBudget)...); len(missing) > 0 {
		l.Categories.names = append(l.Categories.names, missing...)
		if !slices.Contains(repair, store.KeyCategories) {
			repair = append(repair, store.KeyCategories)
		}
	}

	// Persist assigned IDs right away so they stay stable across restarts.
	for _, name := range repair {
		if err := l.saveStore(ctx, name); err != nil {
			return err
		}
	}

	l.logger.InfoContext(ctx, "Ledger loaded",
		"categories", len(l.Categories.names),
		"expenses", len(l.Expenses.records),
		"goals", len(l.Goals.goals),
		"history", len(l.bs.savings.History))
	return nil
}

// Save writes every store from in-memory state.
func (l *Ledger) Save(ctx context.Context) error {
	for _, name := range store.Keys() {
		if err := l.saveStore(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// View is a read-only copy of everything the ledger holds.
type View struct {
	Categories []string
	Expenses   []core.ExpenseRecord
	Budget     core.BudgetState
	Savings    core.SavingsState
	Goals      []core.Goal
}

func (l *Ledger) View() View {
	return View{
		Categories: l.Categories.List(),
		Expenses:   l.Expenses.All(),
		Budget:     l.Budget.State(),
		Savings:    l.Savings.State(),
		Goals:      l.Goals.List(),
	}
}

func (l *Ledger) loadRaw(ctx context.Context, name string) ([]byte, bool, error) {
	b, err := l.store.Load(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load %s: %w", name, err)
	}
	return b, true, nil
}

// recovered logs a corrupt store and reports whether the caller should fall
// back to the default value.
func (l *Ledger) recovered(ctx context.Context, name string, err error) bool {
	if err == nil {
		return false
	}
	l.logger.WarnContext(ctx, "Persisted store is corrupt, using default",
		applog.FieldStore, name, applog.FieldError, err)
	return true
}

func (l *Ledger) reportDropped(ctx context.Context, name string, dropped []string) {
	for _, reason := range dropped {
		l.logger.WarnContext(ctx, "Dropped malformed persisted record", applog.FieldStore, name, "reason", reason)
	}
}

func (l *Ledger) saveStore(ctx context.Context, name string) error {
	switch name {
	case store.KeyCategories:
		return l.persistCategories(ctx, l.Categories.names)
	case store.KeyExpenses:
		return l.persistExpenses(ctx, l.Expenses.records)
	case store.KeyBudgetSavings:
		return l.persistBudgetSavings(ctx, l.bs)
	case store.KeyGoals:
		return l.persistGoals(ctx, l.Goals.goals)
	default:
		return fmt.Errorf("unknown store %q", name)
	}
}

func (l *Ledger) write(ctx context.Context, name string, b []byte, err error) error {
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := l.store.Save(ctx, name, b); err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	return nil
}

func (l *Ledger) persistCategories(ctx context.Context, names []string) error {
	if names == nil {
		names = []string{}
	}
	b, err := encode(names)
	return l.write(ctx, store.KeyCategories, b, err)
}

func (l *Ledger) persistExpenses(ctx context.Context, records []core.ExpenseRecord) error {
	b, err := encodeExpenses(records)
	return l.write(ctx, store.KeyExpenses, b, err)
}

func (l *Ledger) persistBudgetSavings(ctx context.Context, bs budgetSavings) error {
	b, err := encodeBudgetSavings(bs)
	return l.write(ctx, store.KeyBudgetSavings, b, err)
}

func (l *Ledger) persistGoals(ctx context.Context, goals []core.Goal) error {
	b, err := encodeGoals(goals)
	return l.write(ctx, store.KeyGoals, b, err)
}
