package ledger

import (
	"context"
	"slices"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

// ExpenseLedger is the append-mostly collection of expense records, kept in
// insertion order.
type ExpenseLedger struct {
	l       *Ledger
	records []core.ExpenseRecord
}

// Add validates and appends one expense, registering its category on first
// use. The whole list is persisted.
func (e *ExpenseLedger) Add(ctx context.Context, amount decimal.Decimal, category string, date core.Date) (core.ExpenseRecord, error) {
	rec := core.ExpenseRecord{
		ID:       e.l.newID(),
		Amount:   amount,
		Category: category,
		Date:     date,
	}
	if err := rec.Validate(e.l.Today()); err != nil {
		return core.ExpenseRecord{}, err
	}

	next := append(slices.Clone(e.records), rec)
	if err := e.l.persistExpenses(ctx, next); err != nil {
		return core.ExpenseRecord{}, err
	}
	e.records = next
	e.l.Categories.register(ctx, e.l.Categories.missing(category))

	e.l.logger.InfoContext(ctx, "Expense added",
		applog.FieldRecordID, rec.ID,
		applog.FieldAmount, rec.Amount.String(),
		applog.FieldCategory, rec.Category,
		"date", rec.Date.String())
	return rec, nil
}

func (e *ExpenseLedger) All() []core.ExpenseRecord {
	return slices.Clone(e.records)
}

func (e *ExpenseLedger) Len() int {
	return len(e.records)
}

func (e *ExpenseLedger) Get(id string) (core.ExpenseRecord, error) {
	for _, r := range e.records {
		if r.ID == id {
			return r, nil
		}
	}
	return core.ExpenseRecord{}, core.Reject(core.ErrExpenseNotFound, "id", id)
}

func (e *ExpenseLedger) ByCategory(category string) []core.ExpenseRecord {
	return e.filter(func(r core.ExpenseRecord) bool { return r.Category == category })
}

// ByDate matches one calendar day exactly.
func (e *ExpenseLedger) ByDate(date core.Date) []core.ExpenseRecord {
	return e.filter(func(r core.ExpenseRecord) bool { return r.Date.Equal(date) })
}

func (e *ExpenseLedger) filter(keep func(core.ExpenseRecord) bool) []core.ExpenseRecord {
	out := make([]core.ExpenseRecord, 0)
	for _, r := range e.records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func (e *ExpenseLedger) Total() decimal.Decimal {
	return Total(e.records)
}

func (e *ExpenseLedger) TotalByCategory() map[string]decimal.Decimal {
	return TotalByCategory(e.records)
}

// Commit applies a bulk edit: rows named in deletions are removed first,
// then each update overwrites the amount and category of its row when they
// changed. Rows are matched by ID, so the order of deletions and updates
// does not matter. Everything is validated before anything is written; an
// update addressed to a deleted row is ignored.
func (e *ExpenseLedger) Commit(ctx context.Context, updates []core.ExpenseUpdate, deletions []string) error {
	known := make(map[string]struct{}, len(e.records))
	for _, r := range e.records {
		known[r.ID] = struct{}{}
	}

	deleted := make(map[string]struct{}, len(deletions))
	for _, id := range deletions {
		if _, ok := known[id]; !ok {
			return core.Reject(core.ErrExpenseNotFound, "id", id)
		}
		deleted[id] = struct{}{}
	}

	byID := make(map[string]core.ExpenseUpdate, len(updates))
	for _, u := range updates {
		if _, ok := known[u.ID]; !ok {
			return core.Reject(core.ErrExpenseNotFound, "id", u.ID)
		}
		if u.Amount != nil {
			if err := core.ValidateAmount("amount", *u.Amount); err != nil {
				return err
			}
		}
		if u.Category != nil {
			if err := core.ValidateCategory(*u.Category); err != nil {
				return err
			}
		}
		byID[u.ID] = u
	}

	next := make([]core.ExpenseRecord, 0, len(e.records))
	var categories []string
	changed := 0
	for _, r := range e.records {
		if _, gone := deleted[r.ID]; gone {
			continue
		}
		if u, ok := byID[r.ID]; ok {
			if u.Amount != nil && !u.Amount.Equal(r.Amount) {
				r.Amount = *u.Amount
				changed++
			}
			if u.Category != nil && *u.Category != r.Category {
				r.Category = *u.Category
				categories = append(categories, r.Category)
				changed++
			}
		}
		next = append(next, r)
	}

	if err := e.l.persistExpenses(ctx, next); err != nil {
		return err
	}
	e.records = next
	e.l.Categories.register(ctx, e.l.Categories.missing(categories...))

	e.l.logger.InfoContext(ctx, "Expenses committed",
		applog.FieldOperation, applog.OpCommit,
		"deleted", len(deleted),
		"fields_changed", changed,
		"count", len(next))
	return nil
}

// Update edits the mutable fields of one expense and returns the result.
func (e *ExpenseLedger) Update(ctx context.Context, id string, u core.ExpenseUpdate) (core.ExpenseRecord, error) {
	u.ID = id
	if err := e.Commit(ctx, []core.ExpenseUpdate{u}, nil); err != nil {
		return core.ExpenseRecord{}, err
	}
	return e.Get(id)
}

func (e *ExpenseLedger) Delete(ctx context.Context, ids ...string) error {
	return e.Commit(ctx, nil, ids)
}

// Total sums the amounts of records.
func Total(records []core.ExpenseRecord) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Amount)
	}
	return total
}

// TotalByCategory sums amounts per category.
func TotalByCategory(records []core.ExpenseRecord) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	for _, r := range records {
		totals[r.Category] = totals[r.Category].Add(r.Amount)
	}
	return totals
}
