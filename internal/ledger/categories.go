package ledger

import (
	"context"
	"maps"
	"slices"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/store"
)

// CategoryRegistry is the ordered set of known expense categories.
type CategoryRegistry struct {
	l     *Ledger
	names []string
}

func (r *CategoryRegistry) List() []string {
	return slices.Clone(r.names)
}

// Contains uses exact, case-sensitive matching.
func (r *CategoryRegistry) Contains(name string) bool {
	return slices.Contains(r.names, name)
}

// Ensure adds name when it is not yet known and persists the updated set.
// The name is stored verbatim.
func (r *CategoryRegistry) Ensure(ctx context.Context, name string) (string, error) {
	if err := core.ValidateCategory(name); err != nil {
		return "", err
	}
	if r.Contains(name) {
		return name, nil
	}

	next := append(slices.Clone(r.names), name)
	if err := r.l.persistCategories(ctx, next); err != nil {
		return "", err
	}
	r.names = next

	r.l.logger.InfoContext(ctx, "Category added", applog.FieldCategory, name, "count", len(next))
	return name, nil
}

// missing returns the names not yet registered, deduplicated in first-seen
// order.
func (r *CategoryRegistry) missing(names ...string) []string {
	var out []string
	for _, name := range names {
		if !r.Contains(name) && !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	return out
}

// register records names first used by a record that is already saved.
// The record is authoritative: a failed category write is logged, the names
// stay registered in memory and Load derives them again from the records.
func (r *CategoryRegistry) register(ctx context.Context, names []string) {
	if len(names) == 0 {
		return
	}
	next := append(slices.Clone(r.names), names...)
	r.names = next
	if err := r.l.persistCategories(ctx, next); err != nil {
		r.l.logger.WarnContext(ctx, "Failed to persist categories, will rebuild on load",
			applog.FieldStore, store.KeyCategories,
			applog.FieldError, err)
		return
	}
	for _, name := range names {
		r.l.logger.InfoContext(ctx, "Category added",
			applog.FieldCategory, name,
			"count", len(next))
	}
}

// referencedCategories lists categories used by expenses and budget allocations, in
// expense order followed by sorted allocation names.
func referencedCategories(records []core.ExpenseRecord, allocations map[string]decimal.Decimal) []string {
	var out []string
	for _, rec := range records {
		out = append(out, rec.Category)
	}
	return append(out, slices.Sorted(maps.Keys(allocations))...)
}
