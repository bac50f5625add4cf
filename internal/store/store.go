// Package store defines the key-value persistence port the ledger writes
// whole-collection snapshots through.
package store

import (
	"context"
	"errors"
)

// Fixed store names.
const (
	KeyCategories    = "categories"
	KeyExpenses      = "expenses"
	KeyBudgetSavings = "budgetSavings"
	KeyGoals         = "goals"
)

// ErrNotFound is returned by Load when nothing was ever saved under a name.
var ErrNotFound = errors.New("store not found")

// Ports for outbound adapters.
type (
	Loader interface {
		// Load returns the last payload saved under name, or ErrNotFound.
		Load(ctx context.Context, name string) ([]byte, error)
	}

	Saver interface {
		// Save fully overwrites the payload stored under name.
		Save(ctx context.Context, name string, data []byte) error
	}

	Store interface {
		Loader
		Saver
	}
)

// Keys lists every store the ledger owns, in load order.
func Keys() []string {
	return []string{KeyCategories, KeyExpenses, KeyBudgetSavings, KeyGoals}
}
