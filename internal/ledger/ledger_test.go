package ledger

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/store"
	"fintrack/internal/store/memory"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestLedger(t *testing.T, st store.Store) *Ledger {
	t.Helper()
	l := New(st,
		WithClock(func() time.Time { return testNow }),
		WithIDGenerator(sequentialIDs()))
	require.NoError(t, l.Load(context.Background()))
	return l
}

func TestLoadEmptyStoreUsesDefaults(t *testing.T) {
	st := memory.New()
	l := newTestLedger(t, st)

	assert.Equal(t, []string{"Food", "Transport", "Entertainment", "Other"}, l.Categories.List())
	assert.Empty(t, l.Expenses.All())
	assert.True(t, l.Savings.Total().IsZero())
	assert.Empty(t, l.Budget.State().CategoryBudget)
	assert.Empty(t, l.Goals.List())
	assert.Zero(t, st.Saves(), "loading defaults must not write")
}

func TestLoadCorruptStoresFallsBackToDefaults(t *testing.T) {
	st := memory.New()
	for _, k := range store.Keys() {
		st.Put(k, []byte(`{not json`))
	}

	l := newTestLedger(t, st)

	assert.Equal(t, core.DefaultCategories, l.Categories.List())
	assert.Empty(t, l.Expenses.All())
	assert.True(t, l.Savings.Total().IsZero())
	assert.Empty(t, l.Goals.List())
}

func TestLoadDropsMalformedRecordsAndAssignsIDs(t *testing.T) {
	st := memory.New()
	st.Put(store.KeyExpenses, []byte(`[
		{"amount": 12.5, "category": "Food", "date": "2025-06-01"},
		{"amount": -3, "category": "Food", "date": "2025-06-01"},
		{"amount": 4, "category": "Food", "date": "June 1st"},
		{"amount": "7.25", "category": "Transport", "date": "2025-06-02"}
	]`))

	l := newTestLedger(t, st)

	records := l.Expenses.All()
	require.Len(t, records, 2)
	assert.Equal(t, "id-1", records[0].ID)
	assert.Equal(t, "id-2", records[1].ID)
	assert.True(t, records[1].Amount.Equal(dec("7.25")))

	// Assigned IDs are written back so they survive a restart.
	reloaded := newTestLedger(t, st)
	assert.Equal(t, records, reloaded.Expenses.All())
}

type failingStore struct {
	store.Store
	loadErr error
	saveErr error
}

func (f failingStore) Load(ctx context.Context, name string) ([]byte, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.Store.Load(ctx, name)
}

func (f failingStore) Save(ctx context.Context, name string, data []byte) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	return f.Store.Save(ctx, name, data)
}

func TestLoadPropagatesIOErrors(t *testing.T) {
	diskErr := errors.New("disk unreadable")
	l := New(failingStore{Store: memory.New(), loadErr: diskErr})

	err := l.Load(context.Background())
	assert.ErrorIs(t, err, diskErr)
}

func TestMutationKeepsStateWhenSaveFails(t *testing.T) {
	diskErr := errors.New("disk full")
	l := New(failingStore{Store: memory.New(), saveErr: diskErr},
		WithClock(func() time.Time { return testNow }))

	_, err := l.Savings.Deposit(context.Background(), dec("10"))
	require.ErrorIs(t, err, diskErr)
	assert.False(t, core.IsValidation(err))
	assert.True(t, l.Savings.Total().IsZero())
	assert.Empty(t, l.Savings.History())
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	st := memory.New()
	ctx := context.Background()
	l := newTestLedger(t, st)

	_, err := l.Expenses.Add(ctx, dec("20"), "Books", core.NewDate(2025, 6, 10))
	require.NoError(t, err)
	_, err = l.Budget.Allocate(ctx, dec("1000"), map[string]decimal.Decimal{"Food": dec("400"), "Transport": dec("300")})
	require.NoError(t, err)
	_, err = l.Savings.Deposit(ctx, dec("50"))
	require.NoError(t, err)
	_, err = l.Goals.Create(ctx, core.Goal{Name: "Bike", Kind: core.SaveMoney, Target: dec("500"), TargetDate: core.NewDate(2025, 12, 1)})
	require.NoError(t, err)
	require.NoError(t, l.Save(ctx))

	reloaded := newTestLedger(t, st)
	assert.Equal(t, l.View().Categories, reloaded.View().Categories)
	assert.Equal(t, l.View().Expenses, reloaded.View().Expenses)
	assert.Equal(t, l.View().Goals, reloaded.View().Goals)

	got := reloaded.Budget.State()
	want := l.Budget.State()
	require.Len(t, got.CategoryBudget, len(want.CategoryBudget))
	for k, v := range want.CategoryBudget {
		assert.True(t, v.Equal(got.CategoryBudget[k]), "category %s", k)
	}
	assert.True(t, got.RemainingBudget.Equal(dec("300")))
	assert.True(t, got.Income.Equal(dec("1000")))
	assert.True(t, reloaded.Savings.Total().Equal(dec("50")))
}

func TestPersistedBudgetSavingsFormat(t *testing.T) {
	st := memory.New()
	ctx := context.Background()
	l := newTestLedger(t, st)

	_, err := l.Budget.Allocate(ctx, dec("1000"), map[string]decimal.Decimal{"Food": dec("400")})
	require.NoError(t, err)
	_, err = l.Savings.Deposit(ctx, dec("25.5"))
	require.NoError(t, err)

	b, err := st.Load(ctx, store.KeyBudgetSavings)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"category_budget": {"Food": 400},
		"remaining_budget": 600,
		"income": 1000,
		"total_savings": 25.5,
		"history": [{"date": "2025-06-15", "amount": 25.5}]
	}`, string(b))
	assert.Contains(t, string(b), "\n    \"category_budget\"", "payload is pretty-printed")
}
