package ledger

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

const jsonIndent = "    "

// amount encodes as a bare JSON number. Quoted numbers are accepted on
// decode so hand-edited files still load.
type amount decimal.Decimal

func (a amount) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(a).String()), nil
}

func (a *amount) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	*a = amount(d)
	return nil
}

func (a amount) dec() decimal.Decimal { return decimal.Decimal(a) }

type (
	expenseDTO struct {
		ID       string `json:"id,omitempty"`
		Amount   amount `json:"amount"`
		Category string `json:"category"`
		Date     string `json:"date"`
	}

	snapshotDTO struct {
		Date   string `json:"date"`
		Amount amount `json:"amount"`
	}

	budgetSavingsDTO struct {
		CategoryBudget  map[string]amount `json:"category_budget"`
		RemainingBudget amount            `json:"remaining_budget"`
		Income          amount            `json:"income"`
		TotalSavings    amount            `json:"total_savings"`
		History         []snapshotDTO     `json:"history"`
	}

	goalDTO struct {
		ID       string `json:"id,omitempty"`
		Name     string `json:"name"`
		Kind     string `json:"kind"`
		Target   amount `json:"target"`
		Date     string `json:"date"`
		Category string `json:"category,omitempty"`
	}
)

// budgetSavings is the in-memory form of the shared budgetSavings store.
type budgetSavings struct {
	budget  core.BudgetState
	savings core.SavingsState
}

func encode(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", jsonIndent)
}

func encodeExpenses(records []core.ExpenseRecord) ([]byte, error) {
	out := make([]expenseDTO, len(records))
	for i, r := range records {
		out[i] = expenseDTO{ID: r.ID, Amount: amount(r.Amount), Category: r.Category, Date: r.Date.String()}
	}
	return encode(out)
}

func encodeBudgetSavings(bs budgetSavings) ([]byte, error) {
	dto := budgetSavingsDTO{
		CategoryBudget:  make(map[string]amount, len(bs.budget.CategoryBudget)),
		RemainingBudget: amount(bs.budget.RemainingBudget),
		Income:          amount(bs.budget.Income),
		TotalSavings:    amount(bs.savings.TotalSavings),
		History:         make([]snapshotDTO, len(bs.savings.History)),
	}
	for k, v := range bs.budget.CategoryBudget {
		dto.CategoryBudget[k] = amount(v)
	}
	for i, s := range bs.savings.History {
		dto.History[i] = snapshotDTO{Date: s.Date.String(), Amount: amount(s.Amount)}
	}
	return encode(dto)
}

func encodeGoals(goals []core.Goal) ([]byte, error) {
	out := make([]goalDTO, len(goals))
	for i, g := range goals {
		out[i] = goalDTO{
			ID:       g.ID,
			Name:     g.Name,
			Kind:     string(g.Kind),
			Target:   amount(g.Target),
			Date:     g.TargetDate.String(),
			Category: g.Category,
		}
	}
	return encode(out)
}

// decodeResult carries what survived the load boundary and why the rest did not.
type decodeResult[T any] struct {
	value   T
	dropped []string
	// changed is set when decoding altered data that should be written back,
	// such as IDs assigned to legacy records.
	changed bool
}

func corrupt(name string, err error) error {
	return fmt.Errorf("%w: %s: %v", core.ErrCorruptPersistedState, name, err)
}

func decodeCategories(b []byte) (decodeResult[[]string], error) {
	var raw []string
	if err := json.Unmarshal(b, &raw); err != nil {
		return decodeResult[[]string]{}, corrupt("categories", err)
	}
	res := decodeResult[[]string]{value: make([]string, 0, len(raw))}
	seen := make(map[string]struct{}, len(raw))
	for _, name := range raw {
		if err := core.ValidateCategory(name); err != nil {
			res.dropped = append(res.dropped, fmt.Sprintf("category %q: %v", name, err))
			continue
		}
		if _, ok := seen[name]; ok {
			res.dropped = append(res.dropped, fmt.Sprintf("duplicate category %q", name))
			continue
		}
		seen[name] = struct{}{}
		res.value = append(res.value, name)
	}
	res.changed = len(res.dropped) > 0
	return res, nil
}

func decodeExpenses(b []byte, newID func() string) (decodeResult[[]core.ExpenseRecord], error) {
	var raw []expenseDTO
	if err := json.Unmarshal(b, &raw); err != nil {
		return decodeResult[[]core.ExpenseRecord]{}, corrupt("expenses", err)
	}
	res := decodeResult[[]core.ExpenseRecord]{value: make([]core.ExpenseRecord, 0, len(raw))}
	seen := make(map[string]struct{}, len(raw))
	for i, dto := range raw {
		d, err := core.ParseDate(dto.Date)
		if err != nil {
			res.dropped = append(res.dropped, fmt.Sprintf("expense %d: %v", i, err))
			continue
		}
		if err := core.ValidateAmount("amount", dto.Amount.dec()); err != nil {
			res.dropped = append(res.dropped, fmt.Sprintf("expense %d: %v", i, err))
			continue
		}
		if err := core.ValidateCategory(dto.Category); err != nil {
			res.dropped = append(res.dropped, fmt.Sprintf("expense %d: %v", i, err))
			continue
		}
		id := dto.ID
		if _, dup := seen[id]; id == "" || dup {
			id = newID()
			res.changed = true
		}
		seen[id] = struct{}{}
		res.value = append(res.value, core.ExpenseRecord{
			ID:       id,
			Amount:   dto.Amount.dec(),
			Category: dto.Category,
			Date:     d,
		})
	}
	if len(res.dropped) > 0 {
		res.changed = true
	}
	return res, nil
}

func decodeBudgetSavings(b []byte) (decodeResult[budgetSavings], error) {
	var dto budgetSavingsDTO
	if err := json.Unmarshal(b, &dto); err != nil {
		return decodeResult[budgetSavings]{}, corrupt("budgetSavings", err)
	}
	res := decodeResult[budgetSavings]{value: emptyBudgetSavings()}
	for name, v := range dto.CategoryBudget {
		if v.dec().IsNegative() {
			res.dropped = append(res.dropped, fmt.Sprintf("allocation %q: negative amount %s", name, v.dec()))
			continue
		}
		res.value.budget.CategoryBudget[name] = v.dec()
	}
	res.value.budget.RemainingBudget = nonNegative(&res, "remaining_budget", dto.RemainingBudget.dec())
	res.value.budget.Income = nonNegative(&res, "income", dto.Income.dec())
	res.value.savings.TotalSavings = nonNegative(&res, "total_savings", dto.TotalSavings.dec())
	for i, s := range dto.History {
		d, err := core.ParseDate(s.Date)
		if err != nil {
			res.dropped = append(res.dropped, fmt.Sprintf("history %d: %v", i, err))
			continue
		}
		res.value.savings.History = append(res.value.savings.History, core.Snapshot{Date: d, Amount: s.Amount.dec()})
	}
	res.changed = len(res.dropped) > 0
	return res, nil
}

func nonNegative[T any](res *decodeResult[T], field string, v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		res.dropped = append(res.dropped, fmt.Sprintf("%s: negative amount %s reset to 0", field, v))
		return decimal.Zero
	}
	return v
}

// legacyGoalKinds maps the labels the goal form used to offer.
var legacyGoalKinds = map[string]core.GoalKind{
	"save money":                      core.SaveMoney,
	"spend less in specific category": core.SpendLessInCategory,
}

func parseGoalKind(s string) core.GoalKind {
	k := core.GoalKind(strings.TrimSpace(s))
	if k.IsValid() {
		return k
	}
	return legacyGoalKinds[strings.ToLower(strings.TrimSpace(s))]
}

func decodeGoals(b []byte, newID func() string) (decodeResult[[]core.Goal], error) {
	var raw []goalDTO
	if err := json.Unmarshal(b, &raw); err != nil {
		return decodeResult[[]core.Goal]{}, corrupt("goals", err)
	}
	res := decodeResult[[]core.Goal]{value: make([]core.Goal, 0, len(raw))}
	seen := make(map[string]struct{}, len(raw))
	for i, dto := range raw {
		d, err := core.ParseDate(dto.Date)
		if err != nil {
			res.dropped = append(res.dropped, fmt.Sprintf("goal %d: %v", i, err))
			continue
		}
		g := core.Goal{
			ID:         dto.ID,
			Name:       dto.Name,
			Kind:       parseGoalKind(dto.Kind),
			Target:     dto.Target.dec(),
			TargetDate: d,
			Category:   dto.Category,
		}
		if err := g.Validate(); err != nil {
			res.dropped = append(res.dropped, fmt.Sprintf("goal %d: %v", i, err))
			continue
		}
		if _, dup := seen[g.ID]; g.ID == "" || dup {
			g.ID = newID()
			res.changed = true
		}
		seen[g.ID] = struct{}{}
		res.value = append(res.value, g)
	}
	if len(res.dropped) > 0 {
		res.changed = true
	}
	return res, nil
}

func emptyBudgetSavings() budgetSavings {
	return budgetSavings{
		budget: core.BudgetState{CategoryBudget: map[string]decimal.Decimal{}},
	}
}
