package http

import (
	"github.com/shopspring/decimal"

	"fintrack/internal/aggregate"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/services"
)

// Amounts travel as decimal strings with two places.
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func moneyMap(m map[string]decimal.Decimal) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = money(v)
	}
	return out
}

type CategoryRequest struct {
	Name string `json:"name"`
}

type CreateExpenseRequest struct {
	Amount   string `json:"amount"`
	Category string `json:"category"`
	Date     string `json:"date"`
}

// UpdateExpenseRequest leaves omitted fields untouched.
type UpdateExpenseRequest struct {
	Amount   *string `json:"amount,omitempty"`
	Category *string `json:"category,omitempty"`
}

type CommitUpdate struct {
	ID string `json:"id"`
	UpdateExpenseRequest
}

type CommitRequest struct {
	Updates   []CommitUpdate `json:"updates"`
	Deletions []string       `json:"deletions"`
}

type ExpenseResponse struct {
	ID       string `json:"id"`
	Amount   string `json:"amount"`
	Category string `json:"category"`
	Date     string `json:"date"`
}

func toExpenseResponse(r core.ExpenseRecord) ExpenseResponse {
	return ExpenseResponse{ID: r.ID, Amount: money(r.Amount), Category: r.Category, Date: r.Date.String()}
}

func toExpenseResponses(records []core.ExpenseRecord) []ExpenseResponse {
	out := make([]ExpenseResponse, len(records))
	for i, r := range records {
		out[i] = toExpenseResponse(r)
	}
	return out
}

type TotalsResponse struct {
	Total      string            `json:"total"`
	ByCategory map[string]string `json:"byCategory"`
}

type AllocateRequest struct {
	Income      string            `json:"income"`
	Allocations map[string]string `json:"allocations"`
}

type BudgetResponse struct {
	Income          string            `json:"income"`
	RemainingBudget string            `json:"remainingBudget"`
	CategoryBudget  map[string]string `json:"categoryBudget"`
	ResetDue        bool              `json:"resetDue"`
}

func toBudgetResponse(b core.BudgetState, resetDue bool) BudgetResponse {
	return BudgetResponse{
		Income:          money(b.Income),
		RemainingBudget: money(b.RemainingBudget),
		CategoryBudget:  moneyMap(b.CategoryBudget),
		ResetDue:        resetDue,
	}
}

type ResetResponse struct {
	MovedToSavings string         `json:"movedToSavings"`
	Budget         BudgetResponse `json:"budget"`
	TotalSavings   string         `json:"totalSavings"`
}

type ProgressLineResponse struct {
	Category   string `json:"category,omitempty"`
	Budgeted   string `json:"budgeted"`
	Spent      string `json:"spent"`
	Remaining  string `json:"remaining"`
	Percent    string `json:"percent"`
	OverBudget bool   `json:"overBudget"`
}

type BudgetProgressResponse struct {
	Categories []ProgressLineResponse `json:"categories"`
	Total      ProgressLineResponse   `json:"total"`
}

func toProgressLine(p ledger.CategoryProgress) ProgressLineResponse {
	return ProgressLineResponse{
		Category:   p.Category,
		Budgeted:   money(p.Budgeted),
		Spent:      money(p.Spent),
		Remaining:  money(p.Remaining),
		Percent:    money(p.Percent),
		OverBudget: p.OverBudget,
	}
}

func toBudgetProgressResponse(p ledger.BudgetProgress) BudgetProgressResponse {
	out := BudgetProgressResponse{
		Categories: make([]ProgressLineResponse, len(p.Categories)),
		Total:      toProgressLine(p.Total),
	}
	for i, line := range p.Categories {
		out.Categories[i] = toProgressLine(line)
	}
	return out
}

type DepositRequest struct {
	Amount string `json:"amount"`
}

type SnapshotResponse struct {
	Date   string `json:"date"`
	Amount string `json:"amount"`
}

type SavingsResponse struct {
	TotalSavings string             `json:"totalSavings"`
	History      []SnapshotResponse `json:"history"`
}

func toSnapshotResponse(s core.Snapshot) SnapshotResponse {
	return SnapshotResponse{Date: s.Date.String(), Amount: money(s.Amount)}
}

func toSavingsResponse(s core.SavingsState) SavingsResponse {
	out := SavingsResponse{TotalSavings: money(s.TotalSavings), History: make([]SnapshotResponse, len(s.History))}
	for i, snap := range s.History {
		out.History[i] = toSnapshotResponse(snap)
	}
	return out
}

type GoalRequest struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Target   string `json:"target"`
	Date     string `json:"date"`
	Category string `json:"category,omitempty"`
}

type GoalResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Target   string `json:"target"`
	Date     string `json:"date"`
	Category string `json:"category,omitempty"`
}

func toGoalResponse(g core.Goal) GoalResponse {
	return GoalResponse{
		ID:       g.ID,
		Name:     g.Name,
		Kind:     string(g.Kind),
		Target:   money(g.Target),
		Date:     g.TargetDate.String(),
		Category: g.Category,
	}
}

type GoalProgressResponse struct {
	Goal      GoalResponse `json:"goal"`
	Current   string       `json:"current"`
	Percent   string       `json:"percent"`
	Remaining string       `json:"remaining"`
	Complete  bool         `json:"complete"`
	OverLimit bool         `json:"overLimit"`
}

func toGoalProgressResponse(s services.GoalStatus) GoalProgressResponse {
	return GoalProgressResponse{
		Goal:      toGoalResponse(s.Goal),
		Current:   money(s.Progress.Current),
		Percent:   money(s.Progress.Percent),
		Remaining: money(s.Progress.Remaining),
		Complete:  s.Progress.Complete,
		OverLimit: s.Progress.OverLimit,
	}
}

type ProjectionResponse struct {
	Months int    `json:"months"`
	Amount string `json:"amount"`
}

type ProjectionsResponse struct {
	Savings   []ProjectionResponse `json:"savings,omitempty"`
	Breakdown []ProjectionResponse `json:"breakdown,omitempty"`
}

func toProjections(ps []ledger.Projection) []ProjectionResponse {
	out := make([]ProjectionResponse, len(ps))
	for i, p := range ps {
		out[i] = ProjectionResponse{Months: p.Months, Amount: money(p.Amount)}
	}
	return out
}

type PointResponse struct {
	Date   string `json:"date"`
	Amount string `json:"amount"`
}

func toPoints(points []aggregate.Point) []PointResponse {
	out := make([]PointResponse, len(points))
	for i, p := range points {
		out[i] = PointResponse{Date: p.Date.String(), Amount: money(p.Amount)}
	}
	return out
}

type SeriesResponse struct {
	Name   string          `json:"name"`
	Points []PointResponse `json:"points"`
}

type LineChartResponse struct {
	Start  string           `json:"start,omitempty"`
	End    string           `json:"end,omitempty"`
	Empty  bool             `json:"empty"`
	Series []SeriesResponse `json:"series"`
}

func toLineChartResponse(ls aggregate.LineSeries) LineChartResponse {
	out := LineChartResponse{Empty: ls.Window.Empty, Series: make([]SeriesResponse, len(ls.Series))}
	if !ls.Window.Empty {
		out.Start = ls.Window.Start.String()
		out.End = ls.Window.End.String()
	}
	for i, s := range ls.Series {
		out.Series[i] = SeriesResponse{Name: s.Name, Points: toPoints(s.Points)}
	}
	return out
}

type SliceResponse struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
}

func toSlices(amounts []core.CategoryAmount) []SliceResponse {
	out := make([]SliceResponse, len(amounts))
	for i, a := range amounts {
		out[i] = SliceResponse{Name: a.Name, Amount: money(a.Amount)}
	}
	return out
}

type BarResponse struct {
	Category  string `json:"category"`
	Allocated string `json:"allocated"`
	Spent     string `json:"spent"`
}

func toBars(entries []aggregate.BarEntry) []BarResponse {
	out := make([]BarResponse, len(entries))
	for i, b := range entries {
		out[i] = BarResponse{Category: b.Category, Allocated: money(b.Allocated), Spent: money(b.Spent)}
	}
	return out
}

type AlertResponse struct {
	Category  string `json:"category"`
	Status    string `json:"status"`
	Allocated string `json:"allocated"`
	Spent     string `json:"spent"`
	Delta     string `json:"delta"`
}

func toAlerts(alerts []aggregate.Alert) []AlertResponse {
	out := make([]AlertResponse, len(alerts))
	for i, a := range alerts {
		out[i] = AlertResponse{
			Category:  a.Category,
			Status:    string(a.Status),
			Allocated: money(a.Allocated),
			Spent:     money(a.Spent),
			Delta:     money(a.Delta),
		}
	}
	return out
}
