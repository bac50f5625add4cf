package http

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"fintrack/internal/core"
)

// ListCategories handles GET /api/v1/categories
func (h *Handler) ListCategories(c echo.Context) error {
	return c.JSON(http.StatusOK, h.ledger.Categories())
}

// AddCategory handles POST /api/v1/categories
func (h *Handler) AddCategory(c echo.Context) error {
	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		return badInput(c, "body", "")
	}
	name, err := h.ledger.AddCategory(c.Request().Context(), req.Name)
	if err != nil {
		return respondError(c, err, "Failed to add category")
	}
	return c.JSON(http.StatusCreated, CategoryRequest{Name: name})
}

// ListExpenses handles GET /api/v1/expenses?category=&date=
func (h *Handler) ListExpenses(c echo.Context) error {
	date, err := parseOptionalDate("date", c.QueryParam("date"))
	if err != nil {
		return respondError(c, err, "")
	}
	records := h.ledger.ListExpenses(strings.TrimSpace(c.QueryParam("category")), date)
	return c.JSON(http.StatusOK, toExpenseResponses(records))
}

// GetExpense handles GET /api/v1/expenses/:id
func (h *Handler) GetExpense(c echo.Context) error {
	rec, err := h.ledger.GetExpense(c.Param("id"))
	if err != nil {
		return respondError(c, err, "Failed to get expense")
	}
	return c.JSON(http.StatusOK, toExpenseResponse(rec))
}

// CreateExpense handles POST /api/v1/expenses
func (h *Handler) CreateExpense(c echo.Context) error {
	var req CreateExpenseRequest
	if err := c.Bind(&req); err != nil {
		return badInput(c, "body", "")
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		return respondError(c, err, "")
	}
	date, err := parseDate("date", req.Date, h.ledger.Today())
	if err != nil {
		return respondError(c, err, "")
	}

	rec, err := h.ledger.AddExpense(c.Request().Context(), amount, req.Category, date)
	if err != nil {
		return respondError(c, err, "Failed to add expense")
	}
	return c.JSON(http.StatusCreated, toExpenseResponse(rec))
}

// UpdateExpense handles PUT /api/v1/expenses/:id
func (h *Handler) UpdateExpense(c echo.Context) error {
	var req UpdateExpenseRequest
	if err := c.Bind(&req); err != nil {
		return badInput(c, "body", "")
	}
	u, err := toExpenseUpdate(c.Param("id"), req)
	if err != nil {
		return respondError(c, err, "")
	}

	rec, err := h.ledger.UpdateExpense(c.Request().Context(), u.ID, u)
	if err != nil {
		return respondError(c, err, "Failed to update expense")
	}
	return c.JSON(http.StatusOK, toExpenseResponse(rec))
}

// DeleteExpense handles DELETE /api/v1/expenses/:id
func (h *Handler) DeleteExpense(c echo.Context) error {
	if err := h.ledger.DeleteExpense(c.Request().Context(), c.Param("id")); err != nil {
		return respondError(c, err, "Failed to delete expense")
	}
	return c.NoContent(http.StatusNoContent)
}

// CommitExpenses handles POST /api/v1/expenses/commit
func (h *Handler) CommitExpenses(c echo.Context) error {
	var req CommitRequest
	if err := c.Bind(&req); err != nil {
		return badInput(c, "body", "")
	}
	updates := make([]core.ExpenseUpdate, 0, len(req.Updates))
	for _, r := range req.Updates {
		u, err := toExpenseUpdate(r.ID, r.UpdateExpenseRequest)
		if err != nil {
			return respondError(c, err, "")
		}
		updates = append(updates, u)
	}

	if err := h.ledger.CommitExpenses(c.Request().Context(), updates, req.Deletions); err != nil {
		return respondError(c, err, "Failed to commit expenses")
	}
	return c.JSON(http.StatusOK, toExpenseResponses(h.ledger.ListExpenses("", nil)))
}

// ExpenseTotals handles GET /api/v1/expenses/totals
func (h *Handler) ExpenseTotals(c echo.Context) error {
	t := h.ledger.ExpenseTotals()
	return c.JSON(http.StatusOK, TotalsResponse{Total: money(t.Total), ByCategory: moneyMap(t.ByCategory)})
}

func toExpenseUpdate(id string, req UpdateExpenseRequest) (core.ExpenseUpdate, error) {
	amount, err := parseOptionalAmount("amount", req.Amount)
	if err != nil {
		return core.ExpenseUpdate{}, err
	}
	return core.ExpenseUpdate{ID: id, Amount: amount, Category: req.Category}, nil
}
