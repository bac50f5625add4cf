package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// GetBudget handles GET /api/v1/budget
func (h *Handler) GetBudget(c echo.Context) error {
	return c.JSON(http.StatusOK, toBudgetResponse(h.ledger.Budget(), h.ledger.ResetDue()))
}

// AllocateBudget handles POST /api/v1/budget/allocate
func (h *Handler) AllocateBudget(c echo.Context) error {
	var req AllocateRequest
	if err := c.Bind(&req); err != nil {
		return badInput(c, "body", "")
	}
	income, err := parseAmount("income", req.Income)
	if err != nil {
		return respondError(c, err, "")
	}
	allocations, err := parseAllocations(req.Allocations)
	if err != nil {
		return respondError(c, err, "")
	}

	state, err := h.ledger.AllocateBudget(c.Request().Context(), income, allocations)
	if err != nil {
		return respondError(c, err, "Failed to allocate budget")
	}
	return c.JSON(http.StatusOK, toBudgetResponse(state, h.ledger.ResetDue()))
}

// ResetBudget handles POST /api/v1/budget/reset
func (h *Handler) ResetBudget(c echo.Context) error {
	moved, err := h.ledger.ResetBudget(c.Request().Context())
	if err != nil {
		return respondError(c, err, "Failed to reset budget")
	}
	return c.JSON(http.StatusOK, ResetResponse{
		MovedToSavings: money(moved),
		Budget:         toBudgetResponse(h.ledger.Budget(), h.ledger.ResetDue()),
		TotalSavings:   money(h.ledger.Savings().TotalSavings),
	})
}

// BudgetProgress handles GET /api/v1/budget/progress
func (h *Handler) BudgetProgress(c echo.Context) error {
	return c.JSON(http.StatusOK, toBudgetProgressResponse(h.ledger.BudgetProgress()))
}

// GetSavings handles GET /api/v1/savings
func (h *Handler) GetSavings(c echo.Context) error {
	return c.JSON(http.StatusOK, toSavingsResponse(h.ledger.Savings()))
}

// Deposit handles POST /api/v1/savings/deposits
func (h *Handler) Deposit(c echo.Context) error {
	var req DepositRequest
	if err := c.Bind(&req); err != nil {
		return badInput(c, "body", "")
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		return respondError(c, err, "")
	}

	snap, err := h.ledger.Deposit(c.Request().Context(), amount)
	if err != nil {
		return respondError(c, err, "Failed to deposit savings")
	}
	return c.JSON(http.StatusCreated, toSnapshotResponse(snap))
}
