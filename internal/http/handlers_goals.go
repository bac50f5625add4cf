package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"fintrack/internal/core"
)

// ListGoals handles GET /api/v1/goals
func (h *Handler) ListGoals(c echo.Context) error {
	goals := h.ledger.Goals()
	out := make([]GoalResponse, len(goals))
	for i, g := range goals {
		out[i] = toGoalResponse(g)
	}
	return c.JSON(http.StatusOK, out)
}

// CreateGoal handles POST /api/v1/goals
func (h *Handler) CreateGoal(c echo.Context) error {
	var req GoalRequest
	if err := c.Bind(&req); err != nil {
		return badInput(c, "body", "")
	}
	target, err := parseAmount("target", req.Target)
	if err != nil {
		return respondError(c, core.Reject(core.ErrInvalidGoal, "target", req.Target), "")
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return respondError(c, core.Reject(core.ErrInvalidGoal, "date", req.Date), "")
	}

	g, err := h.ledger.CreateGoal(c.Request().Context(), core.Goal{
		Name:       req.Name,
		Kind:       core.GoalKind(req.Kind),
		Target:     target,
		TargetDate: date,
		Category:   req.Category,
	})
	if err != nil {
		return respondError(c, err, "Failed to create goal")
	}
	return c.JSON(http.StatusCreated, toGoalResponse(g))
}

// DeleteGoal handles DELETE /api/v1/goals/:id
func (h *Handler) DeleteGoal(c echo.Context) error {
	if err := h.ledger.DeleteGoal(c.Request().Context(), c.Param("id")); err != nil {
		return respondError(c, err, "Failed to delete goal")
	}
	return c.NoContent(http.StatusNoContent)
}

// GoalProgress handles GET /api/v1/goals/progress
func (h *Handler) GoalProgress(c echo.Context) error {
	statuses := h.ledger.GoalProgress()
	out := make([]GoalProgressResponse, len(statuses))
	for i, s := range statuses {
		out[i] = toGoalProgressResponse(s)
	}
	return c.JSON(http.StatusOK, out)
}

// Projections handles GET /api/v1/goals/projections?monthly=&total=
func (h *Handler) Projections(c echo.Context) error {
	monthly, total := c.QueryParam("monthly"), c.QueryParam("total")
	if monthly == "" && total == "" {
		return NewValidationError(c, "monthly or total is required", core.ErrInvalidAmount.Error(), "monthly", "")
	}

	var out ProjectionsResponse
	if monthly != "" {
		m, err := parseAmount("monthly", monthly)
		if err != nil {
			return respondError(c, err, "")
		}
		ps, err := h.ledger.ProjectSavings(m)
		if err != nil {
			return respondError(c, err, "")
		}
		out.Savings = toProjections(ps)
	}
	if total != "" {
		t, err := parseAmount("total", total)
		if err != nil {
			return respondError(c, err, "")
		}
		ps, err := h.ledger.BreakdownBudget(t)
		if err != nil {
			return respondError(c, err, "")
		}
		out.Breakdown = toProjections(ps)
	}
	return c.JSON(http.StatusOK, out)
}
