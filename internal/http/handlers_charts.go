package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// LineChart handles GET /api/v1/charts/line
func (h *Handler) LineChart(c echo.Context) error {
	q, err := parseQuery(c)
	if err != nil {
		return respondError(c, err, "")
	}
	series, err := h.insights.LineChart(q)
	if err != nil {
		return respondError(c, err, "Failed to build line chart")
	}
	return c.JSON(http.StatusOK, toLineChartResponse(series))
}

// PieChart handles GET /api/v1/charts/pie
func (h *Handler) PieChart(c echo.Context) error {
	q, err := parseQuery(c)
	if err != nil {
		return respondError(c, err, "")
	}
	pie, err := h.insights.PieChart(q)
	if err != nil {
		return respondError(c, err, "Failed to build pie chart")
	}
	return c.JSON(http.StatusOK, toSlices(pie))
}

// BarChart handles GET /api/v1/charts/bar
func (h *Handler) BarChart(c echo.Context) error {
	return c.JSON(http.StatusOK, toBars(h.insights.BudgetBars()))
}

// SavingsChart handles GET /api/v1/charts/savings
func (h *Handler) SavingsChart(c echo.Context) error {
	return c.JSON(http.StatusOK, toPoints(h.insights.SavingsLine()))
}

// Alerts handles GET /api/v1/insights/alerts
func (h *Handler) Alerts(c echo.Context) error {
	return c.JSON(http.StatusOK, toAlerts(h.insights.Alerts()))
}

// SavingsVsSpending handles GET /api/v1/insights/savings-vs-spending
func (h *Handler) SavingsVsSpending(c echo.Context) error {
	return c.JSON(http.StatusOK, toSlices(h.insights.SavingsVsSpending()))
}
