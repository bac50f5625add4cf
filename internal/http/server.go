// Package http exposes the ledger over a JSON API served by echo.
package http

import (
	"net/http"
	"sync/atomic"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	applog "fintrack/internal/log"
	"fintrack/internal/services"
)

type ServerConfig struct {
	RateLimitRPS float64
	// BodyLimit caps request bodies, echo syntax ("1M").
	BodyLimit string
}

// Handler serves every API route.
type Handler struct {
	ledger   *services.LedgerService
	insights *services.InsightsService
	metrics  *securityMetrics
}

func NewHandler(ledger *services.LedgerService, insights *services.InsightsService) *Handler {
	return &Handler{ledger: ledger, insights: insights, metrics: &securityMetrics{}}
}

// NewServer builds the echo instance with middleware and routes.
func NewServer(cfg ServerConfig, h *Handler, logger *applog.Logger) *echo.Echo {
	if cfg.BodyLimit == "" {
		cfg.BodyLimit = "1M"
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestID())
	e.Use(applog.Middleware(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.Secure())
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(suspiciousRequestLogger(h.metrics))
	if cfg.RateLimitRPS > 0 {
		e.Use(rateLimiter(cfg.RateLimitRPS, h.metrics))
	}

	e.GET("/healthz", h.Health)
	RegisterRoutes(e, h)
	return e
}

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, h *Handler) {
	api := e.Group("/api/v1")

	api.GET("/categories", h.ListCategories)
	api.POST("/categories", h.AddCategory)

	expenses := api.Group("/expenses")
	expenses.GET("", h.ListExpenses)
	expenses.POST("", h.CreateExpense)
	expenses.GET("/totals", h.ExpenseTotals)
	expenses.POST("/commit", h.CommitExpenses)
	expenses.GET("/:id", h.GetExpense)
	expenses.PUT("/:id", h.UpdateExpense)
	expenses.DELETE("/:id", h.DeleteExpense)

	budget := api.Group("/budget")
	budget.GET("", h.GetBudget)
	budget.POST("/allocate", h.AllocateBudget)
	budget.POST("/reset", h.ResetBudget)
	budget.GET("/progress", h.BudgetProgress)

	savings := api.Group("/savings")
	savings.GET("", h.GetSavings)
	savings.POST("/deposits", h.Deposit)

	goals := api.Group("/goals")
	goals.GET("", h.ListGoals)
	goals.POST("", h.CreateGoal)
	goals.GET("/progress", h.GoalProgress)
	goals.GET("/projections", h.Projections)
	goals.DELETE("/:id", h.DeleteGoal)

	charts := api.Group("/charts")
	charts.GET("/line", h.LineChart)
	charts.GET("/pie", h.PieChart)
	charts.GET("/bar", h.BarChart)
	charts.GET("/savings", h.SavingsChart)

	insights := api.Group("/insights")
	insights.GET("/alerts", h.Alerts)
	insights.GET("/savings-vs-spending", h.SavingsVsSpending)
}

type HealthResponse struct {
	Status             string `json:"status"`
	Today              string `json:"today"`
	RateLimitHits      int64  `json:"rateLimitHits"`
	SuspiciousRequests int64  `json:"suspiciousRequests"`
}

// Health handles GET /healthz
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:             "ok",
		Today:              h.ledger.Today().String(),
		RateLimitHits:      atomic.LoadInt64(&h.metrics.rateLimitHits),
		SuspiciousRequests: atomic.LoadInt64(&h.metrics.suspiciousRequests),
	})
}
