package services

import (
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/aggregate"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

// Query selects the expenses an insight is computed over.
type Query struct {
	Mode     aggregate.Mode
	Selector aggregate.Selector
	// Category is aggregate.CategoryTotal, aggregate.CategoryAll or a name.
	Category string
}

func (q Query) key(today core.Date) string {
	s := q.Selector
	return fmt.Sprintf("%s|%s|d=%s|w=%d|m=%d|y=%d|s=%s|e=%s|c=%s",
		today, q.Mode, s.Day, s.Week, s.Month, s.Year, s.Start, s.End, q.Category)
}

// stamped is a cached result and the ledger generation it was computed from.
type stamped[T any] struct {
	generation uint64
	value      T
}

// InsightsService answers chart and alert queries from a ledger snapshot.
// Results are cached until the ledger changes. Entries computed from an
// older generation are never served, even when they land in the cache after
// the invalidation that should have removed them.
type InsightsService struct {
	ledger     *LedgerService
	aggregator *aggregate.Aggregator
	logger     *slog.Logger

	lines *cache.LRUCache[stamped[aggregate.LineSeries]]
	pies  *cache.LRUCache[stamped[[]core.CategoryAmount]]
}

func NewInsightsService(ls *LedgerService, agg *aggregate.Aggregator, cacheSize int, cacheTTL time.Duration, logger *slog.Logger) *InsightsService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &InsightsService{
		ledger:     ls,
		aggregator: agg,
		logger:     logger,
		lines:      cache.NewLRUCache[stamped[aggregate.LineSeries]](cacheSize, cacheTTL),
		pies:       cache.NewLRUCache[stamped[[]core.CategoryAmount]](cacheSize, cacheTTL),
	}
	ls.OnChange(s.Invalidate)
	return s
}

// Cleaners exposes the caches for periodic expiry.
func (s *InsightsService) Cleaners() []cache.Cleaner {
	return []cache.Cleaner{s.lines, s.pies}
}

// Invalidate drops every cached result.
func (s *InsightsService) Invalidate() {
	s.lines.Clear()
	s.pies.Clear()
}

func (s *InsightsService) LineChart(q Query) (aggregate.LineSeries, error) {
	key := q.key(s.ledger.Today())
	if v, ok := s.lines.Get(key); ok && v.generation == s.ledger.Generation() {
		return v.value, nil
	}
	category := q.Category
	if category == "" {
		category = aggregate.CategoryTotal
	}
	records, gen := s.ledger.expensesAt()
	series, err := s.aggregator.GroupForLineChart(records, q.Mode, q.Selector, category)
	if err != nil {
		return aggregate.LineSeries{}, err
	}
	s.lines.Set(key, stamped[aggregate.LineSeries]{generation: gen, value: series})
	s.logger.Debug("Line chart computed", "mode", string(q.Mode), "window", series.Window.String())
	return series, nil
}

func (s *InsightsService) PieChart(q Query) ([]core.CategoryAmount, error) {
	key := q.key(s.ledger.Today())
	if v, ok := s.pies.Get(key); ok && v.generation == s.ledger.Generation() {
		return v.value, nil
	}
	records, gen := s.ledger.expensesAt()
	filtered, err := s.aggregator.FilterByPeriod(records, q.Mode, q.Selector)
	if err != nil {
		return nil, err
	}
	pie := aggregate.GroupForPieChart(filtered)
	s.pies.Set(key, stamped[[]core.CategoryAmount]{generation: gen, value: pie})
	return pie, nil
}

// BudgetBars compares every allocation with total spend in its category.
func (s *InsightsService) BudgetBars() []aggregate.BarEntry {
	v := s.ledger.Snapshot()
	return aggregate.BudgetVsSpent(v.Budget.CategoryBudget, ledger.TotalByCategory(v.Expenses))
}

func (s *InsightsService) Alerts() []aggregate.Alert {
	v := s.ledger.Snapshot()
	return aggregate.OverspendAlerts(v.Budget.CategoryBudget, ledger.TotalByCategory(v.Expenses))
}

func (s *InsightsService) SavingsLine() []aggregate.Point {
	return aggregate.SavingsLine(s.ledger.Savings().History)
}

func (s *InsightsService) SavingsVsSpending() []core.CategoryAmount {
	v := s.ledger.Snapshot()
	return aggregate.SavingsVsSpending(v.Savings.TotalSavings, ledger.Total(v.Expenses))
}
