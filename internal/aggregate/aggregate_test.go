package aggregate

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

// Sunday, ISO week 24 of 2025.
var testNow = time.Date(2025, 6, 15, 18, 30, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newAggregator() *Aggregator {
	return New(WithClock(func() time.Time { return testNow }))
}

func expense(amount, category string, y, m, d int) core.ExpenseRecord {
	return core.ExpenseRecord{
		ID:       category + core.NewDate(y, m, d).String(),
		Amount:   dec(amount),
		Category: category,
		Date:     core.NewDate(y, m, d),
	}
}

func sampleRecords() []core.ExpenseRecord {
	return []core.ExpenseRecord{
		expense("10", "Food", 2025, 6, 9),
		expense("5", "Food", 2025, 6, 9),
		expense("20", "Transport", 2025, 6, 11),
		expense("7.5", "Food", 2025, 6, 15),
		expense("100", "Other", 2025, 5, 31),
		expense("40", "Food", 2024, 12, 31),
	}
}

func TestWindowFor(t *testing.T) {
	a := newAggregator()

	tests := []struct {
		name      string
		mode      Mode
		sel       Selector
		wantStart core.Date
		wantEnd   core.Date
	}{
		{"daily defaults to today", Daily, Selector{}, core.NewDate(2025, 6, 15), core.NewDate(2025, 6, 15)},
		{"daily", Daily, Selector{Day: core.NewDate(2025, 3, 2)}, core.NewDate(2025, 3, 2), core.NewDate(2025, 3, 2)},
		{"weekly current", Weekly, Selector{}, core.NewDate(2025, 6, 9), core.NewDate(2025, 6, 15)},
		{"weekly first week starts in previous year", Weekly, Selector{Week: 1}, core.NewDate(2024, 12, 30), core.NewDate(2025, 1, 5)},
		{"weekly 53 in a long year", Weekly, Selector{Week: 53, Year: 2026}, core.NewDate(2026, 12, 28), core.NewDate(2027, 1, 3)},
		{"monthly february leap year", Monthly, Selector{Month: 2, Year: 2024}, core.NewDate(2024, 2, 1), core.NewDate(2024, 2, 29)},
		{"monthly defaults to current year", Monthly, Selector{Month: 4}, core.NewDate(2025, 4, 1), core.NewDate(2025, 4, 30)},
		{"yearly", Yearly, Selector{Year: 2024}, core.NewDate(2024, 1, 1), core.NewDate(2024, 12, 31)},
		{"custom single day", Custom, Selector{Start: core.NewDate(2025, 1, 1), End: core.NewDate(2025, 1, 1)}, core.NewDate(2025, 1, 1), core.NewDate(2025, 1, 1)},
		{"all spans records", All, Selector{}, core.NewDate(2024, 12, 31), core.NewDate(2025, 6, 15)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := a.WindowFor(sampleRecords(), tt.mode, tt.sel)
			require.NoError(t, err)
			assert.False(t, w.Empty)
			assert.Equal(t, tt.wantStart, w.Start)
			assert.Equal(t, tt.wantEnd, w.End)
		})
	}
}

func TestWindowForInvalidRanges(t *testing.T) {
	a := newAggregator()

	tests := []struct {
		name string
		mode Mode
		sel  Selector
	}{
		{"negative week", Weekly, Selector{Week: -1}},
		{"week 53 in a short year", Weekly, Selector{Week: 53}},
		{"week 54", Weekly, Selector{Week: 54}},
		{"month 13", Monthly, Selector{Month: 13}},
		{"custom reversed", Custom, Selector{Start: core.NewDate(2025, 6, 10), End: core.NewDate(2025, 6, 1)}},
		{"custom missing end", Custom, Selector{Start: core.NewDate(2025, 6, 10)}},
		{"unknown mode", Mode("hourly"), Selector{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.WindowFor(nil, tt.mode, tt.sel)
			assert.ErrorIs(t, err, core.ErrInvalidRange)
			assert.True(t, core.IsValidation(err))
		})
	}
}

func TestFilterByPeriod(t *testing.T) {
	a := newAggregator()

	got, err := a.FilterByPeriod(sampleRecords(), Weekly, Selector{Week: 24})
	require.NoError(t, err)
	assert.Len(t, got, 4)

	got, err = a.FilterByPeriod(sampleRecords(), Monthly, Selector{Month: 5})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Other", got[0].Category)

	got, err = a.FilterByPeriod(sampleRecords(), All, Selector{})
	require.NoError(t, err)
	assert.Len(t, got, 6)

	got, err = a.FilterByPeriod(nil, All, Selector{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFilterByPeriodReversedCustomRange(t *testing.T) {
	a := newAggregator()

	got, err := a.FilterByPeriod(sampleRecords(), Custom, Selector{
		Start: core.NewDate(2025, 6, 15),
		End:   core.NewDate(2025, 6, 1),
	})

	require.ErrorIs(t, err, core.ErrInvalidRange)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestLineChartEmptyWeekIsGapFilled(t *testing.T) {
	a := newAggregator()

	ls, err := a.GroupForLineChart(sampleRecords(), Weekly, Selector{Week: 10}, CategoryTotal)
	require.NoError(t, err)

	require.Len(t, ls.Series, 1)
	points := ls.Series[0].Points
	require.Len(t, points, 7)
	assert.Equal(t, time.Monday, points[0].Date.Weekday())
	assert.Equal(t, time.Sunday, points[6].Date.Weekday())
	for _, p := range points {
		assert.True(t, p.Amount.IsZero(), "day %s", p.Date)
	}
}

func TestLineChartTotal(t *testing.T) {
	a := newAggregator()

	ls, err := a.GroupForLineChart(sampleRecords(), Weekly, Selector{}, CategoryTotal)
	require.NoError(t, err)

	points := ls.Series[0].Points
	require.Len(t, points, 7)
	assert.True(t, points[0].Amount.Equal(dec("15")))
	assert.True(t, points[1].Amount.IsZero())
	assert.True(t, points[2].Amount.Equal(dec("20")))
	assert.True(t, points[6].Amount.Equal(dec("7.5")))
}

func TestLineChartPerCategory(t *testing.T) {
	a := newAggregator()

	ls, err := a.GroupForLineChart(sampleRecords(), Weekly, Selector{}, CategoryAll)
	require.NoError(t, err)

	require.Len(t, ls.Series, 2)
	assert.Equal(t, "Food", ls.Series[0].Name)
	assert.Equal(t, "Transport", ls.Series[1].Name)
	for _, s := range ls.Series {
		assert.Len(t, s.Points, 7)
	}
	assert.True(t, ls.Series[1].Points[2].Amount.Equal(dec("20")))
	assert.True(t, ls.Series[1].Points[0].Amount.IsZero())

	ls, err = a.GroupForLineChart(sampleRecords(), Weekly, Selector{}, "Transport")
	require.NoError(t, err)
	require.Len(t, ls.Series, 1)
	assert.Equal(t, "Transport", ls.Series[0].Name)
	assert.True(t, ls.Series[0].Points[0].Amount.IsZero())
	assert.True(t, ls.Series[0].Points[2].Amount.Equal(dec("20")))
}

func TestLineChartMonthHasOnePointPerDay(t *testing.T) {
	a := newAggregator()

	ls, err := a.GroupForLineChart(sampleRecords(), Monthly, Selector{Month: 2}, CategoryTotal)
	require.NoError(t, err)
	assert.Len(t, ls.Series[0].Points, 28)
}

func TestLineChartInvalidRange(t *testing.T) {
	a := newAggregator()

	ls, err := a.GroupForLineChart(sampleRecords(), Monthly, Selector{Month: 13}, CategoryTotal)
	require.ErrorIs(t, err, core.ErrInvalidRange)
	assert.Empty(t, ls.Series)
}

func TestGroupForPieChart(t *testing.T) {
	got := GroupForPieChart(sampleRecords())

	require.Len(t, got, 3)
	assert.Equal(t, "Other", got[0].Name)
	assert.Equal(t, "Food", got[1].Name)
	assert.True(t, got[1].Amount.Equal(dec("62.5")))
	assert.Equal(t, "Transport", got[2].Name)

	assert.Empty(t, GroupForPieChart(nil))
}

func TestOverspendAlerts(t *testing.T) {
	budget := map[string]decimal.Decimal{
		"Food":          dec("50"),
		"Transport":     dec("20"),
		"Entertainment": dec("30"),
	}
	spend := map[string]decimal.Decimal{
		"Food":      dec("62.5"),
		"Transport": dec("20"),
		"Other":     dec("100"),
	}

	alerts := OverspendAlerts(budget, spend)

	require.Len(t, alerts, 3)
	assert.Equal(t, "Entertainment", alerts[0].Category)
	assert.Equal(t, Under, alerts[0].Status)
	assert.True(t, alerts[0].Delta.Equal(dec("-30")))

	assert.Equal(t, "Food", alerts[1].Category)
	assert.Equal(t, Over, alerts[1].Status)
	assert.True(t, alerts[1].Delta.Equal(dec("12.5")))

	assert.Equal(t, Exact, alerts[2].Status)
	assert.True(t, alerts[2].Delta.IsZero())
}

func TestBudgetVsSpent(t *testing.T) {
	bars := BudgetVsSpent(
		map[string]decimal.Decimal{"Transport": dec("20"), "Food": dec("50")},
		map[string]decimal.Decimal{"Food": dec("10")},
	)

	require.Len(t, bars, 2)
	assert.Equal(t, "Food", bars[0].Category)
	assert.True(t, bars[0].Spent.Equal(dec("10")))
	assert.True(t, bars[1].Spent.IsZero())
}

func TestSavingsCharts(t *testing.T) {
	history := []core.Snapshot{
		{Date: core.NewDate(2025, 6, 1), Amount: dec("50")},
		{Date: core.NewDate(2025, 6, 1), Amount: dec("100")},
	}

	line := SavingsLine(history)
	require.Len(t, line, 2)
	assert.True(t, line[1].Amount.Equal(dec("100")))

	pie := SavingsVsSpending(dec("100"), dec("62.5"))
	require.Len(t, pie, 2)
	assert.Equal(t, "Savings", pie[0].Name)
	assert.Equal(t, "Expenses", pie[1].Name)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode(" Weekly ")
	require.NoError(t, err)
	assert.Equal(t, Weekly, m)

	m, err = ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, All, m)

	_, err = ParseMode("fortnightly")
	assert.ErrorIs(t, err, core.ErrInvalidRange)
}

func TestCustomRangeIsBounded(t *testing.T) {
	a := newAggregator()
	start := core.NewDate(2015, 1, 1)

	w, err := a.WindowFor(nil, Custom, Selector{Start: start, End: start.AddDays(MaxWindowDays - 1)})
	require.NoError(t, err)
	assert.Equal(t, MaxWindowDays, w.Len())

	_, err = a.WindowFor(nil, Custom, Selector{Start: start, End: start.AddDays(MaxWindowDays)})
	assert.ErrorIs(t, err, core.ErrInvalidRange)

	ls, err := a.GroupForLineChart(nil, Custom, Selector{
		Start: core.NewDate(2, 1, 1),
		End:   core.NewDate(9999, 12, 31),
	}, CategoryAll)
	require.ErrorIs(t, err, core.ErrInvalidRange)
	assert.Empty(t, ls.Series)
}

func TestAllModeLineChartKeepsRecentDays(t *testing.T) {
	a := newAggregator()
	records := append(sampleRecords(), expense("1", "Food", 2, 1, 1))

	ls, err := a.GroupForLineChart(records, All, Selector{}, CategoryTotal)
	require.NoError(t, err)
	require.Len(t, ls.Series, 1)
	points := ls.Series[0].Points
	require.Len(t, points, MaxWindowDays)
	assert.Equal(t, core.NewDate(2025, 6, 15), points[len(points)-1].Date)
	assert.Equal(t, core.NewDate(2025, 6, 15).AddDays(-(MaxWindowDays - 1)), ls.Window.Start)

	sum := decimal.Zero
	for _, p := range points {
		sum = sum.Add(p.Amount)
	}
	assert.True(t, sum.Equal(dec("182.5")), "the ancient record falls outside the chart, got %s", sum)

	// Filtering is not trimmed: the pie chart still sees every record.
	all, err := a.FilterByPeriod(records, All, Selector{})
	require.NoError(t, err)
	assert.Len(t, all, 7)
}

func TestWindowLenAcrossCenturies(t *testing.T) {
	w := Window{Start: core.NewDate(2, 1, 1), End: core.NewDate(9999, 12, 31)}
	assert.Greater(t, w.Len(), 3_000_000)
	assert.Zero(t, Window{Empty: true}.Len())
	assert.Equal(t, 1, Window{Start: core.NewDate(2025, 1, 1), End: core.NewDate(2025, 1, 1)}.Len())
}
