package http

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"fintrack/internal/aggregate"
	"fintrack/internal/core"
	"fintrack/internal/services"
)

// parseAmount reads a decimal string, dot or comma separated. Signed or
// malformed input is an invalid amount; zero is left to the engine.
func parseAmount(field, s string) (decimal.Decimal, error) {
	d, err := core.ParseNonNegativeAmount(s)
	if err != nil {
		return decimal.Zero, core.Reject(core.ErrInvalidAmount, field, s)
	}
	return d, nil
}

func parseOptionalAmount(field string, s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := parseAmount(field, *s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// parseDate reads a YYYY-MM-DD date; an empty string means today.
func parseDate(field, s string, today core.Date) (core.Date, error) {
	if strings.TrimSpace(s) == "" {
		return today, nil
	}
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}, core.Reject(core.ErrInvalidDay, field, s)
	}
	return d, nil
}

func parseOptionalDate(field, s string) (*core.Date, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := core.ParseDate(s)
	if err != nil {
		return nil, core.Reject(core.ErrInvalidDay, field, s)
	}
	return &d, nil
}

func parseInt(field, s string) (int, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, core.Reject(core.ErrInvalidRange, field, s)
	}
	return n, nil
}

// parseQuery reads the period selector shared by chart endpoints:
// mode, day, week, month, year, start, end and category.
func parseQuery(c echo.Context) (services.Query, error) {
	var q services.Query
	mode, err := aggregate.ParseMode(c.QueryParam("mode"))
	if err != nil {
		return q, err
	}
	q.Mode = mode
	q.Category = strings.TrimSpace(c.QueryParam("category"))

	for _, p := range []struct {
		name string
		dst  *int
	}{
		{"week", &q.Selector.Week},
		{"month", &q.Selector.Month},
		{"year", &q.Selector.Year},
	} {
		if *p.dst, err = parseInt(p.name, c.QueryParam(p.name)); err != nil {
			return q, err
		}
	}

	for _, p := range []struct {
		name string
		dst  *core.Date
	}{
		{"day", &q.Selector.Day},
		{"start", &q.Selector.Start},
		{"end", &q.Selector.End},
	} {
		d, err := parseOptionalDate(p.name, c.QueryParam(p.name))
		if err != nil {
			return q, err
		}
		if d != nil {
			*p.dst = *d
		}
	}
	return q, nil
}

func parseAllocations(raw map[string]string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(raw))
	for name, v := range raw {
		d, err := parseAmount(name, v)
		if err != nil {
			return nil, err
		}
		out[name] = d
	}
	return out, nil
}
