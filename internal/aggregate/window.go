package aggregate

import (
	"fmt"
	"strings"
	"time"

	"fintrack/internal/core"
)

// Mode selects how a Selector is turned into a date window.
type Mode string

const (
	Daily   Mode = "daily"
	Weekly  Mode = "weekly"
	Monthly Mode = "monthly"
	Yearly  Mode = "yearly"
	Custom  Mode = "custom"
	All     Mode = "all"
)

func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case Daily, Weekly, Monthly, Yearly, Custom, All:
		return m, nil
	case "":
		return All, nil
	default:
		return "", core.Reject(core.ErrInvalidRange, "mode", s)
	}
}

// Selector carries the mode-specific inputs. Only the fields relevant to
// the chosen Mode are read; zero values fall back to the current day,
// week, month or year.
type Selector struct {
	Day   core.Date // Daily
	Week  int       // Weekly, ISO week number
	Month int       // Monthly, 1-12
	Year  int       // Weekly, Monthly and Yearly
	Start core.Date // Custom, inclusive
	End   core.Date // Custom, inclusive
}

// MaxWindowDays bounds every gap-filled series: ten years of days.
const MaxWindowDays = 3653

// Window is an inclusive range of calendar days. An empty window matches
// nothing and has no days.
type Window struct {
	Start core.Date
	End   core.Date
	Empty bool
}

func (w Window) Contains(d core.Date) bool {
	if w.Empty {
		return false
	}
	return !d.Before(w.Start) && !d.After(w.End)
}

// Len is the number of days in the window.
func (w Window) Len() int {
	if w.Empty || w.End.Before(w.Start) {
		return 0
	}
	// Unix seconds rather than Sub: time.Duration saturates past ~292 years.
	return int((w.End.Unix()-w.Start.Unix())/secondsPerDay) + 1
}

// Days lists every calendar day in the window in order.
func (w Window) Days() []core.Date {
	n := w.Len()
	if n == 0 {
		return nil
	}
	out := make([]core.Date, 0, n)
	for d := w.Start; !d.After(w.End); d = d.AddDays(1) {
		out = append(out, d)
	}
	return out
}

// latest trims w to its last n days.
func (w Window) latest(n int) Window {
	if w.Len() <= n {
		return w
	}
	w.Start = w.End.AddDays(-(n - 1))
	return w
}

const secondsPerDay = 24 * 60 * 60

func (w Window) String() string {
	if w.Empty {
		return "empty"
	}
	return fmt.Sprintf("%s..%s", w.Start, w.End)
}

func dayWindow(d core.Date) Window {
	return Window{Start: d, End: d}
}

// isoWeekWindow returns Monday through Sunday of ISO week w in isoYear.
func isoWeekWindow(isoYear, week int) (Window, error) {
	if week < 1 || week > 53 {
		return Window{}, core.Reject(core.ErrInvalidRange, "week", fmt.Sprint(week))
	}
	// January 4th always falls in ISO week 1.
	jan4 := time.Date(isoYear, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := (int(jan4.Weekday()) + 6) % 7
	monday := core.DateOf(jan4).AddDays(-offset + (week-1)*7)
	if y, w := monday.ISOWeek(); y != isoYear || w != week {
		return Window{}, core.Reject(core.ErrInvalidRange, "week", fmt.Sprintf("%d-W%02d", isoYear, week))
	}
	return Window{Start: monday, End: monday.AddDays(6)}, nil
}

func monthWindow(year, month int) (Window, error) {
	if month < 1 || month > 12 {
		return Window{}, core.Reject(core.ErrInvalidRange, "month", fmt.Sprint(month))
	}
	first := core.NewDate(year, month, 1)
	last := core.Date{Time: first.AddDate(0, 1, -1)}
	return Window{Start: first, End: last}, nil
}

func yearWindow(year int) (Window, error) {
	if year < 1 || year > 9999 {
		return Window{}, core.Reject(core.ErrInvalidRange, "year", fmt.Sprint(year))
	}
	return Window{Start: core.NewDate(year, 1, 1), End: core.NewDate(year, 12, 31)}, nil
}

func customWindow(start, end core.Date) (Window, error) {
	if start.IsZero() {
		return Window{}, core.Reject(core.ErrInvalidRange, "start", "missing")
	}
	if end.IsZero() {
		return Window{}, core.Reject(core.ErrInvalidRange, "end", "missing")
	}
	if start.After(end) {
		return Window{}, core.Reject(core.ErrInvalidRange, "start", fmt.Sprintf("%s after %s", start, end))
	}
	w := Window{Start: start, End: end}
	if w.Len() > MaxWindowDays {
		return Window{}, core.Reject(core.ErrInvalidRange, "end",
			fmt.Sprintf("%s spans more than %d days", w, MaxWindowDays))
	}
	return w, nil
}

// spanOf covers the earliest through the latest record. It is not bounded;
// charts trim it with latest.
func spanOf(records []core.ExpenseRecord) Window {
	if len(records) == 0 {
		return Window{Empty: true}
	}
	w := dayWindow(records[0].Date)
	for _, r := range records[1:] {
		if r.Date.Before(w.Start) {
			w.Start = r.Date
		}
		if r.Date.After(w.End) {
			w.End = r.Date
		}
	}
	return w
}
