package kpi

import (
	"fmt"
	"time"
)

// =============================================================================
// MONTH - Year-month value type (the engine's window granularity)
// =============================================================================

// Month identifies a calendar month. Windows, trends, and demand requests
// are all specified at month granularity.
type Month struct {
	Year  int
	Month time.Month
}

// ParseMonth parses the wire form "YYYY-MM".
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

func (m Month) IsZero() bool { return m.Year == 0 }

// index is the absolute month number; all comparisons and distances go
// through it.
func (m Month) index() int { return m.Year*12 + int(m.Month) - 1 }

func (m Month) Before(o Month) bool { return m.index() < o.index() }
func (m Month) After(o Month) bool  { return m.index() > o.index() }
func (m Month) Equal(o Month) bool  { return m.index() == o.index() }

func (m Month) AddMonths(n int) Month {
	idx := m.index() + n
	return Month{Year: idx / 12, Month: time.Month(idx%12 + 1)}
}

// MonthsBetween returns the signed month distance from a to b.
func MonthsBetween(a, b Month) int { return b.index() - a.index() }

// Start returns the first instant of the month (UTC, day granularity).
func (m Month) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the last day of the month.
func (m Month) End() time.Time {
	return time.Date(m.Year, m.Month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
}

// Contains reports whether t falls inside the month.
func (m Month) Contains(t time.Time) bool {
	return t.Year() == m.Year && t.Month() == m.Month
}

// =============================================================================
// WINDOW - Inclusive month range
// =============================================================================

// Window is a contiguous inclusive month range [From, To].
type Window struct {
	From Month
	To   Month
}

// ParseWindow validates and parses a TimeRange into a Window.
func ParseWindow(tr TimeRange) (Window, error) {
	from, err := ParseMonth(tr.From)
	if err != nil {
		return Window{}, err
	}
	to, err := ParseMonth(tr.To)
	if err != nil {
		return Window{}, err
	}
	if to.Before(from) {
		return Window{}, fmt.Errorf("%w: %s before %s", ErrInvalidWindow, tr.To, tr.From)
	}
	return Window{From: from, To: to}, nil
}

// Start and End are the window's date bounds.
func (w Window) Start() time.Time { return w.From.Start() }
func (w Window) End() time.Time   { return w.To.End() }

// Contains reports whether a date falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start()) && !t.After(w.End())
}
