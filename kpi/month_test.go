package kpi_test

import (
	"errors"
	"testing"
	"time"

	"github.com/warp/uniform-kpi/kpi"
)

// =============================================================================
// MONTH PARSING AND ARITHMETIC
// =============================================================================

func TestParseMonth(t *testing.T) {
	m, err := kpi.ParseMonth("2025-09")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Year != 2025 || m.Month != time.September {
		t.Errorf("got %v, want 2025-09", m)
	}
	if m.String() != "2025-09" {
		t.Errorf("String() = %q, want 2025-09", m.String())
	}
}

func TestParseMonth_Invalid(t *testing.T) {
	for _, raw := range []string{"", "2025", "2025-13", "09-2025", "2025-09-01", "..."} {
		_, err := kpi.ParseMonth(raw)
		if err == nil {
			t.Errorf("ParseMonth(%q): expected error", raw)
			continue
		}
		if !errors.Is(err, kpi.ErrInvalidMonth) {
			t.Errorf("ParseMonth(%q): error %v is not ErrInvalidMonth", raw, err)
		}
	}
}

func TestMonth_AddMonths_YearRollover(t *testing.T) {
	m := kpi.Month{Year: 2025, Month: time.November}

	next := m.AddMonths(3)
	if next.Year != 2026 || next.Month != time.February {
		t.Errorf("2025-11 + 3 = %v, want 2026-02", next)
	}

	same := m.AddMonths(0)
	if !same.Equal(m) {
		t.Errorf("adding zero months changed the value: %v", same)
	}
}

func TestMonthsBetween(t *testing.T) {
	jan := kpi.Month{Year: 2025, Month: time.January}
	sep := kpi.Month{Year: 2025, Month: time.September}
	feb26 := kpi.Month{Year: 2026, Month: time.February}

	if d := kpi.MonthsBetween(jan, sep); d != 8 {
		t.Errorf("jan..sep = %d, want 8", d)
	}
	if d := kpi.MonthsBetween(jan, feb26); d != 13 {
		t.Errorf("jan 2025..feb 2026 = %d, want 13", d)
	}
	if d := kpi.MonthsBetween(sep, jan); d != -8 {
		t.Errorf("sep..jan = %d, want -8", d)
	}
}

func TestMonth_Bounds(t *testing.T) {
	feb := kpi.Month{Year: 2024, Month: time.February} // leap year

	if got := feb.Start(); !got.Equal(time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Start() = %v", got)
	}
	if got := feb.End(); got.Day() != 29 {
		t.Errorf("End() of 2024-02 = day %d, want 29", got.Day())
	}

	if !feb.Contains(time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC)) {
		t.Error("Contains should admit the last day")
	}
	if feb.Contains(time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)) {
		t.Error("Contains should reject the next month")
	}
}

// =============================================================================
// WINDOWS
// =============================================================================

func TestParseWindow(t *testing.T) {
	w, err := kpi.ParseWindow(kpi.TimeRange{From: "2025-09", To: "2026-03"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if kpi.MonthsBetween(w.From, w.To) != 6 {
		t.Errorf("window spans %d steps, want 6", kpi.MonthsBetween(w.From, w.To))
	}

	// Inclusive on both ends.
	if !w.Contains(time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC)) {
		t.Error("window should contain its first day")
	}
	if !w.Contains(time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC)) {
		t.Error("window should contain its last day")
	}
	if w.Contains(time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)) {
		t.Error("window should not contain the month after To")
	}
}

func TestParseWindow_Inverted(t *testing.T) {
	_, err := kpi.ParseWindow(kpi.TimeRange{From: "2026-03", To: "2025-09"})
	if !errors.Is(err, kpi.ErrInvalidWindow) {
		t.Errorf("inverted range: error %v is not ErrInvalidWindow", err)
	}
}

func TestParseWindow_SingleMonth(t *testing.T) {
	w, err := kpi.ParseWindow(kpi.TimeRange{From: "2025-10", To: "2025-10"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !w.From.Equal(w.To) {
		t.Error("single-month window should have From == To")
	}
}
