package services

import (
	"errors"
	"testing"
	"time"
)

func TestDayKeyUsesLocation(t *testing.T) {
	seoul, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}
	instant := time.Date(2024, time.June, 1, 20, 0, 0, 0, time.UTC)

	if got := DayKey(instant, time.UTC); got != "2024-06-01" {
		t.Fatalf("UTC day = %s, want 2024-06-01", got)
	}
	if got := DayKey(instant, seoul); got != "2024-06-02" {
		t.Fatalf("Seoul day = %s, want 2024-06-02", got)
	}
}

func TestParseDayKey(t *testing.T) {
	got, err := ParseDayKey(" 2024-02-29 ", "date")
	if err != nil || got != "2024-02-29" {
		t.Fatalf("ParseDayKey() = %q, %v", got, err)
	}

	for _, raw := range []string{"", "2024-13-01", "2023-02-29", "01/02/2024"} {
		_, err := ParseDayKey(raw, "date")
		var validation *ValidationError
		if !errors.As(err, &validation) || validation.Field != "date" {
			t.Fatalf("ParseDayKey(%q): expected date validation error, got %v", raw, err)
		}
	}
}

func TestResolveAndClampDay(t *testing.T) {
	now := time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC)

	day, err := ResolveDay("", "date", now, time.UTC)
	if err != nil || day != "2024-06-01" {
		t.Fatalf("ResolveDay(empty) = %q, %v", day, err)
	}
	if got := ClampDayToToday("2024-06-05", now, time.UTC); got != "2024-06-01" {
		t.Fatalf("ClampDayToToday(future) = %s", got)
	}
	if got := ClampDayToToday("2024-05-05", now, time.UTC); got != "2024-05-05" {
		t.Fatalf("ClampDayToToday(past) = %s", got)
	}
}

func TestShiftDayCrossesMonthBoundary(t *testing.T) {
	if got := ShiftDay("2024-03-01", -1); got != "2024-02-29" {
		t.Fatalf("ShiftDay() = %s, want 2024-02-29", got)
	}
	if got := ShiftDay("2024-12-31", 1); got != "2025-01-01" {
		t.Fatalf("ShiftDay() = %s, want 2025-01-01", got)
	}
}
