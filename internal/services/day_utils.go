package services

import (
	"strings"
	"time"
)

const DayLayout = "2006-01-02"

func DateAtLocation(value time.Time, location *time.Location) time.Time {
	if location == nil {
		location = time.UTC
	}
	localized := value.In(location)
	year, month, day := localized.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, location)
}

// DayKey renders the calendar day of value in location as YYYY-MM-DD.
func DayKey(value time.Time, location *time.Location) string {
	return DateAtLocation(value, location).Format(DayLayout)
}

func ParseDayKey(raw string, field string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	parsed, err := time.Parse(DayLayout, trimmed)
	if err != nil {
		return "", invalidField(field, "must be a YYYY-MM-DD date")
	}
	return parsed.Format(DayLayout), nil
}

// ResolveDay parses raw, falling back to today when it is empty.
func ResolveDay(raw string, field string, now time.Time, location *time.Location) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return DayKey(now, location), nil
	}
	return ParseDayKey(raw, field)
}

// ClampDayToToday replaces a day after today with today. Keys compare
// lexically because the layout is fixed width.
func ClampDayToToday(day string, now time.Time, location *time.Location) string {
	today := DayKey(now, location)
	if day > today {
		return today
	}
	return day
}

func ShiftDay(day string, days int) string {
	parsed, err := time.Parse(DayLayout, day)
	if err != nil {
		return day
	}
	return parsed.AddDate(0, 0, days).Format(DayLayout)
}
