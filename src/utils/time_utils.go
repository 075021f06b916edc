package utils

import "time"

// ReportingTimezone is the fixed timezone all trading-day bucketing uses.
// "Today" is always the date in this zone, never the server's local date,
// so a host deployed in UTC does not roll days early.
const ReportingTimezone = "America/New_York"

// ReportingLocation loads the reporting timezone, falling back to UTC if
// the tzdata lookup fails.
func ReportingLocation() *time.Location {
	loc, err := time.LoadLocation(ReportingTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// TradingDay formats t as YYYY-MM-DD in the reporting timezone.
func TradingDay(t time.Time) string {
	return t.In(ReportingLocation()).Format("2006-01-02")
}

// TradingMonth formats t as YYYY-MM in the reporting timezone.
func TradingMonth(t time.Time) string {
	return t.In(ReportingLocation()).Format("2006-01")
}

// DayStart truncates t to midnight of its trading day in the reporting
// timezone.
func DayStart(t time.Time) time.Time {
	et := t.In(ReportingLocation())
	return time.Date(et.Year(), et.Month(), et.Day(), 0, 0, 0, 0, et.Location())
}

// WeekStart returns the Monday of t's ISO week in the reporting timezone,
// at midnight: date - ((weekday+6) % 7) days.
func WeekStart(t time.Time) time.Time {
	d := DayStart(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// MonthStart returns the first of t's month in the reporting timezone, at
// midnight.
func MonthStart(t time.Time) time.Time {
	et := t.In(ReportingLocation())
	return time.Date(et.Year(), et.Month(), 1, 0, 0, 0, 0, et.Location())
}
