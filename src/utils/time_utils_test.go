package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eastern(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	return loc
}

func TestTradingDayUsesReportingTimezone(t *testing.T) {
	et := eastern(t)

	// 23:30 New York on Jan 15 is 04:30 UTC on Jan 16
	late := time.Date(2024, 1, 15, 23, 30, 0, 0, et)
	assert.Equal(t, "2024-01-15", TradingDay(late))
	assert.Equal(t, "2024-01-16", late.UTC().Format("2006-01-02"), "sanity: UTC day differs")

	assert.Equal(t, "2024-01", TradingMonth(late))
}

func TestWeekStartIsMonday(t *testing.T) {
	et := eastern(t)

	wednesday := time.Date(2024, 3, 13, 12, 0, 0, 0, et)
	assert.Equal(t, "2024-03-11", TradingDay(WeekStart(wednesday)))

	monday := time.Date(2024, 3, 11, 12, 0, 0, 0, et)
	assert.Equal(t, "2024-03-11", TradingDay(WeekStart(monday)))

	sunday := time.Date(2024, 3, 10, 12, 0, 0, 0, et)
	assert.Equal(t, "2024-03-04", TradingDay(WeekStart(sunday)), "Sunday belongs to the prior Monday-start week")
}

func TestMonthStart(t *testing.T) {
	et := eastern(t)

	mid := time.Date(2024, 3, 13, 12, 0, 0, 0, et)
	assert.Equal(t, "2024-03-01", TradingDay(MonthStart(mid)))
}

func TestDayStart(t *testing.T) {
	et := eastern(t)

	afternoon := time.Date(2024, 3, 13, 15, 45, 12, 0, et)
	start := DayStart(afternoon)
	assert.Equal(t, 0, start.Hour())
	assert.Equal(t, "2024-03-13", TradingDay(start))
}
