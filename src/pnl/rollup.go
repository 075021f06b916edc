package pnl

import (
	"strings"

	"github.com/shopspring/decimal"

	"tradetracker/src/model"
	"tradetracker/src/utils"
)

// Scope selects which suggestions a rollup covers. A suggestion is live
// once the broker confirmed its entry order.
type Scope string

const (
	ScopeLive  Scope = "live"
	ScopePaper Scope = "paper"
	ScopeAll   Scope = "all"
)

// ParseScope normalizes a raw scope parameter; anything unrecognized
// widens to all.
func ParseScope(raw string) Scope {
	switch Scope(strings.ToLower(strings.TrimSpace(raw))) {
	case ScopeLive:
		return ScopeLive
	case ScopePaper:
		return ScopePaper
	default:
		return ScopeAll
	}
}

// InScope reports whether the suggestion belongs to the scope.
func InScope(s model.TrackedSuggestion, scope Scope) bool {
	live := s.Broker != nil && s.Broker.OrderID != ""
	switch scope {
	case ScopeLive:
		return live
	case ScopePaper:
		return !live
	default:
		return true
	}
}

// DayBucket is one trading day's realized result.
type DayBucket struct {
	PnlUsd float64 `json:"pnlUsd"`
	Trades int     `json:"trades"`
}

// DailyRollup folds closed suggestions into per-trading-day buckets.
// Days are calendar days in the reporting timezone. A non-empty month
// ("2006-01") keeps only that month's days. Dollar sums accumulate as
// decimals so a long month of closes does not drift.
func DailyRollup(suggestions []model.TrackedSuggestion, scope Scope, month string) map[string]DayBucket {
	sums := map[string]decimal.Decimal{}
	trades := map[string]int{}

	for _, s := range suggestions {
		if !model.IsClosedStatus(s.Status) || s.ClosedAt == nil {
			continue
		}
		if !InScope(s, scope) {
			continue
		}

		day := utils.TradingDay(*s.ClosedAt)
		if month != "" && !strings.HasPrefix(day, month) {
			continue
		}

		sums[day] = sums[day].Add(decimal.NewFromFloat(RealizedPnlUsd(s)))
		trades[day]++
	}

	out := make(map[string]DayBucket, len(sums))
	for day, sum := range sums {
		out[day] = DayBucket{PnlUsd: sum.InexactFloat64(), Trades: trades[day]}
	}
	return out
}
