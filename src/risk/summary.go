package risk

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"

	"tradetracker/src/model"
	"tradetracker/src/pnl"
	"tradetracker/src/utils"
)

// SummaryRow is one open suggestion marked to the current quote.
// Derived at query time, never persisted.
type SummaryRow struct {
	Symbol           string  `json:"symbol"`
	Strategy         string  `json:"strategy"`
	Side             string  `json:"side"`
	Quantity         float64 `json:"quantity"`
	Entry            float64 `json:"entry"`
	Mark             float64 `json:"mark"`
	NotionalUsd      float64 `json:"notionalUSD"`
	UnrealizedPnlUsd float64 `json:"unrealizedPnLUSD"`
}

// Summary is the aggregate unrealized report over open suggestions.
type Summary struct {
	OK                 bool         `json:"ok"`
	Reason             string       `json:"reason,omitempty"`
	Rows               []SummaryRow `json:"rows"`
	TotalNotionalUsd   float64      `json:"totalNotionalUSD"`
	TotalUnrealizedUsd float64      `json:"totalUnrealizedUSD"`
	RealizedTodayUsd   float64      `json:"realizedTodayUSD"`
}

// InferSide decides whether a suggestion is long or short, in priority
// order: the originating signal action, lexical hints in the strategy
// name, then the stop-above-entry heuristic. Defaults to LONG.
func InferSide(s model.TrackedSuggestion) string {
	switch strings.ToUpper(strings.TrimSpace(s.SignalAction)) {
	case model.DirectionSell:
		return pnl.SideShort
	case model.DirectionBuy:
		return pnl.SideLong
	}

	strategy := strings.ToLower(s.Strategy)
	switch {
	case strings.Contains(strategy, "short"),
		strings.Contains(strategy, "put"),
		strings.Contains(strategy, "bear"):
		return pnl.SideShort
	case strings.Contains(strategy, "long"),
		strings.Contains(strategy, "call"),
		strings.Contains(strategy, "bull"):
		return pnl.SideLong
	}

	if s.StopLoss > s.EntryPrice && s.EntryPrice > 0 {
		return pnl.SideShort
	}
	return pnl.SideLong
}

// BuildSummary marks every ACTIVE suggestion to its live quote and
// aggregates notional and unrealized P&L, plus today's realized figure
// from suggestions closed today. A quote feed failure degrades to
// zero marks and flags the result instead of failing the report.
func BuildSummary(ctx context.Context, suggestions []model.TrackedSuggestion, quotes *QuoteCache) Summary {
	summary := Summary{OK: true, Rows: []SummaryRow{}}

	var symbols []string
	for _, s := range suggestions {
		if s.Status == model.SuggestionStatusActive && s.Ticker != "" {
			symbols = append(symbols, s.Ticker)
		}
	}

	marks := map[string]model.Quote{}
	if len(symbols) > 0 {
		fetched, err := quotes.Get(ctx, symbols)
		if err != nil {
			logger.WithError(err).Warn("Quote fetch failed, marking open rows at zero")
			summary.OK = false
			summary.Reason = "quote_fetch_failed"
		}
		if fetched != nil {
			marks = fetched
		}
	}

	today := utils.TradingDay(nowFunc())

	for _, s := range suggestions {
		side := InferSide(s)
		quantity := s.Quantity()

		if s.Status == model.SuggestionStatusActive {
			mark := marks[strings.ToUpper(s.Ticker)].Price()

			row := SummaryRow{
				Symbol:   strings.ToUpper(s.Ticker),
				Strategy: s.Strategy,
				Side:     side,
				Quantity: quantity,
				Entry:    s.EntryPrice,
				Mark:     mark,
			}
			if mark > 0 {
				row.NotionalUsd = math.Abs(mark * quantity)
				row.UnrealizedPnlUsd = pnl.DirectionalPnlUsd(side, s.EntryPrice, mark, quantity)
			}

			summary.Rows = append(summary.Rows, row)
			summary.TotalNotionalUsd += row.NotionalUsd
			summary.TotalUnrealizedUsd += row.UnrealizedPnlUsd
			continue
		}

		if model.IsClosedStatus(s.Status) && s.ClosedAt != nil && s.ClosedPrice != nil &&
			utils.TradingDay(*s.ClosedAt) == today {
			summary.RealizedTodayUsd += pnl.DirectionalPnlUsd(side, s.EntryPrice, *s.ClosedPrice, quantity)
		}
	}

	sort.SliceStable(summary.Rows, func(i, j int) bool {
		return summary.Rows[i].NotionalUsd > summary.Rows[j].NotionalUsd
	})

	return summary
}

// nowFunc is swapped out in tests to pin "today".
var nowFunc = time.Now
