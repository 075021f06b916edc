package pnl

import (
	"time"

	"github.com/shopspring/decimal"

	"tradetracker/src/model"
	"tradetracker/src/utils"
)

// BrokerRealized is the realized-P&L report derived from the broker's
// own transaction history instead of local suggestions.
type BrokerRealized struct {
	TodayUsd float64              `json:"todayUsd"`
	WtdUsd   float64              `json:"wtdUsd"`
	MtdUsd   float64              `json:"mtdUsd"`
	Days     map[string]DayBucket `json:"days"`
}

// BrokerTruthRollup buckets broker transactions by trading day and
// rolls them into today / week-to-date / month-to-date sums relative
// to now. WTD starts on Monday; both windows include today.
func BrokerTruthRollup(transactions []model.BrokerTransaction, now time.Time) BrokerRealized {
	sums := map[string]decimal.Decimal{}
	trades := map[string]int{}

	for _, tx := range transactions {
		day := utils.TradingDay(tx.TradeDate)
		sums[day] = sums[day].Add(decimal.NewFromFloat(tx.NetAmount))
		trades[day]++
	}

	today := utils.TradingDay(now)
	weekStart := utils.TradingDay(utils.WeekStart(now))
	monthStart := utils.TradingDay(utils.MonthStart(now))

	var todaySum, wtdSum, mtdSum decimal.Decimal
	days := make(map[string]DayBucket, len(sums))
	for day, sum := range sums {
		days[day] = DayBucket{PnlUsd: sum.InexactFloat64(), Trades: trades[day]}

		if day > today {
			continue
		}
		if day == today {
			todaySum = todaySum.Add(sum)
		}
		// YYYY-MM-DD compares chronologically as a string
		if day >= weekStart {
			wtdSum = wtdSum.Add(sum)
		}
		if day >= monthStart {
			mtdSum = mtdSum.Add(sum)
		}
	}

	return BrokerRealized{
		TodayUsd: todaySum.InexactFloat64(),
		WtdUsd:   wtdSum.InexactFloat64(),
		MtdUsd:   mtdSum.InexactFloat64(),
		Days:     days,
	}
}
