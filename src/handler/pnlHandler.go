package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	logger "github.com/sirupsen/logrus"

	"tradetracker/src/model"
	"tradetracker/src/pnl"
	"tradetracker/src/utils"
)

type suggestionLoader interface {
	Load(ctx context.Context) []model.TrackedSuggestion
}

type transactionLister interface {
	ListTransactions(ctx context.Context, accountHash string, startDate, endDate time.Time) ([]model.BrokerTransaction, error)
}

// DailyPnlHandler returns the per-day realized rollup over local
// suggestions. Query params: scope (live|paper|all) and month
// (YYYY-MM).
func DailyPnlHandler(store suggestionLoader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope := pnl.ParseScope(r.URL.Query().Get("scope"))
		month := r.URL.Query().Get("month")

		suggestions := store.Load(r.Context())
		days := pnl.DailyRollup(suggestions, scope, month)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]interface{}{
			"scope": scope,
			"month": month,
			"days":  days,
		}); err != nil {
			logger.WithError(err).Error("failed to encode daily pnl response")
		}
	}
}

// fetchStart returns the start of the broker transaction window. The
// ISO week can begin in the prior month, so the window opens at the
// earlier of week start and month start or the WTD rollup loses days.
func fetchStart(now time.Time) time.Time {
	weekStart := utils.WeekStart(now)
	monthStart := utils.MonthStart(now)
	if weekStart.Before(monthStart) {
		return weekStart
	}
	return monthStart
}

// BrokerPnlHandler returns today/WTD/MTD realized P&L from the broker's
// own transaction history.
func BrokerPnlHandler(broker transactionLister, accountHash string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()

		transactions, err := broker.ListTransactions(r.Context(), accountHash, fetchStart(now), now)
		if err != nil {
			logger.WithError(err).Error("failed to fetch broker transactions")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadGateway)
			if encErr := json.NewEncoder(w).Encode(map[string]interface{}{
				"ok":     false,
				"reason": "broker_fetch_failed",
				"error":  err.Error(),
			}); encErr != nil {
				logger.WithError(encErr).Error("failed to encode broker pnl error response")
			}
			return
		}

		report := pnl.BrokerTruthRollup(transactions, now)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]interface{}{
			"ok":       true,
			"todayUsd": report.TodayUsd,
			"wtdUsd":   report.WtdUsd,
			"mtdUsd":   report.MtdUsd,
			"days":     report.Days,
		}); err != nil {
			logger.WithError(err).Error("failed to encode broker pnl response")
		}
	}
}
