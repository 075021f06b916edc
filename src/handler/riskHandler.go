package handler

import (
	"context"
	"encoding/json"
	"net/http"

	logger "github.com/sirupsen/logrus"

	"tradetracker/src/model"
	"tradetracker/src/risk"
)

type accountFetcher interface {
	GetAccountDetails(ctx context.Context, accountHash string) ([]model.BrokerPosition, model.AccountBalances, error)
}

// RiskSummaryHandler marks open suggestions to live quotes and returns
// the aggregate unrealized report.
func RiskSummaryHandler(store suggestionLoader, quotes *risk.QuoteCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		suggestions := store.Load(r.Context())
		summary := risk.BuildSummary(r.Context(), suggestions, quotes)

		w.Header().Set("Content-Type", "application/json")
		if !summary.OK {
			w.WriteHeader(http.StatusBadGateway)
		}
		if err := json.NewEncoder(w).Encode(summary); err != nil {
			logger.WithError(err).Error("failed to encode risk summary response")
		}
	}
}

// PositionsHandler returns broker-held positions marked to market,
// alongside the account balances.
func PositionsHandler(broker accountFetcher, quotes *risk.QuoteCache, accountHash string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		positions, balances, err := broker.GetAccountDetails(r.Context(), accountHash)
		if err != nil {
			logger.WithError(err).Error("failed to fetch account details")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadGateway)
			if encErr := json.NewEncoder(w).Encode(map[string]interface{}{
				"ok":     false,
				"reason": "broker_fetch_failed",
				"error":  err.Error(),
			}); encErr != nil {
				logger.WithError(encErr).Error("failed to encode positions error response")
			}
			return
		}

		symbols := make([]string, 0, len(positions))
		for _, p := range positions {
			symbols = append(symbols, p.Symbol)
		}

		// a quote miss only degrades marks, the broker values still stand
		marks, err := quotes.Get(r.Context(), symbols)
		if err != nil {
			logger.WithError(err).Warn("quote fetch failed, valuing positions from broker data only")
		}

		rows := risk.MarkPositions(positions, marks)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]interface{}{
			"ok":        true,
			"positions": rows,
			"balances":  balances,
		}); err != nil {
			logger.WithError(err).Error("failed to encode positions response")
		}
	}
}
