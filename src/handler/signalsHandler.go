package handler

import (
	"context"
	"encoding/json"
	"net/http"

	logger "github.com/sirupsen/logrus"

	"tradetracker/src/strategy"
)

type signalProcessor interface {
	Process(ctx context.Context, sig strategy.Signal) (strategy.IntakeResult, error)
}

// SignalHandler feeds one incoming strategy signal through dedup and
// into the suggestion store.
func SignalHandler(intake signalProcessor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sig strategy.Signal
		decoder := json.NewDecoder(r.Body)
		if err := decoder.Decode(&sig); err != nil {
			logger.WithError(err).Warn("invalid signal payload")
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}

		result, err := intake.Process(r.Context(), sig)
		if err != nil {
			if sig.Symbol == "" {
				http.Error(w, "symbol is required", http.StatusBadRequest)
				return
			}
			logger.WithError(err).Error("failed to process signal")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if result.Suppressed {
			w.WriteHeader(http.StatusConflict)
		}
		if err := json.NewEncoder(w).Encode(map[string]interface{}{
			"accepted":   result.Accepted,
			"suppressed": result.Suppressed,
			"reason":     result.Reason,
			"suggestion": result.Suggestion,
		}); err != nil {
			logger.WithError(err).Error("failed to encode signal response")
		}
	}
}
