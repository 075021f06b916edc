package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	logger "github.com/sirupsen/logrus"

	"tradetracker/src/model"
	"tradetracker/src/reconciler"
)

type reconcileRunner interface {
	Reconcile(ctx context.Context, opts reconciler.Options) reconciler.Result
}

type runLister interface {
	Recent(ctx context.Context, limit int) ([]model.ReconcileRun, error)
}

// ReconcileHandler runs one reconcile pass on demand. lookbackDays and
// maxResults are optional; out-of-range values are clamped downstream.
func ReconcileHandler(runner reconcileRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var opts reconciler.Options

		if raw := r.URL.Query().Get("lookbackDays"); raw != "" {
			days, err := strconv.Atoi(raw)
			if err != nil {
				http.Error(w, "invalid lookbackDays", http.StatusBadRequest)
				return
			}
			opts.LookbackDays = days
		}

		if raw := r.URL.Query().Get("maxResults"); raw != "" {
			max, err := strconv.Atoi(raw)
			if err != nil {
				http.Error(w, "invalid maxResults", http.StatusBadRequest)
				return
			}
			opts.MaxResults = max
		}

		result := runner.Reconcile(r.Context(), opts)

		w.Header().Set("Content-Type", "application/json")
		if !result.OK {
			w.WriteHeader(http.StatusBadGateway)
		}
		if err := json.NewEncoder(w).Encode(result); err != nil {
			logger.WithError(err).Error("failed to encode reconcile response")
		}
	}
}

// ReconcileRunsHandler lists recent reconcile pass audit records.
func ReconcileRunsHandler(runs runLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = parsed
		}

		records, err := runs.Recent(r.Context(), limit)
		if err != nil {
			logger.WithError(err).Error("failed to load reconcile runs")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(records); err != nil {
			logger.WithError(err).Error("failed to encode reconcile runs response")
		}
	}
}
