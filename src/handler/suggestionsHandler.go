package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"

	"tradetracker/src/model"
	"tradetracker/src/pnl"
)

type suggestionStore interface {
	Load(ctx context.Context) []model.TrackedSuggestion
	Upsert(ctx context.Context, s *model.TrackedSuggestion) error
	Delete(ctx context.Context, id string) (bool, error)
	FindByID(ctx context.Context, id string) (*model.TrackedSuggestion, error)
}

// ListSuggestionsHandler lists tracked suggestions, newest first.
// Optional filters: status and scope (live|paper|all).
func ListSuggestionsHandler(store suggestionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := r.URL.Query().Get("status")
		scope := pnl.ParseScope(r.URL.Query().Get("scope"))

		suggestions := store.Load(r.Context())

		filtered := make([]model.TrackedSuggestion, 0, len(suggestions))
		for _, s := range suggestions {
			if status != "" && s.Status != status {
				continue
			}
			if !pnl.InScope(s, scope) {
				continue
			}
			filtered = append(filtered, s)
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(filtered); err != nil {
			logger.WithError(err).Error("failed to encode suggestions response")
		}
	}
}

// GetSuggestionHandler fetches one suggestion by id.
func GetSuggestionHandler(store suggestionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		suggestion, err := store.FindByID(r.Context(), id)
		if err != nil {
			logger.WithError(err).Error("failed to load suggestion")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if suggestion == nil {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(suggestion); err != nil {
			logger.WithError(err).Error("failed to encode suggestion response")
		}
	}
}

// UpsertSuggestionHandler creates or replaces a tracked suggestion. An
// empty id gets one generated; an empty status starts the lifecycle at
// ACTIVE.
func UpsertSuggestionHandler(store suggestionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var suggestion model.TrackedSuggestion
		decoder := json.NewDecoder(r.Body)
		if err := decoder.Decode(&suggestion); err != nil {
			logger.WithError(err).Warn("invalid suggestion payload")
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}

		if suggestion.Ticker == "" {
			http.Error(w, "ticker is required", http.StatusBadRequest)
			return
		}

		if err := store.Upsert(r.Context(), &suggestion); err != nil {
			logger.WithError(err).Error("failed to upsert suggestion")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(suggestion); err != nil {
			logger.WithError(err).Error("failed to encode suggestion response")
		}
	}
}

// DeleteSuggestionHandler removes one suggestion by id.
func DeleteSuggestionHandler(store suggestionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		deleted, err := store.Delete(r.Context(), id)
		if err != nil {
			logger.WithError(err).Error("failed to delete suggestion")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if !deleted {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
