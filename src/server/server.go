package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"

	"tradetracker/src/auth"
	"tradetracker/src/connectors"
	"tradetracker/src/handler"
	"tradetracker/src/reconciler"
	"tradetracker/src/repository"
	"tradetracker/src/risk"
	"tradetracker/src/strategy"
)

// Dependencies carries the wired collaborators every route needs.
type Dependencies struct {
	Store       *repository.SuggestionRepository
	Reconciler  *reconciler.Reconciler
	Runs        *repository.ReconcileRunRepository
	Intake      *strategy.Intake
	Broker      *connectors.SchwabClient
	Quotes      *risk.QuoteCache
	AccountHash string
}

// NewRouter builds the API surface. Everything except the healthcheck
// sits behind the bearer token guard.
func NewRouter(deps Dependencies, apiToken string) chi.Router {
	r := chi.NewRouter()

	// Public routes
	r.Get("/healthcheck", func(w http.ResponseWriter, req *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.WithError(err).Error(" \"/health error")
		}
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.TokenMiddleware(apiToken))

		r.Post("/reconcile", handler.ReconcileHandler(deps.Reconciler))
		r.Get("/reconcile/runs", handler.ReconcileRunsHandler(deps.Runs))

		r.Post("/signals", handler.SignalHandler(deps.Intake))

		r.Get("/pnl/daily", handler.DailyPnlHandler(deps.Store))
		r.Get("/pnl/broker", handler.BrokerPnlHandler(deps.Broker, deps.AccountHash))

		r.Get("/risk/summary", handler.RiskSummaryHandler(deps.Store, deps.Quotes))
		r.Get("/positions", handler.PositionsHandler(deps.Broker, deps.Quotes, deps.AccountHash))

		r.Get("/suggestions", handler.ListSuggestionsHandler(deps.Store))
		r.Post("/suggestions", handler.UpsertSuggestionHandler(deps.Store))
		r.Get("/suggestions/{id}", handler.GetSuggestionHandler(deps.Store))
		r.Delete("/suggestions/{id}", handler.DeleteSuggestionHandler(deps.Store))
	})

	return r
}

func StartServer(deps Dependencies) {
	config := GetConfig()

	r := NewRouter(deps, config.APIToken)

	// Graceful server
	// Server setup
	addr := ":" + config.Port
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	// Start server in goroutine
	go func() {
		logger.Infof("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server crashed")
		}
	}()

	// Shutdown on SIGINT or SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Shutdown error")
	}
}
