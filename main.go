package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"

	"tradetracker/src/connectors"
	"tradetracker/src/database"
	"tradetracker/src/dedup"
	"tradetracker/src/executors"
	"tradetracker/src/reconciler"
	"tradetracker/src/repository"
	"tradetracker/src/risk"
	"tradetracker/src/server"
	"tradetracker/src/strategy"
)

var (
	APP_NAME      = os.Getenv("APP_NAME")
	STREAM_QUOTES = os.Getenv("STREAM_QUOTES")
)

func SetupLogger() {
	levelStr := strings.ToLower(os.Getenv("LOG_LEVEL"))

	level, err := logger.ParseLevel(levelStr)
	if err != nil {
		level = logger.DebugLevel
	}

	logger.SetLevel(level)
	logger.SetFormatter(&logger.TextFormatter{
		FullTimestamp: true,
	})
}

func main() {
	SetupLogger()
	defer handlePanic()

	// Initialize main (read/write) database
	if err := database.InitMainDB(); err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	client, accountHash, err := executors.BrokerClient()
	if err != nil {
		logger.WithError(err).Fatal("Failed to build broker client")
	}

	store := repository.NewSuggestionRepository()
	quotes := risk.NewQuoteCache(client, risk.DefaultQuoteTTL)

	// STREAM_QUOTES holds a comma-separated symbol list; when set, the
	// level-one stream keeps the quote cache warm between polls.
	if STREAM_QUOTES != "" {
		symbols := strings.Split(STREAM_QUOTES, ",")
		config := connectors.GetConfig()
		streamer := connectors.NewQuoteStreamer(config.StreamerURL, symbols, client.StreamerTokenSource(), quotes)
		go streamer.Run(context.Background())
	}

	server.StartServer(server.Dependencies{
		Store: store,
		Reconciler: reconciler.NewReconciler(store, client, repository.NewExceptionRepository()).
			WithRunLog(repository.NewReconcileRunRepository()),
		Runs:        repository.NewReconcileRunRepository(),
		Intake:      strategy.NewIntake(nil, store, dedup.NewSuppressor(dedup.DefaultCapacity)),
		Broker:      client,
		Quotes:      quotes,
		AccountHash: accountHash,
	})
}

func handlePanic() {
	if r := recover(); r != nil {
		logger.WithError(fmt.Errorf("%+v", r)).Error(fmt.Sprintf("Application %s panic", APP_NAME))
	}
	//nolint
	time.Sleep(time.Second * 5)
}
