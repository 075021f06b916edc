package reconciler

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"tradetracker/src/database"
	"tradetracker/src/executors"
)

type Reconciler struct{}

// Start runs the reconcile loop until SIGINT/SIGTERM.
func (t *Reconciler) Start() error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)

	defer stop()

	// Initialize main (read/write) database
	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to main database")
		return err
	}

	logrus.Info("Starting order reconciler loop")

	if err := executors.StartLoop(ctx); err != nil {
		logrus.WithError(err).Error("Failed to start reconcile loop")
		return err
	}

	return nil
}
