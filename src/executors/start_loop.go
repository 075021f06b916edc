package executors

import (
	"context"
	"errors"
	"time"

	logger "github.com/sirupsen/logrus"

	"tradetracker/src/connectors"
	"tradetracker/src/reconciler"
	"tradetracker/src/repository"
	"tradetracker/src/security"
)

type reconcileRunner interface {
	Reconcile(ctx context.Context, opts reconciler.Options) reconciler.Result
}

// newRunner builds the production reconciler; swapped out in tests.
var newRunner = func() (reconcileRunner, error) {
	client, _, err := BrokerClient()
	if err != nil {
		return nil, err
	}
	return reconciler.NewReconciler(
		repository.NewSuggestionRepository(),
		client,
		repository.NewExceptionRepository(),
	).WithRunLog(repository.NewReconcileRunRepository()), nil
}

// BrokerClient builds the Schwab client from configuration, unsealing
// credentials when they are stored encrypted. Returns the client and
// the configured account hash.
func BrokerClient() (*connectors.SchwabClient, string, error) {
	config := connectors.GetConfig()

	appKey := config.AppKey
	appSecret := config.AppSecret
	refreshToken := config.RefreshToken

	if config.CredentialsSealed {
		var err error
		if appKey, err = security.DecryptString(config.AppKey); err != nil {
			logger.WithError(err).Error("Failed to decrypt app key")
			return nil, "", err
		}
		if appSecret, err = security.DecryptString(config.AppSecret); err != nil {
			logger.WithError(err).Error("Failed to decrypt app secret")
			return nil, "", err
		}
		if refreshToken, err = security.DecryptString(config.RefreshToken); err != nil {
			logger.WithError(err).Error("Failed to decrypt refresh token")
			return nil, "", err
		}
	}

	if appKey == "" || appSecret == "" || refreshToken == "" {
		return nil, "", errors.New("schwab credentials not set")
	}

	return connectors.NewSchwabClient(appKey, appSecret, refreshToken, config), config.AccountHash, nil
}

// StartLoop runs the reconciler on a fixed period until the context is
// canceled. A pass that fails logs and waits for the next tick; the
// loop itself only stops on cancellation.
func StartLoop(ctx context.Context) error {
	config := GetConfig()

	runner, err := newRunner()
	if err != nil {
		logger.WithError(err).Error("Failed to build reconciler")
		return err
	}

	ticker := time.NewTicker(config.LoopPeriod)
	defer ticker.Stop()

	if config.RunOnStart {
		runPass(ctx, runner)
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("loop stopped")
			return nil

		case <-ticker.C:
			logger.Info("loop tick")
			runPass(ctx, runner)
		}
	}
}

func runPass(ctx context.Context, runner reconcileRunner) {
	result := runner.Reconcile(ctx, reconciler.Options{})
	if !result.OK {
		logger.WithField("errors", result.Errors).Warn("reconcile pass failed, will retry next tick")
		return
	}
	logger.WithFields(map[string]interface{}{
		"scanned": result.Scanned,
		"matched": result.Matched,
		"updated": result.Updated,
	}).Info("reconcile pass complete")
}
