package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"tradetracker/cmd/reconciler"
	"tradetracker/src/connectors"
	"tradetracker/src/executors"
	"tradetracker/src/model"
	"tradetracker/src/security"
)

var Version string

func main() {
	app := cli.NewApp()
	app.Name = "TradeTracker CMD"
	app.Usage = "The TradeTracker command line interface"

	app.Commands = []cli.Command{
		reconcilerCMD,
		streamerCMD,
		sealCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	reconcilerCMD = cli.Command{
		Name:        "reconciler",
		Usage:       "run the order reconciler loop",
		Action:      reconcilerAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Run the periodic broker order reconcile loop`,
	}
	streamerCMD = cli.Command{
		Name:        "streamer",
		Usage:       "stream live quotes for the given symbols",
		Action:      streamerAction,
		ArgsUsage:   "SYMBOL [SYMBOL...]",
		Flags:       []cli.Flag{},
		Description: `Subscribe to the broker level-one quote stream and log ticks`,
	}
	sealCMD = cli.Command{
		Name:        "seal",
		Usage:       "seal a credential for storage in the environment",
		Action:      sealAction,
		ArgsUsage:   "VALUE",
		Flags:       []cli.Flag{},
		Description: `Encrypt a broker credential with the configured master key`,
	}
)

func reconcilerAction(_ *cli.Context) error {

	logrus.Info("Starting reconciler CMD")
	logrus.WithField("cmd", "reconciler")

	loop := &reconciler.Reconciler{}
	err := loop.Start()
	if err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}

	return nil
}

type logSink struct{}

func (logSink) Put(q model.Quote) {
	logrus.WithFields(map[string]interface{}{
		"symbol": q.Symbol,
		"last":   q.LastPrice,
		"mark":   q.Mark,
	}).Info("quote")
}

func streamerAction(c *cli.Context) error {

	logrus.Info("Starting streamer CMD")

	symbols := c.Args()
	if len(symbols) == 0 {
		return errors.New("at least one symbol is required")
	}

	client, _, err := executors.BrokerClient()
	if err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config := connectors.GetConfig()
	streamer := connectors.NewQuoteStreamer(config.StreamerURL, symbols, client.StreamerTokenSource(), logSink{})
	streamer.Run(ctx)

	return nil
}

func sealAction(c *cli.Context) error {

	value := c.Args().First()
	if value == "" {
		return errors.New("a value to seal is required")
	}

	sealed, err := security.EncryptString(value)
	if err != nil {
		logrus.WithError(err).Error("Failed to seal value")
		return err
	}

	fmt.Println(sealed)
	return nil
}
