package connectors

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	AppKey       string `envconfig:"SCHWAB_APP_KEY"`
	AppSecret    string `envconfig:"SCHWAB_APP_SECRET"`
	RefreshToken string `envconfig:"SCHWAB_REFRESH_TOKEN"`

	// When set, SCHWAB_APP_KEY / SCHWAB_APP_SECRET / SCHWAB_REFRESH_TOKEN
	// hold sealed envelopes from the security package instead of
	// plaintext values.
	CredentialsSealed bool `envconfig:"SCHWAB_CREDENTIALS_SEALED" default:"false"`

	AccountHash string `envconfig:"SCHWAB_ACCOUNT_HASH"`

	TraderBaseURL     string        `envconfig:"SCHWAB_TRADER_BASE_URL" default:"https://api.schwabapi.com/trader/v1"`
	MarketDataBaseURL string        `envconfig:"SCHWAB_MARKETDATA_BASE_URL" default:"https://api.schwabapi.com/marketdata/v1"`
	TokenURL          string        `envconfig:"SCHWAB_TOKEN_URL" default:"https://api.schwabapi.com/v1/oauth/token"`
	StreamerURL       string        `envconfig:"SCHWAB_STREAMER_URL" default:"wss://streamer-api.schwab.com/ws"`
	Timeout           time.Duration `envconfig:"SCHWAB_HTTP_TIMEOUT" default:"15s"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
