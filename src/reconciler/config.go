package reconciler

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	LookbackDays int    `envconfig:"RECONCILE_LOOKBACK_DAYS" default:"7"`
	MaxResults   int    `envconfig:"RECONCILE_MAX_RESULTS" default:"500"`
	AccountHash  string `envconfig:"SCHWAB_ACCOUNT_HASH"`
}

func GetConfig() Config {
	var config Config
	err := envconfig.Process("", &config)
	if err != nil {
		panic(err.Error())
	}
	return config
}
