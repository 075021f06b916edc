package strategy

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	WindowMinutes      int     `envconfig:"SIGNAL_WINDOW_MINUTES" default:"30"`
	MinConfidenceDelta float64 `envconfig:"SIGNAL_MIN_CONFIDENCE_DELTA" default:"10"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
