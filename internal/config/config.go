// Package config loads the evdump configuration from the environment.
package config

import (
	"go.llib.dev/frameless/pkg/env"
	"go.llib.dev/frameless/pkg/logging"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

type Config struct {
	// LogLevel is the level of the diagnostic logs written to STDERR.
	LogLevel string `env:"EVDUMP_LOG_LEVEL" default:"info" enum:"debug;info;warn;error;fatal;"`
	// Format is the default output format when the -format flag is not given.
	Format string `env:"EVDUMP_FORMAT" default:"text" enum:"text;json;"`
}

func Load() (Config, error) {
	var c Config
	if err := env.Load(&c); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Level() logging.Level {
	return logging.Level(c.LogLevel)
}
