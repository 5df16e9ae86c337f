package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds application configuration
type Config struct {
	Version     string `env:"VERSION" envDefault:"0.1.0"`
	Port        int    `env:"PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"prod"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	SentryDSN   string `env:"SENTRY_DSN"`

	// Login API the forms submit to
	LoginAPIURL     string            `env:"LOGIN_API_URL,required,notEmpty"`
	LoginAPITimeout time.Duration     `env:"LOGIN_API_TIMEOUT" envDefault:"0s"`
	LoginAPIHeaders map[string]string `env:"LOGIN_API_HEADERS" envSeparator:"," envKeyValSeparator:":"`
}

func NewConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsEnvProd() bool {
	if c.Environment == "prod" && c.SentryDSN != "" {
		return true
	}
	return false
}
