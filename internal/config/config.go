package config

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENV" default:"development"`

	// Base URL of the REST data service (json-server compatible). All
	// persistence is delegated to it; this app keeps only in-memory caches.
	DataServiceURL string `envconfig:"DATA_SERVICE_URL" default:"http://localhost:3000"`

	// Session cookie settings
	SessionSecret     string `envconfig:"SESSION_SECRET" required:"true"`
	SessionTTLMinutes int    `envconfig:"SESSION_TTL_MINUTES" default:"720"`
	SessionCookieName string `envconfig:"SESSION_COOKIE_NAME" default:"coursetrack_session"`

	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS" default:"*"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
