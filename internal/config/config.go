package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all environment-provided settings for the API server.
type Config struct {
	Addr        string `env:"PLANHUB_ADDR" envDefault:":8080"`
	PostgresDSN string `env:"PLANHUB_PG_DSN"`

	AccessSecret  string        `env:"PLANHUB_JWT_SECRET,notEmpty"`
	RefreshSecret string        `env:"PLANHUB_JWT_REFRESH_SECRET,notEmpty"`
	AccessTTL     time.Duration `env:"PLANHUB_JWT_TTL" envDefault:"15m"`
	RefreshTTL    time.Duration `env:"PLANHUB_JWT_REFRESH_TTL" envDefault:"168h"`

	RateBurst  int `env:"PLANHUB_RATE_BURST" envDefault:"20"`
	RatePerSec int `env:"PLANHUB_RATE_PER_SEC" envDefault:"10"`

	MaxBodyBytes int64 `env:"PLANHUB_MAX_BODY_BYTES" envDefault:"1048576"`
}

// Load parses configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return Config{}, fmt.Errorf("access and refresh secrets must differ")
	}
	return cfg, nil
}
