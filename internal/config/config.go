// internal/config/config.go
//
// Environment-driven configuration. A .env file is loaded when present;
// real environment variables win over it.

package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port         string `env:"PORT" envDefault:"8080"`
	DBPath       string `env:"DB_PATH" envDefault:"hnb.db"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	JWTSecret    string `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	ClientOrigin string `env:"CLIENT_ORIGIN" envDefault:"http://localhost:5173"`
}

// Load reads .env (if any) and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
