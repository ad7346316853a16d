package boot

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

type ServerConfig struct {
	Port          int      `env:"PORT,default=8000"`
	MetricsPort   int      `env:"METRICS_PORT,default=8001"`
	UIPort        int      `env:"UI_PORT,default=8080"`
	UIMetricsPort int      `env:"UI_METRICS_PORT,default=8081"`
	Origins       []string `env:"ALLOWED_ORIGINS,default=http://localhost:5173"`
}

type DatabaseConfig struct {
	DSN string `env:"DATABASE_DSN,default=hearthcoin.db"`
}

type AdminConfig struct {
	SecretKey       string `env:"ADMIN_SECRET_KEY,required"`
	GenesisPassword string `env:"GENESIS_PASSWORD,required"`
}

type Config struct {
	Env           string         `env:"ENV,default=dev"`
	Server        ServerConfig   `env:",prefix=SERVER_"`
	Database      DatabaseConfig `env:",prefix="`
	Admin         AdminConfig    `env:",prefix="`
	SessionSecret string         `env:"SESSION_SECRET,required"`
	SweepInterval int            `env:"SWEEP_INTERVAL_SECONDS,default=30"`
}

func (c Config) IsDevelopment() bool {
	return c.Env == "dev"
}

func Load() (Config, error) {
	config := Config{}
	if err := envconfig.Process(context.Background(), &config); err != nil {
		return Config{}, fmt.Errorf("parsing env vars: %w", err)
	}
	return config, nil
}
