// Package config reads server settings from the environment.
// A .env file in the working directory is loaded first when present.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"coldstore/internal/core/types"
)

// Storage backends.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config holds everything cmd/server needs to start.
type Config struct {
	AppEnv   string
	LogLevel string
	Port     string

	Storage     string
	DatabaseURL string
	MaxConns    int32
	TxTimeout   time.Duration

	// RateCardPath is a YAML rate card loaded into the rate store on startup.
	RateCardPath string

	IntraTransferRate types.Money
	InterTransferRate types.Money

	ShutdownTimeout time.Duration
}

// Development reports whether the server runs in development mode.
func (c Config) Development() bool {
	return c.AppEnv == "development"
}

// Load reads the configuration. envFiles are optional dotenv files;
// with none given, ".env" is tried.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// Missing files are fine, the environment still applies.
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := Config{
		AppEnv:          getEnv("APP_ENV", "development"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		Port:            getEnv("APP_PORT", "8080"),
		Storage:         getEnv("STORAGE", StorageMemory),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		MaxConns:        int32(getEnvInt("DB_MAX_CONNS", 20)),
		TxTimeout:       getEnvDuration("DB_TX_TIMEOUT", 30*time.Second),
		RateCardPath:    getEnv("RATE_CARD_PATH", ""),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
	}

	var err error
	if cfg.IntraTransferRate, err = getEnvMoney("TRANSFER_RATE_INTRA", "0"); err != nil {
		return Config{}, err
	}
	if cfg.InterTransferRate, err = getEnvMoney("TRANSFER_RATE_INTER", "0"); err != nil {
		return Config{}, err
	}

	return cfg, cfg.Validate()
}

// Validate checks settings that depend on each other.
func (c Config) Validate() error {
	switch c.Storage {
	case StorageMemory:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORAGE=%s", StoragePostgres)
		}
	default:
		return fmt.Errorf("unknown STORAGE %q (want %s or %s)", c.Storage, StorageMemory, StoragePostgres)
	}
	if c.IntraTransferRate.IsNegative() || c.InterTransferRate.IsNegative() {
		return fmt.Errorf("transfer rates must not be negative")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvMoney(key, defaultValue string) (types.Money, error) {
	m, err := types.NewMoneyFromString(getEnv(key, defaultValue))
	if err != nil {
		return types.Money{}, fmt.Errorf("%s: %w", key, err)
	}
	return m, nil
}
